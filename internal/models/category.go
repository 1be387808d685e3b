package models

type Category struct {
	BaseModel
	Name      string     `json:"name" gorm:"type:varchar(255);uniqueIndex;not null"`
	Landmarks []Landmark `json:"-" gorm:"foreignKey:CategoryID"`
}

func (Category) TableName() string {
	return "categories"
}
