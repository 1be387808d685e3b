package models

type Landmark struct {
	BaseModel
	Name        string `json:"name" gorm:"type:varchar(255);uniqueIndex;not null"`
	Description string `json:"description" gorm:"type:text;not null"`
	Location    string `json:"location" gorm:"type:varchar(255);not null"`
	CategoryID  uint   `json:"categoryID" gorm:"not null;index"`
	// CategoryName is the category's name captured at creation time. It is
	// not refreshed when the category is renamed.
	CategoryName string `json:"categoryName" gorm:"type:varchar(255);not null"`
	Img          string `json:"img" gorm:"type:varchar(255);not null"`

	Category Category `json:"-" gorm:"foreignKey:CategoryID"`
	Reviews  []Review `json:"-" gorm:"foreignKey:LandmarkID"`

	AverageRating float64 `json:"averageRating" gorm:"-"`
	ReviewCount   int64   `json:"reviewCount" gorm:"-"`
}
