package models

// Review carries a compound unique index on (user, landmark) so the
// one-review-per-user-per-landmark rule holds even under concurrent
// inserts. Handlers map the duplicate-key error to a conflict response.
type Review struct {
	BaseModel
	Rating     int    `json:"rating" gorm:"not null"`
	Comment    string `json:"comment" gorm:"type:text;not null"`
	UserID     uint   `json:"userID" gorm:"not null;uniqueIndex:idx_reviews_user_landmark"`
	LandmarkID uint   `json:"landmarkID" gorm:"not null;uniqueIndex:idx_reviews_user_landmark"`

	User     User     `json:"-" gorm:"foreignKey:UserID"`
	Landmark Landmark `json:"-" gorm:"foreignKey:LandmarkID"`

	LandmarkName string `json:"landmarkName,omitempty" gorm:"-"`
	UserEmail    string `json:"userEmail,omitempty" gorm:"-"`
}
