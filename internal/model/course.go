package model

type CourseStatus string

const (
	CourseJustStarted  CourseStatus = "Just Started"
	CourseOnTrack      CourseStatus = "On Track"
	CourseReviewNeeded CourseStatus = "Review Needed"
)

// swagger:model Course
type Course struct {
	BaseModel
	UserID      uint         `gorm:"index;not null" json:"userId"`
	Name        string       `gorm:"size:200;not null" json:"name"`
	Branch      string       `gorm:"size:100" json:"branch"`
	Semester    int          `gorm:"default:1" json:"semester"`
	Status      CourseStatus `gorm:"size:30;default:'Just Started'" json:"status"`
	IsCompleted bool         `gorm:"default:false" json:"isCompleted"`
}

func (Course) TableName() string {
	return "courses"
}
