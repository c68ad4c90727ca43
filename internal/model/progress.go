package model

type ProgressStatus string

const (
	ProgressNotStarted ProgressStatus = "not_started"
	ProgressInProgress ProgressStatus = "in_progress"
	ProgressCompleted  ProgressStatus = "completed"
)

// CourseProgress 课程维度的完成进度，由文件进度汇总计算
type CourseProgress struct {
	BaseModel
	UserID           uint           `gorm:"not null;uniqueIndex:idx_progress_user_course" json:"userId"`
	CourseID         uint           `gorm:"not null;uniqueIndex:idx_progress_user_course" json:"courseId"`
	Percentage       int            `gorm:"default:0" json:"percentage"`
	Status           ProgressStatus `gorm:"size:20;default:'not_started'" json:"status"`
	TimeSpentMinutes int            `gorm:"default:0" json:"timeSpentMinutes"`
}

func (CourseProgress) TableName() string {
	return "course_progress"
}

// FileProgress 单个文件的学习进度
type FileProgress struct {
	BaseModel
	UserID               uint           `gorm:"not null;uniqueIndex:idx_progress_user_file" json:"userId"`
	FileID               uint           `gorm:"not null;uniqueIndex:idx_progress_user_file" json:"fileId"`
	CourseID             uint           `gorm:"index;not null" json:"courseId"`
	Percentage           int            `gorm:"default:0" json:"percentage"`
	Status               ProgressStatus `gorm:"size:20;default:'not_started'" json:"status"`
	TotalReadTimeMinutes int            `gorm:"default:0" json:"totalReadTimeMinutes"`
}

func (FileProgress) TableName() string {
	return "file_progress"
}
