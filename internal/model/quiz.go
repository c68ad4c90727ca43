package model

import "gorm.io/datatypes"

// QuizQuestion 单条选择题，Correct为正确选项下标
type QuizQuestion struct {
	Q       string   `json:"q"`
	Options []string `json:"options"`
	Correct int      `json:"correct"`
}

// GeneratedQuiz AI生成的测验，题目以JSON数组落库
type GeneratedQuiz struct {
	BaseModel
	UserID            uint           `gorm:"index;not null" json:"userId"`
	CourseID          uint           `gorm:"index;not null" json:"courseId"`
	FileID            *uint          `gorm:"index" json:"fileId"`
	Title             string         `gorm:"size:255;not null" json:"title"`
	Description       string         `gorm:"type:text" json:"description"`
	NumQuestions      int            `gorm:"default:5" json:"numQuestions"`
	Questions         datatypes.JSON `gorm:"not null" json:"questions"`
	GeneratedFromText bool           `gorm:"default:false" json:"generatedFromText"`
}

func (GeneratedQuiz) TableName() string {
	return "generated_quizzes"
}

// QuizAttempt 一次作答记录，答案为题目下标到所选选项的映射
type QuizAttempt struct {
	BaseModel
	UserID           uint           `gorm:"index;not null" json:"userId"`
	QuizID           uint           `gorm:"index;not null" json:"quizId"`
	Answers          datatypes.JSON `json:"answers"`
	Score            int            `json:"score"`
	Percentage       int            `json:"percentage"`
	TimeSpentSeconds int            `gorm:"default:0" json:"timeSpentSeconds"`
}

func (QuizAttempt) TableName() string {
	return "quiz_attempts"
}
