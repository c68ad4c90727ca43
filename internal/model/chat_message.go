package model

type ChatRole string

const (
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
)

// ChatMessage 课程内的问答记录，user与assistant各存一条
type ChatMessage struct {
	BaseModel
	UserID   uint     `gorm:"not null;index:idx_chat_user_course" json:"userId"`
	CourseID uint     `gorm:"not null;index:idx_chat_user_course" json:"courseId"`
	Role     ChatRole `gorm:"size:20;not null" json:"role"`
	Content  string   `gorm:"type:text;not null" json:"content"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}
