package model

// Gemini文件资源状态
const (
	GeminiStateProcessing = "PROCESSING"
	GeminiStateActive     = "ACTIVE"
	GeminiStateFailed     = "FAILED"
)

// UploadedFile 课程笔记文件，本地存一份，Gemini File API存一份
type UploadedFile struct {
	BaseModel
	UserID             uint   `gorm:"index;not null" json:"userId"`
	CourseID           uint   `gorm:"index;not null" json:"courseId"`
	Title              string `gorm:"size:255;not null" json:"title"`
	OriginalName       string `gorm:"size:255" json:"originalName"`
	StoredName         string `gorm:"size:255;not null" json:"-"`
	ContentType        string `gorm:"size:100" json:"contentType"`
	Size               int64  `json:"size"`
	GeminiResourceName string `gorm:"size:255;uniqueIndex" json:"-"`
	GeminiFileURI      string `gorm:"size:512" json:"-"`
	GeminiState        string `gorm:"size:20;default:'PROCESSING'" json:"geminiState"`
	IsDeleted          bool   `gorm:"default:false" json:"-"`
}

func (UploadedFile) TableName() string {
	return "uploaded_files"
}
