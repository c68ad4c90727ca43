package model

import "time"

// swagger:model User
type User struct {
	BaseModel
	Name      string     `gorm:"size:100;not null" json:"name"`
	Email     string     `gorm:"size:100;unique;not null" json:"email"`
	Password  string     `gorm:"size:100;not null" json:"-"`
	Avatar    string     `gorm:"size:255" json:"avatar"`
	LastLogin *time.Time `json:"lastLogin"`
}

func (User) TableName() string {
	return "users"
}

// StudentProfile 学生学籍信息，随注册创建，可后续补全
type StudentProfile struct {
	BaseModel
	UserID   uint   `gorm:"uniqueIndex;not null" json:"userId"`
	College  string `gorm:"size:150" json:"college"`
	Branch   string `gorm:"size:100" json:"branch"`
	Semester int    `gorm:"default:1" json:"semester"`
	RollNo   string `gorm:"size:50" json:"rollNo"`
}

func (StudentProfile) TableName() string {
	return "student_profiles"
}
