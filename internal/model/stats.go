package model

import "time"

// UserStats 学习活跃度统计，连续学习天数与已处理文档数
type UserStats struct {
	BaseModel
	UserID             uint       `gorm:"uniqueIndex;not null" json:"userId"`
	CurrentStreak      int        `gorm:"default:0" json:"currentStreak"`
	DocumentsProcessed int        `gorm:"default:0" json:"documentsProcessed"`
	LastActivityDate   *time.Time `json:"lastActivityDate"`
}

func (UserStats) TableName() string {
	return "user_stats"
}

// RetentionMetric 每用户每日一条的记忆保持分，范围0-100
type RetentionMetric struct {
	BaseModel
	UserID uint      `gorm:"not null;uniqueIndex:idx_retention_user_date" json:"userId"`
	Date   time.Time `gorm:"not null;uniqueIndex:idx_retention_user_date" json:"date"`
	Score  int       `gorm:"default:0" json:"score"`
}

func (RetentionMetric) TableName() string {
	return "retention_metrics"
}
