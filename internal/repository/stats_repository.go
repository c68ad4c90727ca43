package repository

import (
	"errors"
	"time"

	"studyflow_backend/internal/model"

	"gorm.io/gorm"
)

type StatsRepository struct {
	DB *gorm.DB
}

func NewStatsRepository(db *gorm.DB) *StatsRepository {
	return &StatsRepository{DB: db}
}

func (r *StatsRepository) Create(tx *gorm.DB, stats *model.UserStats) error {
	if tx == nil {
		tx = r.DB
	}
	return tx.Create(stats).Error
}

func (r *StatsRepository) GetOrCreate(userID uint) (*model.UserStats, error) {
	var stats model.UserStats
	err := r.DB.Where("user_id = ?", userID).First(&stats).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		stats = model.UserStats{UserID: userID}
		if err := r.DB.Create(&stats).Error; err != nil {
			return nil, err
		}
		return &stats, nil
	}
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func (r *StatsRepository) Update(stats *model.UserStats) error {
	return r.DB.Save(stats).Error
}

func (r *StatsRepository) IncrementDocumentsProcessed(userID uint) error {
	return r.DB.Model(&model.UserStats{}).
		Where("user_id = ?", userID).
		Update("documents_processed", gorm.Expr("documents_processed + ?", 1)).
		Error
}

type RetentionRepository struct {
	DB *gorm.DB
}

func NewRetentionRepository(db *gorm.DB) *RetentionRepository {
	return &RetentionRepository{DB: db}
}

// FindByDate 取用户某天的保持分记录，日期按零点归一
func (r *RetentionRepository) FindByDate(userID uint, date time.Time) (*model.RetentionMetric, error) {
	var metric model.RetentionMetric
	err := r.DB.Where("user_id = ? AND date = ?", userID, Midnight(date)).First(&metric).Error
	if err != nil {
		return nil, err
	}
	return &metric, nil
}

func (r *RetentionRepository) Create(metric *model.RetentionMetric) error {
	metric.Date = Midnight(metric.Date)
	return r.DB.Create(metric).Error
}

func (r *RetentionRepository) Update(metric *model.RetentionMetric) error {
	return r.DB.Save(metric).Error
}

// AverageSince 计算自某日（含）以来保持分均值，无记录返回0
func (r *RetentionRepository) AverageSince(userID uint, since time.Time) (float64, error) {
	var avg *float64
	err := r.DB.Model(&model.RetentionMetric{}).
		Select("AVG(score)").
		Where("user_id = ? AND date >= ?", userID, Midnight(since)).
		Scan(&avg).Error
	if err != nil {
		return 0, err
	}
	if avg == nil {
		return 0, nil
	}
	return *avg, nil
}

// RecentScores 取最近n天记录，按日期升序
func (r *RetentionRepository) RecentScores(userID uint, since time.Time) ([]model.RetentionMetric, error) {
	var metrics []model.RetentionMetric
	err := r.DB.Where("user_id = ? AND date >= ?", userID, Midnight(since)).
		Order("date ASC").
		Find(&metrics).Error
	return metrics, err
}

// Midnight 日期归一到当天零点，保证 user+date 唯一索引生效
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
