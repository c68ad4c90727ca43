package repository

import (
	"errors"
	"studyflow_backend/internal/model"

	"gorm.io/gorm"
)

type ProgressRepository struct {
	DB *gorm.DB
}

func NewProgressRepository(db *gorm.DB) *ProgressRepository {
	return &ProgressRepository{DB: db}
}

func (r *ProgressRepository) GetOrCreateCourse(userID, courseID uint) (*model.CourseProgress, error) {
	var progress model.CourseProgress
	err := r.DB.Where("user_id = ? AND course_id = ?", userID, courseID).First(&progress).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		progress = model.CourseProgress{
			UserID:   userID,
			CourseID: courseID,
			Status:   model.ProgressNotStarted,
		}
		if err := r.DB.Create(&progress).Error; err != nil {
			return nil, err
		}
		return &progress, nil
	}
	if err != nil {
		return nil, err
	}
	return &progress, nil
}

func (r *ProgressRepository) GetOrCreateFile(userID, fileID, courseID uint) (*model.FileProgress, error) {
	var progress model.FileProgress
	err := r.DB.Where("user_id = ? AND file_id = ?", userID, fileID).First(&progress).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		progress = model.FileProgress{
			UserID:   userID,
			FileID:   fileID,
			CourseID: courseID,
			Status:   model.ProgressNotStarted,
		}
		if err := r.DB.Create(&progress).Error; err != nil {
			return nil, err
		}
		return &progress, nil
	}
	if err != nil {
		return nil, err
	}
	return &progress, nil
}

func (r *ProgressRepository) UpdateCourse(progress *model.CourseProgress) error {
	return r.DB.Save(progress).Error
}

func (r *ProgressRepository) UpdateFile(progress *model.FileProgress) error {
	return r.DB.Save(progress).Error
}

func (r *ProgressRepository) ListFileProgressByCourse(userID, courseID uint) ([]model.FileProgress, error) {
	var list []model.FileProgress
	err := r.DB.Where("user_id = ? AND course_id = ?", userID, courseID).Find(&list).Error
	return list, err
}

func (r *ProgressRepository) CountCompletedFiles(userID, courseID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.FileProgress{}).
		Where("user_id = ? AND course_id = ? AND status = ?", userID, courseID, model.ProgressCompleted).
		Count(&count).Error
	return count, err
}
