package repository

import (
	"errors"
	"studyflow_backend/internal/model"

	"gorm.io/gorm"
)

type ProfileRepository struct {
	DB *gorm.DB
}

func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{DB: db}
}

func (r *ProfileRepository) Create(tx *gorm.DB, profile *model.StudentProfile) error {
	if tx == nil {
		tx = r.DB
	}
	return tx.Create(profile).Error
}

// GetOrCreate 取用户学籍信息，历史用户缺失时补建空档案
func (r *ProfileRepository) GetOrCreate(userID uint) (*model.StudentProfile, error) {
	var profile model.StudentProfile
	err := r.DB.Where("user_id = ?", userID).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		profile = model.StudentProfile{UserID: userID}
		if err := r.DB.Create(&profile).Error; err != nil {
			return nil, err
		}
		return &profile, nil
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *ProfileRepository) Update(profile *model.StudentProfile) error {
	return r.DB.Save(profile).Error
}
