package repository

import (
	"errors"
	"studyflow_backend/internal/model"
	"studyflow_backend/internal/util"

	"gorm.io/gorm"
)

type FileRepository struct {
	DB *gorm.DB
}

func NewFileRepository(db *gorm.DB) *FileRepository {
	return &FileRepository{DB: db}
}

func (r *FileRepository) Create(file *model.UploadedFile) error {
	return r.DB.Create(file).Error
}

func (r *FileRepository) FindByIDAndUser(id, userID uint) (*model.UploadedFile, error) {
	var file model.UploadedFile
	err := r.DB.Where("id = ? AND user_id = ? AND is_deleted = ?", id, userID, false).First(&file).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrFileNotFound
	}
	if err != nil {
		return nil, err
	}
	return &file, nil
}

func (r *FileRepository) ListByCourse(userID, courseID uint) ([]model.UploadedFile, error) {
	var files []model.UploadedFile
	err := r.DB.Where("user_id = ? AND course_id = ? AND is_deleted = ?", userID, courseID, false).
		Order("created_at DESC").
		Find(&files).Error
	return files, err
}

// ActiveByCourse 课程内可作为对话素材的文件，仅取ACTIVE状态
func (r *FileRepository) ActiveByCourse(userID, courseID uint) ([]model.UploadedFile, error) {
	var files []model.UploadedFile
	err := r.DB.Where("user_id = ? AND course_id = ? AND is_deleted = ? AND gemini_state = ?",
		userID, courseID, false, model.GeminiStateActive).
		Find(&files).Error
	return files, err
}

func (r *FileRepository) CountByCourse(userID, courseID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.UploadedFile{}).
		Where("user_id = ? AND course_id = ? AND is_deleted = ?", userID, courseID, false).
		Count(&count).Error
	return count, err
}

func (r *FileRepository) Update(file *model.UploadedFile) error {
	return r.DB.Save(file).Error
}

// MarkDeleted 软删除，保留行以免打断历史测验的文件引用
func (r *FileRepository) MarkDeleted(file *model.UploadedFile) error {
	file.IsDeleted = true
	return r.DB.Save(file).Error
}
