package repository

import (
	"errors"
	"studyflow_backend/internal/model"
	"studyflow_backend/internal/util"

	"gorm.io/gorm"
)

type QuizRepository struct {
	DB *gorm.DB
}

func NewQuizRepository(db *gorm.DB) *QuizRepository {
	return &QuizRepository{DB: db}
}

func (r *QuizRepository) Create(quiz *model.GeneratedQuiz) error {
	return r.DB.Create(quiz).Error
}

func (r *QuizRepository) FindByIDAndUser(id, userID uint) (*model.GeneratedQuiz, error) {
	var quiz model.GeneratedQuiz
	err := r.DB.Where("id = ? AND user_id = ?", id, userID).First(&quiz).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrQuizNotFound
	}
	if err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (r *QuizRepository) ListByCourse(userID, courseID uint) ([]model.GeneratedQuiz, error) {
	var quizzes []model.GeneratedQuiz
	err := r.DB.Where("user_id = ? AND course_id = ?", userID, courseID).
		Order("created_at DESC").
		Find(&quizzes).Error
	return quizzes, err
}

func (r *QuizRepository) CreateAttempt(attempt *model.QuizAttempt) error {
	return r.DB.Create(attempt).Error
}

func (r *QuizRepository) ListAttempts(userID, quizID uint) ([]model.QuizAttempt, error) {
	var attempts []model.QuizAttempt
	err := r.DB.Where("user_id = ? AND quiz_id = ?", userID, quizID).
		Order("created_at DESC").
		Find(&attempts).Error
	return attempts, err
}
