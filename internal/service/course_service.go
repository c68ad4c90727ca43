package service

import (
	"studyflow_backend/internal/model"
	"studyflow_backend/internal/repository"
)

type CourseService struct {
	CourseRepo   *repository.CourseRepository
	ProgressRepo *repository.ProgressRepository
}

func NewCourseService(courseRepo *repository.CourseRepository, progressRepo *repository.ProgressRepository) *CourseService {
	return &CourseService{CourseRepo: courseRepo, ProgressRepo: progressRepo}
}

type CourseInput struct {
	Name     string `json:"name" binding:"required"`
	Branch   string `json:"branch"`
	Semester int    `json:"semester"`
}

func (s *CourseService) Create(userID uint, input CourseInput) (*model.Course, error) {
	semester := input.Semester
	if semester <= 0 {
		semester = 1
	}
	course := &model.Course{
		UserID:   userID,
		Name:     input.Name,
		Branch:   input.Branch,
		Semester: semester,
		Status:   model.CourseJustStarted,
	}
	if err := s.CourseRepo.Create(course); err != nil {
		return nil, err
	}

	// 进度行随课程创建，前端无需区分首访
	if _, err := s.ProgressRepo.GetOrCreateCourse(userID, course.ID); err != nil {
		return nil, err
	}
	return course, nil
}

func (s *CourseService) List(userID uint) ([]model.Course, error) {
	return s.CourseRepo.ListByUser(userID)
}

func (s *CourseService) Get(userID, courseID uint) (*model.Course, error) {
	return s.CourseRepo.FindByIDAndUser(courseID, userID)
}

// CourseUpdateInput 部分更新，nil字段保持原值
type CourseUpdateInput struct {
	Name        *string             `json:"name"`
	Branch      *string             `json:"branch"`
	Semester    *int                `json:"semester"`
	Status      *model.CourseStatus `json:"status"`
	IsCompleted *bool               `json:"isCompleted"`
}

func (s *CourseService) Update(userID, courseID uint, input CourseUpdateInput) (*model.Course, error) {
	course, err := s.CourseRepo.FindByIDAndUser(courseID, userID)
	if err != nil {
		return nil, err
	}
	if input.Name != nil && *input.Name != "" {
		course.Name = *input.Name
	}
	if input.Branch != nil {
		course.Branch = *input.Branch
	}
	if input.Semester != nil && *input.Semester > 0 {
		course.Semester = *input.Semester
	}
	if input.Status != nil {
		course.Status = *input.Status
	}
	if input.IsCompleted != nil {
		course.IsCompleted = *input.IsCompleted
	}
	if err := s.CourseRepo.Update(course); err != nil {
		return nil, err
	}
	return course, nil
}

func (s *CourseService) Delete(userID, courseID uint) error {
	course, err := s.CourseRepo.FindByIDAndUser(courseID, userID)
	if err != nil {
		return err
	}
	return s.CourseRepo.Delete(course)
}
