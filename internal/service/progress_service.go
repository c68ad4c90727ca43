package service

import (
	"errors"
	"math"
	"time"

	"studyflow_backend/internal/model"
	"studyflow_backend/internal/repository"

	"gorm.io/gorm"
)

const (
	retentionInitial = 15
	retentionBump    = 5
	retentionMax     = 100
)

type ProgressService struct {
	StatsRepo     *repository.StatsRepository
	RetentionRepo *repository.RetentionRepository
	ProgressRepo  *repository.ProgressRepository
	CourseRepo    *repository.CourseRepository
	FileRepo      *repository.FileRepository
	ChatRepo      *repository.ChatRepository
}

func NewProgressService(
	statsRepo *repository.StatsRepository,
	retentionRepo *repository.RetentionRepository,
	progressRepo *repository.ProgressRepository,
	courseRepo *repository.CourseRepository,
	fileRepo *repository.FileRepository,
	chatRepo *repository.ChatRepository,
) *ProgressService {
	return &ProgressService{
		StatsRepo:     statsRepo,
		RetentionRepo: retentionRepo,
		ProgressRepo:  progressRepo,
		CourseRepo:    courseRepo,
		FileRepo:      fileRepo,
		ChatRepo:      chatRepo,
	}
}

// NextStreak 连续天数推进规则：今天已记录不变，昨天有记录加一，否则重置为1
func NextStreak(last *time.Time, now time.Time, current int) int {
	if last == nil {
		return 1
	}
	today := repository.Midnight(now)
	lastDay := repository.Midnight(*last)
	switch {
	case lastDay.Equal(today):
		return current
	case lastDay.Equal(today.AddDate(0, 0, -1)):
		return current + 1
	default:
		return 1
	}
}

// RecordActivity 每次学习行为调用：推进streak并累加当日保持分
func (s *ProgressService) RecordActivity(userID uint) error {
	stats, err := s.StatsRepo.GetOrCreate(userID)
	if err != nil {
		return err
	}

	now := time.Now()
	stats.CurrentStreak = NextStreak(stats.LastActivityDate, now, stats.CurrentStreak)
	today := repository.Midnight(now)
	stats.LastActivityDate = &today
	if err := s.StatsRepo.Update(stats); err != nil {
		return err
	}

	return s.bumpRetention(userID, now)
}

// bumpRetention 当日首次活动建15分记录，之后每次加5封顶100
func (s *ProgressService) bumpRetention(userID uint, now time.Time) error {
	metric, err := s.RetentionRepo.FindByDate(userID, now)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return s.RetentionRepo.Create(&model.RetentionMetric{
			UserID: userID,
			Date:   now,
			Score:  retentionInitial,
		})
	}
	if err != nil {
		return err
	}

	metric.Score += retentionBump
	if metric.Score > retentionMax {
		metric.Score = retentionMax
	}
	return s.RetentionRepo.Update(metric)
}

// ComputeMastery 知识掌握度：对话参与最多30分，近7日保持分最多30分，上限100
func ComputeMastery(chatTurns int64, avgRetention float64) int {
	engagement := int(chatTurns) * 10
	if engagement > 30 {
		engagement = 30
	}
	retention := int(avgRetention * 0.3)
	if retention > 30 {
		retention = 30
	}
	mastery := engagement + retention
	if mastery > 100 {
		mastery = 100
	}
	return mastery
}

func (s *ProgressService) KnowledgeMastery(userID, courseID uint) (int, error) {
	turns, err := s.ChatRepo.CountUserTurns(userID, courseID)
	if err != nil {
		return 0, err
	}
	avg, err := s.RetentionRepo.AverageSince(userID, time.Now().AddDate(0, 0, -7))
	if err != nil {
		return 0, err
	}
	return ComputeMastery(turns, avg), nil
}

// ComputeProgress 完成文件数换算为百分比和状态
func ComputeProgress(completed, total int64) (int, model.ProgressStatus) {
	if total == 0 {
		return 0, model.ProgressNotStarted
	}
	pct := int(math.Round(float64(completed) / float64(total) * 100))
	switch {
	case pct <= 0:
		return 0, model.ProgressNotStarted
	case pct >= 100:
		return 100, model.ProgressCompleted
	default:
		return pct, model.ProgressInProgress
	}
}

// StatusForProgress 百分比映射单条进度状态
func StatusForProgress(pct int) model.ProgressStatus {
	switch {
	case pct <= 0:
		return model.ProgressNotStarted
	case pct >= 100:
		return model.ProgressCompleted
	default:
		return model.ProgressInProgress
	}
}

// UpdateFileProgress 写入单文件进度和阅读时长并重算课程汇总进度，课程时长累加
func (s *ProgressService) UpdateFileProgress(userID, fileID uint, percentage, timeSpentMinutes int) (*model.CourseProgress, error) {
	file, err := s.FileRepo.FindByIDAndUser(fileID, userID)
	if err != nil {
		return nil, err
	}

	if percentage < 0 {
		percentage = 0
	}
	if percentage > 100 {
		percentage = 100
	}
	if timeSpentMinutes < 0 {
		timeSpentMinutes = 0
	}

	fp, err := s.ProgressRepo.GetOrCreateFile(userID, fileID, file.CourseID)
	if err != nil {
		return nil, err
	}
	fp.Percentage = percentage
	fp.Status = StatusForProgress(percentage)
	fp.TotalReadTimeMinutes = timeSpentMinutes
	if err := s.ProgressRepo.UpdateFile(fp); err != nil {
		return nil, err
	}

	if err := s.RecordActivity(userID); err != nil {
		return nil, err
	}

	cp, err := s.RecomputeCourseProgress(userID, file.CourseID)
	if err != nil {
		return nil, err
	}
	if timeSpentMinutes > 0 {
		cp.TimeSpentMinutes += timeSpentMinutes
		if err := s.ProgressRepo.UpdateCourse(cp); err != nil {
			return nil, err
		}
	}
	return cp, nil
}

// RecomputeCourseProgress 按已完成文件占比更新课程进度与课程状态
func (s *ProgressService) RecomputeCourseProgress(userID, courseID uint) (*model.CourseProgress, error) {
	total, err := s.FileRepo.CountByCourse(userID, courseID)
	if err != nil {
		return nil, err
	}
	completed, err := s.ProgressRepo.CountCompletedFiles(userID, courseID)
	if err != nil {
		return nil, err
	}

	cp, err := s.ProgressRepo.GetOrCreateCourse(userID, courseID)
	if err != nil {
		return nil, err
	}
	cp.Percentage, cp.Status = ComputeProgress(completed, total)
	if err := s.ProgressRepo.UpdateCourse(cp); err != nil {
		return nil, err
	}

	if err := s.syncCourseStatus(userID, courseID, cp); err != nil {
		return nil, err
	}
	return cp, nil
}

// syncCourseStatus 课程卡片状态：未动工Just Started，保持分低Review Needed，其余On Track
func (s *ProgressService) syncCourseStatus(userID, courseID uint, cp *model.CourseProgress) error {
	course, err := s.CourseRepo.FindByIDAndUser(courseID, userID)
	if err != nil {
		return err
	}

	status := model.CourseJustStarted
	if cp.Percentage > 0 {
		avg, err := s.RetentionRepo.AverageSince(userID, time.Now().AddDate(0, 0, -7))
		if err != nil {
			return err
		}
		if avg < 40 {
			status = model.CourseReviewNeeded
		} else {
			status = model.CourseOnTrack
		}
	}

	course.Status = status
	course.IsCompleted = cp.Status == model.ProgressCompleted
	return s.CourseRepo.Update(course)
}

// CourseProgressDetail 课程进度详情，含每个文件的进度
type CourseProgressDetail struct {
	Course  *model.CourseProgress `json:"course"`
	Files   []model.FileProgress  `json:"files"`
	Mastery int                   `json:"mastery"`
}

func (s *ProgressService) CourseDetail(userID, courseID uint) (*CourseProgressDetail, error) {
	if _, err := s.CourseRepo.FindByIDAndUser(courseID, userID); err != nil {
		return nil, err
	}
	cp, err := s.ProgressRepo.GetOrCreateCourse(userID, courseID)
	if err != nil {
		return nil, err
	}
	files, err := s.ProgressRepo.ListFileProgressByCourse(userID, courseID)
	if err != nil {
		return nil, err
	}
	mastery, err := s.KnowledgeMastery(userID, courseID)
	if err != nil {
		return nil, err
	}
	return &CourseProgressDetail{Course: cp, Files: files, Mastery: mastery}, nil
}
