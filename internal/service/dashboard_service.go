package service

import (
	"math"
	"time"

	"studyflow_backend/internal/model"
	"studyflow_backend/internal/repository"
)

const retentionWindowDays = 7

type DashboardService struct {
	UserRepo      *repository.UserRepository
	ProfileRepo   *repository.ProfileRepository
	StatsRepo     *repository.StatsRepository
	RetentionRepo *repository.RetentionRepository
	CourseRepo    *repository.CourseRepository
}

func NewDashboardService(
	userRepo *repository.UserRepository,
	profileRepo *repository.ProfileRepository,
	statsRepo *repository.StatsRepository,
	retentionRepo *repository.RetentionRepository,
	courseRepo *repository.CourseRepository,
) *DashboardService {
	return &DashboardService{
		UserRepo:      userRepo,
		ProfileRepo:   profileRepo,
		StatsRepo:     statsRepo,
		RetentionRepo: retentionRepo,
		CourseRepo:    courseRepo,
	}
}

// Dashboard 首页聚合数据
type Dashboard struct {
	User               *model.User           `json:"user"`
	Profile            *model.StudentProfile `json:"profile"`
	CurrentStreak      int                   `json:"currentStreak"`
	DocumentsProcessed int                   `json:"documentsProcessed"`
	Mastery            float64               `json:"mastery"`
	RetentionTrend     []int                 `json:"retentionTrend"`
	RecentCourses      []model.Course        `json:"recentCourses"`
}

func (s *DashboardService) Build(userID uint) (*Dashboard, error) {
	user, err := s.UserRepo.FindByID(userID)
	if err != nil {
		return nil, err
	}
	profile, err := s.ProfileRepo.GetOrCreate(userID)
	if err != nil {
		return nil, err
	}
	stats, err := s.StatsRepo.GetOrCreate(userID)
	if err != nil {
		return nil, err
	}

	since := time.Now().AddDate(0, 0, -(retentionWindowDays - 1))
	avg, err := s.RetentionRepo.AverageSince(userID, since)
	if err != nil {
		return nil, err
	}

	metrics, err := s.RetentionRepo.RecentScores(userID, since)
	if err != nil {
		return nil, err
	}

	courses, err := s.CourseRepo.RecentByUser(userID, 2)
	if err != nil {
		return nil, err
	}

	return &Dashboard{
		User:               user,
		Profile:            profile,
		CurrentStreak:      stats.CurrentStreak,
		DocumentsProcessed: stats.DocumentsProcessed,
		Mastery:            math.Round(avg*10) / 10,
		RetentionTrend:     buildTrend(metrics, since, retentionWindowDays),
		RecentCourses:      courses,
	}, nil
}

// buildTrend 最近n天保持分序列，无记录的日子补0
func buildTrend(metrics []model.RetentionMetric, since time.Time, days int) []int {
	byDay := make(map[string]int, len(metrics))
	for _, m := range metrics {
		byDay[m.Date.Format("2006-01-02")] = m.Score
	}

	trend := make([]int, 0, days)
	day := repository.Midnight(since)
	for i := 0; i < days; i++ {
		trend = append(trend, byDay[day.Format("2006-01-02")])
		day = day.AddDate(0, 0, 1)
	}
	return trend
}
