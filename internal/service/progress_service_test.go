package service

import (
	"testing"
	"time"

	"studyflow_backend/internal/model"
	"studyflow_backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextStreak(t *testing.T) {
	now := time.Date(2025, 6, 10, 14, 30, 0, 0, time.UTC)
	yesterday := now.AddDate(0, 0, -1)
	lastWeek := now.AddDate(0, 0, -7)

	cases := []struct {
		name    string
		last    *time.Time
		current int
		want    int
	}{
		{"first ever activity", nil, 0, 1},
		{"same day unchanged", &now, 4, 4},
		{"consecutive day increments", &yesterday, 4, 5},
		{"gap resets", &lastWeek, 9, 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NextStreak(tc.last, now, tc.current))
		})
	}
}

func TestComputeMastery(t *testing.T) {
	// 参与度封顶30分
	assert.Equal(t, 30, ComputeMastery(10, 0))
	// 单轮对话10分
	assert.Equal(t, 10, ComputeMastery(1, 0))
	// 保持分部分按30%折算，封顶30
	assert.Equal(t, 30, ComputeMastery(0, 100))
	assert.Equal(t, 15, ComputeMastery(0, 50))
	// 两部分叠加
	assert.Equal(t, 60, ComputeMastery(5, 100))
	assert.Equal(t, 0, ComputeMastery(0, 0))
}

func TestComputeProgress(t *testing.T) {
	pct, status := ComputeProgress(0, 0)
	assert.Equal(t, 0, pct)
	assert.Equal(t, model.ProgressNotStarted, status)

	pct, status = ComputeProgress(0, 4)
	assert.Equal(t, 0, pct)
	assert.Equal(t, model.ProgressNotStarted, status)

	pct, status = ComputeProgress(1, 4)
	assert.Equal(t, 25, pct)
	assert.Equal(t, model.ProgressInProgress, status)

	pct, status = ComputeProgress(2, 3)
	assert.Equal(t, 67, pct)
	assert.Equal(t, model.ProgressInProgress, status)

	pct, status = ComputeProgress(4, 4)
	assert.Equal(t, 100, pct)
	assert.Equal(t, model.ProgressCompleted, status)
}

func TestStatusForProgress(t *testing.T) {
	assert.Equal(t, model.ProgressNotStarted, StatusForProgress(0))
	assert.Equal(t, model.ProgressInProgress, StatusForProgress(55))
	assert.Equal(t, model.ProgressCompleted, StatusForProgress(100))
}

func TestUpdateFileProgressTracksReadTime(t *testing.T) {
	db := newTestDB(t)

	user := model.User{Name: "S", Email: "progress@example.com", Password: "x"}
	require.NoError(t, db.Create(&user).Error)
	course := model.Course{UserID: user.ID, Name: "Anatomy", Status: model.CourseJustStarted}
	require.NoError(t, db.Create(&course).Error)
	file := model.UploadedFile{
		UserID: user.ID, CourseID: course.ID,
		Title: "notes", StoredName: "notes.pdf",
		GeminiResourceName: "files/notes1", GeminiState: model.GeminiStateActive,
	}
	require.NoError(t, db.Create(&file).Error)

	chatRepo := repository.NewChatRepository(db, nil)
	fileRepo := repository.NewFileRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	svc := NewProgressService(
		repository.NewStatsRepository(db),
		repository.NewRetentionRepository(db),
		repository.NewProgressRepository(db),
		courseRepo,
		fileRepo,
		chatRepo,
	)

	cp, err := svc.UpdateFileProgress(user.ID, file.ID, 40, 25)
	require.NoError(t, err)
	assert.Equal(t, 25, cp.TimeSpentMinutes)

	// 文件时长记录最近一次上报，课程时长跨次累加
	cp, err = svc.UpdateFileProgress(user.ID, file.ID, 100, 10)
	require.NoError(t, err)
	assert.Equal(t, 35, cp.TimeSpentMinutes)
	assert.Equal(t, 100, cp.Percentage)

	var fp model.FileProgress
	require.NoError(t, db.Where("user_id = ? AND file_id = ?", user.ID, file.ID).First(&fp).Error)
	assert.Equal(t, 10, fp.TotalReadTimeMinutes)
	assert.Equal(t, model.ProgressCompleted, fp.Status)
}
