package service

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"studyflow_backend/internal/config"
	"studyflow_backend/internal/model"
	"studyflow_backend/internal/repository"
	"studyflow_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func multipartFileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))
	return req.MultipartForm.File["file"][0]
}

func newFileEnv(t *testing.T, handler http.Handler) (*FileService, *gorm.DB, model.Course, string) {
	t.Helper()
	db := newTestDB(t)

	user := model.User{Name: "S", Email: "f@example.com", Password: "x"}
	require.NoError(t, db.Create(&user).Error)
	require.NoError(t, db.Create(&model.UserStats{UserID: user.ID}).Error)
	course := model.Course{UserID: user.ID, Name: "Physics", Status: model.CourseJustStarted}
	require.NoError(t, db.Create(&course).Error)

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	localPath := t.TempDir()
	storage := NewStorageService(&config.Config{
		Storage: config.StorageConfig{Type: "local", LocalPath: localPath},
	})

	fileRepo := repository.NewFileRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	statsRepo := repository.NewStatsRepository(db)
	retentionRepo := repository.NewRetentionRepository(db)
	progressRepo := repository.NewProgressRepository(db)
	chatRepo := repository.NewChatRepository(db, nil)
	progress := NewProgressService(statsRepo, retentionRepo, progressRepo, courseRepo, fileRepo, chatRepo)

	svc := NewFileService(fileRepo, courseRepo, statsRepo, storage, newGeminiService(srv.URL), progress)
	return svc, db, course, localPath
}

func uploadOKHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/upload/v1beta/files", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"file": {"name": "files/n1", "uri": "https://example.com/files/n1", "state": "ACTIVE"}}`)
	})
	mux.HandleFunc("/v1beta/files/n1", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			fmt.Fprint(w, `{}`)
			return
		}
		fmt.Fprint(w, `{"name": "files/n1", "uri": "https://example.com/files/n1", "state": "ACTIVE"}`)
	})
	return mux
}

func TestFileUpload(t *testing.T) {
	svc, db, course, localPath := newFileEnv(t, uploadOKHandler())
	header := multipartFileHeader(t, "notes.pdf", []byte("%PDF-1.4 fake"))

	file, err := svc.Upload(context.Background(), course.UserID, course.ID, header, "Week 1 Notes")
	require.NoError(t, err)
	assert.Equal(t, "Week 1 Notes", file.Title)
	assert.Equal(t, "notes.pdf", file.OriginalName)
	assert.Equal(t, model.GeminiStateActive, file.GeminiState)
	assert.Equal(t, "files/n1", file.GeminiResourceName)

	// 本地副本落盘
	_, err = os.Stat(filepath.Join(localPath, "uploads", file.StoredName))
	assert.NoError(t, err)

	// 文档计数增加
	var stats model.UserStats
	require.NoError(t, db.Where("user_id = ?", course.UserID).First(&stats).Error)
	assert.Equal(t, 1, stats.DocumentsProcessed)
}

func TestFileUploadRemoteFailureCleansUp(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/upload/v1beta/files", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"error": {"code": 500, "message": "boom"}}`)
	})
	svc, db, course, localPath := newFileEnv(t, mux)
	header := multipartFileHeader(t, "bad.pdf", []byte("x"))

	_, err := svc.Upload(context.Background(), course.UserID, course.ID, header, "")
	assert.ErrorIs(t, err, util.ErrUploadFailed)

	// 没有残留记录和本地文件
	var count int64
	require.NoError(t, db.Model(&model.UploadedFile{}).Count(&count).Error)
	assert.Zero(t, count)
	entries, err := os.ReadDir(filepath.Join(localPath, "uploads"))
	if err == nil {
		assert.Empty(t, entries)
	}
}

func TestFileDelete(t *testing.T) {
	svc, db, course, _ := newFileEnv(t, uploadOKHandler())
	header := multipartFileHeader(t, "notes.pdf", []byte("data"))

	file, err := svc.Upload(context.Background(), course.UserID, course.ID, header, "")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), course.UserID, file.ID))

	// 软删后详情查不到
	_, err = svc.Detail(course.UserID, file.ID)
	assert.ErrorIs(t, err, util.ErrFileNotFound)

	var raw model.UploadedFile
	require.NoError(t, db.Unscoped().Where("id = ?", file.ID).First(&raw).Error)
	assert.True(t, raw.IsDeleted)
}
