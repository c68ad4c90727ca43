package service

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"path/filepath"

	"studyflow_backend/internal/model"
	"studyflow_backend/internal/repository"
	"studyflow_backend/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type FileService struct {
	FileRepo   *repository.FileRepository
	CourseRepo *repository.CourseRepository
	StatsRepo  *repository.StatsRepository
	Storage    *StorageService
	Gemini     *GeminiService
	Progress   *ProgressService
}

func NewFileService(
	fileRepo *repository.FileRepository,
	courseRepo *repository.CourseRepository,
	statsRepo *repository.StatsRepository,
	storage *StorageService,
	gemini *GeminiService,
	progress *ProgressService,
) *FileService {
	return &FileService{
		FileRepo:   fileRepo,
		CourseRepo: courseRepo,
		StatsRepo:  statsRepo,
		Storage:    storage,
		Gemini:     gemini,
		Progress:   progress,
	}
}

// Upload 笔记入库流程：本地落盘一份，推送Gemini File API并轮询至可用
func (s *FileService) Upload(ctx context.Context, userID, courseID uint, header *multipart.FileHeader, title string) (*model.UploadedFile, error) {
	if _, err := s.CourseRepo.FindByIDAndUser(courseID, userID); err != nil {
		return nil, err
	}

	src, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, err
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if title == "" {
		title = header.Filename
	}

	storedName := uuid.NewString() + filepath.Ext(header.Filename)
	objectName := "uploads/" + storedName

	if _, err := s.Storage.Upload(ctx, objectName, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return nil, err
	}

	remote, err := s.Gemini.UploadFile(ctx, data, title, contentType)
	if err != nil {
		// 远端失败时回收本地副本
		if delErr := s.Storage.Delete(ctx, objectName); delErr != nil {
			logger.Log.Warn("Failed to clean up local copy", zap.Error(delErr))
		}
		return nil, err
	}

	file := &model.UploadedFile{
		UserID:             userID,
		CourseID:           courseID,
		Title:              title,
		OriginalName:       header.Filename,
		StoredName:         storedName,
		ContentType:        contentType,
		Size:               int64(len(data)),
		GeminiResourceName: remote.Name,
		GeminiFileURI:      remote.URI,
		GeminiState:        remote.State,
	}
	if err := s.FileRepo.Create(file); err != nil {
		return nil, err
	}

	if err := s.StatsRepo.IncrementDocumentsProcessed(userID); err != nil {
		logger.Log.Warn("Failed to bump documents counter", zap.Error(err))
	}
	if err := s.Progress.RecordActivity(userID); err != nil {
		logger.Log.Warn("Failed to record upload activity", zap.Error(err))
	}
	if _, err := s.Progress.RecomputeCourseProgress(userID, courseID); err != nil {
		logger.Log.Warn("Failed to recompute course progress", zap.Error(err))
	}

	logger.Log.Info("File uploaded",
		zap.Uint("userID", userID),
		zap.Uint("courseID", courseID),
		zap.String("resource", remote.Name))
	return file, nil
}

func (s *FileService) ListByCourse(userID, courseID uint) ([]model.UploadedFile, error) {
	if _, err := s.CourseRepo.FindByIDAndUser(courseID, userID); err != nil {
		return nil, err
	}
	return s.FileRepo.ListByCourse(userID, courseID)
}

// FileDetail 文件详情，带本地副本的访问地址
type FileDetail struct {
	File   *model.UploadedFile `json:"file"`
	PdfURL string              `json:"pdfUrl"`
}

func (s *FileService) Detail(userID, fileID uint) (*FileDetail, error) {
	file, err := s.FileRepo.FindByIDAndUser(fileID, userID)
	if err != nil {
		return nil, err
	}
	return &FileDetail{
		File:   file,
		PdfURL: s.Storage.GetURL("uploads/" + file.StoredName),
	}, nil
}

// Delete 先删远端资源再删本地副本，远端失败则整体失败
func (s *FileService) Delete(ctx context.Context, userID, fileID uint) error {
	file, err := s.FileRepo.FindByIDAndUser(fileID, userID)
	if err != nil {
		return err
	}

	if file.GeminiResourceName != "" {
		if err := s.Gemini.DeleteFile(ctx, file.GeminiResourceName); err != nil {
			return err
		}
	}

	if err := s.Storage.Delete(ctx, "uploads/"+file.StoredName); err != nil {
		logger.Log.Warn("Failed to delete local copy", zap.Error(err))
	}

	if err := s.FileRepo.MarkDeleted(file); err != nil {
		return err
	}

	_, err = s.Progress.RecomputeCourseProgress(userID, file.CourseID)
	return err
}
