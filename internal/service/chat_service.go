package service

import (
	"context"
	"errors"
	"fmt"

	"studyflow_backend/internal/model"
	"studyflow_backend/internal/repository"
	"studyflow_backend/internal/util"
	"studyflow_backend/pkg/logger"

	"go.uber.org/zap"
)

const chatHistoryLimit = 50

// 有资料时要求回答严格依据上传文档
const groundedPrompt = "You are a helpful study tutor. Answer the student's question using ONLY the " +
	"attached course documents. If the answer is not in the documents, say so briefly. " +
	"Keep the answer under 150 words. Respond in plain text without any markdown formatting."

// 无资料时退化为通识助教
const generalPrompt = "You are a helpful study tutor. Answer the student's question concisely. " +
	"Keep the answer under 150 words. Respond in plain text without any markdown formatting."

const emptyAnswerFallback = "I couldn't generate a response. Please try rephrasing your question."

type ChatService struct {
	ChatRepo   *repository.ChatRepository
	FileRepo   *repository.FileRepository
	CourseRepo *repository.CourseRepository
	Gemini     *GeminiService
	Progress   *ProgressService
}

func NewChatService(
	chatRepo *repository.ChatRepository,
	fileRepo *repository.FileRepository,
	courseRepo *repository.CourseRepository,
	gemini *GeminiService,
	progress *ProgressService,
) *ChatService {
	return &ChatService{
		ChatRepo:   chatRepo,
		FileRepo:   fileRepo,
		CourseRepo: courseRepo,
		Gemini:     gemini,
		Progress:   progress,
	}
}

// ChatResult 单轮问答结果
type ChatResult struct {
	Answer  string `json:"answer"`
	Mastery int    `json:"mastery"`
}

// Send 一轮问答：提问先落库，回答以课程文档为素材生成，去除Markdown后落库
func (s *ChatService) Send(ctx context.Context, userID, courseID uint, question string) (*ChatResult, error) {
	if _, err := s.CourseRepo.FindByIDAndUser(courseID, userID); err != nil {
		return nil, err
	}

	userMsg := &model.ChatMessage{
		UserID:   userID,
		CourseID: courseID,
		Role:     model.RoleUser,
		Content:  question,
	}
	if err := s.ChatRepo.Create(ctx, userMsg); err != nil {
		return nil, err
	}

	files, err := s.FileRepo.ActiveByCourse(userID, courseID)
	if err != nil {
		return nil, err
	}

	// 附加前逐个确认远端状态，落库状态可能已过期
	parts := make([]ContentPart, 0, len(files)+1)
	for _, f := range files {
		remote, err := s.Gemini.GetFile(ctx, f.GeminiResourceName)
		if err != nil {
			logger.Log.Warn("Skipping unverifiable file", zap.String("resource", f.GeminiResourceName), zap.Error(err))
			continue
		}
		if remote.State != model.GeminiStateActive {
			continue
		}
		parts = append(parts, ContentPart{FileURI: f.GeminiFileURI, MimeType: f.ContentType})
	}

	prompt := generalPrompt
	if len(parts) > 0 {
		prompt = groundedPrompt
	}
	parts = append(parts, ContentPart{Text: question})

	answer, err := s.Gemini.GenerateContent(ctx, prompt, parts)
	if err != nil {
		if errors.Is(err, util.ErrQuotaExceeded) {
			return nil, err
		}
		// 非配额错误降级为可见的错误回答，保留会话连贯性
		logger.Log.Error("Chat generation failed", zap.Error(err))
		answer = fmt.Sprintf("Error: %v", err)
	}

	answer = util.StripMarkdown(answer)
	if answer == "" {
		answer = emptyAnswerFallback
	}

	assistantMsg := &model.ChatMessage{
		UserID:   userID,
		CourseID: courseID,
		Role:     model.RoleAssistant,
		Content:  answer,
	}
	if err := s.ChatRepo.Create(ctx, assistantMsg); err != nil {
		return nil, err
	}

	if err := s.Progress.RecordActivity(userID); err != nil {
		logger.Log.Warn("Failed to record chat activity", zap.Error(err))
	}

	mastery, err := s.Progress.KnowledgeMastery(userID, courseID)
	if err != nil {
		logger.Log.Warn("Failed to compute mastery", zap.Error(err))
		mastery = 0
	}

	return &ChatResult{Answer: answer, Mastery: mastery}, nil
}

// History 课程内最近的问答记录，时间升序
func (s *ChatService) History(ctx context.Context, userID, courseID uint) ([]model.ChatMessage, error) {
	if _, err := s.CourseRepo.FindByIDAndUser(courseID, userID); err != nil {
		return nil, err
	}
	return s.ChatRepo.Recent(ctx, userID, courseID, chatHistoryLimit)
}
