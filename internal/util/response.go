package util

import (
	"errors"
	"net/http"
	"studyflow_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Response 统一响应结构
type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Status: "success",
		Data:   data,
	})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Status: "success",
		Data:   data,
	})
}

func Error(c *gin.Context, code int, message string) {
	c.JSON(code, Response{
		Status:  "error",
		Message: message,
	})
}

func Unauthorized(c *gin.Context) {
	Error(c, http.StatusUnauthorized, "Unauthorized")
}

func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, message)
}

func InternalServerError(c *gin.Context) {
	Error(c, http.StatusInternalServerError, "Internal server error")
}

func LogInternalError(c *gin.Context, err error) {
	logger.Log.Error("Internal server error", zap.Error(err))
	InternalServerError(c)
}

// FromError 将业务错误翻译为HTTP响应，控制器统一调用
func FromError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrQuotaExceeded):
		Error(c, http.StatusTooManyRequests, "Gemini quota exceeded (20 req/day). Wait or upgrade.")
	case errors.Is(err, ErrCourseNotFound):
		NotFound(c, "Course not found")
	case errors.Is(err, ErrFileNotFound):
		NotFound(c, "File not found")
	case errors.Is(err, ErrQuizNotFound):
		NotFound(c, "Quiz not found")
	case errors.Is(err, ErrInvalidCredentials):
		Error(c, http.StatusUnauthorized, "Invalid email or password")
	case errors.Is(err, ErrEmailRegistered):
		BadRequest(c, "Email already registered")
	case errors.Is(err, ErrPasswordTooShort):
		BadRequest(c, "Password must be at least 8 characters")
	case errors.Is(err, ErrPasswordMismatch):
		BadRequest(c, "Passwords do not match")
	case errors.Is(err, ErrUploadFailed), errors.Is(err, ErrPollTimeout):
		logger.Log.Error("Gemini upload failed", zap.Error(err))
		Error(c, http.StatusInternalServerError, "Gemini API upload failed")
	case errors.Is(err, ErrQuizParseFailed), errors.Is(err, ErrGenerationFailed):
		logger.Log.Error("Generation failed", zap.Error(err))
		Error(c, http.StatusInternalServerError, "Failed to generate quiz")
	case errors.Is(err, ErrRemoteDeleteFailed):
		logger.Log.Error("Remote delete failed", zap.Error(err))
		Error(c, http.StatusInternalServerError, "Failed to delete file")
	default:
		LogInternalError(c, err)
	}
}
