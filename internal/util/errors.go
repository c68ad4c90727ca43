package util

import "errors"

// 业务错误哨兵值，控制器边界统一翻译为HTTP状态码
var (
	ErrEmailRegistered    = errors.New("email already registered")
	ErrPasswordTooShort   = errors.New("password must be at least 8 characters")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrCourseNotFound     = errors.New("course not found")
	ErrFileNotFound       = errors.New("file not found")
	ErrQuizNotFound       = errors.New("quiz not found")
	ErrUploadFailed       = errors.New("file upload to AI backend failed")
	ErrPollTimeout        = errors.New("file processing timed out")
	ErrQuotaExceeded      = errors.New("ai quota exceeded")
	ErrQuizParseFailed    = errors.New("quiz output could not be parsed")
	ErrGenerationFailed   = errors.New("content generation failed")
	ErrRemoteDeleteFailed = errors.New("remote file deletion failed")
)
