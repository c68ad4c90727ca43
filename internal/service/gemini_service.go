package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"studyflow_backend/internal/config"
	"studyflow_backend/internal/util"
	"studyflow_backend/pkg/logger"
	"studyflow_backend/pkg/monitoring"

	"go.uber.org/zap"
)

// GeminiService 封装Gemini REST接口：文件上传轮询与内容生成
type GeminiService struct {
	config     config.GeminiConfig
	httpClient *http.Client
}

func NewGeminiService(cfg config.GeminiConfig) *GeminiService {
	return &GeminiService{
		config: cfg,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// GeminiFile 远端文件资源的关键字段
type GeminiFile struct {
	Name     string `json:"name"`
	URI      string `json:"uri"`
	State    string `json:"state"`
	MimeType string `json:"mimeType"`
}

type geminiFileResponse struct {
	File GeminiFile `json:"file"`
}

type geminiPart struct {
	Text     string          `json:"text,omitempty"`
	FileData *geminiFileData `json:"fileData,omitempty"`
}

type geminiFileData struct {
	MimeType string `json:"mimeType"`
	FileURI  string `json:"fileUri"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type generateContentRequest struct {
	Contents          []geminiContent `json:"contents"`
	SystemInstruction *geminiContent  `json:"systemInstruction,omitempty"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

// isQuotaError 识别配额耗尽，上游错误文案格式不稳定，按子串匹配
func isQuotaError(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "quota") ||
		strings.Contains(lower, "429") ||
		strings.Contains(lower, "resource_exhausted")
}

// UploadFile 上传原始字节到File API，随后轮询直至ACTIVE
func (s *GeminiService) UploadFile(ctx context.Context, data []byte, displayName, mimeType string) (*GeminiFile, error) {
	uploadURL := fmt.Sprintf("%s/upload/v1beta/files?key=%s", s.config.BaseURL, s.config.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uploadURL, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mimeType)
	req.Header.Set("X-Goog-Upload-Protocol", "raw")
	req.Header.Set("X-Goog-File-Name", displayName)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		monitoring.ObserveGemini("upload", "error")
		return nil, fmt.Errorf("%w: %v", util.ErrUploadFailed, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		monitoring.ObserveGemini("upload", "error")
		if isQuotaError(string(body)) || resp.StatusCode == http.StatusTooManyRequests {
			return nil, util.ErrQuotaExceeded
		}
		return nil, fmt.Errorf("%w: status %d: %s", util.ErrUploadFailed, resp.StatusCode, string(body))
	}

	var result geminiFileResponse
	if err := json.Unmarshal(body, &result); err != nil {
		monitoring.ObserveGemini("upload", "error")
		return nil, fmt.Errorf("%w: %v", util.ErrUploadFailed, err)
	}
	if result.File.Name == "" {
		monitoring.ObserveGemini("upload", "error")
		return nil, fmt.Errorf("%w: empty file resource in response", util.ErrUploadFailed)
	}

	file, err := s.waitForActive(ctx, result.File)
	if err != nil {
		monitoring.ObserveGemini("upload", "error")
		return nil, err
	}

	monitoring.ObserveGemini("upload", "success")
	return file, nil
}

// waitForActive 每隔poll_interval_seconds查询一次状态，总等待上限max_wait_seconds
func (s *GeminiService) waitForActive(ctx context.Context, file GeminiFile) (*GeminiFile, error) {
	interval := time.Duration(s.config.PollIntervalSecs) * time.Second
	deadline := time.Now().Add(time.Duration(s.config.MaxWaitSecs) * time.Second)

	current := file
	for {
		switch current.State {
		case "ACTIVE":
			return &current, nil
		case "FAILED":
			return nil, fmt.Errorf("%w: remote processing failed for %s", util.ErrUploadFailed, current.Name)
		}

		if time.Now().After(deadline) {
			return nil, fmt.Errorf("%w: %s still processing", util.ErrPollTimeout, current.Name)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(interval):
		}

		refreshed, err := s.GetFile(ctx, current.Name)
		if err != nil {
			return nil, err
		}
		current = *refreshed
	}
}

// GetFile 查询远端文件资源的当前状态
func (s *GeminiService) GetFile(ctx context.Context, name string) (*GeminiFile, error) {
	url := fmt.Sprintf("%s/v1beta/%s?key=%s", s.config.BaseURL, name, s.config.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrUploadFailed, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d: %s", util.ErrUploadFailed, resp.StatusCode, string(body))
	}

	var file GeminiFile
	if err := json.Unmarshal(body, &file); err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrUploadFailed, err)
	}
	return &file, nil
}

// DeleteFile 删除远端文件资源，404视为已删除
func (s *GeminiService) DeleteFile(ctx context.Context, name string) error {
	url := fmt.Sprintf("%s/v1beta/%s?key=%s", s.config.BaseURL, name, s.config.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		monitoring.ObserveGemini("delete", "error")
		return fmt.Errorf("%w: %v", util.ErrRemoteDeleteFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNotFound {
		body, _ := io.ReadAll(resp.Body)
		monitoring.ObserveGemini("delete", "error")
		return fmt.Errorf("%w: status %d: %s", util.ErrRemoteDeleteFailed, resp.StatusCode, string(body))
	}

	monitoring.ObserveGemini("delete", "success")
	return nil
}

// ContentPart 构造generateContent请求的一段输入
type ContentPart struct {
	Text     string
	FileURI  string
	MimeType string
}

// GenerateContent 调用模型生成文本，配额耗尽返回ErrQuotaExceeded
func (s *GeminiService) GenerateContent(ctx context.Context, systemPrompt string, parts []ContentPart) (string, error) {
	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", s.config.BaseURL, s.config.Model, s.config.APIKey)

	reqParts := make([]geminiPart, 0, len(parts))
	for _, p := range parts {
		if p.FileURI != "" {
			reqParts = append(reqParts, geminiPart{
				FileData: &geminiFileData{MimeType: p.MimeType, FileURI: p.FileURI},
			})
			continue
		}
		reqParts = append(reqParts, geminiPart{Text: p.Text})
	}

	reqBody := generateContentRequest{
		Contents: []geminiContent{{Role: "user", Parts: reqParts}},
	}
	if systemPrompt != "" {
		reqBody.SystemInstruction = &geminiContent{
			Parts: []geminiPart{{Text: systemPrompt}},
		}
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		monitoring.ObserveGemini("generate", "error")
		return "", fmt.Errorf("%w: %v", util.ErrGenerationFailed, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	var result generateContentResponse
	if jsonErr := json.Unmarshal(body, &result); jsonErr == nil && result.Error != nil {
		monitoring.ObserveGemini("generate", "error")
		if isQuotaError(result.Error.Message) || isQuotaError(result.Error.Status) || result.Error.Code == 429 {
			return "", util.ErrQuotaExceeded
		}
		return "", fmt.Errorf("%w: %s", util.ErrGenerationFailed, result.Error.Message)
	}

	if resp.StatusCode != http.StatusOK {
		monitoring.ObserveGemini("generate", "error")
		if resp.StatusCode == http.StatusTooManyRequests || isQuotaError(string(body)) {
			return "", util.ErrQuotaExceeded
		}
		return "", fmt.Errorf("%w: status %d: %s", util.ErrGenerationFailed, resp.StatusCode, string(body))
	}

	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		logger.Log.Warn("Gemini returned no candidates", zap.String("model", s.config.Model))
		monitoring.ObserveGemini("generate", "empty")
		return "", nil
	}

	var sb strings.Builder
	for _, p := range result.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}

	monitoring.ObserveGemini("generate", "success")
	return sb.String(), nil
}
