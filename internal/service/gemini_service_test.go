package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"studyflow_backend/internal/config"
	"studyflow_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGeminiService(baseURL string) *GeminiService {
	return NewGeminiService(config.GeminiConfig{
		BaseURL:          baseURL,
		APIKey:           "test-key",
		Model:            "gemini-2.5-flash",
		PollIntervalSecs: 0,
		MaxWaitSecs:      1,
	})
}

func TestUploadFilePollsUntilActive(t *testing.T) {
	var polls int32

	mux := http.NewServeMux()
	mux.HandleFunc("/upload/v1beta/files", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "raw", r.Header.Get("X-Goog-Upload-Protocol"))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"file": map[string]string{
				"name":  "files/abc123",
				"uri":   "https://example.com/files/abc123",
				"state": "PROCESSING",
			},
		})
	})
	mux.HandleFunc("/v1beta/files/abc123", func(w http.ResponseWriter, r *http.Request) {
		state := "PROCESSING"
		if atomic.AddInt32(&polls, 1) >= 2 {
			state = "ACTIVE"
		}
		json.NewEncoder(w).Encode(map[string]string{
			"name":  "files/abc123",
			"uri":   "https://example.com/files/abc123",
			"state": state,
		})
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	file, err := newGeminiService(srv.URL).UploadFile(context.Background(), []byte("notes"), "notes.pdf", "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, "ACTIVE", file.State)
	assert.Equal(t, "files/abc123", file.Name)
	assert.GreaterOrEqual(t, atomic.LoadInt32(&polls), int32(2))
}

func TestUploadFileRemoteFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/upload/v1beta/files", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"file": map[string]string{"name": "files/bad", "state": "FAILED"},
		})
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	_, err := newGeminiService(srv.URL).UploadFile(context.Background(), []byte("x"), "x.pdf", "application/pdf")
	assert.ErrorIs(t, err, util.ErrUploadFailed)
}

func TestUploadFilePollTimeout(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/upload/v1beta/files", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"file": map[string]string{"name": "files/slow", "state": "PROCESSING"},
		})
	})
	mux.HandleFunc("/v1beta/files/slow", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"name": "files/slow", "state": "PROCESSING"})
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	svc := NewGeminiService(config.GeminiConfig{
		BaseURL:          srv.URL,
		APIKey:           "k",
		Model:            "m",
		PollIntervalSecs: 0,
		MaxWaitSecs:      0,
	})
	// MaxWaitSecs为0时deadline立即过期
	_, err := svc.UploadFile(context.Background(), []byte("x"), "x.pdf", "application/pdf")
	assert.ErrorIs(t, err, util.ErrPollTimeout)
}

func TestUploadFileQuotaExceeded(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/upload/v1beta/files", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error": {"code": 429, "status": "RESOURCE_EXHAUSTED", "message": "Quota exceeded"}}`)
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	_, err := newGeminiService(srv.URL).UploadFile(context.Background(), []byte("x"), "x.pdf", "application/pdf")
	assert.ErrorIs(t, err, util.ErrQuotaExceeded)
}

func TestGenerateContent(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1beta/models/gemini-2.5-flash:generateContent", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Contains(t, req, "contents")

		json.NewEncoder(w).Encode(map[string]interface{}{
			"candidates": []map[string]interface{}{
				{"content": map[string]interface{}{
					"parts": []map[string]string{{"text": "Photosynthesis converts light "}, {"text": "into chemical energy."}},
				}},
			},
		})
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	text, err := newGeminiService(srv.URL).GenerateContent(context.Background(), "be brief", []ContentPart{{Text: "What is photosynthesis?"}})
	require.NoError(t, err)
	assert.Equal(t, "Photosynthesis converts light into chemical energy.", text)
}

func TestGenerateContentQuota(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1beta/models/gemini-2.5-flash:generateContent", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error": {"code": 429, "status": "RESOURCE_EXHAUSTED", "message": "quota"}}`)
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	_, err := newGeminiService(srv.URL).GenerateContent(context.Background(), "", []ContentPart{{Text: "q"}})
	assert.ErrorIs(t, err, util.ErrQuotaExceeded)
}

func TestGenerateContentEmptyCandidates(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1beta/models/gemini-2.5-flash:generateContent", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"candidates": []}`)
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	text, err := newGeminiService(srv.URL).GenerateContent(context.Background(), "", []ContentPart{{Text: "q"}})
	require.NoError(t, err)
	assert.Equal(t, "", text)
}

func TestDeleteFile(t *testing.T) {
	var deleted int32
	mux := http.NewServeMux()
	mux.HandleFunc("/v1beta/files/abc", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		atomic.StoreInt32(&deleted, 1)
		fmt.Fprint(w, `{}`)
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	svc := newGeminiService(srv.URL)
	require.NoError(t, svc.DeleteFile(context.Background(), "files/abc"))
	assert.Equal(t, int32(1), atomic.LoadInt32(&deleted))

	// 远端已不存在视为删除成功
	assert.NoError(t, svc.DeleteFile(context.Background(), "files/missing"))
}
