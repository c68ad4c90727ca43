package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"studyflow_backend/internal/model"
	"studyflow_backend/internal/repository"
	"studyflow_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newChatEnv(t *testing.T, handler http.Handler) (*ChatService, *gorm.DB, model.Course) {
	t.Helper()
	db := newTestDB(t)

	user := model.User{Name: "S", Email: "s@example.com", Password: "x"}
	require.NoError(t, db.Create(&user).Error)
	course := model.Course{UserID: user.ID, Name: "Biology", Status: model.CourseJustStarted}
	require.NoError(t, db.Create(&course).Error)

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	chatRepo := repository.NewChatRepository(db, nil)
	fileRepo := repository.NewFileRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	statsRepo := repository.NewStatsRepository(db)
	retentionRepo := repository.NewRetentionRepository(db)
	progressRepo := repository.NewProgressRepository(db)
	progress := NewProgressService(statsRepo, retentionRepo, progressRepo, courseRepo, fileRepo, chatRepo)

	svc := NewChatService(chatRepo, fileRepo, courseRepo, newGeminiService(srv.URL), progress)
	return svc, db, course
}

func generateHandler(body string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1beta/models/gemini-2.5-flash:generateContent", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, body)
	})
	return mux
}

func TestChatSendSkipsStaleRemoteFiles(t *testing.T) {
	var captured string
	mux := http.NewServeMux()
	mux.HandleFunc("/v1beta/files/fresh1", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"name": "files/fresh1", "uri": "https://files/fresh1", "state": "ACTIVE"}`)
	})
	mux.HandleFunc("/v1beta/files/stale1", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"name": "files/stale1", "uri": "https://files/stale1", "state": "FAILED"}`)
	})
	mux.HandleFunc("/v1beta/models/gemini-2.5-flash:generateContent", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		captured = string(body)
		fmt.Fprint(w, `{"candidates": [{"content": {"parts": [{"text": "ok"}]}}]}`)
	})

	svc, db, course := newChatEnv(t, mux)

	// 两条记录落库状态都是ACTIVE，stale1在远端已失效
	for _, name := range []string{"fresh1", "stale1"} {
		require.NoError(t, db.Create(&model.UploadedFile{
			UserID: course.UserID, CourseID: course.ID,
			Title: name, StoredName: name + ".pdf", ContentType: "application/pdf",
			GeminiResourceName: "files/" + name,
			GeminiFileURI:      "https://files/" + name,
			GeminiState:        model.GeminiStateActive,
		}).Error)
	}

	_, err := svc.Send(context.Background(), course.UserID, course.ID, "Summarize the notes")
	require.NoError(t, err)
	assert.Contains(t, captured, "https://files/fresh1")
	assert.NotContains(t, captured, "https://files/stale1")
	// 还有可用文档，仍走基于资料的提示词
	assert.True(t, strings.Contains(captured, "ONLY the"))
}

func TestChatSendAllFilesStaleFallsBackToGeneral(t *testing.T) {
	var captured string
	mux := http.NewServeMux()
	mux.HandleFunc("/v1beta/files/gone1", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error": {"code": 404, "message": "not found"}}`)
	})
	mux.HandleFunc("/v1beta/models/gemini-2.5-flash:generateContent", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		captured = string(body)
		fmt.Fprint(w, `{"candidates": [{"content": {"parts": [{"text": "ok"}]}}]}`)
	})

	svc, db, course := newChatEnv(t, mux)

	require.NoError(t, db.Create(&model.UploadedFile{
		UserID: course.UserID, CourseID: course.ID,
		Title: "gone", StoredName: "gone1.pdf", ContentType: "application/pdf",
		GeminiResourceName: "files/gone1",
		GeminiFileURI:      "https://files/gone1",
		GeminiState:        model.GeminiStateActive,
	}).Error)

	_, err := svc.Send(context.Background(), course.UserID, course.ID, "Anything?")
	require.NoError(t, err)
	assert.NotContains(t, captured, "https://files/gone1")
	assert.False(t, strings.Contains(captured, "ONLY the"))
}

func TestChatSendStripsMarkdownAndPersists(t *testing.T) {
	svc, db, course := newChatEnv(t, generateHandler(
		`{"candidates": [{"content": {"parts": [{"text": "**Mitochondria** is the powerhouse."}]}}]}`))

	result, err := svc.Send(context.Background(), course.UserID, course.ID, "What is the cell powerhouse?")
	require.NoError(t, err)
	assert.Equal(t, "Mitochondria is the powerhouse.", result.Answer)

	var msgs []model.ChatMessage
	require.NoError(t, db.Where("course_id = ?", course.ID).Order("created_at ASC").Find(&msgs).Error)
	require.Len(t, msgs, 2)
	assert.Equal(t, model.RoleUser, msgs[0].Role)
	assert.Equal(t, model.RoleAssistant, msgs[1].Role)
	assert.Equal(t, "Mitochondria is the powerhouse.", msgs[1].Content)
}

func TestChatSendEmptyAnswerFallback(t *testing.T) {
	svc, _, course := newChatEnv(t, generateHandler(`{"candidates": []}`))

	result, err := svc.Send(context.Background(), course.UserID, course.ID, "Anything?")
	require.NoError(t, err)
	assert.Equal(t, emptyAnswerFallback, result.Answer)
}

func TestChatSendQuotaPropagates(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1beta/models/gemini-2.5-flash:generateContent", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error": {"code": 429, "status": "RESOURCE_EXHAUSTED", "message": "quota"}}`)
	})
	svc, _, course := newChatEnv(t, mux)

	_, err := svc.Send(context.Background(), course.UserID, course.ID, "q")
	assert.ErrorIs(t, err, util.ErrQuotaExceeded)
}

func TestChatSendUnknownCourse(t *testing.T) {
	svc, _, course := newChatEnv(t, generateHandler(`{}`))

	_, err := svc.Send(context.Background(), course.UserID, course.ID+99, "q")
	assert.ErrorIs(t, err, util.ErrCourseNotFound)
}

func TestChatHistoryOrder(t *testing.T) {
	svc, db, course := newChatEnv(t, generateHandler(`{}`))

	for i := 0; i < 3; i++ {
		require.NoError(t, db.Create(&model.ChatMessage{
			UserID: course.UserID, CourseID: course.ID, Role: model.RoleUser,
			Content: fmt.Sprintf("q%d", i),
		}).Error)
	}

	msgs, err := svc.History(context.Background(), course.UserID, course.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "q0", msgs[0].Content)
	assert.Equal(t, "q2", msgs[2].Content)
}
