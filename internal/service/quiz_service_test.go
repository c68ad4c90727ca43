package service

import (
	"context"
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
)

func twoQuestions() []model.QuizQuestion {
	return []model.QuizQuestion{
		{Q: "Capital of France?", Options: []string{"Paris", "Lyon"}, Correct: 0},
		{Q: "2+2?", Options: []string{"3", "4"}, Correct: 1},
	}
}

func TestScoreAttempt(t *testing.T) {
	t.Run("all correct", func(t *testing.T) {
		score, pct, correct := scoreAttempt(twoQuestions(), map[string]int{"0": 0, "1": 1})
		assert.Equal(t, 2, score)
		assert.Equal(t, 100, pct)
		assert.Equal(t, []int{0, 1}, correct)
	})

	t.Run("one of two", func(t *testing.T) {
		score, pct, _ := scoreAttempt(twoQuestions(), map[string]int{"0": 0, "1": 0})
		assert.Equal(t, 1, score)
		assert.Equal(t, 50, pct)
	})

	t.Run("empty answers", func(t *testing.T) {
		score, pct, _ := scoreAttempt(twoQuestions(), nil)
		assert.Equal(t, 0, score)
		assert.Equal(t, 0, pct)
	})

	t.Run("sparse answers only scored where present", func(t *testing.T) {
		score, _, _ := scoreAttempt(twoQuestions(), map[string]int{"1": 1})
		assert.Equal(t, 1, score)
	})

	t.Run("unknown keys ignored", func(t *testing.T) {
		score, _, _ := scoreAttempt(twoQuestions(), map[string]int{"0": 0, "1": 1, "7": 1})
		assert.Equal(t, 2, score)
	})

	t.Run("no questions", func(t *testing.T) {
		score, pct, correct := scoreAttempt(nil, map[string]int{"0": 0})
		assert.Equal(t, 0, score)
		assert.Equal(t, 0, pct)
		assert.Empty(t, correct)
	})
}

func newQuizEnv(t *testing.T, handler http.Handler) (*QuizService, model.Course) {
	t.Helper()
	db := newTestDB(t)

	user := model.User{Name: "S", Email: "quiz@example.com", Password: "x"}
	require.NoError(t, db.Create(&user).Error)
	course := model.Course{UserID: user.ID, Name: "Genetics", Semester: 3, Status: model.CourseJustStarted}
	require.NoError(t, db.Create(&course).Error)

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	chatRepo := repository.NewChatRepository(db, nil)
	fileRepo := repository.NewFileRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	progress := NewProgressService(
		repository.NewStatsRepository(db),
		repository.NewRetentionRepository(db),
		repository.NewProgressRepository(db),
		courseRepo,
		fileRepo,
		chatRepo,
	)

	svc := NewQuizService(repository.NewQuizRepository(db), fileRepo, courseRepo, chatRepo, newGeminiService(srv.URL), progress)

	for _, q := range []string{"explain meiosis", "what is a punnett square", "define allele"} {
		require.NoError(t, db.Create(&model.ChatMessage{
			UserID: user.ID, CourseID: course.ID, Role: model.RoleUser, Content: q,
		}).Error)
	}
	return svc, course
}

func TestGenerateWithoutFilesUsesChatContext(t *testing.T) {
	var captured string
	mux := http.NewServeMux()
	mux.HandleFunc("/v1beta/models/gemini-2.5-flash:generateContent", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		captured = string(body)
		w.Write([]byte(`{"candidates": [{"content": {"parts": [{"text": "[{\"q\": \"What is an allele?\", \"options\": [\"a\", \"b\"], \"correct\": 0}]"}]}}]}`))
	})

	svc, course := newQuizEnv(t, mux)

	quiz, err := svc.Generate(context.Background(), course.UserID, GenerateQuizInput{CourseID: course.ID})
	require.NoError(t, err)
	assert.True(t, quiz.GeneratedFromText)
	assert.Equal(t, 1, quiz.NumQuestions)
	assert.Equal(t, "Genetics Quiz", quiz.Title)

	// 课程名、学期和近期提问都进入提示词，提问保持时间升序
	assert.Contains(t, captured, "Genetics")
	assert.Contains(t, captured, "Semester 3")
	assert.Contains(t, captured, "explain meiosis")
	assert.Contains(t, captured, "define allele")
	assert.Less(t, strings.Index(captured, "explain meiosis"), strings.Index(captured, "define allele"))
}

func TestGenerateCustomTitle(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1beta/models/gemini-2.5-flash:generateContent", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates": [{"content": {"parts": [{"text": "[{\"q\": \"Q\", \"options\": [\"a\", \"b\"], \"correct\": 1}]"}]}}]}`))
	})

	svc, course := newQuizEnv(t, mux)

	quiz, err := svc.Generate(context.Background(), course.UserID, GenerateQuizInput{CourseID: course.ID, Title: "Unit 1 Revision"})
	require.NoError(t, err)
	assert.Equal(t, "Unit 1 Revision", quiz.Title)
}

func TestParseQuizOutput(t *testing.T) {
	t.Run("clean output", func(t *testing.T) {
		raw := `[{"q": "Q1", "options": ["a", "b", "c"], "correct": 2}]`
		questions, err := ParseQuizOutput(raw)
		require.NoError(t, err)
		require.Len(t, questions, 1)
		assert.Equal(t, 2, questions[0].Correct)
	})

	t.Run("fenced with prose", func(t *testing.T) {
		raw := "Sure! Here is the quiz:\n```json\n[{\"q\": \"Q1\", \"options\": [\"a\", \"b\"], \"correct\": 0}]\n```"
		questions, err := ParseQuizOutput(raw)
		require.NoError(t, err)
		assert.Len(t, questions, 1)
	})

	t.Run("invalid questions dropped", func(t *testing.T) {
		raw := `[
			{"q": "valid", "options": ["a", "b"], "correct": 1},
			{"q": "", "options": ["a", "b"], "correct": 0},
			{"q": "index out of range", "options": ["a", "b"], "correct": 5},
			{"q": "too few options", "options": ["a"], "correct": 0}
		]`
		questions, err := ParseQuizOutput(raw)
		require.NoError(t, err)
		require.Len(t, questions, 1)
		assert.Equal(t, "valid", questions[0].Q)
	})

	t.Run("no json at all", func(t *testing.T) {
		_, err := ParseQuizOutput("I cannot do that.")
		assert.ErrorIs(t, err, util.ErrQuizParseFailed)
	})

	t.Run("all questions invalid", func(t *testing.T) {
		raw := `[{"q": "x", "options": ["a", "b"], "correct": -1}]`
		_, err := ParseQuizOutput(raw)
		assert.ErrorIs(t, err, util.ErrQuizParseFailed)
	})
}
