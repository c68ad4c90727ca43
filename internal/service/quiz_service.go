package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"studyflow_backend/internal/model"
	"studyflow_backend/internal/repository"
	"studyflow_backend/internal/util"
	"studyflow_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/datatypes"
)

const (
	defaultQuizQuestions = 5
	quizContextMessages  = 5
)

const quizPromptFormat = "Generate exactly %d multiple-choice questions from the attached study material. " +
	"Respond with ONLY a JSON array, no prose and no code fences. Each element must have the shape " +
	`{"q": "question text", "options": ["A", "B", "C", "D"], "correct": 0} ` +
	"where correct is the zero-based index of the right option."

// 课程没有可用资料时用课程元信息加近期提问作为出题素材
const quizContextPromptFormat = "You are generating a multiple-choice quiz for the university-level course %s%s.\n\n" +
	"Student's recent messages (topic focus):\n\n%s\n\n" +
	"Generate exactly %d multiple-choice questions that stay on topic with the messages above and the " +
	"typical syllabus of this course and semester. Do not mix in unrelated subjects. " +
	"Respond with ONLY a JSON array, no prose and no code fences. Each element must have the shape " +
	`{"q": "question text", "options": ["A", "B", "C", "D"], "correct": 0} ` +
	"where correct is the zero-based index of the right option."

type QuizService struct {
	QuizRepo   *repository.QuizRepository
	FileRepo   *repository.FileRepository
	CourseRepo *repository.CourseRepository
	ChatRepo   *repository.ChatRepository
	Gemini     *GeminiService
	Progress   *ProgressService
}

func NewQuizService(
	quizRepo *repository.QuizRepository,
	fileRepo *repository.FileRepository,
	courseRepo *repository.CourseRepository,
	chatRepo *repository.ChatRepository,
	gemini *GeminiService,
	progress *ProgressService,
) *QuizService {
	return &QuizService{
		QuizRepo:   quizRepo,
		FileRepo:   fileRepo,
		CourseRepo: courseRepo,
		ChatRepo:   chatRepo,
		Gemini:     gemini,
		Progress:   progress,
	}
}

type GenerateQuizInput struct {
	CourseID     uint
	FileID       *uint
	NumQuestions int
	Title        string
}

// Generate 基于单个文件或整门课程的资料生成测验，无资料时退化为按课程主题出题
func (s *QuizService) Generate(ctx context.Context, userID uint, input GenerateQuizInput) (*model.GeneratedQuiz, error) {
	course, err := s.CourseRepo.FindByIDAndUser(input.CourseID, userID)
	if err != nil {
		return nil, err
	}
	numQuestions := input.NumQuestions
	if numQuestions <= 0 {
		numQuestions = defaultQuizQuestions
	}

	var parts []ContentPart
	fromText := false
	title := fmt.Sprintf("%s Quiz", course.Name)

	if input.FileID != nil {
		file, err := s.FileRepo.FindByIDAndUser(*input.FileID, userID)
		if err != nil {
			return nil, err
		}
		if file.GeminiState != model.GeminiStateActive {
			return nil, util.ErrGenerationFailed
		}
		parts = append(parts, ContentPart{FileURI: file.GeminiFileURI, MimeType: file.ContentType})
		title = fmt.Sprintf("Quiz on %s", file.Title)
	} else {
		files, err := s.FileRepo.ActiveByCourse(userID, input.CourseID)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			parts = append(parts, ContentPart{FileURI: f.GeminiFileURI, MimeType: f.ContentType})
		}
		fromText = len(files) == 0
	}

	if fromText {
		messages, err := s.ChatRepo.RecentUserMessages(userID, input.CourseID, quizContextMessages)
		if err != nil {
			return nil, err
		}
		semester := ""
		if course.Semester > 0 {
			semester = fmt.Sprintf(" (Semester %d)", course.Semester)
		}
		parts = append(parts, ContentPart{Text: fmt.Sprintf(
			quizContextPromptFormat, course.Name, semester, strings.Join(messages, "\n"), numQuestions)})
	} else {
		parts = append(parts, ContentPart{Text: fmt.Sprintf(quizPromptFormat, numQuestions)})
	}

	raw, err := s.Gemini.GenerateContent(ctx, "", parts)
	if err != nil {
		return nil, err
	}

	questions, err := ParseQuizOutput(raw)
	if err != nil {
		logger.Log.Error("Quiz output unparseable", zap.String("raw", raw))
		return nil, err
	}

	data, err := json.Marshal(questions)
	if err != nil {
		return nil, err
	}

	if input.Title != "" {
		title = input.Title
	}
	quiz := &model.GeneratedQuiz{
		UserID:            userID,
		CourseID:          input.CourseID,
		FileID:            input.FileID,
		Title:             title,
		NumQuestions:      len(questions),
		Questions:         datatypes.JSON(data),
		GeneratedFromText: fromText,
	}
	if err := s.QuizRepo.Create(quiz); err != nil {
		return nil, err
	}

	if err := s.Progress.RecordActivity(userID); err != nil {
		logger.Log.Warn("Failed to record quiz activity", zap.Error(err))
	}

	return quiz, nil
}

// ParseQuizOutput 从模型自由文本中提取并校验题目数组，无效题目丢弃
func ParseQuizOutput(raw string) ([]model.QuizQuestion, error) {
	extracted := util.ExtractJSONArray(raw)
	if extracted == "" {
		return nil, util.ErrQuizParseFailed
	}

	var parsed []model.QuizQuestion
	if err := json.Unmarshal([]byte(extracted), &parsed); err != nil {
		return nil, util.ErrQuizParseFailed
	}

	valid := make([]model.QuizQuestion, 0, len(parsed))
	for _, q := range parsed {
		if q.Q == "" || len(q.Options) < 2 {
			continue
		}
		if q.Correct < 0 || q.Correct >= len(q.Options) {
			continue
		}
		valid = append(valid, q)
	}
	if len(valid) == 0 {
		return nil, util.ErrQuizParseFailed
	}
	return valid, nil
}

// AttemptResult 作答评分结果，附每题正确答案
type AttemptResult struct {
	AttemptID      uint  `json:"attemptId"`
	Score          int   `json:"score"`
	Total          int   `json:"total"`
	Percentage     int   `json:"percentage"`
	CorrectAnswers []int `json:"correctAnswers"`
}

// scoreAttempt 纯计分：答案按题目下标键查找比对，未作答的题不得分，百分比四舍五入
func scoreAttempt(questions []model.QuizQuestion, answers map[string]int) (score int, percentage int, correct []int) {
	correct = make([]int, len(questions))
	for i, q := range questions {
		correct[i] = q.Correct
		if selected, ok := answers[strconv.Itoa(i)]; ok && selected == q.Correct {
			score++
		}
	}
	if len(questions) > 0 {
		percentage = int(math.Round(float64(score) / float64(len(questions)) * 100))
	}
	return score, percentage, correct
}

// Submit 记录一次作答并返回得分
func (s *QuizService) Submit(userID, quizID uint, answers map[string]int, timeSpentSeconds int) (*AttemptResult, error) {
	quiz, err := s.QuizRepo.FindByIDAndUser(quizID, userID)
	if err != nil {
		return nil, err
	}

	var questions []model.QuizQuestion
	if err := json.Unmarshal(quiz.Questions, &questions); err != nil {
		return nil, err
	}

	score, percentage, correct := scoreAttempt(questions, answers)

	answersJSON, err := json.Marshal(answers)
	if err != nil {
		return nil, err
	}
	attempt := &model.QuizAttempt{
		UserID:           userID,
		QuizID:           quizID,
		Answers:          datatypes.JSON(answersJSON),
		Score:            score,
		Percentage:       percentage,
		TimeSpentSeconds: timeSpentSeconds,
	}
	if err := s.QuizRepo.CreateAttempt(attempt); err != nil {
		return nil, err
	}

	if err := s.Progress.RecordActivity(userID); err != nil {
		logger.Log.Warn("Failed to record attempt activity", zap.Error(err))
	}

	return &AttemptResult{
		AttemptID:      attempt.ID,
		Score:          score,
		Total:          len(questions),
		Percentage:     percentage,
		CorrectAnswers: correct,
	}, nil
}

func (s *QuizService) History(userID, courseID uint) ([]model.GeneratedQuiz, error) {
	if _, err := s.CourseRepo.FindByIDAndUser(courseID, userID); err != nil {
		return nil, err
	}
	return s.QuizRepo.ListByCourse(userID, courseID)
}
