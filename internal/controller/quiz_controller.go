package controller

import (
	"studyflow_backend/internal/service"
	"studyflow_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type QuizController struct {
	QuizService *service.QuizService
}

func NewQuizController(quizService *service.QuizService) *QuizController {
	return &QuizController{QuizService: quizService}
}

type generateQuizRequest struct {
	CourseID     uint   `json:"courseId" binding:"required"`
	FileID       *uint  `json:"fileId"`
	NumQuestions int    `json:"numQuestions"`
	QuizTitle    string `json:"quizTitle"`
}

// Generate godoc
// @Summary 生成测验
// @Description 基于单个文件或整门课程的笔记生成选择题
// @Tags 测验
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body generateQuizRequest true "课程ID，可选文件ID、题目数和标题"
// @Success 201 {object} util.Response{data=model.GeneratedQuiz} "创建成功"
// @Failure 404 {object} util.Response "课程或文件不存在"
// @Failure 429 {object} util.Response "配额耗尽"
// @Failure 500 {object} util.Response "生成失败"
// @Router /api/quiz/generate [post]
func (c *QuizController) Generate(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req generateQuizRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	quiz, err := c.QuizService.Generate(ctx.Request.Context(), claims.UserID, service.GenerateQuizInput{
		CourseID:     req.CourseID,
		FileID:       req.FileID,
		NumQuestions: req.NumQuestions,
		Title:        req.QuizTitle,
	})
	if err != nil {
		util.FromError(ctx, err)
		return
	}
	util.Created(ctx, quiz)
}

type submitQuizRequest struct {
	QuizID           uint           `json:"quizId" binding:"required"`
	Answers          map[string]int `json:"answers" binding:"required"`
	TimeSpentSeconds int            `json:"timeSpentSeconds"`
}

// Submit godoc
// @Summary 提交测验作答
// @Description 记录作答并返回得分和正确答案
// @Tags 测验
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body submitQuizRequest true "测验ID、题号到所选选项的映射和用时"
// @Success 200 {object} util.Response{data=service.AttemptResult} "成功"
// @Failure 404 {object} util.Response "测验不存在"
// @Router /api/quiz/submit [post]
func (c *QuizController) Submit(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req submitQuizRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.QuizService.Submit(claims.UserID, req.QuizID, req.Answers, req.TimeSpentSeconds)
	if err != nil {
		util.FromError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// History godoc
// @Summary 课程测验历史
// @Tags 测验
// @Produce  json
// @Security ApiKeyAuth
// @Param   courseId path int true "课程ID"
// @Success 200 {object} util.Response{data=[]model.GeneratedQuiz} "成功"
// @Failure 404 {object} util.Response "课程不存在"
// @Router /api/quiz/history/{courseId} [get]
func (c *QuizController) History(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	courseID, ok := parseIDParam(ctx, "courseId")
	if !ok {
		return
	}

	quizzes, err := c.QuizService.History(claims.UserID, courseID)
	if err != nil {
		util.FromError(ctx, err)
		return
	}
	util.Success(ctx, quizzes)
}
