package controller

import (
	"studyflow_backend/internal/service"
	"studyflow_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ChatController struct {
	ChatService *service.ChatService
}

func NewChatController(chatService *service.ChatService) *ChatController {
	return &ChatController{ChatService: chatService}
}

type chatRequest struct {
	CourseID uint   `json:"courseId" binding:"required"`
	Question string `json:"question" binding:"required"`
}

// Send godoc
// @Summary 课程内提问
// @Description 以课程已上传的笔记为素材回答问题，回答为纯文本
// @Tags 问答
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body chatRequest true "课程ID和问题"
// @Success 200 {object} util.Response{data=service.ChatResult} "成功"
// @Failure 404 {object} util.Response "课程不存在"
// @Failure 429 {object} util.Response "配额耗尽"
// @Router /api/chat [post]
func (c *ChatController) Send(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req chatRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.ChatService.Send(ctx.Request.Context(), claims.UserID, req.CourseID, req.Question)
	if err != nil {
		util.FromError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// History godoc
// @Summary 课程问答历史
// @Description 最近的问答记录，时间升序
// @Tags 问答
// @Produce  json
// @Security ApiKeyAuth
// @Param   courseId path int true "课程ID"
// @Success 200 {object} util.Response{data=[]model.ChatMessage} "成功"
// @Failure 404 {object} util.Response "课程不存在"
// @Router /api/chat-history/{courseId} [get]
func (c *ChatController) History(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	courseID, ok := parseIDParam(ctx, "courseId")
	if !ok {
		return
	}

	messages, err := c.ChatService.History(ctx.Request.Context(), claims.UserID, courseID)
	if err != nil {
		util.FromError(ctx, err)
		return
	}
	util.Success(ctx, messages)
}
