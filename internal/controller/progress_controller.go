package controller

import (
	"studyflow_backend/internal/service"
	"studyflow_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ProgressController struct {
	ProgressService *service.ProgressService
}

func NewProgressController(progressService *service.ProgressService) *ProgressController {
	return &ProgressController{ProgressService: progressService}
}

// CourseDetail godoc
// @Summary 课程学习进度
// @Description 课程汇总进度、每个文件的进度和知识掌握度
// @Tags 进度
// @Produce  json
// @Security ApiKeyAuth
// @Param   courseId path int true "课程ID"
// @Success 200 {object} util.Response{data=service.CourseProgressDetail} "成功"
// @Failure 404 {object} util.Response "课程不存在"
// @Router /api/progress/{courseId} [get]
func (c *ProgressController) CourseDetail(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	courseID, ok := parseIDParam(ctx, "courseId")
	if !ok {
		return
	}

	detail, err := c.ProgressService.CourseDetail(claims.UserID, courseID)
	if err != nil {
		util.FromError(ctx, err)
		return
	}
	util.Success(ctx, detail)
}

type updateProgressRequest struct {
	FileID           uint `json:"fileId" binding:"required"`
	Percentage       int  `json:"percentage"`
	TimeSpentMinutes int  `json:"timeSpentMinutes"`
}

// Update godoc
// @Summary 更新文件学习进度
// @Description 写入单文件百分比并重算课程汇总进度
// @Tags 进度
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body updateProgressRequest true "文件ID、百分比和本次阅读时长"
// @Success 200 {object} util.Response{data=model.CourseProgress} "成功"
// @Failure 404 {object} util.Response "文件不存在"
// @Router /api/progress/update [post]
func (c *ProgressController) Update(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req updateProgressRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	progress, err := c.ProgressService.UpdateFileProgress(claims.UserID, req.FileID, req.Percentage, req.TimeSpentMinutes)
	if err != nil {
		util.FromError(ctx, err)
		return
	}
	util.Success(ctx, progress)
}
