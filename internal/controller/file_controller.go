package controller

import (
	"studyflow_backend/internal/service"
	"studyflow_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type FileController struct {
	FileService *service.FileService
}

func NewFileController(fileService *service.FileService) *FileController {
	return &FileController{FileService: fileService}
}

// Upload godoc
// @Summary 上传课程笔记
// @Description 保存本地副本并推送到Gemini File API，等待远端处理完成
// @Tags 文件
// @Accept  multipart/form-data
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "课程ID"
// @Param   file formData file true "笔记文件"
// @Param   title formData string false "显示标题，默认取文件名"
// @Success 201 {object} util.Response{data=model.UploadedFile} "创建成功"
// @Failure 400 {object} util.Response "缺少文件"
// @Failure 429 {object} util.Response "配额耗尽"
// @Failure 500 {object} util.Response "远端处理失败"
// @Router /api/courses/{id}/upload [post]
func (c *FileController) Upload(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	courseID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	header, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "file is required")
		return
	}
	title := ctx.PostForm("title")

	file, err := c.FileService.Upload(ctx.Request.Context(), claims.UserID, courseID, header, title)
	if err != nil {
		util.FromError(ctx, err)
		return
	}
	util.Created(ctx, file)
}

// List godoc
// @Summary 课程文件列表
// @Tags 文件
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "课程ID"
// @Success 200 {object} util.Response{data=[]model.UploadedFile} "成功"
// @Failure 404 {object} util.Response "课程不存在"
// @Router /api/courses/{id}/files [get]
func (c *FileController) List(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	courseID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	files, err := c.FileService.ListByCourse(claims.UserID, courseID)
	if err != nil {
		util.FromError(ctx, err)
		return
	}
	util.Success(ctx, files)
}

// Detail godoc
// @Summary 文件详情
// @Description 返回文件元数据和本地副本访问地址
// @Tags 文件
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "文件ID"
// @Success 200 {object} util.Response{data=service.FileDetail} "成功"
// @Failure 404 {object} util.Response "文件不存在"
// @Router /api/files/{id} [get]
func (c *FileController) Detail(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	fileID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	detail, err := c.FileService.Detail(claims.UserID, fileID)
	if err != nil {
		util.FromError(ctx, err)
		return
	}
	util.Success(ctx, detail)
}

type deleteFileRequest struct {
	FileID uint `json:"fileId" binding:"required"`
}

// Delete godoc
// @Summary 删除文件
// @Description 先删除Gemini远端资源，再删除本地副本并软删记录
// @Tags 文件
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body deleteFileRequest true "文件ID"
// @Success 200 {object} util.Response "成功"
// @Failure 404 {object} util.Response "文件不存在"
// @Failure 500 {object} util.Response "远端删除失败"
// @Router /api/files/delete [post]
func (c *FileController) Delete(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req deleteFileRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if err := c.FileService.Delete(ctx.Request.Context(), claims.UserID, req.FileID); err != nil {
		util.FromError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"message": "File deleted"})
}
