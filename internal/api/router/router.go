package router

import (
	"context"
	"errors"
	"strconv"

	"hrdoc-go/internal/api/handler"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"gorm.io/gorm"
)

// RegisterRoutes 注册 API 路由
func RegisterRoutes(h *server.Hertz,
	documentHandler *handler.DocumentHandler,
	jobHandler *handler.JobHandler,
	shortlistHandler *handler.ShortlistHandler,
) {
	api := h.Group("/api/v1")

	api.POST("/documents/upload", func(c context.Context, ctx *app.RequestContext) {
		// 获取上传的文件
		fileHeader, err := ctx.FormFile("file")
		if err != nil {
			ctx.JSON(consts.StatusBadRequest, utils.H{"error": "文件未找到"})
			return
		}

		// 目标岗位ID，可为空（不参与评分排名）
		targetJobID := ctx.PostForm("target_job_id")
		// 来源渠道
		sourceChannel := ctx.PostForm("source_channel")
		if sourceChannel == "" {
			sourceChannel = "web_upload" // 默认值
		}
		// 上传方声明的文档类型，可为空（由分类器判定）
		declaredKind := ctx.PostForm("declared_kind")

		// 打开文件
		file, err := fileHeader.Open()
		if err != nil {
			ctx.JSON(consts.StatusInternalServerError, utils.H{"error": "打开文件失败"})
			return
		}
		defer file.Close()

		resp, err := documentHandler.HandleDocumentUpload(
			c,
			file,
			fileHeader.Size,
			fileHeader.Filename,
			targetJobID,
			sourceChannel,
			declaredKind,
		)
		if err != nil {
			ctx.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
			return
		}

		ctx.JSON(consts.StatusOK, resp)
	})

	api.GET("/documents/:submission_uuid", func(c context.Context, ctx *app.RequestContext) {
		submissionUUID := ctx.Param("submission_uuid")
		resp, err := documentHandler.HandleGetSubmission(c, submissionUUID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				ctx.JSON(consts.StatusNotFound, utils.H{"error": "提交记录不存在"})
				return
			}
			ctx.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
			return
		}
		ctx.JSON(consts.StatusOK, resp)
	})

	api.GET("/documents/:submission_uuid/result", func(c context.Context, ctx *app.RequestContext) {
		submissionUUID := ctx.Param("submission_uuid")
		result, err := documentHandler.HandleGetSubmissionResult(c, submissionUUID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				ctx.JSON(consts.StatusNotFound, utils.H{"error": "提交记录不存在"})
				return
			}
			if errors.Is(err, handler.ErrResultNotReady) {
				ctx.JSON(consts.StatusNotFound, utils.H{"error": "抽取结果尚未生成"})
				return
			}
			ctx.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
			return
		}
		ctx.Data(consts.StatusOK, "application/json", result)
	})

	api.POST("/jobs", func(c context.Context, ctx *app.RequestContext) {
		var req handler.JobUpsertRequest
		if err := ctx.BindJSON(&req); err != nil {
			ctx.JSON(consts.StatusBadRequest, utils.H{"error": "请求体格式错误"})
			return
		}
		resp, err := jobHandler.HandleCreateJob(c, &req)
		if err != nil {
			ctx.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
			return
		}
		ctx.JSON(consts.StatusOK, resp)
	})

	api.PUT("/jobs/:job_id", func(c context.Context, ctx *app.RequestContext) {
		var req handler.JobUpsertRequest
		if err := ctx.BindJSON(&req); err != nil {
			ctx.JSON(consts.StatusBadRequest, utils.H{"error": "请求体格式错误"})
			return
		}
		resp, err := jobHandler.HandleUpdateJob(c, ctx.Param("job_id"), &req)
		if err != nil {
			ctx.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
			return
		}
		ctx.JSON(consts.StatusOK, resp)
	})

	api.GET("/jobs/:job_id", func(c context.Context, ctx *app.RequestContext) {
		profile, err := jobHandler.HandleGetJobProfile(c, ctx.Param("job_id"))
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				ctx.JSON(consts.StatusNotFound, utils.H{"error": "岗位不存在"})
				return
			}
			ctx.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
			return
		}
		ctx.JSON(consts.StatusOK, profile)
	})

	api.POST("/jobs/:job_id/shortlist", func(c context.Context, ctx *app.RequestContext) {
		resp, err := shortlistHandler.HandleRebuildShortlist(c, ctx.Param("job_id"))
		if err != nil {
			if errors.Is(err, handler.ErrShortlistRebuildInProgress) {
				ctx.JSON(consts.StatusAccepted, utils.H{
					"status":      "processing",
					"message":     "排名正在重建中，请稍后重试",
					"retry_after": 2,
				})
				return
			}
			ctx.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
			return
		}
		ctx.JSON(consts.StatusOK, resp)
	})

	api.GET("/jobs/:job_id/shortlist", func(c context.Context, ctx *app.RequestContext) {
		cursor, _ := strconv.ParseInt(ctx.Query("cursor"), 10, 64)
		size, err := strconv.ParseInt(ctx.Query("size"), 10, 64)
		if err != nil || size <= 0 {
			size = 10
		}

		resp, err := shortlistHandler.HandleGetShortlist(c, ctx.Param("job_id"), cursor, size)
		if err != nil {
			if errors.Is(err, handler.ErrShortlistRebuildInProgress) {
				ctx.JSON(consts.StatusAccepted, utils.H{
					"status":      "processing",
					"message":     "排名正在重建中，请稍后重试",
					"retry_after": 2,
				})
				return
			}
			ctx.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
			return
		}
		ctx.JSON(consts.StatusOK, resp)
	})

	// 健康检查
	api.GET("/health", func(c context.Context, ctx *app.RequestContext) {
		ctx.JSON(consts.StatusOK, utils.H{"status": "ok"})
	})
}
