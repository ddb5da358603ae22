package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"hrdoc-go/internal/config"
	"hrdoc-go/internal/constants"
	"hrdoc-go/internal/logger"
	"hrdoc-go/internal/processor"
	storage2 "hrdoc-go/internal/storage"
	"hrdoc-go/internal/storage/models"
	"hrdoc-go/pkg/utils"

	"github.com/gofrs/uuid/v5"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DocumentHandler 文档处理器，负责协调文档的上传与消费流程
type DocumentHandler struct {
	cfg             *config.Config
	storage         *storage2.Storage
	processorModule *processor.DocumentProcessor // 使用组件聚合类
}

// NewDocumentHandler 创建一个新的文档处理器
func NewDocumentHandler(
	cfg *config.Config,
	storage *storage2.Storage,
	processorModule *processor.DocumentProcessor,
) *DocumentHandler {
	return &DocumentHandler{
		cfg:             cfg,
		storage:         storage,
		processorModule: processorModule,
	}
}

// DocumentUploadResponse 文档上传响应
type DocumentUploadResponse struct {
	SubmissionUUID string `json:"submission_uuid"`
	Status         string `json:"status"`
}

// DocumentDetailResponse 文档提交详情响应
type DocumentDetailResponse struct {
	SubmissionUUID   string          `json:"submission_uuid"`
	OriginalFilename string          `json:"original_filename"`
	TargetJobID      string          `json:"target_job_id,omitempty"`
	DeclaredKind     string          `json:"declared_kind,omitempty"`
	DetectedKind     string          `json:"detected_kind,omitempty"`
	ProcessingStatus string          `json:"processing_status"`
	ConfidenceScore  *float64        `json:"confidence_score,omitempty"`
	ExtractedFields  json.RawMessage `json:"extracted_fields,omitempty"`
	Anonymized       json.RawMessage `json:"anonymized,omitempty"`
	SubmittedAt      time.Time       `json:"submitted_at"`
}

// HandleDocumentUpload 处理文档上传请求
func (h *DocumentHandler) HandleDocumentUpload(ctx context.Context, reader io.Reader, fileSize int64,
	filename string, targetJobID string, sourceChannel string, declaredKind string) (*DocumentUploadResponse, error) {

	// 0. 读取文件内容并计算文件本身的MD5 (需要在上传MinIO前，且reader只能读一次)
	fileBytes, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("读取上传文件内容失败: %w", err)
	}
	fileMD5Hex := utils.CalculateMD5(fileBytes)

	// 1. 先生成UUIDv7，MD5登记时需要关联提交UUID
	uuidV7, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("生成UUIDv7失败: %w", err)
	}
	submissionUUID := uuidV7.String()

	// 2. 原子地检查并登记文件MD5，已存在则直接跳过，返回首次提交的UUID
	exists, existingUUID, err := h.storage.Redis.CheckAndSetMD5(ctx, fileMD5Hex, submissionUUID)
	if err != nil {
		// 去重是重要逻辑，Redis查询失败时报错而不是放行
		logger.Error().
			Err(err).
			Str("md5", fileMD5Hex).
			Msg("检查文件MD5重复性失败")
		return nil, fmt.Errorf("检查文件MD5重复性时Redis查询失败: %w", err)
	}
	if exists {
		logger.Info().
			Str("md5", fileMD5Hex).
			Str("filename", filename).
			Str("existing_uuid", existingUUID).
			Msg("检测到重复的文件MD5，跳过处理")
		return &DocumentUploadResponse{
			SubmissionUUID: existingUUID,
			Status:         constants.StatusDuplicateFileSkipped,
		}, nil
	}

	// 3. 获取文件扩展名
	ext := filepath.Ext(filename)
	if ext == "" {
		ext = ".pdf" // 默认为PDF
	}

	// 4. 上传原始文件到MinIO
	// 因为 fileBytes 已经被读取，需要用 bytes.NewReader 重新包装
	originalObjectKey, err := h.storage.MinIO.UploadDocumentFile(ctx, submissionUUID, ext, bytes.NewReader(fileBytes), int64(len(fileBytes)))
	if err != nil {
		h.rollbackFileMD5(ctx, fileMD5Hex)
		return nil, fmt.Errorf("上传文档到MinIO失败: %w", err)
	}

	// 5. 构建消息并发送到RabbitMQ
	message := storage2.DocumentUploadMessage{
		SubmissionUUID:      submissionUUID,
		SubmissionTimestamp: time.Now(),
		SourceChannel:       sourceChannel,
		TargetJobID:         targetJobID,
		DeclaredKind:        declaredKind,
		OriginalFilename:    filename,
		OriginalFilePathOSS: originalObjectKey,
		RawFileMD5:          fileMD5Hex,
	}

	if err := h.storage.RabbitMQ.PublishDocumentUploaded(ctx, message); err != nil {
		h.rollbackFileMD5(ctx, fileMD5Hex)
		return nil, fmt.Errorf("发布消息到RabbitMQ失败: %w", err)
	}

	// 6. 返回响应
	return &DocumentUploadResponse{
		SubmissionUUID: submissionUUID,
		Status:         constants.StatusSubmittedForProcessing,
	}, nil
}

// rollbackFileMD5 撤销已登记的文件MD5，否则同一文件的重试会被判为重复。
// 回滚失败只告警，MD5记录最终会随过期时间自然消失。
func (h *DocumentHandler) rollbackFileMD5(ctx context.Context, fileMD5Hex string) {
	if err := h.storage.Redis.RollbackFileMD5(ctx, fileMD5Hex); err != nil {
		logger.Warn().
			Err(err).
			Str("md5", fileMD5Hex).
			Msg("撤销文件MD5登记失败")
	}
}

// HandleGetSubmission 查询单次提交的处理进度与抽取结果
func (h *DocumentHandler) HandleGetSubmission(ctx context.Context, submissionUUID string) (*DocumentDetailResponse, error) {
	submission, err := h.storage.MySQL.GetSubmissionByUUID(ctx, submissionUUID)
	if err != nil {
		return nil, err
	}

	resp := &DocumentDetailResponse{
		SubmissionUUID:   submission.SubmissionUUID,
		OriginalFilename: submission.OriginalFilename,
		DeclaredKind:     submission.DeclaredKind,
		DetectedKind:     submission.DetectedKind,
		ProcessingStatus: submission.ProcessingStatus,
		ConfidenceScore:  submission.ConfidenceScore,
		SubmittedAt:      submission.SubmissionTimestamp,
	}
	if submission.TargetJobID != nil {
		resp.TargetJobID = *submission.TargetJobID
	}
	if len(submission.ExtractedFieldsJSON) > 0 {
		resp.ExtractedFields = json.RawMessage(submission.ExtractedFieldsJSON)
	}
	if len(submission.AnonymizedJSON) > 0 {
		resp.Anonymized = json.RawMessage(submission.AnonymizedJSON)
	}
	return resp, nil
}

// ErrResultNotReady 结构化结果还没有生成
var ErrResultNotReady = errors.New("抽取结果尚未生成")

// HandleGetSubmissionResult 返回MinIO中保存的完整结构化抽取结果。
// 结果JSON比数据库里的摘要字段更全，包含校验报告与逐字段的候选匹配。
func (h *DocumentHandler) HandleGetSubmissionResult(ctx context.Context, submissionUUID string) (json.RawMessage, error) {
	submission, err := h.storage.MySQL.GetSubmissionByUUID(ctx, submissionUUID)
	if err != nil {
		return nil, err
	}
	if submission.ResultPathOSS == "" {
		return nil, ErrResultNotReady
	}

	data, err := h.storage.MinIO.GetResultJSON(ctx, submission.ResultPathOSS)
	if err != nil {
		return nil, fmt.Errorf("获取抽取结果失败: %w", err)
	}
	return json.RawMessage(data), nil
}

// StartDocumentUploadConsumer 启动文档上传消费者
func (h *DocumentHandler) StartDocumentUploadConsumer(ctx context.Context, prefetchCount int) error {
	logger.Info().
		Str("exchange", h.cfg.RabbitMQ.DocumentEventsExchange).
		Str("routing_key", h.cfg.RabbitMQ.UploadedRoutingKey).
		Msg("初始化RabbitMQ配置")

	// 1. 确保交换机和队列存在
	if err := h.storage.RabbitMQ.EnsureUploadTopology(); err != nil {
		return fmt.Errorf("声明上传消息拓扑失败: %w", err)
	}

	logger.Info().
		Str("queue", h.cfg.RabbitMQ.RawDocumentQueue).
		Int("prefetch_count", prefetchCount).
		Msg("文档上传消费者就绪")

	// 2. 启动消费者
	_, err := h.storage.RabbitMQ.StartConsumer(h.cfg.RabbitMQ.RawDocumentQueue, prefetchCount, func(data []byte) bool {
		var message storage2.DocumentUploadMessage
		if err := json.Unmarshal(data, &message); err != nil {
			logger.Error().Err(err).Msg("解析消息失败")
			return false
		}

		if err := h.insertSubmissionRecord(ctx, message); err != nil {
			logger.Error().Err(err).Str("submission_uuid", message.SubmissionUUID).Msg("插入文档提交记录失败")
			return false
		}

		if err := h.processorModule.ProcessUploadedDocument(ctx, message, h.cfg); err != nil {
			logger.Error().
				Err(err).
				Str("submission_uuid", message.SubmissionUUID).
				Msg("处理上传文档失败")
			// 失败状态已由处理器落库，消息不再重投
			return false
		}

		return true
	})

	if err != nil {
		return fmt.Errorf("启动消费者失败: %w", err)
	}

	return nil
}

// insertSubmissionRecord 落库提交记录。
// 提交序号是排名同分时的决胜依据，必须与插入在同一事务中计算。
func (h *DocumentHandler) insertSubmissionRecord(ctx context.Context, message storage2.DocumentUploadMessage) error {
	return h.storage.MySQL.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		submission := models.DocumentSubmission{
			SubmissionUUID:      message.SubmissionUUID,
			SubmissionTimestamp: message.SubmissionTimestamp,
			SourceChannel:       message.SourceChannel,
			DeclaredKind:        message.DeclaredKind,
			OriginalFilename:    message.OriginalFilename,
			OriginalFilePathOSS: message.OriginalFilePathOSS,
			ProcessingStatus:    constants.StatusSubmittedForProcessing,
		}
		if message.TargetJobID != "" {
			submission.TargetJobID = utils.StringPtr(message.TargetJobID)
			order, err := h.storage.MySQL.NextSubmissionOrder(tx, message.TargetJobID)
			if err != nil {
				return fmt.Errorf("计算提交序号失败: %w", err)
			}
			submission.SubmissionOrder = order
		}
		// 主键冲突时不改动已有行，消息重复投递保持幂等
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "submission_uuid"}},
			DoUpdates: clause.AssignmentColumns([]string{"submission_uuid"}),
		}).Create(&submission).Error
	})
}

// StartScoringConsumer 启动评分消费者
func (h *DocumentHandler) StartScoringConsumer(ctx context.Context, prefetchCount int) error {
	// 1. 确保交换机和队列存在
	if err := h.storage.RabbitMQ.EnsureScoringTopology(); err != nil {
		return fmt.Errorf("声明评分消息拓扑失败: %w", err)
	}

	logger.Info().
		Str("queue", h.cfg.RabbitMQ.ProcessedResultQueue).
		Int("prefetch_count", prefetchCount).
		Msg("评分消费者就绪")

	// 2. 启动消费者
	_, err := h.storage.RabbitMQ.StartConsumer(h.cfg.RabbitMQ.ProcessedResultQueue, prefetchCount, func(data []byte) bool {
		var message storage2.DocumentProcessedMessage
		if err := json.Unmarshal(data, &message); err != nil {
			logger.Error().
				Err(err).
				Msg("解析消息失败")
			return false
		}

		if err := h.processorModule.ProcessScoringTasks(ctx, message, h.cfg); err != nil {
			logger.Error().
				Err(err).
				Str("submissionUUID", message.SubmissionUUID).
				Msg("处理评分任务失败")
			// 状态仍为QUEUED_FOR_SCORING，消息重投后可重试
			return false
		}

		return true
	})

	if err != nil {
		return fmt.Errorf("启动消费者失败: %w", err)
	}

	return nil
}

// StartMD5CleanupTask 启动MD5记录清理任务
// 此方法可选调用，用于定期检查和重置MD5记录的过期时间
func (h *DocumentHandler) StartMD5CleanupTask(ctx context.Context) {
	// 默认每周执行一次
	cleanupInterval := 7 * 24 * time.Hour

	logger.Info().
		Dur("interval", cleanupInterval).
		Msg("启动MD5记录清理任务")

	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	// 立即执行一次清理
	h.cleanupMD5Records(ctx)

	for {
		select {
		case <-ticker.C:
			h.cleanupMD5Records(ctx)
		case <-ctx.Done():
			logger.Info().Msg("MD5记录清理任务退出")
			return
		}
	}
}

// cleanupMD5Records 检查各MD5去重集合是否有过期时间，没有则补设
func (h *DocumentHandler) cleanupMD5Records(ctx context.Context) {
	logger.Info().Msg("执行MD5记录清理任务...")

	setKeys := []string{
		constants.ParsedTextMD5SetKey,
		constants.KeyFileMD5Set,
	}
	for _, setKey := range setKeys {
		ttl, err := h.storage.Redis.Client.TTL(ctx, setKey).Result()
		if err != nil {
			logger.Error().Err(err).Str("setKey", setKey).Msg("获取MD5集合过期时间失败")
			continue
		}
		if ttl >= 0 {
			continue
		}
		expiry := h.storage.Redis.GetMD5ExpireDuration()
		if err := h.storage.Redis.Client.Expire(ctx, setKey, expiry).Err(); err != nil {
			logger.Error().Err(err).Str("setKey", setKey).Msg("设置MD5集合过期时间失败")
		} else {
			logger.Info().Str("setKey", setKey).Dur("expiry", expiry).Msg("成功设置MD5集合过期时间")
		}
	}

	logger.Info().Msg("MD5记录清理任务完成")
}
