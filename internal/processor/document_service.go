package processor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"hrdoc-go/internal/config"
	"hrdoc-go/internal/parser"
	"hrdoc-go/internal/storage"
	storagetypes "hrdoc-go/internal/storage"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
)

// 定义公共错误类型，用于整个服务
var (
	ErrStorageNotInit   = errors.New("storage is not initialized")   // 存储未初始化错误
	ErrExtractorNotInit = errors.New("extractor is not initialized") // 提取器未初始化错误
	ErrDuplicateContent = errors.New("duplicate content detected")   // 内容重复
)

// 定义tracer
var tracer = otel.Tracer("processor")

// DocumentService 定义文档处理服务的接口，
// 隐藏内部的处理器组装细节。
type DocumentService interface {
	// ProcessUploadedDocument 处理上传的文档，包括文本提取、去重、字段抽取和结果归档
	ProcessUploadedDocument(ctx context.Context, message storagetypes.DocumentUploadMessage) error

	// ProcessScoringTasks 处理打分任务，包括候选人关联和岗位匹配评分
	ProcessScoringTasks(ctx context.Context, message storagetypes.DocumentProcessedMessage) error
}

// documentServiceImpl 是DocumentService的实现。
// 采用Facade模式，内部持有处理器，但不暴露给外部。
type documentServiceImpl struct {
	processor *DocumentProcessor
	config    *config.Config
	logger    *zerolog.Logger
}

// NewDocumentService 创建新的文档服务实例
func NewDocumentService(cfg *config.Config, storageManager *storage.Storage, logger *zerolog.Logger) (DocumentService, error) {
	if cfg == nil {
		return nil, fmt.Errorf("配置不能为空")
	}
	if logger == nil {
		defaultLogger := zerolog.Nop()
		logger = &defaultLogger
	}

	components, err := createComponents(cfg, storageManager, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create components: %w", err)
	}

	settings := &Settings{
		Debug:        cfg.Logger.Level == "debug",
		Logger:       log.New(zerolog.NewConsoleWriter(), "[Processor] ", log.LstdFlags),
		TimeLocation: time.Local,
	}

	proc := NewDocumentProcessorV2(&components, settings)
	if err := proc.ensureAnalyzers(cfg); err != nil {
		return nil, err
	}

	svc := &documentServiceImpl{
		processor: proc,
		config:    cfg,
		logger:    logger,
	}
	if err := svc.checkComponentsInitialized(); err != nil {
		return nil, err
	}
	return svc, nil
}

// createComponents 创建所有必要的组件
func createComponents(cfg *config.Config, storageManager *storage.Storage, logger *zerolog.Logger) (Components, error) {
	components := Components{
		Storage: storageManager,
	}

	if cfg.Tika.ServerURL != "" {
		tikaOptions := []parser.TikaOption{
			parser.WithMinimalMetadata(true),
		}
		if tikaTimeout := time.Duration(cfg.Tika.Timeout) * time.Second; tikaTimeout > 0 {
			tikaOptions = append(tikaOptions, parser.WithTimeout(tikaTimeout))
		}
		components.TextExtractor = parser.NewTikaTextExtractor(cfg.Tika.ServerURL, tikaOptions...)
	} else {
		extractor, err := parser.NewEinoPDFTextExtractor(context.Background())
		if err != nil {
			return components, fmt.Errorf("创建Eino文本提取器失败: %w", err)
		}
		components.TextExtractor = extractor
	}

	return components, nil
}

// checkComponentsInitialized 检查所有必要的组件是否已初始化
func (ds *documentServiceImpl) checkComponentsInitialized() error {
	if ds.processor.Storage == nil {
		return ErrStorageNotInit
	}
	if ds.processor.TextExtractor == nil {
		return ErrExtractorNotInit
	}
	return nil
}

// ProcessUploadedDocument 实现DocumentService接口
func (ds *documentServiceImpl) ProcessUploadedDocument(ctx context.Context, message storagetypes.DocumentUploadMessage) error {
	ds.logger.Debug().
		Str("submission_uuid", message.SubmissionUUID).
		Str("declared_kind", message.DeclaredKind).
		Msg("开始处理上传文档")
	return ds.processor.ProcessUploadedDocument(ctx, message, ds.config)
}

// ProcessScoringTasks 实现DocumentService接口
func (ds *documentServiceImpl) ProcessScoringTasks(ctx context.Context, message storagetypes.DocumentProcessedMessage) error {
	ds.logger.Debug().
		Str("submission_uuid", message.SubmissionUUID).
		Str("target_job_id", message.TargetJobID).
		Msg("开始处理打分任务")
	return ds.processor.ProcessScoringTasks(ctx, message, ds.config)
}
