package processor // 文档处理的核心流程与组件

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"hrdoc-go/internal/config"
	"hrdoc-go/internal/constants"
	"hrdoc-go/internal/parser"
	"hrdoc-go/internal/storage"
	storagetypes "hrdoc-go/internal/storage"
	"hrdoc-go/internal/storage/models"
	"hrdoc-go/internal/tracing"
	"hrdoc-go/internal/types"
	"hrdoc-go/pkg/utils"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Components 聚合所有功能组件依赖，便于集中管理和测试替换
type Components struct {
	// 核心组件接口
	TextExtractor TextExtractor // 文档文本提取接口

	// 存储层依赖
	Storage *storage.Storage // 聚合的存储服务
}

// Settings 纯配置项，不包含任何业务逻辑组件
type Settings struct {
	Debug        bool           // 是否开启调试模式
	Logger       *log.Logger    // 日志记录器
	TimeLocation *time.Location // 时区设置
}

// ComponentConfig 组件配置
type ComponentConfig struct {
	Debug  bool        // 是否开启调试模式
	Logger *log.Logger // 日志记录器
}

// DocumentProcessor 文档处理组件聚合类。
// 抽取阶段与打分阶段分别由 ProcessUploadedDocument 和 ProcessScoringTasks 驱动。
type DocumentProcessor struct {
	// 核心组件接口
	TextExtractor TextExtractor // 文档文本提取接口

	// 存储层依赖
	Storage *storage.Storage // 存储服务

	// 各文档类型的模式库与校验器，首次使用时按配置构建
	banks     map[types.DocumentKind]*parser.Bank
	validator *parser.Validator

	// 配置
	Config ComponentConfig // 组件配置
}

// NewDocumentProcessorV2 创建新的文档处理器，使用明确分离的组件和设置
func NewDocumentProcessorV2(comp *Components, set *Settings, opts ...SettingOpt) *DocumentProcessor {
	for _, opt := range opts {
		opt(set)
	}

	if set.Logger == nil {
		set.Logger = log.New(os.Stdout, "[Processor] ", log.LstdFlags)
	}
	if set.TimeLocation == nil {
		set.TimeLocation = time.Local
	}

	processor := &DocumentProcessor{
		TextExtractor: comp.TextExtractor,
		Storage:       comp.Storage,
		Config: ComponentConfig{
			Debug:  set.Debug,
			Logger: set.Logger,
		},
	}

	if processor.Storage == nil {
		processor.Config.Logger.Println("警告: DocumentProcessor 的 Storage 依赖未初始化。某些功能可能受限。")
	}

	return processor
}

// CreateProcessor 便捷工厂函数，用于创建组件和设置并构造处理器
func CreateProcessor(ctx context.Context, compOpts []ComponentOpt, setOpts []SettingOpt) (*DocumentProcessor, error) {
	components := &Components{}
	settings := &Settings{
		Debug:        false,
		Logger:       log.New(os.Stdout, "[Processor] ", log.LstdFlags),
		TimeLocation: time.Local,
	}

	for _, opt := range compOpts {
		opt(components)
	}
	for _, opt := range setOpts {
		opt(settings)
	}

	if components.TextExtractor == nil {
		return nil, fmt.Errorf("必须提供文本提取器组件")
	}

	return NewDocumentProcessorV2(components, settings), nil
}

// CreateProcessorFromConfig 从配置创建处理器组件集合
func CreateProcessorFromConfig(ctx context.Context, cfg *config.Config, storageManager *storage.Storage) (*DocumentProcessor, error) {
	if cfg == nil {
		return nil, fmt.Errorf("配置不能为空")
	}

	components := &Components{
		Storage: storageManager,
	}

	settings := &Settings{
		Debug:        cfg.Logger.Level == "debug",
		Logger:       log.New(os.Stdout, "[Processor] ", log.LstdFlags),
		TimeLocation: time.Local,
	}

	var err error
	components.TextExtractor, err = BuildTextExtractor(ctx, cfg, func(prefix string) *log.Logger {
		return log.New(os.Stdout, prefix, log.LstdFlags)
	})
	if err != nil {
		return nil, fmt.Errorf("创建文本提取器失败: %w", err)
	}

	processor := NewDocumentProcessorV2(components, settings)
	if err := processor.ensureAnalyzers(cfg); err != nil {
		return nil, err
	}

	return processor, nil
}

// ensureAnalyzers 按配置构建四类文档的模式库与校验器，只构建一次
func (dp *DocumentProcessor) ensureAnalyzers(cfg *config.Config) error {
	if dp.banks != nil && dp.validator != nil {
		return nil
	}

	bankOpts := []parser.BankOption{}
	if cfg.Extraction.FallbackScanLines > 0 {
		bankOpts = append(bankOpts, parser.WithFallbackScanLines(cfg.Extraction.FallbackScanLines))
	}

	builders := map[types.DocumentKind]func(...parser.BankOption) (*parser.Bank, error){
		types.KindResume:           parser.NewResumeBank,
		types.KindPayslip:          parser.NewPayslipBank,
		types.KindExperienceLetter: parser.NewExperienceLetterBank,
		types.KindCertificate:      parser.NewCertificateBank,
	}

	banks := make(map[types.DocumentKind]*parser.Bank, len(builders))
	for kind, build := range builders {
		bank, err := build(bankOpts...)
		if err != nil {
			return fmt.Errorf("构建 %s 模式库失败: %w", kind, err)
		}
		banks[kind] = bank
	}

	dp.banks = banks
	dp.validator = parser.NewValidator(cfg.Extraction)
	return nil
}

// documentAnalysis 单文档分析管线的中间产物
type documentAnalysis struct {
	kind           types.DocumentKind
	detectedKind   types.DocumentKind
	classifierOK   bool
	classification types.Classification
	result         *types.FieldExtractionResult
	report         *types.ValidationReport
	anonymized     *types.AnonymizedEntities
}

// analyzeDocument 对已提取的原始文本执行归一化、分类、字段抽取、校验和匿名化。
// 纯内存计算，不触及任何存储。
func (dp *DocumentProcessor) analyzeDocument(filename, rawText string, declaredKind string) (*documentAnalysis, error) {
	normalized, signals := parser.Normalize(rawText)

	analysis := &documentAnalysis{}
	analysis.classification, analysis.classifierOK = parser.ClassifyDocument(filename, normalized)
	if analysis.classifierOK {
		analysis.detectedKind = analysis.classification.Kind
	}

	// 上传方显式声明的类型优先于分类器判定
	declared := types.DocumentKind(declaredKind)
	switch {
	case declared.Valid():
		analysis.kind = declared
	case analysis.classifierOK:
		analysis.kind = analysis.detectedKind
	default:
		return nil, fmt.Errorf("声明类型无效且分类器得分不足 (declared=%q)", declaredKind)
	}
	if analysis.detectedKind == "" {
		analysis.detectedKind = analysis.kind
	}

	bank, ok := dp.banks[analysis.kind]
	if !ok {
		return nil, fmt.Errorf("没有 %s 类型的模式库", analysis.kind)
	}

	analysis.result = bank.Run(normalized, signals)

	if analysis.kind == types.KindResume {
		analysis.result.Resume = parser.ExtractResumeEntities(normalized)
		analysis.anonymized = parser.Anonymize(analysis.result.Resume)
	}

	analysis.report = dp.validator.Validate(analysis.result, bank.RequiredFields())
	return analysis, nil
}

// ProcessUploadedDocument 接收上传消息，完成文本提取、去重、字段抽取、结果归档
// 并把打分任务写入outbox的完整流程。使用数据库事务确保所有状态更新的原子性。
func (dp *DocumentProcessor) ProcessUploadedDocument(ctx context.Context, message storagetypes.DocumentUploadMessage, cfg *config.Config) error {
	if dp.Storage == nil {
		return fmt.Errorf("DocumentProcessor: Storage is not initialized")
	}
	if dp.TextExtractor == nil {
		return fmt.Errorf("DocumentProcessor: TextExtractor is not initialized")
	}
	if err := dp.ensureAnalyzers(cfg); err != nil {
		return err
	}

	err := dp.Storage.MySQL.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1. 更新初始状态为 PENDING_EXTRACTION
		if err := tx.Model(&models.DocumentSubmission{}).
			Where("submission_uuid = ?", message.SubmissionUUID).
			Update("processing_status", constants.StatusPendingExtraction).Error; err != nil {
			dp.logDebug("更新文档 %s 状态为 %s 失败: %v", message.SubmissionUUID, constants.StatusPendingExtraction, err)
			return NewUpdateError(message.SubmissionUUID, fmt.Sprintf("更新状态为%s失败", constants.StatusPendingExtraction))
		}

		// 2. 提取文本并去重
		rawText, textMD5Hex, err := dp.extractAndDeduplicateDocument(ctx, tx, message)
		if err != nil {
			if errors.Is(err, ErrDuplicateContent) {
				return nil // 内容重复是正常流程，提交状态更新并结束
			}
			return err
		}

		// 3. 归一化、分类、字段抽取、校验、匿名化
		analysis, err := dp.analyzeDocument(message.OriginalFilename, rawText, message.DeclaredKind)
		if err != nil {
			dp.logDebug("分析文档 %s 失败: %v", message.SubmissionUUID, err)
			return NewClassifyError(message.SubmissionUUID, err.Error())
		}

		// 4. 上传结构化结果到MinIO
		docResult := &types.DocumentResult{
			SourcePath: message.OriginalFilePathOSS,
			Kind:       analysis.kind,
			Fields:     analysis.result,
			Validation: analysis.report,
			Anonymized: analysis.anonymized,
		}
		resultPath, err := dp.Storage.MinIO.UploadResultJSON(ctx, message.SubmissionUUID, docResult)
		if err != nil {
			dp.logDebug("上传抽取结果到MinIO失败 (文档 %s): %v", message.SubmissionUUID, err)
			return NewStoreError(message.SubmissionUUID, err.Error())
		}
		dp.logDebug("文档 %s 的抽取结果已上传到MinIO: %s", message.SubmissionUUID, resultPath)

		// 5. 字段级记录入库
		if err := dp.Storage.MySQL.SaveFieldRecords(tx, message.SubmissionUUID, analysis.result); err != nil {
			dp.logDebug("保存字段记录失败 (文档 %s): %v", message.SubmissionUUID, err)
			return NewDatabaseError(message.SubmissionUUID, "保存字段记录失败")
		}

		// 6. [Outbox] 将打分任务消息写入 Outbox 表，而不是直接发布
		processedMessage := storagetypes.DocumentProcessedMessage{
			SubmissionUUID:   message.SubmissionUUID,
			TargetJobID:      message.TargetJobID,
			DetectedKind:     string(analysis.kind),
			ResultPathOSS:    resultPath,
			ProcessingStatus: constants.StatusQueuedForScoring,
			ConfidenceScore:  analysis.report.ConfidenceScore,
			ProcessingTime:   time.Now().Unix(),
		}
		payloadBytes, err := json.Marshal(processedMessage)
		if err != nil {
			dp.logDebug("ProcessUploadedDocument: 序列化 outbox payload 失败 for %s: %v", message.SubmissionUUID, err)
			return NewUpdateError(message.SubmissionUUID, "序列化 outbox payload 失败")
		}

		outboxEntry := models.OutboxMessage{
			AggregateID:      message.SubmissionUUID,
			EventType:        "document.extracted",
			Payload:          string(payloadBytes),
			TargetExchange:   cfg.RabbitMQ.ProcessingEventsExchange,
			TargetRoutingKey: cfg.RabbitMQ.ProcessedRoutingKey,
		}
		if err := tx.Create(&outboxEntry).Error; err != nil {
			dp.logDebug("ProcessUploadedDocument: 插入 outbox 记录失败 for %s: %v", message.SubmissionUUID, err)
			return NewUpdateError(message.SubmissionUUID, "插入 outbox 记录失败")
		}
		dp.logDebug("ProcessUploadedDocument: 成功为 %s 创建 outbox 记录", message.SubmissionUUID)

		// 7. 更新数据库记录
		updates, err := dp.buildExtractionUpdates(analysis, textMD5Hex, resultPath, cfg)
		if err != nil {
			return NewUpdateError(message.SubmissionUUID, err.Error())
		}
		if err := dp.Storage.MySQL.UpdateDocumentSubmissionFields(tx, message.SubmissionUUID, updates); err != nil {
			dp.logDebug("更新文档 %s 数据库记录失败: %v", message.SubmissionUUID, err)
			return NewUpdateError(message.SubmissionUUID, "更新数据库失败")
		}

		return nil
	})

	if err != nil {
		failureStatus := failureStatusFor(err)
		if updateErr := dp.Storage.MySQL.UpdateDocumentProcessingStatus(ctx, message.SubmissionUUID, failureStatus); updateErr != nil {
			dp.logDebug("在事务失败后更新状态为 %s 时出错 (文档 %s): %v", failureStatus, message.SubmissionUUID, updateErr)
		}
		return err
	}

	dp.logDebug("上传任务 (文档 %s) 的处理已成功完成。", message.SubmissionUUID)
	return nil
}

// extractAndDeduplicateDocument 下载原始文件、提取文本并按文本MD5去重。
// 文本内容重复时返回 ErrDuplicateContent。
func (dp *DocumentProcessor) extractAndDeduplicateDocument(ctx context.Context, tx *gorm.DB, message storagetypes.DocumentUploadMessage) (string, string, error) {
	ctx, span := tracer.Start(ctx, "DocumentProcessor.extractAndDeduplicateDocument")
	defer span.End()

	// 步骤 1: 从MinIO下载原始文档
	originalFileBytes, err := dp.Storage.MinIO.GetDocumentFile(ctx, message.OriginalFilePathOSS)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeExternal)
		dp.logDebug("从MinIO下载文档 %s 失败: %v", message.SubmissionUUID, err)
		return "", "", NewDownloadError(message.SubmissionUUID, err.Error())
	}
	span.AddEvent("file content downloaded")
	dp.logDebug("文档 %s 从MinIO下载成功，大小: %d bytes", message.SubmissionUUID, len(originalFileBytes))

	// 步骤 2: 使用注入的 TextExtractor 提取文本
	rawText, _, err := dp.TextExtractor.ExtractTextFromReader(ctx, bytes.NewReader(originalFileBytes), message.OriginalFilePathOSS)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeExtraction)
		dp.logDebug("ProcessUploadedDocument: 提取文档文本失败 for %s: %v", message.SubmissionUUID, err)
		return "", "", NewExtractError(message.SubmissionUUID, err.Error())
	}
	span.AddEvent("raw text extracted")
	span.SetAttributes(attribute.String("document.text_preview", tracing.SafeDocumentContent(rawText)))
	dp.logDebug("ProcessUploadedDocument: 成功提取文本 for %s, 长度: %d", message.SubmissionUUID, len(rawText))

	// 步骤 3: 计算提取文本的MD5并去重
	rawTextMD5 := utils.CalculateMD5([]byte(rawText))
	dp.logDebug("ProcessUploadedDocument: 计算得到文本MD5 %s for %s", rawTextMD5, message.SubmissionUUID)

	textExists, err := dp.Storage.Redis.CheckAndAddExtractedTextMD5(ctx, rawTextMD5)
	if err != nil {
		dp.logDebug("ProcessUploadedDocument: 使用Redis原子操作检查文本MD5失败 for %s: %v, 将继续处理，但文本去重可能失效", message.SubmissionUUID, err)
	} else if textExists {
		dp.logDebug("ProcessUploadedDocument: 检测到重复的文本MD5 %s for %s，标记为重复内容", rawTextMD5, message.SubmissionUUID)
		if err := tx.Model(&models.DocumentSubmission{}).Where("submission_uuid = ?", message.SubmissionUUID).Update("processing_status", constants.StatusContentDuplicateSkipped).Error; err != nil {
			return "", "", NewUpdateError(message.SubmissionUUID, "更新重复内容状态失败")
		}
		return "", "", ErrDuplicateContent
	}

	return rawText, rawTextMD5, nil
}

// buildExtractionUpdates 组装抽取完成后的最终字段更新
func (dp *DocumentProcessor) buildExtractionUpdates(analysis *documentAnalysis, textMD5Hex, resultPath string, cfg *config.Config) (map[string]interface{}, error) {
	fieldsJSON, err := models.MarshalToJSON(analysis.result)
	if err != nil {
		return nil, fmt.Errorf("序列化抽取结果失败: %w", err)
	}

	extractorVersion := cfg.ActiveExtractorVersion
	if extractorVersion == "" {
		extractorVersion = constants.DefaultExtractorVer
	}

	updates := map[string]interface{}{
		"detected_kind":         string(analysis.detectedKind),
		"raw_text_md5":          textMD5Hex,
		"result_path_oss":       resultPath,
		"extracted_fields_json": fieldsJSON,
		"confidence_score":      analysis.report.ConfidenceScore,
		"extractor_version":     extractorVersion,
		"processing_status":     constants.StatusQueuedForScoring,
	}
	if analysis.classifierOK {
		updates["classifier_confidence"] = analysis.classification.Confidence
	}
	if analysis.anonymized != nil {
		anonJSON, err := models.MarshalToJSON(analysis.anonymized)
		if err != nil {
			return nil, fmt.Errorf("序列化匿名化实体失败: %w", err)
		}
		updates["anonymized_json"] = anonJSON
	}
	return updates, nil
}

// failureStatusFor 把流程错误映射到对应的失败状态
func failureStatusFor(err error) string {
	switch {
	case errors.Is(err, ErrDocumentDownloadFailed), errors.Is(err, ErrTextExtractionFailed):
		return constants.StatusTextExtractionFailed
	case errors.Is(err, ErrClassificationFailed):
		return constants.StatusClassificationFailed
	case errors.Is(err, ErrFieldExtractionFailed):
		return constants.StatusFieldExtractionFailed
	default:
		return constants.StatusUploadProcessingFailed
	}
}

// ProcessScoringTasks 接收抽取完成消息，完成候选人关联与岗位匹配打分。
// 使用悲观锁加状态检查保证消息重投时的幂等性。
func (dp *DocumentProcessor) ProcessScoringTasks(ctx context.Context, message storagetypes.DocumentProcessedMessage, cfg *config.Config) error {
	ctx, span := tracer.Start(ctx, "DocumentProcessor.ProcessScoringTasks",
		trace.WithAttributes(
			attribute.String("submission_uuid", message.SubmissionUUID),
			attribute.String("target_job_id", message.TargetJobID),
		),
	)
	defer span.End()

	dp.logDebug("[ProcessScoringTasks] 开始处理打分任务 for %s, 目标Job ID: %s", message.SubmissionUUID, message.TargetJobID)

	var submission models.DocumentSubmission
	skip := false

	// 使用事务来保证读取-检查的原子性和幂等性
	err := dp.Storage.MySQL.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("submission_uuid = ?", message.SubmissionUUID).
			First(&submission).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				dp.logInfo("ProcessScoringTasks: DocumentSubmission 记录未找到 for %s", message.SubmissionUUID)
				skip = true // 记录不存在，可能已被删除，直接确认消息
				return nil
			}
			return fmt.Errorf("获取 DocumentSubmission 记录失败: %w", err)
		}

		// 幂等性检查：只有处于抽取完成链路上的状态才继续
		if !constants.IsStatusAllowed(submission.ProcessingStatus, constants.AllowedStatusesForScoring) {
			dp.logDebug("[ProcessScoringTasks] 跳过重复/无效状态的消息 for %s, 当前状态: %s", message.SubmissionUUID, submission.ProcessingStatus)
			skip = true
			return nil
		}
		return nil
	})
	if err != nil {
		return err
	}
	if skip {
		return nil
	}

	// 没有目标岗位或不是简历时无需打分，直接完成
	if submission.TargetJobID == nil || *submission.TargetJobID == "" ||
		submission.DetectedKind != string(types.KindResume) || len(submission.ExtractedFieldsJSON) == 0 {
		return dp.completeWithoutScore(ctx, message.SubmissionUUID)
	}

	// --- 事务外执行IO操作（岗位画像加载、打分计算） ---
	profile, err := dp.loadJobProfile(ctx, *submission.TargetJobID)
	if err != nil {
		dp.logInfo("ProcessScoringTasks: 加载岗位画像失败 for %s, JobID %s: %v", message.SubmissionUUID, *submission.TargetJobID, err)
		// 状态保持不变，消息重投后可重试
		return err
	}

	var fieldResult types.FieldExtractionResult
	if err := json.Unmarshal(submission.ExtractedFieldsJSON, &fieldResult); err != nil {
		dp.logInfo("ProcessScoringTasks: 反序列化抽取结果失败 for %s: %v", message.SubmissionUUID, err)
		return dp.completeWithoutScore(ctx, message.SubmissionUUID)
	}
	if fieldResult.Resume == nil {
		return dp.completeWithoutScore(ctx, message.SubmissionUUID)
	}

	fit := parser.ScoreFit(fieldResult.Resume, profile)
	span.AddEvent("fit score computed")

	// --- 重新进入事务，执行数据库写操作 ---
	tx := dp.Storage.MySQL.DB().WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}
	defer tx.Rollback()

	// 1. 关联候选人（至少要有一个联系方式）
	var candidateID string
	basicInfo := basicInfoFromEntities(fieldResult.Resume)
	if basicInfo["email"] != "" || basicInfo["phone"] != "" {
		candidate, err := dp.Storage.MySQL.FindOrCreateCandidate(ctx, tx, basicInfo)
		if err != nil {
			dp.logInfo("ProcessScoringTasks: 查找或创建候选人失败 for %s: %v", message.SubmissionUUID, err)
			return fmt.Errorf("查找或创建候选人失败: %w", err)
		}
		if candidate != nil {
			candidateID = candidate.CandidateID
			dp.logDebug("[ProcessScoringTasks] 成功关联候选人 %s for submission %s", candidateID, message.SubmissionUUID)
		}
	}

	// 2. 保存匹配评分
	scoreRecord := models.JobFitScore{
		SubmissionUUID:      submission.SubmissionUUID,
		JobID:               *submission.TargetJobID,
		SkillsMatch:         fit.SkillsMatch,
		ExperienceRelevance: fit.ExperienceRelevance,
		EducationMatch:      fit.EducationMatch,
		TenureStability:     fit.TenureStability,
		GrowthTrajectory:    fit.GrowthTrajectory,
		TotalFit:            fit.TotalFit,
		Shortlisted:         fit.TotalFit >= cfg.Extraction.ShortlistThreshold,
		ScoredAt:            utils.TimePtr(time.Now()),
	}
	if err := dp.Storage.MySQL.CreateJobFitScore(tx, &scoreRecord); err != nil {
		dp.logInfo("ProcessScoringTasks: 保存匹配评分失败 for %s: %v", message.SubmissionUUID, err)
		return fmt.Errorf("保存匹配评分失败: %w", err)
	}

	// 3. 最终更新：候选人关联与完成状态
	updates := map[string]interface{}{
		"processing_status": constants.StatusProcessingCompleted,
	}
	if candidateID != "" {
		updates["candidate_id"] = candidateID
	}
	if err := dp.Storage.MySQL.UpdateDocumentSubmissionFields(tx, submission.SubmissionUUID, updates); err != nil {
		dp.logInfo("ProcessScoringTasks: 最终更新数据库失败 for %s: %v", message.SubmissionUUID, err)
		return fmt.Errorf("最终更新数据库失败: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		dp.logInfo("[ProcessScoringTasks] 提交事务失败 for %s: %v", message.SubmissionUUID, err)
		return err
	}

	dp.logDebug("[ProcessScoringTasks] 成功完成打分流程 for %s, TotalFit: %.2f", message.SubmissionUUID, fit.TotalFit)
	return nil
}

// completeWithoutScore 不需要打分的提交直接标记为处理完成
func (dp *DocumentProcessor) completeWithoutScore(ctx context.Context, submissionUUID string) error {
	if err := dp.Storage.MySQL.UpdateDocumentProcessingStatus(ctx, submissionUUID, constants.StatusProcessingCompleted); err != nil {
		return NewUpdateError(submissionUUID, "更新完成状态失败")
	}
	dp.logDebug("[ProcessScoringTasks] 文档 %s 无需打分，标记为处理完成", submissionUUID)
	return nil
}

// loadJobProfile 读取岗位画像，优先走Redis缓存，未命中时回源MySQL并回填缓存
func (dp *DocumentProcessor) loadJobProfile(ctx context.Context, jobID string) (*types.JobProfile, error) {
	if dp.Storage.Redis != nil {
		if profile, err := dp.Storage.Redis.GetJobProfile(ctx, jobID); err == nil && profile != nil {
			return profile, nil
		}
	}

	job, err := dp.Storage.MySQL.GetJobByID(dp.Storage.MySQL.DB().WithContext(ctx), jobID)
	if err != nil {
		return nil, fmt.Errorf("获取岗位信息失败: %w", err)
	}
	profile, err := job.ToProfile()
	if err != nil {
		return nil, fmt.Errorf("还原岗位画像失败: %w", err)
	}

	if dp.Storage.Redis != nil {
		if err := dp.Storage.Redis.SetJobProfile(ctx, profile); err != nil {
			dp.logDebug("回填岗位画像缓存失败 for JobID %s: %v", jobID, err)
		}
	}
	return profile, nil
}

// basicInfoFromEntities 把简历实体中的个人信息压平为候选人归并所需的map
func basicInfoFromEntities(entities *types.ResumeEntities) map[string]string {
	info := map[string]string{
		"name":  entities.PersonalInfo.Name,
		"phone": entities.PersonalInfo.Phone,
		"email": entities.PersonalInfo.Email,
	}
	if entities.PersonalInfo.Location != "" {
		info["location"] = entities.PersonalInfo.Location
	}
	return info
}
