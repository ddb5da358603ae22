package constants

import "time"

const (
	// Application-level constants
	DefaultExtractorVer = "1.0" // Placeholder for actual Tika/eino versions

	// Storage-related constants
	JobProfileCacheDuration = 24 * time.Hour
	ParsedTextMD5SetKey     = "documents:text_md5s" // Redis Set key for storing extracted text MD5s
)

// 文档提交处理状态，贯穿上传、文本抽取、字段抽取、评分全流程
const (
	// StatusSubmittedForProcessing 初始状态，上传记录已落库
	StatusSubmittedForProcessing = "SUBMITTED_FOR_PROCESSING"
	// StatusPendingExtraction 原始文件已入对象存储，等待文本抽取
	StatusPendingExtraction = "PENDING_EXTRACTION"
	// StatusQueuedForScoring 文本与字段抽取完成，等待校验评分
	StatusQueuedForScoring = "QUEUED_FOR_SCORING"
	// StatusProcessingCompleted 全流程处理完成
	StatusProcessingCompleted = "PROCESSING_COMPLETED"

	// StatusDuplicateFileSkipped 原始文件MD5重复，跳过处理
	StatusDuplicateFileSkipped = "DUPLICATE_FILE_SKIPPED"
	// StatusContentDuplicateSkipped 抽取文本MD5重复，跳过后续处理
	StatusContentDuplicateSkipped = "CONTENT_DUPLICATE_SKIPPED"

	// StatusUploadProcessingFailed 上传阶段失败
	StatusUploadProcessingFailed = "UPLOAD_PROCESSING_FAILED"
	// StatusTextExtractionFailed 文本抽取阶段失败
	StatusTextExtractionFailed = "TEXT_EXTRACTION_FAILED"
	// StatusClassificationFailed 类型判定证据不足
	StatusClassificationFailed = "CLASSIFICATION_FAILED"
	// StatusFieldExtractionFailed 字段抽取或评分阶段失败
	StatusFieldExtractionFailed = "FIELD_EXTRACTION_FAILED"
)

// AllowedStatusesForScoring 允许进入校验评分阶段的前置状态。
// 幂等保护：重复投递的消息如果状态已前进则直接跳过。
var AllowedStatusesForScoring = map[string]bool{
	StatusPendingExtraction: true,
	StatusQueuedForScoring:  true,
}

// IsStatusAllowed 判断当前状态是否在给定的允许集合内
func IsStatusAllowed(status string, allowed map[string]bool) bool {
	return allowed[status]
}
