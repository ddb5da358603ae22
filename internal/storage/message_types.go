package storage

import "time"

// DocumentUploadMessage 文档上传消息，上传接口写入outbox后由中继投递
type DocumentUploadMessage struct {
	// 与数据库表字段一致的主要字段
	SubmissionUUID      string    `json:"submission_uuid"`          // 提交UUID，主键
	SubmissionTimestamp time.Time `json:"submission_timestamp"`     // 提交时间戳
	SourceChannel       string    `json:"source_channel,omitempty"` // 来源渠道
	TargetJobID         string    `json:"target_job_id,omitempty"`  // 目标岗位ID
	DeclaredKind        string    `json:"declared_kind,omitempty"`  // 上传方声明的文档类型
	OriginalFilename    string    `json:"original_filename"`        // 原始文件名
	OriginalFilePathOSS string    `json:"original_file_path_oss"`   // MinIO中的对象路径
	RawFileMD5          string    `json:"raw_file_md5,omitempty"`   // 原始文件的MD5，用于失败时回滚
}

// DocumentProcessedMessage 文档处理完成消息
type DocumentProcessedMessage struct {
	SubmissionUUID string `json:"submission_uuid"`           // 提交UUID
	TargetJobID    string `json:"target_job_id,omitempty"`   // 目标岗位ID
	DetectedKind   string `json:"detected_kind,omitempty"`   // 分类器判定的文档类型
	ResultPathOSS  string `json:"result_path_oss,omitempty"` // 结构化结果在MinIO中的路径

	// 处理状态相关字段
	ProcessingStatus string  `json:"processing_status,omitempty"` // 处理状态
	ConfidenceScore  float64 `json:"confidence_score,omitempty"`  // 校验置信度
	ProcessingTime   int64   `json:"processing_time,omitempty"`   // 处理时间戳

	Error string `json:"error,omitempty"` // 错误信息
}
