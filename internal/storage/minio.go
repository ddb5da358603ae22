package storage

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/minio/minio-go/v7/pkg/lifecycle"

	"hrdoc-go/internal/config"
)

// ObjectStorage 对象存储接口
type ObjectStorage interface {
	// UploadFile 上传文件到指定路径
	UploadFile(ctx context.Context, objectName string, reader io.Reader, fileSize int64, contentType string) (string, error)

	// DownloadFile 下载文件
	DownloadFile(ctx context.Context, objectName string) ([]byte, error)

	// GetPresignedURL 获取预签名URL
	GetPresignedURL(ctx context.Context, objectName string, expiry time.Duration) (string, error)

	// DeleteFile 删除文件
	DeleteFile(ctx context.Context, objectName string) error

	// 文档特定操作
	UploadDocumentFile(ctx context.Context, submissionUUID, fileExt string, reader io.Reader, fileSize int64) (string, error)
	UploadResultJSON(ctx context.Context, submissionUUID string, result interface{}) (string, error)
	GetDocumentFile(ctx context.Context, objectKey string) ([]byte, error)
	GetResultJSON(ctx context.Context, objectKey string) ([]byte, error)

	// 流式上传并计算MD5
	UploadDocumentFileStreaming(ctx context.Context, submissionUUID, fileExt string, reader io.Reader, fileSize int64) (string, string, error)
}

// 确保MinIO实现了ObjectStorage接口
var _ ObjectStorage = (*MinIO)(nil)

// MinIO 提供对象存储功能
type MinIO struct {
	client          *minio.Client
	cfg             *config.MinIOConfig
	originalsBucket string
	resultsBucket   string
	logger          *log.Logger
}

// NewMinIO 创建MinIO客户端
func NewMinIO(cfg *config.MinIOConfig, logger *log.Logger) (*MinIO, error) {
	if cfg == nil {
		return nil, fmt.Errorf("MinIO配置不能为空")
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	logger.Printf("[MinIO] Initializing MinIO client with endpoint: %s, originalsBucket: %s, resultsBucket: %s", cfg.Endpoint, cfg.OriginalsBucket, cfg.ResultsBucket)

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		logger.Printf("[MinIO] Initialization failed: %v", err)
		return nil, fmt.Errorf("创建MinIO客户端失败: %w", err)
	}

	originalsBucket := cfg.OriginalsBucket
	if originalsBucket == "" {
		originalsBucket = cfg.BucketName // 向后兼容
	}

	resultsBucket := cfg.ResultsBucket
	if resultsBucket == "" {
		resultsBucket = "hrdoc-results" // 默认值
	}

	m := &MinIO{
		client:          client,
		cfg:             cfg,
		originalsBucket: originalsBucket,
		resultsBucket:   resultsBucket,
		logger:          logger,
	}

	// 确保存储桶存在
	err = m.ensureBucketExists(originalsBucket, cfg.Location)
	if err != nil {
		logger.Printf("[MinIO] Failed to ensure originals bucket %s exists: %v", originalsBucket, err)
		return nil, fmt.Errorf("确保原始文档存储桶 %s 存在失败: %w", originalsBucket, err)
	}

	err = m.ensureBucketExists(resultsBucket, cfg.Location)
	if err != nil {
		logger.Printf("[MinIO] Failed to ensure results bucket %s exists: %v", resultsBucket, err)
		return nil, fmt.Errorf("确保抽取结果存储桶 %s 存在失败: %w", resultsBucket, err)
	}

	// 设置生命周期规则
	if cfg.OriginalFileExpireDays > 0 || cfg.ResultExpireDays > 0 {
		err = m.setupLifecycleRules(context.Background())
		if err != nil {
			logger.Printf("[MinIO] Warning: Failed to set up lifecycle rules: %v", err)
		}
	}

	logger.Printf("[MinIO] Client initialized successfully for endpoint: %s", cfg.Endpoint)
	return m, nil
}

// ensureBucketExists 确保存储桶存在
func (m *MinIO) ensureBucketExists(bucketName, location string) error {
	m.logger.Printf("[MinIO] Ensuring bucket exists: %s (Location: %s)", bucketName, location)
	exists, err := m.client.BucketExists(context.Background(), bucketName)
	if err != nil {
		m.logger.Printf("[MinIO] Error checking if bucket %s exists: %v", bucketName, err)
		return fmt.Errorf("检查存储桶 %s 是否存在时出错: %w", bucketName, err)
	}
	if !exists {
		m.logger.Printf("[MinIO] Bucket %s does not exist, attempting to create...", bucketName)
		err = m.client.MakeBucket(context.Background(), bucketName, minio.MakeBucketOptions{Region: location})
		if err != nil {
			m.logger.Printf("[MinIO] Error creating bucket %s: %v", bucketName, err)
			return fmt.Errorf("创建存储桶 %s 失败: %w", bucketName, err)
		}
		m.logger.Printf("[MinIO] Bucket %s created successfully.", bucketName)
	} else {
		m.logger.Printf("[MinIO] Bucket %s already exists.", bucketName)
	}
	return nil
}

// setupLifecycleRules 设置对象生命周期规则
func (m *MinIO) setupLifecycleRules(ctx context.Context) error {
	m.logger.Printf("[MinIO] Setting up lifecycle rules...")
	if m.cfg.OriginalFileExpireDays > 0 {
		if err := m.setupBucketLifecycle(ctx, m.originalsBucket, "expire-originals", m.cfg.OriginalFileExpireDays); err != nil {
			return fmt.Errorf("为原始文档存储桶 %s 设置生命周期失败: %w", m.originalsBucket, err)
		}
	}
	if m.cfg.ResultExpireDays > 0 {
		if err := m.setupBucketLifecycle(ctx, m.resultsBucket, "expire-results", m.cfg.ResultExpireDays); err != nil {
			return fmt.Errorf("为抽取结果存储桶 %s 设置生命周期失败: %w", m.resultsBucket, err)
		}
	}
	m.logger.Printf("[MinIO] Lifecycle rules setup completed.")
	return nil
}

// setupBucketLifecycle 为指定存储桶设置生命周期规则
func (m *MinIO) setupBucketLifecycle(ctx context.Context, bucketName, ruleID string, expiryDays int) error {
	m.logger.Printf("[MinIO] Setting lifecycle rule for bucket %s: ID=%s, ExpiryDays=%d", bucketName, ruleID, expiryDays)
	config := lifecycle.NewConfiguration()
	config.Rules = []lifecycle.Rule{
		{
			ID:     ruleID,
			Status: "Enabled",
			Expiration: lifecycle.Expiration{
				Days: lifecycle.ExpirationDays(expiryDays),
			},
		},
	}

	err := m.client.SetBucketLifecycle(ctx, bucketName, config)
	if err != nil {
		m.logger.Printf("[MinIO] Error setting lifecycle for bucket %s: %v", bucketName, err)
		return err
	}
	m.logger.Printf("[MinIO] Successfully set lifecycle for bucket %s.", bucketName)
	return nil
}

// UploadFile 上传文件到指定路径。
// objectName 可带 "bucket/key" 前缀指定目标桶，否则落到主配置桶。
func (m *MinIO) UploadFile(ctx context.Context, objectName string, reader io.Reader, fileSize int64, contentType string) (string, error) {
	m.logger.Printf("[MinIO] Uploading file: ObjectName=%s, Size=%d, ContentType=%s", objectName, fileSize, contentType)

	bucketToUse := m.cfg.BucketName
	if bucketToUse == "" {
		bucketToUse = m.originalsBucket
	}
	actualObjectName := objectName
	if strings.Contains(objectName, "/") {
		parts := strings.SplitN(objectName, "/", 2)
		if len(parts) == 2 {
			// 只认已配置的桶名前缀，防止通过objectName意外创建桶
			if parts[0] == m.originalsBucket || parts[0] == m.resultsBucket || parts[0] == m.cfg.BucketName {
				bucketToUse = parts[0]
				actualObjectName = parts[1]
				m.logger.Printf("[MinIO] Using bucket '%s' and object key '%s' from provided objectName.", bucketToUse, actualObjectName)
			}
		}
	}

	if m.testLogging() {
		m.logger.Printf("[MinIO-UploadFile] Attempting to upload: ObjectName='%s', FileSize=%d, ContentType='%s', Bucket='%s'", actualObjectName, fileSize, contentType, bucketToUse)
	}

	uploadInfo, err := m.client.PutObject(ctx, bucketToUse, actualObjectName, reader, fileSize, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		if m.testLogging() {
			m.logger.Printf("[MinIO-UploadFile] Error uploading %s: %v", actualObjectName, err)
		}
		return "", fmt.Errorf("上传对象 %s/%s 失败: %w", bucketToUse, actualObjectName, err)
	}

	if m.testLogging() {
		m.logger.Printf("[MinIO-UploadFile] Successfully uploaded %s, ETag: %s, Size: %d", actualObjectName, uploadInfo.ETag, uploadInfo.Size)
	}
	return actualObjectName, nil
}

// uploadFileFromBytes 从字节数组上传文件
func (m *MinIO) uploadFileFromBytes(ctx context.Context, objectName string, data []byte, contentType string) (string, error) {
	return m.UploadFile(ctx, objectName, bytes.NewReader(data), int64(len(data)), contentType)
}

// UploadDocumentFile 上传原始文档文件到originalsBucket
// 返回MinIO中的对象键 (不含bucket前缀)
func (m *MinIO) UploadDocumentFile(ctx context.Context, submissionUUID, fileExt string, reader io.Reader, fileSize int64) (string, error) {
	// 对象名称形如: document/submissionUUID/original.pdf
	objectName := fmt.Sprintf("document/%s/original%s", submissionUUID, fileExt)
	contentType := getContentType(fileExt)

	if m.testLogging() {
		m.logger.Printf("[MinIO-UploadDocumentFile] Uploading: SubmissionUUID='%s', FileExt='%s', ObjectName='%s', Bucket='%s'", submissionUUID, fileExt, objectName, m.originalsBucket)
	}

	_, err := m.client.PutObject(ctx, m.originalsBucket, objectName, reader, fileSize, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		if m.testLogging() {
			m.logger.Printf("[MinIO-UploadDocumentFile] Error uploading %s: %v", objectName, err)
		}
		return "", fmt.Errorf("上传文档 %s 到存储桶 %s 失败: %w", objectName, m.originalsBucket, err)
	}

	if m.testLogging() {
		m.logger.Printf("[MinIO-UploadDocumentFile] Successfully uploaded %s to bucket %s", objectName, m.originalsBucket)
	}

	return objectName, nil
}

// UploadResultJSON 把结构化抽取结果序列化为JSON上传到resultsBucket
func (m *MinIO) UploadResultJSON(ctx context.Context, submissionUUID string, result interface{}) (string, error) {
	objectName := fmt.Sprintf("document/%s/result.json", submissionUUID)

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("序列化抽取结果失败: %w", err)
	}

	if m.testLogging() {
		m.logger.Printf("[MinIO-UploadResultJSON] Uploading: SubmissionUUID='%s', ObjectName='%s', Bucket='%s', Size=%d", submissionUUID, objectName, m.resultsBucket, len(data))
	}

	_, err = m.client.PutObject(ctx, m.resultsBucket, objectName, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		if m.testLogging() {
			m.logger.Printf("[MinIO-UploadResultJSON] Error uploading result for %s: %v", submissionUUID, err)
		}
		return "", fmt.Errorf("上传抽取结果 %s 到存储桶 %s 失败: %w", objectName, m.resultsBucket, err)
	}
	if m.testLogging() {
		m.logger.Printf("[MinIO-UploadResultJSON] Successfully uploaded result for %s to %s", submissionUUID, objectName)
	}
	return objectName, nil
}

// DownloadFile 下载文件，objectName 可带 "bucket/key" 前缀
func (m *MinIO) DownloadFile(ctx context.Context, objectName string) ([]byte, error) {
	m.logger.Printf("[MinIO] Downloading file: ObjectName=%s", objectName)
	bucketName := m.originalsBucket
	actualObjectName := objectName

	if strings.Contains(objectName, "/") {
		parts := strings.SplitN(objectName, "/", 2)
		if len(parts) == 2 && (parts[0] == m.originalsBucket || parts[0] == m.resultsBucket || parts[0] == m.cfg.BucketName) {
			bucketName = parts[0]
			actualObjectName = parts[1]
			m.logger.Printf("[MinIO] Using bucket '%s' and object key '%s' from provided objectName for download.", bucketName, actualObjectName)
		}
	}

	if m.testLogging() {
		m.logger.Printf("[MinIO-DownloadFile] Downloading: ObjectName='%s', Bucket='%s'", actualObjectName, bucketName)
	}

	obj, err := m.client.GetObject(ctx, bucketName, actualObjectName, minio.GetObjectOptions{})
	if err != nil {
		if m.testLogging() {
			m.logger.Printf("[MinIO-DownloadFile] Error getting object %s: %v", actualObjectName, err)
		}
		return nil, fmt.Errorf("获取对象 %s/%s 失败: %w", bucketName, actualObjectName, err)
	}
	defer obj.Close()

	// Stat确认对象存在且可读
	stat, err := obj.Stat()
	if err != nil {
		m.logger.Printf("[MinIO] Failed to stat object %s/%s after GetObject: %v", bucketName, actualObjectName, err)
		return nil, fmt.Errorf("获取对象 %s/%s 状态失败: %w", bucketName, actualObjectName, err)
	}
	m.logger.Printf("[MinIO] Object %s/%s stats: Size=%d, ContentType=%s", bucketName, actualObjectName, stat.Size, stat.ContentType)

	data, err := io.ReadAll(obj)
	if err != nil {
		if m.testLogging() {
			m.logger.Printf("[MinIO-DownloadFile] Error reading object data for %s: %v", actualObjectName, err)
		}
		return nil, fmt.Errorf("读取对象 %s/%s 数据失败: %w", bucketName, actualObjectName, err)
	}
	if m.testLogging() {
		m.logger.Printf("[MinIO-DownloadFile] Successfully downloaded %d bytes from %s/%s.", len(data), bucketName, actualObjectName)
	}
	return data, nil
}

// GetDocumentFile 从originalsBucket获取原始文档
func (m *MinIO) GetDocumentFile(ctx context.Context, objectKey string) ([]byte, error) {
	m.logger.Printf("[MinIO] Getting document file: Bucket=%s, ObjectKey=%s", m.originalsBucket, objectKey)
	return m.DownloadFile(ctx, fmt.Sprintf("%s/%s", m.originalsBucket, objectKey))
}

// GetResultJSON 从resultsBucket获取结构化抽取结果
func (m *MinIO) GetResultJSON(ctx context.Context, objectKey string) ([]byte, error) {
	m.logger.Printf("[MinIO] Getting result JSON: Bucket=%s, ObjectKey=%s", m.resultsBucket, objectKey)
	return m.DownloadFile(ctx, fmt.Sprintf("%s/%s", m.resultsBucket, objectKey))
}

// GetPresignedURL 获取预签名URL
func (m *MinIO) GetPresignedURL(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	m.logger.Printf("[MinIO] Generating presigned URL for: %s, Expiry: %s", objectName, expiry)
	bucketName := m.originalsBucket

	presignedURL, err := m.client.PresignedGetObject(ctx, bucketName, objectName, expiry, nil)
	if err != nil {
		if m.testLogging() {
			m.logger.Printf("[MinIO-GetPresignedURL] Error generating for %s: %v", objectName, err)
		}
		return "", fmt.Errorf("生成MinIO预签名URL失败: %w", err)
	}
	if m.testLogging() {
		m.logger.Printf("[MinIO-GetPresignedURL] Successfully generated for %s: %s", objectName, presignedURL.String())
	}
	return presignedURL.String(), nil
}

// DeleteFile 删除文件
func (m *MinIO) DeleteFile(ctx context.Context, objectName string) error {
	m.logger.Printf("[MinIO] Deleting object: %s", objectName)
	bucketName := m.originalsBucket

	err := m.client.RemoveObject(ctx, bucketName, objectName, minio.RemoveObjectOptions{})
	if err != nil {
		if m.testLogging() {
			m.logger.Printf("[MinIO-DeleteFile] Error deleting %s: %v", objectName, err)
		}
		return fmt.Errorf("删除对象 %s 失败: %w", objectName, err)
	}
	if m.testLogging() {
		m.logger.Printf("[MinIO-DeleteFile] Successfully deleted %s", objectName)
	}
	return nil
}

// StatObject 暴露底层的StatObject方法，用于测试或特定场景
func (m *MinIO) StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error) {
	return m.client.StatObject(ctx, bucketName, objectName, opts)
}

// RemoveObject 暴露底层的RemoveObject方法，用于测试或特定场景
func (m *MinIO) RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error {
	return m.client.RemoveObject(ctx, bucketName, objectName, opts)
}

func (m *MinIO) testLogging() bool {
	return m.cfg.EnableTestLogging && m.logger != nil && m.logger.Writer() != io.Discard
}

// 获取内容类型
func getContentType(ext string) string {
	ext = strings.ToLower(ext)
	switch ext {
	case ".pdf":
		return "application/pdf"
	case ".doc":
		return "application/msword"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".txt":
		return "text/plain"
	case ".html", ".htm":
		return "text/html"
	default:
		return "application/octet-stream"
	}
}

// UploadDocumentFileStreaming 流式上传文档文件并同时计算MD5
// 返回: objectKey, md5Hex, error
func (m *MinIO) UploadDocumentFileStreaming(ctx context.Context, submissionUUID, fileExt string, reader io.Reader, fileSize int64) (string, string, error) {
	objectName := fmt.Sprintf("document/%s/original%s", submissionUUID, fileExt)
	contentType := getContentType(fileExt)

	md5Hash := md5.New()

	// TeeReader让上传流同时喂给哈希计算器
	teeReader := io.TeeReader(reader, md5Hash)

	if m.testLogging() {
		m.logger.Printf("[MinIO-UploadDocumentFileStreaming] Uploading: SubmissionUUID='%s', FileExt='%s', ObjectName='%s', Bucket='%s'",
			submissionUUID, fileExt, objectName, m.originalsBucket)
	}

	info, err := m.client.PutObject(ctx, m.originalsBucket, objectName, teeReader,
		fileSize, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", "", fmt.Errorf("流式上传文件到MinIO失败: %w", err)
	}

	md5Hex := hex.EncodeToString(md5Hash.Sum(nil))

	if m.testLogging() {
		m.logger.Printf("[MinIO-UploadDocumentFileStreaming] Successfully uploaded %s, ETag: %s, Size: %d, MD5: %s",
			objectName, info.ETag, info.Size, md5Hex)
	}

	return objectName, md5Hex, nil
}
