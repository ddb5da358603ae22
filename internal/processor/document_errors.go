package processor

import (
	"errors"
	"fmt"
)

// 定义基础错误类型
var (
	ErrDocumentDownloadFailed = errors.New("下载原始文档失败")
	ErrTextExtractionFailed   = errors.New("提取文档文本失败")
	ErrClassificationFailed   = errors.New("文档类型识别失败")
	ErrFieldExtractionFailed  = errors.New("字段抽取失败")
	ErrStoreResultFailed      = errors.New("上传抽取结果失败")
	ErrPublishMessageFailed   = errors.New("发布消息到打分队列失败")
	ErrUpdateStatusFailed     = errors.New("更新文档状态失败")
	ErrDatabaseFailed         = errors.New("数据库操作失败")
)

// DocumentProcessError 包含详细错误信息的自定义错误
type DocumentProcessError struct {
	SubmissionUUID string
	Op             string
	BaseErr        error
	Detail         string
}

func (e *DocumentProcessError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s (操作:%s, UUID:%s): %s", e.BaseErr, e.Op, e.SubmissionUUID, e.Detail)
	}
	return fmt.Sprintf("%s (操作:%s, UUID:%s)", e.BaseErr, e.Op, e.SubmissionUUID)
}

func (e *DocumentProcessError) Unwrap() error {
	return e.BaseErr
}

// Is 实现 errors.Is 接口以支持错误比较
func (e *DocumentProcessError) Is(target error) bool {
	return errors.Is(e.BaseErr, target)
}

// 错误构造函数
func NewDownloadError(uuid, detail string) error {
	return &DocumentProcessError{
		SubmissionUUID: uuid,
		Op:             "download",
		BaseErr:        ErrDocumentDownloadFailed,
		Detail:         detail,
	}
}

func NewExtractError(uuid, detail string) error {
	return &DocumentProcessError{
		SubmissionUUID: uuid,
		Op:             "extract",
		BaseErr:        ErrTextExtractionFailed,
		Detail:         detail,
	}
}

func NewClassifyError(uuid, detail string) error {
	return &DocumentProcessError{
		SubmissionUUID: uuid,
		Op:             "classify",
		BaseErr:        ErrClassificationFailed,
		Detail:         detail,
	}
}

func NewFieldExtractionError(uuid, detail string) error {
	return &DocumentProcessError{
		SubmissionUUID: uuid,
		Op:             "fields",
		BaseErr:        ErrFieldExtractionFailed,
		Detail:         detail,
	}
}

func NewStoreError(uuid, detail string) error {
	return &DocumentProcessError{
		SubmissionUUID: uuid,
		Op:             "store",
		BaseErr:        ErrStoreResultFailed,
		Detail:         detail,
	}
}

func NewPublishError(uuid, detail string) error {
	return &DocumentProcessError{
		SubmissionUUID: uuid,
		Op:             "publish",
		BaseErr:        ErrPublishMessageFailed,
		Detail:         detail,
	}
}

func NewUpdateError(uuid, detail string) error {
	return &DocumentProcessError{
		SubmissionUUID: uuid,
		Op:             "update",
		BaseErr:        ErrUpdateStatusFailed,
		Detail:         detail,
	}
}

func NewDatabaseError(uuid, detail string) error {
	return &DocumentProcessError{
		SubmissionUUID: uuid,
		Op:             "database",
		BaseErr:        ErrDatabaseFailed,
		Detail:         detail,
	}
}
