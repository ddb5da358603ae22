package processor

import (
	"context"
	"io"
)

// TextExtractor 文档文本提取接口。
// 方法集与 parser 包中的提取器实现保持一致，便于在测试中替换。
type TextExtractor interface {
	// ExtractFromFile 从本地文件提取文本和元数据
	ExtractFromFile(ctx context.Context, filePath string) (string, map[string]interface{}, error)

	// ExtractTextFromReader 从Reader提取文本和元数据，uri仅用于日志与元数据标注
	ExtractTextFromReader(ctx context.Context, reader io.Reader, uri string) (string, map[string]interface{}, error)

	// ExtractTextFromBytes 从字节切片提取文本和元数据
	ExtractTextFromBytes(ctx context.Context, data []byte, uri string) (string, map[string]interface{}, error)
}
