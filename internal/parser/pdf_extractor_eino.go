package parser

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/cloudwego/eino-ext/components/document/parser/pdf"
	einoParser "github.com/cloudwego/eino/components/document/parser"
	"github.com/rs/zerolog"

	"hrdoc-go/internal/logger"
)

// 单份文档的本地解析超时
const einoParseTimeout = 30 * time.Second

// EinoPDFTextExtractor 基于 Eino PDF Parser 的本地文本提取器，
// 不依赖外部服务，作为Tika不可用时的替代后端。
type EinoPDFTextExtractor struct {
	parser *pdf.PDFParser
	log    zerolog.Logger
}

var _ TextExtractor = (*EinoPDFTextExtractor)(nil)

// NewEinoPDFTextExtractor 初始化本地PDF提取器。
// 配置为不按页面分割，整份文档输出为连续文本。
func NewEinoPDFTextExtractor(ctx context.Context) (*EinoPDFTextExtractor, error) {
	p, err := pdf.NewPDFParser(ctx, &pdf.Config{ToPages: false})
	if err != nil {
		return nil, fmt.Errorf("创建Eino PDF解析器失败: %w", err)
	}
	return &EinoPDFTextExtractor{
		parser: p,
		log:    logger.With("eino_extractor"),
	}, nil
}

// ExtractFromFile 从本地文件提取文本
func (e *EinoPDFTextExtractor) ExtractFromFile(ctx context.Context, filePath string) (string, map[string]interface{}, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", nil, fmt.Errorf("打开文档文件 %s 失败: %w", filePath, err)
	}
	defer file.Close()

	text, metadata, err := e.ExtractTextFromReader(ctx, file, filePath)
	if err != nil {
		return "", nil, err
	}
	metadata["source_file_path"] = filePath
	return text, metadata, nil
}

// ExtractTextFromBytes 从字节数组提取文本
func (e *EinoPDFTextExtractor) ExtractTextFromBytes(ctx context.Context, data []byte, uri string) (string, map[string]interface{}, error) {
	return e.ExtractTextFromReader(ctx, bytes.NewReader(data), uri)
}

// ExtractTextFromReader 从 io.Reader 提取文本
func (e *EinoPDFTextExtractor) ExtractTextFromReader(ctx context.Context, reader io.Reader, uri string) (string, map[string]interface{}, error) {
	startTime := time.Now()
	ctx, cancel := context.WithTimeout(ctx, einoParseTimeout)
	defer cancel()

	docs, err := e.parser.Parse(ctx, reader, einoParser.WithURI(uri))
	if err != nil {
		return "", nil, fmt.Errorf("eino解析文档 %s 失败: %w", uri, err)
	}
	if len(docs) == 0 {
		return "", nil, fmt.Errorf("eino解析文档 %s 无结果", uri)
	}

	var sb bytes.Buffer
	for i, doc := range docs {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(doc.Content)
	}
	text := sb.String()

	metadata := map[string]interface{}{
		"extraction_time":        time.Now().Format(time.RFC3339),
		"document_count":         len(docs),
		"text_length":            len(text),
		"processing_duration_ms": time.Since(startTime).Milliseconds(),
	}
	if docs[0].MetaData != nil {
		for k, v := range docs[0].MetaData {
			metadata[k] = v
		}
	}

	e.log.Debug().
		Str("uri", uri).
		Int("text_length", len(text)).
		Dur("duration", time.Since(startTime)).
		Msg("本地PDF文本提取完成")
	return text, metadata, nil
}
