package parser

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTempPDF 写入一个最小的测试文件，仅用于走通文件打开路径
func writeTempPDF(t *testing.T) (string, error) {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "doc-*.pdf")
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := f.WriteString("%PDF-1.5\nmock\n"); err != nil {
		return "", err
	}
	return f.Name(), nil
}

func TestNewEinoPDFTextExtractor(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	extractor, err := NewEinoPDFTextExtractor(ctx)
	require.NoError(t, err, "创建本地PDF提取器不应返回错误")
	require.NotNil(t, extractor)
	require.NotNil(t, extractor.parser, "内部parser不应为nil")
}

func TestEinoExtractFromNonExistentFile(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	extractor, err := NewEinoPDFTextExtractor(ctx)
	require.NoError(t, err)

	_, _, err = extractor.ExtractFromFile(ctx, "/path/to/missing-"+time.Now().Format("20060102150405")+".pdf")
	require.Error(t, err, "不存在的文件应返回错误")
	assert.Contains(t, err.Error(), "打开文档文件", "错误消息应指示文件打开失败")
}

func TestEinoExtractFromInvalidContent(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	extractor, err := NewEinoPDFTextExtractor(ctx)
	require.NoError(t, err)

	// 非法PDF内容的行为取决于底层库，但不应panic
	_, _, err = extractor.ExtractTextFromBytes(ctx, []byte("not a pdf"), "bad.pdf")
	if err != nil {
		t.Logf("非法内容返回错误: %v", err)
	}
}
