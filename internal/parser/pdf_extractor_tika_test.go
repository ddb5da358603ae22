package parser

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrdoc-go/internal/types"
)

// createMockTikaServer 模拟Tika服务器的/tika和/meta端点
func createMockTikaServer() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/tika":
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("Employee Name: John Smith\nNet Pay: 20000"))
		case "/meta":
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{
				"Content-Type": "application/pdf",
				"pdf:PDFVersion": "1.5",
				"dc:title": "payslip",
				"xmpTPg:NPages": 2,
				"X-TIKA:Parsed-By": "org.apache.tika.parser.DefaultParser"
			}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestNewTikaTextExtractor(t *testing.T) {
	extractor := NewTikaTextExtractor("http://localhost:9998")
	require.NotNil(t, extractor, "创建的提取器不应为nil")
	assert.Equal(t, "http://localhost:9998", extractor.ServerURL)
	assert.Equal(t, 60*time.Second, extractor.Client.Timeout, "默认超时应为60秒")
	assert.False(t, extractor.extractFullMetadata, "默认不提取完整元数据")
	assert.True(t, extractor.extractMinimalMetadata, "默认提取关键元数据")

	custom := NewTikaTextExtractor("http://localhost:9998",
		WithFullMetadata(true),
		WithMinimalMetadata(false),
		WithAnnotations(false),
		WithTimeout(30*time.Second),
	)
	assert.True(t, custom.extractFullMetadata)
	assert.False(t, custom.extractMinimalMetadata)
	assert.False(t, custom.extractAnnotations)
	assert.Equal(t, 30*time.Second, custom.Client.Timeout, "应使用自定义超时")
}

func TestTikaMetadataModes(t *testing.T) {
	server := createMockTikaServer()
	defer server.Close()

	ctx := context.Background()
	mockContent := []byte("%PDF-1.5\nmock\n")

	// 无元数据模式
	noMeta := NewTikaTextExtractor(server.URL, WithMinimalMetadata(false))
	text, meta, err := noMeta.ExtractTextFromBytes(ctx, mockContent, "payslip.pdf")
	require.NoError(t, err)
	assert.Contains(t, text, "Net Pay: 20000")
	assert.Contains(t, meta, "extraction_time")
	assert.NotContains(t, meta, "pdf:PDFVersion", "无元数据模式不应包含Tika元数据")

	// 关键元数据模式
	minMeta := NewTikaTextExtractor(server.URL, WithMinimalMetadata(true))
	_, meta, err = minMeta.ExtractTextFromBytes(ctx, mockContent, "payslip.pdf")
	require.NoError(t, err)
	assert.Contains(t, meta, "pdf:PDFVersion")
	assert.Contains(t, meta, "xmpTPg:NPages")
	assert.NotContains(t, meta, "X-TIKA:Parsed-By", "非关键元数据不应包含")

	// 完整元数据模式
	fullMeta := NewTikaTextExtractor(server.URL, WithFullMetadata(true))
	_, meta, err = fullMeta.ExtractTextFromBytes(ctx, mockContent, "payslip.pdf")
	require.NoError(t, err)
	assert.Contains(t, meta, "X-TIKA:Parsed-By", "完整模式应包含全部元数据")
}

func TestTikaExtractTextFromReader(t *testing.T) {
	server := createMockTikaServer()
	defer server.Close()

	extractor := NewTikaTextExtractor(server.URL)
	text, meta, err := extractor.ExtractTextFromReader(
		context.Background(), bytes.NewReader([]byte("%PDF-1.5\nmock\n")), "payslip.pdf")
	require.NoError(t, err, "从Reader提取文本不应返回错误")
	assert.Contains(t, text, "Employee Name: John Smith")
	assert.Equal(t, float64(2), meta["xmpTPg:NPages"], "页数元数据应正确")
}

func TestTikaUTF8HeadersSet(t *testing.T) {
	var captured http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/tika" {
			captured = r.Header.Clone()
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	extractor := NewTikaTextExtractor(server.URL, WithMinimalMetadata(false))
	_, _, err := extractor.ExtractTextFromBytes(context.Background(), []byte("%PDF-1.5\n"), "doc.pdf")
	require.NoError(t, err)

	require.NotNil(t, captured, "应捕获到请求头")
	assert.Equal(t, "text/plain; charset=utf-8", captured.Get("Accept"), "Accept头应要求UTF-8")
	assert.Equal(t, "utf-8", captured.Get("Accept-Charset"))
	assert.Equal(t, "doc.pdf", captured.Get("X-Tika-Resource-Name"))
}

func TestTikaServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	extractor := NewTikaTextExtractor(server.URL)
	_, _, err := extractor.ExtractTextFromBytes(context.Background(), []byte("%PDF-1.5\n"), "doc.pdf")
	require.Error(t, err, "服务器错误应导致提取失败")
	assert.Contains(t, err.Error(), "tika服务器返回错误状态码")
}

func TestAcquireDocumentRecordsFailure(t *testing.T) {
	extractor := NewTikaTextExtractor("http://localhost:1")

	doc := AcquireDocument(context.Background(), extractor, "/no/such/file.pdf", types.KindPayslip)
	require.NotNil(t, doc)
	assert.Equal(t, "/no/such/file.pdf", doc.SourcePath)
	assert.Equal(t, types.KindPayslip, doc.Kind)
	assert.True(t, doc.Failed(), "文件打开失败应记录为获取失败")
	assert.Empty(t, doc.RawText)
	assert.NotEmpty(t, doc.FailureReason, "失败原因不应为空")
}

func TestAcquireDocumentSuccess(t *testing.T) {
	server := createMockTikaServer()
	defer server.Close()

	tmp, err := writeTempPDF(t)
	require.NoError(t, err)

	extractor := NewTikaTextExtractor(server.URL, WithMinimalMetadata(false))
	doc := AcquireDocument(context.Background(), extractor, tmp, types.KindPayslip)
	assert.False(t, doc.Failed(), "获取成功不应带失败原因")
	assert.Contains(t, doc.RawText, "Net Pay: 20000")
}
