package processor

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrdoc-go/internal/config"
	"hrdoc-go/internal/constants"
	"hrdoc-go/internal/types"
)

// MockTextExtractor 模拟文本提取器
type MockTextExtractor struct {
	text     string
	metadata map[string]interface{}
	err      error
}

func (m *MockTextExtractor) ExtractFromFile(ctx context.Context, filePath string) (string, map[string]interface{}, error) {
	return m.text, m.metadata, m.err
}

func (m *MockTextExtractor) ExtractTextFromReader(ctx context.Context, reader io.Reader, uri string) (string, map[string]interface{}, error) {
	return m.text, m.metadata, m.err
}

func (m *MockTextExtractor) ExtractTextFromBytes(ctx context.Context, data []byte, uri string) (string, map[string]interface{}, error) {
	return m.text, m.metadata, m.err
}

func newTestProcessor(t *testing.T) (*DocumentProcessor, *config.Config) {
	t.Helper()
	cfg, err := config.LoadConfig("")
	require.NoError(t, err)

	dp := &DocumentProcessor{
		TextExtractor: &MockTextExtractor{},
		Config: ComponentConfig{
			Logger: log.New(io.Discard, "", 0),
		},
	}
	require.NoError(t, dp.ensureAnalyzers(cfg))
	return dp, cfg
}

func TestAnalyzePayslipDocument(t *testing.T) {
	dp, _ := newTestProcessor(t)

	analysis, err := dp.analyzeDocument("march_salary_slip.pdf", `Salary Slip for March
Employee Name: John Smith
Designation: Software Engineer
Basic: 15000
HRA: 5000
Variable Pay: 3000
Net Pay: 23000`, "")
	require.NoError(t, err)

	assert.Equal(t, types.KindPayslip, analysis.kind)
	assert.True(t, analysis.classifierOK)
	assert.Equal(t, "John Smith", analysis.result.Field("employee_name").Value)
	assert.Equal(t, 23000.0, analysis.result.Field("net_pay").Number)
	require.NotNil(t, analysis.report)
	assert.Greater(t, analysis.report.ConfidenceScore, 0.0)
	assert.Nil(t, analysis.anonymized, "非简历文档不产出匿名化实体")
}

func TestAnalyzeDeclaredKindOverridesClassifier(t *testing.T) {
	dp, _ := newTestProcessor(t)

	// 内容是工资单，但上传方声明为证书，声明优先
	analysis, err := dp.analyzeDocument("slip.pdf", "Salary Slip\nBasic Pay: 15000\nNet Pay: 14000", string(types.KindCertificate))
	require.NoError(t, err)

	assert.Equal(t, types.KindCertificate, analysis.kind)
	assert.Equal(t, types.KindPayslip, analysis.detectedKind, "分类器判定仍然记录")
}

func TestAnalyzeResumeProducesEntitiesAndAnonymized(t *testing.T) {
	dp, _ := newTestProcessor(t)

	analysis, err := dp.analyzeDocument("resume.pdf", `Resume
John Smith
Email: john.smith@example.com
Phone: +91 9876543210

Education
B.Tech in Computer Science, IIT Delhi, 2015-2019

Experience
Software Engineer at Acme Corp, 2019-2022

Skills
Python, Java, SQL, Communication`, "")
	require.NoError(t, err)

	assert.Equal(t, types.KindResume, analysis.kind)
	require.NotNil(t, analysis.result.Resume)
	assert.Equal(t, "john.smith@example.com", analysis.result.Resume.PersonalInfo.Email)
	require.NotNil(t, analysis.anonymized)
	assert.NotEqual(t, "john.smith@example.com", analysis.anonymized.Entities.PersonalInfo.Email)
}

func TestAnalyzeUnclassifiableDocumentFails(t *testing.T) {
	dp, _ := newTestProcessor(t)

	_, err := dp.analyzeDocument("unknown.bin", "nothing recognizable in this text", "")
	assert.Error(t, err)

	_, err = dp.analyzeDocument("unknown.bin", "nothing recognizable in this text", "not_a_kind")
	assert.Error(t, err, "无效的声明类型不能兜底")
}

func TestFailureStatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		status string
	}{
		{NewDownloadError("uuid-1", "minio down"), constants.StatusTextExtractionFailed},
		{NewExtractError("uuid-2", "tika error"), constants.StatusTextExtractionFailed},
		{NewClassifyError("uuid-3", "no match"), constants.StatusClassificationFailed},
		{NewFieldExtractionError("uuid-4", "bank error"), constants.StatusFieldExtractionFailed},
		{NewDatabaseError("uuid-5", "deadlock"), constants.StatusUploadProcessingFailed},
		{errors.New("anything else"), constants.StatusUploadProcessingFailed},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.status, failureStatusFor(tc.err))
	}
}

func TestDocumentProcessErrorUnwrap(t *testing.T) {
	err := NewExtractError("uuid-1", "tika timeout")

	assert.True(t, errors.Is(err, ErrTextExtractionFailed))
	assert.False(t, errors.Is(err, ErrDocumentDownloadFailed))

	var procErr *DocumentProcessError
	require.True(t, errors.As(err, &procErr))
	assert.Equal(t, "uuid-1", procErr.SubmissionUUID)
	assert.Equal(t, "extract", procErr.Op)
	assert.Contains(t, err.Error(), "tika timeout")
}

func TestBasicInfoFromEntities(t *testing.T) {
	entities := &types.ResumeEntities{
		PersonalInfo: types.PersonalInfo{
			Name:     "Jane Doe",
			Email:    "jane@example.com",
			Phone:    "+91 9876543210",
			Location: "Bangalore",
		},
	}

	info := basicInfoFromEntities(entities)
	assert.Equal(t, "Jane Doe", info["name"])
	assert.Equal(t, "jane@example.com", info["email"])
	assert.Equal(t, "Bangalore", info["location"])

	// 无地址时不应出现空键
	info = basicInfoFromEntities(&types.ResumeEntities{})
	_, hasLocation := info["location"]
	assert.False(t, hasLocation)
}

func TestCreateProcessorRequiresExtractor(t *testing.T) {
	_, err := CreateProcessor(context.Background(), nil, nil)
	assert.Error(t, err)

	dp, err := CreateProcessor(context.Background(),
		[]ComponentOpt{WithcompTextextractor(&MockTextExtractor{})},
		[]SettingOpt{WithsetDebug(true)},
	)
	require.NoError(t, err)
	assert.True(t, dp.Config.Debug)
}
