package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrdoc-go/internal/types"
)

func TestClassifyPayslipByContent(t *testing.T) {
	text := "Salary Slip for March\nBasic Pay: 15000\nHRA: 5000\nDeductions: 2000\nNet Pay: 18000"

	cls, ok := ClassifyDocument("document.pdf", text)
	require.True(t, ok)
	assert.Equal(t, types.KindPayslip, cls.Kind)
	assert.GreaterOrEqual(t, cls.Confidence, 0.5)
}

func TestClassifyLetterByContent(t *testing.T) {
	text := "To Whom It May Concern\nThis is to certify that John Smith was employed with us.\nDate of joining: 01/06/2019"

	cls, ok := ClassifyDocument("scan.pdf", text)
	require.True(t, ok)
	assert.Equal(t, types.KindExperienceLetter, cls.Kind)
}

func TestClassifyByFilenameBonus(t *testing.T) {
	// 内容毫无指示词，仅靠文件名达到最低分
	cls, ok := ClassifyDocument("john_payslip_jan.pdf", "some unrelated content")
	require.True(t, ok)
	assert.Equal(t, types.KindPayslip, cls.Kind)
	assert.InDelta(t, 0.65, cls.Confidence, 0.001)
}

func TestClassifyInsufficientEvidence(t *testing.T) {
	_, ok := ClassifyDocument("unknown.pdf", "nothing recognizable in this text")
	assert.False(t, ok, "得分不足时不应强行判定类型")
}

func TestClassifyConfidenceCapped(t *testing.T) {
	text := "Resume\nCurriculum Vitae\nObjective\nSummary\nEducation\nExperience\nSkills\nProjects\nReferences"

	cls, ok := ClassifyDocument("resume_cv.pdf", text)
	require.True(t, ok)
	assert.Equal(t, types.KindResume, cls.Kind)
	assert.Equal(t, 0.95, cls.Confidence, "置信度封顶0.95")
}
