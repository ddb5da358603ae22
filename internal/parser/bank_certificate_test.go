package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrdoc-go/internal/types"
)

func runCertificate(t *testing.T, text string) *types.FieldExtractionResult {
	t.Helper()
	bank, err := NewCertificateBank()
	require.NoError(t, err)
	normalized, signals := Normalize(text)
	return bank.Run(normalized, signals)
}

func TestCertificateDegreeDocument(t *testing.T) {
	result := runCertificate(t, `University of California
Bachelor of Science in Computer Science
CGPA: 8.6
Awarded June 2021`)

	assert.Contains(t, result.Field(FieldUniversity).Value, "University of California")
	assert.Contains(t, result.Field(FieldDegree).Value, "Bachelor of Science")
	assert.Equal(t, 8.6, result.Field(FieldGPA).Number)
	assert.Equal(t, "June 2021", result.Field(FieldGraduationDate).Value, "毕业日期应归一化为月份+年份")
}

func TestCertificateOnlineCourse(t *testing.T) {
	result := runCertificate(t, "This certifies that the learner has successfully completed " +
		"Introduction to Machine Learning, an online course authorized by Google and offered through Coursera. " +
		"Issued 15/07/2022. GPA 3.8")

	assert.Equal(t, "Google", result.Field(FieldUniversity).Value, "知名机构名应优先命中")
	assert.Contains(t, result.Field(FieldDegree).Value, "Introduction to Machine Learning")
	assert.Equal(t, 3.8, result.Field(FieldGPA).Number)
}

func TestCertificateGPAWindowFallback(t *testing.T) {
	// GPA标签和数值之间有干扰词，标签行正则不命中，窗口规则兜底
	result := runCertificate(t, "MIT Bombay\nMaster of Technology\nCGPA obtained\n9.1\nMay 2020")

	gpa := result.Field(FieldGPA)
	require.True(t, gpa.Resolved)
	assert.Equal(t, 9.1, gpa.Number)
}

func TestCertificateRawMatchesKeepAllCandidates(t *testing.T) {
	result := runCertificate(t, `Stanford University
in partnership with Meta
Certificate in Data Engineering
GPA: 3.9
March 2023`)

	univ := result.Field(FieldUniversity)
	require.True(t, univ.Resolved)
	assert.Equal(t, "Meta", univ.Value, "规则顺序决定胜出者")
	assert.Contains(t, univ.RawMatches, "Meta")
	assert.Contains(t, univ.RawMatches, "Stanford University", "落选候选仍保留在审计记录")
}

func TestCertificateAwardYearOnly(t *testing.T) {
	result := runCertificate(t, "Indian Institute University\nDiploma in Data Science\nCGPA: 7.5\nDegree conferred in the year 2019")

	assert.Equal(t, "2019", result.Field(FieldGraduationDate).Value, "只有年份时保留年份")
}

func TestCleanGraduationDate(t *testing.T) {
	assert.Equal(t, "June 2021", cleanGraduationDate("June 2021"))
	assert.Equal(t, "July 2022", cleanGraduationDate("15/07/2022"))
	assert.Equal(t, "2019", cleanGraduationDate("2019"))
}
