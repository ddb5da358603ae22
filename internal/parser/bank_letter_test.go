package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrdoc-go/internal/types"
)

func runLetter(t *testing.T, text string) *types.FieldExtractionResult {
	t.Helper()
	bank, err := NewExperienceLetterBank()
	require.NoError(t, err)
	normalized, signals := Normalize(text)
	return bank.Run(normalized, signals)
}

const sampleLetter = `Date: 15/03/2023

To Whom It May Concern

This is to certify that John Smith was employed with Acme Technologies Pvt Ltd as a Software Engineer from 01/06/2019 to 31/08/2022.

During his tenure he performed his duties satisfactorily.

Reporting To: Jane Wilson
For any queries please contact +91 98765 43210

Acme Technologies Pvt Ltd`

func TestLetterCoreFields(t *testing.T) {
	result := runLetter(t, sampleLetter)

	assert.Equal(t, "John Smith", result.Field(FieldEmployeeName).Value)
	assert.Equal(t, "Software Engineer", result.Field(FieldJobTitle).Value, "职位应归一化到常见职位表")
	assert.Contains(t, result.Field(FieldOrgName).Value, "Acme Technologies")
}

func TestLetterDateClassification(t *testing.T) {
	result := runLetter(t, sampleLetter)

	start := result.Field(FieldStartDate)
	require.True(t, start.Resolved)
	assert.Equal(t, "2019-06-01", start.Value, "日期应输出为ISO格式")
	assert.Equal(t, types.MethodExplicitPattern, start.Method, "上下文分类成功时按显式规则记账")

	end := result.Field(FieldEndDate)
	require.True(t, end.Resolved)
	assert.Equal(t, "2022-08-31", end.Value)

	doc := result.Field(FieldDocumentDate)
	require.True(t, doc.Resolved, "头部带date:前缀的日期是签发日期")
	assert.Equal(t, "2023-03-15", doc.Value)
}

func TestLetterDurationComputed(t *testing.T) {
	result := runLetter(t, sampleLetter)

	dur := result.Field(FieldDurationYears)
	require.True(t, dur.Resolved, "两端日期齐备时应推导在职时长")
	assert.InDelta(t, 3.25, dur.Number, 0.001)
	assert.Equal(t, types.MethodComputed, dur.Method)
}

func TestLetterManagerContact(t *testing.T) {
	result := runLetter(t, sampleLetter)

	assert.Equal(t, "Jane Wilson", result.Field(FieldManagerName).Value)
	contact := result.Field(FieldManagerContact)
	require.True(t, contact.Resolved, "contact关键字窗口内的电话应命中")
	assert.Contains(t, contact.Value, "98765")
}

func TestLetterExplicitDurationWins(t *testing.T) {
	result := runLetter(t, "This is to certify that Mary Jones worked as a Data Scientist with Beta Corp for 4 years.")

	dur := result.Field(FieldDurationYears)
	require.True(t, dur.Resolved)
	assert.Equal(t, 4.0, dur.Number, "文中明示的年数优先于日期推导")
	assert.Equal(t, types.MethodExplicitPattern, dur.Method)
}

func TestLetterChronologicalFallback(t *testing.T) {
	// 上下文关键字离日期太远时退化为时间先后排序
	result := runLetter(t, "To Whom It May Concern\n\nEmployee Name: Alice Brown\n" +
		"Employment period covered the dates below from start to finish.\n" +
		"15/06/2019\n20/08/2021")

	start := result.Field(FieldStartDate)
	end := result.Field(FieldEndDate)
	require.True(t, start.Resolved, "存在from-to句式时应按时间先后兜底")
	require.True(t, end.Resolved)
	assert.Equal(t, "2019-06-15", start.Value)
	assert.Equal(t, "2021-08-20", end.Value)
	assert.Equal(t, types.MethodFallbackHeuristic, start.Method)
}

func TestLetterSingleEndDate(t *testing.T) {
	result := runLetter(t, "This is to certify that Robert King was employed with Gamma Inc as a Consultant. " +
		"He was relieved on 31/12/2021 after completing his assignments in an excellent manner and with appreciation.")

	end := result.Field(FieldEndDate)
	require.True(t, end.Resolved, "只有一个离职上下文日期时填结束日期")
	assert.Equal(t, "2021-12-31", end.Value)
	assert.False(t, result.Field(FieldStartDate).Resolved)
	assert.False(t, result.Field(FieldDurationYears).Resolved, "缺少开始日期时不推导时长")
}

func TestCleanPersonName(t *testing.T) {
	assert.Equal(t, "John Smith", cleanPersonName(" John Smith "))
	assert.Equal(t, "", cleanPersonName("John"), "单个词不是有效人名")
	assert.Equal(t, "", cleanPersonName("Sample Template"), "模板词应被拒绝")
}

func TestCanonicalizeJobTitle(t *testing.T) {
	assert.Equal(t, "Software Engineer", canonicalizeJobTitle("software engineer"))
	assert.Equal(t, "Senior Developer", canonicalizeJobTitle("Senior  Developer"), "多余空白应折叠")
	assert.Equal(t, "", canonicalizeJobTitle("employed"), "模板残词应被拒绝")
	assert.Equal(t, "Zookeeper", canonicalizeJobTitle("Zookeeper"), "不在职位表中但形状合理的保留")
}

func TestCleanOrgName(t *testing.T) {
	assert.Equal(t, "Acme Technologies Pvt Ltd", cleanOrgName("Acme   Technologies Pvt Ltd"))
	assert.Equal(t, "", cleanOrgName("The Company"), "模板词应被拒绝")
	assert.Equal(t, "", cleanOrgName("ab"), "过短的残片应被拒绝")
}
