package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrdoc-go/internal/types"
)

func runPayslip(t *testing.T, text string) *types.FieldExtractionResult {
	t.Helper()
	bank, err := NewPayslipBank()
	require.NoError(t, err)
	normalized, signals := Normalize(text)
	return bank.Run(normalized, signals)
}

func TestPayslipExplicitAndComputedFields(t *testing.T) {
	// 没有显式总收入时由明细推导，净工资为显式命中
	result := runPayslip(t, `Employee Name: John Smith
Designation: Software Engineer
Basic: 15000
HRA: 5000
Variable Pay: 3000
Net Pay: 20000`)

	assert.Equal(t, "John Smith", result.Field(FieldEmployeeName).Value)
	assert.Equal(t, "Software Engineer", result.Field(FieldDesignation).Value)
	assert.Equal(t, 15000.0, result.Field(FieldBasic).Number)
	assert.Equal(t, 5000.0, result.Field(FieldHRA).Number)
	assert.Equal(t, 3000.0, result.Field(FieldVariablePay).Number)

	total := result.Field(FieldTotalEarnings)
	require.True(t, total.Resolved, "总收入应由明细推导")
	assert.Equal(t, 23000.0, total.Number)
	assert.Equal(t, types.MethodComputed, total.Method)

	net := result.Field(FieldNetPay)
	require.True(t, net.Resolved)
	assert.Equal(t, 20000.0, net.Number)
	assert.Equal(t, types.MethodExplicitPattern, net.Method, "净工资应为显式命中")
}

func TestPayslipCurrencyAndThousands(t *testing.T) {
	result := runPayslip(t, "Basic Pay: ₹15,000\nHRA: ₹5,000\nIncentive: ₹3,000\nTotal Earnings: ₹23,000\nNet Pay: ₹20,000")

	assert.True(t, result.Signals.CurrencyDetected, "归一化信号应透传到结果")
	assert.Equal(t, 15000.0, result.Field(FieldBasic).Number)
	assert.Equal(t, 23000.0, result.Field(FieldTotalEarnings).Number)
	assert.Equal(t, types.MethodExplicitPattern, result.Field(FieldTotalEarnings).Method, "显式总收入优先于推导")
}

func TestPayslipNetPayPickLast(t *testing.T) {
	// 表格型工资单净工资出现两次，最终金额在末尾
	result := runPayslip(t, "Net Pay 18000\nsome breakdown\nNet Pay 20000")

	net := result.Field(FieldNetPay)
	assert.Equal(t, 20000.0, net.Number, "净工资应取最后一次命中")
	assert.ElementsMatch(t, []string{"18000", "20000"}, net.RawMatches)
}

func TestPayslipNetPayTailFallback(t *testing.T) {
	result := runPayslip(t, `Employee Name: Jane Doe
Designation: Analyst
Basic: 12000
HRA: 4000
Bonus: 2000
summary section
18000`)

	net := result.Field(FieldNetPay)
	require.True(t, net.Resolved, "末行独立金额应被兜底采纳")
	assert.Equal(t, 18000.0, net.Number)
	assert.Equal(t, types.MethodFallbackHeuristic, net.Method)
}

func TestPayslipTailFallbackRejectsImplausibleAmounts(t *testing.T) {
	result := runPayslip(t, "Designation: Analyst\npage 3\n999")

	net := result.Field(FieldNetPay)
	assert.False(t, net.Resolved, "低于可信区间的末尾数字不应被采纳")
}

func TestPayslipDeductionsComputedFromExplicitValues(t *testing.T) {
	// 总收入与净工资都是显式值时，缺失的扣减额可推导
	result := runPayslip(t, "Total Earnings: 23000\nNet Pay: 20000")

	ded := result.Field(FieldDeductions)
	require.True(t, ded.Resolved)
	assert.Equal(t, 3000.0, ded.Number)
	assert.Equal(t, types.MethodComputed, ded.Method)
}

func TestPayslipIdentityCleanRejectsDigits(t *testing.T) {
	// 正则吞到金额列时身份字段应拒绝纯数字候选
	assert.Equal(t, "", cleanIdentityValue("12345"))
	assert.Equal(t, "John Smith", cleanIdentityValue("John Smith  PF No 888"), "串入的表头词应截断")
}

func TestPayslipEmployeeID(t *testing.T) {
	result := runPayslip(t, "Employee ID: EMP042\nDesignation: Tester")
	assert.Equal(t, "EMP042", result.Field(FieldEmployeeID).Value)
}
