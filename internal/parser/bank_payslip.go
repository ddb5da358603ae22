package parser

import (
	"regexp"
	"strconv"
	"strings"

	"hrdoc-go/internal/types"
)

// 工资单字段名
const (
	FieldEmployeeName  = "employee_name"
	FieldEmployeeID    = "employee_id"
	FieldDesignation   = "designation"
	FieldBasic         = "basic"
	FieldHRA           = "hra"
	FieldVariablePay   = "variable_pay"
	FieldTotalEarnings = "total_earnings"
	FieldDeductions    = "deductions"
	FieldNetPay        = "net_pay"
)

// 兜底净工资的可信金额区间
const (
	netPayFallbackMin = 1000
	netPayFallbackMax = 500000
)

var (
	amountGroup = `(\d{1,6}(?:\.\d{2})?)`

	payslipBasicRe1 = regexp.MustCompile(`(?i)basic\s*(?:pay|salary)?\s*[:\-|]?\s*` + amountGroup)
	payslipBasicRe2 = regexp.MustCompile(`(?i)(?:basic\s*pay|basic\s*salary)\s*` + amountGroup)

	payslipHRARe1 = regexp.MustCompile(`(?i)(?:hra|house\s*rent\s*allowance)\s*[:\-|]?\s*` + amountGroup)
	payslipHRARe2 = regexp.MustCompile(`(?i)house\s*rent\s*allowance\s*` + amountGroup)

	payslipVariableRe1 = regexp.MustCompile(`(?i)(?:variable\s*pay|incentive(?:\s*pay)?|bonus|other\s*allowance)\s*[:\-|]?\s*` + amountGroup)
	payslipVariableRe2 = regexp.MustCompile(`(?i)(?:meal\s*allowance|transport\s*allowance|special\s*allowance)\s*[:\-|]?\s*` + amountGroup)

	payslipTotalRe = regexp.MustCompile(`(?i)(?:total\s*earnings?|gross\s*earnings?|gross\s*pay|total\s*pay)\s*[:\-|]?\s*` + amountGroup)

	payslipDeductionsRe = regexp.MustCompile(`(?i)total\s*deductions?\s*[:\-|]?\s*` + amountGroup)

	payslipNetPayRe1 = regexp.MustCompile(`(?i)net\s*pay[\s|:\-]*` + amountGroup)
	payslipNetPayRe2 = regexp.MustCompile(`(?i)(?:net\s*(?:salary|payable)|total\s*net\s*payable|employee\s*net\s*pay)\s*[:\-|]?\s*` + amountGroup)
	payslipNetPayRe3 = regexp.MustCompile(`(?i)(?:take\s*home|net\s*amount)\s*[:\-|]?\s*` + amountGroup)

	payslipNameRe1 = regexp.MustCompile(`(?i)(?:employee\s*name|name)\s*[:\-]?\s*([A-Za-z][A-Za-z ]{1,30})`)
	payslipIDRe    = regexp.MustCompile(`(?i)(?:employee\s*id|emp\s*id|id)\s*[:\-]?\s*(\w+)`)

	payslipDesignationRe1 = regexp.MustCompile(`(?i)designation\s*[:\-]?\s*([A-Za-z][A-Za-z ]{1,40})`)
	payslipDesignationRe2 = regexp.MustCompile(`(?i)(?:position|role|title)\s*[:\-]?\s*([A-Za-z][A-Za-z ]{1,40})`)

	// 身份类字段值里混入的表头词，截断清除
	trailingHeaderRe = regexp.MustCompile(`(?i)\s*(pf\s*no|employee|department|designation).*$`)

	standaloneAmountRe = regexp.MustCompile(`\b(\d{4,6}(?:\.\d{2})?)\b`)
)

// cleanIdentityValue 清洗身份类字段值：去掉串入的表头词、截断到首行。
// 纯数字说明正则吞到了金额列，视为无效候选。
func cleanIdentityValue(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	s = trailingHeaderRe.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	if isAllDigits(s) {
		return ""
	}
	return s
}

// NewPayslipBank 构造工资单模式库。
//
// 金额字段的推导关系（缺失时由已解析字段补全）：
//
//	total_earnings = basic + hra + variable_pay
//	deductions     = total_earnings - net_pay
//	net_pay        = total_earnings - deductions
func NewPayslipBank(opts ...BankOption) (*Bank, error) {
	fields := []FieldSpec{
		{
			Name: FieldEmployeeName, Required: true,
			Rules: []FieldRule{PatternRule{Pattern: payslipNameRe1}},
			Clean: cleanIdentityValue,
		},
		{
			Name: FieldEmployeeID,
			Rules: []FieldRule{PatternRule{Pattern: payslipIDRe}},
			Clean: cleanIdentityValue,
		},
		{
			Name: FieldDesignation, Required: true,
			Rules: []FieldRule{
				PatternRule{Pattern: payslipDesignationRe1},
				PatternRule{Pattern: payslipDesignationRe2},
			},
			Clean: cleanIdentityValue,
		},
		{
			Name: FieldBasic, Required: true, Numeric: true,
			Rules: []FieldRule{
				PatternRule{Pattern: payslipBasicRe1},
				PatternRule{Pattern: payslipBasicRe2},
			},
		},
		{
			Name: FieldHRA, Required: true, Numeric: true,
			Rules: []FieldRule{
				PatternRule{Pattern: payslipHRARe1},
				PatternRule{Pattern: payslipHRARe2},
			},
		},
		{
			Name: FieldVariablePay, Required: true, Numeric: true,
			Rules: []FieldRule{
				PatternRule{Pattern: payslipVariableRe1},
				PatternRule{Pattern: payslipVariableRe2},
			},
		},
		{
			Name: FieldTotalEarnings, Required: true, Numeric: true,
			Rules: []FieldRule{
				PatternRule{Pattern: payslipTotalRe},
				ComputedRule{
					Inputs: []string{FieldBasic, FieldHRA, FieldVariablePay},
					Compute: func(in map[string]float64) float64 {
						return in[FieldBasic] + in[FieldHRA] + in[FieldVariablePay]
					},
				},
			},
		},
		{
			Name: FieldDeductions, Numeric: true,
			Rules: []FieldRule{
				PatternRule{Pattern: payslipDeductionsRe},
				ComputedRule{
					Inputs: []string{FieldTotalEarnings, FieldNetPay},
					Compute: func(in map[string]float64) float64 {
						return in[FieldTotalEarnings] - in[FieldNetPay]
					},
				},
			},
		},
		{
			Name: FieldNetPay, Required: true, Numeric: true,
			Rules: []FieldRule{
				// 工资单上净工资常多次出现，最终金额在末尾
				PatternRule{Pattern: payslipNetPayRe1, PickLast: true},
				PatternRule{Pattern: payslipNetPayRe2},
				PatternRule{Pattern: payslipNetPayRe3},
				ComputedRule{
					Inputs: []string{FieldTotalEarnings, FieldDeductions},
					Compute: func(in map[string]float64) float64 {
						return in[FieldTotalEarnings] - in[FieldDeductions]
					},
				},
			},
		},
	}

	return NewBank(types.KindPayslip, fields, []FallbackFunc{netPayTailFallback}, opts...)
}

// netPayTailFallback 净工资兜底：从文档末尾向上扫描若干行，
// 取每行最后一个独立出现的4-6位金额，落在可信区间内即采纳。
func netPayTailFallback(fc *FallbackContext) {
	fv, ok := fc.Result.Fields[FieldNetPay]
	if !ok || fv.Resolved {
		return
	}

	start := len(fc.Lines) - fc.ScanLines
	if start < 0 {
		start = 0
	}
	for i := len(fc.Lines) - 1; i >= start; i-- {
		matches := standaloneAmountRe.FindAllStringSubmatch(fc.Lines[i], -1)
		if len(matches) == 0 {
			continue
		}
		raw := matches[len(matches)-1][1]
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			continue
		}
		if value >= netPayFallbackMin && value <= netPayFallbackMax {
			fc.SetFallback(FieldNetPay, raw, value, true)
			return
		}
	}
}
