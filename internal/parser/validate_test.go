package parser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrdoc-go/internal/config"
	"hrdoc-go/internal/types"
)

func testExtractionConfig() config.ExtractionConfig {
	return config.ExtractionConfig{
		EarningsToleranceAbs: 1.0,
		GPAConvention:        "10",
		ShortlistThreshold:   70,
		FallbackScanLines:    5,
		StartDateMaxAgeYears: 50,
	}
}

// resultWith 手工构造抽取结果，字段值全部按显式命中记账
func resultWith(kind types.DocumentKind, fields map[string]*types.FieldValue) *types.FieldExtractionResult {
	result := &types.FieldExtractionResult{
		Kind:   kind,
		Fields: fields,
	}
	for name := range fields {
		result.Order = append(result.Order, name)
	}
	return result
}

func textField(v string) *types.FieldValue {
	return &types.FieldValue{Value: v, Method: types.MethodExplicitPattern, Resolved: true}
}

func numField(v float64) *types.FieldValue {
	return &types.FieldValue{Number: v, IsNumeric: true, Method: types.MethodExplicitPattern, Resolved: true}
}

func unresolvedField() *types.FieldValue {
	return &types.FieldValue{Method: types.MethodUnresolved}
}

func TestValidatePayslipAllValid(t *testing.T) {
	bank, err := NewPayslipBank()
	require.NoError(t, err)

	normalized, signals := Normalize(`Employee Name: John Smith
Designation: Software Engineer
Basic: 15000
HRA: 5000
Variable Pay: 3000
Net Pay: 20000`)
	result := bank.Run(normalized, signals)

	v := NewValidator(testExtractionConfig())
	report := v.Validate(result, bank.RequiredFields())

	assert.True(t, report.LogicalChecks[CheckEarningsItemized], "明细之和应与推导总收入一致")
	assert.True(t, report.LogicalChecks[CheckNetWithinTotal])
	assert.True(t, report.LogicalChecks[CheckEmploymentProof])
	assert.Equal(t, 100.0, report.ConfidenceScore, "全部必备字段有效且校验通过时置信度为100")
	assert.Empty(t, report.Anomalies)
}

func TestValidatePayslipNothingResolved(t *testing.T) {
	bank, err := NewPayslipBank()
	require.NoError(t, err)
	result := bank.Run("completely unrelated text", types.NormalizeSignals{})

	v := NewValidator(testExtractionConfig())
	report := v.Validate(result, bank.RequiredFields())

	assert.Equal(t, 0.0, report.ConfidenceScore, "什么都没解析出来时置信度为0")
	assert.NotEmpty(t, report.Anomalies)
}

func TestValidatePayslipEarningsMismatch(t *testing.T) {
	result := resultWith(types.KindPayslip, map[string]*types.FieldValue{
		FieldEmployeeName:  textField("John Smith"),
		FieldDesignation:   textField("Engineer"),
		FieldBasic:         numField(15000),
		FieldHRA:           numField(5000),
		FieldVariablePay:   numField(3000),
		FieldTotalEarnings: numField(30000),
		FieldNetPay:        numField(20000),
		FieldEmployeeID:    unresolvedField(),
		FieldDeductions:    unresolvedField(),
	})

	v := NewValidator(testExtractionConfig())
	report := v.Validate(result, []string{
		FieldEmployeeName, FieldDesignation, FieldBasic, FieldHRA,
		FieldVariablePay, FieldTotalEarnings, FieldNetPay,
	})

	assert.False(t, report.LogicalChecks[CheckEarningsItemized], "23000与30000超出容差应判失败")
	assert.True(t, report.LogicalChecks[CheckNetWithinTotal])
	// 7个必备字段全有效 + 3项校验通过2项
	assert.InDelta(t, 90.0, report.ConfidenceScore, 0.01)

	found := false
	for _, a := range report.Anomalies {
		if a.Type == CheckEarningsItemized+"_failed" {
			found = true
		}
	}
	assert.True(t, found, "失败的校验应有对应异常记录")
}

func TestValidatePayslipWithinTolerance(t *testing.T) {
	result := resultWith(types.KindPayslip, map[string]*types.FieldValue{
		FieldEmployeeName:  textField("Jane Doe"),
		FieldDesignation:   textField("Analyst"),
		FieldBasic:         numField(15000),
		FieldHRA:           numField(5000),
		FieldVariablePay:   numField(3000),
		FieldTotalEarnings: numField(23000.5),
		FieldNetPay:        numField(20000),
	})

	v := NewValidator(testExtractionConfig())
	report := v.Validate(result, nil)
	assert.True(t, report.LogicalChecks[CheckEarningsItemized], "0.5的偏差在1.0容差内")
}

func TestValidateLetterDatesLogical(t *testing.T) {
	mk := func(start, end string) *types.FieldExtractionResult {
		return resultWith(types.KindExperienceLetter, map[string]*types.FieldValue{
			FieldEmployeeName: textField("John Smith"),
			FieldJobTitle:     textField("Engineer"),
			FieldOrgName:      textField("Acme Ltd"),
			FieldStartDate:    textField(start),
			FieldEndDate:      textField(end),
		})
	}
	v := NewValidator(testExtractionConfig())
	v.now = func() time.Time { return time.Date(2023, 3, 15, 0, 0, 0, 0, time.UTC) }

	report := v.Validate(mk("2019-06-01", "2022-08-31"), nil)
	assert.True(t, report.LogicalChecks[CheckDatesLogical])
	assert.True(t, report.LogicalChecks[CheckDatesPlausible])
	assert.Empty(t, report.Anomalies)

	// 起止倒置
	report = v.Validate(mk("2022-08-31", "2019-06-01"), nil)
	assert.False(t, report.LogicalChecks[CheckDatesLogical], "开始晚于结束必须判失败")
	found := false
	for _, a := range report.Anomalies {
		if a.Type == CheckDatesLogical+"_failed" {
			found = true
		}
	}
	assert.True(t, found)

	// 未来的开始日期
	report = v.Validate(mk("2030-01-01", "2031-01-01"), nil)
	assert.False(t, report.LogicalChecks[CheckDatesPlausible])
	foundFuture := false
	for _, a := range report.Anomalies {
		if a.Type == "start_date_in_future" {
			foundFuture = true
		}
	}
	assert.True(t, foundFuture, "未来开始日期应记异常")

	// 过于久远的开始日期
	report = v.Validate(mk("1960-01-01", "1990-01-01"), nil)
	assert.False(t, report.LogicalChecks[CheckDatesPlausible])
}

func TestValidateCertificateGPABounds(t *testing.T) {
	mk := func(gpa float64) *types.FieldExtractionResult {
		return resultWith(types.KindCertificate, map[string]*types.FieldValue{
			FieldUniversity:     textField("University of California"),
			FieldDegree:         textField("Bachelor of Science"),
			FieldGPA:            numField(gpa),
			FieldGraduationDate: textField("June 2021"),
		})
	}
	v := NewValidator(testExtractionConfig())

	report := v.Validate(mk(8.6), nil)
	assert.True(t, report.LogicalChecks[CheckGPAWithinBounds])

	report = v.Validate(mk(11.2), nil)
	assert.False(t, report.LogicalChecks[CheckGPAWithinBounds], "超过10分制上限应判失败")
	assert.NotEmpty(t, report.Anomalies, "越界GPA记异常但不中断")

	// 4分制约定下8.6越界
	cfg := testExtractionConfig()
	cfg.GPAConvention = "4"
	report = NewValidator(cfg).Validate(mk(8.6), nil)
	assert.False(t, report.LogicalChecks[CheckGPAWithinBounds])
}

func TestValidateResumeChecks(t *testing.T) {
	v := NewValidator(testExtractionConfig())

	result := resultWith(types.KindResume, map[string]*types.FieldValue{
		FieldName:  textField("John Smith"),
		FieldEmail: textField("john@example.com"),
		FieldPhone: unresolvedField(),
	})
	result.Resume = &types.ResumeEntities{
		Experience: []types.ExperienceEntry{{Company: "Acme", Dates: "2019 - 2021"}},
	}
	report := v.Validate(result, []string{FieldName, FieldEmail, FieldPhone})
	assert.True(t, report.LogicalChecks[CheckContactPresent], "有邮箱即视为联系方式齐备")
	assert.True(t, report.LogicalChecks[CheckExpDatesLogical])

	// 没有任何联系方式
	result = resultWith(types.KindResume, map[string]*types.FieldValue{
		FieldName:  textField("John Smith"),
		FieldEmail: unresolvedField(),
		FieldPhone: unresolvedField(),
	})
	report = v.Validate(result, nil)
	assert.False(t, report.LogicalChecks[CheckContactPresent])

	// 经历时间区间倒置
	result = resultWith(types.KindResume, map[string]*types.FieldValue{
		FieldEmail: textField("a@b.com"),
		FieldPhone: unresolvedField(),
	})
	result.Resume = &types.ResumeEntities{
		Experience: []types.ExperienceEntry{{Company: "Acme", Dates: "2021 - 2019"}},
	}
	report = v.Validate(result, nil)
	assert.False(t, report.LogicalChecks[CheckExpDatesLogical], "倒置的经历区间应判失败")
}

func TestValidateFieldShapes(t *testing.T) {
	assert.False(t, fieldShapeValid(FieldEmail, textField("not-an-email")), "邮箱形状校验应拒绝非法值")
	assert.True(t, fieldShapeValid(FieldEmail, textField("a@b.com")))
	assert.False(t, fieldShapeValid(FieldPhone, textField("12345")), "电话至少要有10位数字")
	assert.True(t, fieldShapeValid(FieldPhone, textField("+91 98765 43210")))
	assert.False(t, fieldShapeValid(FieldStartDate, textField("gibberish")))
	assert.True(t, fieldShapeValid(FieldStartDate, textField("2019-06-01")))
	assert.False(t, fieldShapeValid(FieldBasic, unresolvedField()), "未解析字段永远无效")
}
