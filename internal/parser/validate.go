package parser

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"hrdoc-go/internal/config"
	"hrdoc-go/internal/types"
)

// 逻辑校验名，按文档类型固定
const (
	CheckEarningsItemized = "earnings_itemized_total"
	CheckNetWithinTotal   = "net_within_total"
	CheckEmploymentProof  = "employment_proof"
	CheckDatesLogical     = "dates_logical"
	CheckDatesPlausible   = "dates_plausible"
	CheckGPAWithinBounds  = "gpa_within_bounds"
	CheckContactPresent   = "contact_present"
	CheckExpDatesLogical  = "experience_dates_logical"
)

var yearRangeRe = regexp.MustCompile(`((?:19|20)\d{2})\s*[-–]\s*((?:19|20)\d{2}|Present)`)

// Validator 对字段抽取结果做形状校验、逻辑校验并推导置信度。
// 校验永不中断处理，所有问题都以异常记录的形式落在报告中。
type Validator struct {
	cfg config.ExtractionConfig
	now func() time.Time
}

// NewValidator 构造校验器，容差、GPA约定等参数来自配置
func NewValidator(cfg config.ExtractionConfig) *Validator {
	return &Validator{cfg: cfg, now: time.Now}
}

// Validate 产出校验报告。required 为该文档类型的必备字段集，
// 置信度 = 100 × (有效必备字段数 + 通过的逻辑校验数) / (必备字段总数 + 逻辑校验总数)，
// 对同一输入完全确定。
func (v *Validator) Validate(result *types.FieldExtractionResult, required []string) *types.ValidationReport {
	report := &types.ValidationReport{
		PerFieldValidity: make(map[string]bool, len(result.Order)),
		LogicalChecks:    make(map[string]bool),
		Anomalies:        []types.Anomaly{},
	}

	for _, name := range result.Order {
		report.PerFieldValidity[name] = fieldShapeValid(name, result.Field(name))
	}

	var missing []string
	validRequired := 0
	for _, name := range required {
		if report.PerFieldValidity[name] {
			validRequired++
		} else {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		report.Anomalies = append(report.Anomalies, types.Anomaly{
			Type:        "missing_required_fields",
			Description: "必备字段缺失或无效: " + strings.Join(missing, ", "),
		})
	}

	switch result.Kind {
	case types.KindPayslip:
		v.checkPayslip(result, report)
	case types.KindExperienceLetter:
		v.checkLetter(result, report)
	case types.KindCertificate:
		v.checkCertificate(result, report)
	case types.KindResume:
		v.checkResume(result, report)
	}

	passed := 0
	for _, ok := range report.LogicalChecks {
		if ok {
			passed++
		}
	}
	denom := len(required) + len(report.LogicalChecks)
	if denom > 0 {
		score := 100 * float64(validRequired+passed) / float64(denom)
		report.ConfidenceScore = math.Round(score*100) / 100
	}

	return report
}

// fieldShapeValid 按字段名选择形状校验
func fieldShapeValid(name string, fv *types.FieldValue) bool {
	if !fv.Resolved {
		return false
	}
	switch name {
	case FieldEmail:
		return emailRe.MatchString(fv.Value)
	case FieldPhone:
		return countDigits(fv.Value) >= 10
	case FieldStartDate, FieldEndDate, FieldDocumentDate:
		_, ok := parseFlexibleDate(fv.Value)
		return ok
	default:
		if fv.IsNumeric {
			return fv.Number > 0
		}
		return len(strings.TrimSpace(fv.Value)) > 1
	}
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}

// checkPayslip 金额核对与在职证明有效性
func (v *Validator) checkPayslip(result *types.FieldExtractionResult, report *types.ValidationReport) {
	tol := v.cfg.EarningsToleranceAbs

	basic, okB := result.NumberOf(FieldBasic)
	hra, okH := result.NumberOf(FieldHRA)
	vp, okV := result.NumberOf(FieldVariablePay)
	total, okT := result.NumberOf(FieldTotalEarnings)
	net, okN := result.NumberOf(FieldNetPay)

	itemizedOK := okB && okH && okV && okT && math.Abs(basic+hra+vp-total) <= tol
	report.LogicalChecks[CheckEarningsItemized] = itemizedOK
	if !itemizedOK {
		report.Anomalies = append(report.Anomalies, types.Anomaly{
			Type:        CheckEarningsItemized + "_failed",
			Description: "明细金额之和与总收入不一致或缺失",
		})
	}

	netOK := okT && okN && net <= total+tol
	report.LogicalChecks[CheckNetWithinTotal] = netOK
	if !netOK {
		report.Anomalies = append(report.Anomalies, types.Anomaly{
			Type:        CheckNetWithinTotal + "_failed",
			Description: "净工资超过总收入或金额缺失",
		})
	}

	// 在职证明有效性：姓名或工号至少其一可用
	proofOK := result.Field(FieldEmployeeName).Resolved || result.Field(FieldEmployeeID).Resolved
	report.LogicalChecks[CheckEmploymentProof] = proofOK
	if !proofOK {
		report.Anomalies = append(report.Anomalies, types.Anomaly{
			Type:        CheckEmploymentProof + "_failed",
			Description: "既无员工姓名也无工号，无法作为在职证明",
		})
	}
}

// checkLetter 在职起止日期的逻辑与合理性
func (v *Validator) checkLetter(result *types.FieldExtractionResult, report *types.ValidationReport) {
	start, okS := parseFieldDate(result, FieldStartDate)
	end, okE := parseFieldDate(result, FieldEndDate)

	logicalOK := okS && okE && start.Before(end)
	report.LogicalChecks[CheckDatesLogical] = logicalOK
	if !logicalOK {
		report.Anomalies = append(report.Anomalies, types.Anomaly{
			Type:        CheckDatesLogical + "_failed",
			Description: "结束日期应晚于开始日期",
		})
	}

	plausibleOK := true
	if okS {
		now := v.now()
		if start.After(now) {
			plausibleOK = false
			report.Anomalies = append(report.Anomalies, types.Anomaly{
				Type:        "start_date_in_future",
				Description: "开始日期在未来",
			})
		}
		maxAge := time.Duration(v.cfg.StartDateMaxAgeYears) * 365 * 24 * time.Hour
		if v.cfg.StartDateMaxAgeYears > 0 && now.Sub(start) > maxAge {
			plausibleOK = false
			report.Anomalies = append(report.Anomalies, types.Anomaly{
				Type:        "start_date_too_old",
				Description: fmt.Sprintf("开始日期距今超过%d年", v.cfg.StartDateMaxAgeYears),
			})
		}
	} else {
		plausibleOK = false
	}
	report.LogicalChecks[CheckDatesPlausible] = plausibleOK
}

// checkCertificate GPA取值区间，越界只记异常不阻断
func (v *Validator) checkCertificate(result *types.FieldExtractionResult, report *types.ValidationReport) {
	upper := v.cfg.GPAUpperBound()
	gpa, ok := result.NumberOf(FieldGPA)

	boundsOK := ok && gpa > 0 && gpa <= upper
	report.LogicalChecks[CheckGPAWithinBounds] = boundsOK
	if ok && !boundsOK {
		report.Anomalies = append(report.Anomalies, types.Anomaly{
			Type:        CheckGPAWithinBounds + "_failed",
			Description: fmt.Sprintf("GPA %.2f 超出约定区间 (0, %.0f]", gpa, upper),
		})
	}
}

// checkResume 联系方式齐备性与经历时间线
func (v *Validator) checkResume(result *types.FieldExtractionResult, report *types.ValidationReport) {
	contactOK := result.Field(FieldEmail).Resolved || result.Field(FieldPhone).Resolved
	report.LogicalChecks[CheckContactPresent] = contactOK
	if !contactOK {
		report.Anomalies = append(report.Anomalies, types.Anomaly{
			Type:        CheckContactPresent + "_failed",
			Description: "邮箱和电话均未抽取到",
		})
	}

	// 经历条目的年份区间必须起不晚于止；没有可解析区间时视为通过
	datesOK := true
	if result.Resume != nil {
		for _, exp := range result.Resume.Experience {
			m := yearRangeRe.FindStringSubmatch(exp.Dates)
			if m == nil || m[2] == "Present" {
				continue
			}
			if m[1] > m[2] {
				datesOK = false
				report.Anomalies = append(report.Anomalies, types.Anomaly{
					Type:        CheckExpDatesLogical + "_failed",
					Description: "经历时间区间倒置: " + exp.Dates,
				})
			}
		}
	}
	report.LogicalChecks[CheckExpDatesLogical] = datesOK
}

func parseFieldDate(result *types.FieldExtractionResult, name string) (time.Time, bool) {
	fv := result.Field(name)
	if !fv.Resolved {
		return time.Time{}, false
	}
	return parseFlexibleDate(fv.Value)
}
