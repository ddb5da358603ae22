package parser

import (
	"regexp"
	"strconv"
	"strings"

	"hrdoc-go/internal/types"
)

// 工作证明信字段名
const (
	FieldJobTitle       = "job_title"
	FieldOrgName        = "org_name"
	FieldStartDate      = "start_date"
	FieldEndDate        = "end_date"
	FieldDurationYears  = "duration_years"
	FieldManagerName    = "manager_name"
	FieldManagerContact = "manager_contact"
	FieldDocumentDate   = "document_date"
)

// ISO日期输出格式
const isoDateLayout = "2006-01-02"

var (
	letterNameRe1 = regexp.MustCompile(`(?:(?i:certify\s+that)\s+|(?i:mr|ms|mrs)\.?\s+)([A-Z][a-z]+(?:\s+[A-Z][a-z]+)+)`)
	letterNameRe2 = regexp.MustCompile(`(?i:employee\s+name|name\s+of\s+employee|employee)[:\s]+([A-Z][a-z]+(?:\s+[A-Z][a-z]+)+)`)
	letterNameRe3 = regexp.MustCompile(`([A-Z][a-z]+\s+[A-Z][a-z]+)\s+(?i:was\s+employed|worked|has\s+been)`)

	letterTitleRe1 = regexp.MustCompile(`(?i)employed\s+(?:with\s+)?[A-Za-z &.,()0-9]+?\s+as\s+(?:a\s+)?([A-Za-z][A-Za-z \-/&]+?)\s+from`)
	letterTitleRe2 = regexp.MustCompile(`(?i)working\s+as\s+(?:a\s+)?([A-Za-z][A-Za-z \-/&]+?)\s+(?:with|at|from)`)
	letterTitleRe3 = regexp.MustCompile(`(?i)(?:position|title|designation|role)[\s:]+(?:a\s+)?([A-Za-z][A-Za-z \-/&]+?)(?:\s+(?:from|with|at|during)|[.,\n])`)
	letterTitleRe4 = regexp.MustCompile(`(?i)position\s+of\s+([A-Za-z][A-Za-z \-/&]+?)\s+(?:from|with|at)`)
	letterTitleRe5 = regexp.MustCompile(`(?i)(?:served|worked)\s+as\s+(?:a\s+)?([A-Za-z][A-Za-z \-/&]+?)\s+(?:from|with|at)`)

	letterOrgRe1 = regexp.MustCompile(`(?i)employed\s+(?:with|at|by)\s+([A-Za-z][A-Za-z &.,()0-9]+?)\s+(?:as|from|since|during)`)
	letterOrgRe2 = regexp.MustCompile(`(?i)working\s+(?:with|at|for)\s+([A-Za-z][A-Za-z &.,()0-9]+?)\s+(?:as|from|since)`)
	letterOrgRe3 = regexp.MustCompile(`(?i)(?:company|organization|employer)[\s:]+([A-Za-z][A-Za-z &.,()0-9]+?)(?:\s+(?:as|from)|[.\n])`)
	letterOrgRe4 = regexp.MustCompile(`(?i)([A-Za-z][A-Za-z &.,()0-9]+?)\s+(?:pvt\.?\s*ltd\.?|ltd\.?|inc\.?|corp\.?|llc|limited)`)

	letterManagerRe = regexp.MustCompile(`(?i:manager|supervisor|reporting\s+to|signed\s+by|approved\s+by|human\s+resources)[\s:]+([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*)`)

	emailRe       = regexp.MustCompile(`([\w.\-]+@[\w.\-]+\.\w+)`)
	windowPhoneRe = regexp.MustCompile(`(\+?\d[\d \-()]{8,14}\d)`)

	durationPhraseRe = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*years?`)
	fromToPhraseRe   = regexp.MustCompile(`(?i)from\s+[A-Za-z0-9 ,/.\-]+?\s+to\s+[A-Za-z0-9 ,/.\-]+`)
	sinceUntilRe     = regexp.MustCompile(`(?i)since\s+.+?\s+until`)

	orgArtifactRe = regexp.MustCompile(`[^\w &.,()\-]`)
)

// 证明信中不可能作为人名/机构名出现的模板词
var letterBannedWords = map[string]bool{
	"company": true, "organization": true, "employee": true,
	"name": true, "template": true, "sample": true,
	"experience": true, "letter": true, "example": true,
}

// 职位规范化用的常见职位表
var commonJobTitles = []string{
	"software engineer", "developer", "analyst", "manager", "director",
	"consultant", "specialist", "executive", "coordinator", "administrator",
	"qa engineer", "tester", "project manager", "team lead", "architect",
	"designer", "marketing manager", "sales executive", "hr manager",
	"finance manager", "accountant", "data scientist", "business analyst",
	"qa analyst", "quality analyst", "test engineer", "senior developer",
	"marketing executive", "software developer", "senior analyst",
	"operations engineer", "academic counselor", "system administrator",
}

// cleanPersonName 人名校验：至少两个词、长度合理、不含模板词。不合格返回空串。
func cleanPersonName(s string) string {
	s = strings.TrimSpace(s)
	parts := strings.Fields(s)
	if len(parts) < 2 || len(s) >= 50 {
		return ""
	}
	for _, w := range parts {
		if letterBannedWords[strings.ToLower(w)] {
			return ""
		}
	}
	return s
}

// canonicalizeJobTitle 将抽取的职位归一化到常见职位表。
// 先精确匹配，再尝试占比超过70%的包含匹配，都不中时保留原值。
func canonicalizeJobTitle(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	lower := strings.ToLower(s)
	if lower == "" || lower == "employed" || lower == "working" || lower == "position" || lower == "job" {
		return ""
	}

	for _, t := range commonJobTitles {
		if t == lower {
			return titleWords(t)
		}
	}
	for _, t := range commonJobTitles {
		if len(t) > 3 && strings.Contains(lower, t) {
			if float64(len(t))/float64(len(lower)) > 0.7 {
				return titleWords(t)
			}
		}
	}

	if len(s) > 2 && len(s) < 50 {
		return titleWords(lower)
	}
	return ""
}

// cleanOrgName 机构名清洗：折叠空白、去除乱码字符、过滤模板词
func cleanOrgName(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	s = orgArtifactRe.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	if len(s) <= 3 || len(s) >= 100 {
		return ""
	}
	lower := strings.ToLower(s)
	for w := range letterBannedWords {
		if strings.Contains(lower, w) {
			return ""
		}
	}
	return s
}

// NewExperienceLetterBank 构造工作证明信模式库。
// 日期字段由类型级日期上下文分类补全，时长由两端日期推导。
func NewExperienceLetterBank(opts ...BankOption) (*Bank, error) {
	fields := []FieldSpec{
		{
			Name: FieldEmployeeName, Required: true,
			Rules: []FieldRule{
				PatternRule{Pattern: letterNameRe1},
				PatternRule{Pattern: letterNameRe2},
				PatternRule{Pattern: letterNameRe3},
			},
			Clean: cleanPersonName,
		},
		{
			Name: FieldJobTitle, Required: true,
			Rules: []FieldRule{
				PatternRule{Pattern: letterTitleRe1},
				PatternRule{Pattern: letterTitleRe2},
				PatternRule{Pattern: letterTitleRe3},
				PatternRule{Pattern: letterTitleRe4},
				PatternRule{Pattern: letterTitleRe5},
			},
			Clean: canonicalizeJobTitle,
		},
		{
			Name: FieldOrgName, Required: true,
			Rules: []FieldRule{
				PatternRule{Pattern: letterOrgRe1},
				PatternRule{Pattern: letterOrgRe2},
				PatternRule{Pattern: letterOrgRe3},
				PatternRule{Pattern: letterOrgRe4},
			},
			Clean: cleanOrgName,
		},
		// 日期字段没有行级规则，由 letterDatePass 统一填充
		{Name: FieldStartDate, Required: true},
		{Name: FieldEndDate, Required: true},
		{
			Name: FieldDurationYears, Numeric: true,
			Rules: []FieldRule{PatternRule{Pattern: durationPhraseRe}},
		},
		{
			Name: FieldManagerName,
			Rules: []FieldRule{PatternRule{Pattern: letterManagerRe}},
			Clean: cleanPersonName,
		},
		{
			Name: FieldManagerContact,
			Rules: []FieldRule{
				PatternRule{Pattern: emailRe},
				KeywordWindowRule{
					Keywords: []string{"contact", "phone", "reach", "call"},
					Window:   80,
					Value:    windowPhoneRe,
				},
			},
		},
		{Name: FieldDocumentDate},
	}

	return NewBank(types.KindExperienceLetter, fields, []FallbackFunc{letterDatePass}, opts...)
}

// letterDatePass 证明信日期抽取：识别全部日期、按上下文分类后
// 填充签发日期和在职起止日期，最后推导在职时长。
func letterDatePass(fc *FallbackContext) {
	dates := extractDatesWithContext(fc.Text)
	if len(dates) == 0 {
		return
	}

	setDate := func(name string, d dateMatch, method types.ExtractionMethod) {
		fv := fc.Result.Fields[name]
		if fv == nil || fv.Resolved {
			return
		}
		fv.Value = d.Parsed.Format(isoDateLayout)
		fv.Method = method
		fv.Resolved = true
		fv.RawMatches = append(fv.RawMatches, d.Raw)
	}

	var employment []dateMatch
	for _, d := range dates {
		if d.Type == dateTypeDocument {
			setDate(FieldDocumentDate, d, types.MethodExplicitPattern)
			continue
		}
		employment = append(employment, d)
	}

	switch {
	case len(employment) >= 2:
		var starts, ends []dateMatch
		for _, d := range employment {
			switch d.Type {
			case dateTypeStart:
				starts = append(starts, d)
			case dateTypeEnd:
				ends = append(ends, d)
			}
		}
		if len(starts) > 0 && len(ends) > 0 {
			setDate(FieldStartDate, starts[0], types.MethodExplicitPattern)
			setDate(FieldEndDate, ends[0], types.MethodExplicitPattern)
		} else if fromToPhraseRe.MatchString(fc.Text) {
			// 上下文分类失败但存在 "from X to Y" 句式，按时间先后兜底
			earliest, latest := employment[0], employment[0]
			for _, d := range employment[1:] {
				if d.Parsed.Before(earliest.Parsed) {
					earliest = d
				}
				if d.Parsed.After(latest.Parsed) {
					latest = d
				}
			}
			setDate(FieldStartDate, earliest, types.MethodFallbackHeuristic)
			setDate(FieldEndDate, latest, types.MethodFallbackHeuristic)
		}

	case len(employment) == 1:
		d := employment[0]
		if d.Type == dateTypeStart || fromToPhraseRe.MatchString(fc.Text) || sinceUntilRe.MatchString(fc.Text) {
			setDate(FieldStartDate, d, types.MethodFallbackHeuristic)
		} else {
			setDate(FieldEndDate, d, types.MethodFallbackHeuristic)
		}
	}

	// 两端日期齐备时推导在职时长
	durFv := fc.Result.Fields[FieldDurationYears]
	startFv := fc.Result.Fields[FieldStartDate]
	endFv := fc.Result.Fields[FieldEndDate]
	if durFv != nil && !durFv.Resolved && startFv.Resolved && endFv.Resolved {
		start, okS := parseFlexibleDate(startFv.Value)
		end, okE := parseFlexibleDate(endFv.Value)
		if okS && okE && end.After(start) {
			years := durationYears(start, end)
			durFv.Value = strconv.FormatFloat(years, 'f', 2, 64)
			durFv.Number = years
			durFv.IsNumeric = true
			durFv.Method = types.MethodComputed
			durFv.Resolved = true
		}
	}
}
