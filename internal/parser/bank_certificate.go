package parser

import (
	"regexp"
	"strings"

	"hrdoc-go/internal/types"
)

// 证书字段名
const (
	FieldUniversity     = "university"
	FieldDegree         = "degree"
	FieldGPA            = "gpa"
	FieldGraduationDate = "graduation_date"
)

var (
	certProviderRe = regexp.MustCompile(`(?i)(?:authorized by|offered by|in partnership with)\s+([A-Za-z ,.\-]+?)(?:\s+and offered through|\s+through|\n|$)`)
	certBigOrgRe   = regexp.MustCompile(`\b(Meta|Google|IBM|Microsoft|Amazon|Facebook|Apple|Netflix|Tesla)\b`)
	certUnivOfRe   = regexp.MustCompile(`(?i)\b(University\s+of\s+[A-Za-z .\-]+?)(?:[,\n]|$)`)
	certUnivSufRe  = regexp.MustCompile(`(?i)\b([A-Z][A-Za-z .\-]+?\s+(?:University|College|Institute of Technology|Institute|Universität|Universidad|Université))\b`)
	certTechInstRe = regexp.MustCompile(`\b((?:IIT|MIT|NIT)\s+[A-Za-z]+)\b`)

	certCompletionRe = regexp.MustCompile(`(?i)(?:has successfully completed|completed)\s+(?:the\s+)?([A-Za-z ,.\-]+?)(?:\s+an online|\s+course|\s+program|\n|$)`)
	certDegreeRe     = regexp.MustCompile(`(?i)\b((?:Bachelor|Master|Doctor)\s+of\s+[A-Za-z .]+?)(?:[,\n(]|$)`)
	certPhDRe        = regexp.MustCompile(`(?i)\b(Ph\.?D\.?(?:\s+in\s+[A-Za-z .]+?)?)(?:[,\n(]|$)`)
	certDiplomaRe    = regexp.MustCompile(`(?i)\b((?:Diploma|Certificate|Certification)\s+in\s+[A-Za-z .]+?)(?:[,\n(]|$)`)
	certCourseRe     = regexp.MustCompile(`(?i)\b((?:Introduction to|Fundamentals of|Advanced|Complete|Professional)\s+[A-Za-z .]+?)(?:[,\n]|$)`)

	certGPARe1 = regexp.MustCompile(`(?i)(?:CGPA|Cumulative\s+GPA|GPA|Grade\s+Point\s+Average)\s*[:=]?\s*(\d+\.?\d*)`)

	certMonthYearRe = regexp.MustCompile(`(?i)\b((?:January|February|March|April|May|June|July|August|September|October|November|December)\s+\d{4})\b`)
	certMonthDayRe  = regexp.MustCompile(`(?i)\b((?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)\.?\s+\d{1,2},?\s+\d{4})\b`)
	certSlashDateRe = regexp.MustCompile(`\b(\d{1,2}[/\-]\d{1,2}[/\-]\d{4})\b`)
	certAwardYearRe = regexp.MustCompile(`(?i)(?:conferred|granted|awarded|issued)\D{0,30}((?:19|20)\d{2})`)
)

// cleanInstitution 机构名清洗：跨行时取最长一行，过滤过短的残片
func cleanInstitution(s string) string {
	if strings.Contains(s, "\n") {
		longest := ""
		for _, line := range strings.Split(s, "\n") {
			if len(strings.TrimSpace(line)) > len(longest) {
				longest = strings.TrimSpace(line)
			}
		}
		s = longest
	}
	s = strings.Trim(strings.Join(strings.Fields(s), " "), " ,.-")
	if len(s) <= 2 {
		return ""
	}
	return s
}

// cleanDegree 学位/课程名清洗
func cleanDegree(s string) string {
	s = strings.Trim(strings.Join(strings.Fields(s), " "), " ,.-")
	if len(s) <= 3 {
		return ""
	}
	return s
}

// cleanGraduationDate 毕业日期归一化为 "January 2006" 形式，无法解析时保留原文
func cleanGraduationDate(s string) string {
	if t, ok := parseFlexibleDate(s); ok {
		return t.Format("January 2006")
	}
	if t, ok := parseFlexibleDate("January " + s); ok && len(s) == 4 {
		// 只有年份时补充占位月
		return t.Format("2006")
	}
	return strings.TrimSpace(s)
}

// NewCertificateBank 构造学历/课程证书模式库。
// 每个字段的全部候选命中都保留在 raw_matches 中，供人工复核低置信结果。
func NewCertificateBank(opts ...BankOption) (*Bank, error) {
	fields := []FieldSpec{
		{
			Name: FieldUniversity, Required: true,
			Rules: []FieldRule{
				PatternRule{Pattern: certBigOrgRe},
				PatternRule{Pattern: certProviderRe},
				PatternRule{Pattern: certUnivOfRe},
				PatternRule{Pattern: certUnivSufRe},
				PatternRule{Pattern: certTechInstRe},
			},
			Clean: cleanInstitution,
		},
		{
			Name: FieldDegree, Required: true,
			Rules: []FieldRule{
				PatternRule{Pattern: certDegreeRe},
				PatternRule{Pattern: certPhDRe},
				PatternRule{Pattern: certDiplomaRe},
				PatternRule{Pattern: certCompletionRe},
				PatternRule{Pattern: certCourseRe},
			},
			Clean: cleanDegree,
		},
		{
			Name: FieldGPA, Required: true, Numeric: true,
			Rules: []FieldRule{
				PatternRule{Pattern: certGPARe1},
				// "GPA" 与数值被换行隔开时的窗口兜底
				KeywordWindowRule{
					Keywords: []string{"gpa", "cgpa"},
					Window:   30,
					Value:    regexp.MustCompile(`(\d+\.?\d*)`),
				},
			},
		},
		{
			Name: FieldGraduationDate, Required: true,
			Rules: []FieldRule{
				PatternRule{Pattern: certMonthDayRe},
				PatternRule{Pattern: certMonthYearRe},
				PatternRule{Pattern: certSlashDateRe},
				PatternRule{Pattern: certAwardYearRe},
			},
			Clean: cleanGraduationDate,
		},
	}

	return NewBank(types.KindCertificate, fields, nil, opts...)
}
