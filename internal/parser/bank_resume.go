package parser

import (
	"regexp"
	"strings"

	"hrdoc-go/internal/types"
)

// 简历扁平字段名
const (
	FieldName     = "name"
	FieldEmail    = "email"
	FieldPhone    = "phone"
	FieldLinkedIn = "linkedin"
	FieldGitHub   = "github"
	FieldLocation = "location"
)

var (
	resumePhoneRe    = regexp.MustCompile(`((?:\+\d{1,3}[\-. ]?)?(?:\(?\d{1,4}\)?[\-. ]?)?\d{3}[\-. ]?\d{3,4}[\-. ]?\d{3,4})`)
	resumeLinkedInRe = regexp.MustCompile(`(?i)(?:linkedin\.com/in/|linkedin:\s*)([A-Za-z0-9_\-]+)`)
	resumeGitHubRe   = regexp.MustCompile(`(?i)(?:github\.com/|github:\s*)([A-Za-z0-9_\-]+)`)

	// 人名行：两到三个首字母大写的词，允许连字符和中间名缩写
	resumeNameLineRe1 = regexp.MustCompile(`^[A-Z][a-z]+(?:-[A-Z][a-z]+)?(?:\s+[A-Z][a-z]+){1,2}$`)
	resumeNameLineRe2 = regexp.MustCompile(`^[A-Z][a-z]+ [A-Z]\. [A-Z][a-z]+$`)

	resumeLocationRe1 = regexp.MustCompile(`\b[A-Z][a-z]+(?:\s+[A-Z][a-z]+)*,\s*[A-Z]{2}\b`)
	resumeLocationRe2 = regexp.MustCompile(`\b[A-Z][a-z]+(?:\s+[A-Z][a-z]+)*,\s*[A-Z][a-z]+\b`)
)

// NewResumeBank 构造简历扁平字段模式库。
// 结构化实体（教育/经历/技能等）由 ExtractResumeEntities 单独抽取。
func NewResumeBank(opts ...BankOption) (*Bank, error) {
	fields := []FieldSpec{
		// 姓名没有可靠的行级规则，由头部行启发式填充
		{Name: FieldName, Required: true},
		{
			Name: FieldEmail, Required: true,
			Rules: []FieldRule{PatternRule{Pattern: emailRe}},
		},
		{
			Name: FieldPhone, Required: true,
			Rules: []FieldRule{PatternRule{Pattern: resumePhoneRe}},
		},
		{
			Name: FieldLinkedIn,
			Rules: []FieldRule{PatternRule{Pattern: resumeLinkedInRe}},
		},
		{
			Name: FieldGitHub,
			Rules: []FieldRule{PatternRule{Pattern: resumeGitHubRe}},
		},
		{Name: FieldLocation},
	}

	fallbacks := []FallbackFunc{resumeNameFallback, resumeLocationFallback}
	return NewBank(types.KindResume, fields, fallbacks, opts...)
}

// resumeNameFallback 姓名兜底：文档头部前15个非空行中第一个符合人名格式的行
func resumeNameFallback(fc *FallbackContext) {
	limit := 15
	if len(fc.Lines) < limit {
		limit = len(fc.Lines)
	}
	for _, line := range fc.Lines[:limit] {
		if len(line) >= 50 || strings.Contains(line, "Page") {
			continue
		}
		if resumeNameLineRe1.MatchString(line) || resumeNameLineRe2.MatchString(line) {
			fc.SetFallback(FieldName, line, 0, false)
			return
		}
	}
}

// resumeLocationFallback 地点兜底：头部前20个非空行中的 "City, ST" 或 "City, Country" 格式
func resumeLocationFallback(fc *FallbackContext) {
	limit := 20
	if len(fc.Lines) < limit {
		limit = len(fc.Lines)
	}
	for _, line := range fc.Lines[:limit] {
		if m := resumeLocationRe1.FindString(line); m != "" {
			fc.SetFallback(FieldLocation, m, 0, false)
			return
		}
		if m := resumeLocationRe2.FindString(line); m != "" {
			fc.SetFallback(FieldLocation, m, 0, false)
			return
		}
	}
}
