package parser

import (
	"fmt"

	"hrdoc-go/internal/types"
)

// 固定脱敏标记。直接身份字段统一替换，不保留任何原值痕迹。
const (
	RedactedName     = "[NAME REDACTED]"
	RedactedEmail    = "[EMAIL REDACTED]"
	RedactedPhone    = "[PHONE REDACTED]"
	RedactedLinkedIn = "[LINKEDIN REDACTED]"
	RedactedGitHub   = "[GITHUB REDACTED]"
	RedactedLocation = "[LOCATION REDACTED]"
	RedactedDate     = "[DATE REDACTED]"
)

// Anonymize 生成简历实体的匿名化副本，输入不被修改。
//
// 个人信息字段替换为固定脱敏标记；院校与公司名替换为文档内
// 稳定的编号占位符，同名机构在同一文档内始终映射到同一占位符，
// 以保留"同一雇主的多段经历"这类结构信息。教育与经历的日期
// 一并脱敏，技能、成就和语言保留原文。
func Anonymize(entities *types.ResumeEntities) *types.AnonymizedEntities {
	out := &types.AnonymizedEntities{}
	if entities == nil {
		return out
	}

	clone := types.ResumeEntities{
		Skills: types.SkillSet{
			Technical: append([]string{}, entities.Skills.Technical...),
			Soft:      append([]string{}, entities.Skills.Soft...),
		},
		Certifications: append([]string{}, entities.Certifications...),
		Languages:      append([]string{}, entities.Languages...),
	}

	pi := entities.PersonalInfo
	clone.PersonalInfo = types.PersonalInfo{
		Name:     redactIfSet(pi.Name, RedactedName),
		Email:    redactIfSet(pi.Email, RedactedEmail),
		Phone:    redactIfSet(pi.Phone, RedactedPhone),
		LinkedIn: redactIfSet(pi.LinkedIn, RedactedLinkedIn),
		GitHub:   redactIfSet(pi.GitHub, RedactedGitHub),
		Location: redactIfSet(pi.Location, RedactedLocation),
	}

	institutions := newPlaceholderTable("INSTITUTION")
	companies := newPlaceholderTable("COMPANY")

	for _, edu := range entities.Education {
		entry := edu
		entry.Institution = institutions.placeholderFor(edu.Institution)
		entry.Dates = redactIfSet(edu.Dates, RedactedDate)
		clone.Education = append(clone.Education, entry)
	}

	for _, exp := range entities.Experience {
		entry := types.ExperienceEntry{
			Company:      companies.placeholderFor(exp.Company),
			Title:        exp.Title,
			Dates:        redactIfSet(exp.Dates, RedactedDate),
			Achievements: append([]string{}, exp.Achievements...),
		}
		clone.Experience = append(clone.Experience, entry)
	}

	out.Entities = clone
	out.PlaceholderCount = institutions.count() + companies.count()
	return out
}

func redactIfSet(value, token string) string {
	if value == "" {
		return ""
	}
	return token
}

// placeholderTable 文档内稳定的机构名到占位符映射
type placeholderTable struct {
	label   string
	mapping map[string]string
}

func newPlaceholderTable(label string) *placeholderTable {
	return &placeholderTable{label: label, mapping: make(map[string]string)}
}

func (t *placeholderTable) placeholderFor(name string) string {
	if name == "" {
		return ""
	}
	if p, ok := t.mapping[name]; ok {
		return p
	}
	p := fmt.Sprintf("[%s_%d]", t.label, len(t.mapping)+1)
	t.mapping[name] = p
	return p
}

func (t *placeholderTable) count() int {
	return len(t.mapping)
}
