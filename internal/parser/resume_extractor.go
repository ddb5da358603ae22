package parser

import (
	"regexp"
	"sort"
	"strings"

	"hrdoc-go/internal/types"
)

// 技能词表。匹配时大小写不敏感并要求词边界。
var technicalSkillSet = []string{
	"python", "java", "javascript", "c++", "c#", "ruby", "php", "swift", "kotlin",
	"typescript", "go", "rust", "scala", "perl", "html", "css", "react", "angular",
	"vue", "node", "django", "flask", "spring", "laravel", "express", "tensorflow",
	"pytorch", "keras", "scikit-learn", "pandas", "numpy", "aws", "azure", "gcp",
	"docker", "kubernetes", "jenkins", "git", "github", "gitlab", "ci/cd", "rest api",
	"graphql", "sql", "nosql", "mongodb", "postgresql", "mysql", "oracle", "sqlite",
	"hadoop", "spark", "kafka", "redis", "elasticsearch", "tableau", "powerbi", "excel",
	"linux", "unix", "windows", "macos", "agile", "scrum", "jira", "confluence",
}

var softSkillSet = []string{
	"leadership", "communication", "teamwork", "problem solving", "critical thinking",
	"decision making", "time management", "organization", "creativity", "adaptability",
	"flexibility", "interpersonal", "negotiation", "conflict resolution", "presentation",
	"mentoring", "coaching", "customer focus", "detail-oriented", "multitasking",
	"planning", "prioritization", "innovation", "collaboration", "emotional intelligence",
}

// 简历常见节标题，作为节边界候选
var defaultSectionEnds = []string{
	"Education", "Experience", "Skills", "Projects",
	"Certifications", "Awards", "Publications", "References", "Languages",
}

var (
	eduInstitutionRe = regexp.MustCompile(`(?i)(University|College|Institute|School)\s+of\s+[A-Za-z &]+`)
	eduDegreeRe      = regexp.MustCompile(`(?i)(Bachelor|Master|Ph\.?D\.?|B\.?Tech|B\.?Sc|M\.?Tech|M\.?Sc|MBA)\s+(?:of|in)\s+([A-Za-z &]+)`)
	eduDateRe        = regexp.MustCompile(`(?:19|20)\d{2}\s*[-–]\s*(?:19|20)\d{2}|(?:19|20)\d{2}`)
	eduGPARe         = regexp.MustCompile(`(?i)GPA\s*[:=]?\s*([\d.]+)`)

	expCompanyDateRe = regexp.MustCompile(`(.+?)\s+(\d{1,2}/\d{4}\s*[-–]\s*(?:\d{1,2}/\d{4}|Present)|\(\d{4}\s*[-–]\s*(?:\d{4}|Present)\)|\d{4}\s*[-–]\s*(?:\d{4}|Present))`)
)

// ExtractResumeEntities 从归一化简历文本中抽取结构化实体。
// 纯函数，按节标题切分后在各节内做行级模式匹配。
func ExtractResumeEntities(text string) *types.ResumeEntities {
	entities := &types.ResumeEntities{
		Skills: types.SkillSet{
			Technical: []string{},
			Soft:      []string{},
		},
		Certifications: []string{},
		Languages:      []string{},
	}
	if text == "" {
		return entities
	}

	entities.Education = extractEducation(text)
	entities.Experience = extractExperience(text)
	entities.Skills = extractSkills(text)
	entities.Certifications = extractListSection(text,
		[]string{"Certifications", "Certificates", "Accreditations"}, 5, 200)
	entities.Languages = extractListSection(text,
		[]string{"Languages", "Language Proficiency", "Foreign Languages"}, 2, 50)

	return entities
}

// extractSection 按标题定位节内容：最早命中的起始标题到下一个其他节标题之间
func extractSection(text string, starts []string, ends []string) string {
	if ends == nil {
		ends = defaultSectionEnds
	}

	bestStart := -1
	bestHeading := ""
	for _, heading := range starts {
		re := regexp.MustCompile(`(?im)^\s*` + regexp.QuoteMeta(heading) + `\b\s*:?\s*$`)
		loc := re.FindStringIndex(text)
		if loc == nil {
			// 标题和内容同行的形式
			re = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(heading) + `\b\s*:`)
			loc = re.FindStringIndex(text)
		}
		if loc != nil && (bestStart < 0 || loc[0] < bestStart) {
			bestStart = loc[0]
			bestHeading = heading
		}
	}
	if bestStart < 0 {
		return ""
	}

	contentStart := strings.IndexByte(text[bestStart:], '\n')
	if contentStart < 0 {
		contentStart = len(bestHeading)
	}
	contentStart += bestStart + 1
	if contentStart > len(text) {
		return ""
	}

	end := len(text)
	for _, heading := range ends {
		if strings.EqualFold(heading, bestHeading) {
			continue
		}
		re := regexp.MustCompile(`(?im)^\s*` + regexp.QuoteMeta(heading) + `\b`)
		if loc := re.FindStringIndex(text[contentStart:]); loc != nil {
			if contentStart+loc[0] < end {
				end = contentStart + loc[0]
			}
		}
	}

	return text[contentStart:end]
}

func extractEducation(text string) []types.EducationEntry {
	section := extractSection(text,
		[]string{"Education", "Academic Background", "Academic History"},
		[]string{"Experience", "Work History", "Skills", "Projects"})
	if section == "" {
		return nil
	}

	var entries []types.EducationEntry
	var current *types.EducationEntry

	flush := func() {
		if current != nil && current.Institution != "" {
			entries = append(entries, *current)
		}
		current = nil
	}

	for _, line := range strings.Split(section, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if m := eduInstitutionRe.FindString(line); m != "" {
			flush()
			current = &types.EducationEntry{Institution: m}
			continue
		}
		if strings.Contains(line, "University") || strings.Contains(line, "College") ||
			strings.Contains(line, "Institute") || strings.Contains(line, "School") {
			flush()
			current = &types.EducationEntry{Institution: line}
			continue
		}

		if current == nil {
			continue
		}
		if m := eduDegreeRe.FindStringSubmatch(line); m != nil {
			current.Degree = m[1]
			current.Field = strings.TrimSpace(m[2])
			continue
		}
		if m := eduDateRe.FindString(line); m != "" {
			current.Dates = m
			continue
		}
		if m := eduGPARe.FindStringSubmatch(line); m != nil {
			current.GPA = m[1]
		}
	}
	flush()

	return entries
}

func extractExperience(text string) []types.ExperienceEntry {
	section := extractSection(text,
		[]string{"Experience", "Work History", "Employment", "Professional Experience"},
		[]string{"Education", "Skills", "Projects"})
	if section == "" {
		return nil
	}

	lines := strings.Split(section, "\n")
	var entries []types.ExperienceEntry
	var current *types.ExperienceEntry

	flush := func() {
		if current != nil && current.Company != "" {
			entries = append(entries, *current)
		}
		current = nil
	}

	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if isBulletLine(line) {
			if current != nil {
				current.Achievements = append(current.Achievements, strings.TrimLeft(line, "•-* "))
			}
			continue
		}

		if len(line) < 100 {
			// 公司与日期区间同行
			if m := expCompanyDateRe.FindStringSubmatch(line); m != nil {
				flush()
				current = &types.ExperienceEntry{
					Company: strings.TrimSpace(m[1]),
					Dates:   strings.TrimSpace(m[2]),
				}
				continue
			}
			// 下一行是要点时，本行是公司名或职位名
			if i+1 < len(lines) && isBulletLine(strings.TrimSpace(lines[i+1])) {
				if current == nil || current.Company == "" {
					flush()
					current = &types.ExperienceEntry{Company: line}
				} else if current.Title == "" {
					current.Title = line
				}
			}
		}
	}
	flush()

	return entries
}

func isBulletLine(line string) bool {
	return strings.HasPrefix(line, "•") || strings.HasPrefix(line, "-") || strings.HasPrefix(line, "*")
}

func extractSkills(text string) types.SkillSet {
	section := extractSection(text,
		[]string{"Skills", "Technical Skills", "Core Competencies"},
		[]string{"Experience", "Education", "Projects", "Certifications"})

	// 先在技能节内找，再全篇补充
	technical := matchSkills(section, technicalSkillSet, nil)
	technical = matchSkills(text, technicalSkillSet, technical)
	soft := matchSkills(section, softSkillSet, nil)
	soft = matchSkills(text, softSkillSet, soft)

	tList := make([]string, 0, len(technical))
	for s := range technical {
		tList = append(tList, capitalizeSkill(s))
	}
	sList := make([]string, 0, len(soft))
	for s := range soft {
		sList = append(sList, capitalizeSkill(s))
	}
	sort.Strings(tList)
	sort.Strings(sList)

	return types.SkillSet{Technical: tList, Soft: sList}
}

func matchSkills(text string, skills []string, acc map[string]bool) map[string]bool {
	if acc == nil {
		acc = make(map[string]bool)
	}
	if text == "" {
		return acc
	}
	lower := strings.ToLower(text)
	for _, skill := range skills {
		if acc[skill] {
			continue
		}
		if containsAnyWord(lower, []string{skill}) {
			acc[skill] = true
		}
	}
	return acc
}

func capitalizeSkill(s string) string {
	if s == "" {
		return s
	}
	if s[0] >= 'a' && s[0] <= 'z' {
		return string(s[0]-'a'+'A') + s[1:]
	}
	return s
}

// extractListSection 行式列表节的通用抽取（证书、语言）
func extractListSection(text string, headings []string, minLen, maxLen int) []string {
	section := extractSection(text, headings, nil)
	if section == "" {
		return []string{}
	}

	var items []string
	for _, line := range strings.Split(section, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if isBulletLine(line) {
			line = strings.TrimLeft(line, "•-* ")
		}
		if len(line) > minLen && len(line) < maxLen {
			items = append(items, line)
		}
	}
	if items == nil {
		return []string{}
	}
	return items
}
