package parser

import (
	"math"
	"strings"

	"hrdoc-go/internal/types"
)

// 总分的固定权重
const (
	weightSkills     = 0.40
	weightExperience = 0.30
	weightEducation  = 0.20
	weightTenure     = 0.05
	weightGrowth     = 0.05
)

// 软技能命中的折算系数，技术技能按整分计
const softSkillCredit = 0.5

// 信息不足时的中性分
const neutralScore = 50

// ScoreFit 计算候选人与岗位画像的多维匹配分。
// 纯函数，对同一 (实体, 岗位) 输入产出完全相同的分数。
func ScoreFit(entities *types.ResumeEntities, job *types.JobProfile) types.FitScore {
	score := types.FitScore{
		SkillsMatch:         neutralScore,
		ExperienceRelevance: neutralScore,
		EducationMatch:      neutralScore,
		TenureStability:     neutralScore,
		GrowthTrajectory:    neutralScore,
	}
	if entities != nil && job != nil {
		score.SkillsMatch = scoreSkills(entities.Skills, job.RequiredSkills)
		score.ExperienceRelevance = scoreExperience(entities.Experience, job)
		score.EducationMatch = scoreEducation(entities.Education, job)
		score.TenureStability = scoreTenure(len(entities.Experience))
		score.GrowthTrajectory = scoreGrowth(len(entities.Experience))
	}

	total := weightSkills*score.SkillsMatch +
		weightExperience*score.ExperienceRelevance +
		weightEducation*score.EducationMatch +
		weightTenure*score.TenureStability +
		weightGrowth*score.GrowthTrajectory
	score.TotalFit = round2(total)

	return score
}

// scoreSkills 必备技能覆盖率。技术技能整分命中，软技能按折算系数计入。
func scoreSkills(skills types.SkillSet, required []string) float64 {
	if len(required) == 0 {
		return neutralScore
	}

	technical := lowerSet(skills.Technical)
	soft := lowerSet(skills.Soft)

	credit := 0.0
	for _, req := range required {
		key := strings.ToLower(strings.TrimSpace(req))
		switch {
		case technical[key]:
			credit++
		case soft[key]:
			credit += softSkillCredit
		}
	}
	return round2(100 * credit / float64(len(required)))
}

// scoreExperience 岗位关键字在经历文本中的覆盖率
func scoreExperience(experience []types.ExperienceEntry, job *types.JobProfile) float64 {
	keywords := job.Keywords
	if len(keywords) == 0 && job.Title != "" {
		keywords = strings.Fields(job.Title)
	}
	if len(keywords) == 0 || len(experience) == 0 {
		return neutralScore
	}

	var sb strings.Builder
	for _, exp := range experience {
		sb.WriteString(exp.Company)
		sb.WriteByte(' ')
		sb.WriteString(exp.Title)
		sb.WriteByte(' ')
		for _, a := range exp.Achievements {
			sb.WriteString(a)
			sb.WriteByte(' ')
		}
	}
	haystack := strings.ToLower(sb.String())

	matched := 0
	for _, kw := range keywords {
		key := strings.ToLower(strings.TrimSpace(kw))
		if key == "" {
			continue
		}
		if containsAnyWord(haystack, []string{key}) {
			matched++
		}
	}
	return round2(100 * float64(matched) / float64(len(keywords)))
}

// 学历层级分：博士100、硕士90、学士80，其余为中性分
func scoreEducation(education []types.EducationEntry, job *types.JobProfile) float64 {
	best := float64(neutralScore)
	for _, edu := range education {
		degree := strings.ToLower(edu.Degree)
		var level float64
		switch {
		case strings.Contains(degree, "phd") || strings.Contains(degree, "ph.d") || strings.Contains(degree, "doctor"):
			level = 100
		case strings.Contains(degree, "master") || strings.Contains(degree, "mba") ||
			strings.Contains(degree, "m.tech") || strings.Contains(degree, "m.sc") || strings.Contains(degree, "mtech"):
			level = 90
		case strings.Contains(degree, "bachelor") || strings.Contains(degree, "b.tech") ||
			strings.Contains(degree, "b.sc") || strings.Contains(degree, "btech"):
			level = 80
		default:
			level = neutralScore
		}

		// 专业方向不符时打八折
		if job.RequiredField != "" && edu.Field != "" &&
			!strings.Contains(strings.ToLower(edu.Field), strings.ToLower(job.RequiredField)) {
			level *= 0.8
		}
		if level > best {
			best = level
		}
	}
	return round2(best)
}

// scoreTenure 经历段数越多视为履历越完整，上限100
func scoreTenure(jobs int) float64 {
	if jobs == 0 {
		return neutralScore
	}
	return math.Min(70+float64(jobs)*5, 100)
}

// scoreGrowth 与 scoreTenure 同源的粗粒度代理指标
func scoreGrowth(jobs int) float64 {
	if jobs == 0 {
		return neutralScore
	}
	return math.Min(50+float64(jobs)*10, 100)
}

func lowerSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[strings.ToLower(strings.TrimSpace(item))] = true
	}
	return set
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
