package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"hrdoc-go/internal/types"
)

func TestScoreFitNeutralWithoutInput(t *testing.T) {
	score := ScoreFit(nil, nil)
	assert.Equal(t, 50.0, score.SkillsMatch)
	assert.Equal(t, 50.0, score.ExperienceRelevance)
	assert.Equal(t, 50.0, score.EducationMatch)
	assert.Equal(t, 50.0, score.TenureStability)
	assert.Equal(t, 50.0, score.GrowthTrajectory)
	assert.Equal(t, 50.0, score.TotalFit, "权重和为1，全中性分时总分也是中性分")
}

func TestScoreSkills(t *testing.T) {
	skills := types.SkillSet{
		Technical: []string{"Go", "Python", "Docker"},
		Soft:      []string{"Leadership"},
	}

	// 技术技能整分，软技能折半：(1+1+0.5)/4 = 62.5
	got := scoreSkills(skills, []string{"go", "python", "leadership", "rust"})
	assert.Equal(t, 62.5, got)

	// 大小写与首尾空白不影响命中
	assert.Equal(t, 100.0, scoreSkills(skills, []string{" GO ", "Docker"}))

	// 岗位没有列出必备技能时给中性分
	assert.Equal(t, 50.0, scoreSkills(skills, nil))
}

func TestScoreExperience(t *testing.T) {
	experience := []types.ExperienceEntry{
		{Company: "Acme Corp", Title: "Backend Engineer", Achievements: []string{"Built payment services in Go"}},
		{Company: "Beta Labs", Title: "Developer"},
	}

	// 4个关键字命中3个
	job := &types.JobProfile{Keywords: []string{"payment", "backend", "acme", "kubernetes"}}
	assert.Equal(t, 75.0, scoreExperience(experience, job))

	// 关键字为空时退回岗位名分词
	job = &types.JobProfile{Title: "Backend Engineer"}
	assert.Equal(t, 100.0, scoreExperience(experience, job))

	// 词边界：go不应命中golang
	job = &types.JobProfile{Keywords: []string{"go"}}
	golangOnly := []types.ExperienceEntry{{Company: "X", Title: "Golang Developer"}}
	assert.Equal(t, 0.0, scoreExperience(golangOnly, job))

	// 没有经历时给中性分
	assert.Equal(t, 50.0, scoreExperience(nil, job))
}

func TestScoreEducation(t *testing.T) {
	job := &types.JobProfile{}

	assert.Equal(t, 100.0, scoreEducation([]types.EducationEntry{{Degree: "PhD in Physics"}}, job))
	assert.Equal(t, 90.0, scoreEducation([]types.EducationEntry{{Degree: "Master of Science"}}, job))
	assert.Equal(t, 80.0, scoreEducation([]types.EducationEntry{{Degree: "Bachelor of Technology"}}, job))
	assert.Equal(t, 50.0, scoreEducation([]types.EducationEntry{{Degree: "Diploma"}}, job))
	assert.Equal(t, 50.0, scoreEducation(nil, job))

	// 多段教育取最高层级
	assert.Equal(t, 90.0, scoreEducation([]types.EducationEntry{
		{Degree: "Bachelor of Science"},
		{Degree: "MBA"},
	}, job))

	// 专业方向不符打八折：90 × 0.8 = 72
	withField := &types.JobProfile{RequiredField: "Computer Science"}
	assert.Equal(t, 72.0, scoreEducation([]types.EducationEntry{
		{Degree: "Master of Arts", Field: "History"},
	}, withField))
	assert.Equal(t, 90.0, scoreEducation([]types.EducationEntry{
		{Degree: "Master of Science", Field: "Computer Science"},
	}, withField))
}

func TestScoreTenureAndGrowth(t *testing.T) {
	assert.Equal(t, 50.0, scoreTenure(0))
	assert.Equal(t, 80.0, scoreTenure(2))
	assert.Equal(t, 100.0, scoreTenure(9), "封顶100")

	assert.Equal(t, 50.0, scoreGrowth(0))
	assert.Equal(t, 70.0, scoreGrowth(2))
	assert.Equal(t, 100.0, scoreGrowth(6))
}

func TestScoreFitWeightedTotal(t *testing.T) {
	entities := &types.ResumeEntities{
		Skills: types.SkillSet{
			Technical: []string{"Go", "Python", "Docker", "Kubernetes"},
		},
		Experience: []types.ExperienceEntry{
			{Company: "Acme Corp", Title: "Engineer", Achievements: []string{"Built payment services"}},
			{Company: "Beta Labs", Title: "Developer"},
		},
		Education: []types.EducationEntry{{Degree: "Master of Science", Field: "Computer Science"}},
	}
	job := &types.JobProfile{
		Title:          "Backend Engineer",
		RequiredSkills: []string{"go", "python", "docker", "kubernetes", "rust"},
		Keywords:       []string{"payment", "engineer", "acme", "cloud", "scala"},
		RequiredField:  "Computer Science",
	}

	score := ScoreFit(entities, job)

	// 技能 4/5=80，经历 3/5=60，学历硕士90，两段经历 tenure 80 / growth 70
	assert.Equal(t, 80.0, score.SkillsMatch)
	assert.Equal(t, 60.0, score.ExperienceRelevance)
	assert.Equal(t, 90.0, score.EducationMatch)
	assert.Equal(t, 80.0, score.TenureStability)
	assert.Equal(t, 70.0, score.GrowthTrajectory)
	// 0.40×80 + 0.30×60 + 0.20×90 + 0.05×80 + 0.05×70 = 75.5
	assert.InDelta(t, 75.5, score.TotalFit, 0.001)
}

func TestScoreFitDeterministic(t *testing.T) {
	entities := &types.ResumeEntities{
		Skills:     types.SkillSet{Technical: []string{"Go", "Python"}},
		Experience: []types.ExperienceEntry{{Company: "Acme", Title: "Engineer"}},
	}
	job := &types.JobProfile{RequiredSkills: []string{"python", "go"}, Keywords: []string{"acme"}}

	first := ScoreFit(entities, job)
	second := ScoreFit(entities, job)
	assert.Equal(t, first, second, "同一输入必须产出完全相同的分数")

	// 技能列表顺序不影响结果
	entities.Skills.Technical = []string{"Python", "Go"}
	third := ScoreFit(entities, job)
	assert.Equal(t, first.TotalFit, third.TotalFit)
}
