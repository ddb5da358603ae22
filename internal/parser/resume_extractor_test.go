package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractResumeEntitiesFull(t *testing.T) {
	normalized, _ := Normalize(sampleResume)
	entities := ExtractResumeEntities(normalized)
	require.NotNil(t, entities)

	// 教育经历
	require.Len(t, entities.Education, 1)
	edu := entities.Education[0]
	assert.Equal(t, "University of California", edu.Institution)
	assert.Equal(t, "Bachelor", edu.Degree)
	assert.Contains(t, edu.Field, "Computer Science")
	assert.Equal(t, "2012 - 2016", edu.Dates)
	assert.Equal(t, "3.8", edu.GPA)

	// 工作经历
	require.Len(t, entities.Experience, 2)
	assert.Equal(t, "Acme Corp", entities.Experience[0].Company)
	assert.Equal(t, "2019 - Present", entities.Experience[0].Dates)
	assert.Len(t, entities.Experience[0].Achievements, 2)
	assert.Equal(t, "Built payment processing services in Go and Python", entities.Experience[0].Achievements[0])
	assert.Equal(t, "Beta Labs", entities.Experience[1].Company)

	// 技能：技能节内和全篇补充的都应命中
	assert.Contains(t, entities.Skills.Technical, "Python")
	assert.Contains(t, entities.Skills.Technical, "Go")
	assert.Contains(t, entities.Skills.Technical, "Kubernetes")
	assert.Contains(t, entities.Skills.Technical, "Django", "技能节之外出现的技能也应补充")
	assert.Contains(t, entities.Skills.Soft, "Leadership")
	assert.Contains(t, entities.Skills.Soft, "Communication")

	assert.Equal(t, []string{"AWS Certified Solutions Architect"}, entities.Certifications)
	assert.Equal(t, []string{"English", "Spanish"}, entities.Languages)
}

func TestExtractResumeEntitiesSkillWordBoundary(t *testing.T) {
	entities := ExtractResumeEntities("Skills\nPostgreSQL and Golang experience")

	assert.Contains(t, entities.Skills.Technical, "Postgresql")
	assert.NotContains(t, entities.Skills.Technical, "Sql", "sql不应命中PostgreSQL的子串")
	assert.NotContains(t, entities.Skills.Technical, "Go", "go不应命中Golang的子串")
}

func TestExtractResumeEntitiesEmpty(t *testing.T) {
	entities := ExtractResumeEntities("")
	require.NotNil(t, entities)
	assert.Empty(t, entities.Education)
	assert.Empty(t, entities.Experience)
	assert.NotNil(t, entities.Skills.Technical, "空输入也应返回非nil切片")
	assert.Empty(t, entities.Certifications)
}

func TestSkillSetAll(t *testing.T) {
	entities := ExtractResumeEntities("Skills\nPython, Leadership")
	all := entities.Skills.All()
	assert.Contains(t, all, "Python")
	assert.Contains(t, all, "Leadership")
}
