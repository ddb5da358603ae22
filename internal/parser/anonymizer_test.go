package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrdoc-go/internal/types"
)

func sampleEntities() *types.ResumeEntities {
	return &types.ResumeEntities{
		PersonalInfo: types.PersonalInfo{
			Name:     "John Smith",
			Email:    "john@example.com",
			Phone:    "+1 415-555-0134",
			LinkedIn: "johnsmith",
			GitHub:   "jsmith",
			Location: "San Francisco, CA",
		},
		Education: []types.EducationEntry{
			{Institution: "University of California", Degree: "Bachelor", Field: "CS", Dates: "2012 - 2016", GPA: "3.8"},
			{Institution: "University of California", Degree: "Master", Field: "CS", Dates: "2016 - 2018"},
		},
		Experience: []types.ExperienceEntry{
			{Company: "Acme Corp", Title: "Engineer", Dates: "2019 - Present", Achievements: []string{"Built services"}},
			{Company: "Beta Labs", Title: "Developer", Dates: "2016 - 2019"},
			{Company: "Acme Corp", Title: "Intern", Dates: "2015"},
		},
		Skills: types.SkillSet{
			Technical: []string{"Go", "Python"},
			Soft:      []string{"Leadership"},
		},
		Certifications: []string{"AWS Certified Solutions Architect"},
		Languages:      []string{"English"},
	}
}

func TestAnonymizeRedactsPersonalInfo(t *testing.T) {
	out := Anonymize(sampleEntities())

	pi := out.Entities.PersonalInfo
	assert.Equal(t, RedactedName, pi.Name)
	assert.Equal(t, RedactedEmail, pi.Email)
	assert.Equal(t, RedactedPhone, pi.Phone)
	assert.Equal(t, RedactedLinkedIn, pi.LinkedIn)
	assert.Equal(t, RedactedGitHub, pi.GitHub)
	assert.Equal(t, RedactedLocation, pi.Location)
}

func TestAnonymizeStablePlaceholders(t *testing.T) {
	out := Anonymize(sampleEntities())

	// 两段同校教育映射到同一占位符
	require.Len(t, out.Entities.Education, 2)
	assert.Equal(t, "[INSTITUTION_1]", out.Entities.Education[0].Institution)
	assert.Equal(t, out.Entities.Education[0].Institution, out.Entities.Education[1].Institution,
		"同一机构在文档内必须映射到同一占位符")

	// Acme出现两次用同一占位符，Beta拿下一个编号
	require.Len(t, out.Entities.Experience, 3)
	assert.Equal(t, "[COMPANY_1]", out.Entities.Experience[0].Company)
	assert.Equal(t, "[COMPANY_2]", out.Entities.Experience[1].Company)
	assert.Equal(t, "[COMPANY_1]", out.Entities.Experience[2].Company)

	// 去重后的机构数：1所院校 + 2家公司
	assert.Equal(t, 3, out.PlaceholderCount)
}

func TestAnonymizeRedactsDatesKeepsContent(t *testing.T) {
	out := Anonymize(sampleEntities())

	assert.Equal(t, RedactedDate, out.Entities.Education[0].Dates)
	assert.Equal(t, RedactedDate, out.Entities.Experience[0].Dates)
	assert.Equal(t, "Engineer", out.Entities.Experience[0].Title, "职位名保留")
	assert.Equal(t, []string{"Built services"}, out.Entities.Experience[0].Achievements)
	assert.Equal(t, "3.8", out.Entities.Education[0].GPA)
	assert.Equal(t, []string{"Go", "Python"}, out.Entities.Skills.Technical)
	assert.Equal(t, []string{"AWS Certified Solutions Architect"}, out.Entities.Certifications)
}

func TestAnonymizeDoesNotMutateInput(t *testing.T) {
	in := sampleEntities()
	_ = Anonymize(in)

	assert.Equal(t, "John Smith", in.PersonalInfo.Name)
	assert.Equal(t, "University of California", in.Education[0].Institution)
	assert.Equal(t, "Acme Corp", in.Experience[0].Company)
	assert.Equal(t, "2019 - Present", in.Experience[0].Dates)
}

func TestAnonymizeEmptyFieldsStayEmpty(t *testing.T) {
	out := Anonymize(&types.ResumeEntities{
		PersonalInfo: types.PersonalInfo{Name: "Jane Doe"},
	})

	assert.Equal(t, RedactedName, out.Entities.PersonalInfo.Name)
	assert.Empty(t, out.Entities.PersonalInfo.Email, "本来就缺失的字段不应变成脱敏标记")
	assert.Empty(t, out.Entities.PersonalInfo.Phone)
	assert.Zero(t, out.PlaceholderCount)
}

func TestAnonymizeNilInput(t *testing.T) {
	out := Anonymize(nil)
	require.NotNil(t, out)
	assert.Zero(t, out.PlaceholderCount)
}
