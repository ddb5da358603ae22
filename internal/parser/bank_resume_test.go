package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrdoc-go/internal/types"
)

const sampleResume = `John Smith
San Francisco, CA
john.smith@example.com | +1 415-555-0134
linkedin.com/in/johnsmith | github.com/jsmith

Summary
Backend engineer with a focus on distributed systems.

Experience
Acme Corp 2019 - Present
- Built payment processing services in Go and Python
- Led migration to Kubernetes

Beta Labs 2016 - 2019
- Developed REST API services with Django

Education
University of California
Bachelor of Science in Computer Science
2012 - 2016
GPA: 3.8

Skills
Python, Go, Docker, Kubernetes, PostgreSQL, Leadership, Communication

Certifications
AWS Certified Solutions Architect

Languages
English
Spanish`

func runResume(t *testing.T, text string) *types.FieldExtractionResult {
	t.Helper()
	bank, err := NewResumeBank()
	require.NoError(t, err)
	normalized, signals := Normalize(text)
	result := bank.Run(normalized, signals)
	result.Resume = ExtractResumeEntities(normalized)
	return result
}

func TestResumeFlatFields(t *testing.T) {
	result := runResume(t, sampleResume)

	assert.Equal(t, "john.smith@example.com", result.Field(FieldEmail).Value)
	assert.Contains(t, result.Field(FieldPhone).Value, "415")
	assert.Equal(t, "johnsmith", result.Field(FieldLinkedIn).Value)
	assert.Equal(t, "jsmith", result.Field(FieldGitHub).Value)
}

func TestResumeNameFallback(t *testing.T) {
	result := runResume(t, sampleResume)

	name := result.Field(FieldName)
	require.True(t, name.Resolved, "头部人名行应被兜底命中")
	assert.Equal(t, "John Smith", name.Value)
	assert.Equal(t, types.MethodFallbackHeuristic, name.Method)
}

func TestResumeLocationFallback(t *testing.T) {
	result := runResume(t, sampleResume)

	loc := result.Field(FieldLocation)
	require.True(t, loc.Resolved)
	assert.Equal(t, "San Francisco, CA", loc.Value)
}

func TestResumeNameFallbackSkipsNoise(t *testing.T) {
	result := runResume(t, "Page 1 of 2\nResume Document Version Two Example Content With A Long Heading\nMary Jones\nmary@example.com")

	assert.Equal(t, "Mary Jones", result.Field(FieldName).Value, "应跳过Page行和超长行")
}

func TestResumeMissingContact(t *testing.T) {
	result := runResume(t, "Anonymous Person\nNo contact details provided here")

	assert.False(t, result.Field(FieldEmail).Resolved)
	assert.False(t, result.Field(FieldPhone).Resolved)
	require.Contains(t, result.Fields, FieldEmail, "未命中字段键仍需存在")
}
