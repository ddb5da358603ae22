package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrdoc-go/internal/types"
)

// entitiesWithSkills 其余维度全部中性，只由技能命中率拉开总分
func entitiesWithSkills(skills ...string) *types.ResumeEntities {
	return &types.ResumeEntities{
		Skills: types.SkillSet{Technical: skills},
	}
}

func TestRankCandidatesOrdering(t *testing.T) {
	job := &types.JobProfile{RequiredSkills: []string{"go", "python"}}
	candidates := []types.Candidate{
		{CandidateRef: "weak", Entities: entitiesWithSkills(), SubmissionOrder: 0},
		{CandidateRef: "strong", Entities: entitiesWithSkills("Go", "Python"), SubmissionOrder: 1},
		{CandidateRef: "partial", Entities: entitiesWithSkills("Go"), SubmissionOrder: 2},
	}

	ranked := RankCandidates(candidates, job, 70)
	require.Len(t, ranked, 3)

	assert.Equal(t, "strong", ranked[0].CandidateRef)
	assert.Equal(t, "partial", ranked[1].CandidateRef)
	assert.Equal(t, "weak", ranked[2].CandidateRef)
	for i, rc := range ranked {
		assert.Equal(t, i+1, rc.Rank, "名次从1起连续编号")
	}

	// 技能全中时其余维度中性：0.4×100 + 0.6×50 = 70，达到阈值
	assert.True(t, ranked[0].Shortlisted)
	assert.False(t, ranked[1].Shortlisted)
	assert.False(t, ranked[2].Shortlisted)
}

func TestRankCandidatesStableTieBreak(t *testing.T) {
	job := &types.JobProfile{RequiredSkills: []string{"go"}}
	same := func(ref string, order int) types.Candidate {
		return types.Candidate{CandidateRef: ref, Entities: entitiesWithSkills("Go"), SubmissionOrder: order}
	}

	// 输入顺序与提交顺序故意相反
	ranked := RankCandidates([]types.Candidate{same("late", 5), same("early", 1)}, job, 70)
	require.Len(t, ranked, 2)
	assert.Equal(t, ranked[0].FitScore.TotalFit, ranked[1].FitScore.TotalFit)
	assert.Equal(t, "early", ranked[0].CandidateRef, "同分候选按提交顺序先来居前")
	assert.Equal(t, "late", ranked[1].CandidateRef)

	// 重复排名产出完全一致的序列
	again := RankCandidates([]types.Candidate{same("late", 5), same("early", 1)}, job, 70)
	assert.Equal(t, ranked, again)
}

func TestRankCandidatesEmptyPool(t *testing.T) {
	ranked := RankCandidates(nil, &types.JobProfile{}, 70)
	assert.NotNil(t, ranked)
	assert.Empty(t, ranked)
}

func TestShortlistTruncation(t *testing.T) {
	job := &types.JobProfile{RequiredSkills: []string{"go"}}
	candidates := []types.Candidate{
		{CandidateRef: "a", Entities: entitiesWithSkills("Go"), SubmissionOrder: 0},
		{CandidateRef: "b", Entities: entitiesWithSkills("Go"), SubmissionOrder: 1},
		{CandidateRef: "c", Entities: entitiesWithSkills(), SubmissionOrder: 2},
	}
	ranked := RankCandidates(candidates, job, 70)

	short := Shortlist(ranked, 1)
	require.Len(t, short, 1)
	assert.Equal(t, "a", short[0].CandidateRef)

	// 截断不改变原排名序列里的入围标记
	assert.True(t, ranked[1].Shortlisted, "b仍然是入围候选，只是没进展示截断")
	assert.False(t, ranked[2].Shortlisted)

	// maxCandidates为0表示不截断
	assert.Len(t, Shortlist(ranked, 0), 2)
}
