package parser

import (
	"sort"

	"hrdoc-go/internal/types"
)

// RankCandidates 对候选池打分并产出稳定排名。
//
// 排序按 total_fit 降序；分数相同的候选按提交顺序保持先来居前，
// 同一候选池的重复排名产出完全一致的序列。Shortlisted 只反映
// 阈值判定，展示层的截断不影响该标记。
func RankCandidates(candidates []types.Candidate, job *types.JobProfile, threshold float64) []types.RankedCandidate {
	ranked := make([]types.RankedCandidate, 0, len(candidates))
	order := make(map[string]int, len(candidates))

	for _, c := range candidates {
		order[c.CandidateRef] = c.SubmissionOrder
		score := ScoreFit(c.Entities, job)
		ranked = append(ranked, types.RankedCandidate{
			CandidateRef: c.CandidateRef,
			FitScore:     score,
			Shortlisted:  score.TotalFit >= threshold,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].FitScore.TotalFit != ranked[j].FitScore.TotalFit {
			return ranked[i].FitScore.TotalFit > ranked[j].FitScore.TotalFit
		}
		return order[ranked[i].CandidateRef] < order[ranked[j].CandidateRef]
	})

	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}

// Shortlist 从排名序列中取出入围候选。maxCandidates 大于0时截断到该数量，
// 截断只影响返回的切片，不改变任何候选的 Shortlisted 标记。
func Shortlist(ranked []types.RankedCandidate, maxCandidates int) []types.RankedCandidate {
	out := make([]types.RankedCandidate, 0, len(ranked))
	for _, rc := range ranked {
		if !rc.Shortlisted {
			continue
		}
		out = append(out, rc)
		if maxCandidates > 0 && len(out) >= maxCandidates {
			break
		}
	}
	return out
}
