package parser

import (
	"math"
	"path/filepath"
	"strings"

	"hrdoc-go/internal/types"
)

// 分类采纳的最低指示词得分，低于该分视为无法判定
const minClassifyScore = 3

// 文件名命中比内容指示词权重更高
const filenameScoreBonus = 3

// 各文档类型的内容指示词，小写匹配
var kindIndicators = map[types.DocumentKind][]string{
	types.KindResume: {
		"resume", "curriculum vitae", "objective", "summary",
		"education", "experience", "skills", "projects", "references",
	},
	types.KindPayslip: {
		"payslip", "pay slip", "salary slip", "earnings", "deductions",
		"net pay", "gross pay", "basic pay", "hra", "pf no",
	},
	types.KindExperienceLetter: {
		"to whom it may concern", "experience letter", "relieving letter",
		"this is to certify", "was employed", "worked with us", "tenure",
		"date of joining", "date of leaving",
	},
	types.KindCertificate: {
		"certificate", "certification", "has successfully completed",
		"degree", "university", "gpa", "cgpa", "awarded", "graduation",
	},
}

// 文件名片段到文档类型的提示
var filenameHints = map[types.DocumentKind][]string{
	types.KindResume:           {"resume", "cv"},
	types.KindPayslip:          {"payslip", "salary", "slip"},
	types.KindExperienceLetter: {"experience", "relieving", "letter"},
	types.KindCertificate:      {"certificate", "cert", "degree", "diploma"},
}

// ClassifyDocument 基于文件名与内容指示词推断文档类型。
// 得分不足时 ok 返回 false，调用方应回退到声明的类型。
// 置信度随命中数单调上升，封顶 0.95。
func ClassifyDocument(filename, text string) (types.Classification, bool) {
	lowerText := strings.ToLower(text)
	lowerName := strings.ToLower(filepath.Base(filename))

	var bestKind types.DocumentKind
	bestScore := 0

	for _, kind := range types.AllKinds() {
		score := 0
		for _, ind := range kindIndicators[kind] {
			if strings.Contains(lowerText, ind) {
				score++
			}
		}
		for _, hint := range filenameHints[kind] {
			if strings.Contains(lowerName, hint) {
				score += filenameScoreBonus
				break
			}
		}
		if score > bestScore {
			bestScore = score
			bestKind = kind
		}
	}

	if bestScore < minClassifyScore {
		return types.Classification{}, false
	}

	confidence := math.Min(0.5+float64(bestScore)*0.05, 0.95)
	return types.Classification{Kind: bestKind, Confidence: confidence}, true
}
