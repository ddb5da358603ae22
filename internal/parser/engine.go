package parser

import (
	"strconv"
	"strings"

	"hrdoc-go/internal/types"
)

// Run 在归一化文本上执行模式库，产出完整的字段抽取结果。
//
// 执行分三个阶段，顺序固定：
//  1. 显式规则：每个字段按优先级尝试规则，第一条产出有效值的规则胜出；
//     同一规则多次命中时取文本中最早的一次（PickLast 规则取最后一次）。
//     所有规则的候选命中都保留在 raw_matches 中供审计。
//  2. 类型级兜底启发式：只填充仍未解析的字段。
//  3. 推导规则：基于阶段1/2结果的只读快照推导，
//     本阶段各推导互相不可见，字段声明顺序不影响结果。
//
// 结果保证包含模式库的每个字段键，未解析字段标记 unresolved。
func (b *Bank) Run(text string, signals types.NormalizeSignals) *types.FieldExtractionResult {
	result := &types.FieldExtractionResult{
		Kind:    b.kind,
		Order:   b.FieldOrder(),
		Fields:  make(map[string]*types.FieldValue, len(b.fields)),
		Signals: signals,
	}
	for _, f := range b.fields {
		result.Fields[f.Name] = &types.FieldValue{Method: types.MethodUnresolved}
	}

	// 阶段1: 显式规则
	for _, f := range b.fields {
		b.runFieldRules(f, text, result.Fields[f.Name])
	}

	// 阶段2: 类型级兜底
	if len(b.fallbacks) > 0 {
		fc := &FallbackContext{
			Text:      text,
			Lines:     SplitLines(text),
			Result:    result,
			ScanLines: b.scanLines,
		}
		for _, fb := range b.fallbacks {
			fb(fc)
		}
	}

	// 阶段3: 推导规则，统一基于执行前的快照
	snapshot := numericSnapshot(result)
	for _, f := range b.fields {
		fv := result.Fields[f.Name]
		if fv.Resolved {
			continue
		}
		for _, r := range f.Rules {
			cr, ok := r.(ComputedRule)
			if !ok {
				continue
			}
			in, complete := gatherInputs(snapshot, cr.Inputs)
			if !complete {
				continue
			}
			value := cr.Compute(in)
			if !numericValueOK(f, value) {
				continue
			}
			fv.Value = formatAmount(value)
			fv.Number = value
			fv.IsNumeric = true
			fv.Method = types.MethodComputed
			fv.Resolved = true
			break
		}
	}

	return result
}

// runFieldRules 对单个字段执行显式规则，第一条有效规则胜出
func (b *Bank) runFieldRules(f FieldSpec, text string, fv *types.FieldValue) {
	for _, r := range f.Rules {
		var candidates []string
		var pickLast bool

		switch rule := r.(type) {
		case PatternRule:
			for _, m := range rule.Pattern.FindAllStringSubmatch(text, -1) {
				if len(m) > 1 && m[1] != "" {
					candidates = append(candidates, m[1])
				}
			}
			pickLast = rule.PickLast
		case KeywordWindowRule:
			candidates = keywordWindowMatches(rule, text)
		case ComputedRule:
			continue // 推导规则在最后阶段执行
		}

		if len(candidates) == 0 {
			continue
		}
		fv.RawMatches = append(fv.RawMatches, candidates...)

		if fv.Resolved {
			continue // 已有胜出规则，后续规则只补充审计命中
		}

		if f.Numeric {
			if value, raw, ok := pickNumeric(f, candidates, pickLast); ok {
				fv.Value = raw
				fv.Number = value
				fv.IsNumeric = true
				fv.Method = types.MethodExplicitPattern
				fv.Resolved = true
			}
		} else {
			if value, ok := pickText(f, candidates); ok {
				fv.Value = value
				fv.Method = types.MethodExplicitPattern
				fv.Resolved = true
			}
		}
	}
}

// keywordWindowMatches 在每个关键字命中位置之后的窗口内匹配值
func keywordWindowMatches(rule KeywordWindowRule, text string) []string {
	lower := strings.ToLower(text)
	var out []string
	for _, kw := range rule.Keywords {
		kwLower := strings.ToLower(kw)
		offset := 0
		for {
			idx := strings.Index(lower[offset:], kwLower)
			if idx < 0 {
				break
			}
			start := offset + idx + len(kwLower)
			end := start + rule.Window
			if end > len(text) {
				end = len(text)
			}
			if m := rule.Value.FindStringSubmatch(text[start:end]); len(m) > 1 && m[1] != "" {
				out = append(out, m[1])
			}
			offset = start
		}
	}
	return out
}

// pickNumeric 从候选命中中选出第一个落在可信区间内的正数。
// pickLast 为 true 时从最后一个候选开始。
func pickNumeric(f FieldSpec, candidates []string, pickLast bool) (float64, string, bool) {
	ordered := candidates
	if pickLast {
		ordered = make([]string, len(candidates))
		for i, c := range candidates {
			ordered[len(candidates)-1-i] = c
		}
	}
	for _, c := range ordered {
		value, err := strconv.ParseFloat(strings.TrimSpace(c), 64)
		if err != nil {
			continue
		}
		if numericValueOK(f, value) {
			return value, strings.TrimSpace(c), true
		}
	}
	return 0, "", false
}

// pickText 取最早命中的有效候选；Clean 返回空串表示候选无效
func pickText(f FieldSpec, candidates []string) (string, bool) {
	for _, c := range candidates {
		value := strings.TrimSpace(c)
		if f.Clean != nil {
			value = f.Clean(value)
		}
		if len(value) > 1 {
			return value, true
		}
	}
	return "", false
}

func numericValueOK(f FieldSpec, value float64) bool {
	if value <= 0 {
		return false
	}
	if f.MinValue == 0 && f.MaxValue == 0 {
		return true
	}
	if f.MinValue != 0 && value < f.MinValue {
		return false
	}
	if f.MaxValue != 0 && value > f.MaxValue {
		return false
	}
	return true
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// numericSnapshot 收集已解析数值字段的只读快照
func numericSnapshot(result *types.FieldExtractionResult) map[string]float64 {
	snap := make(map[string]float64)
	for name, fv := range result.Fields {
		if fv.Resolved && fv.IsNumeric {
			snap[name] = fv.Number
		}
	}
	return snap
}

func gatherInputs(snap map[string]float64, inputs []string) (map[string]float64, bool) {
	in := make(map[string]float64, len(inputs))
	for _, name := range inputs {
		v, ok := snap[name]
		if !ok {
			return nil, false
		}
		in[name] = v
	}
	return in, true
}

// formatAmount 金额格式化：整数不带小数位，否则保留两位
func formatAmount(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}
