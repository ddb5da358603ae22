package parser

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrdoc-go/internal/types"
)

func mustBank(t *testing.T, fields []FieldSpec, fallbacks []FallbackFunc) *Bank {
	t.Helper()
	bank, err := NewBank(types.KindPayslip, fields, fallbacks)
	require.NoError(t, err)
	return bank
}

func TestRunAlwaysIncludesEveryFieldKey(t *testing.T) {
	bank := mustBank(t, []FieldSpec{
		{Name: "a", Rules: []FieldRule{PatternRule{Pattern: regexp.MustCompile(`a=(\w+)`)}}},
		{Name: "b", Rules: []FieldRule{PatternRule{Pattern: regexp.MustCompile(`b=(\w+)`)}}},
	}, nil)

	result := bank.Run("a=hello", types.NormalizeSignals{})
	require.Contains(t, result.Fields, "a")
	require.Contains(t, result.Fields, "b", "未命中的字段键也必须存在")
	assert.True(t, result.Fields["a"].Resolved)
	assert.False(t, result.Fields["b"].Resolved)
	assert.Equal(t, types.MethodUnresolved, result.Fields["b"].Method)
	assert.Equal(t, []string{"a", "b"}, result.Order)
}

func TestRunFirstRuleWins(t *testing.T) {
	bank := mustBank(t, []FieldSpec{
		{Name: "x", Rules: []FieldRule{
			PatternRule{Pattern: regexp.MustCompile(`primary=(\w+)`)},
			PatternRule{Pattern: regexp.MustCompile(`secondary=(\w+)`)},
		}},
	}, nil)

	result := bank.Run("secondary=low primary=high", types.NormalizeSignals{})
	fv := result.Fields["x"]
	assert.Equal(t, "high", fv.Value, "排在前面的规则应胜出")
	assert.Equal(t, types.MethodExplicitPattern, fv.Method)
	// 后续规则的命中仍进入审计记录
	assert.Equal(t, []string{"high", "low"}, fv.RawMatches)
}

func TestRunFirstOccurrenceTieBreak(t *testing.T) {
	bank := mustBank(t, []FieldSpec{
		{Name: "x", Rules: []FieldRule{PatternRule{Pattern: regexp.MustCompile(`v=(\w+)`)}}},
	}, nil)

	result := bank.Run("v=first v=second v=third", types.NormalizeSignals{})
	assert.Equal(t, "first", result.Fields["x"].Value, "同一规则多次命中时取最早的")
	assert.Equal(t, []string{"first", "second", "third"}, result.Fields["x"].RawMatches)
}

func TestRunPickLast(t *testing.T) {
	bank := mustBank(t, []FieldSpec{
		{Name: "net", Numeric: true, Rules: []FieldRule{
			PatternRule{Pattern: regexp.MustCompile(`net=(\d+)`), PickLast: true},
		}},
	}, nil)

	result := bank.Run("net=100 net=250", types.NormalizeSignals{})
	assert.Equal(t, 250.0, result.Fields["net"].Number, "PickLast规则应取最后一次命中")
}

func TestRunNumericBounds(t *testing.T) {
	bank := mustBank(t, []FieldSpec{
		{Name: "amount", Numeric: true, MinValue: 1000, MaxValue: 500000,
			Rules: []FieldRule{PatternRule{Pattern: regexp.MustCompile(`amt=(\d+)`)}}},
	}, nil)

	result := bank.Run("amt=15 amt=2000 amt=900000", types.NormalizeSignals{})
	fv := result.Fields["amount"]
	assert.Equal(t, 2000.0, fv.Number, "应跳过区间外的候选取第一个可信值")
	assert.Equal(t, []string{"15", "2000", "900000"}, fv.RawMatches, "区间外候选仍保留在审计记录")
}

func TestRunKeywordWindowRule(t *testing.T) {
	bank := mustBank(t, []FieldSpec{
		{Name: "gpa", Numeric: true, Rules: []FieldRule{
			KeywordWindowRule{Keywords: []string{"gpa"}, Window: 20, Value: regexp.MustCompile(`(\d+\.?\d*)`)},
		}},
	}, nil)

	result := bank.Run("GPA\n8.6 out of 10", types.NormalizeSignals{})
	assert.Equal(t, 8.6, result.Fields["gpa"].Number, "关键字窗口应跨行命中数值")
}

func TestRunComputedFromSnapshot(t *testing.T) {
	bank := mustBank(t, []FieldSpec{
		{Name: "basic", Numeric: true, Rules: []FieldRule{PatternRule{Pattern: regexp.MustCompile(`basic=(\d+)`)}}},
		{Name: "hra", Numeric: true, Rules: []FieldRule{PatternRule{Pattern: regexp.MustCompile(`hra=(\d+)`)}}},
		{Name: "total", Numeric: true, Rules: []FieldRule{
			ComputedRule{
				Inputs: []string{"basic", "hra"},
				Compute: func(in map[string]float64) float64 { return in["basic"] + in["hra"] },
			},
		}},
	}, nil)

	result := bank.Run("basic=15000 hra=5000", types.NormalizeSignals{})
	fv := result.Fields["total"]
	assert.True(t, fv.Resolved)
	assert.Equal(t, 20000.0, fv.Number)
	assert.Equal(t, "20000", fv.Value, "整数金额不应带小数位")
	assert.Equal(t, types.MethodComputed, fv.Method)
}

func TestRunComputedResultsInvisibleToEachOther(t *testing.T) {
	// b 依赖 a 的推导结果，但推导统一基于执行前的快照，b 必须保持未解析
	bank := mustBank(t, []FieldSpec{
		{Name: "seed", Numeric: true, Rules: []FieldRule{PatternRule{Pattern: regexp.MustCompile(`seed=(\d+)`)}}},
		{Name: "a", Numeric: true, Rules: []FieldRule{
			ComputedRule{Inputs: []string{"seed"}, Compute: func(in map[string]float64) float64 { return in["seed"] * 2 }},
		}},
		{Name: "b", Numeric: true, Rules: []FieldRule{
			ComputedRule{Inputs: []string{"a"}, Compute: func(in map[string]float64) float64 { return in["a"] + 1 }},
		}},
	}, nil)

	result := bank.Run("seed=10", types.NormalizeSignals{})
	assert.True(t, result.Fields["a"].Resolved)
	assert.Equal(t, 20.0, result.Fields["a"].Number)
	assert.False(t, result.Fields["b"].Resolved, "本轮推导结果互相不可见")
}

func TestRunComputedSkippedWhenInputMissing(t *testing.T) {
	bank := mustBank(t, []FieldSpec{
		{Name: "a", Numeric: true, Rules: []FieldRule{PatternRule{Pattern: regexp.MustCompile(`a=(\d+)`)}}},
		{Name: "sum", Numeric: true, Rules: []FieldRule{
			ComputedRule{Inputs: []string{"a", "missing_dep"}, Compute: func(in map[string]float64) float64 { return 1 }},
		}},
		{Name: "missing_dep", Numeric: true, Rules: []FieldRule{PatternRule{Pattern: regexp.MustCompile(`dep=(\d+)`)}}},
	}, nil)

	result := bank.Run("a=5", types.NormalizeSignals{})
	assert.False(t, result.Fields["sum"].Resolved, "任一输入缺失时不推导")
}

func TestRunFallbackNeverOverwrites(t *testing.T) {
	overwrite := func(fc *FallbackContext) {
		fc.SetFallback("x", "from_fallback", 0, false)
	}
	bank := mustBank(t, []FieldSpec{
		{Name: "x", Rules: []FieldRule{PatternRule{Pattern: regexp.MustCompile(`x=(\w+)`)}}},
	}, []FallbackFunc{overwrite})

	result := bank.Run("x=explicit", types.NormalizeSignals{})
	assert.Equal(t, "explicit", result.Fields["x"].Value, "兜底不应覆盖已解析字段")
	assert.Equal(t, types.MethodExplicitPattern, result.Fields["x"].Method)

	result = bank.Run("nothing here", types.NormalizeSignals{})
	assert.Equal(t, "from_fallback", result.Fields["x"].Value)
	assert.Equal(t, types.MethodFallbackHeuristic, result.Fields["x"].Method)
}

func TestRunCleanRejectsCandidate(t *testing.T) {
	bank := mustBank(t, []FieldSpec{
		{Name: "name",
			Rules: []FieldRule{PatternRule{Pattern: regexp.MustCompile(`name=(\w+)`)}},
			Clean: func(s string) string {
				if s == "bad" {
					return ""
				}
				return s
			}},
	}, nil)

	result := bank.Run("name=bad name=good", types.NormalizeSignals{})
	assert.Equal(t, "good", result.Fields["name"].Value, "Clean返回空串的候选应跳过")
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "23000", formatAmount(23000))
	assert.Equal(t, "1234.50", formatAmount(1234.5), "非整数保留两位小数")
}
