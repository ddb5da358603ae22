package parser

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"hrdoc-go/internal/types"
)

// ErrMalformedBank 模式库构造校验失败。属于配置错误，启动时即失败。
var ErrMalformedBank = errors.New("malformed pattern bank")

// FieldRule 单条抽取规则。实现之一：PatternRule、KeywordWindowRule、ComputedRule。
type FieldRule interface {
	ruleKind() string
}

// PatternRule 显式正则规则，捕获组1为字段值。
// PickLast 为 true 时取文本中最后一次命中（如多次出现的净工资，最终金额在末尾）。
type PatternRule struct {
	Pattern  *regexp.Regexp
	PickLast bool
}

func (PatternRule) ruleKind() string { return "pattern" }

// KeywordWindowRule 关键字窗口规则：任一关键字命中后，
// 在其后 Window 个字符的窗口内用 Value 匹配字段值。
type KeywordWindowRule struct {
	Keywords []string
	Window   int
	Value    *regexp.Regexp
}

func (KeywordWindowRule) ruleKind() string { return "keyword_window" }

// ComputedRule 推导规则：当显式规则和兜底均未解析出数值时，
// 由 Inputs 中全部已解析数值字段经 Compute 推导。
// 推导只读快照，本轮的推导结果互相不可见。
type ComputedRule struct {
	Inputs  []string
	Compute func(in map[string]float64) float64
}

func (ComputedRule) ruleKind() string { return "computed" }

// CleanFunc 文本字段值的清洗函数
type CleanFunc func(string) string

// FieldSpec 单个字段的抽取规格：规则按优先级排列，排在前面的胜出
type FieldSpec struct {
	Name     string
	Required bool
	Numeric  bool
	// MinValue/MaxValue 数值可信区间，两者均为0表示不限制（仅要求正数）
	MinValue float64
	MaxValue float64
	Rules    []FieldRule
	Clean    CleanFunc
}

// FallbackFunc 类型级兜底启发式，在所有字段规则跑完、推导规则之前执行。
// 只允许填充尚未解析的字段。
type FallbackFunc func(fc *FallbackContext)

// FallbackContext 兜底启发式的执行环境
type FallbackContext struct {
	Text   string
	Lines  []string
	Result *types.FieldExtractionResult
	// ScanLines 末尾扫描深度，来自配置
	ScanLines int
}

// SetFallback 以兜底方式填充字段，字段已解析时不覆盖
func (fc *FallbackContext) SetFallback(name, value string, number float64, numeric bool) {
	fv, ok := fc.Result.Fields[name]
	if !ok || fv.Resolved {
		return
	}
	fv.Value = value
	fv.Number = number
	fv.IsNumeric = numeric
	fv.Method = types.MethodFallbackHeuristic
	fv.Resolved = true
	fv.RawMatches = append(fv.RawMatches, value)
}

// Bank 一种文档类型的完整模式库。构造校验通过后不可变。
type Bank struct {
	kind      types.DocumentKind
	fields    []FieldSpec
	fallbacks []FallbackFunc
	scanLines int
}

// BankOption Bank构造的可选配置
type BankOption func(*Bank)

// WithFallbackScanLines 设置兜底启发式扫描文档末尾的行数
func WithFallbackScanLines(n int) BankOption {
	return func(b *Bank) {
		if n > 0 {
			b.scanLines = n
		}
	}
}

// NewBank 构造并校验模式库。
// 校验失败返回 ErrMalformedBank 包装错误，调用方应视为致命配置错误。
func NewBank(kind types.DocumentKind, fields []FieldSpec, fallbacks []FallbackFunc, opts ...BankOption) (*Bank, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: 未知文档类型 %q", ErrMalformedBank, kind)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: %s 模式库为空", ErrMalformedBank, kind)
	}

	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		if strings.TrimSpace(f.Name) == "" {
			return nil, fmt.Errorf("%w: %s 存在空字段名", ErrMalformedBank, kind)
		}
		if seen[f.Name] {
			return nil, fmt.Errorf("%w: %s 字段 %q 重复", ErrMalformedBank, kind, f.Name)
		}
		seen[f.Name] = true

		for i, r := range f.Rules {
			switch rule := r.(type) {
			case PatternRule:
				if rule.Pattern == nil {
					return nil, fmt.Errorf("%w: %s.%s 规则#%d 缺少正则", ErrMalformedBank, kind, f.Name, i)
				}
				if rule.Pattern.NumSubexp() < 1 {
					return nil, fmt.Errorf("%w: %s.%s 规则#%d 正则缺少捕获组", ErrMalformedBank, kind, f.Name, i)
				}
			case KeywordWindowRule:
				if len(rule.Keywords) == 0 || rule.Value == nil || rule.Window <= 0 {
					return nil, fmt.Errorf("%w: %s.%s 规则#%d 关键字窗口规则不完整", ErrMalformedBank, kind, f.Name, i)
				}
				if rule.Value.NumSubexp() < 1 {
					return nil, fmt.Errorf("%w: %s.%s 规则#%d 窗口值正则缺少捕获组", ErrMalformedBank, kind, f.Name, i)
				}
			case ComputedRule:
				if rule.Compute == nil || len(rule.Inputs) == 0 {
					return nil, fmt.Errorf("%w: %s.%s 规则#%d 推导规则不完整", ErrMalformedBank, kind, f.Name, i)
				}
				if !f.Numeric {
					return nil, fmt.Errorf("%w: %s.%s 推导规则只适用于数值字段", ErrMalformedBank, kind, f.Name)
				}
			default:
				return nil, fmt.Errorf("%w: %s.%s 规则#%d 未知规则类型", ErrMalformedBank, kind, f.Name, i)
			}
		}
	}

	// 推导规则的输入必须是库内已知字段
	for _, f := range fields {
		for _, r := range f.Rules {
			cr, ok := r.(ComputedRule)
			if !ok {
				continue
			}
			for _, in := range cr.Inputs {
				if !seen[in] {
					return nil, fmt.Errorf("%w: %s.%s 推导输入 %q 不在模式库中", ErrMalformedBank, kind, f.Name, in)
				}
			}
		}
	}

	b := &Bank{
		kind:      kind,
		fields:    fields,
		fallbacks: fallbacks,
		scanLines: 5,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Kind 模式库对应的文档类型
func (b *Bank) Kind() types.DocumentKind { return b.kind }

// FieldOrder 模式库定义的字段固定顺序
func (b *Bank) FieldOrder() []string {
	order := make([]string, len(b.fields))
	for i, f := range b.fields {
		order[i] = f.Name
	}
	return order
}

// RequiredFields 必备字段名集合
func (b *Bank) RequiredFields() []string {
	var out []string
	for _, f := range b.fields {
		if f.Required {
			out = append(out, f.Name)
		}
	}
	return out
}
