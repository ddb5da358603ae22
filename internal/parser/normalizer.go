package parser

import (
	"regexp"
	"strings"

	"hrdoc-go/internal/types"
)

// 货币符号表，归一化时剥离并置位信号。
// "â‚¹" 是UTF-8编码的卢比符号经Latin-1误解码后的字节序列，OCR输出中常见。
var currencySymbols = []string{"₹", "â‚¹", "Rs.", "Rs ", "$", "€", "£"}

// ocrSubstitutions OCR常见替换错误对照表。
// 仅替换出现在数字上下文中的字符，避免破坏正常单词。
var ocrSubstitutions = []struct {
	pattern *regexp.Regexp
	repl    string
}{
	// 数字中间的字母O误识别
	{regexp.MustCompile(`(\d)O(\d)`), `${1}0${2}`},
	// 数字中间的小写l误识别为1
	{regexp.MustCompile(`(\d)l(\d)`), `${1}1${2}`},
	// 全角冒号
	{regexp.MustCompile(`：`), `:`},
}

var (
	multiSpaceRe   = regexp.MustCompile(`[ \t]+`)
	multiNewlineRe = regexp.MustCompile(`\n{3,}`)
	smartQuotesRe  = regexp.MustCompile("[“”]")
	smartAposRe    = regexp.MustCompile("[‘’]")
)

// Normalize 对原始文档文本做确定性清洗，返回归一化文本及副产物信号。
// 纯函数：相同输入总是产出相同输出。
// 行结构保留不变，字段抽取的兜底启发式依赖行边界。
func Normalize(raw string) (string, types.NormalizeSignals) {
	signals := types.NormalizeSignals{}
	if raw == "" {
		return "", signals
	}

	text := raw

	// 统一换行符
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	// 剥离货币符号并记录信号
	for _, sym := range currencySymbols {
		if strings.Contains(text, sym) {
			if !signals.CurrencyDetected {
				signals.CurrencyDetected = true
				signals.CurrencySymbol = strings.TrimSpace(sym)
			}
			text = strings.ReplaceAll(text, sym, "")
		}
	}

	// 去掉数字千分位逗号，金额解析只面对纯数字
	text = stripThousandsSeparators(text)

	// 智能引号归一化
	text = smartQuotesRe.ReplaceAllString(text, `"`)
	text = smartAposRe.ReplaceAllString(text, `'`)

	// OCR替换错误修正
	for _, sub := range ocrSubstitutions {
		text = sub.pattern.ReplaceAllString(text, sub.repl)
	}

	// 行内空白折叠，保留换行
	text = multiSpaceRe.ReplaceAllString(text, " ")
	text = multiNewlineRe.ReplaceAllString(text, "\n\n")

	// 逐行修剪
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	text = strings.Join(lines, "\n")

	return strings.TrimSpace(text), signals
}

var thousandsRe = regexp.MustCompile(`(\d),(\d{3})`)

// stripThousandsSeparators 迭代去除数字中的千分位逗号，如 1,234,567 -> 1234567
func stripThousandsSeparators(text string) string {
	for {
		replaced := thousandsRe.ReplaceAllString(text, `${1}${2}`)
		if replaced == text {
			return replaced
		}
		text = replaced
	}
}

// SplitLines 返回归一化文本的非空行
func SplitLines(text string) []string {
	raw := strings.Split(text, "\n")
	out := make([]string, 0, len(raw))
	for _, line := range raw {
		if strings.TrimSpace(line) != "" {
			out = append(out, strings.TrimSpace(line))
		}
	}
	return out
}
