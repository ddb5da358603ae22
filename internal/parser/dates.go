package parser

import (
	"regexp"
	"sort"
	"strings"
	"time"
)

// dateContextType 日期在上下文中的角色
type dateContextType string

const (
	dateTypeUnknown  dateContextType = "unknown"
	dateTypeDocument dateContextType = "document_date"
	dateTypeStart    dateContextType = "start_date"
	dateTypeEnd      dateContextType = "end_date"
)

// dateMatch 文本中识别到的一个日期及其上下文角色
type dateMatch struct {
	Raw      string
	Parsed   time.Time
	Position int
	Type     dateContextType
}

// 多种书写格式的日期正则，顺序即尝试顺序
var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b\d{1,2}[/\-.]\d{1,2}[/\-.]\d{4}\b`),           // DD/MM/YYYY
	regexp.MustCompile(`\b\d{4}[/\-.]\d{1,2}[/\-.]\d{1,2}\b`),           // YYYY/MM/DD
	regexp.MustCompile(`(?i)\b[A-Za-z]{3,12}\s+\d{1,2},?\s+\d{4}\b`),    // Month DD, YYYY
	regexp.MustCompile(`(?i)\b\d{1,2}(?:st|nd|rd|th)?\s+[A-Za-z]{3,12}\s+\d{4}\b`), // DD Month YYYY
	regexp.MustCompile(`(?i)\b[A-Za-z]{3,12}\s+\d{4}\b`),                // Month YYYY
}

// 解析时依次尝试的布局
var dateLayouts = []string{
	"02/01/2006", "01/02/2006", "2006/01/02",
	"02-01-2006", "01-02-2006", "2006-01-02",
	"02.01.2006", "2006.01.02",
	"January 2, 2006", "January 2 2006", "2 January 2006", "January 2006",
	"Jan 2, 2006", "Jan 2 2006", "2 Jan 2006", "Jan 2006",
}

var ordinalSuffixRe = regexp.MustCompile(`(\d{1,2})(?:st|nd|rd|th)`)

// 开始/结束日期的上下文关键字
var (
	startDateKeywords = []string{"from", "since", "joined", "started", "employed from", "worked from"}
	endDateKeywords   = []string{"to", "until", "till", "ended", "left", "relieved"}
)

// parseFlexibleDate 宽松解析多种书写格式的日期
func parseFlexibleDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	s = ordinalSuffixRe.ReplaceAllString(s, "$1")
	s = titleWords(strings.ToLower(s))
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// titleWords 月份名首字母大写，供 time.Parse 的英文月份布局使用
func titleWords(s string) string {
	parts := strings.Fields(s)
	for i, p := range parts {
		if p[0] >= 'a' && p[0] <= 'z' {
			parts[i] = string(p[0]-'a'+'A') + p[1:]
		}
	}
	return strings.Join(parts, " ")
}

// extractDatesWithContext 抽取文本中的全部日期并按上下文分类。
// 分类规则：
//   - 文档头部（前100字符内）且前文含 "date:"，或位置在前50字符内 → 签发日期
//   - 前后50字符窗口内出现入职类关键字 → 开始日期
//   - 前后50字符窗口内出现离职类关键字 → 结束日期
//
// 返回结果按文本位置排序。
func extractDatesWithContext(text string) []dateMatch {
	var found []dateMatch
	var spans [][2]int

	covered := func(pos int) bool {
		for _, s := range spans {
			if pos >= s[0] && pos < s[1] {
				return true
			}
		}
		return false
	}

	for _, pattern := range datePatterns {
		for _, loc := range pattern.FindAllStringIndex(text, -1) {
			if covered(loc[0]) {
				continue // 更具体的模式已覆盖该位置
			}
			raw := text[loc[0]:loc[1]]
			parsed, ok := parseFlexibleDate(raw)
			if !ok {
				continue
			}
			spans = append(spans, [2]int{loc[0], loc[1]})

			ctxStart := loc[0] - 50
			if ctxStart < 0 {
				ctxStart = 0
			}
			ctxEnd := loc[1] + 50
			if ctxEnd > len(text) {
				ctxEnd = len(text)
			}
			before := strings.ToLower(text[ctxStart:loc[0]])
			after := strings.ToLower(text[loc[1]:ctxEnd])

			dType := dateTypeUnknown
			if loc[0] < 100 && (strings.Contains(before, "date:") || loc[0] < 50) {
				dType = dateTypeDocument
			} else {
				// "from X to Y" 里两个日期的前文都含 from，取离日期最近的关键字定角色
				si := lastWordIndex(before, startDateKeywords)
				ei := lastWordIndex(before, endDateKeywords)
				switch {
				case si >= 0 || ei >= 0:
					if si > ei {
						dType = dateTypeStart
					} else {
						dType = dateTypeEnd
					}
				case containsAnyWord(after, startDateKeywords):
					dType = dateTypeStart
				case containsAnyWord(after, endDateKeywords):
					dType = dateTypeEnd
				}
			}

			found = append(found, dateMatch{Raw: raw, Parsed: parsed, Position: loc[0], Type: dType})
		}
	}

	sort.Slice(found, func(i, j int) bool { return found[i].Position < found[j].Position })
	return found
}

// lastWordIndex 返回任一关键字词边界安全的最后命中位置，无命中返回 -1
func lastWordIndex(text string, keywords []string) int {
	best := -1
	for _, kw := range keywords {
		idx := 0
		for {
			pos := strings.Index(text[idx:], kw)
			if pos < 0 {
				break
			}
			abs := idx + pos
			beforeOK := abs == 0 || !isWordChar(text[abs-1])
			after := abs + len(kw)
			afterOK := after >= len(text) || !isWordChar(text[after])
			if beforeOK && afterOK && abs > best {
				best = abs
			}
			idx = abs + len(kw)
		}
	}
	return best
}

// containsAnyWord 词边界敏感的关键字查找，"to" 不应命中 "october"
func containsAnyWord(text string, keywords []string) bool {
	for _, kw := range keywords {
		idx := 0
		for {
			pos := strings.Index(text[idx:], kw)
			if pos < 0 {
				break
			}
			abs := idx + pos
			beforeOK := abs == 0 || !isWordChar(text[abs-1])
			after := abs + len(kw)
			afterOK := after >= len(text) || !isWordChar(text[after])
			if beforeOK && afterOK {
				return true
			}
			idx = abs + len(kw)
		}
	}
	return false
}

func isWordChar(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}

// durationYears 两个日期间的年数，按365.25天/年折算，保留两位小数
func durationYears(start, end time.Time) float64 {
	days := end.Sub(start).Hours() / 24
	years := days / 365.25
	return float64(int(years*100+0.5)) / 100
}
