package parser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlexibleDate(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"15/06/2019", "2019-06-15"},
		{"2019-06-15", "2019-06-15"},
		{"June 1, 2019", "2019-06-01"},
		{"1st June 2019", "2019-06-01"},
		{"23rd March 2020", "2020-03-23"},
		{"March 2020", "2020-03-01"},
		{"Jan 5, 2021", "2021-01-05"},
	}
	for _, tc := range cases {
		parsed, ok := parseFlexibleDate(tc.in)
		require.True(t, ok, "应能解析 %q", tc.in)
		assert.Equal(t, tc.want, parsed.Format("2006-01-02"), "输入 %q", tc.in)
	}

	_, ok := parseFlexibleDate("not a date")
	assert.False(t, ok)
}

func TestDurationYears(t *testing.T) {
	start := time.Date(2019, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2022, 8, 31, 0, 0, 0, 0, time.UTC)
	assert.InDelta(t, 3.25, durationYears(start, end), 0.001, "按365.25天/年折算并保留两位小数")

	oneYear := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.InDelta(t, 1.0, durationYears(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), oneYear), 0.01)
}

func TestExtractDatesWithContext(t *testing.T) {
	text := "Date: 15/03/2023\n\nTo Whom It May Concern\n\nThis is to certify that John Smith was employed " +
		"with Acme Pvt Ltd as a Software Engineer from 01/06/2019 to 31/08/2022."

	dates := extractDatesWithContext(text)
	require.Len(t, dates, 3, "应识别出签发日期和两个在职日期")

	assert.Equal(t, dateTypeDocument, dates[0].Type, "文档头部带date:前缀的是签发日期")
	assert.Equal(t, "2023-03-15", dates[0].Parsed.Format("2006-01-02"))

	assert.Equal(t, dateTypeStart, dates[1].Type, "from后面的日期是开始日期")
	assert.Equal(t, "2019-06-01", dates[1].Parsed.Format("2006-01-02"))

	assert.Equal(t, dateTypeEnd, dates[2].Type, "to后面的日期是结束日期")
	assert.Equal(t, "2022-08-31", dates[2].Parsed.Format("2006-01-02"))
}

func TestExtractDatesNoDoubleCount(t *testing.T) {
	// "15 June 2019" 同时被 DD Month YYYY 和 Month YYYY 覆盖，只应计一次
	text := "This is to certify that the employee joined the organization on 15 June 2019 as an analyst."
	dates := extractDatesWithContext(text)
	require.Len(t, dates, 1, "重叠的日期模式不应重复计数")
	assert.Equal(t, "2019-06-15", dates[0].Parsed.Format("2006-01-02"))
	assert.Equal(t, dateTypeStart, dates[0].Type, "joined上下文应分类为开始日期")
}

func TestContainsAnyWordBoundary(t *testing.T) {
	assert.False(t, containsAnyWord("joined in october 2020", []string{"to"}), "to不应命中october")
	assert.True(t, containsAnyWord("worked to 2020", []string{"to"}))
	assert.True(t, containsAnyWord("from 2019", []string{"from"}))
	assert.False(t, containsAnyWord("performed well", []string{"from"}), "from不应命中performed的子串")
}

func TestLastWordIndex(t *testing.T) {
	// from...to 句式中离日期最近的关键字决定角色
	before := "as a software engineer from 01/06/2019 to "
	si := lastWordIndex(before, startDateKeywords)
	ei := lastWordIndex(before, endDateKeywords)
	assert.Greater(t, ei, si, "to出现在from之后")
	assert.Equal(t, -1, lastWordIndex("no keywords here", endDateKeywords))
}
