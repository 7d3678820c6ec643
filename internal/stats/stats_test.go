package stats

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/tabreport/internal/table"
)

func mustTable(t *testing.T, names []string, cols [][]any) *table.Table {
	t.Helper()
	tbl, err := table.FromColumns(names, cols)
	require.NoError(t, err)
	return tbl
}

func TestSummarizeSkipsNonNumeric(t *testing.T) {
	tbl := mustTable(t, []string{"A", "B"}, [][]any{{1, 2, 3, 4}, {"x", "y", "z", "w"}})
	s, err := Summarize(tbl)
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, s.Columns())
	assert.Equal(t, Labels, s.Index)

	want := map[string]float64{
		"count": 4, "mean": 2.5, "min": 1, "max": 4,
		"25%": 1.75, "50%": 2.5, "75%": 3.25,
		"std": math.Sqrt(5.0 / 3.0),
	}
	for label, v := range want {
		got, ok := s.Value(label, "A")
		require.True(t, ok, label)
		assert.InDelta(t, v, got, 1e-9, label)
	}
	_, ok := s.Value("mean", "B")
	assert.False(t, ok)
}

func TestSummarizeNullsAndSingleValue(t *testing.T) {
	tbl := mustTable(t, []string{"one", "gappy"}, [][]any{{7, nil, nil}, {1, nil, 3}})
	s, err := Summarize(tbl)
	require.NoError(t, err)

	count, _ := s.Value("count", "one")
	assert.Equal(t, 1.0, count)
	_, ok := s.Value("std", "one")
	assert.False(t, ok, "single-value std is null")

	count, _ = s.Value("count", "gappy")
	assert.Equal(t, 2.0, count)
	mean, _ := s.Value("mean", "gappy")
	assert.Equal(t, 2.0, mean)
}

func TestSummarizeNoData(t *testing.T) {
	_, err := Summarize(mustTable(t, []string{"B"}, [][]any{{"x", "y"}}))
	assert.True(t, errors.Is(err, ErrNoData))

	_, err = Summarize(mustTable(t, []string{"A"}, [][]any{{}}))
	assert.True(t, errors.Is(err, ErrNoData))
}

func TestMarkdown(t *testing.T) {
	tbl := mustTable(t, []string{"月份", "销售额"}, [][]any{{"1月", "2月"}, {100, 200}})
	s, err := Summarize(tbl)
	require.NoError(t, err)
	md := Markdown("demo", tbl, s)
	assert.True(t, strings.Contains(md, "- 销售额: numeric (non-null 2, missing 0.0%)"), md)
	assert.True(t, strings.Contains(md, "| mean | 150 |"), md)
	assert.True(t, strings.Contains(md, "| std | 70.71 |"), md)

	md = Markdown("", tbl, nil)
	assert.Contains(t, md, "statistics omitted")
}
