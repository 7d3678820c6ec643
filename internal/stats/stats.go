package stats

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/KaramelBytes/tabreport/internal/table"
)

// ErrNoData is returned when there is nothing numeric to summarize.
var ErrNoData = errors.New("no numeric data to summarize")

// Labels are the statistic names, in row order.
var Labels = []string{"count", "mean", "std", "min", "25%", "50%", "75%", "max"}

// Summary is a derived table: one row per statistic in Labels, one numeric
// column per numeric column of the source. Undefined statistics are null.
type Summary struct {
	Index []string
	Table *table.Table
}

// Summarize computes descriptive statistics for every numeric column.
// Non-numeric columns are skipped. The sample standard deviation uses an
// N-1 denominator and is null for single-value columns.
func Summarize(t *table.Table) (*Summary, error) {
	if t == nil || t.Rows() == 0 {
		return nil, fmt.Errorf("%w: table has no rows", ErrNoData)
	}
	numeric := t.NumericColumns()
	if len(numeric) == 0 {
		return nil, fmt.Errorf("%w: table has no numeric columns", ErrNoData)
	}
	names := make([]string, len(numeric))
	cols := make([][]any, len(numeric))
	for i, c := range numeric {
		names[i] = c.Name
		cols[i] = describe(c.Floats())
	}
	st, err := table.FromColumns(names, cols)
	if err != nil {
		return nil, fmt.Errorf("build summary: %w", err)
	}
	idx := make([]string, len(Labels))
	copy(idx, Labels)
	return &Summary{Index: idx, Table: st}, nil
}

func describe(vals []float64) []any {
	out := make([]any, len(Labels))
	n := len(vals)
	out[0] = float64(n)
	if n == 0 {
		return out
	}
	// Welford
	var mean, m2 float64
	for i, x := range vals {
		delta := x - mean
		mean += delta / float64(i+1)
		m2 += delta * (x - mean)
	}
	out[1] = mean
	if n > 1 {
		out[2] = math.Sqrt(m2 / float64(n-1))
	}
	sorted := make([]float64, n)
	copy(sorted, vals)
	sort.Float64s(sorted)
	out[3] = sorted[0]
	out[4] = quantile(sorted, 0.25)
	out[5] = quantile(sorted, 0.5)
	out[6] = quantile(sorted, 0.75)
	out[7] = sorted[n-1]
	return out
}

// Value returns the statistic for a column; ok is false when the column is
// unknown or the statistic is undefined.
func (s *Summary) Value(label, column string) (float64, bool) {
	row := -1
	for i, l := range s.Index {
		if l == label {
			row = i
			break
		}
	}
	c, found := s.Table.Column(column)
	if row < 0 || !found {
		return 0, false
	}
	return c.Float(row)
}

// Columns returns the summarized column names.
func (s *Summary) Columns() []string { return s.Table.ColumnNames() }

func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

// Markdown renders the schema of the source table and the summary as a
// compact text report.
func Markdown(name string, t *table.Table, s *Summary) string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", name))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", t.Rows()))
	b.WriteString(fmt.Sprintf("Columns: %d\n\n", t.NumCols()))

	b.WriteString("[SCHEMA]\n")
	for _, c := range t.Columns() {
		missing := c.NullCount()
		missPct := 0.0
		if c.Len() > 0 {
			missPct = float64(missing) * 100.0 / float64(c.Len())
		}
		b.WriteString(fmt.Sprintf("- %s: %s (non-null %d, missing %.1f%%)\n", safeName(c.Name), c.Kind, c.Len()-missing, missPct))
	}
	if s == nil {
		b.WriteString("\n[NOTES]\n- no numeric columns; statistics omitted\n")
		return b.String()
	}
	b.WriteString("\n[STATISTICS]\n| stat |")
	for _, n := range s.Columns() {
		b.WriteString(" ")
		b.WriteString(safeName(n))
		b.WriteString(" |")
	}
	b.WriteString("\n|---|")
	b.WriteString(strings.Repeat("---|", len(s.Columns())))
	b.WriteString("\n")
	for i, label := range s.Index {
		b.WriteString("| ")
		b.WriteString(label)
		b.WriteString(" |")
		for _, c := range s.Table.Columns() {
			if v, ok := c.Float(i); ok {
				b.WriteString(fmt.Sprintf(" %.4g |", v))
			} else {
				b.WriteString(" n/a |")
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return strings.ReplaceAll(s, "|", "/")
}
