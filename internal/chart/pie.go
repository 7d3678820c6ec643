package chart

import (
	"bytes"
	"fmt"

	gochart "github.com/wcharczuk/go-chart/v2"

	"github.com/KaramelBytes/tabreport/internal/table"
)

type pieRenderer struct{}

// slice is one aggregated pie segment.
type slice struct {
	Label string
	Value float64
}

// aggregate sums y per distinct x label in order of first appearance. Nulls
// and non-positive totals are dropped.
func aggregate(t *table.Table, x, y string) []slice {
	xcol, _ := t.Column(x)
	ycol, _ := t.Column(y)
	pos := map[string]int{}
	var out []slice
	for r := 0; r < t.Rows(); r++ {
		v, ok := ycol.Float(r)
		if !ok {
			continue
		}
		label := xcol.String(r)
		i, seen := pos[label]
		if !seen {
			i = len(out)
			pos[label] = i
			out = append(out, slice{Label: label})
		}
		out[i].Value += v
	}
	kept := out[:0]
	for _, s := range out {
		if s.Value > 0 {
			kept = append(kept, s)
		}
	}
	return kept
}

func (pieRenderer) render(t *table.Table, s Spec) ([]byte, error) {
	slices := aggregate(t, s.X, s.Y[0])
	if len(slices) == 0 {
		return nil, fmt.Errorf("%w: pie column %q has no positive values", ErrInvalidChartSpec, s.Y[0])
	}
	var total float64
	for _, sl := range slices {
		total += sl.Value
	}
	values := make([]gochart.Value, len(slices))
	for i, sl := range slices {
		values[i] = gochart.Value{
			Value: sl.Value,
			Label: fmt.Sprintf("%s %.1f%%", sl.Label, sl.Value*100/total),
		}
	}
	pie := gochart.PieChart{
		Title:  s.Title,
		Width:  s.Size.Width,
		Height: s.Size.Height,
		Values: values,
	}
	var buf bytes.Buffer
	if err := pie.Render(gochart.PNG, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
