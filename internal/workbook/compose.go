package workbook

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/KaramelBytes/tabreport/internal/chart"
	"github.com/KaramelBytes/tabreport/internal/stats"
	"github.com/KaramelBytes/tabreport/internal/table"
)

// Layout holds the anchor cells used for charts on the data sheet.
type Layout struct {
	Bar, Line             string
	NativeBar, NativeLine string
}

// LayoutFor places charts to the right of the data, one blank column past the
// last data column. The line chart sits below the bar chart with a two row
// gap; native charts form a second column of the same shape.
func LayoutFor(t *table.Table, size chart.Size) Layout {
	col := t.NumCols() + 2
	lineRow := 1 + ceilDiv(size.Height, rowPixels) + 2
	nativeCol := col + ceilDiv(size.Width, colPixels) + 1
	return Layout{
		Bar:        cellName(col, 1),
		Line:       cellName(col, lineRow),
		NativeBar:  cellName(nativeCol, 1),
		NativeLine: cellName(nativeCol, lineRow),
	}
}

// Compose builds the whole workbook for t. Charts are only drawn when the
// table has numeric columns.
func Compose(t *table.Table, s *stats.Summary, opt Options) (*Composer, error) {
	c, err := NewComposer(opt)
	if err != nil {
		return nil, err
	}
	if err := c.build(t, s); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

func (c *Composer) build(t *table.Table, s *stats.Summary) error {
	if err := c.AddDataSheet(t); err != nil {
		return fmt.Errorf("data sheet: %w", err)
	}
	if err := c.AddSummarySheet(s); err != nil {
		return fmt.Errorf("summary sheet: %w", err)
	}
	if c.opt.RunID != "" {
		if err := c.SetRunID(c.opt.RunID); err != nil {
			return fmt.Errorf("document properties: %w", err)
		}
	}
	if len(t.NumericColumns()) == 0 || t.Rows() == 0 {
		return nil
	}
	lay := LayoutFor(t, c.opt.ChartSize)
	sheet := c.opt.DataSheet
	for _, p := range []struct {
		kind chart.Kind
		cell string
	}{{chart.Bar, lay.Bar}, {chart.Line, lay.Line}} {
		spec := chart.Spec{
			Kind:  p.kind,
			Title: fmt.Sprintf("%s (%s)", c.opt.Title, p.kind),
			Size:  c.opt.ChartSize,
			MaxY:  c.opt.MaxY,
			Bins:  c.opt.Bins,
		}
		if err := c.AddChart(t, spec, sheet, p.cell); err != nil {
			return fmt.Errorf("%s chart: %w", p.kind, err)
		}
	}
	if c.opt.NativeCharts {
		if err := c.AddNativeChart(t, chart.Bar, sheet, lay.NativeBar); err != nil {
			return fmt.Errorf("native bar chart: %w", err)
		}
		if err := c.AddNativeChart(t, chart.Line, sheet, lay.NativeLine); err != nil {
			return fmt.Errorf("native line chart: %w", err)
		}
	}
	return nil
}

func ceilDiv(a, b int) int { return (a + b - 1) / b }

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}
