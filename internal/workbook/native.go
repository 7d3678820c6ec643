package workbook

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/KaramelBytes/tabreport/internal/chart"
	"github.com/KaramelBytes/tabreport/internal/table"
)

var nativeTypes = map[chart.Kind]excelize.ChartType{
	chart.Bar:  excelize.Col,
	chart.Line: excelize.Line,
	chart.Pie:  excelize.Pie,
}

// AddNativeChart places a spreadsheet-native chart whose series reference the
// data sheet ranges. Categories come from the first column and values from
// the default y columns; pie charts keep only the first series.
func (c *Composer) AddNativeChart(t *table.Table, kind chart.Kind, sheet, cell string) error {
	typ, ok := nativeTypes[kind]
	if !ok {
		return fmt.Errorf("%w: %q has no native form", chart.ErrUnsupportedChartType, kind)
	}
	if err := c.checkSheet(sheet); err != nil {
		return err
	}
	if t.NumCols() == 0 || t.Rows() == 0 {
		return fmt.Errorf("%w: table is empty", chart.ErrInvalidChartSpec)
	}
	x := t.Columns()[0].Name
	ys := chart.DefaultY(t, x, c.opt.MaxY)
	if len(ys) == 0 {
		return fmt.Errorf("%w: no numeric columns", chart.ErrInvalidChartSpec)
	}
	if kind == chart.Pie {
		ys = ys[:1]
	}
	data := c.opt.DataSheet
	series := make([]excelize.ChartSeries, len(ys))
	for i, y := range ys {
		series[i] = excelize.ChartSeries{
			Name:       sheetRef(data, t.Index(y), 1, 1),
			Categories: sheetRef(data, 0, 2, t.Rows()+1),
			Values:     sheetRef(data, t.Index(y), 2, t.Rows()+1),
		}
	}
	return c.f.AddChart(sheet, cell, &excelize.Chart{
		Type:   typ,
		Series: series,
		Title:  []excelize.RichTextRun{{Text: fmt.Sprintf("%s (%s)", c.opt.Title, kind)}},
		Legend: excelize.ChartLegend{Position: "bottom"},
	})
}

// sheetRef builds an absolute range such as 'Data'!$B$2:$B$5 for a zero based
// column index and one based rows.
func sheetRef(sheet string, col, from, to int) string {
	name, _ := excelize.ColumnNumberToName(col + 1)
	quoted := "'" + strings.ReplaceAll(sheet, "'", "''") + "'"
	if from == to {
		return fmt.Sprintf("%s!$%s$%d", quoted, name, from)
	}
	return fmt.Sprintf("%s!$%s$%d:$%s$%d", quoted, name, from, name, to)
}
