package workbook

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/KaramelBytes/tabreport/internal/chart"
	"github.com/KaramelBytes/tabreport/internal/stats"
	"github.com/KaramelBytes/tabreport/internal/table"
)

func salesTable(t *testing.T) *table.Table {
	t.Helper()
	tbl, err := table.FromColumns([]string{"月份", "销售额"}, [][]any{{"1月", "2月"}, {100, 200}})
	require.NoError(t, err)
	return tbl
}

func composeAndOpen(t *testing.T, tbl *table.Table, opt Options) (*excelize.File, string) {
	t.Helper()
	s, err := stats.Summarize(tbl)
	if errors.Is(err, stats.ErrNoData) {
		s = nil
	} else {
		require.NoError(t, err)
	}
	c, err := Compose(tbl, s, opt)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "report.xlsx")
	require.NoError(t, c.Save(path))
	require.NoError(t, c.Close())

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f, path
}

func TestComposeSheetsAndValues(t *testing.T) {
	tbl := salesTable(t)
	opt := DefaultOptions()
	opt.RunID = "run-1"
	f, _ := composeAndOpen(t, tbl, opt)

	assert.Equal(t, []string{"Data", "Summary"}, f.GetSheetList())

	rows, err := f.GetRows("Data")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"月份", "销售额"}, {"1月", "100"}, {"2月", "200"}}, rows)

	summary, err := f.GetRows("Summary")
	require.NoError(t, err)
	require.Len(t, summary, len(stats.Labels)+1)
	assert.Equal(t, []string{"statistic", "销售额"}, summary[0])
	assert.Equal(t, []string{"count", "2"}, summary[1])
	assert.Equal(t, []string{"mean", "150"}, summary[2])
	assert.Equal(t, []string{"min", "100"}, summary[4])
	assert.Equal(t, []string{"max", "200"}, summary[8])

	// Body cells hold numbers, not preformatted text.
	typ, err := f.GetCellType("Summary", "B3")
	require.NoError(t, err)
	assert.NotEqual(t, excelize.CellTypeSharedString, typ)
	assert.NotEqual(t, excelize.CellTypeInlineString, typ)

	w, err := f.GetColWidth("Data", "B")
	require.NoError(t, err)
	assert.Equal(t, float64(8), w)

	lay := LayoutFor(tbl, opt.ChartSize)
	assert.Equal(t, Layout{Bar: "D1", Line: "D27", NativeBar: "R1", NativeLine: "R27"}, lay)
	for _, cell := range []string{lay.Bar, lay.Line} {
		pics, err := f.GetPictures("Data", cell)
		require.NoError(t, err)
		require.Len(t, pics, 1, cell)
		assert.Equal(t, ".png", pics[0].Extension)
	}

	props, err := f.GetDocProps()
	require.NoError(t, err)
	assert.Equal(t, "run-1", props.Identifier)
}

func TestComposeWithoutNumericColumns(t *testing.T) {
	tbl, err := table.FromColumns([]string{"name"}, [][]any{{"a", "b"}})
	require.NoError(t, err)
	f, _ := composeAndOpen(t, tbl, DefaultOptions())

	assert.Equal(t, []string{"Data", "Summary"}, f.GetSheetList())
	note, err := f.GetCellValue("Summary", "A1")
	require.NoError(t, err)
	assert.Contains(t, note, "No numeric columns")
	pics, err := f.GetPictures("Data", LayoutFor(tbl, DefaultOptions().ChartSize).Bar)
	require.NoError(t, err)
	assert.Empty(t, pics)
}

func TestComposeNativeCharts(t *testing.T) {
	opt := DefaultOptions()
	opt.NativeCharts = true
	f, _ := composeAndOpen(t, salesTable(t), opt)
	assert.Len(t, f.GetSheetList(), 2)
}

func TestAddChartUnknownSheet(t *testing.T) {
	c, err := NewComposer(DefaultOptions())
	require.NoError(t, err)
	defer c.Close()

	err = c.AddChart(salesTable(t), chart.Spec{Kind: chart.Bar}, "Missing", "A1")
	assert.True(t, errors.Is(err, ErrSheetNotFound))

	err = c.AddNativeChart(salesTable(t), chart.Scatter, "Data", "A1")
	assert.True(t, errors.Is(err, chart.ErrUnsupportedChartType))
}

func TestSaveFailureIsIOError(t *testing.T) {
	c, err := NewComposer(DefaultOptions())
	require.NoError(t, err)
	defer c.Close()
	require.NoError(t, c.AddDataSheet(salesTable(t)))

	err = c.Save(t.TempDir())
	var ioErr *IOError
	assert.True(t, errors.As(err, &ioErr))
}

func TestNewComposerRejectsSharedSheetName(t *testing.T) {
	_, err := NewComposer(Options{DataSheet: "Same", SummarySheet: "Same"})
	assert.Error(t, err)
}

func TestDisplayWidth(t *testing.T) {
	assert.Equal(t, 5, displayWidth("hello"))
	assert.Equal(t, 6, displayWidth("销售额"))
	assert.Equal(t, float64(maxColWidth), columnWidth(200))
}

func TestSheetRef(t *testing.T) {
	assert.Equal(t, "'Data'!$B$2:$B$5", sheetRef("Data", 1, 2, 5))
	assert.Equal(t, "'O''Brien'!$A$1", sheetRef("O'Brien", 0, 1, 1))
}
