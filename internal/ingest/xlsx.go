package ingest

import (
	"errors"

	"github.com/xuri/excelize/v2"
)

type xlsxReader struct{}

func (xlsxReader) CanRead(path string) bool { return hasExt(path, ".xlsx", ".xls", ".xlsm") }

// Read loads the first sheet; the first row is the header. Legacy BIFF .xls
// files are not OOXML and surface as a ParseError.
func (xlsxReader) Read(path string, _ Options) (Source, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &ParseError{Path: path, Err: errors.New("workbook has no sheets")}
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	if len(rows) == 0 {
		return ColumnsDataSource{}, nil
	}
	header := rows[0]
	width := len(header)
	for _, r := range rows[1:] {
		if len(r) > width {
			width = len(r)
		}
	}
	names := headerNames(header, width)
	data := make([][]any, 0, len(rows)-1)
	for _, r := range rows[1:] {
		row := make([]any, len(r))
		for j, v := range r {
			row[j] = v
		}
		data = append(data, row)
	}
	return ColumnsDataSource{Columns: names, Data: data}, nil
}
