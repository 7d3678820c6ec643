package ingest

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

type csvReader struct{}

func (csvReader) CanRead(path string) bool { return hasExt(path, ".csv", ".tsv") }

func (csvReader) Read(path string, opt Options) (Source, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	b = bytes.TrimPrefix(b, []byte("\xef\xbb\xbf"))
	delim := opt.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(path, b)
	}
	r := csv.NewReader(bytes.NewReader(b))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.Comma = delim

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return ColumnsDataSource{}, nil
		}
		return nil, &ParseError{Path: path, Err: fmt.Errorf("read header: %w", err)}
	}
	var rows [][]any
	width := len(header)
	for {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, &ParseError{Path: path, Err: fmt.Errorf("read row %d: %w", len(rows)+1, err)}
		}
		if len(rec) > width {
			width = len(rec)
		}
		row := make([]any, len(rec))
		for j, v := range rec {
			row[j] = v
		}
		rows = append(rows, row)
	}
	return ColumnsDataSource{Columns: headerNames(header, width), Data: rows}, nil
}

// sniffDelimiter picks tab for .tsv, otherwise whichever of ',', ';' or tab
// occurs most in the header line.
func sniffDelimiter(path string, content []byte) rune {
	if hasExt(path, ".tsv") {
		return '\t'
	}
	sc := bufio.NewScanner(bytes.NewReader(content))
	if !sc.Scan() {
		return ','
	}
	line := sc.Text()
	best, bestN := ',', strings.Count(line, ",")
	for _, d := range []rune{';', '\t'} {
		if n := strings.Count(line, string(d)); n > bestN {
			best, bestN = d, n
		}
	}
	return best
}
