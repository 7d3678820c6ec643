package ingest

import (
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/KaramelBytes/tabreport/internal/table"
)

var (
	// ErrUnsupportedInput indicates the source shape cannot be interpreted.
	ErrUnsupportedInput = errors.New("unsupported input")
	// ErrUnsupportedFormat indicates an unrecognized file extension.
	ErrUnsupportedFormat = errors.New("unsupported file format")
)

// ParseError reports a file that was recognized but could not be read.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string { return fmt.Sprintf("parse %s: %v", e.Path, e.Err) }

func (e *ParseError) Unwrap() error { return e.Err }

// Options controls file reading.
type Options struct {
	// Delimiter for CSV. If 0, it is sniffed from the header line.
	Delimiter rune
}

// Source is one of the closed set of input shapes accepted by Ingest.
type Source interface{ isSource() }

// TableSource passes an already built table through unchanged.
type TableSource struct{ Table *table.Table }

// FileSource is dispatched by file extension.
type FileSource struct{ Path string }

// ColumnsDataSource is the explicit {columns, data} form: names plus rows.
type ColumnsDataSource struct {
	Columns []string
	Data    [][]any
}

// NamedColumn is one entry of a column-oriented mapping.
type NamedColumn struct {
	Name   string
	Values []any
}

// ColumnMapSource is a column-oriented mapping in key order.
type ColumnMapSource []NamedColumn

// Field is one key/value pair of a record.
type Field struct {
	Key   string
	Value any
}

// Record is one row keyed by field name, in field order.
type Record []Field

// RecordsSource is a row-oriented list of records. The column set is the
// union of keys in order of first appearance; missing fields are null.
type RecordsSource []Record

// RowsSource is a list of positional rows. Columns are named "0", "1", ...
type RowsSource [][]any

func (TableSource) isSource()       {}
func (FileSource) isSource()        {}
func (ColumnsDataSource) isSource() {}
func (ColumnMapSource) isSource()   {}
func (RecordsSource) isSource()     {}
func (RowsSource) isSource()        {}

// Ingest converts any supported source into a table.
func Ingest(src Source, opt Options) (*table.Table, error) {
	switch s := src.(type) {
	case TableSource:
		if s.Table == nil {
			return nil, fmt.Errorf("%w: nil table", ErrUnsupportedInput)
		}
		return s.Table, nil
	case FileSource:
		inner, err := readFile(s.Path, opt)
		if err != nil {
			return nil, err
		}
		return Ingest(inner, opt)
	case ColumnsDataSource:
		names := uniqueNames(s.Columns)
		t, err := table.FromRows(names, s.Data)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnsupportedInput, err)
		}
		return t, nil
	case ColumnMapSource:
		names := make([]string, len(s))
		vals := make([][]any, len(s))
		for i, c := range s {
			names[i] = c.Name
			vals[i] = c.Values
		}
		t, err := table.FromColumns(names, vals)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnsupportedInput, err)
		}
		return t, nil
	case RecordsSource:
		return fromRecords(s)
	case RowsSource:
		width := 0
		for _, r := range s {
			if len(r) > width {
				width = len(r)
			}
		}
		names := make([]string, width)
		for i := range names {
			names[i] = strconv.Itoa(i)
		}
		return table.FromRows(names, s)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedInput, src)
	}
}

func fromRecords(recs RecordsSource) (*table.Table, error) {
	var names []string
	pos := map[string]int{}
	for _, r := range recs {
		for _, f := range r {
			if _, ok := pos[f.Key]; !ok {
				pos[f.Key] = len(names)
				names = append(names, f.Key)
			}
		}
	}
	cols := make([][]any, len(names))
	for j := range cols {
		cols[j] = make([]any, len(recs))
	}
	for i, r := range recs {
		for _, f := range r {
			cols[pos[f.Key]][i] = f.Value
		}
	}
	return table.FromColumns(names, cols)
}

// FromValue resolves a plain Go value into a Source. Go maps carry no key
// order, so map keys become columns in sorted order; use ColumnMapSource or
// a JSON file when column order matters.
func FromValue(v any) (Source, error) {
	switch x := v.(type) {
	case Source:
		return x, nil
	case *table.Table:
		return TableSource{Table: x}, nil
	case string:
		return FileSource{Path: x}, nil
	case map[string]any:
		return fromMap(x)
	case map[string][]any:
		m := make(map[string]any, len(x))
		for k, vs := range x {
			m[k] = vs
		}
		return fromMap(m)
	case []map[string]any:
		recs := make(RecordsSource, len(x))
		for i, m := range x {
			recs[i] = recordFromMap(m)
		}
		return recs, nil
	case [][]any:
		return RowsSource(x), nil
	case []any:
		return fromList(x)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedInput, v)
	}
}

func fromMap(m map[string]any) (Source, error) {
	cols, hasCols := m["columns"]
	data, hasData := m["data"]
	if hasCols && hasData {
		names, ok := toStrings(cols)
		rows, ok2 := toRows(data)
		if !ok || !ok2 {
			return nil, fmt.Errorf("%w: malformed columns/data mapping", ErrUnsupportedInput)
		}
		return ColumnsDataSource{Columns: names, Data: rows}, nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make(ColumnMapSource, 0, len(keys))
	for _, k := range keys {
		vals, ok := m[k].([]any)
		if !ok {
			return nil, fmt.Errorf("%w: column %q is not a sequence", ErrUnsupportedInput, k)
		}
		out = append(out, NamedColumn{Name: k, Values: vals})
	}
	return out, nil
}

func fromList(items []any) (Source, error) {
	allMaps := len(items) > 0
	for _, it := range items {
		if _, ok := it.(map[string]any); !ok {
			allMaps = false
			break
		}
	}
	if allMaps {
		recs := make(RecordsSource, len(items))
		for i, it := range items {
			recs[i] = recordFromMap(it.(map[string]any))
		}
		return recs, nil
	}
	rows := make(RowsSource, len(items))
	for i, it := range items {
		if r, ok := it.([]any); ok {
			rows[i] = r
		} else {
			rows[i] = []any{it}
		}
	}
	return rows, nil
}

func recordFromMap(m map[string]any) Record {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	r := make(Record, len(keys))
	for i, k := range keys {
		r[i] = Field{Key: k, Value: m[k]}
	}
	return r
}

func toStrings(v any) ([]string, bool) {
	switch x := v.(type) {
	case []string:
		return x, true
	case []any:
		out := make([]string, len(x))
		for i, s := range x {
			out[i] = table.FormatValue(s)
		}
		return out, true
	}
	return nil, false
}

func toRows(v any) ([][]any, bool) {
	switch x := v.(type) {
	case [][]any:
		return x, true
	case []any:
		out := make([][]any, len(x))
		for i, r := range x {
			row, ok := r.([]any)
			if !ok {
				return nil, false
			}
			out[i] = row
		}
		return out, true
	}
	return nil, false
}

// uniqueNames suffixes repeated header names (".1", ".2", ...) so every
// column keeps a distinct name.
func uniqueNames(names []string) []string {
	seen := make(map[string]int, len(names))
	taken := make(map[string]struct{}, len(names))
	for _, n := range names {
		taken[n] = struct{}{}
	}
	out := make([]string, len(names))
	for i, n := range names {
		if _, dup := seen[n]; !dup {
			seen[n] = 0
			out[i] = n
			continue
		}
		for {
			seen[n]++
			cand := fmt.Sprintf("%s.%d", n, seen[n])
			if _, clash := taken[cand]; !clash {
				taken[cand] = struct{}{}
				out[i] = cand
				break
			}
		}
	}
	return out
}
