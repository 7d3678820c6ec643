package ingest

import (
	"errors"
	"fmt"
	"os"

	"github.com/tidwall/gjson"
)

type jsonReader struct{}

func (jsonReader) CanRead(path string) bool { return hasExt(path, ".json") }

func (jsonReader) Read(path string, _ Options) (Source, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	src, err := ParseJSON(b)
	if err != nil && !errors.Is(err, ErrUnsupportedInput) {
		return nil, &ParseError{Path: path, Err: err}
	}
	return src, err
}

// ParseJSON decodes a JSON document into a Source, keeping object keys in
// document order.
func ParseJSON(b []byte) (Source, error) {
	if !gjson.ValidBytes(b) {
		return nil, errors.New("invalid JSON document")
	}
	return sourceFromJSON(gjson.ParseBytes(b))
}

func sourceFromJSON(root gjson.Result) (Source, error) {
	switch {
	case root.IsObject():
		cols, data := root.Get("columns"), root.Get("data")
		if cols.Exists() && data.Exists() {
			if !cols.IsArray() || !data.IsArray() {
				return nil, fmt.Errorf("%w: columns and data must be arrays", ErrUnsupportedInput)
			}
			var names []string
			for _, c := range cols.Array() {
				names = append(names, c.String())
			}
			var rows [][]any
			for i, r := range data.Array() {
				if !r.IsArray() {
					return nil, fmt.Errorf("%w: data row %d is not an array", ErrUnsupportedInput, i+1)
				}
				rows = append(rows, jsonValues(r.Array()))
			}
			return ColumnsDataSource{Columns: names, Data: rows}, nil
		}
		var out ColumnMapSource
		var bad string
		root.ForEach(func(key, value gjson.Result) bool {
			if !value.IsArray() {
				bad = key.String()
				return false
			}
			out = append(out, NamedColumn{Name: key.String(), Values: jsonValues(value.Array())})
			return true
		})
		if bad != "" {
			return nil, fmt.Errorf("%w: column %q is not an array", ErrUnsupportedInput, bad)
		}
		return out, nil
	case root.IsArray():
		items := root.Array()
		allObjects := len(items) > 0
		for _, it := range items {
			if !it.IsObject() {
				allObjects = false
				break
			}
		}
		if allObjects {
			recs := make(RecordsSource, len(items))
			for i, it := range items {
				var rec Record
				it.ForEach(func(key, value gjson.Result) bool {
					rec = append(rec, Field{Key: key.String(), Value: jsonValue(value)})
					return true
				})
				recs[i] = rec
			}
			return recs, nil
		}
		rows := make(RowsSource, len(items))
		for i, it := range items {
			if it.IsArray() {
				rows[i] = jsonValues(it.Array())
			} else {
				rows[i] = []any{jsonValue(it)}
			}
		}
		return rows, nil
	default:
		return nil, fmt.Errorf("%w: top-level JSON %s", ErrUnsupportedInput, root.Type)
	}
}

func jsonValues(rs []gjson.Result) []any {
	out := make([]any, len(rs))
	for i, r := range rs {
		out[i] = jsonValue(r)
	}
	return out
}

func jsonValue(r gjson.Result) any {
	switch r.Type {
	case gjson.Null:
		return nil
	case gjson.True:
		return true
	case gjson.False:
		return false
	case gjson.Number:
		return r.Float()
	case gjson.String:
		return r.Str
	default:
		return r.Raw
	}
}
