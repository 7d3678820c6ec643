package table

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// Kind is the semantic type inferred for a column.
type Kind int

const (
	KindText Kind = iota
	KindNumeric
	KindTemporal
	KindBoolean
)

func (k Kind) String() string {
	switch k {
	case KindNumeric:
		return "numeric"
	case KindTemporal:
		return "datetime"
	case KindBoolean:
		return "boolean"
	default:
		return "text"
	}
}

var (
	// ErrDuplicateColumn is returned when two columns share a name.
	ErrDuplicateColumn = errors.New("duplicate column name")
	// ErrShape is returned when columns or rows do not line up.
	ErrShape = errors.New("inconsistent table shape")
)

// Column is a named, uniformly typed sequence of cells. A nil cell is null.
// Non-null cells hold float64 (numeric), time.Time (datetime), bool (boolean)
// or string (text) depending on Kind.
type Column struct {
	Name   string
	Kind   Kind
	values []any
}

// Len returns the number of cells.
func (c *Column) Len() int { return len(c.values) }

// Value returns the typed cell at row i (nil when null).
func (c *Column) Value(i int) any { return c.values[i] }

// IsNull reports whether row i is null.
func (c *Column) IsNull(i int) bool { return c.values[i] == nil }

// Float returns the numeric value at row i. ok is false for null or
// non-numeric cells.
func (c *Column) Float(i int) (float64, bool) {
	f, ok := c.values[i].(float64)
	return f, ok
}

// Floats returns the non-null numeric values in row order.
func (c *Column) Floats() []float64 {
	out := make([]float64, 0, len(c.values))
	for _, v := range c.values {
		if f, ok := v.(float64); ok {
			out = append(out, f)
		}
	}
	return out
}

// NullCount returns the number of null cells.
func (c *Column) NullCount() int {
	n := 0
	for _, v := range c.values {
		if v == nil {
			n++
		}
	}
	return n
}

// String returns the display form of row i; null cells render as "".
func (c *Column) String(i int) string { return FormatValue(c.values[i]) }

// Table is the normalized in-memory dataset. Columns keep insertion order and
// all have the same length. A Table is not modified after construction.
type Table struct {
	cols  []*Column
	index map[string]int
	rows  int
}

// FromColumns builds a table from column-oriented raw values and infers each
// column's kind.
func FromColumns(names []string, values [][]any) (*Table, error) {
	if len(names) != len(values) {
		return nil, fmt.Errorf("%w: %d names for %d columns", ErrShape, len(names), len(values))
	}
	t := &Table{index: make(map[string]int, len(names))}
	for i, name := range names {
		if _, dup := t.index[name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, name)
		}
		if i == 0 {
			t.rows = len(values[i])
		} else if len(values[i]) != t.rows {
			return nil, fmt.Errorf("%w: column %q has %d values, expected %d", ErrShape, name, len(values[i]), t.rows)
		}
		t.index[name] = i
		t.cols = append(t.cols, inferColumn(name, values[i]))
	}
	return t, nil
}

// FromRows builds a table from row-oriented raw values. Short rows are padded
// with nulls; rows longer than the header are rejected.
func FromRows(names []string, rows [][]any) (*Table, error) {
	cols := make([][]any, len(names))
	for j := range cols {
		cols[j] = make([]any, len(rows))
	}
	for i, row := range rows {
		if len(row) > len(names) {
			return nil, fmt.Errorf("%w: row %d has %d values, expected %d", ErrShape, i+1, len(row), len(names))
		}
		for j, v := range row {
			cols[j][i] = v
		}
	}
	return FromColumns(names, cols)
}

// Rows returns the number of records.
func (t *Table) Rows() int { return t.rows }

// NumCols returns the number of columns.
func (t *Table) NumCols() int { return len(t.cols) }

// Columns returns the columns in insertion order.
func (t *Table) Columns() []*Column { return t.cols }

// ColumnNames returns the column names in insertion order.
func (t *Table) ColumnNames() []string {
	out := make([]string, len(t.cols))
	for i, c := range t.cols {
		out[i] = c.Name
	}
	return out
}

// Column looks a column up by name.
func (t *Table) Column(name string) (*Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.cols[i], true
}

// Index returns the 0-based position of the named column, or -1.
func (t *Table) Index(name string) int {
	if i, ok := t.index[name]; ok {
		return i
	}
	return -1
}

// NumericColumns returns the numeric columns in insertion order.
func (t *Table) NumericColumns() []*Column {
	var out []*Column
	for _, c := range t.cols {
		if c.Kind == KindNumeric {
			out = append(out, c)
		}
	}
	return out
}

// Row returns the typed cells of record i.
func (t *Table) Row(i int) []any {
	out := make([]any, len(t.cols))
	for j, c := range t.cols {
		out[j] = c.values[i]
	}
	return out
}

// NullCount returns the total number of null cells.
func (t *Table) NullCount() int {
	n := 0
	for _, c := range t.cols {
		n += c.NullCount()
	}
	return n
}

// FormatValue renders a typed cell for display.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 && x.Nanosecond() == 0 {
			return x.Format("2006-01-02")
		}
		return x.Format("2006-01-02 15:04:05")
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}
