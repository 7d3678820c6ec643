package table

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

var nullLiterals = map[string]struct{}{
	"": {}, "nan": {}, "null": {}, "none": {}, "na": {}, "n/a": {}, "#n/a": {},
}

// inferColumn normalizes raw values and settles on one kind for the column:
// numeric, then datetime, then boolean, else text. A column mixing numeric
// and non-numeric cells degrades to text.
func inferColumn(name string, raw []any) *Column {
	vals := make([]any, len(raw))
	for i, v := range raw {
		vals[i] = normalize(v)
	}
	col := &Column{Name: name}
	nonNull := 0
	for _, v := range vals {
		if v != nil {
			nonNull++
		}
	}
	if nonNull == 0 {
		col.Kind = KindText
		col.values = vals
		return col
	}
	if out, ok := convertAll(vals, asNumber); ok {
		col.Kind, col.values = KindNumeric, out
		return col
	}
	if out, ok := convertAll(vals, asTime); ok {
		col.Kind, col.values = KindTemporal, out
		return col
	}
	if out, ok := convertAll(vals, asBool); ok {
		col.Kind, col.values = KindBoolean, out
		return col
	}
	out := make([]any, len(vals))
	for i, v := range vals {
		if v != nil {
			out[i] = FormatValue(v)
		}
	}
	col.Kind, col.values = KindText, out
	return col
}

func convertAll(vals []any, conv func(any) (any, bool)) ([]any, bool) {
	out := make([]any, len(vals))
	for i, v := range vals {
		if v == nil {
			continue
		}
		c, ok := conv(v)
		if !ok {
			return nil, false
		}
		out[i] = c
	}
	return out, true
}

// normalize maps input cells onto nil, float64, bool, time.Time or string.
func normalize(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case string:
		s := strings.TrimSpace(x)
		if _, null := nullLiterals[strings.ToLower(s)]; null {
			return nil
		}
		return s
	case float64:
		if math.IsNaN(x) {
			return nil
		}
		return x
	case float32:
		return normalize(float64(x))
	case int:
		return float64(x)
	case int8:
		return float64(x)
	case int16:
		return float64(x)
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case uint:
		return float64(x)
	case uint8:
		return float64(x)
	case uint16:
		return float64(x)
	case uint32:
		return float64(x)
	case uint64:
		return float64(x)
	case json.Number:
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x.String()
	case bool, time.Time:
		return x
	default:
		return fmt.Sprint(x)
	}
}

func asNumber(v any) (any, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case string:
		if f, ok := parseNumeric(x); ok {
			return f, true
		}
	}
	return nil, false
}

func asTime(v any) (any, bool) {
	switch x := v.(type) {
	case time.Time:
		return x, true
	case string:
		if t, ok := parseTimeMaybe(x); ok {
			return t, true
		}
	}
	return nil, false
}

func asBool(v any) (any, bool) {
	switch x := v.(type) {
	case bool:
		return x, true
	case string:
		switch strings.ToLower(x) {
		case "true":
			return true, true
		case "false":
			return false, true
		}
	}
	return nil, false
}

func parseTimeMaybe(s string) (time.Time, bool) {
	layouts := []string{
		time.RFC3339, "2006-01-02", "2006/01/02", "02/01/2006", "01/02/2006",
		"2006-01-02 15:04", "2006-01-02 15:04:05", "1/2/2006 15:04", "1/2/2006 15:04:05",
	}
	for _, l := range layouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseNumeric accepts plain and scientific notation plus thousands-grouped
// values ("12,000", "1.000,5"). A trailing percent sign is ignored.
func parseNumeric(s string) (float64, bool) {
	raw := strings.TrimSpace(s)
	raw = strings.TrimSuffix(raw, "%")
	raw = strings.ReplaceAll(raw, " ", "")
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f, !math.IsInf(f, 0)
	}
	if !thousandsGrouped(raw) {
		return 0, false
	}
	cpos := strings.LastIndex(raw, ",")
	dpos := strings.LastIndex(raw, ".")
	dec, thou := ".", ","
	if (cpos > dpos && dpos >= 0) || cpos < 0 {
		dec, thou = ",", "."
	}
	raw = strings.ReplaceAll(raw, thou, "")
	if dec != "." {
		raw = strings.ReplaceAll(raw, dec, ".")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// thousandsGrouped reports whether the integer part of s is split into
// groups of three digits by ',' or '.'.
func thousandsGrouped(s string) bool {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "-"), "+")
	cpos := strings.LastIndex(s, ",")
	dpos := strings.LastIndex(s, ".")
	sep := ","
	intPart := s
	switch {
	case cpos >= 0 && dpos >= 0 && cpos > dpos:
		sep, intPart = ".", s[:cpos]
	case cpos >= 0 && dpos >= 0:
		intPart = s[:dpos]
	case cpos < 0:
		sep = "."
	}
	groups := strings.Split(intPart, sep)
	if len(groups) < 2 || len(groups[0]) == 0 || len(groups[0]) > 3 {
		return false
	}
	for i, g := range groups {
		if i > 0 && len(g) != 3 {
			return false
		}
		for _, r := range g {
			if r < '0' || r > '9' {
				return false
			}
		}
	}
	return true
}
