// Package dataset implements the registry of named tabular datasets.
package dataset

import (
	"fmt"
	"strconv"
	"strings"
)

// Row is a single record keyed by column name.
type Row = map[string]any

// Table is an in-memory tabular dataset. The column set is immutable once
// loaded; reloading a file of the same name replaces the table wholesale.
type Table struct {
	Name    string
	Columns []string
	Rows    []Row
}

// parseCell converts a raw cell string into a typed value: int64 if it parses
// as an integer, float64 if it parses as a number, otherwise the string as-is.
func parseCell(s string) any {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return s
	}
	if n, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return f
	}
	return s
}

// FormatCell renders a value the way it would appear in a cell, so filters
// can compare typed values against string arguments from the model.
func FormatCell(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// AsFloat converts a cell value to float64 for numeric aggregation.
func AsFloat(v any) (float64, bool) {
	switch val := v.(type) {
	case int64:
		return float64(val), true
	case float64:
		return val, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// NumericColumns returns the columns whose non-empty values are all numeric,
// in column order. Columns with no values at all are excluded.
func (t *Table) NumericColumns() []string {
	var cols []string
	for _, col := range t.Columns {
		seen := false
		numeric := true
		for _, row := range t.Rows {
			v, ok := row[col]
			if !ok || FormatCell(v) == "" {
				continue
			}
			seen = true
			if _, ok := AsFloat(v); !ok {
				numeric = false
				break
			}
		}
		if seen && numeric {
			cols = append(cols, col)
		}
	}
	return cols
}

// head renders the first n rows as aligned text for the data summary.
func (t *Table) head(n int) string {
	if n > len(t.Rows) {
		n = len(t.Rows)
	}
	var b strings.Builder
	b.WriteString(strings.Join(t.Columns, "\t"))
	b.WriteString("\n")
	for i := 0; i < n; i++ {
		cells := make([]string, len(t.Columns))
		for j, col := range t.Columns {
			cells[j] = FormatCell(t.Rows[i][col])
		}
		b.WriteString(strings.Join(cells, "\t"))
		b.WriteString("\n")
	}
	return b.String()
}
