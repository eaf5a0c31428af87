// Package chart implements the declarative chart-specification engine: it
// maps a small parameter grammar (chart type, axis columns, filter, group-by,
// aggregation) onto a deterministic data-transformation pipeline with two
// output encodings — a rendered raster image or a structured chart config for
// client-side rendering — plus the multi-chart dashboard composition mode.
package chart

import (
	"errors"
	"fmt"
)

// Supported chart types.
const (
	TypeBar     = "bar"
	TypeLine    = "line"
	TypeScatter = "scatter"
	TypeHist    = "hist"
	TypePie     = "pie"
	TypeBox     = "box"
	TypeViolin  = "violin"
	TypeHeatmap = "heatmap"
	TypeArea    = "area"
	TypeCount   = "count"
)

// Supported aggregations.
const (
	AggCount  = "count"
	AggSum    = "sum"
	AggMean   = "mean"
	AggMedian = "median"
	AggMin    = "min"
	AggMax    = "max"
)

// Request is a declarative chart specification. ChartType is required; every
// other field is optional and validated only by downstream failure — a
// missing column produces an error result, not a rejected request.
type Request struct {
	ChartType    string `json:"chart_type"`
	XColumn      string `json:"x_column,omitempty"`
	YColumn      string `json:"y_column,omitempty"`
	Title        string `json:"title,omitempty"`
	Dataset      string `json:"filename,omitempty"`
	FilterColumn string `json:"filter_column,omitempty"`
	FilterValue  string `json:"filter_value,omitempty"`
	Aggregation  string `json:"aggregation,omitempty"`
	GroupBy      string `json:"group_by,omitempty"`
}

// ErrDatasetNotFound is returned when neither the named nor the active
// dataset resolves.
var ErrDatasetNotFound = errors.New("no data loaded or file not found")

// ColumnError reports a missing column or a shape mismatch during
// aggregation or pivoting.
type ColumnError struct {
	Column string
	Reason string
}

func (e *ColumnError) Error() string {
	if e.Column == "" {
		return e.Reason
	}
	return fmt.Sprintf("column %q: %s", e.Column, e.Reason)
}

// titleWithFilter appends a human-readable filter annotation to the chart
// title when a filter was applied.
func (r *Request) titleWithFilter() string {
	title := r.Title
	if title == "" {
		title = "Chart"
	}
	if r.FilterColumn != "" && r.FilterValue != "" {
		title = fmt.Sprintf("%s (filtered: %s=%s)", title, r.FilterColumn, r.FilterValue)
	}
	return title
}
