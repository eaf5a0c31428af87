package chart

import (
	"fmt"
	"math"
	"sort"

	"github.com/insightlab/datachat/internal/dataset"
)

// Matrix is the shaped form of a heatmap: row/column labels plus cell values.
type Matrix struct {
	XLabels []string
	YLabels []string
	Values  [][]float64 // indexed [y][x]
}

// Result is the output of the shared transformation pipeline, consumed by
// both the raster renderer and the config builder.
type Result struct {
	Rows   []dataset.Row
	XKey   string
	YKey   string
	Matrix *Matrix // heatmap only
}

// compute runs the ordered pipeline: resolve dataset, filter, group/aggregate,
// chart-type shaping. Output encoding is left to the caller.
func compute(req Request, reg *dataset.Registry) (*Result, error) {
	table, ok := reg.Lookup(req.Dataset)
	if !ok {
		return nil, ErrDatasetNotFound
	}

	rows := table.Rows
	if req.FilterColumn != "" && req.FilterValue != "" {
		var err error
		rows, err = filterRows(table, rows, req.FilterColumn, req.FilterValue)
		if err != nil {
			return nil, err
		}
	}

	res, err := aggregate(req, table, rows)
	if err != nil {
		return nil, err
	}

	return shape(req, table, res)
}

// filterRows retains only rows whose column value equals the filter value.
// Values are compared by their canonical cell rendering, so "3" matches the
// integer 3 but not 3.5. No matches yields an empty set, not an error.
func filterRows(table *dataset.Table, rows []dataset.Row, column, value string) ([]dataset.Row, error) {
	if !hasColumn(table, column) {
		return nil, &ColumnError{Column: column, Reason: "not found"}
	}
	var out []dataset.Row
	for _, row := range rows {
		if dataset.FormatCell(row[column]) == value {
			out = append(out, row)
		}
	}
	return out, nil
}

// aggregate applies the mutually exclusive group/aggregate branches in their
// precedence order.
func aggregate(req Request, table *dataset.Table, rows []dataset.Row) (*Result, error) {
	switch {
	case req.Aggregation == AggCount && req.GroupBy != "":
		out, err := groupCounts(table, rows, req.GroupBy)
		if err != nil {
			return nil, err
		}
		return &Result{Rows: out, XKey: req.GroupBy, YKey: "count"}, nil

	case req.Aggregation != "" && req.GroupBy != "":
		out, err := groupReduce(table, rows, req.GroupBy, req.YColumn, req.Aggregation)
		if err != nil {
			return nil, err
		}
		return &Result{Rows: out, XKey: req.GroupBy, YKey: req.YColumn}, nil

	case req.Aggregation == AggCount && req.XColumn != "":
		out, err := valueCounts(table, rows, req.XColumn)
		if err != nil {
			return nil, err
		}
		return &Result{Rows: out, XKey: req.XColumn, YKey: "count"}, nil

	default:
		return &Result{Rows: rows, XKey: req.XColumn, YKey: req.YColumn}, nil
	}
}

// shape applies chart-type-specific transformations on top of the aggregated
// rows. Only pie and heatmap need extra work; every other type uses the
// aggregation output directly.
func shape(req Request, table *dataset.Table, res *Result) (*Result, error) {
	switch req.ChartType {
	case TypePie:
		return shapePie(req, table, res)
	case TypeHeatmap:
		return shapeHeatmap(req, table, res)
	default:
		return res, nil
	}
}

// shapePie reduces to a value-count table over the x column when the request
// is count-like or has no y column, and otherwise aggregates the y column per
// x value (default mean) so every row becomes one slice.
func shapePie(req Request, table *dataset.Table, res *Result) (*Result, error) {
	if res.YKey == "count" {
		return res, nil
	}
	if req.Aggregation == AggCount || req.YColumn == "" {
		out, err := valueCounts(table, res.Rows, req.XColumn)
		if err != nil {
			return nil, err
		}
		return &Result{Rows: out, XKey: req.XColumn, YKey: "count"}, nil
	}
	if req.GroupBy == "" {
		agg := req.Aggregation
		if agg == "" {
			agg = AggMean
		}
		out, err := groupReduce(table, res.Rows, req.XColumn, req.YColumn, agg)
		if err != nil {
			return nil, err
		}
		return &Result{Rows: out, XKey: req.XColumn, YKey: req.YColumn}, nil
	}
	return res, nil
}

// shapeHeatmap computes the pairwise correlation matrix over numeric columns
// when neither axis is given, and otherwise pivots the y column by
// (x column, group-by) using the requested aggregation, defaulting to mean.
func shapeHeatmap(req Request, table *dataset.Table, res *Result) (*Result, error) {
	if req.XColumn == "" && req.YColumn == "" {
		return correlationMatrix(table, res.Rows)
	}
	agg := req.Aggregation
	if agg == "" || agg == AggCount {
		agg = AggMean
	}
	return pivot(table, res.Rows, req.XColumn, req.YColumn, req.GroupBy, agg)
}

func hasColumn(table *dataset.Table, name string) bool {
	for _, col := range table.Columns {
		if col == name {
			return true
		}
	}
	return false
}

// groupCounts counts rows per distinct group value, in first-appearance order.
func groupCounts(table *dataset.Table, rows []dataset.Row, groupBy string) ([]dataset.Row, error) {
	if !hasColumn(table, groupBy) {
		return nil, &ColumnError{Column: groupBy, Reason: "not found"}
	}

	var order []string
	counts := map[string]int64{}
	values := map[string]any{}
	for _, row := range rows {
		key := dataset.FormatCell(row[groupBy])
		if _, seen := counts[key]; !seen {
			order = append(order, key)
			values[key] = row[groupBy]
		}
		counts[key]++
	}

	out := make([]dataset.Row, 0, len(order))
	for _, key := range order {
		out = append(out, dataset.Row{groupBy: values[key], "count": counts[key]})
	}
	return out, nil
}

// groupReduce applies the named reduction to the y column per group value.
func groupReduce(table *dataset.Table, rows []dataset.Row, groupBy, yColumn, agg string) ([]dataset.Row, error) {
	if !hasColumn(table, groupBy) {
		return nil, &ColumnError{Column: groupBy, Reason: "not found"}
	}
	if yColumn == "" {
		return nil, &ColumnError{Reason: fmt.Sprintf("y_column is required for aggregation %q", agg)}
	}
	if !hasColumn(table, yColumn) {
		return nil, &ColumnError{Column: yColumn, Reason: "not found"}
	}

	var order []string
	groups := map[string][]float64{}
	values := map[string]any{}
	for _, row := range rows {
		key := dataset.FormatCell(row[groupBy])
		if _, seen := groups[key]; !seen {
			order = append(order, key)
			values[key] = row[groupBy]
		}
		v, ok := dataset.AsFloat(row[yColumn])
		if !ok {
			return nil, &ColumnError{Column: yColumn, Reason: fmt.Sprintf("non-numeric value %q", dataset.FormatCell(row[yColumn]))}
		}
		groups[key] = append(groups[key], v)
	}

	out := make([]dataset.Row, 0, len(order))
	for _, key := range order {
		reduced, err := reduce(groups[key], agg)
		if err != nil {
			return nil, err
		}
		out = append(out, dataset.Row{groupBy: values[key], yColumn: reduced})
	}
	return out, nil
}

// valueCounts builds the frequency table of distinct values, sorted by
// descending count with first-appearance order breaking ties.
func valueCounts(table *dataset.Table, rows []dataset.Row, column string) ([]dataset.Row, error) {
	if !hasColumn(table, column) {
		return nil, &ColumnError{Column: column, Reason: "not found"}
	}

	var order []string
	counts := map[string]int64{}
	values := map[string]any{}
	for _, row := range rows {
		key := dataset.FormatCell(row[column])
		if _, seen := counts[key]; !seen {
			order = append(order, key)
			values[key] = row[column]
		}
		counts[key]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	out := make([]dataset.Row, 0, len(order))
	for _, key := range order {
		out = append(out, dataset.Row{column: values[key], "count": counts[key]})
	}
	return out, nil
}

func reduce(values []float64, agg string) (float64, error) {
	if len(values) == 0 {
		return math.NaN(), nil
	}
	switch agg {
	case AggSum:
		var sum float64
		for _, v := range values {
			sum += v
		}
		return sum, nil
	case AggMean:
		var sum float64
		for _, v := range values {
			sum += v
		}
		return sum / float64(len(values)), nil
	case AggMedian:
		sorted := append([]float64(nil), values...)
		sort.Float64s(sorted)
		mid := len(sorted) / 2
		if len(sorted)%2 == 0 {
			return (sorted[mid-1] + sorted[mid]) / 2, nil
		}
		return sorted[mid], nil
	case AggMin:
		min := values[0]
		for _, v := range values[1:] {
			if v < min {
				min = v
			}
		}
		return min, nil
	case AggMax:
		max := values[0]
		for _, v := range values[1:] {
			if v > max {
				max = v
			}
		}
		return max, nil
	default:
		return 0, fmt.Errorf("unsupported aggregation %q", agg)
	}
}

// correlationMatrix computes pairwise Pearson correlation over the numeric
// columns of the working set.
func correlationMatrix(table *dataset.Table, rows []dataset.Row) (*Result, error) {
	numeric := table.NumericColumns()
	if len(numeric) == 0 {
		return nil, &ColumnError{Reason: "no numeric columns for correlation"}
	}

	series := make(map[string][]float64, len(numeric))
	for _, col := range numeric {
		vals := make([]float64, 0, len(rows))
		for _, row := range rows {
			if v, ok := dataset.AsFloat(row[col]); ok {
				vals = append(vals, v)
			} else {
				vals = append(vals, math.NaN())
			}
		}
		series[col] = vals
	}

	values := make([][]float64, len(numeric))
	out := make([]dataset.Row, 0, len(numeric))
	for i, rowCol := range numeric {
		values[i] = make([]float64, len(numeric))
		record := dataset.Row{"column": rowCol}
		for j, colCol := range numeric {
			r := pearson(series[rowCol], series[colCol])
			values[i][j] = r
			record[colCol] = r
		}
		out = append(out, record)
	}

	return &Result{
		Rows: out,
		XKey: "column",
		Matrix: &Matrix{
			XLabels: numeric,
			YLabels: numeric,
			Values:  values,
		},
	}, nil
}

// pearson computes the correlation coefficient over pairs where both values
// are present.
func pearson(xs, ys []float64) float64 {
	var n float64
	var sumX, sumY float64
	for i := range xs {
		if math.IsNaN(xs[i]) || math.IsNaN(ys[i]) {
			continue
		}
		n++
		sumX += xs[i]
		sumY += ys[i]
	}
	if n == 0 {
		return math.NaN()
	}
	meanX, meanY := sumX/n, sumY/n

	var cov, varX, varY float64
	for i := range xs {
		if math.IsNaN(xs[i]) || math.IsNaN(ys[i]) {
			continue
		}
		dx, dy := xs[i]-meanX, ys[i]-meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}
	if varX == 0 || varY == 0 {
		return math.NaN()
	}
	return cov / math.Sqrt(varX*varY)
}

// pivot reduces the y column by (x, group) pairs into a wide-form matrix.
// With no group-by column the result collapses to a single column named
// after the y column.
func pivot(table *dataset.Table, rows []dataset.Row, xColumn, yColumn, groupBy, agg string) (*Result, error) {
	if !hasColumn(table, xColumn) {
		return nil, &ColumnError{Column: xColumn, Reason: "not found"}
	}
	if !hasColumn(table, yColumn) {
		return nil, &ColumnError{Column: yColumn, Reason: "not found"}
	}
	if groupBy != "" && !hasColumn(table, groupBy) {
		return nil, &ColumnError{Column: groupBy, Reason: "not found"}
	}

	var xOrder, colOrder []string
	cells := map[string]map[string][]float64{}
	for _, row := range rows {
		xKey := dataset.FormatCell(row[xColumn])
		colKey := yColumn
		if groupBy != "" {
			colKey = dataset.FormatCell(row[groupBy])
		}
		v, ok := dataset.AsFloat(row[yColumn])
		if !ok {
			return nil, &ColumnError{Column: yColumn, Reason: fmt.Sprintf("non-numeric value %q", dataset.FormatCell(row[yColumn]))}
		}
		if _, seen := cells[xKey]; !seen {
			cells[xKey] = map[string][]float64{}
			xOrder = append(xOrder, xKey)
		}
		if _, seen := cells[xKey][colKey]; !seen {
			cells[xKey][colKey] = nil
		}
		found := false
		for _, c := range colOrder {
			if c == colKey {
				found = true
				break
			}
		}
		if !found {
			colOrder = append(colOrder, colKey)
		}
		cells[xKey][colKey] = append(cells[xKey][colKey], v)
	}

	values := make([][]float64, len(xOrder))
	out := make([]dataset.Row, 0, len(xOrder))
	for i, xKey := range xOrder {
		values[i] = make([]float64, len(colOrder))
		record := dataset.Row{xColumn: xKey}
		for j, colKey := range colOrder {
			vals := cells[xKey][colKey]
			if len(vals) == 0 {
				values[i][j] = math.NaN()
				continue
			}
			reduced, err := reduce(vals, agg)
			if err != nil {
				return nil, err
			}
			values[i][j] = reduced
			record[colKey] = reduced
		}
		out = append(out, record)
	}

	return &Result{
		Rows: out,
		XKey: xColumn,
		Matrix: &Matrix{
			XLabels: colOrder,
			YLabels: xOrder,
			Values:  values,
		},
	}, nil
}
