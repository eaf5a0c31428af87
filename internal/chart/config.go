package chart

import (
	"log/slog"

	"github.com/insightlab/datachat/internal/dataset"
	"github.com/insightlab/datachat/internal/domain"
)

// maxConfigRows caps the config-mode payload size.
const maxConfigRows = 100

// normalizeType maps legacy chart types with no client-side renderer onto the
// bar fallback. All other types pass through unchanged.
func normalizeType(chartType string) string {
	switch chartType {
	case TypeHist, TypeCount, TypeBox, TypeViolin, TypeHeatmap:
		return TypeBar
	default:
		return chartType
	}
}

// ConfigResult carries a built chart config plus the truncation diagnostic.
type ConfigResult struct {
	Config    domain.ChartConfig
	Truncated bool
}

// BuildConfig runs the pipeline in config mode: the shaped rows become a
// structured chart configuration for client-side rendering. The row sequence
// is truncated to maxConfigRows to bound the payload.
func BuildConfig(req Request, reg *dataset.Registry) (*ConfigResult, error) {
	res, err := compute(req, reg)
	if err != nil {
		return nil, err
	}

	title := req.Title
	if title == "" {
		title = "Chart"
	}

	rows := res.Rows
	truncated := false
	if len(rows) > maxConfigRows {
		slog.Warn("chart config truncated",
			"chart_type", req.ChartType,
			"rows", len(rows),
			"limit", maxConfigRows)
		rows = rows[:maxConfigRows]
		truncated = true
	}

	data := make([]map[string]any, len(rows))
	for i, row := range rows {
		data[i] = row
	}

	return &ConfigResult{
		Config: domain.ChartConfig{
			ChartType: normalizeType(req.ChartType),
			Data:      data,
			XKey:      res.XKey,
			YKey:      res.YKey,
			Title:     title,
			XLabel:    res.XKey,
			YLabel:    res.YKey,
		},
		Truncated: truncated,
	}, nil
}
