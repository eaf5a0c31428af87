package chart

import (
	"encoding/json"
	"log/slog"

	"github.com/insightlab/datachat/internal/dataset"
	"github.com/insightlab/datachat/internal/domain"
)

// BuildDashboard fans a list of partial chart specs through the config-mode
// engine and merges the survivors into one dashboard payload. Generation is
// best-effort: specs that produce an error are dropped silently and the
// output preserves the input order of the successful ones.
func BuildDashboard(specs []map[string]any, reg *dataset.Registry) *domain.Dashboard {
	dash := &domain.Dashboard{
		Charts: []domain.ChartConfig{},
		KPIs:   []domain.KPICard{},
		Tables: []domain.DataTable{},
	}

	for i, spec := range specs {
		req, err := requestFromSpec(spec)
		if err != nil {
			slog.Debug("dashboard spec skipped", "index", i, "error", err)
			continue
		}
		res, err := BuildConfig(req, reg)
		if err != nil {
			slog.Debug("dashboard chart skipped", "index", i, "chart_type", req.ChartType, "error", err)
			continue
		}
		dash.Charts = append(dash.Charts, res.Config)
	}

	return dash
}

// requestFromSpec converts a loosely-typed spec into a Request, filling
// required fields with defaults and forwarding only the fields present.
func requestFromSpec(spec map[string]any) (Request, error) {
	raw, err := json.Marshal(spec)
	if err != nil {
		return Request{}, err
	}
	req := Request{ChartType: TypeBar, Title: "Chart"}
	if err := json.Unmarshal(raw, &req); err != nil {
		return Request{}, err
	}
	if req.ChartType == "" {
		req.ChartType = TypeBar
	}
	if req.Title == "" {
		req.Title = "Chart"
	}
	return req, nil
}
