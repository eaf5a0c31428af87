package agent

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/insightlab/datachat/internal/chart"
)

// recoverHallucinatedChart detects the failure mode where the model emits a
// chart specification as literal JSON text instead of calling the
// visualization tool, and renders the chart anyway. Returns false when the
// text is not a chart spec, leaving the original answer untouched.
func (s *Service) recoverHallucinatedChart(text string) (string, bool) {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "{") || !strings.Contains(trimmed, "chart_type") {
		return "", false
	}

	var spec map[string]any
	if err := json.Unmarshal([]byte(trimmed), &spec); err != nil {
		return "", false
	}
	slog.Warn("model emitted chart spec as text, rendering directly")

	req := requestFromLooseSpec(spec)
	markdown, err := s.renderer.Render(req, s.registry)
	if err != nil {
		slog.Warn("recovered chart spec failed to render", "error", err)
		return "I understand you want a visualization. Let me create that for you.", true
	}

	subject := req.XColumn
	if subject == "" {
		subject = "data"
	}
	return fmt.Sprintf("Here's the visualization you requested:\n\n%s\n\nThe chart shows the distribution of %s from the dataset.", markdown, subject), true
}

// requestFromLooseSpec builds a chart request from an untyped spec, tolerating
// the dataset-key aliases the model tends to produce.
func requestFromLooseSpec(spec map[string]any) chart.Request {
	str := func(key string) string {
		v, _ := spec[key].(string)
		return v
	}

	req := chart.Request{
		ChartType:    str("chart_type"),
		XColumn:      str("x_column"),
		YColumn:      str("y_column"),
		GroupBy:      str("group_by"),
		Aggregation:  str("aggregation"),
		Title:        str("title"),
		FilterColumn: str("filter_column"),
		FilterValue:  str("filter_value"),
	}
	for _, key := range []string{"filename", "file_name", "file_path", "file"} {
		if v := str(key); v != "" {
			req.Dataset = v
			break
		}
	}
	if req.ChartType == "" {
		req.ChartType = chart.TypeBar
	}
	return req
}
