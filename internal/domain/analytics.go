package domain

// ChartConfig describes a single client-renderable chart: a normalized chart
// type, the computed data points, and the keys the frontend should plot.
type ChartConfig struct {
	ChartType string           `json:"chart_type"`
	Data      []map[string]any `json:"data"`
	XKey      string           `json:"x_key"`
	YKey      string           `json:"y_key,omitempty"`
	Title     string           `json:"title"`
	XLabel    string           `json:"x_label,omitempty"`
	YLabel    string           `json:"y_label,omitempty"`
}

// KPICard is a key-performance-indicator tile on the dashboard.
type KPICard struct {
	Label       string  `json:"label"`
	Value       any     `json:"value"`
	Change      float64 `json:"change,omitempty"`
	Trend       string  `json:"trend,omitempty"`
	Unit        string  `json:"unit,omitempty"`
	Description string  `json:"description,omitempty"`
}

// DataTable is a tabular payload section.
type DataTable struct {
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"rows"`
	Title   string           `json:"title,omitempty"`
}

// AnalyticsResponse carries the narrative text plus structured chart, KPI and
// table payloads for client-side rendering.
type AnalyticsResponse struct {
	Type   string        `json:"type"`
	Text   string        `json:"text"`
	Charts []ChartConfig `json:"charts"`
	KPIs   []KPICard     `json:"kpis"`
	Tables []DataTable   `json:"tables"`
}

// NewAnalyticsResponse builds an analytics response with non-nil payload
// sections so the JSON encodes empty arrays rather than null.
func NewAnalyticsResponse(text string, charts []ChartConfig) *AnalyticsResponse {
	if charts == nil {
		charts = []ChartConfig{}
	}
	return &AnalyticsResponse{
		Type:   "analytics_response",
		Text:   text,
		Charts: charts,
		KPIs:   []KPICard{},
		Tables: []DataTable{},
	}
}

// Dashboard is the multi-chart composition payload: an ordered sequence of
// chart configs plus KPI and table collections reserved for future use.
type Dashboard struct {
	Charts []ChartConfig `json:"charts"`
	KPIs   []KPICard     `json:"kpis"`
	Tables []DataTable   `json:"tables"`
}

// Response type discriminators for ChatEnvelope.
const (
	ResponseTypeText      = "text"
	ResponseTypeAnalytics = "analytics"
)

// ChatEnvelope is the single typed response produced per conversational turn:
// either plain text or an analytics payload, never both.
type ChatEnvelope struct {
	ResponseType string `json:"response_type"`
	Content      any    `json:"content"`
}

// TextEnvelope wraps plain narrative text.
func TextEnvelope(text string) *ChatEnvelope {
	return &ChatEnvelope{ResponseType: ResponseTypeText, Content: text}
}

// AnalyticsEnvelope wraps a structured analytics response.
func AnalyticsEnvelope(resp *AnalyticsResponse) *ChatEnvelope {
	return &ChatEnvelope{ResponseType: ResponseTypeAnalytics, Content: resp}
}
