package agent

import (
	"encoding/json"
	"fmt"

	"github.com/insightlab/datachat/internal/chart"
	"github.com/insightlab/datachat/internal/llm"
)

// Tool names of the closed catalog.
const (
	toolCreateVisualization = "create_visualization"
	toolCreateChartConfig   = "create_chart_config"
	toolCreateDashboard     = "create_dashboard"
	toolGetDataSummary      = "get_data_summary"
	toolQueryKnowledgeBase  = "query_knowledge_base"
)

// chartParams is the shared parameter schema for both chart tools.
func chartParams() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"chart_type": map[string]any{
				"type":        "string",
				"enum":        []string{"bar", "line", "scatter", "hist", "pie", "box", "violin", "heatmap", "area", "count"},
				"description": "Type of chart to create",
			},
			"x_column": map[string]any{
				"type":        "string",
				"description": "Column name for X-axis",
			},
			"y_column": map[string]any{
				"type":        "string",
				"description": "Column name for Y-axis (optional for some charts)",
			},
			"title": map[string]any{
				"type":        "string",
				"description": "Chart title",
			},
			"filename": map[string]any{
				"type":        "string",
				"description": "Data file to use (defaults to active file)",
			},
			"filter_column": map[string]any{
				"type":        "string",
				"description": "Column to filter on (optional)",
			},
			"filter_value": map[string]any{
				"type":        "string",
				"description": "Value to filter for (optional)",
			},
			"aggregation": map[string]any{
				"type":        "string",
				"enum":        []string{"count", "sum", "mean", "median", "min", "max"},
				"description": "Aggregation function (optional)",
			},
			"group_by": map[string]any{
				"type":        "string",
				"description": "Column to group by before aggregation (optional)",
			},
		},
		"required": []string{"chart_type"},
	}
}

// toolCatalog declares every tool available to the model.
func toolCatalog() []llm.Tool {
	return []llm.Tool{
		{
			Name:        toolCreateVisualization,
			Description: "Create various types of charts and visualizations from data as rendered images. Supports filtering, grouping, and aggregations.",
			Parameters:  chartParams(),
		},
		{
			Name:        toolCreateChartConfig,
			Description: "Compute chart data for interactive client-side rendering. Same parameters as create_visualization but returns structured data instead of an image.",
			Parameters:  chartParams(),
		},
		{
			Name:        toolCreateDashboard,
			Description: "Create a dashboard of multiple charts at once from a list of chart specifications.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"charts": map[string]any{
						"type":        "array",
						"description": "Chart specifications, each with the create_visualization parameters",
						"items":       chartParams(),
					},
				},
				"required": []string{"charts"},
			},
		},
		{
			Name:        toolGetDataSummary,
			Description: "Get a summary of all loaded data files including columns and sample data",
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{},
				"required":   []string{},
			},
		},
		{
			Name:        toolQueryKnowledgeBase,
			Description: "Search uploaded documents for information relevant to a question",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]any{
						"type":        "string",
						"description": "The search query",
					},
				},
				"required": []string{"query"},
			},
		},
	}
}

// toolRequest is the closed set of validated tool invocations. One variant
// exists per catalog entry; execution dispatches by exhaustive type switch.
type toolRequest interface {
	toolName() string
}

type visualizationCall struct {
	Req chart.Request
}

type chartConfigCall struct {
	Req chart.Request
}

type dashboardCall struct {
	Specs []map[string]any
}

type summaryCall struct{}

type knowledgeCall struct {
	Query string
}

func (visualizationCall) toolName() string { return toolCreateVisualization }
func (chartConfigCall) toolName() string   { return toolCreateChartConfig }
func (dashboardCall) toolName() string     { return toolCreateDashboard }
func (summaryCall) toolName() string       { return toolGetDataSummary }
func (knowledgeCall) toolName() string     { return toolQueryKnowledgeBase }

// errUnknownTool marks names outside the catalog.
type errUnknownTool struct {
	name string
}

func (e *errUnknownTool) Error() string {
	return fmt.Sprintf("unknown function: %s", e.name)
}

// parseToolCall validates a raw invocation into its typed variant. Malformed
// JSON arguments are an error the caller converts to an in-band tool result.
func parseToolCall(name, rawArgs string) (toolRequest, error) {
	if rawArgs == "" {
		rawArgs = "{}"
	}

	switch name {
	case toolCreateVisualization:
		var req chart.Request
		if err := json.Unmarshal([]byte(rawArgs), &req); err != nil {
			return nil, fmt.Errorf("malformed arguments for %s: %w", name, err)
		}
		return visualizationCall{Req: req}, nil

	case toolCreateChartConfig:
		var req chart.Request
		if err := json.Unmarshal([]byte(rawArgs), &req); err != nil {
			return nil, fmt.Errorf("malformed arguments for %s: %w", name, err)
		}
		return chartConfigCall{Req: req}, nil

	case toolCreateDashboard:
		var args struct {
			Charts []map[string]any `json:"charts"`
		}
		if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
			return nil, fmt.Errorf("malformed arguments for %s: %w", name, err)
		}
		return dashboardCall{Specs: args.Charts}, nil

	case toolGetDataSummary:
		return summaryCall{}, nil

	case toolQueryKnowledgeBase:
		var args struct {
			Query string `json:"query"`
		}
		if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
			return nil, fmt.Errorf("malformed arguments for %s: %w", name, err)
		}
		return knowledgeCall{Query: args.Query}, nil

	default:
		return nil, &errUnknownTool{name: name}
	}
}
