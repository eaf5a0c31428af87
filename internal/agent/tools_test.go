package agent

import (
	"errors"
	"testing"
)

func TestParseToolCallVariants(t *testing.T) {
	tests := []struct {
		name string
		tool string
		args string
	}{
		{name: "visualization", tool: toolCreateVisualization, args: `{"chart_type":"bar"}`},
		{name: "chart config", tool: toolCreateChartConfig, args: `{"chart_type":"pie","x_column":"a"}`},
		{name: "dashboard", tool: toolCreateDashboard, args: `{"charts":[{"chart_type":"bar"}]}`},
		{name: "summary", tool: toolGetDataSummary, args: `{}`},
		{name: "summary empty args", tool: toolGetDataSummary, args: ""},
		{name: "knowledge", tool: toolQueryKnowledgeBase, args: `{"query":"budget"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, err := parseToolCall(tt.tool, tt.args)
			if err != nil {
				t.Fatalf("parseToolCall() error: %v", err)
			}
			if parsed.toolName() != tt.tool {
				t.Errorf("toolName() = %q, want %q", parsed.toolName(), tt.tool)
			}
		})
	}
}

func TestParseToolCallFields(t *testing.T) {
	parsed, err := parseToolCall(toolCreateChartConfig, `{"chart_type":"line","x_column":"day","y_column":"sales"}`)
	if err != nil {
		t.Fatalf("parseToolCall() error: %v", err)
	}
	call, ok := parsed.(chartConfigCall)
	if !ok {
		t.Fatalf("parsed is %T", parsed)
	}
	if call.Req.ChartType != "line" || call.Req.XColumn != "day" || call.Req.YColumn != "sales" {
		t.Errorf("Request = %+v", call.Req)
	}

	parsed, err = parseToolCall(toolQueryKnowledgeBase, `{"query":"revenue"}`)
	if err != nil {
		t.Fatalf("parseToolCall() error: %v", err)
	}
	if q := parsed.(knowledgeCall).Query; q != "revenue" {
		t.Errorf("Query = %q", q)
	}
}

func TestParseToolCallMalformed(t *testing.T) {
	if _, err := parseToolCall(toolCreateVisualization, `{not json`); err == nil {
		t.Error("Expected error for malformed arguments")
	}
}

func TestParseToolCallUnknown(t *testing.T) {
	_, err := parseToolCall("make_coffee", `{}`)
	var unknown *errUnknownTool
	if !errors.As(err, &unknown) {
		t.Fatalf("error = %v, want errUnknownTool", err)
	}
}

func TestToolCatalogComplete(t *testing.T) {
	catalog := toolCatalog()
	if len(catalog) != 5 {
		t.Fatalf("Catalog has %d tools, want 5", len(catalog))
	}

	names := map[string]bool{}
	for _, tool := range catalog {
		if tool.Description == "" {
			t.Errorf("Tool %s has no description", tool.Name)
		}
		if tool.Parameters == nil {
			t.Errorf("Tool %s has no parameter schema", tool.Name)
		}
		names[tool.Name] = true
	}
	for _, want := range []string{
		toolCreateVisualization, toolCreateChartConfig, toolCreateDashboard,
		toolGetDataSummary, toolQueryKnowledgeBase,
	} {
		if !names[want] {
			t.Errorf("Catalog missing %s", want)
		}
	}
}
