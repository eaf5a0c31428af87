package llm

import (
	"testing"
)

func TestToOpenAIMessagesRolesPassThrough(t *testing.T) {
	msgs := toOpenAIMessages([]Message{
		{Role: RoleSystem, Content: "rules"},
		{Role: RoleUser, Content: "hi"},
		{Role: RoleAssistant, Content: "hello"},
	})

	wantRoles := []string{"system", "user", "assistant"}
	if len(msgs) != len(wantRoles) {
		t.Fatalf("Expected %d messages, got %d", len(wantRoles), len(msgs))
	}
	for i, want := range wantRoles {
		if msgs[i].Role != want {
			t.Errorf("messages[%d].Role = %q, want %q", i, msgs[i].Role, want)
		}
	}
}

func TestToOpenAIMessagesToolResult(t *testing.T) {
	msgs := toOpenAIMessages([]Message{
		{Role: RoleTool, Content: "result", ToolCallID: "call-1", ToolName: "get_data_summary"},
	})

	if msgs[0].ToolCallID != "call-1" {
		t.Errorf("ToolCallID = %q, want call-1", msgs[0].ToolCallID)
	}
	if msgs[0].Name != "get_data_summary" {
		t.Errorf("Name = %q", msgs[0].Name)
	}
}

func TestToOpenAIMessagesAssistantToolCalls(t *testing.T) {
	msgs := toOpenAIMessages([]Message{
		{
			Role: RoleAssistant,
			ToolCalls: []ToolCall{
				{ID: "call-1", Name: "create_chart_config", Arguments: `{"chart_type":"bar"}`},
			},
		},
	})

	if len(msgs[0].ToolCalls) != 1 {
		t.Fatalf("Expected 1 tool call, got %d", len(msgs[0].ToolCalls))
	}
	tc := msgs[0].ToolCalls[0]
	if tc.ID != "call-1" || tc.Function.Name != "create_chart_config" {
		t.Errorf("ToolCall = %+v", tc)
	}
	if tc.Function.Arguments != `{"chart_type":"bar"}` {
		t.Errorf("Arguments = %q", tc.Function.Arguments)
	}
}

func TestToOpenAITools(t *testing.T) {
	tools := toOpenAITools([]Tool{
		{Name: "f", Description: "d", Parameters: map[string]any{"type": "object"}},
	})
	if len(tools) != 1 {
		t.Fatalf("Expected 1 tool, got %d", len(tools))
	}
	if tools[0].Function.Name != "f" || tools[0].Function.Description != "d" {
		t.Errorf("Tool = %+v", tools[0].Function)
	}
}

func TestNewOpenAIRequiresKey(t *testing.T) {
	if _, err := NewOpenAI("", "", Options{}); err == nil {
		t.Error("Expected error for missing API key")
	}
}
