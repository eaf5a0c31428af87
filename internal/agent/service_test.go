package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/insightlab/datachat/internal/chart"
	"github.com/insightlab/datachat/internal/dataset"
	"github.com/insightlab/datachat/internal/domain"
	"github.com/insightlab/datachat/internal/knowledge"
	"github.com/insightlab/datachat/internal/llm"
)

// fakeProvider replays scripted completions and records every request.
type fakeProvider struct {
	responses []*llm.Completion
	errs      []error
	calls     [][]llm.Message
	toolSets  [][]llm.Tool
}

func (f *fakeProvider) Complete(_ context.Context, messages []llm.Message, tools []llm.Tool) (*llm.Completion, error) {
	f.calls = append(f.calls, messages)
	f.toolSets = append(f.toolSets, tools)
	i := len(f.calls) - 1
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	if i < len(f.responses) {
		return f.responses[i], nil
	}
	return &llm.Completion{Text: "done"}, nil
}

func (f *fakeProvider) Name() string { return "fake" }

// memoryRepo is an in-memory store.Repository.
type memoryRepo struct {
	messages []domain.ChatMessage
	nextID   int64
}

func (m *memoryRepo) AppendMessage(_ context.Context, msg *domain.ChatMessage) (int64, error) {
	m.nextID++
	stored := *msg
	stored.ID = m.nextID
	m.messages = append(m.messages, stored)
	return m.nextID, nil
}

func (m *memoryRepo) History(_ context.Context, partition string) ([]domain.ChatMessage, error) {
	var out []domain.ChatMessage
	for _, msg := range m.messages {
		if msg.Partition == partition {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (m *memoryRepo) DeleteHistory(_ context.Context, partition string) (int64, error) {
	var kept []domain.ChatMessage
	var deleted int64
	for _, msg := range m.messages {
		if msg.Partition == partition {
			deleted++
			continue
		}
		kept = append(kept, msg)
	}
	m.messages = kept
	return deleted, nil
}

func (m *memoryRepo) Ping(context.Context) error { return nil }
func (m *memoryRepo) Close() error               { return nil }

func newTestService(t *testing.T, provider llm.Provider) (*Service, *memoryRepo) {
	t.Helper()

	reg := dataset.NewRegistry(nil)
	reg.Register(&dataset.Table{
		Name:    "students.csv",
		Columns: []string{"name", "school", "score"},
		Rows: []dataset.Row{
			{"name": "alice", "school": "north", "score": int64(80)},
			{"name": "bob", "school": "south", "score": int64(60)},
			{"name": "carol", "school": "north", "score": int64(90)},
		},
	})

	renderer, err := chart.NewRenderer(t.TempDir(), "/static/charts")
	if err != nil {
		t.Fatalf("Failed to create renderer: %v", err)
	}

	repo := &memoryRepo{}
	return NewService(provider, reg, renderer, knowledge.NewCorpus(), repo), repo
}

func TestHandleTurnPlainText(t *testing.T) {
	provider := &fakeProvider{responses: []*llm.Completion{{Text: "Hello there."}}}
	svc, repo := newTestService(t, provider)

	env, err := svc.HandleTurn(context.Background(), "admin", "hi")
	if err != nil {
		t.Fatalf("HandleTurn() error: %v", err)
	}
	if env.ResponseType != domain.ResponseTypeText {
		t.Errorf("ResponseType = %q, want text", env.ResponseType)
	}
	if env.Content != "Hello there." {
		t.Errorf("Content = %v", env.Content)
	}

	// One model call, with the tool catalog attached.
	if len(provider.calls) != 1 {
		t.Fatalf("Expected 1 model call, got %d", len(provider.calls))
	}
	if len(provider.toolSets[0]) != 5 {
		t.Errorf("Expected full catalog on first call, got %d tools", len(provider.toolSets[0]))
	}
	// System prompt leads the message list.
	if provider.calls[0][0].Role != llm.RoleSystem {
		t.Errorf("First message role = %q, want system", provider.calls[0][0].Role)
	}

	// Both turns persisted.
	if len(repo.messages) != 2 {
		t.Fatalf("Expected 2 persisted messages, got %d", len(repo.messages))
	}
	if repo.messages[1].Role != domain.RoleModel || repo.messages[1].Content != "Hello there." {
		t.Errorf("Persisted model turn = %+v", repo.messages[1])
	}
}

func TestHandleTurnChartConfigAnalytics(t *testing.T) {
	provider := &fakeProvider{responses: []*llm.Completion{
		{ToolCalls: []llm.ToolCall{{
			ID:        "call-1",
			Name:      "create_chart_config",
			Arguments: `{"chart_type":"bar","aggregation":"count","group_by":"school","title":"Students by school"}`,
		}}},
		{Text: "Here is the breakdown by school."},
	}}
	svc, repo := newTestService(t, provider)

	env, err := svc.HandleTurn(context.Background(), "admin", "students by school")
	if err != nil {
		t.Fatalf("HandleTurn() error: %v", err)
	}
	if env.ResponseType != domain.ResponseTypeAnalytics {
		t.Fatalf("ResponseType = %q, want analytics", env.ResponseType)
	}

	resp, ok := env.Content.(*domain.AnalyticsResponse)
	if !ok {
		t.Fatalf("Content is %T, want *AnalyticsResponse", env.Content)
	}
	if resp.Text != "Here is the breakdown by school." {
		t.Errorf("Text = %q", resp.Text)
	}
	if len(resp.Charts) != 1 {
		t.Fatalf("Expected 1 chart, got %d", len(resp.Charts))
	}
	if resp.Charts[0].XKey != "school" || resp.Charts[0].YKey != "count" {
		t.Errorf("Chart keys = (%q, %q)", resp.Charts[0].XKey, resp.Charts[0].YKey)
	}

	// Second model call carries the tool result and no catalog.
	if len(provider.calls) != 2 {
		t.Fatalf("Expected 2 model calls, got %d", len(provider.calls))
	}
	if len(provider.toolSets[1]) != 0 {
		t.Error("Final call must not carry the tool catalog")
	}
	last := provider.calls[1]
	toolMsg := last[len(last)-1]
	if toolMsg.Role != llm.RoleTool || toolMsg.ToolCallID != "call-1" {
		t.Errorf("Tool message = %+v", toolMsg)
	}

	// Narrative persisted as the model turn.
	if repo.messages[len(repo.messages)-1].Content != "Here is the breakdown by school." {
		t.Errorf("Persisted model turn = %+v", repo.messages[len(repo.messages)-1])
	}
}

func TestHandleTurnVisualizationStaysText(t *testing.T) {
	provider := &fakeProvider{responses: []*llm.Completion{
		{ToolCalls: []llm.ToolCall{{
			ID:        "call-1",
			Name:      "create_visualization",
			Arguments: `{"chart_type":"bar","aggregation":"count","group_by":"school"}`,
		}}},
		{Text: "Rendered."},
	}}
	svc, _ := newTestService(t, provider)

	env, err := svc.HandleTurn(context.Background(), "admin", "plot it")
	if err != nil {
		t.Fatalf("HandleTurn() error: %v", err)
	}
	if env.ResponseType != domain.ResponseTypeText {
		t.Errorf("ResponseType = %q, want text for raster-only turns", env.ResponseType)
	}

	// The tool result fed to the model is chart markdown.
	last := provider.calls[1]
	toolMsg := last[len(last)-1]
	if !strings.HasPrefix(toolMsg.Content, "![Chart](/static/charts/") {
		t.Errorf("Tool result = %q, want chart markdown", toolMsg.Content)
	}
}

func TestHandleTurnQuotaFailure(t *testing.T) {
	provider := &fakeProvider{errs: []error{errors.New("status 429: quota exceeded")}}
	svc, repo := newTestService(t, provider)

	env, err := svc.HandleTurn(context.Background(), "admin", "hi")
	if err != nil {
		t.Fatalf("HandleTurn() error: %v", err)
	}
	if env.ResponseType != domain.ResponseTypeText {
		t.Errorf("ResponseType = %q, want text", env.ResponseType)
	}
	text, _ := env.Content.(string)
	if !strings.Contains(text, "API quota limit") {
		t.Errorf("Content = %q, want quota message", text)
	}

	// The failure message is persisted so it survives in history.
	last := repo.messages[len(repo.messages)-1]
	if last.Role != domain.RoleModel || !strings.Contains(last.Content, "API quota limit") {
		t.Errorf("Persisted turn = %+v", last)
	}
}

func TestHandleTurnUnknownTool(t *testing.T) {
	provider := &fakeProvider{responses: []*llm.Completion{
		{ToolCalls: []llm.ToolCall{{ID: "call-1", Name: "bogus_tool", Arguments: `{}`}}},
		{Text: "Sorry about that."},
	}}
	svc, _ := newTestService(t, provider)

	if _, err := svc.HandleTurn(context.Background(), "admin", "hi"); err != nil {
		t.Fatalf("HandleTurn() error: %v", err)
	}

	last := provider.calls[1]
	toolMsg := last[len(last)-1]
	if toolMsg.Content != "Unknown function: bogus_tool" {
		t.Errorf("Tool result = %q", toolMsg.Content)
	}
}

func TestHandleTurnEmptyNarrativeFallback(t *testing.T) {
	provider := &fakeProvider{responses: []*llm.Completion{{Text: "   \n"}}}
	svc, _ := newTestService(t, provider)

	env, err := svc.HandleTurn(context.Background(), "admin", "hi")
	if err != nil {
		t.Fatalf("HandleTurn() error: %v", err)
	}
	if env.Content != clarificationPrompt {
		t.Errorf("Content = %v, want clarification prompt", env.Content)
	}
}

func TestHandleTurnEmptyFinalNarrativeFallback(t *testing.T) {
	provider := &fakeProvider{responses: []*llm.Completion{
		{ToolCalls: []llm.ToolCall{{ID: "call-1", Name: "get_data_summary", Arguments: `{}`}}},
		{Text: ""},
	}}
	svc, _ := newTestService(t, provider)

	env, err := svc.HandleTurn(context.Background(), "admin", "what data do you have")
	if err != nil {
		t.Fatalf("HandleTurn() error: %v", err)
	}
	if env.Content != clarificationPrompt {
		t.Errorf("Content = %v, want clarification prompt", env.Content)
	}
}

func TestHandleTurnHallucinatedChartJSON(t *testing.T) {
	provider := &fakeProvider{responses: []*llm.Completion{
		{Text: `{"chart_type":"bar","aggregation":"count","group_by":"school","x_column":"school","filename":"students.csv"}`},
	}}
	svc, _ := newTestService(t, provider)

	env, err := svc.HandleTurn(context.Background(), "admin", "plot schools")
	if err != nil {
		t.Fatalf("HandleTurn() error: %v", err)
	}

	text, _ := env.Content.(string)
	if !strings.Contains(text, "Here's the visualization you requested:") {
		t.Errorf("Content = %q, want recovery preamble", text)
	}
	if !strings.Contains(text, "![Chart](/static/charts/") {
		t.Errorf("Content = %q, want embedded chart markdown", text)
	}
	if !strings.Contains(text, "distribution of school") {
		t.Errorf("Content = %q, want x column named", text)
	}
}

func TestHandleTurnHallucinatedChartRenderFailure(t *testing.T) {
	// References a dataset that does not exist, so rendering fails.
	provider := &fakeProvider{responses: []*llm.Completion{
		{Text: `{"chart_type":"bar","x_column":"a","filename":"missing.csv"}`},
	}}
	svc, _ := newTestService(t, provider)

	env, err := svc.HandleTurn(context.Background(), "admin", "plot")
	if err != nil {
		t.Fatalf("HandleTurn() error: %v", err)
	}
	if env.Content != "I understand you want a visualization. Let me create that for you." {
		t.Errorf("Content = %v", env.Content)
	}
}

func TestHandleTurnDashboard(t *testing.T) {
	provider := &fakeProvider{responses: []*llm.Completion{
		{ToolCalls: []llm.ToolCall{{
			ID:   "call-1",
			Name: "create_dashboard",
			Arguments: `{"charts":[
				{"chart_type":"bar","aggregation":"count","group_by":"school"},
				{"chart_type":"line","x_column":"name","y_column":"score"}
			]}`,
		}}},
		{Text: "Your dashboard is ready."},
	}}
	svc, _ := newTestService(t, provider)

	env, err := svc.HandleTurn(context.Background(), "admin", "dashboard please")
	if err != nil {
		t.Fatalf("HandleTurn() error: %v", err)
	}
	if env.ResponseType != domain.ResponseTypeAnalytics {
		t.Fatalf("ResponseType = %q, want analytics", env.ResponseType)
	}
	resp := env.Content.(*domain.AnalyticsResponse)
	if len(resp.Charts) != 2 {
		t.Errorf("Expected 2 charts, got %d", len(resp.Charts))
	}
}

func TestHandleTurnHistoryReplayedWithAssistantRole(t *testing.T) {
	provider := &fakeProvider{responses: []*llm.Completion{{Text: "first"}, {Text: "second"}}}
	svc, _ := newTestService(t, provider)

	if _, err := svc.HandleTurn(context.Background(), "admin", "one"); err != nil {
		t.Fatalf("HandleTurn() error: %v", err)
	}
	if _, err := svc.HandleTurn(context.Background(), "admin", "two"); err != nil {
		t.Fatalf("HandleTurn() error: %v", err)
	}

	// Second turn replays: system, user(one), assistant(first), user(two).
	msgs := provider.calls[1]
	if len(msgs) != 4 {
		t.Fatalf("Expected 4 messages, got %d", len(msgs))
	}
	if msgs[2].Role != llm.RoleAssistant || msgs[2].Content != "first" {
		t.Errorf("Replayed model turn = %+v, want assistant role", msgs[2])
	}
}
