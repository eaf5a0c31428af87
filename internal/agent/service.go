// Package agent implements the tool-call orchestrator: it drives one
// conversational turn against the model provider, executes requested tools,
// and assembles the typed response envelope.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/insightlab/datachat/internal/chart"
	"github.com/insightlab/datachat/internal/dataset"
	"github.com/insightlab/datachat/internal/domain"
	"github.com/insightlab/datachat/internal/knowledge"
	"github.com/insightlab/datachat/internal/llm"
	"github.com/insightlab/datachat/internal/store"
)

// clarificationPrompt replaces empty or whitespace-only model answers.
const clarificationPrompt = "I understand you want to analyze the data. Let me help you with that. Could you please rephrase your question or be more specific about what you'd like to see?"

// Service orchestrates conversational turns. Each user message initiates
// exactly one pass through the turn state machine; failed model calls are
// never retried automatically.
type Service struct {
	provider llm.Provider
	registry *dataset.Registry
	renderer *chart.Renderer
	corpus   *knowledge.Corpus
	repo     store.Repository
}

// NewService creates the orchestrator with its collaborators.
func NewService(provider llm.Provider, registry *dataset.Registry, renderer *chart.Renderer, corpus *knowledge.Corpus, repo store.Repository) *Service {
	return &Service{
		provider: provider,
		registry: registry,
		renderer: renderer,
		corpus:   corpus,
		repo:     repo,
	}
}

// turnState tracks what the executed tools produced so the final envelope
// shape can be decided after the narrative call.
type turnState struct {
	analytics bool
	charts    []domain.ChartConfig
}

// HandleTurn processes one user message end to end: persist it, replay the
// partition history to the model with the tool catalog, execute any tool
// calls, obtain the final narrative, and assemble the response envelope.
//
// Provider failures terminate the turn early with a classified, user-safe
// message that is still persisted as the model's turn, so history stays
// consistent. The returned error covers only persistence failures.
func (s *Service) HandleTurn(ctx context.Context, partition, userMessage string) (*domain.ChatEnvelope, error) {
	if _, err := s.repo.AppendMessage(ctx, &domain.ChatMessage{
		Role:      domain.RoleUser,
		Content:   userMessage,
		Partition: partition,
	}); err != nil {
		return nil, fmt.Errorf("persist user message: %w", err)
	}

	messages, err := s.buildMessages(ctx, partition)
	if err != nil {
		return nil, err
	}

	// AWAITING_MODEL: first call carries the full tool catalog.
	completion, err := s.provider.Complete(ctx, messages, toolCatalog())
	if err != nil {
		return s.failTurn(ctx, partition, err)
	}

	if len(completion.ToolCalls) == 0 {
		text := s.finishNarrative(completion.Text)
		return s.finishTurn(ctx, partition, text, &turnState{})
	}

	// EXECUTING_TOOLS: run each invocation in emitted order, feeding every
	// serialized result back before the next model call.
	state := &turnState{}
	messages = append(messages, llm.Message{
		Role:      llm.RoleAssistant,
		Content:   completion.Text,
		ToolCalls: completion.ToolCalls,
	})
	for _, call := range completion.ToolCalls {
		slog.Info("tool call", "tool", call.Name, "args", call.Arguments)
		result := s.executeTool(call, state)
		messages = append(messages, llm.Message{
			Role:       llm.RoleTool,
			Content:    result,
			ToolCallID: call.ID,
			ToolName:   call.Name,
		})
	}

	// AWAITING_FINAL_MODEL: second call, no catalog, for the narrative.
	final, err := s.provider.Complete(ctx, messages, nil)
	if err != nil {
		return s.failTurn(ctx, partition, err)
	}

	text := final.Text
	if strings.TrimSpace(text) == "" {
		slog.Warn("model returned empty narrative, using fallback")
		text = clarificationPrompt
	}
	return s.finishTurn(ctx, partition, text, state)
}

// buildMessages reconstructs the model input: system instruction plus the
// full partition history in timestamp order. The current user message is
// already at the tail of the history.
func (s *Service) buildMessages(ctx context.Context, partition string) ([]llm.Message, error) {
	history, err := s.repo.History(ctx, partition)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	messages := []llm.Message{{Role: llm.RoleSystem, Content: buildSystemPrompt(s.registry)}}
	for _, msg := range history {
		role := llm.RoleUser
		if msg.Role == domain.RoleModel {
			role = llm.RoleAssistant
		}
		messages = append(messages, llm.Message{Role: role, Content: msg.Content})
	}
	return messages, nil
}

// finishNarrative applies the direct-answer fallbacks: the empty-response
// replacement and the hallucinated-JSON recovery.
func (s *Service) finishNarrative(text string) string {
	if strings.TrimSpace(text) == "" {
		slog.Warn("model returned empty response, using fallback")
		return clarificationPrompt
	}
	if recovered, ok := s.recoverHallucinatedChart(text); ok {
		return recovered
	}
	return text
}

// executeTool runs a single invocation against the matching component. All
// failures are converted to in-band result strings so the conversation can
// continue; only the turn-level provider errors abort a turn.
func (s *Service) executeTool(call llm.ToolCall, state *turnState) string {
	parsed, err := parseToolCall(call.Name, call.Arguments)
	if err != nil {
		var unknown *errUnknownTool
		if errors.As(err, &unknown) {
			return fmt.Sprintf("Unknown function: %s", call.Name)
		}
		slog.Warn("tool arguments rejected", "tool", call.Name, "error", err)
		return fmt.Sprintf("Error: %v", err)
	}

	switch req := parsed.(type) {
	case visualizationCall:
		markdown, err := s.renderer.Render(req.Req, s.registry)
		if err != nil {
			slog.Warn("chart rendering failed", "chart_type", req.Req.ChartType, "error", err)
			return fmt.Sprintf("Error generating chart: %v", err)
		}
		return markdown

	case chartConfigCall:
		res, err := chart.BuildConfig(req.Req, s.registry)
		if err != nil {
			slog.Warn("chart config failed", "chart_type", req.Req.ChartType, "error", err)
			state.analytics = true
			return fmt.Sprintf("Error generating chart: %v", err)
		}
		state.analytics = true
		state.charts = append(state.charts, res.Config)
		return serializeToolResult(res.Config)

	case dashboardCall:
		dash := chart.BuildDashboard(req.Specs, s.registry)
		state.analytics = true
		state.charts = append(state.charts, dash.Charts...)
		return serializeToolResult(dash)

	case summaryCall:
		return s.registry.Summary()

	case knowledgeCall:
		return s.corpus.Search(req.Query)

	default:
		// Unreachable: parseToolCall only produces the variants above.
		return fmt.Sprintf("Unknown function: %s", call.Name)
	}
}

// finishTurn persists the model's output and wraps it in the envelope shape
// the executed tools dictate.
func (s *Service) finishTurn(ctx context.Context, partition, text string, state *turnState) (*domain.ChatEnvelope, error) {
	if _, err := s.repo.AppendMessage(ctx, &domain.ChatMessage{
		Role:      domain.RoleModel,
		Content:   text,
		Partition: partition,
	}); err != nil {
		return nil, fmt.Errorf("persist model message: %w", err)
	}

	if state.analytics {
		return domain.AnalyticsEnvelope(domain.NewAnalyticsResponse(text, state.charts)), nil
	}
	return domain.TextEnvelope(text), nil
}

// failTurn terminates the turn on an upstream provider failure: the error is
// classified into a user-safe message which is persisted as the model's turn.
func (s *Service) failTurn(ctx context.Context, partition string, cause error) (*domain.ChatEnvelope, error) {
	slog.Error("model call failed", "provider", s.provider.Name(), "error", cause)
	text := llm.UserMessage(cause)

	if _, err := s.repo.AppendMessage(ctx, &domain.ChatMessage{
		Role:      domain.RoleModel,
		Content:   text,
		Partition: partition,
	}); err != nil {
		return nil, fmt.Errorf("persist failure message: %w", err)
	}
	return domain.TextEnvelope(text), nil
}

func serializeToolResult(v any) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("Error serializing result: %v", err)
	}
	return string(raw)
}
