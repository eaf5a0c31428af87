// Package llm defines the model provider boundary. Two provider families are
// supported behind one internal message abstraction: OpenAI-compatible chat
// completions (native "assistant" role) and Gemini (native "model" role).
// Adapters normalize both to the internal role set so the orchestrator stays
// provider-agnostic.
package llm

import (
	"context"
)

// Internal conversational roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is one entry in the conversation sent to the model.
type Message struct {
	Role    string
	Content string

	// ToolCalls is set on assistant messages that requested tool execution.
	ToolCalls []ToolCall
	// ToolCallID and ToolName are set on tool messages carrying a result,
	// pairing it with the invocation that produced it.
	ToolCallID string
	ToolName   string
}

// ToolCall is a structured invocation emitted by the model: a function name,
// a JSON argument object, and a correlation id.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string // raw JSON object
}

// Tool declares an available function in JSON-schema form.
type Tool struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// Completion is a single model response: narrative text and/or tool calls.
type Completion struct {
	Text      string
	ToolCalls []ToolCall
}

// Provider is the interface both model families implement.
type Provider interface {
	// Complete sends the message list (plus an optional tool catalog) and
	// returns the model's response.
	Complete(ctx context.Context, messages []Message, tools []Tool) (*Completion, error)

	// Name returns the provider name for logging.
	Name() string
}

// Options carries sampling parameters shared by both adapters.
type Options struct {
	Model       string
	Temperature float32
	TopP        float32
	MaxTokens   int
}
