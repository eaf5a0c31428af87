package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"google.golang.org/genai"
)

// GeminiProvider adapts the Gemini API. Gemini's conversational vocabulary
// differs from the internal one: the assistant-equivalent role is "model",
// system text travels as a system instruction, and tool results are
// function-response parts. This adapter normalizes all of that at the
// boundary.
type GeminiProvider struct {
	client *genai.Client
	opts   Options
}

var _ Provider = (*GeminiProvider)(nil)

// NewGemini creates a Gemini provider.
func NewGemini(ctx context.Context, apiKey string, opts Options) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, errors.New("API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &GeminiProvider{client: client, opts: opts}, nil
}

// Name returns the provider name for logging.
func (p *GeminiProvider) Name() string {
	return fmt.Sprintf("gemini (%s)", p.opts.Model)
}

// Complete sends the normalized conversation and returns the model response.
func (p *GeminiProvider) Complete(ctx context.Context, messages []Message, tools []Tool) (*Completion, error) {
	contents, system, err := toGeminiContents(messages)
	if err != nil {
		return nil, err
	}

	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(p.opts.Temperature),
		TopP:            genai.Ptr(p.opts.TopP),
		MaxOutputTokens: int32(p.opts.MaxTokens),
	}
	if system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	if len(tools) > 0 {
		cfg.Tools = []*genai.Tool{{FunctionDeclarations: toGeminiDeclarations(tools)}}
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.opts.Model, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, errors.New("empty response: no candidates returned")
	}

	completion := &Completion{}
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.Text != "" {
			completion.Text += part.Text
		}
		if part.FunctionCall != nil {
			args, err := json.Marshal(part.FunctionCall.Args)
			if err != nil {
				return nil, fmt.Errorf("encode function call args: %w", err)
			}
			id := part.FunctionCall.ID
			if id == "" {
				// Gemini omits correlation ids; synthesize one so tool
				// results can still be paired 1:1.
				id = uuid.NewString()
			}
			completion.ToolCalls = append(completion.ToolCalls, ToolCall{
				ID:        id,
				Name:      part.FunctionCall.Name,
				Arguments: string(args),
			})
		}
	}
	return completion, nil
}

// toGeminiContents maps the internal message list onto Gemini contents,
// pulling system text out into a separate instruction.
func toGeminiContents(messages []Message) ([]*genai.Content, string, error) {
	var contents []*genai.Content
	var system string

	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			if system != "" {
				system += "\n\n"
			}
			system += m.Content

		case RoleUser:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))

		case RoleAssistant:
			var parts []*genai.Part
			if m.Content != "" {
				parts = append(parts, genai.NewPartFromText(m.Content))
			}
			for _, tc := range m.ToolCalls {
				var args map[string]any
				if err := json.Unmarshal([]byte(tc.Arguments), &args); err != nil {
					return nil, "", fmt.Errorf("decode tool call args for %s: %w", tc.Name, err)
				}
				parts = append(parts, genai.NewPartFromFunctionCall(tc.Name, args))
			}
			if len(parts) > 0 {
				contents = append(contents, genai.NewContentFromParts(parts, genai.RoleModel))
			}

		case RoleTool:
			part := genai.NewPartFromFunctionResponse(m.ToolName, map[string]any{"result": m.Content})
			contents = append(contents, genai.NewContentFromParts([]*genai.Part{part}, genai.RoleUser))

		default:
			return nil, "", fmt.Errorf("unknown role %q", m.Role)
		}
	}

	return contents, system, nil
}

func toGeminiDeclarations(tools []Tool) []*genai.FunctionDeclaration {
	out := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, t := range tools {
		out = append(out, &genai.FunctionDeclaration{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  toGeminiSchema(t.Parameters),
		})
	}
	return out
}

// toGeminiSchema converts a JSON-schema-like parameter map into the typed
// schema Gemini expects. Only the subset the tool catalog uses is supported:
// objects, strings with optional enums, and descriptions.
func toGeminiSchema(m map[string]any) *genai.Schema {
	if m == nil {
		return &genai.Schema{Type: genai.TypeObject}
	}

	schema := &genai.Schema{}
	switch m["type"] {
	case "object":
		schema.Type = genai.TypeObject
	case "string":
		schema.Type = genai.TypeString
	case "number":
		schema.Type = genai.TypeNumber
	case "integer":
		schema.Type = genai.TypeInteger
	case "array":
		schema.Type = genai.TypeArray
	case "boolean":
		schema.Type = genai.TypeBoolean
	default:
		schema.Type = genai.TypeString
	}

	if desc, ok := m["description"].(string); ok {
		schema.Description = desc
	}
	if enum, ok := m["enum"].([]string); ok {
		schema.Enum = enum
	} else if enumAny, ok := m["enum"].([]any); ok {
		for _, e := range enumAny {
			if s, ok := e.(string); ok {
				schema.Enum = append(schema.Enum, s)
			}
		}
	}
	if props, ok := m["properties"].(map[string]any); ok {
		schema.Properties = make(map[string]*genai.Schema, len(props))
		for name, p := range props {
			if pm, ok := p.(map[string]any); ok {
				schema.Properties[name] = toGeminiSchema(pm)
			}
		}
	}
	if items, ok := m["items"].(map[string]any); ok {
		schema.Items = toGeminiSchema(items)
	}
	if req, ok := m["required"].([]string); ok {
		schema.Required = req
	} else if reqAny, ok := m["required"].([]any); ok {
		for _, r := range reqAny {
			if s, ok := r.(string); ok {
				schema.Required = append(schema.Required, s)
			}
		}
	}

	return schema
}
