package llm

import (
	"errors"
	"strings"
	"testing"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{name: "quota keyword", err: errors.New("you exceeded your current quota"), want: KindQuota},
		{name: "http 429", err: errors.New("status code: 429 Too Many Requests"), want: KindQuota},
		{name: "empty response", err: errors.New("empty response: no choices returned"), want: KindEmpty},
		{name: "transport", err: errors.New("connection refused"), want: KindTransport},
		{name: "nil", err: nil, want: KindTransport},
		{name: "case insensitive", err: errors.New("QUOTA exhausted"), want: KindQuota},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyError(tt.err); got != tt.want {
				t.Errorf("ClassifyError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	if msg := UserMessage(errors.New("429 rate limited")); !strings.Contains(msg, "API quota limit") {
		t.Errorf("quota message = %q", msg)
	}
	if msg := UserMessage(errors.New("empty response: no candidates returned")); !strings.Contains(msg, "empty response from the AI model") {
		t.Errorf("empty message = %q", msg)
	}

	msg := UserMessage(errors.New("dial tcp: timeout"))
	if !strings.Contains(msg, "I encountered an error:") || !strings.Contains(msg, "dial tcp: timeout") {
		t.Errorf("transport message = %q", msg)
	}
}
