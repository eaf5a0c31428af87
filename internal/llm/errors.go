package llm

import (
	"fmt"
	"strings"
)

// ErrorKind classifies upstream provider failures into user-safe categories.
type ErrorKind int

const (
	// KindTransport is the default: a malformed response, network failure, or
	// any error that is neither quota nor empty-response shaped.
	KindTransport ErrorKind = iota
	// KindQuota marks rate-limit and quota exhaustion failures.
	KindQuota
	// KindEmpty marks empty or missing upstream responses.
	KindEmpty
)

// ClassifyError buckets an upstream failure by simple substring matching, the
// same contract the rest of the system keys its user-safe messages on.
func ClassifyError(err error) ErrorKind {
	if err == nil {
		return KindTransport
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "quota") || strings.Contains(msg, "429"):
		return KindQuota
	case strings.Contains(msg, "empty"):
		return KindEmpty
	default:
		return KindTransport
	}
}

// UserMessage renders the user-safe message for a classified failure. The
// message doubles as the model's turn output for persistence purposes.
func UserMessage(err error) string {
	switch ClassifyError(err) {
	case KindQuota:
		return "I've reached my API quota limit. Please try again later or contact the administrator to upgrade the API plan."
	case KindEmpty:
		return "I received an empty response from the AI model. This might be due to API issues. Please try rephrasing your question or try again in a moment."
	default:
		return fmt.Sprintf("I encountered an error: %v. Please try again.", err)
	}
}
