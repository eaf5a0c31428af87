// Package domain contains core domain types for the datachat application.
package domain

import (
	"time"
)

// Role identifies the author of a conversation turn.
type Role string

const (
	// RoleUser marks a message written by a human.
	RoleUser Role = "user"
	// RoleModel marks a message produced by the language model. Stored as
	// "model"; mapped to the provider's assistant-equivalent role at the
	// boundary.
	RoleModel Role = "model"
)

// ChatMessage is one persisted conversation turn. Messages are append-only
// and read back in timestamp order to reconstruct context for each new turn.
type ChatMessage struct {
	ID        int64     `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	ImageURL  string    `json:"image_url,omitempty"`
	Partition string    `json:"partition"`
	Timestamp time.Time `json:"timestamp"`
}

// HistoryEntry is the frontend-facing view of a ChatMessage. The stored
// "model" role is presented as "assistant".
type HistoryEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	Image   string `json:"image,omitempty"`
}

// ToHistoryEntry converts a stored message to its frontend representation.
func (m *ChatMessage) ToHistoryEntry() HistoryEntry {
	role := string(m.Role)
	if m.Role == RoleModel {
		role = "assistant"
	}
	return HistoryEntry{
		Role:    role,
		Content: m.Content,
		Image:   m.ImageURL,
	}
}
