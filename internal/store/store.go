// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"

	"github.com/insightlab/datachat/internal/domain"
)

// Repository defines the interface for persisting conversation history.
// Messages are append-only within a partition (an isolation key separating
// independent conversation contexts) and are always read back in timestamp
// order.
type Repository interface {
	// AppendMessage stores a conversation turn and returns its assigned ID.
	AppendMessage(ctx context.Context, msg *domain.ChatMessage) (int64, error)

	// History retrieves all messages for a partition ordered by timestamp.
	History(ctx context.Context, partition string) ([]domain.ChatMessage, error)

	// DeleteHistory removes all messages for a partition and returns the
	// number of rows deleted.
	DeleteHistory(ctx context.Context, partition string) (int64, error)

	// Ping verifies database connectivity.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
