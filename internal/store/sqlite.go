package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/insightlab/datachat/internal/domain"
	"github.com/insightlab/datachat/internal/shared"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS chat_messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		image_url TEXT,
		partition TEXT NOT NULL,
		timestamp INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_messages_partition_ts ON chat_messages(partition, timestamp);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// AppendMessage stores a conversation turn.
// Retries with exponential backoff on SQLite concurrency errors.
func (s *SQLiteStore) AppendMessage(ctx context.Context, msg *domain.ChatMessage) (int64, error) {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}

	maxRetries := 3
	baseDelay := 100 * time.Millisecond

	var lastErr error
	for i := 0; i < maxRetries; i++ {
		id, err := s.appendMessageOnce(ctx, msg)
		if err == nil {
			return id, nil
		}
		lastErr = err

		if shared.IsSQLiteConflictError(err) && i < maxRetries-1 {
			delay := baseDelay * time.Duration(1<<i)
			slog.Debug("AppendMessage hit SQLite conflict, retrying",
				"partition", msg.Partition,
				"attempt", i+1,
				"delay", delay)
			time.Sleep(delay)
			continue
		}
		break
	}

	return 0, fmt.Errorf("append message for partition %s: %w", msg.Partition, lastErr)
}

func (s *SQLiteStore) appendMessageOnce(ctx context.Context, msg *domain.ChatMessage) (int64, error) {
	query := `
		INSERT INTO chat_messages (role, content, image_url, partition, timestamp)
		VALUES (?, ?, ?, ?, ?)`

	var imageURL interface{}
	if msg.ImageURL != "" {
		imageURL = msg.ImageURL
	}

	result, err := s.db.ExecContext(ctx, query,
		string(msg.Role), msg.Content, imageURL, msg.Partition, msg.Timestamp.Unix(),
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// History retrieves all messages for a partition ordered by timestamp.
func (s *SQLiteStore) History(ctx context.Context, partition string) ([]domain.ChatMessage, error) {
	query := `
		SELECT id, role, content, image_url, partition, timestamp
		FROM chat_messages WHERE partition = ?
		ORDER BY timestamp ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query, partition)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close history rows", "error", closeErr)
		}
	}()

	var messages []domain.ChatMessage
	for rows.Next() {
		var msg domain.ChatMessage
		var role string
		var imageURL sql.NullString
		var ts int64

		if err := rows.Scan(&msg.ID, &role, &msg.Content, &imageURL, &msg.Partition, &ts); err != nil {
			return nil, fmt.Errorf("scan message row: %w", err)
		}

		msg.Role = domain.Role(role)
		msg.ImageURL = imageURL.String
		msg.Timestamp = time.Unix(ts, 0)
		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}

	return messages, nil
}

// DeleteHistory removes all messages for a partition.
func (s *SQLiteStore) DeleteHistory(ctx context.Context, partition string) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM chat_messages WHERE partition = ?`, partition)
	if err != nil {
		return 0, fmt.Errorf("delete history: %w", err)
	}
	return result.RowsAffected()
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}
