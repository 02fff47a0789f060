package history

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/draana/whatsbot/internal/model/conversation"
)

// PostgresStore persists the conversation log in a single append-only table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to databaseURL and verifies the connection.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// InitSchema creates the history table and its read index if missing.
func (s *PostgresStore) InitSchema(ctx context.Context) error {
	const createTable = `
		CREATE TABLE IF NOT EXISTS conversation_history (
			id SERIAL PRIMARY KEY,
			session_id TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`
	const createIndex = `
		CREATE INDEX IF NOT EXISTS idx_session_created_at
		ON conversation_history (session_id, created_at DESC)`

	if _, err := s.pool.Exec(ctx, createTable); err != nil {
		return fmt.Errorf("create conversation_history table: %w", err)
	}
	if _, err := s.pool.Exec(ctx, createIndex); err != nil {
		return fmt.Errorf("create conversation_history index: %w", err)
	}
	return nil
}

// Append inserts one turn; created_at is assigned by the database.
func (s *PostgresStore) Append(ctx context.Context, sessionID string, role conversation.Role, content string) error {
	const insert = `
		INSERT INTO conversation_history (session_id, role, content)
		VALUES ($1, $2, $3)`

	if _, err := s.pool.Exec(ctx, insert, sessionID, string(role), content); err != nil {
		return fmt.Errorf("append %s turn for session %s: %w", role, sessionID, err)
	}
	return nil
}

// Recent reads the newest limit turns and returns them oldest first.
func (s *PostgresStore) Recent(ctx context.Context, sessionID string, limit int) ([]conversation.Turn, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	// Newest rows first so LIMIT keeps the recent suffix; the id tiebreak
	// preserves insertion order for same-timestamp writes.
	const query = `
		SELECT role, content, created_at FROM conversation_history
		WHERE session_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`

	rows, err := s.pool.Query(ctx, query, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("read history for session %s: %w", sessionID, err)
	}
	defer rows.Close()

	var turns []conversation.Turn
	for rows.Next() {
		var turn conversation.Turn
		var role string
		if err := rows.Scan(&role, &turn.Content, &turn.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		turn.SessionID = sessionID
		turn.Role = conversation.Role(role)
		turns = append(turns, turn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history rows: %w", err)
	}

	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}
