package history

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/draana/whatsbot/internal/model/conversation"
)

// MemoryStore keeps conversation logs in process memory. It backs local runs
// without a DATABASE_URL and the test suite; history does not survive
// restarts.
type MemoryStore struct {
	mu    sync.RWMutex
	turns map[string][]conversation.Turn
}

// NewMemoryStore returns an empty in-memory log.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{turns: make(map[string][]conversation.Turn)}
}

// Append adds a turn; slice order is the session's insertion order.
func (s *MemoryStore) Append(_ context.Context, sessionID string, role conversation.Role, content string) error {
	turn := conversation.Turn{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.turns[sessionID] = append(s.turns[sessionID], turn)
	s.mu.Unlock()
	return nil
}

// Recent returns the trailing limit turns, oldest first.
func (s *MemoryStore) Recent(_ context.Context, sessionID string, limit int) ([]conversation.Turn, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	turns := s.turns[sessionID]
	start := 0
	if len(turns) > limit {
		start = len(turns) - limit
	}

	copied := make([]conversation.Turn, len(turns)-start)
	copy(copied, turns[start:])
	return copied, nil
}
