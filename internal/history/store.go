package history

import (
	"context"

	"github.com/draana/whatsbot/internal/model/conversation"
)

// DefaultLimit bounds how many recent turns feed a completion window.
const DefaultLimit = 10

// Store is the durable append-only conversation log, keyed by normalized
// sender identity. Both operations are independently retryable; callers are
// expected to survive failures of either.
type Store interface {
	// Append durably adds one immutable turn. The store assigns the
	// timestamp; per-session ordering follows insertion order.
	Append(ctx context.Context, sessionID string, role conversation.Role, content string) error
	// Recent returns up to limit of the most recent turns for the session,
	// oldest first, with no gaps.
	Recent(ctx context.Context, sessionID string, limit int) ([]conversation.Turn, error)
}
