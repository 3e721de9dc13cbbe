package cache

import (
	"context"
	"time"
)

// IdempotencyStore remembers the outcome of a completed ledger command
// under its idempotency key for a bounded time.
type IdempotencyStore interface {
	// Get returns the stored payload and true, or nil and false on a miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores payload under key for ttl. A zero ttl keeps it forever.
	Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
