package ledger

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/amirasaad/bankledger/pkg/cache"
	"github.com/amirasaad/bankledger/pkg/domain"
	"golang.org/x/sync/singleflight"
)

// idempotencyGuard replays the outcome of a command already completed under
// the same key. Concurrent calls sharing a key collapse into one execution;
// only successful outcomes are remembered, so a failed attempt may be retried.
// A key presented with a different command is rejected with
// domain.ErrIdempotencyKeyReused.
type idempotencyGuard struct {
	store    cache.IdempotencyStore
	ttl      time.Duration
	inflight singleflight.Group
	logger   *slog.Logger
}

// storedOutcome is what the store holds under a key.
type storedOutcome struct {
	Fingerprint string          `json:"fingerprint"`
	Result      json.RawMessage `json:"result"`
}

type flight[T any] struct {
	fingerprint string
	value       T
}

func newIdempotencyGuard(store cache.IdempotencyStore, ttl time.Duration, logger *slog.Logger) *idempotencyGuard {
	return &idempotencyGuard{store: store, ttl: ttl, logger: logger}
}

// fingerprint identifies a command by the fields that decide its effect.
func fingerprint(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x1f")))
	return hex.EncodeToString(sum[:])
}

// do runs fn at most once per key and decodes a replayed outcome into T.
// fp must change whenever the command would post something different.
// An empty key bypasses the guard.
func do[T any](ctx context.Context, g *idempotencyGuard, key, fp string, fn func() (T, error)) (T, error) {
	var zero T
	if g == nil || key == "" {
		return fn()
	}
	log := g.logger.With("idempotency_key", key)

	if v, stored, ok := lookup[T](ctx, g, key); ok {
		if stored != fp {
			log.Warn("idempotency key reused with a different request")
			return zero, domain.ErrIdempotencyKeyReused
		}
		log.Info("🔁 replaying completed command")
		return v, nil
	}

	res, err, shared := g.inflight.Do(key, func() (any, error) {
		if v, stored, ok := lookup[T](ctx, g, key); ok {
			return flight[T]{fingerprint: stored, value: v}, nil
		}
		v, err := fn()
		if err != nil {
			return flight[T]{fingerprint: fp, value: v}, err
		}
		payload, merr := json.Marshal(v)
		if merr == nil {
			payload, merr = json.Marshal(storedOutcome{Fingerprint: fp, Result: payload})
		}
		if merr == nil {
			merr = g.store.Set(ctx, key, payload, g.ttl)
		}
		if merr != nil {
			// The command is committed; losing the record only weakens replay.
			log.Warn("failed to record idempotent outcome", "error", merr)
		}
		return flight[T]{fingerprint: fp, value: v}, nil
	})
	if shared {
		log.Debug("joined in-flight command")
	}
	f, _ := res.(flight[T])
	if f.fingerprint != fp {
		log.Warn("idempotency key reused with a different request")
		return zero, domain.ErrIdempotencyKeyReused
	}
	if err != nil {
		return zero, err
	}
	return f.value, nil
}

func lookup[T any](ctx context.Context, g *idempotencyGuard, key string) (T, string, bool) {
	var v T
	payload, ok, err := g.store.Get(ctx, key)
	if err != nil {
		g.logger.Warn("idempotency lookup failed", "idempotency_key", key, "error", err)
		return v, "", false
	}
	if !ok {
		return v, "", false
	}
	var outcome storedOutcome
	if err := json.Unmarshal(payload, &outcome); err == nil && outcome.Fingerprint != "" {
		err = json.Unmarshal(outcome.Result, &v)
		if err == nil {
			return v, outcome.Fingerprint, true
		}
	}
	g.logger.Warn("discarding unreadable idempotent outcome", "idempotency_key", key)
	return v, "", false
}
