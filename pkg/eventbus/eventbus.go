// Package eventbus defines how committed ledger changes are published.
package eventbus

import (
	"context"

	"github.com/amirasaad/bankledger/pkg/domain/events"
)

// HandlerFunc handles a single event. A returned error is logged by the bus
// and, for broker-backed buses, routes the message to a dead letter queue.
type HandlerFunc func(ctx context.Context, e events.Event) error

// Bus publishes events and dispatches them to registered handlers.
type Bus interface {
	Emit(ctx context.Context, event events.Event) error
	Register(eventType events.EventType, handler HandlerFunc)
}
