package app

import (
	"context"
	"log/slog"

	"github.com/amirasaad/bankledger/pkg/domain/events"
)

// setupEventBus registers the audit trail handlers. Every committed posting
// and status change is written to the log with its full detail.
func (a *App) setupEventBus() {
	bus := a.Deps.EventBus
	logger := a.Deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	audit := logger.With("handler", "audit")

	for _, t := range []events.EventType{
		events.EventTypeDepositPosted,
		events.EventTypeWithdrawPosted,
		events.EventTypeTransferPosted,
	} {
		bus.Register(t, HandlePosted(audit))
	}
	bus.Register(events.EventTypeAccountStatusChanged, HandleStatusChanged(audit))
}

// HandlePosted logs each posting of a TransactionsPosted event.
func HandlePosted(logger *slog.Logger) func(context.Context, events.Event) error {
	return func(ctx context.Context, e events.Event) error {
		posted, ok := e.(*events.TransactionsPosted)
		if !ok {
			logger.Warn("unexpected event payload", "type", e.Type())
			return nil
		}
		for _, p := range posted.Postings {
			logger.InfoContext(ctx, "📒 posting",
				"event_id", posted.ID,
				"transaction_id", p.TransactionID,
				"type", p.Type,
				"account", p.AccountNumber,
				"amount", p.Amount.String(),
				"balance_after", p.BalanceAfter.String(),
			)
		}
		return nil
	}
}

// HandleStatusChanged logs account lock and unlock events.
func HandleStatusChanged(logger *slog.Logger) func(context.Context, events.Event) error {
	return func(ctx context.Context, e events.Event) error {
		changed, ok := e.(*events.AccountStatusChanged)
		if !ok {
			logger.Warn("unexpected event payload", "type", e.Type())
			return nil
		}
		logger.InfoContext(ctx, "🔒 account status changed",
			"account", changed.AccountNumber,
			"from", changed.From,
			"to", changed.To,
			"changed_by", changed.ChangedBy,
		)
		return nil
	}
}
