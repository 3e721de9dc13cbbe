// Package ledger is the core of the bank: it mutates balances and records
// transactions for deposits, withdrawals and transfers so that money is never
// created, destroyed or left half-moved under concurrent access.
//
// Every mutating operation follows the same shape: take the account locks in
// canonical order, open a unit of work, read, validate, mutate, build the
// records, save balances and append records, commit, release the locks, and
// finally publish an event.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/amirasaad/bankledger/pkg/cache"
	"github.com/amirasaad/bankledger/pkg/commands"
	"github.com/amirasaad/bankledger/pkg/domain"
	"github.com/amirasaad/bankledger/pkg/domain/account"
	"github.com/amirasaad/bankledger/pkg/domain/events"
	"github.com/amirasaad/bankledger/pkg/domain/money"
	"github.com/amirasaad/bankledger/pkg/eventbus"
	"github.com/amirasaad/bankledger/pkg/repository"
	"github.com/google/uuid"
)

// DefaultLockTimeout bounds how long an operation waits for its account locks.
const DefaultLockTimeout = 5 * time.Second

// Engine executes ledger operations.
type Engine struct {
	uow      repository.UnitOfWork
	locks    *LockCoordinator
	recorder *Recorder
	bus      eventbus.Bus
	idem     *idempotencyGuard
	logger   *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLockTimeout sets the lock acquisition timeout.
func WithLockTimeout(d time.Duration) Option {
	return func(e *Engine) { e.locks = NewLockCoordinator(d) }
}

// WithLockCoordinator shares a coordinator between engines.
func WithLockCoordinator(c *LockCoordinator) Option {
	return func(e *Engine) { e.locks = c }
}

// WithRecorder replaces the transaction recorder.
func WithRecorder(r *Recorder) Option {
	return func(e *Engine) { e.recorder = r }
}

// WithEventBus publishes committed changes to bus.
func WithEventBus(bus eventbus.Bus) Option {
	return func(e *Engine) { e.bus = bus }
}

// WithIdempotency enables replay of commands carrying an idempotency key.
func WithIdempotency(store cache.IdempotencyStore, ttl time.Duration) Option {
	return func(e *Engine) {
		if store != nil {
			e.idem = newIdempotencyGuard(store, ttl, e.logger)
		}
	}
}

// New creates an Engine over uow.
func New(uow repository.UnitOfWork, logger *slog.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		uow:      uow,
		locks:    NewLockCoordinator(DefaultLockTimeout),
		recorder: NewRecorder(),
		logger:   logger.With("component", "ledger"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// BalanceResult is the outcome of a deposit or withdrawal.
type BalanceResult struct {
	Balance money.Money `json:"balance"`
}

// TransferResult is the outcome of a transfer.
type TransferResult struct {
	SenderBalance   money.Money `json:"sender_balance"`
	ReceiverBalance money.Money `json:"receiver_balance"`
}

// Deposit credits cmd.Amount to the account and returns the new balance.
//
// Checks, in order: account exists, amount is positive, account is active.
func (e *Engine) Deposit(ctx context.Context, cmd commands.Deposit) (money.Money, error) {
	log := e.logger.With("op", "deposit", "account", cmd.AccountNumber, "amount", cmd.Amount.String())
	key := idempotencyKey("deposit", cmd.AccountNumber, cmd.IdempotencyKey)

	var posted *account.Transaction
	fp := fingerprint("deposit", cmd.AccountNumber, cmd.Amount.String())
	res, err := do(ctx, e.idem, key, fp, func() (BalanceResult, error) {
		var out BalanceResult
		err := e.locked(ctx, []string{cmd.AccountNumber}, func(uow repository.UnitOfWork) error {
			accounts, txs, err := repos(uow)
			if err != nil {
				return err
			}
			acct, err := load(ctx, accounts, cmd.AccountNumber, domain.ErrAccountNotFound)
			if err != nil {
				return err
			}
			if err := acct.ValidateDeposit(cmd.Amount); err != nil {
				return err
			}

			now := e.recorder.Now()
			balance := acct.Credit(cmd.Amount, now)
			rec := e.recorder.Deposit(acct, cmd.Amount, balance, now)

			if err := accounts.Save(ctx, acct); err != nil {
				return persistence("save account", err)
			}
			if err := txs.Append(ctx, rec); err != nil {
				return persistence("append record", err)
			}
			out.Balance = balance
			posted = rec
			return nil
		})
		return out, err
	})
	if err != nil {
		return money.Money{}, e.fail(log, err)
	}

	log.Info("✅ deposit posted", "balance", res.Balance.String())
	if posted != nil {
		e.emit(ctx, events.NewTransactionsPosted(events.EventTypeDepositPosted, posted.CreatedAt, posted))
	}
	return res.Balance, nil
}

// Withdraw debits cmd.Amount from the account and returns the new balance.
//
// Checks, in order: account exists, amount is positive, account is active,
// balance covers the amount.
func (e *Engine) Withdraw(ctx context.Context, cmd commands.Withdraw) (money.Money, error) {
	log := e.logger.With("op", "withdraw", "account", cmd.AccountNumber, "amount", cmd.Amount.String())
	key := idempotencyKey("withdraw", cmd.AccountNumber, cmd.IdempotencyKey)

	var posted *account.Transaction
	fp := fingerprint("withdraw", cmd.AccountNumber, cmd.Amount.String())
	res, err := do(ctx, e.idem, key, fp, func() (BalanceResult, error) {
		var out BalanceResult
		err := e.locked(ctx, []string{cmd.AccountNumber}, func(uow repository.UnitOfWork) error {
			accounts, txs, err := repos(uow)
			if err != nil {
				return err
			}
			acct, err := load(ctx, accounts, cmd.AccountNumber, domain.ErrAccountNotFound)
			if err != nil {
				return err
			}
			if err := acct.ValidateWithdraw(cmd.Amount); err != nil {
				return err
			}

			now := e.recorder.Now()
			balance, err := acct.Debit(cmd.Amount, now)
			if err != nil {
				return err
			}
			rec := e.recorder.Withdraw(acct, cmd.Amount, balance, now)

			if err := accounts.Save(ctx, acct); err != nil {
				return persistence("save account", err)
			}
			if err := txs.Append(ctx, rec); err != nil {
				return persistence("append record", err)
			}
			out.Balance = balance
			posted = rec
			return nil
		})
		return out, err
	})
	if err != nil {
		return money.Money{}, e.fail(log, err)
	}

	log.Info("✅ withdrawal posted", "balance", res.Balance.String())
	if posted != nil {
		e.emit(ctx, events.NewTransactionsPosted(events.EventTypeWithdrawPosted, posted.CreatedAt, posted))
	}
	return res.Balance, nil
}

// Transfer moves cmd.Amount from the sender to the receiver. Both balances
// and both records commit together or not at all.
//
// Checks, in order: sender exists, receiver exists under the given routing
// code, sender and receiver differ, amount is positive, sender is active,
// receiver is active, sender balance covers the amount.
func (e *Engine) Transfer(ctx context.Context, cmd commands.Transfer) (TransferResult, error) {
	log := e.logger.With(
		"op", "transfer",
		"sender", cmd.SenderAccountNumber,
		"receiver", cmd.ReceiverAccountNumber,
		"amount", cmd.Amount.String(),
	)
	key := idempotencyKey("transfer", cmd.SenderAccountNumber, cmd.IdempotencyKey)

	purpose := ""
	if p := normalizePurpose(cmd.Purpose); p != nil {
		purpose = *p
	}
	fp := fingerprint("transfer", cmd.SenderAccountNumber, cmd.ReceiverAccountNumber,
		cmd.ReceiverRoutingCode, cmd.Amount.String(), purpose)

	var pair []*account.Transaction
	res, err := do(ctx, e.idem, key, fp, func() (TransferResult, error) {
		var out TransferResult
		numbers := []string{cmd.SenderAccountNumber, cmd.ReceiverAccountNumber}
		err := e.locked(ctx, numbers, func(uow repository.UnitOfWork) error {
			accounts, txs, err := repos(uow)
			if err != nil {
				return err
			}
			if err := lockRows(ctx, accounts, numbers); err != nil {
				return err
			}
			sender, err := load(ctx, accounts, cmd.SenderAccountNumber, domain.ErrSenderNotFound)
			if err != nil {
				return err
			}
			receiver, err := e.resolveReceiver(ctx, accounts, sender, cmd)
			if err != nil {
				return err
			}
			if err := sender.ValidateTransfer(receiver, cmd.Amount); err != nil {
				return err
			}

			now := e.recorder.Now()
			senderAfter, err := sender.Debit(cmd.Amount, now)
			if err != nil {
				return err
			}
			receiverAfter := receiver.Credit(cmd.Amount, now)
			outRec, inRec := e.recorder.Transfer(sender, receiver, cmd.Amount, senderAfter, receiverAfter, cmd.Purpose, now)

			if err := accounts.Save(ctx, sender); err != nil {
				return persistence("save sender", err)
			}
			if err := accounts.Save(ctx, receiver); err != nil {
				return persistence("save receiver", err)
			}
			if err := txs.Append(ctx, outRec, inRec); err != nil {
				return persistence("append records", err)
			}
			out = TransferResult{SenderBalance: senderAfter, ReceiverBalance: receiverAfter}
			pair = []*account.Transaction{outRec, inRec}
			return nil
		})
		return out, err
	})
	if err != nil {
		return TransferResult{}, e.fail(log, err)
	}

	log.Info("✅ transfer posted",
		"sender_balance", res.SenderBalance.String(),
		"receiver_balance", res.ReceiverBalance.String(),
	)
	if len(pair) == 2 {
		e.emit(ctx, events.NewTransactionsPosted(events.EventTypeTransferPosted, pair[0].CreatedAt, pair...))
	}
	return res, nil
}

// resolveReceiver looks the receiver up by number and requires the routing
// code to match. The sender itself resolves like any other account so that a
// self-transfer is reported as such rather than as a missing receiver.
func (e *Engine) resolveReceiver(
	ctx context.Context,
	accounts repository.AccountRepository,
	sender *account.Account,
	cmd commands.Transfer,
) (*account.Account, error) {
	var receiver *account.Account
	if cmd.ReceiverAccountNumber == sender.Number {
		receiver = sender
	} else {
		r, err := load(ctx, accounts, cmd.ReceiverAccountNumber, domain.ErrReceiverNotFound)
		if err != nil {
			return nil, err
		}
		receiver = r
	}
	if receiver.RoutingCode != cmd.ReceiverRoutingCode {
		return nil, domain.ErrReceiverNotFound
	}
	return receiver, nil
}

// SetStatus locks or unlocks an account and returns the updated account.
func (e *Engine) SetStatus(ctx context.Context, cmd commands.SetStatus) (*account.Account, error) {
	log := e.logger.With("op", "set_status", "account", cmd.AccountNumber, "status", cmd.Status)
	if !cmd.Status.Valid() {
		return nil, e.fail(log, fmt.Errorf("%w: %q", domain.ErrInvalidStatus, cmd.Status))
	}

	var (
		updated *account.Account
		changed *events.AccountStatusChanged
	)
	err := e.locked(ctx, []string{cmd.AccountNumber}, func(uow repository.UnitOfWork) error {
		accounts, err := uow.AccountRepository()
		if err != nil {
			return persistence("account repository", err)
		}
		acct, err := load(ctx, accounts, cmd.AccountNumber, domain.ErrAccountNotFound)
		if err != nil {
			return err
		}
		from := acct.Status
		if from == cmd.Status {
			updated = acct
			return nil
		}
		now := e.recorder.Now()
		if err := acct.SetStatus(cmd.Status, now); err != nil {
			return err
		}
		if err := accounts.Save(ctx, acct); err != nil {
			return persistence("save account", err)
		}
		updated = acct
		changed = &events.AccountStatusChanged{
			ID:            uuid.New(),
			AccountNumber: acct.Number,
			From:          from,
			To:            cmd.Status,
			ChangedBy:     cmd.ChangedBy,
			OccurredAt:    now,
		}
		return nil
	})
	if err != nil {
		return nil, e.fail(log, err)
	}

	if changed != nil {
		log.Info("🔒 account status changed", "from", changed.From)
		e.emit(ctx, changed)
	}
	return updated, nil
}

// Balance returns the committed balance of an account.
func (e *Engine) Balance(ctx context.Context, number string) (money.Money, error) {
	acct, err := e.Account(ctx, number)
	if err != nil {
		return money.Money{}, err
	}
	return acct.Balance, nil
}

// Account returns the committed state of an account.
func (e *Engine) Account(ctx context.Context, number string) (*account.Account, error) {
	accounts, err := e.uow.AccountRepository()
	if err != nil {
		return nil, persistence("account repository", err)
	}
	acct, err := load(ctx, accounts, number, domain.ErrAccountNotFound)
	if err != nil {
		return nil, classify(err)
	}
	return acct, nil
}

// History returns the records of an account, newest first.
func (e *Engine) History(ctx context.Context, number string) ([]*account.Transaction, error) {
	if _, err := e.Account(ctx, number); err != nil {
		return nil, err
	}
	txs, err := e.uow.TransactionRepository()
	if err != nil {
		return nil, persistence("transaction repository", err)
	}
	records, err := txs.ListByAccount(ctx, number, true)
	if err != nil {
		return nil, persistence("list records", err)
	}
	return records, nil
}

// AccountsOf lists the accounts owned by a customer.
func (e *Engine) AccountsOf(ctx context.Context, ownerID uuid.UUID) ([]*account.Account, error) {
	accounts, err := e.uow.AccountRepository()
	if err != nil {
		return nil, persistence("account repository", err)
	}
	list, err := accounts.GetByOwner(ctx, ownerID)
	if err != nil {
		return nil, persistence("list accounts", err)
	}
	return list, nil
}

// locked runs fn in a unit of work while holding the locks for numbers.
// The locks are released on every exit path, after the unit of work ends.
func (e *Engine) locked(ctx context.Context, numbers []string, fn func(uow repository.UnitOfWork) error) error {
	h, err := e.locks.AcquireFor(ctx, numbers...)
	if err != nil {
		return err
	}
	defer h.Release()

	return classify(e.uow.Do(ctx, fn))
}

func (e *Engine) fail(log *slog.Logger, err error) error {
	switch {
	case errors.Is(err, domain.ErrDuplicateTransactionID):
		log.Error("❌ integrity violation: duplicate transaction id", "error", err)
	case errors.Is(err, domain.ErrPersistenceFailure), errors.Is(err, domain.ErrLockTimeout):
		log.Error("❌ operation failed", "error", err)
	default:
		log.Info("operation rejected", "reason", err)
	}
	return err
}

func (e *Engine) emit(ctx context.Context, evt events.Event) {
	if e.bus == nil {
		return
	}
	if err := e.bus.Emit(ctx, evt); err != nil {
		e.logger.Warn("failed to publish event", "type", evt.Type(), "error", err)
	}
}

func repos(uow repository.UnitOfWork) (repository.AccountRepository, repository.TransactionRepository, error) {
	accounts, err := uow.AccountRepository()
	if err != nil {
		return nil, nil, persistence("account repository", err)
	}
	txs, err := uow.TransactionRepository()
	if err != nil {
		return nil, nil, persistence("transaction repository", err)
	}
	return accounts, txs, nil
}

// load reads an account, reporting a missing one as notFound.
func load(ctx context.Context, accounts repository.AccountRepository, number string, notFound error) (*account.Account, error) {
	acct, err := accounts.GetByAccountNumber(ctx, number)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, notFound
	}
	if err != nil {
		return nil, persistence("load account", err)
	}
	return acct, nil
}

// lockRows reads every account in lock order before any other read so that
// a store taking row locks on read acquires them in the same global order
// as the in-process coordinator. Missing accounts are skipped; the caller's
// own lookups report them.
func lockRows(ctx context.Context, accounts repository.AccountRepository, numbers []string) error {
	for _, n := range lockOrder(numbers) {
		if _, err := accounts.GetByAccountNumber(ctx, n); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return persistence("lock account", err)
		}
	}
	return nil
}

var ledgerErrors = []error{
	domain.ErrAccountNotFound,
	domain.ErrSenderNotFound,
	domain.ErrReceiverNotFound,
	domain.ErrInvalidAmount,
	domain.ErrAccountInactive,
	domain.ErrSenderInactive,
	domain.ErrReceiverInactive,
	domain.ErrInsufficientBalance,
	domain.ErrSelfTransferRejected,
	domain.ErrLockTimeout,
	domain.ErrPersistenceFailure,
	domain.ErrDuplicateTransactionID,
	domain.ErrInvalidStatus,
	domain.ErrIdempotencyKeyReused,
}

// classify leaves ledger error kinds alone and reports anything else, such as
// a failed commit, as a persistence failure.
func classify(err error) error {
	if err == nil {
		return nil
	}
	for _, known := range ledgerErrors {
		if errors.Is(err, known) {
			return err
		}
	}
	return errors.Join(domain.ErrPersistenceFailure, err)
}

func persistence(op string, err error) error {
	if errors.Is(err, domain.ErrDuplicateTransactionID) {
		return err
	}
	return errors.Join(domain.ErrPersistenceFailure, fmt.Errorf("%s: %w", op, err))
}

func idempotencyKey(op, number, key string) string {
	if key == "" {
		return ""
	}
	return op + ":" + number + ":" + key
}
