package repository

import (
	"context"

	"github.com/amirasaad/bankledger/pkg/domain/account"
	"github.com/google/uuid"
)

// AccountRepository defines the interface for account data access operations.
// Reads made inside UnitOfWork.Do see the transaction's own writes.
type AccountRepository interface {
	// GetByAccountNumber returns domain.ErrNotFound when no account has the number.
	GetByAccountNumber(ctx context.Context, number string) (*account.Account, error)
	// GetByOwner lists an owner's accounts ordered by number.
	GetByOwner(ctx context.Context, ownerID uuid.UUID) ([]*account.Account, error)
	Exists(ctx context.Context, number string) (bool, error)
	// Create inserts a new account. Returns domain.ErrAlreadyExists on a number clash.
	Create(ctx context.Context, acct *account.Account) error
	// Save persists balance and status. It succeeds only when the stored version
	// equals acct.Version, and bumps acct.Version on success; otherwise it
	// returns domain.ErrVersionConflict.
	Save(ctx context.Context, acct *account.Account) error
}

// TransactionRepository is the append-only store of ledger records.
type TransactionRepository interface {
	// Append inserts records. Returns domain.ErrDuplicateTransactionID if any id exists.
	Append(ctx context.Context, records ...*account.Transaction) error
	// ListByAccount returns the records owned by an account, newest first when newestFirst is set.
	ListByAccount(ctx context.Context, accountNumber string, newestFirst bool) ([]*account.Transaction, error)
}
