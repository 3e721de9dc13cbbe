package repository

import (
	"context"
	"fmt"
	"reflect"

	"github.com/amirasaad/bankledger/pkg/repository"
	"gorm.io/gorm"
)

// UoW provides transaction boundary and repository access in one abstraction.
// Repositories obtained inside Do share the transaction, and account reads
// there take row locks (SELECT ... FOR UPDATE).
type UoW struct {
	db           *gorm.DB
	tx           *gorm.DB
	repoRegistry map[reflect.Type]func(db *gorm.DB, inTx bool) any
}

// NewUoW creates a new UoW for the given *gorm.DB.
func NewUoW(db *gorm.DB) *UoW {
	return &UoW{
		db: db,
		repoRegistry: map[reflect.Type]func(*gorm.DB, bool) any{
			repository.AccountRepositoryType: func(db *gorm.DB, inTx bool) any {
				if inTx {
					return newTxAccountRepository(db)
				}
				return NewAccountRepository(db)
			},
			repository.TransactionRepositoryType: func(db *gorm.DB, _ bool) any {
				return NewTransactionRepository(db)
			},
		},
	}
}

// Do runs fn in a database transaction. Any error returned by fn rolls back.
func (u *UoW) Do(ctx context.Context, fn func(uow repository.UnitOfWork) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&UoW{db: u.db, tx: tx, repoRegistry: u.repoRegistry})
	})
}

// GetRepository returns a repository bound to the transaction when called
// inside Do, and to the base connection otherwise.
func (u *UoW) GetRepository(repoType reflect.Type) (any, error) {
	constructor, ok := u.repoRegistry[repoType]
	if !ok {
		return nil, fmt.Errorf("unsupported repository type: %v", repoType)
	}
	if u.tx != nil {
		return constructor(u.tx, true), nil
	}
	return constructor(u.db, false), nil
}

// AccountRepository returns the account store for the current session.
func (u *UoW) AccountRepository() (repository.AccountRepository, error) {
	repoAny, err := u.GetRepository(repository.AccountRepositoryType)
	if err != nil {
		return nil, err
	}
	return repoAny.(repository.AccountRepository), nil
}

// TransactionRepository returns the transaction log for the current session.
func (u *UoW) TransactionRepository() (repository.TransactionRepository, error) {
	repoAny, err := u.GetRepository(repository.TransactionRepositoryType)
	if err != nil {
		return nil, err
	}
	return repoAny.(repository.TransactionRepository), nil
}

var _ repository.UnitOfWork = (*UoW)(nil)
