package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/amirasaad/bankledger/pkg/domain"
	"github.com/amirasaad/bankledger/pkg/domain/account"
	"github.com/amirasaad/bankledger/pkg/domain/money"
	"github.com/amirasaad/bankledger/pkg/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, uow *UoW, number, balance string) *account.Account {
	t.Helper()
	acct, err := account.New().
		WithNumber(number).
		WithRoutingCode("R001").
		WithOwnerID(uuid.New()).
		WithBalance(money.MustParse(balance)).
		Build()
	require.NoError(t, err)
	repo, _ := uow.AccountRepository()
	require.NoError(t, repo.Create(context.Background(), acct))
	return acct
}

func TestUoW_CommitMakesWritesVisible(t *testing.T) {
	ctx := context.Background()
	uow := NewUoW(NewStore())
	seed(t, uow, "S", "100")

	err := uow.Do(ctx, func(tx repository.UnitOfWork) error {
		accounts, _ := tx.AccountRepository()
		txs, _ := tx.TransactionRepository()
		a, err := accounts.GetByAccountNumber(ctx, "S")
		require.NoError(t, err)
		a.Credit(money.MustParse("5"), time.Now())
		require.NoError(t, accounts.Save(ctx, a))

		again, err := accounts.GetByAccountNumber(ctx, "S")
		require.NoError(t, err)
		assert.True(t, again.Balance.Equals(money.MustParse("105")), "reads see own writes")

		return txs.Append(ctx, &account.Transaction{ID: "t1", AccountNumber: "S", Type: account.TransactionTypeDeposit})
	})
	require.NoError(t, err)

	accounts, _ := uow.AccountRepository()
	a, err := accounts.GetByAccountNumber(ctx, "S")
	require.NoError(t, err)
	assert.True(t, a.Balance.Equals(money.MustParse("105")))
	assert.Equal(t, int64(1), a.Version)

	txs, _ := uow.TransactionRepository()
	list, err := txs.ListByAccount(ctx, "S", true)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestUoW_ErrorDiscardsStagedWrites(t *testing.T) {
	ctx := context.Background()
	uow := NewUoW(NewStore())
	seed(t, uow, "S", "100")
	boom := errors.New("boom")

	err := uow.Do(ctx, func(tx repository.UnitOfWork) error {
		accounts, _ := tx.AccountRepository()
		txs, _ := tx.TransactionRepository()
		a, _ := accounts.GetByAccountNumber(ctx, "S")
		_, _ = a.Debit(money.MustParse("40"), time.Now())
		require.NoError(t, accounts.Save(ctx, a))
		require.NoError(t, txs.Append(ctx, &account.Transaction{ID: "t1", AccountNumber: "S"}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	accounts, _ := uow.AccountRepository()
	a, _ := accounts.GetByAccountNumber(ctx, "S")
	assert.True(t, a.Balance.Equals(money.MustParse("100")))
	txs, _ := uow.TransactionRepository()
	list, _ := txs.ListByAccount(ctx, "S", false)
	assert.Empty(t, list)
}

func TestAccountRepository_StaleSaveConflicts(t *testing.T) {
	ctx := context.Background()
	uow := NewUoW(NewStore())
	seed(t, uow, "S", "100")
	accounts, _ := uow.AccountRepository()

	first, _ := accounts.GetByAccountNumber(ctx, "S")
	second, _ := accounts.GetByAccountNumber(ctx, "S")
	require.NoError(t, accounts.Save(ctx, first))
	assert.ErrorIs(t, accounts.Save(ctx, second), domain.ErrVersionConflict)
}

func TestTransactionRepository_DuplicateIDs(t *testing.T) {
	ctx := context.Background()
	uow := NewUoW(NewStore())
	txs, _ := uow.TransactionRepository()

	require.NoError(t, txs.Append(ctx, &account.Transaction{ID: "x", AccountNumber: "S"}))
	assert.ErrorIs(t, txs.Append(ctx, &account.Transaction{ID: "x", AccountNumber: "S"}), domain.ErrDuplicateTransactionID)
	assert.ErrorIs(t,
		txs.Append(ctx, &account.Transaction{ID: "y", AccountNumber: "S"}, &account.Transaction{ID: "y", AccountNumber: "R"}),
		domain.ErrDuplicateTransactionID)
}

func TestTransactionRepository_NewestFirst(t *testing.T) {
	ctx := context.Background()
	uow := NewUoW(NewStore())
	txs, _ := uow.TransactionRepository()
	base := time.Unix(1_700_000_000, 0)

	require.NoError(t, txs.Append(ctx,
		&account.Transaction{ID: "a", AccountNumber: "S", CreatedAt: base},
		&account.Transaction{ID: "b", AccountNumber: "S", CreatedAt: base.Add(time.Second)},
		&account.Transaction{ID: "c", AccountNumber: "S", CreatedAt: base.Add(time.Second)},
		&account.Transaction{ID: "other", AccountNumber: "R", CreatedAt: base},
	))

	list, err := txs.ListByAccount(ctx, "S", true)
	require.NoError(t, err)
	ids := []string{}
	for _, r := range list {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"c", "b", "a"}, ids)
}

func TestHooks_FailSave(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	uow := NewUoW(store)
	seed(t, uow, "S", "100")
	store.SetHooks(Hooks{BeforeSave: func(a *account.Account) error {
		return errors.New("disk full")
	}})

	accounts, _ := uow.AccountRepository()
	a, _ := accounts.GetByAccountNumber(ctx, "S")
	assert.Error(t, accounts.Save(ctx, a))
}
