package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/amirasaad/bankledger/pkg/domain"
	"github.com/amirasaad/bankledger/pkg/domain/account"
	"github.com/amirasaad/bankledger/pkg/domain/money"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var accountColumns = []string{
	"number", "routing_code", "balance", "status", "owner_id",
	"institution_id", "institution_name", "version", "created_at", "updated_at",
}

func TestAccountRepository_GetByAccountNumber(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAccountRepository(db)
	owner := uuid.New()
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT \* FROM "accounts" WHERE number = \$1`).
		WillReturnRows(sqlmock.NewRows(accountColumns).
			AddRow("S", "R001", "100.00", "ACTIVE", owner, uuid.New(), "First Bank", 3, now, now))

	acct, err := repo.GetByAccountNumber(context.Background(), "S")
	require.NoError(t, err)
	assert.Equal(t, "S", acct.Number)
	assert.Equal(t, "R001", acct.RoutingCode)
	assert.True(t, acct.Balance.Equals(money.MustParse("100")))
	assert.Equal(t, account.StatusActive, acct.Status)
	assert.Equal(t, owner, acct.OwnerID)
	assert.Equal(t, int64(3), acct.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_GetByAccountNumber_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAccountRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "accounts"`).
		WillReturnRows(sqlmock.NewRows(accountColumns))

	_, err := repo.GetByAccountNumber(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAccountRepository_TxReadsLockRow(t *testing.T) {
	db, mock := newMockDB(t)
	repo := newTxAccountRepository(db)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT \* FROM "accounts" WHERE number = \$1 .* FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows(accountColumns).
			AddRow("S", "R001", "1.00", "INACTIVE", uuid.New(), uuid.New(), "", 0, now, now))

	acct, err := repo.GetByAccountNumber(context.Background(), "S")
	require.NoError(t, err)
	assert.False(t, acct.IsActive())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_Save(t *testing.T) {
	t.Run("bumps version on match", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewAccountRepository(db)
		acct := &account.Account{Number: "S", Balance: money.MustParse("60"), Status: account.StatusActive, Version: 4}

		mock.ExpectExec(`UPDATE "accounts" SET .* WHERE .*number = \$\d+ AND version = \$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Save(context.Background(), acct))
		assert.Equal(t, int64(5), acct.Version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("stale version conflicts", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewAccountRepository(db)
		acct := &account.Account{Number: "S", Balance: money.MustParse("60"), Status: account.StatusActive, Version: 4}

		mock.ExpectExec(`UPDATE "accounts"`).WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Save(context.Background(), acct)
		assert.ErrorIs(t, err, domain.ErrVersionConflict)
		assert.Equal(t, int64(4), acct.Version)
	})
}

func TestAccountRepository_Exists(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAccountRepository(db)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "accounts" WHERE number = \$1`).
		WithArgs("S").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	ok, err := repo.Exists(context.Background(), "S")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAccountRepository_GetByOwner(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAccountRepository(db)
	owner := uuid.New()
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT \* FROM "accounts" WHERE owner_id = \$1 ORDER BY number`).
		WithArgs(owner).
		WillReturnRows(sqlmock.NewRows(accountColumns).
			AddRow("A1", "R001", "10.00", "ACTIVE", owner, uuid.New(), "", 0, now, now).
			AddRow("A2", "R001", "0.00", "ACTIVE", owner, uuid.New(), "", 0, now, now))

	list, err := repo.GetByOwner(context.Background(), owner)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "A1", list[0].Number)
	assert.Equal(t, "A2", list[1].Number)
}
