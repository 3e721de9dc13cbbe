package account_test

import (
	"io"
	"log"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/amirasaad/bankledger/pkg/domain"
	domainaccount "github.com/amirasaad/bankledger/pkg/domain/account"
	"github.com/amirasaad/bankledger/pkg/domain/money"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMain runs before any tests and applies globally for all tests in the package.
func TestMain(m *testing.M) {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
	log.SetOutput(io.Discard)

	exitVal := m.Run()
	os.Exit(exitVal)
}

func newAccount(t *testing.T, number, balance string, status domainaccount.Status) *domainaccount.Account {
	t.Helper()
	acc, err := domainaccount.New().
		WithNumber(number).
		WithRoutingCode("R001").
		WithOwnerID(uuid.New()).
		WithBalance(money.MustParse(balance)).
		WithStatus(status).
		Build()
	require.NoError(t, err)
	return acc
}

func TestBuild(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		acc, err := domainaccount.New().
			WithNumber("S").
			WithRoutingCode("R001").
			WithOwnerID(uuid.New()).
			Build()
		require.NoError(t, err)
		assert.Equal(t, domainaccount.StatusActive, acc.Status)
		assert.True(t, acc.Balance.IsZero())
	})

	t.Run("missing number", func(t *testing.T) {
		_, err := domainaccount.New().WithRoutingCode("R").WithOwnerID(uuid.New()).Build()
		assert.ErrorIs(t, err, domainaccount.ErrAccountNumberRequired)
	})

	t.Run("missing routing code", func(t *testing.T) {
		_, err := domainaccount.New().WithNumber("S").WithOwnerID(uuid.New()).Build()
		assert.ErrorIs(t, err, domainaccount.ErrRoutingCodeRequired)
	})

	t.Run("missing owner", func(t *testing.T) {
		_, err := domainaccount.New().WithNumber("S").WithRoutingCode("R").Build()
		assert.ErrorIs(t, err, domainaccount.ErrOwnerRequired)
	})

	t.Run("negative balance", func(t *testing.T) {
		_, err := domainaccount.New().
			WithNumber("S").
			WithRoutingCode("R").
			WithOwnerID(uuid.New()).
			WithBalance(money.MustParse("-0.01")).
			Build()
		assert.ErrorIs(t, err, domainaccount.ErrNegativeBalance)
	})

	t.Run("unknown status", func(t *testing.T) {
		_, err := domainaccount.New().
			WithNumber("S").
			WithRoutingCode("R").
			WithOwnerID(uuid.New()).
			WithStatus("FROZEN").
			Build()
		assert.ErrorIs(t, err, domain.ErrInvalidStatus)
	})
}

func TestValidateDeposit(t *testing.T) {
	t.Parallel()
	active := newAccount(t, "S", "0", domainaccount.StatusActive)
	inactive := newAccount(t, "I", "0", domainaccount.StatusInactive)

	assert.NoError(t, active.ValidateDeposit(money.MustParse("1")))
	assert.ErrorIs(t, active.ValidateDeposit(money.Zero()), domain.ErrInvalidAmount)
	assert.ErrorIs(t, active.ValidateDeposit(money.MustParse("-5")), domain.ErrInvalidAmount)
	assert.ErrorIs(t, inactive.ValidateDeposit(money.MustParse("1")), domain.ErrAccountInactive)
	// amount is checked before status
	assert.ErrorIs(t, inactive.ValidateDeposit(money.Zero()), domain.ErrInvalidAmount)
}

func TestValidateWithdraw(t *testing.T) {
	t.Parallel()
	acc := newAccount(t, "S", "100.00", domainaccount.StatusActive)
	inactive := newAccount(t, "I", "100.00", domainaccount.StatusInactive)

	t.Run("successful withdrawal", func(t *testing.T) {
		assert.NoError(t, acc.ValidateWithdraw(money.MustParse("100.00")))
	})

	t.Run("insufficient funds", func(t *testing.T) {
		assert.ErrorIs(t, acc.ValidateWithdraw(money.MustParse("100.01")), domain.ErrInsufficientBalance)
	})

	t.Run("status before balance", func(t *testing.T) {
		assert.ErrorIs(t, inactive.ValidateWithdraw(money.MustParse("1000")), domain.ErrAccountInactive)
	})
}

func TestValidateTransfer_ErrorPrecedence(t *testing.T) {
	t.Parallel()
	sender := newAccount(t, "S", "100.00", domainaccount.StatusActive)
	receiver := newAccount(t, "R", "0", domainaccount.StatusActive)
	inactiveSender := newAccount(t, "IS", "0", domainaccount.StatusInactive)
	inactiveReceiver := newAccount(t, "IR", "0", domainaccount.StatusInactive)

	tests := []struct {
		name     string
		from, to *domainaccount.Account
		amount   string
		want     error
	}{
		{"ok", sender, receiver, "40.00", nil},
		{"nil receiver", sender, nil, "1", domain.ErrReceiverNotFound},
		{"self transfer wins over amount", sender, sender, "0", domain.ErrSelfTransferRejected},
		{"amount wins over status", inactiveSender, inactiveReceiver, "0", domain.ErrInvalidAmount},
		{"sender status wins over receiver status", inactiveSender, inactiveReceiver, "1", domain.ErrSenderInactive},
		{"receiver status wins over balance", sender, inactiveReceiver, "1000", domain.ErrReceiverInactive},
		{"balance", sender, receiver, "100.01", domain.ErrInsufficientBalance},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.from.ValidateTransfer(tt.to, money.MustParse(tt.amount))
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestCreditDebit(t *testing.T) {
	t.Parallel()
	acc := newAccount(t, "S", "100.00", domainaccount.StatusActive)
	now := time.Now()

	bal := acc.Credit(money.MustParse("0.10"), now)
	assert.Equal(t, "100.10", bal.String())

	bal, err := acc.Debit(money.MustParse("100.10"), now)
	require.NoError(t, err)
	assert.True(t, bal.IsZero())

	_, err = acc.Debit(money.MustParse("0.01"), now)
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)
	assert.True(t, acc.Balance.IsZero(), "failed debit must not change the balance")
}

func TestSetStatusAndParse(t *testing.T) {
	t.Parallel()
	acc := newAccount(t, "S", "0", domainaccount.StatusActive)

	st, err := domainaccount.ParseStatus("inactive")
	require.NoError(t, err)
	require.NoError(t, acc.SetStatus(st, time.Now()))
	assert.False(t, acc.IsActive())

	_, err = domainaccount.ParseStatus("closed")
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)
	assert.ErrorIs(t, acc.SetStatus("closed", time.Now()), domain.ErrInvalidStatus)
}

func TestClone_IsDetached(t *testing.T) {
	t.Parallel()
	acc := newAccount(t, "S", "10.00", domainaccount.StatusActive)
	cp := acc.Clone()
	cp.Credit(money.MustParse("5"), time.Now())
	assert.Equal(t, "10.00", acc.Balance.String())
	assert.Equal(t, "15.00", cp.Balance.String())
}
