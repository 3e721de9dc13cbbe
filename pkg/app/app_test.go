package app

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	infracache "github.com/amirasaad/bankledger/infra/cache"
	infraeventbus "github.com/amirasaad/bankledger/infra/eventbus"
	"github.com/amirasaad/bankledger/infra/repository/memory"
	"github.com/amirasaad/bankledger/pkg/commands"
	"github.com/amirasaad/bankledger/pkg/config"
	"github.com/amirasaad/bankledger/pkg/domain/account"
	"github.com/amirasaad/bankledger/pkg/domain/events"
	"github.com/amirasaad/bankledger/pkg/domain/identity"
	"github.com/amirasaad/bankledger/pkg/domain/money"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, uow *memory.UoW, number string, owner uuid.UUID, balance string) {
	t.Helper()
	acct, err := account.New().
		WithNumber(number).
		WithRoutingCode("RT-1").
		WithBalance(money.MustParse(balance)).
		WithOwnerID(owner).
		WithInstitution(uuid.New(), "First Bank").
		Build()
	require.NoError(t, err)
	repo, err := uow.AccountRepository()
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), acct))
}

func TestNew_WiresLedgerBusAndIdempotency(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	uow := memory.NewUoW(memory.NewStore())
	bus := infraeventbus.NewWithMemory(logger)
	idem := infracache.NewMemoryCache()
	defer idem.Close()

	owner := uuid.New()
	seed(t, uow, "S-1", owner, "100.00")
	seed(t, uow, "R-1", uuid.New(), "0.00")

	a := New(&config.Deps{
		Uow:         uow,
		EventBus:    bus,
		Idempotency: idem,
		Logger:      logger,
	}, &config.App{Ledger: &config.Ledger{LockTimeout: time.Second, IdempotencyTTL: time.Minute}})

	cmd := commands.Transfer{
		SenderAccountNumber:   "S-1",
		ReceiverAccountNumber: "R-1",
		ReceiverRoutingCode:   "RT-1",
		Amount:                money.MustParse("40.00"),
		IdempotencyKey:        "k-1",
	}
	p := identity.Customer{ID: owner}
	res, err := a.AccountService.Transfer(context.Background(), p, cmd)
	require.NoError(t, err)
	assert.Equal(t, "60.00", res.SenderBalance.String())

	// Replayed with the same key: no second posting.
	_, err = a.AccountService.Transfer(context.Background(), p, cmd)
	require.NoError(t, err)
	bal, err := a.Ledger.Balance(context.Background(), "R-1")
	require.NoError(t, err)
	assert.Equal(t, "40.00", bal.String())

	require.Len(t, bus.Published(), 1)
	assert.Contains(t, logs.String(), "📒 posting")
	assert.Contains(t, logs.String(), "TRANSFER_IN")
}

func TestHandlers_IgnoreUnexpectedPayload(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	assert.NoError(t, HandlePosted(logger)(context.Background(), &events.AccountStatusChanged{}))
	assert.NoError(t, HandleStatusChanged(logger)(context.Background(), &events.TransactionsPosted{}))
}
