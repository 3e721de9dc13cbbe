package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/amirasaad/bankledger/infra/repository/memory"
	"github.com/amirasaad/bankledger/pkg/domain"
	"github.com/amirasaad/bankledger/pkg/ledger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCLI() (*cli, *bytes.Buffer) {
	uow := memory.NewUoW(memory.NewStore())
	engine := ledger.New(uow, slog.New(slog.NewTextHandler(io.Discard, nil)))
	var out bytes.Buffer
	return newCLI(engine, uow, &out), &out
}

func TestCLI_EndToEnd(t *testing.T) {
	c, out := newTestCLI()
	ctx := context.Background()
	bank := uuid.NewString()

	require.NoError(t, c.run(ctx, []string{"open", "S-1", "RT", uuid.NewString(), bank, "First Bank", "100"}))
	require.NoError(t, c.run(ctx, []string{"open", "R-1", "RT", uuid.NewString(), bank, "First Bank"}))
	require.NoError(t, c.run(ctx, []string{"transfer", "S-1", "R-1", "RT", "40", "rent"}))
	require.NoError(t, c.run(ctx, []string{"deposit", "R-1", "2.50"}))
	require.NoError(t, c.run(ctx, []string{"balance", "R-1"}))
	assert.Contains(t, out.String(), "Account R-1 balance: 42.50")

	out.Reset()
	require.NoError(t, c.run(ctx, []string{"history", "R-1"}))
	assert.Contains(t, out.String(), "DEPOSIT")
	assert.Contains(t, out.String(), "TRANSFER_IN")

	require.NoError(t, c.run(ctx, []string{"status", "S-1", "inactive"}))
	err := c.run(ctx, []string{"withdraw", "S-1", "1"})
	assert.ErrorIs(t, err, domain.ErrAccountInactive)
}

func TestCLI_Errors(t *testing.T) {
	c, _ := newTestCLI()
	ctx := context.Background()

	assert.ErrorContains(t, c.run(ctx, nil), "missing command")
	assert.ErrorContains(t, c.run(ctx, []string{"explode"}), "unknown command")
	assert.ErrorContains(t, c.run(ctx, []string{"deposit", "S-1"}), "expected at least 2")
	assert.ErrorIs(t, c.run(ctx, []string{"balance", "NOPE"}), domain.ErrAccountNotFound)
	assert.Error(t, c.run(ctx, []string{"open", "S-1", "RT", "not-a-uuid", uuid.NewString(), "Bank"}))
}
