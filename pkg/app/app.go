// Package app wires the ledger engine and services from infrastructure dependencies.
package app

import (
	"github.com/amirasaad/bankledger/pkg/config"
	"github.com/amirasaad/bankledger/pkg/ledger"
	"github.com/amirasaad/bankledger/pkg/service/account"
)

type App struct {
	Deps           *config.Deps
	Config         *config.App
	Ledger         *ledger.Engine
	AccountService *account.Service
}

func New(deps *config.Deps, cfg *config.App) *App {
	a := &App{
		Deps:   deps,
		Config: cfg,
	}

	opts := []ledger.Option{}
	if cfg != nil && cfg.Ledger != nil {
		opts = append(opts, ledger.WithLockTimeout(cfg.Ledger.LockTimeout))
		if deps.Idempotency != nil {
			opts = append(opts, ledger.WithIdempotency(deps.Idempotency, cfg.Ledger.IdempotencyTTL))
		}
	}
	if deps.EventBus != nil {
		opts = append(opts, ledger.WithEventBus(deps.EventBus))
		a.setupEventBus()
	}

	a.Ledger = ledger.New(deps.Uow, deps.Logger, opts...)
	a.AccountService = account.NewService(a.Ledger, deps.Logger)
	return a
}
