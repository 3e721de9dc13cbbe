package config

import (
	"log/slog"

	"github.com/amirasaad/bankledger/pkg/cache"
	"github.com/amirasaad/bankledger/pkg/eventbus"
	"github.com/amirasaad/bankledger/pkg/repository"
)

// Deps holds all infrastructure dependencies for building the app and services.
type Deps struct {
	Uow         repository.UnitOfWork
	EventBus    eventbus.Bus
	Idempotency cache.IdempotencyStore
	Logger      *slog.Logger
	Config      *App
}
