package initializer

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/amirasaad/bankledger/infra"
	infra_cache "github.com/amirasaad/bankledger/infra/cache"
	infra_eventbus "github.com/amirasaad/bankledger/infra/eventbus"
	"github.com/amirasaad/bankledger/infra/migrations"
	infra_repository "github.com/amirasaad/bankledger/infra/repository"
	"github.com/amirasaad/bankledger/pkg/cache"
	"github.com/amirasaad/bankledger/pkg/config"
	"github.com/amirasaad/bankledger/pkg/eventbus"
)

// InitializeDependencies builds every infrastructure dependency from cfg.
// The returned cleanup closes them in reverse order.
func InitializeDependencies(cfg *config.App) (
	deps *config.Deps,
	cleanup func(),
	err error,
) {
	logger := setupLogger(cfg.Log)
	deps = &config.Deps{Logger: logger, Config: cfg}

	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	defer func() {
		if err != nil {
			closeAll()
		}
	}()

	db, err := infra.NewDBConnection(cfg.DB, cfg.Env)
	if err != nil {
		logger.Error("Failed to initialize database", "error", err)
		return nil, nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, err
	}
	closers = append(closers, func() { _ = sqlDB.Close() })

	if cfg.DB.AutoMigrate {
		if err = migrations.Up(sqlDB); err != nil {
			return nil, nil, fmt.Errorf("failed to apply migrations: %w", err)
		}
		logger.Info("✅ Database migrations applied")
	}
	deps.Uow = infra_repository.NewUoW(db)

	bus, closeBus, err := initEventBus(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	closers = append(closers, closeBus)
	deps.EventBus = bus

	store, closeStore, err := initIdempotencyStore(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	closers = append(closers, closeStore)
	deps.Idempotency = store

	return deps, closeAll, nil
}

func initEventBus(cfg *config.App, logger *slog.Logger) (eventbus.Bus, func(), error) {
	driver := "memory"
	if cfg.EventBus != nil && cfg.EventBus.Driver != "" {
		driver = strings.ToLower(cfg.EventBus.Driver)
	}

	switch driver {
	case "memory":
		return infra_eventbus.NewWithMemory(logger), func() {}, nil
	case "redis":
		if cfg.Redis == nil || cfg.Redis.URL == "" {
			return nil, nil, fmt.Errorf("redis event bus requires REDIS_URL")
		}
		bus, err := infra_eventbus.NewWithRedis(cfg.Redis.URL, logger, &infra_eventbus.RedisEventBusConfig{
			KeyPrefix: cfg.Redis.KeyPrefix,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create Redis event bus: %w", err)
		}
		return bus, func() { _ = bus.Close() }, nil
	case "kafka":
		if cfg.Kafka == nil || cfg.Kafka.Brokers == "" {
			return nil, nil, fmt.Errorf("kafka event bus requires KAFKA_BROKERS")
		}
		bus, err := infra_eventbus.NewWithKafka(cfg.Kafka.Brokers, logger, &infra_eventbus.KafkaEventBusConfig{
			GroupID:     cfg.Kafka.GroupID,
			TopicPrefix: cfg.Kafka.TopicPrefix,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create Kafka event bus: %w", err)
		}
		return bus, func() { _ = bus.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unsupported event bus driver %q", driver)
	}
}

// initIdempotencyStore returns a nil store for the "none" driver, which
// disables request replay.
func initIdempotencyStore(cfg *config.App, logger *slog.Logger) (cache.IdempotencyStore, func(), error) {
	driver := "memory"
	if cfg.Ledger != nil && cfg.Ledger.IdempotencyDriver != "" {
		driver = strings.ToLower(cfg.Ledger.IdempotencyDriver)
	}

	switch driver {
	case "none":
		return nil, func() {}, nil
	case "memory":
		c := infra_cache.NewMemoryCache()
		return c, c.Close, nil
	case "redis":
		if cfg.Redis == nil || cfg.Redis.URL == "" {
			return nil, nil, fmt.Errorf("redis idempotency store requires REDIS_URL")
		}
		c, err := infra_cache.NewRedisCache(cfg.Redis.URL, cfg.Redis.KeyPrefix+"idem:", logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create Redis idempotency store: %w", err)
		}
		return c, func() { _ = c.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unsupported idempotency driver %q", driver)
	}
}
