package initializer

import (
	"bytes"
	"io"
	"log/slog"
	"testing"

	infra_cache "github.com/amirasaad/bankledger/infra/cache"
	infra_eventbus "github.com/amirasaad/bankledger/infra/eventbus"
	"github.com/amirasaad/bankledger/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestInitEventBus(t *testing.T) {
	t.Run("defaults to memory", func(t *testing.T) {
		bus, closeFn, err := initEventBus(&config.App{}, discard())
		require.NoError(t, err)
		defer closeFn()
		assert.IsType(t, &infra_eventbus.MemoryEventBus{}, bus)
	})
	t.Run("redis requires url", func(t *testing.T) {
		_, _, err := initEventBus(&config.App{
			Redis:    &config.Redis{},
			EventBus: &config.EventBus{Driver: "redis"},
		}, discard())
		assert.ErrorContains(t, err, "REDIS_URL")
	})
	t.Run("kafka requires brokers", func(t *testing.T) {
		_, _, err := initEventBus(&config.App{
			EventBus: &config.EventBus{Driver: "Kafka"},
		}, discard())
		assert.ErrorContains(t, err, "KAFKA_BROKERS")
	})
	t.Run("unknown driver", func(t *testing.T) {
		_, _, err := initEventBus(&config.App{
			EventBus: &config.EventBus{Driver: "nats"},
		}, discard())
		assert.ErrorContains(t, err, "unsupported")
	})
}

func TestInitIdempotencyStore(t *testing.T) {
	store, closeFn, err := initIdempotencyStore(&config.App{}, discard())
	require.NoError(t, err)
	defer closeFn()
	assert.IsType(t, &infra_cache.MemoryCache{}, store)

	store, _, err = initIdempotencyStore(&config.App{
		Ledger: &config.Ledger{IdempotencyDriver: "none"},
	}, discard())
	require.NoError(t, err)
	assert.Nil(t, store)

	_, _, err = initIdempotencyStore(&config.App{
		Ledger: &config.Ledger{IdempotencyDriver: "redis"},
	}, discard())
	assert.ErrorContains(t, err, "REDIS_URL")
}

func TestInitializeDependencies_RequiresDatabaseURL(t *testing.T) {
	cfg := &config.App{
		Log: &config.Log{Format: "text"},
		DB:  &config.DB{},
	}
	_, _, err := InitializeDependencies(cfg)
	assert.ErrorContains(t, err, "DATABASE_URL")
}

func TestNewLogger_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, &config.Log{Format: "json", Prefix: "[test]"})
	logger.Info("deposit posted", "account", "ACC-1")
	assert.Contains(t, buf.String(), `"account":"ACC-1"`)
	assert.Contains(t, buf.String(), "deposit posted")
}
