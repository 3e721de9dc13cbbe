// Command kafka_smoketest posts a synthetic deposit event through the Kafka
// event bus and waits for the subscriber to receive it.
package main

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/amirasaad/bankledger/infra/eventbus"
	"github.com/amirasaad/bankledger/pkg/domain/account"
	"github.com/amirasaad/bankledger/pkg/domain/events"
	"github.com/amirasaad/bankledger/pkg/domain/money"
	"github.com/google/uuid"
)

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// RunSmokeTest round-trips one TransactionsPosted event through Kafka.
func RunSmokeTest() error {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg := eventbus.DefaultKafkaEventBusConfig()
	cfg.GroupID = envOr("GROUP_ID", "bankledger-smoketest")
	cfg.TopicPrefix = envOr("TOPIC_PREFIX", "bankledger.smoketest")

	bus, err := eventbus.NewWithKafka(envOr("BROKERS", "localhost:9092"), logger, cfg)
	if err != nil {
		logger.Error("connect failed", "error", err)
		return err
	}
	defer func() { _ = bus.Close() }()

	sent := events.NewTransactionsPosted(events.EventTypeDepositPosted, time.Now().UTC(),
		account.NewTransactionFromData(uuid.NewString(), account.TransactionTypeDeposit,
			money.MustParse("1.00"), money.MustParse("1.00"), "SMOKE-1", nil, nil, nil, time.Now().UTC()))

	received := make(chan uuid.UUID, 1)
	bus.Register(events.EventTypeDepositPosted, func(ctx context.Context, e events.Event) error {
		if posted, ok := e.(*events.TransactionsPosted); ok {
			received <- posted.ID
		}
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := bus.Emit(ctx, sent); err != nil {
		logger.Error("emit failed", "error", err)
		return err
	}
	logger.Info("produced", "event_id", sent.ID)

	for {
		select {
		case id := <-received:
			if id == sent.ID {
				logger.Info("kafka smoke test passed", "event_id", id)
				return nil
			}
			logger.Info("skipping earlier event", "event_id", id)
		case <-ctx.Done():
			logger.Error("event not consumed in time", "event_id", sent.ID)
			return ctx.Err()
		}
	}
}

func main() {
	if err := RunSmokeTest(); err != nil {
		os.Exit(1)
	}
}
