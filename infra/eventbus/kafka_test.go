//go:build integration

package eventbus

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/amirasaad/bankledger/pkg/domain/events"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
)

func setupKafkaBus(tb testing.TB) *KafkaEventBus {
	tb.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(tb, err)
	tb.Cleanup(func() { _ = container.Terminate(context.Background()) })

	brokers, err := container.Brokers(ctx)
	require.NoError(tb, err)

	bus, err := NewWithKafka(strings.Join(brokers, ","), slog.Default(), nil)
	require.NoError(tb, err)
	tb.Cleanup(func() { _ = bus.Close() })
	return bus
}

func TestKafkaBus_HandlerReceivesEvent(t *testing.T) {
	bus := setupKafkaBus(t)

	received := make(chan events.Event, 1)
	bus.Register(events.EventTypeDepositPosted, func(ctx context.Context, e events.Event) error {
		received <- e
		return nil
	})
	require.NoError(t, bus.Emit(context.Background(), postedDeposit()))

	select {
	case e := <-received:
		require.Equal(t, events.EventTypeDepositPosted.String(), e.Type())
	case <-time.After(20 * time.Second):
		t.Fatal("handler did not receive event in time")
	}
}

func TestKafkaBus_FailedHandlerGoesToDLQ(t *testing.T) {
	bus := setupKafkaBus(t)
	bus.Register(events.EventTypeDepositPosted, func(ctx context.Context, e events.Event) error {
		return errors.New("simulated failure")
	})
	require.NoError(t, bus.Emit(context.Background(), postedDeposit()))

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     bus.brokers,
		Topic:       dlqTopicNameFor(bus.config.TopicPrefix, events.EventTypeDepositPosted),
		StartOffset: kafka.FirstOffset,
		MaxWait:     500 * time.Millisecond,
	})
	defer func() { _ = reader.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	msg, err := reader.FetchMessage(ctx)
	require.NoError(t, err)
	evt, err := decode(msg.Value)
	require.NoError(t, err)
	require.Equal(t, events.EventTypeDepositPosted.String(), evt.Type())
}
