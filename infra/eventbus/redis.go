package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/amirasaad/bankledger/pkg/domain/events"
	"github.com/amirasaad/bankledger/pkg/eventbus"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisEventBusConfig tunes the Redis Streams bus.
type RedisEventBusConfig struct {
	KeyPrefix        string
	BlockFor         time.Duration
	DLQRetryInterval time.Duration
	DLQBatchSize     int64
}

// DefaultRedisEventBusConfig returns default configuration for RedisEventBus.
func DefaultRedisEventBusConfig() *RedisEventBusConfig {
	return &RedisEventBusConfig{
		KeyPrefix:        "ledger:",
		BlockFor:         2 * time.Second,
		DLQRetryInterval: 5 * time.Minute,
		DLQBatchSize:     10,
	}
}

// RedisEventBus publishes events to one Redis stream per event type and
// consumes them through a consumer group. Messages whose handlers fail are
// copied to a per-type DLQ stream and acknowledged.
type RedisEventBus struct {
	client *redis.Client
	config *RedisEventBusConfig
	logger *slog.Logger

	mu       sync.RWMutex
	handlers map[events.EventType][]eventbus.HandlerFunc

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWithRedis connects to url and starts the DLQ retry worker.
func NewWithRedis(url string, logger *slog.Logger, config *RedisEventBusConfig) (*RedisEventBus, error) {
	if strings.TrimSpace(url) == "" {
		return nil, fmt.Errorf("redis event bus: url is required")
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis event bus: invalid URL: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(context.Background()).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis event bus: connection failed: %w", err)
	}
	return NewWithRedisClient(client, logger, config), nil
}

// NewWithRedisClient builds a bus on an existing client.
func NewWithRedisClient(client *redis.Client, logger *slog.Logger, config *RedisEventBusConfig) *RedisEventBus {
	defaults := DefaultRedisEventBusConfig()
	if config == nil {
		config = defaults
	}
	if config.BlockFor <= 0 {
		config.BlockFor = defaults.BlockFor
	}
	if config.DLQRetryInterval <= 0 {
		config.DLQRetryInterval = defaults.DLQRetryInterval
	}
	if config.DLQBatchSize <= 0 {
		config.DLQBatchSize = defaults.DLQBatchSize
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	b := &RedisEventBus{
		client:   client,
		config:   config,
		logger:   logger.With("bus", "redis"),
		handlers: make(map[events.EventType][]eventbus.HandlerFunc),
		ctx:      ctx,
		cancel:   cancel,
	}
	b.startDLQRetryWorker()
	b.logger.Info("🚀 Redis event bus initialized", "prefix", config.KeyPrefix)
	return b
}

// Emit appends the event envelope to the stream of its type.
func (b *RedisEventBus) Emit(ctx context.Context, event events.Event) error {
	raw, err := encode(event)
	if err != nil {
		return fmt.Errorf("redis event bus: %w", err)
	}
	stream := streamNameFor(b.config.KeyPrefix, events.EventType(event.Type()))
	if err := b.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: map[string]any{"event": string(raw)},
	}).Err(); err != nil {
		return fmt.Errorf("redis event bus: emit failed: %w", err)
	}
	b.logger.Debug("event emitted", "type", event.Type(), "stream", stream)
	return nil
}

// Register adds a handler. The first handler for a type starts its consumer.
func (b *RedisEventBus) Register(eventType events.EventType, handler eventbus.HandlerFunc) {
	b.mu.Lock()
	first := len(b.handlers[eventType]) == 0
	b.handlers[eventType] = append(b.handlers[eventType], handler)
	b.mu.Unlock()
	if !first {
		return
	}

	stream := streamNameFor(b.config.KeyPrefix, eventType)
	group := groupNameFor(b.config.KeyPrefix, eventType)
	err := b.client.XGroupCreateMkStream(b.ctx, stream, group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		b.logger.Error("❌ failed to create consumer group", "stream", stream, "error", err)
		return
	}

	consumer := "consumer-" + uuid.NewString()
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.consume(eventType, stream, group, consumer)
	}()
	b.logger.Info("handler registered", "event_type", eventType, "consumer", consumer)
}

func (b *RedisEventBus) consume(eventType events.EventType, stream, group, consumer string) {
	for b.ctx.Err() == nil {
		res, err := b.client.XReadGroup(b.ctx, &redis.XReadGroupArgs{
			Group:    group,
			Consumer: consumer,
			Streams:  []string{stream, ">"},
			Count:    10,
			Block:    b.config.BlockFor,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || b.ctx.Err() != nil {
				continue
			}
			b.logger.Error("❌ error reading from stream", "stream", stream, "error", err)
			time.Sleep(time.Second)
			continue
		}
		for _, s := range res {
			for _, msg := range s.Messages {
				b.handleMessage(eventType, stream, group, msg)
			}
		}
	}
}

func (b *RedisEventBus) handleMessage(eventType events.EventType, stream, group string, msg redis.XMessage) {
	ctx := b.ctx
	raw, _ := msg.Values["event"].(string)
	evt, err := decode([]byte(raw))
	if err != nil {
		b.logger.Error("❌ undecodable message", "stream", stream, "id", msg.ID, "error", err)
		b.pushToDLQ(ctx, eventType, msg.Values)
	} else if !dispatch(ctx, b.logger, evt, b.handlersFor(eventType)) {
		b.pushToDLQ(ctx, eventType, msg.Values)
	}
	if err := b.client.XAck(ctx, stream, group, msg.ID).Err(); err != nil {
		b.logger.Error("❌ failed to acknowledge message", "id", msg.ID, "error", err)
	}
}

func (b *RedisEventBus) handlersFor(eventType events.EventType) []eventbus.HandlerFunc {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]eventbus.HandlerFunc(nil), b.handlers[eventType]...)
}

func (b *RedisEventBus) pushToDLQ(ctx context.Context, eventType events.EventType, values map[string]any) {
	dlq := dlqStreamName(b.config.KeyPrefix, eventType)
	if err := b.client.XAdd(ctx, &redis.XAddArgs{Stream: dlq, Values: values}).Err(); err != nil {
		b.logger.Error("❌ failed to push to DLQ", "stream", dlq, "error", err)
		return
	}
	b.logger.Warn("⚠️ event pushed to DLQ", "stream", dlq)
}

func (b *RedisEventBus) startDLQRetryWorker() {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		ticker := time.NewTicker(b.config.DLQRetryInterval)
		defer ticker.Stop()
		for {
			select {
			case <-b.ctx.Done():
				return
			case <-ticker.C:
				b.processAllDLQs(b.ctx)
			}
		}
	}()
}

// processAllDLQs moves a batch of dead-lettered messages of every registered
// type back onto their original stream.
func (b *RedisEventBus) processAllDLQs(ctx context.Context) {
	b.mu.RLock()
	types := make([]events.EventType, 0, len(b.handlers))
	for t := range b.handlers {
		types = append(types, t)
	}
	b.mu.RUnlock()

	for _, t := range types {
		dlq := dlqStreamName(b.config.KeyPrefix, t)
		msgs, err := b.client.XRangeN(ctx, dlq, "-", "+", b.config.DLQBatchSize).Result()
		if err != nil {
			b.logger.Error("❌ failed to read DLQ", "stream", dlq, "error", err)
			continue
		}
		for _, msg := range msgs {
			if err := b.client.XAdd(ctx, &redis.XAddArgs{
				Stream: streamNameFor(b.config.KeyPrefix, t),
				Values: msg.Values,
			}).Err(); err != nil {
				b.logger.Error("❌ failed to republish DLQ message", "stream", dlq, "error", err)
				break
			}
			_ = b.client.XDel(ctx, dlq, msg.ID).Err()
			b.logger.Info("🔁 DLQ message republished", "event_type", t, "id", msg.ID)
		}
	}
}

// Close stops consumers and the retry worker, then closes the client.
func (b *RedisEventBus) Close() error {
	b.cancel()
	b.wg.Wait()
	return b.client.Close()
}

var _ eventbus.Bus = (*RedisEventBus)(nil)
