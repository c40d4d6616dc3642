package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/CodeWithGeorg/Academic/internal/appwrite"
	"github.com/CodeWithGeorg/Academic/pkg/logging"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func redisChannel(prefix, channel string) string {
	return prefix + ":" + channel
}

// RedisTransport subscribes to the pub/sub channel the relay publishes
// each backend channel on.
type RedisTransport struct {
	rdb    *redis.Client
	prefix string
	logger *logging.Logger
}

func NewRedisTransport(rdb *redis.Client, prefix string, logger *logging.Logger) *RedisTransport {
	if logger == nil {
		logger = logging.Nop()
	}
	return &RedisTransport{rdb: rdb, prefix: prefix, logger: logger}
}

func (t *RedisTransport) Run(ctx context.Context, channel string, deliver func(appwrite.EventData)) error {
	sub := t.rdb.Subscribe(ctx, redisChannel(t.prefix, channel))
	defer func() { _ = sub.Close() }()

	// Wait for the subscription confirmation so early publishes are not lost.
	if _, err := sub.Receive(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("failed to subscribe to %s: %w", channel, err)
	}

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			var data appwrite.EventData
			if err := json.Unmarshal([]byte(msg.Payload), &data); err != nil {
				t.logger.Warn(ctx, "Failed to unmarshal message",
					zap.String("channel", msg.Channel),
					zap.Error(err),
				)
				continue
			}
			deliver(data)
		}
	}
}

type RedisPublisher struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisPublisher(rdb *redis.Client, prefix string) *RedisPublisher {
	return &RedisPublisher{rdb: rdb, prefix: prefix}
}

func (p *RedisPublisher) Publish(ctx context.Context, channel string, data appwrite.EventData) error {
	value, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := p.rdb.Publish(ctx, redisChannel(p.prefix, channel), value).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}
