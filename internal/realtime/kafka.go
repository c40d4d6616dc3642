package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/CodeWithGeorg/Academic/internal/appwrite"
	"github.com/CodeWithGeorg/Academic/pkg/logging"
	"github.com/CodeWithGeorg/Academic/pkg/retry"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type KafkaConfig struct {
	Brokers []string
	Topic   string
	// GroupID prefixes the consumer group. Every replica joins its own
	// group, named after the host, so each one sees every event.
	GroupID string
}

// MessageReader is the part of *kafka.Reader the transport uses.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaTransport consumes events republished by the relay. Messages are
// keyed by channel. One reader serves every subscription in the process
// and runs while at least one subscription is open.
type KafkaTransport struct {
	cfg       KafkaConfig
	newReader func(kafka.ReaderConfig) MessageReader
	hostname  func() (string, error)
	logger    *logging.Logger

	mu          sync.Mutex
	handlers    map[string]map[uint64]func(appwrite.EventData)
	nextID      uint64
	subscribers int
	stop        context.CancelFunc
}

func NewKafkaTransport(cfg KafkaConfig, logger *logging.Logger) *KafkaTransport {
	if logger == nil {
		logger = logging.Nop()
	}
	return &KafkaTransport{
		cfg: cfg,
		newReader: func(rc kafka.ReaderConfig) MessageReader {
			return kafka.NewReader(rc)
		},
		hostname: os.Hostname,
		logger:   logger,
		handlers: make(map[string]map[uint64]func(appwrite.EventData)),
	}
}

func (t *KafkaTransport) groupID() string {
	prefix := t.cfg.GroupID
	if prefix == "" {
		prefix = "academic-bff"
	}
	host, err := t.hostname()
	if err != nil || host == "" {
		host = uuid.NewString()
	}
	return prefix + "-" + host
}

// Run registers deliver for channel on the shared reader and blocks until
// ctx is done.
func (t *KafkaTransport) Run(ctx context.Context, channel string, deliver func(appwrite.EventData)) error {
	if len(t.cfg.Brokers) == 0 || t.cfg.Topic == "" {
		return fmt.Errorf("kafka transport: brokers and topic are required")
	}
	id := t.subscribe(channel, deliver)
	defer t.unsubscribe(channel, id)

	<-ctx.Done()
	return nil
}

func (t *KafkaTransport) subscribe(channel string, deliver func(appwrite.EventData)) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.nextID++
	if t.handlers[channel] == nil {
		t.handlers[channel] = make(map[uint64]func(appwrite.EventData))
	}
	t.handlers[channel][t.nextID] = deliver
	t.subscribers++

	if t.stop == nil {
		groupID := t.groupID()
		reader := t.newReader(kafka.ReaderConfig{
			Brokers:     t.cfg.Brokers,
			GroupID:     groupID,
			Topic:       t.cfg.Topic,
			StartOffset: kafka.LastOffset,
		})
		ctx, cancel := context.WithCancel(context.Background())
		t.stop = cancel
		t.logger.Info(ctx, "Starting realtime consumer",
			zap.String("topic", t.cfg.Topic),
			zap.String("group_id", groupID),
		)
		go t.consume(ctx, reader)
	}
	return t.nextID
}

func (t *KafkaTransport) unsubscribe(channel string, id uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.handlers[channel], id)
	if len(t.handlers[channel]) == 0 {
		delete(t.handlers, channel)
	}
	t.subscribers--
	if t.subscribers == 0 && t.stop != nil {
		t.stop()
		t.stop = nil
	}
}

func (t *KafkaTransport) consume(ctx context.Context, reader MessageReader) {
	defer func() { _ = reader.Close() }()

	failures := 0
	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			t.logger.Error(ctx, "Failed to fetch message", zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(retry.Delay(min(failures, maxBackoffAttempts), defaultReconnect)):
			}
			failures++
			continue
		}
		failures = 0

		t.dispatch(ctx, msg)

		if err := reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			t.logger.Error(ctx, "Failed to commit message", zap.Error(err))
		}
	}
}

func (t *KafkaTransport) dispatch(ctx context.Context, msg kafka.Message) {
	t.mu.Lock()
	targets := make([]func(appwrite.EventData), 0, len(t.handlers[string(msg.Key)]))
	for _, deliver := range t.handlers[string(msg.Key)] {
		targets = append(targets, deliver)
	}
	t.mu.Unlock()
	if len(targets) == 0 {
		return
	}

	var data appwrite.EventData
	if err := json.Unmarshal(msg.Value, &data); err != nil {
		t.logger.Warn(ctx, "Failed to unmarshal message",
			zap.String("topic", msg.Topic),
			zap.ByteString("value", msg.Value),
			zap.Error(err),
		)
		return
	}
	for _, deliver := range targets {
		deliver(data)
	}
}

// MessageWriter is the part of *kafka.Writer the publisher uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	writer MessageWriter
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{writer: &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
	}}
}

// Publish writes one delivery keyed by channel, so events for a channel
// stay ordered within their partition.
func (p *KafkaPublisher) Publish(ctx context.Context, channel string, data appwrite.EventData) error {
	value, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(channel),
		Value: value,
		Time:  time.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
