// Package realtime turns backend push notifications into typed create and
// update events for a collection kind.
package realtime

import (
	"context"
	"slices"
	"sync"

	"github.com/CodeWithGeorg/Academic/internal/appwrite"
	"github.com/CodeWithGeorg/Academic/internal/domain"
	"github.com/CodeWithGeorg/Academic/internal/gateway"
	"github.com/CodeWithGeorg/Academic/pkg/logging"
	"go.uber.org/zap"
)

// Transport streams raw deliveries for one channel until ctx is done.
type Transport interface {
	Run(ctx context.Context, channel string, deliver func(appwrite.EventData)) error
}

type Bridge struct {
	transport   Transport
	databaseID  string
	collections map[domain.Kind]string
	logger      *logging.Logger
}

func NewBridge(transport Transport, collections gateway.Collections, logger *logging.Logger) *Bridge {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Bridge{
		transport:  transport,
		databaseID: collections.DatabaseID,
		collections: map[domain.Kind]string{
			domain.KindAssignments: collections.AssignmentsID,
			domain.KindSubmissions: collections.SubmissionsID,
			domain.KindUsers:       collections.UsersID,
			domain.KindMessages:    collections.MessagesID,
		},
		logger: logger,
	}
}

// Channel is the topic for kind, or "" when its identifiers are missing.
func (b *Bridge) Channel(kind domain.Kind) string {
	collection := b.collections[kind]
	if b.databaseID == "" || collection == "" {
		return ""
	}
	return appwrite.DocumentsChannel(b.databaseID, collection)
}

// Subscribe delivers create and update events for kind to onEvent until the
// returned function is called. When the channel cannot be set up the result
// is a no-op and the caller keeps working on request/response alone.
//
// onEvent runs under the subscription lock, so once unsubscribe returns no
// call is in progress or will follow. onEvent must not call unsubscribe.
func (b *Bridge) Subscribe(ctx context.Context, kind domain.Kind, onEvent func(Event)) (unsubscribe func()) {
	channel := b.Channel(kind)
	if channel == "" {
		b.logger.Warn(ctx, "Skipping subscription: missing database or collection id", zap.String("kind", kind.String()))
		return func() {}
	}
	if b.transport == nil {
		b.logger.Warn(ctx, "Skipping subscription: realtime transport unavailable", zap.String("channel", channel))
		return func() {}
	}

	subCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	sub := &subscription{kind: kind, channel: channel, onEvent: onEvent, logger: b.logger}

	go func() {
		if err := b.transport.Run(subCtx, channel, sub.deliver); err != nil && subCtx.Err() == nil {
			b.logger.Warn(subCtx, "Realtime subscription ended", zap.String("channel", channel), zap.Error(err))
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			sub.close()
			cancel()
		})
	}
}

type subscription struct {
	mu      sync.Mutex
	closed  bool
	kind    domain.Kind
	channel string
	onEvent func(Event)
	logger  *logging.Logger
}

func (s *subscription) deliver(data appwrite.EventData) {
	if len(data.Channels) > 0 && !slices.Contains(data.Channels, s.channel) {
		return
	}
	ev, ok, err := Decode(s.kind, data)
	if err != nil {
		s.logger.Warn(context.Background(), "Dropping undecodable realtime event",
			zap.String("channel", s.channel),
			zap.Strings("events", data.Events),
			zap.Error(err),
		)
		return
	}
	if !ok {
		return
	}
	ev.Channel = s.channel

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.onEvent(ev)
}

func (s *subscription) close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}
