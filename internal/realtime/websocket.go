package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/CodeWithGeorg/Academic/internal/appwrite"
	"github.com/CodeWithGeorg/Academic/pkg/logging"
	"github.com/CodeWithGeorg/Academic/pkg/retry"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	defaultHeartbeat   = 20 * time.Second
	defaultReconnect   = 500 * time.Millisecond
	maxBackoffAttempts = 6
	writeWait          = 10 * time.Second
)

// URLSource builds the websocket address and carries the session secret.
type URLSource interface {
	RealtimeURL(channels ...string) (string, error)
	Session() string
}

// WebsocketTransport reads the backend's realtime websocket. Dropped
// connections are re-dialed with exponential backoff; a run of failed dials
// opens the circuit breaker and dialing pauses until it resets.
type WebsocketTransport struct {
	source    URLSource
	dialer    *websocket.Dialer
	breaker   *retry.CircuitBreaker
	heartbeat time.Duration
	reconnect time.Duration
	logger    *logging.Logger
}

type WebsocketOption func(*WebsocketTransport)

func WithHeartbeat(d time.Duration) WebsocketOption {
	return func(t *WebsocketTransport) { t.heartbeat = d }
}

func WithReconnectDelay(d time.Duration) WebsocketOption {
	return func(t *WebsocketTransport) { t.reconnect = d }
}

func NewWebsocketTransport(source URLSource, logger *logging.Logger, opts ...WebsocketOption) *WebsocketTransport {
	if logger == nil {
		logger = logging.Nop()
	}
	t := &WebsocketTransport{
		source:    source,
		dialer:    websocket.DefaultDialer,
		breaker:   retry.NewCircuitBreaker(5, 30*time.Second),
		heartbeat: defaultHeartbeat,
		reconnect: defaultReconnect,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// connectionLost marks a drop after a successful dial, which is always
// worth a reconnect.
type connectionLost struct {
	err error
}

func (e *connectionLost) Error() string   { return "realtime connection lost: " + e.err.Error() }
func (e *connectionLost) Unwrap() error   { return e.err }
func (e *connectionLost) Temporary() bool { return true }

func (t *WebsocketTransport) Run(ctx context.Context, channel string, deliver func(appwrite.EventData)) error {
	address, err := t.source.RealtimeURL(channel)
	if err != nil {
		return err
	}

	attempt := 0
	for {
		connected := false
		err := t.breaker.Execute(func() error {
			return t.session(ctx, address, deliver, &connected)
		})
		if ctx.Err() != nil {
			return nil
		}
		if err != nil && !retry.IsRetriable(err) && !errors.Is(err, retry.ErrCircuitOpen) {
			return err
		}
		if connected {
			attempt = 0
		}

		delay := retry.Delay(attempt, t.reconnect)
		t.logger.Warn(ctx, "Realtime connection dropped, reconnecting",
			zap.String("channel", channel),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}
		if attempt < maxBackoffAttempts {
			attempt++
		}
	}
}

func (t *WebsocketTransport) session(ctx context.Context, address string, deliver func(appwrite.EventData), connected *bool) error {
	conn, _, err := t.dialer.DialContext(ctx, address, nil)
	if err != nil {
		return fmt.Errorf("failed to dial realtime endpoint: %w", err)
	}
	*connected = true

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
		case <-done:
		}
		_ = conn.Close()
	}()

	if secret := t.source.Session(); secret != "" {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(appwrite.AuthenticationFrame(secret)); err != nil {
			return &connectionLost{err: err}
		}
	}
	if t.heartbeat > 0 {
		go t.ping(conn, done)
	}

	for {
		var frame appwrite.Frame
		if err := conn.ReadJSON(&frame); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return &connectionLost{err: err}
		}
		switch frame.Type {
		case appwrite.FrameEvent:
			var data appwrite.EventData
			if err := json.Unmarshal(frame.Data, &data); err != nil {
				t.logger.Warn(ctx, "Malformed realtime event frame", zap.Error(err))
				continue
			}
			deliver(data)
		case appwrite.FrameError:
			var data appwrite.ErrorData
			_ = json.Unmarshal(frame.Data, &data)
			t.logger.Warn(ctx, "Realtime error frame",
				zap.Int("code", data.Code),
				zap.String("message", data.Message),
			)
		}
	}
}

// ping is the only writer once the authentication frame has gone out.
func (t *WebsocketTransport) ping(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(t.heartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(appwrite.Frame{Type: appwrite.FramePing}); err != nil {
				return
			}
		}
	}
}
