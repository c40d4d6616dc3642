// Command relay holds the single upstream realtime connection and fans its
// events out to Kafka and Redis for the server replicas.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/CodeWithGeorg/Academic/internal/appwrite"
	"github.com/CodeWithGeorg/Academic/internal/cache"
	"github.com/CodeWithGeorg/Academic/internal/config"
	"github.com/CodeWithGeorg/Academic/internal/domain"
	"github.com/CodeWithGeorg/Academic/internal/gateway"
	"github.com/CodeWithGeorg/Academic/internal/realtime"
	"github.com/CodeWithGeorg/Academic/pkg/logging"
	"github.com/CodeWithGeorg/Academic/pkg/retry"
	"go.uber.org/zap"
)

const (
	signInAttempts = 8
	signInDelay    = 500 * time.Millisecond
)

type sessionCreator interface {
	CreateEmailSession(ctx context.Context, email, password string) (*appwrite.Session, error)
}

// signIn opens the relay's session, retrying while the backend is
// unreachable. Bad credentials fail at once.
func signIn(ctx context.Context, accounts sessionCreator, email, password string, policy retry.Policy) (*appwrite.Session, error) {
	return retry.Do(ctx, policy, func(ctx context.Context) (*appwrite.Session, error) {
		return accounts.CreateEmailSession(ctx, email, password)
	})
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.New()
	if err != nil {
		panic(err)
	}

	zapLogger, err := logging.NewZap(cfg.LogFormat)
	if err != nil {
		panic(err)
	}
	logger := logging.New(zapLogger)
	defer func() { _ = logger.Sync() }()

	client := appwrite.New(appwrite.Config{
		Endpoint:  cfg.Appwrite.Endpoint,
		ProjectID: cfg.Appwrite.ProjectID,
		Timeout:   cfg.HTTPClientTimeout,
	}, logger)

	sess, err := signIn(ctx, client, cfg.Realtime.RelayEmail, cfg.Realtime.RelayPassword, retry.Policy{
		Attempts:  signInAttempts,
		BaseDelay: signInDelay,
		OnRetry: func(attempt int, err error, wait time.Duration) {
			logger.Warn(ctx, "relay sign-in failed, retrying",
				zap.Int("attempt", attempt), zap.Duration("wait", wait), zap.Error(err))
		},
	})
	if err != nil {
		logger.Fatal(ctx, "cannot sign in relay account", zap.Error(err))
	}
	bound := client.WithSession(sess.Secret)
	defer func() {
		if err := bound.DeleteCurrentSession(context.WithoutCancel(ctx)); err != nil {
			logger.Warn(ctx, "cannot sign out relay account", zap.Error(err))
		}
	}()

	var sinks []realtime.Publisher
	if brokers := splitAndTrim(cfg.Realtime.KafkaBrokers); len(brokers) > 0 {
		kp := realtime.NewKafkaPublisher(brokers, cfg.Realtime.KafkaTopic)
		defer func() { _ = kp.Close() }()
		sinks = append(sinks, kp)
	}
	if cfg.RedisURL != "" {
		rdb := cache.NewClient(cfg.RedisURL)
		defer func() { _ = rdb.Close() }()
		sinks = append(sinks, realtime.NewRedisPublisher(rdb, cfg.Realtime.RedisChannel))
	}

	channels := relayChannels(gateway.Collections{
		DatabaseID:    cfg.Appwrite.DatabaseID,
		UsersID:       cfg.Appwrite.UsersCollectionID,
		AssignmentsID: cfg.Appwrite.AssignmentsCollectionID,
		SubmissionsID: cfg.Appwrite.SubmissionsCollectionID,
		MessagesID:    cfg.Appwrite.MessagesCollectionID,
	}, logger)

	logger.Info(ctx, "Starting realtime relay",
		zap.Strings("channels", channels),
		zap.Int("sinks", len(sinks)),
	)

	relay := realtime.NewRelay(realtime.NewWebsocketTransport(bound, logger), logger, sinks...)
	if err := relay.Run(ctx, channels); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error(ctx, "relay stopped", zap.Error(err))
		os.Exit(1)
	}
	logger.Info(ctx, "Relay stopped")
}

// relayChannels lists the channel of every collection whose identifiers are
// set.
func relayChannels(collections gateway.Collections, logger *logging.Logger) []string {
	bridge := realtime.NewBridge(nil, collections, logger)
	kinds := []domain.Kind{domain.KindAssignments, domain.KindSubmissions, domain.KindUsers, domain.KindMessages}

	channels := make([]string, 0, len(kinds))
	for _, kind := range kinds {
		if ch := bridge.Channel(kind); ch != "" {
			channels = append(channels, ch)
		}
	}
	return channels
}

func splitAndTrim(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
