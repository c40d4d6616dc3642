package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/CodeWithGeorg/Academic/internal/appwrite"
	"github.com/CodeWithGeorg/Academic/internal/cache"
	"github.com/CodeWithGeorg/Academic/internal/config"
	"github.com/CodeWithGeorg/Academic/internal/dashboard"
	"github.com/CodeWithGeorg/Academic/internal/gateway"
	"github.com/CodeWithGeorg/Academic/internal/handler"
	"github.com/CodeWithGeorg/Academic/internal/realtime"
	"github.com/CodeWithGeorg/Academic/internal/session"
	"github.com/CodeWithGeorg/Academic/internal/storage"
	"github.com/CodeWithGeorg/Academic/pkg/logging"
	"github.com/CodeWithGeorg/Academic/pkg/retry"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const sweepInterval = 10 * time.Minute

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.New()
	if err != nil {
		panic(err)
	}

	zapLogger, err := logging.NewZap(cfg.LogFormat)
	if err != nil {
		panic(err)
	}
	logger := logging.New(zapLogger)
	defer logger.Sync()

	for _, key := range cfg.Missing() {
		logger.Warn(ctx, "backend identifier is not set", zap.String("key", key))
	}

	client := appwrite.New(appwrite.Config{
		Endpoint:  cfg.Appwrite.Endpoint,
		ProjectID: cfg.Appwrite.ProjectID,
		Timeout:   cfg.HTTPClientTimeout,
	}, logger)
	collections := gateway.Collections{
		DatabaseID:    cfg.Appwrite.DatabaseID,
		UsersID:       cfg.Appwrite.UsersCollectionID,
		AssignmentsID: cfg.Appwrite.AssignmentsCollectionID,
		SubmissionsID: cfg.Appwrite.SubmissionsCollectionID,
		MessagesID:    cfg.Appwrite.MessagesCollectionID,
	}
	limits := gateway.Limits{List: cfg.ListLimit, StudentList: cfg.StudentListLimit}

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		rdb = cache.NewClient(cfg.RedisURL)
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn(ctx, "redis is unreachable, continuing without it", zap.Error(err))
		}
	}

	files, err := newFileStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal(ctx, "cannot set up file storage", zap.Error(err))
	}

	shared, err := sharedTransport(cfg, rdb, logger)
	if err != nil {
		logger.Fatal(ctx, "cannot set up realtime transport", zap.Error(err))
	}

	sources := func(s session.Session) dashboard.Sources {
		bound := client.WithSession(s.Secret)
		gw := gateway.New(bound, collections, limits, logger)

		src := dashboard.Sources{
			Assignments: gw.Assignments,
			Submissions: gw.Submissions,
			Users:       gw.Users,
			Messages:    gw.Messages,
			Files:       files,
		}
		if src.Files == nil {
			src.Files = storage.NewAppwriteStore(bound, cfg.Appwrite.BucketID)
		}

		transport := shared
		if cfg.Realtime.Transport == "websocket" {
			transport = realtime.NewWebsocketTransport(bound, logger)
		}
		if transport != nil {
			src.Realtime = realtime.NewBridge(transport, collections, logger)
		}
		return src
	}

	opts := []handler.RegistryOption{handler.WithCookieName(cfg.SessionCookie)}
	if rdb != nil {
		opts = append(opts,
			handler.WithRoleCache(cache.NewRedisCache(rdb, "academic:", logger), cfg.RoleCacheTTL),
			handler.WithSecretStore(cache.NewRedisCache(rdb, "academic:", logger)),
		)
	}
	backend := session.NewAppwriteBackend(client, collections, logger)
	reg := handler.NewRegistry(backend, sources, logger, opts...)
	go reg.Run(ctx, sweepInterval)

	port := fmt.Sprintf(":%d", cfg.HTTPPort)
	logger.Info(ctx, "Starting server", zap.String("port", port))

	srv := &http.Server{
		Addr:    port,
		Handler: handler.NewRouter(reg, logger),
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal(ctx, "cannot start http server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info(ctx, "Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal(ctx, "server forced to shutdown", zap.Error(err))
	}
	logger.Info(ctx, "Server stopped")
}

// newFileStore returns the shared S3 store, or nil when attachments go to
// the backend's own bucket on behalf of each session.
func newFileStore(ctx context.Context, cfg *config.Config, logger *logging.Logger) (storage.Store, error) {
	if cfg.Storage.Driver != "s3" {
		return nil, nil
	}
	s3cfg := storage.S3Config{
		Bucket:          cfg.Storage.S3Bucket,
		AccessKeyID:     cfg.Storage.S3AccessKeyID,
		SecretAccessKey: cfg.Storage.S3SecretAccessKey,
		Endpoint:        cfg.Storage.S3Endpoint,
		Region:          cfg.Storage.S3Region,
		URLExpiry:       cfg.Storage.S3URLExpiry,
	}
	client, err := storage.NewS3Client(ctx, s3cfg)
	if err != nil {
		return nil, err
	}
	_, err = retry.Do(ctx, retry.Policy{Attempts: 5, BaseDelay: 500 * time.Millisecond}, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, storage.EnsureBucket(ctx, client, s3cfg.Bucket, logger)
	})
	if err != nil {
		logger.Warn(ctx, "cannot ensure bucket", zap.String("bucket", s3cfg.Bucket), zap.Error(err))
	}
	return storage.NewS3Store(client, s3cfg, logger), nil
}

// sharedTransport returns the transport every session reads from when
// events come through the relay. The websocket transport is per session
// and "none" disables push updates.
func sharedTransport(cfg *config.Config, rdb *redis.Client, logger *logging.Logger) (realtime.Transport, error) {
	switch cfg.Realtime.Transport {
	case "websocket", "none":
		return nil, nil
	case "kafka":
		if len(cfg.Realtime.KafkaBrokers) == 0 {
			return nil, fmt.Errorf("kafka transport needs KAFKA_BROKERS")
		}
		return realtime.NewKafkaTransport(realtime.KafkaConfig{
			Brokers: cfg.Realtime.KafkaBrokers,
			Topic:   cfg.Realtime.KafkaTopic,
			GroupID: cfg.Realtime.KafkaGroupID,
		}, logger), nil
	case "redis":
		if rdb == nil {
			return nil, fmt.Errorf("redis transport needs REDIS_URL")
		}
		return realtime.NewRedisTransport(rdb, cfg.Realtime.RedisChannel, logger), nil
	default:
		return nil, fmt.Errorf("unknown realtime transport %q", cfg.Realtime.Transport)
	}
}
