package realtime

import (
	"context"
	"errors"
	"sync"

	"github.com/CodeWithGeorg/Academic/internal/appwrite"
	"github.com/CodeWithGeorg/Academic/pkg/logging"
	"go.uber.org/zap"
)

type Publisher interface {
	Publish(ctx context.Context, channel string, data appwrite.EventData) error
}

// Relay reads each channel from one upstream transport and republishes
// every delivery to all sinks, so many server replicas can share a single
// backend connection.
type Relay struct {
	source Transport
	sinks  []Publisher
	logger *logging.Logger
}

func NewRelay(source Transport, logger *logging.Logger, sinks ...Publisher) *Relay {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Relay{source: source, sinks: sinks, logger: logger}
}

// Run blocks until ctx is done or every channel's upstream has stopped.
func (r *Relay) Run(ctx context.Context, channels []string) error {
	if len(channels) == 0 {
		return errors.New("relay: no channels to forward")
	}
	if len(r.sinks) == 0 {
		return errors.New("relay: no publishers configured")
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for _, channel := range channels {
		channel := channel
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := r.source.Run(ctx, channel, func(data appwrite.EventData) {
				r.forward(ctx, channel, data)
			})
			if err != nil {
				r.logger.Error(ctx, "Relay upstream stopped", zap.String("channel", channel), zap.Error(err))
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	return errors.Join(errs...)
}

func (r *Relay) forward(ctx context.Context, channel string, data appwrite.EventData) {
	for _, sink := range r.sinks {
		if err := sink.Publish(ctx, channel, data); err != nil {
			r.logger.Error(ctx, "Failed to publish event",
				zap.String("channel", channel),
				zap.Strings("events", data.Events),
				zap.Error(err),
			)
		}
	}
}
