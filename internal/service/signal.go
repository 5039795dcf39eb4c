package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"

	"github.com/herdline/herdline"
)

var tracer = otel.Tracer("signal")

// ChannelFor names the redis pub/sub channel carrying change events for one
// report kind.
func ChannelFor(kind herdline.Kind) string {
	return "herdline:reports:" + kind.String()
}

type SignalService struct {
	rdb *redis.Client
}

func NewSignalService(redisClient *redis.Client) *SignalService {
	return &SignalService{
		rdb: redisClient,
	}
}

// Publish fans a report change event out to that kind's channel.
func (s *SignalService) Publish(ctx context.Context, event herdline.Event) error {
	ctx, span := tracer.Start(ctx, "Signal.Service.Publish")
	defer span.End()

	jsonstr, err := json.Marshal(event)
	if err != nil {
		span.RecordError(errors.Wrap(err, "failed to marshal event"))
		return err
	}

	err = s.rdb.Publish(ctx, ChannelFor(event.Kind), jsonstr).Err()
	if err != nil {
		span.RecordError(errors.Wrap(err, "failed to publish event"))
		return err
	}

	return nil
}

// Realtime bridges redis pub/sub to a consumer. Each value received on
// request re-scopes the subscription to the given kinds; decoded events
// flow out on response until the context ends or request closes.
func (s *SignalService) Realtime(ctx context.Context, request <-chan []herdline.Kind, response chan<- herdline.Event) {
	pubsub := s.rdb.Subscribe(ctx)
	defer pubsub.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case kinds, ok := <-request:
			if !ok {
				return
			}
			channels := make([]string, 0, len(kinds))
			for _, kind := range kinds {
				channels = append(channels, ChannelFor(kind))
			}
			if err := pubsub.Unsubscribe(ctx); err != nil {
				slog.ErrorContext(
					ctx, "failed to reset realtime subscription",
					slog.String("error", err.Error()),
					slog.String("module", "signal"),
				)
				continue
			}
			if len(channels) == 0 {
				continue
			}
			if err := pubsub.Subscribe(ctx, channels...); err != nil {
				slog.ErrorContext(
					ctx, "failed to subscribe realtime channels",
					slog.String("error", err.Error()),
					slog.String("module", "signal"),
				)
			}
		case msg, ok := <-pubsub.Channel():
			if !ok {
				return
			}
			var event herdline.Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				slog.WarnContext(
					ctx, "dropping malformed realtime event",
					slog.String("error", err.Error()),
					slog.String("module", "signal"),
				)
				continue
			}
			select {
			case response <- event:
			case <-ctx.Done():
				return
			}
		}
	}
}
