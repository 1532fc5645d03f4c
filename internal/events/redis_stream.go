package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// StreamAdder is the slice of the Redis client the forwarder uses.
type StreamAdder interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// StreamForwarder appends every lifecycle event to a Redis stream so downstream
// consumers (notifications, analytics) can follow the request lifecycle.
type StreamForwarder struct {
	client StreamAdder
	key    string
	maxLen int64
	logger *zap.Logger
}

// NewStreamForwarder builds a forwarder writing to key, trimming the stream to
// roughly maxLen entries when maxLen is positive.
func NewStreamForwarder(client StreamAdder, key string, maxLen int64, logger *zap.Logger) *StreamForwarder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StreamForwarder{client: client, key: key, maxLen: maxLen, logger: logger}
}

// Register subscribes the forwarder to every lifecycle event.
func (f *StreamForwarder) Register(d Dispatcher) {
	if f == nil || f.client == nil || d == nil {
		return
	}
	SubscribeAll(d, f.Forward)
}

// Forward writes one event to the stream.
func (f *StreamForwarder) Forward(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("encode event payload: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: f.key,
		Values: map[string]any{
			"event_id":   event.ID,
			"type":       string(event.Type),
			"request_id": event.RequestID,
			"version":    strconv.FormatInt(event.Version, 10),
			"actor_id":   event.Actor.ID,
			"actor_role": string(event.Actor.Role),
			"timestamp":  event.Timestamp.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
			"payload":    string(payload),
		},
	}
	if f.maxLen > 0 {
		args.MaxLen = f.maxLen
		args.Approx = true
	}

	id, err := f.client.XAdd(ctx, args).Result()
	if err != nil {
		return fmt.Errorf("xadd %s: %w", f.key, err)
	}
	f.logger.Debug("event forwarded",
		zap.String("stream", f.key),
		zap.String("entry_id", id),
		zap.String("event_type", string(event.Type)))
	return nil
}
