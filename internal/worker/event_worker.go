package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/hotel-requests/internal/events"
	"github.com/spec-kit/hotel-requests/internal/service"
)

// Subscribers lists the event consumers started with the API.
type Subscribers struct {
	Audit     *service.AuditService
	Forwarder *events.StreamForwarder
	Logger    *zap.Logger
}

// StartEventSubscribers registers the audit writer, the optional Redis stream
// forwarder and the activity log on the dispatcher.
func StartEventSubscribers(dispatcher events.Dispatcher, subs Subscribers) {
	if dispatcher == nil {
		return
	}
	if subs.Audit != nil {
		subs.Audit.Register(dispatcher)
	}
	if subs.Forwarder != nil {
		subs.Forwarder.Register(dispatcher)
	}
	if subs.Logger != nil {
		events.SubscribeAll(dispatcher, activityLogger(subs.Logger))
	}
}

func activityLogger(logger *zap.Logger) events.EventHandler {
	return func(_ context.Context, event events.Event) error {
		logger.Info(string(event.Type),
			zap.String("request_id", event.RequestID),
			zap.Int64("version", event.Version),
			zap.String("actor_id", event.Actor.ID),
			zap.String("actor_role", string(event.Actor.Role)),
			zap.Any("payload", event.Payload))
		return nil
	}
}
