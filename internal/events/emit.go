package events

import (
	"context"

	"go.uber.org/zap"
)

// Emit builds and publishes an event after a committed write. Failures are
// logged and swallowed because the write has already happened.
func Emit(ctx context.Context, pub Publisher, aggregateID, aggregateType, eventType string, data any) {
	if pub == nil {
		return
	}
	event, err := New(aggregateID, aggregateType, eventType, data)
	if err == nil {
		err = pub.Publish(ctx, event)
	}
	if err != nil {
		zap.L().Warn("event publish failed",
			zap.String("event_type", eventType),
			zap.String("aggregate_id", aggregateID),
			zap.Error(err))
	}
}
