package services

import (
	"context"
	"strconv"

	"fintrack/internal/amqp"
	applog "fintrack/internal/log"
)

// EventPublisher sends record events to the broker.
type EventPublisher interface {
	Publish(ctx context.Context, event *amqp.RecordEvent) error
}

// Invalidator drops cached views of one user.
type Invalidator interface {
	Invalidate(userID int64)
}

// emitter publishes best effort: failures are logged and never returned.
type emitter struct {
	pub    EventPublisher
	logger *applog.Logger
}

func newEmitter(pub EventPublisher, component string) emitter {
	return emitter{pub: pub, logger: applog.Default(component)}
}

func (e emitter) emit(ctx context.Context, kind, action string, id, userID int64) {
	if e.pub == nil {
		return
	}
	if err := e.pub.Publish(ctx, amqp.NewRecordEvent(kind, action, id, userID)); err != nil {
		e.logger.WarnContext(ctx, "Failed to publish record event",
			applog.FieldError, err,
			applog.FieldRecordKind, kind,
			applog.FieldRecordID, id,
			"action", action)
	}
}

func userKey(userID int64) string {
	return strconv.FormatInt(userID, 10)
}
