package events

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/wolfman30/carebook/pkg/logging"
)

// Tracker records analytics events. Implementations must not block the caller for long.
type Tracker interface {
	Track(ctx context.Context, orgID string, evt Event) error
}

// NoopTracker drops every event.
type NoopTracker struct{}

func (NoopTracker) Track(context.Context, string, Event) error { return nil }

type outboxWriter interface {
	Insert(ctx context.Context, orgID string, eventType string, payload any) (uuid.UUID, error)
}

// OutboxTracker writes events to the analytics outbox for asynchronous delivery.
type OutboxTracker struct {
	store  outboxWriter
	logger *logging.Logger
}

func NewOutboxTracker(store *OutboxStore, logger *logging.Logger) *OutboxTracker {
	if store == nil {
		panic("events: outbox store required")
	}
	return newOutboxTracker(store, logger)
}

func newOutboxTracker(store outboxWriter, logger *logging.Logger) *OutboxTracker {
	if logger == nil {
		logger = logging.Default()
	}
	return &OutboxTracker{store: store, logger: logger}
}

func (t *OutboxTracker) Track(ctx context.Context, orgID string, evt Event) error {
	if evt == nil {
		return errors.New("events: nil event")
	}
	id, err := t.store.Insert(ctx, orgID, evt.EventType(), evt)
	if err != nil {
		return err
	}
	t.logger.Debug("analytics event queued", "event_id", id, "type", evt.EventType(), "org_id", orgID)
	return nil
}
