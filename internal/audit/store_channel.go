package audit

import (
	"context"
	"log/slog"

	id "veris/pkg/domain"
)

// ChannelStore hands appended events to the worker so request latency
// never includes the trail write. Reads pass through to the backing
// store. A full buffer drops the event with a warning; the audit trail
// is best-effort, never a request bottleneck.
type ChannelStore struct {
	backing Store
	events  chan Event
	logger  *slog.Logger
}

// NewChannelStore wraps a backing store with an async append buffer.
func NewChannelStore(backing Store, buffer int, logger *slog.Logger) *ChannelStore {
	return &ChannelStore{
		backing: backing,
		events:  make(chan Event, buffer),
		logger:  logger,
	}
}

// Append queues the event for the worker without blocking.
func (s *ChannelStore) Append(ctx context.Context, event Event) error {
	select {
	case s.events <- event:
	default:
		s.logger.WarnContext(ctx, "audit buffer full, event dropped",
			"action", event.Action,
			"application_id", event.ApplicationID.String(),
		)
	}
	return nil
}

// ListByApplication reads the persisted trail from the backing store.
func (s *ChannelStore) ListByApplication(ctx context.Context, appID id.ApplicationID) ([]Event, error) {
	return s.backing.ListByApplication(ctx, appID)
}

// Inbox exposes the queued events for the worker.
func (s *ChannelStore) Inbox() <-chan Event { return s.events }
