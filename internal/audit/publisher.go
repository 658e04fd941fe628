package audit

import (
	"context"

	id "veris/pkg/domain"
	"veris/pkg/requestcontext"
)

// Publisher captures structured audit events. It is append-only and uses the
// storage layer for persistence so tests can swap sinks easily.
type Publisher struct {
	store Store
}

func NewPublisher(store Store) *Publisher {
	return &Publisher{store: store}
}

// Emit persists one event, filling the timestamp and client metadata
// from the request context when the caller left them empty. A nil
// publisher drops events so call sites stay unconditional.
func (p *Publisher) Emit(ctx context.Context, base Event) error {
	if p == nil {
		return nil
	}
	if base.Timestamp.IsZero() {
		base.Timestamp = requestcontext.Now(ctx)
	}
	if base.ClientIP == "" {
		base.ClientIP = requestcontext.ClientIP(ctx)
	}
	if base.UserAgent == "" {
		base.UserAgent = requestcontext.UserAgent(ctx)
	}
	return p.store.Append(ctx, base)
}

func (p *Publisher) List(ctx context.Context, appID id.ApplicationID) ([]Event, error) {
	return p.store.ListByApplication(ctx, appID)
}
