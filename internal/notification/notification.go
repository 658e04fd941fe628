// Package notification turns application lifecycle events into messages
// for the external delivery system. The core never knows about delivery
// channels; it only emits named events.
package notification

import (
	"context"
	"time"

	id "veris/pkg/domain"
)

// Event is one named lifecycle event to be delivered externally.
type Event struct {
	Name          string           `json:"name"`
	ApplicationID id.ApplicationID `json:"application_id"`
	UserID        id.UserID        `json:"user_id"`
	OccurredAt    time.Time        `json:"occurred_at"`
}

// Publisher delivers events to the outbound transport.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}
