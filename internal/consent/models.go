// Package consent records consent-exchange outcomes fetched from
// third-party registries. The rest of the system consumes it as a
// completion signal plus optional cross-check fields.
package consent

import (
	"context"
	"time"

	id "veris/pkg/domain"
	dErrors "veris/pkg/domain-errors"
)

// Record is the stored outcome of one consent exchange.
type Record struct {
	ApplicationID id.ApplicationID
	Completed     bool

	// FetchedFields holds identity fields the registry disclosed,
	// keyed by the canonical document field names.
	FetchedFields map[string]string

	Provider    string
	CompletedAt time.Time
}

// ErrNotFound is returned when no exchange was recorded for the
// application.
var ErrNotFound = dErrors.New(dErrors.CodeNotFound, "consent record not found")

// Store persists consent records, one per application.
type Store interface {
	Save(ctx context.Context, record *Record) error
	Get(ctx context.Context, appID id.ApplicationID) (*Record, error)
}

// Exchanger is the external consent-exchange collaborator. It runs the
// registry round trip and reports completion plus disclosed fields.
type Exchanger interface {
	Exchange(ctx context.Context, appID id.ApplicationID, userID id.UserID) (*Record, error)
}
