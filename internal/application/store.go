package application

import (
	"context"
	"time"

	id "veris/pkg/domain"
	dErrors "veris/pkg/domain-errors"
)

// ErrNotFound is returned when no application matches the given ID.
var ErrNotFound = dErrors.New(dErrors.CodeNotFound, "application not found")

// ErrVersionConflict signals a lost compare-and-swap race. The caller
// re-reads the aggregate and retries under the writer lock.
var ErrVersionConflict = dErrors.New(dErrors.CodeConflict, "application was modified concurrently")

// Store persists application aggregates. Update is compare-and-swap on
// the aggregate version so concurrent writers cannot interleave.
type Store interface {
	Create(ctx context.Context, app *Application) error
	Update(ctx context.Context, app *Application) error
	Get(ctx context.Context, appID id.ApplicationID) (*Application, error)
	ListByUser(ctx context.Context, userID id.UserID) ([]*Application, error)
	// ListExpiring returns non-terminal applications whose expiry
	// deadline passed before the cutoff.
	ListExpiring(ctx context.Context, cutoff time.Time, limit int) ([]*Application, error)
}
