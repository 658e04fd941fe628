package document

import (
	"context"

	id "veris/pkg/domain"
	dErrors "veris/pkg/domain-errors"
)

// ErrNotFound is returned when no document matches the given ID.
var ErrNotFound = dErrors.New(dErrors.CodeNotFound, "document not found")

// Store persists documents and their validation state.
type Store interface {
	Create(ctx context.Context, doc *Document) error
	Update(ctx context.Context, doc *Document) error
	Get(ctx context.Context, docID id.DocumentID) (*Document, error)
	ListByApplication(ctx context.Context, appID id.ApplicationID) ([]*Document, error)
}
