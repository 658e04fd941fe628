package consent

import (
	"context"
	"errors"
	"log/slog"

	id "veris/pkg/domain"
	dErrors "veris/pkg/domain-errors"
	"veris/pkg/requestcontext"
)

// Service runs consent exchanges and answers completion queries for the
// risk and application layers.
type Service struct {
	store     Store
	exchanger Exchanger
	logger    *slog.Logger
}

func NewService(store Store, exchanger Exchanger, logger *slog.Logger) *Service {
	return &Service{store: store, exchanger: exchanger, logger: logger}
}

// Run executes the registry exchange for the application and persists
// the outcome. A registry refusal is a completed=false record, not an
// error.
func (s *Service) Run(ctx context.Context, appID id.ApplicationID, userID id.UserID) (*Record, error) {
	record, err := s.exchanger.Exchange(ctx, appID, userID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "consent exchange")
	}
	record.ApplicationID = appID
	if record.CompletedAt.IsZero() {
		record.CompletedAt = requestcontext.Now(ctx)
	}
	if err := s.store.Save(ctx, record); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "persist consent record")
	}
	s.logger.InfoContext(ctx, "consent exchange recorded",
		"request_id", requestcontext.RequestID(ctx),
		"application_id", appID.String(),
		"completed", record.Completed,
	)
	return record, nil
}

// Status reports the exchange outcome for the risk engine. An absent
// record reads as not completed.
func (s *Service) Status(ctx context.Context, appID id.ApplicationID) (bool, map[string]string, error) {
	record, err := s.store.Get(ctx, appID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil, nil
		}
		return false, nil, err
	}
	return record.Completed, record.FetchedFields, nil
}
