package application

import (
	"context"
	"log/slog"
	"time"

	id "veris/pkg/domain"
)

// NopNotifier discards lifecycle events. Used in tests and when no
// dispatcher is configured.
type NopNotifier struct{}

func (NopNotifier) Emit(context.Context, string, id.ApplicationID, id.UserID) {}

const sweepBatchSize = 100

// Sweeper expires applications left unfinished past their retention
// window.
type Sweeper struct {
	service  *Service
	interval time.Duration
	logger   *slog.Logger
}

func NewSweeper(service *Service, interval time.Duration, logger *slog.Logger) *Sweeper {
	return &Sweeper{service: service, interval: interval, logger: logger}
}

// Run sweeps on the configured interval until the context is cancelled.
func (w *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			expired, err := w.service.ExpireDue(ctx, now, sweepBatchSize)
			if err != nil {
				w.logger.ErrorContext(ctx, "expiry sweep failed", "error", err)
				continue
			}
			if expired > 0 {
				w.logger.InfoContext(ctx, "expired stale applications", "count", expired)
			}
		}
	}
}
