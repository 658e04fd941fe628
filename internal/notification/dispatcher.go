package notification

import (
	"context"
	"log/slog"

	id "veris/pkg/domain"
	"veris/pkg/requestcontext"
)

// Dispatcher buffers events from domain logic onto a channel so
// emitters never block on the outbound transport. A full buffer drops
// the event with a log line; notifications are best-effort by contract.
type Dispatcher struct {
	inbox  chan Event
	logger *slog.Logger
}

func NewDispatcher(buffer int, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		inbox:  make(chan Event, buffer),
		logger: logger,
	}
}

// Emit queues one event. Satisfies the application layer's notifier
// port.
func (d *Dispatcher) Emit(ctx context.Context, name string, appID id.ApplicationID, userID id.UserID) {
	event := Event{
		Name:          name,
		ApplicationID: appID,
		UserID:        userID,
		OccurredAt:    requestcontext.Now(ctx),
	}
	select {
	case d.inbox <- event:
	default:
		d.logger.WarnContext(ctx, "notification buffer full, dropping event",
			"event", name,
			"application_id", appID.String(),
		)
	}
}

// Worker drains the dispatcher's buffer into a publisher.
type Worker struct {
	dispatcher *Dispatcher
	publisher  Publisher
	logger     *slog.Logger
}

func NewWorker(dispatcher *Dispatcher, publisher Publisher, logger *slog.Logger) *Worker {
	return &Worker{dispatcher: dispatcher, publisher: publisher, logger: logger}
}

// Run publishes queued events until the context is cancelled. Publish
// failures are logged and skipped.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.dispatcher.inbox:
			if err := w.publisher.Publish(ctx, event); err != nil {
				w.logger.ErrorContext(ctx, "notification publish failed",
					"event", event.Name,
					"application_id", event.ApplicationID.String(),
					"error", err,
				)
			}
		}
	}
}

// LogPublisher writes events to the log. Used when no broker is
// configured.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, event Event) error {
	p.logger.InfoContext(ctx, "notification event",
		"event", event.Name,
		"application_id", event.ApplicationID.String(),
		"user_id", event.UserID.String(),
	)
	return nil
}
