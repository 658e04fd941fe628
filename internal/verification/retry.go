package verification

import (
	"context"
	"time"

	dErrors "veris/pkg/domain-errors"
)

// RetryPolicy is the explicit retry schedule applied to extraction
// calls. Scoring logic never retries; the orchestrator invokes the
// policy around the collaborator boundary.
type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	Multiplier     float64
}

// DefaultRetryPolicy retries twice after the initial attempt with a
// short exponential backoff.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    3,
		InitialBackoff: 200 * time.Millisecond,
		Multiplier:     2,
	}
}

// Do runs fn until it succeeds, fails with a non-retryable error, the
// attempts are exhausted, or the context is cancelled. The last error
// is returned unchanged so callers keep the original code.
func (p RetryPolicy) Do(ctx context.Context, fn func() error) error {
	backoff := p.InitialBackoff
	var err error
	for attempt := 1; ; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}
		if !dErrors.IsRetryable(err) || attempt >= p.MaxAttempts {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff = time.Duration(float64(backoff) * p.Multiplier)
	}
}
