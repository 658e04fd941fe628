// Package service orchestrates face verification: capture intake with
// bounded extraction retries, liveness scoring, and face matching.
// Scoring itself is pure; this layer owns I/O, persistence, and spans.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"veris/internal/audit"
	"veris/internal/extraction"
	"veris/internal/facematch"
	"veris/internal/liveness"
	"veris/internal/platform/objectstore"
	"veris/internal/verification"
	"veris/internal/verification/metrics"
	id "veris/pkg/domain"
	dErrors "veris/pkg/domain-errors"
	"veris/pkg/requestcontext"
)

const tracerName = "veris/internal/verification/service"

// Service runs the verification pipeline for one application at a time
// per call. All scoring is side-effect free; results are persisted only
// on completion, so a cancelled verification leaves no record.
type Service struct {
	captures  verification.CaptureStore
	results   verification.ResultStore
	objects   objectstore.Store
	extractor extraction.FaceExtractor
	liveness  *liveness.Scorer
	matcher   *facematch.Scorer
	retry     verification.RetryPolicy
	auditor   *audit.Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
	tracer    trace.Tracer
}

func NewService(
	captures verification.CaptureStore,
	results verification.ResultStore,
	objects objectstore.Store,
	extractor extraction.FaceExtractor,
	livenessScorer *liveness.Scorer,
	matcher *facematch.Scorer,
	retry verification.RetryPolicy,
	auditor *audit.Publisher,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Service {
	return &Service{
		captures:  captures,
		results:   results,
		objects:   objects,
		extractor: extractor,
		liveness:  livenessScorer,
		matcher:   matcher,
		retry:     retry,
		auditor:   auditor,
		metrics:   m,
		logger:    logger,
		tracer:    otel.Tracer(tracerName),
	}
}

// SubmitCapture stores the image, extracts face measurements with the
// retry policy, and records the capture. Extraction failures after all
// retries surface as errors; the image stays stored so support can
// inspect it.
func (s *Service) SubmitCapture(ctx context.Context, appID id.ApplicationID, kind verification.CaptureKind, image io.Reader, contentType string, size int64) (*verification.Capture, error) {
	ctx, span := s.tracer.Start(ctx, "verification.SubmitCapture",
		trace.WithAttributes(
			attribute.String("application.id", appID.String()),
			attribute.String("capture.kind", string(kind)),
		))
	defer span.End()

	captureID := id.NewCaptureID()
	key := fmt.Sprintf("captures/%s/%s", appID.String(), captureID.String())
	if err := s.objects.Put(ctx, key, image, objectstore.PutOptions{ContentType: contentType, Size: size}); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "store capture image")
	}

	data, err := s.readImage(ctx, key)
	if err != nil {
		return nil, err
	}

	measurements, err := s.extractWithRetry(ctx, data)
	if err != nil {
		return nil, err
	}

	capture := &verification.Capture{
		ID:            captureID,
		ApplicationID: appID,
		Kind:          kind,
		ObjectKey:     key,
		Measurements:  *measurements,
		CapturedAt:    requestcontext.Now(ctx),
	}
	if err := s.captures.Create(ctx, capture); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "persist capture")
	}

	if err := s.auditor.Emit(ctx, audit.Event{
		ApplicationID: appID,
		Action:        audit.ActionCaptureSubmitted,
		Detail:        string(kind),
	}); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "action", audit.ActionCaptureSubmitted, "error", err)
	}
	return capture, nil
}

// RunLiveness scores a capture for liveness and persists the result. A
// cancelled context persists nothing and leaves the application in its
// prior state.
func (s *Service) RunLiveness(ctx context.Context, appID id.ApplicationID, captureID id.CaptureID) (*verification.Result, error) {
	ctx, span := s.tracer.Start(ctx, "verification.RunLiveness",
		trace.WithAttributes(attribute.String("capture.id", captureID.String())))
	defer span.End()

	capture, err := s.captures.Get(ctx, captureID)
	if err != nil {
		return nil, err
	}
	if capture.ApplicationID != appID {
		return nil, dErrors.New(dErrors.CodeNotFound, "capture does not belong to this application")
	}

	result := s.liveness.Score(capture, requestcontext.Now(ctx))
	return s.persistResult(ctx, result)
}

// RunFaceMatch compares a live capture against a reference capture and
// persists the result. Both captures load concurrently.
func (s *Service) RunFaceMatch(ctx context.Context, appID id.ApplicationID, liveID, referenceID id.CaptureID) (*verification.Result, error) {
	ctx, span := s.tracer.Start(ctx, "verification.RunFaceMatch",
		trace.WithAttributes(
			attribute.String("capture.live", liveID.String()),
			attribute.String("capture.reference", referenceID.String()),
		))
	defer span.End()

	var live, reference *verification.Capture
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		start := time.Now()
		var err error
		live, err = s.captures.Get(gctx, liveID)
		s.metrics.ObserveCaptureFetch("live", time.Since(start))
		return err
	})
	g.Go(func() error {
		start := time.Now()
		var err error
		reference, err = s.captures.Get(gctx, referenceID)
		s.metrics.ObserveCaptureFetch("reference", time.Since(start))
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if live.ApplicationID != appID || reference.ApplicationID != appID {
		return nil, dErrors.New(dErrors.CodeNotFound, "capture does not belong to this application")
	}

	result := s.matcher.Score(live, reference, requestcontext.Now(ctx))
	return s.persistResult(ctx, result)
}

// ListResults returns an application's verification history, oldest
// first.
func (s *Service) ListResults(ctx context.Context, appID id.ApplicationID) ([]*verification.Result, error) {
	return s.results.ListByApplication(ctx, appID)
}

// RecordExtractionError persists an ERROR-status result after the retry
// policy is exhausted, so the failure is visible in the application's
// history without being mistaken for a failed check.
func (s *Service) RecordExtractionError(ctx context.Context, appID id.ApplicationID, captureID id.CaptureID, resultType verification.ResultType) (*verification.Result, error) {
	result := &verification.Result{
		ID:             id.NewVerificationID(),
		ApplicationID:  appID,
		CaptureID:      captureID,
		Type:           resultType,
		Status:         verification.StatusError,
		FailureReasons: []verification.Reason{verification.ReasonExtractionFailed},
		RiskLevel:      verification.RiskHigh,
		Recommendations: []string{
			"retry with a new capture in good lighting",
		},
		CreatedAt: requestcontext.Now(ctx),
	}
	return s.persistResult(ctx, result)
}

func (s *Service) persistResult(ctx context.Context, result *verification.Result) (*verification.Result, error) {
	if err := ctx.Err(); err != nil {
		// Cancellation means do not persist; the caller's application
		// state is unchanged.
		return nil, dErrors.Wrap(err, dErrors.CodeTimeout, "verification cancelled")
	}
	if err := s.results.Create(ctx, result); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "persist verification result")
	}

	s.metrics.IncrementResult(string(result.Type), string(result.Status), result.Passed)
	if result.Status == verification.StatusCompleted {
		s.metrics.ObserveScore(string(result.Type), result.Score)
	}
	if err := s.auditor.Emit(ctx, audit.Event{
		ApplicationID: result.ApplicationID,
		Action:        audit.ActionVerificationScored,
		Detail:        fmt.Sprintf("%s score %d passed=%t", result.Type, result.ScorePercent(), result.Passed),
	}); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "action", audit.ActionVerificationScored, "error", err)
	}

	s.logger.InfoContext(ctx, "verification result recorded",
		"request_id", requestcontext.RequestID(ctx),
		"application_id", result.ApplicationID.String(),
		"type", string(result.Type),
		"status", string(result.Status),
		"score", result.ScorePercent(),
		"passed", result.Passed,
	)
	return result, nil
}

func (s *Service) extractWithRetry(ctx context.Context, image []byte) (*extraction.FaceMeasurements, error) {
	var measurements *extraction.FaceMeasurements
	attempt := 0
	err := s.retry.Do(ctx, func() error {
		attempt++
		if attempt > 1 {
			s.metrics.IncrementRetry()
		}
		start := time.Now()
		m, err := s.extractor.ExtractFace(ctx, image)
		if err != nil {
			s.metrics.ObserveExtraction("error", time.Since(start))
			return extraction.WrapErr(err, "extract face")
		}
		s.metrics.ObserveExtraction("ok", time.Since(start))
		measurements = m
		return nil
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, dErrors.Wrap(err, dErrors.CodeTimeout, "extraction cancelled")
		}
		return nil, err
	}
	return measurements, nil
}

func (s *Service) readImage(ctx context.Context, key string) ([]byte, error) {
	rc, err := s.objects.Get(ctx, key)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "fetch capture image")
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "read capture image")
	}
	return data, nil
}
