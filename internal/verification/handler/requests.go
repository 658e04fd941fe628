package handler

import (
	id "veris/pkg/domain"
	dErrors "veris/pkg/domain-errors"
)

// LivenessRequest is the HTTP request body for running a liveness check.
type LivenessRequest struct {
	CaptureID string `json:"capture_id"`

	parsedCaptureID id.CaptureID
}

// Validate validates and parses the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *LivenessRequest) Validate() error {
	captureID, err := id.ParseCaptureID(r.CaptureID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInvalidInput, "capture_id is invalid")
	}
	r.parsedCaptureID = captureID
	return nil
}

// ParsedCaptureID returns the validated capture ID.
func (r *LivenessRequest) ParsedCaptureID() id.CaptureID { return r.parsedCaptureID }

// FaceMatchRequest is the HTTP request body for running a face match.
type FaceMatchRequest struct {
	LiveCaptureID      string `json:"live_capture_id"`
	ReferenceCaptureID string `json:"reference_capture_id"`

	parsedLiveID      id.CaptureID
	parsedReferenceID id.CaptureID
}

// Validate validates and parses both capture references.
func (r *FaceMatchRequest) Validate() error {
	liveID, err := id.ParseCaptureID(r.LiveCaptureID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInvalidInput, "live_capture_id is invalid")
	}
	referenceID, err := id.ParseCaptureID(r.ReferenceCaptureID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInvalidInput, "reference_capture_id is invalid")
	}
	if liveID == referenceID {
		return dErrors.New(dErrors.CodeInvalidInput, "live and reference captures must differ")
	}
	r.parsedLiveID = liveID
	r.parsedReferenceID = referenceID
	return nil
}

// ParsedLiveID returns the validated live capture ID.
func (r *FaceMatchRequest) ParsedLiveID() id.CaptureID { return r.parsedLiveID }

// ParsedReferenceID returns the validated reference capture ID.
func (r *FaceMatchRequest) ParsedReferenceID() id.CaptureID { return r.parsedReferenceID }
