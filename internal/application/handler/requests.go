package handler

import (
	"strings"

	id "veris/pkg/domain"
	dErrors "veris/pkg/domain-errors"
)

// CreateRequest is the HTTP request body for POST /applications.
type CreateRequest struct {
	Method string `json:"method"`

	parsedMethod id.VerificationMethod
}

// Validate validates and parses the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *CreateRequest) Validate() error {
	r.Method = strings.TrimSpace(r.Method)
	if r.Method == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "method is required")
	}
	method, err := id.ParseVerificationMethod(r.Method)
	if err != nil {
		return err
	}
	r.parsedMethod = method
	return nil
}

// ParsedMethod returns the validated verification method.
func (r *CreateRequest) ParsedMethod() id.VerificationMethod {
	return r.parsedMethod
}

// DecisionRequest is the HTTP request body for the reviewer decision
// endpoint.
type DecisionRequest struct {
	Approved *bool  `json:"approved"`
	Note     string `json:"note"`
}

// Validate validates the reviewer decision request.
func (r *DecisionRequest) Validate() error {
	if r.Approved == nil {
		return dErrors.New(dErrors.CodeInvalidInput, "approved is required")
	}
	r.Note = strings.TrimSpace(r.Note)
	if len(r.Note) > 2000 {
		return dErrors.New(dErrors.CodeInvalidInput, "note must be at most 2000 characters")
	}
	if !*r.Approved && r.Note == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "note is required when rejecting")
	}
	return nil
}
