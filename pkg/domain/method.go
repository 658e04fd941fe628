package domain

import dErrors "veris/pkg/domain-errors"

// VerificationMethod identifies how an applicant chose to prove identity.
type VerificationMethod string

const (
	MethodDocumentUpload  VerificationMethod = "document_upload"
	MethodConsentExchange VerificationMethod = "consent_exchange"
	MethodHybrid          VerificationMethod = "hybrid"
)

var validMethods = map[VerificationMethod]bool{
	MethodDocumentUpload:  true,
	MethodConsentExchange: true,
	MethodHybrid:          true,
}

// ParseVerificationMethod constructs a VerificationMethod from external input.
func ParseVerificationMethod(s string) (VerificationMethod, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "method cannot be empty")
	}
	m := VerificationMethod(s)
	if !validMethods[m] {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unsupported verification method")
	}
	return m, nil
}

// IsValid checks membership in the supported method set.
func (m VerificationMethod) IsValid() bool { return validMethods[m] }

// RequiresDocuments reports whether the method includes a document-upload leg.
func (m VerificationMethod) RequiresDocuments() bool {
	return m == MethodDocumentUpload || m == MethodHybrid
}

// RequiresConsent reports whether the method includes a consent-exchange leg.
func (m VerificationMethod) RequiresConsent() bool {
	return m == MethodConsentExchange || m == MethodHybrid
}
