// Package domain holds identifier and enum value types shared across
// modules. Construct values through the ParseX functions at trust
// boundaries; direct casting bypasses validation.
package domain

import (
	"github.com/google/uuid"

	dErrors "veris/pkg/domain-errors"
)

// Typed UUID identifiers. Distinct types keep an ApplicationID from being
// passed where a DocumentID is expected.
type (
	ApplicationID  uuid.UUID
	DocumentID     uuid.UUID
	CaptureID      uuid.UUID
	VerificationID uuid.UUID
	UserID         uuid.UUID
	ReviewerID     uuid.UUID
)

func (id ApplicationID) String() string  { return uuid.UUID(id).String() }
func (id DocumentID) String() string     { return uuid.UUID(id).String() }
func (id CaptureID) String() string      { return uuid.UUID(id).String() }
func (id VerificationID) String() string { return uuid.UUID(id).String() }
func (id UserID) String() string         { return uuid.UUID(id).String() }
func (id ReviewerID) String() string     { return uuid.UUID(id).String() }

func (id ApplicationID) IsZero() bool { return uuid.UUID(id) == uuid.Nil }
func (id DocumentID) IsZero() bool    { return uuid.UUID(id) == uuid.Nil }
func (id UserID) IsZero() bool        { return uuid.UUID(id) == uuid.Nil }

// Text marshalling keeps the canonical UUID string form in JSON bodies
// and JSONB columns instead of the raw byte-array encoding.

func (id ApplicationID) MarshalText() ([]byte, error)  { return []byte(id.String()), nil }
func (id DocumentID) MarshalText() ([]byte, error)     { return []byte(id.String()), nil }
func (id CaptureID) MarshalText() ([]byte, error)      { return []byte(id.String()), nil }
func (id VerificationID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id UserID) MarshalText() ([]byte, error)         { return []byte(id.String()), nil }
func (id ReviewerID) MarshalText() ([]byte, error)     { return []byte(id.String()), nil }

func (id *ApplicationID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = ApplicationID(u)
	return nil
}

func (id *DocumentID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = DocumentID(u)
	return nil
}

func (id *CaptureID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = CaptureID(u)
	return nil
}

func (id *VerificationID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = VerificationID(u)
	return nil
}

func (id *UserID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = UserID(u)
	return nil
}

func (id *ReviewerID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = ReviewerID(u)
	return nil
}

// NewApplicationID mints a fresh application identifier.
func NewApplicationID() ApplicationID { return ApplicationID(uuid.New()) }

// NewDocumentID mints a fresh document identifier.
func NewDocumentID() DocumentID { return DocumentID(uuid.New()) }

// NewCaptureID mints a fresh capture identifier.
func NewCaptureID() CaptureID { return CaptureID(uuid.New()) }

// NewVerificationID mints a fresh verification result identifier.
func NewVerificationID() VerificationID { return VerificationID(uuid.New()) }

// NewUserID mints a fresh user identifier.
func NewUserID() UserID { return UserID(uuid.New()) }

// NewReviewerID mints a fresh reviewer identifier.
func NewReviewerID() ReviewerID { return ReviewerID(uuid.New()) }

func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be empty")
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id is not a valid UUID")
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be the nil UUID")
	}
	return parsed, nil
}

// ParseApplicationID validates external input into an ApplicationID.
func ParseApplicationID(s string) (ApplicationID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return ApplicationID{}, err
	}
	return ApplicationID(u), nil
}

// ParseDocumentID validates external input into a DocumentID.
func ParseDocumentID(s string) (DocumentID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return DocumentID{}, err
	}
	return DocumentID(u), nil
}

// ParseCaptureID validates external input into a CaptureID.
func ParseCaptureID(s string) (CaptureID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return CaptureID{}, err
	}
	return CaptureID(u), nil
}

// ParseVerificationID validates external input into a VerificationID.
func ParseVerificationID(s string) (VerificationID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return VerificationID{}, err
	}
	return VerificationID(u), nil
}

// ParseUserID validates external input into a UserID.
func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return UserID{}, err
	}
	return UserID(u), nil
}

// ParseReviewerID validates external input into a ReviewerID.
func ParseReviewerID(s string) (ReviewerID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return ReviewerID{}, err
	}
	return ReviewerID(u), nil
}
