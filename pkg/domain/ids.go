package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "carematch/pkg/domain-errors"
)

// Typed identifiers prevent a user ID from being passed where a record or
// submission ID is expected. Construct them with the Parse functions at trust
// boundaries; direct conversion from uuid.UUID is reserved for code that just
// generated the value.
type (
	UserID       uuid.UUID
	RecordID     uuid.UUID
	SubmissionID uuid.UUID
)

const maxIDLength = 64

func parseUUID(kind, s string) (uuid.UUID, error) {
	if strings.TrimSpace(s) == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" is required")
	}
	if len(s) > maxIDLength {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" is too long")
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind)
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" must not be nil")
	}
	return parsed, nil
}

// ParseUserID parses a provider, family, or admin account identifier.
func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID("user_id", s)
	return UserID(u), err
}

// ParseRecordID parses a verification record identifier.
func ParseRecordID(s string) (RecordID, error) {
	u, err := parseUUID("record_id", s)
	return RecordID(u), err
}

// ParseSubmissionID parses the identifier of one stage submission attempt.
func ParseSubmissionID(s string) (SubmissionID, error) {
	u, err := parseUUID("submission_id", s)
	return SubmissionID(u), err
}

// NewSubmissionID returns a fresh submission identifier.
func NewSubmissionID() SubmissionID {
	return SubmissionID(uuid.New())
}

func (id UserID) String() string       { return uuid.UUID(id).String() }
func (id UserID) IsNil() bool          { return uuid.UUID(id) == uuid.Nil }
func (id RecordID) String() string     { return uuid.UUID(id).String() }
func (id RecordID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }
func (id SubmissionID) String() string { return uuid.UUID(id).String() }
func (id SubmissionID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

// MarshalText lets typed IDs render as plain UUID strings in JSON.
func (id UserID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id RecordID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id SubmissionID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

// UnmarshalText accepts the plain UUID form written by MarshalText.
func (id *UserID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }

func (id *RecordID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }

func (id *SubmissionID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }
