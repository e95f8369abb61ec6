package models

import (
	"slices"
	"time"
)

// DefaultPollInterval is the suggested client polling cadence while a verdict is outstanding.
const DefaultPollInterval = 3 * time.Second

// StatusSnapshot is the read-only projection served to polling clients.
type StatusSnapshot struct {
	Record       *Record
	Poll         bool
	PollInterval time.Duration
}

// ListFilter selects records for the admin queue. Empty slices match everything.
type ListFilter struct {
	IdentityStatuses   []IdentityStatus
	CredentialStatuses []CredentialStatus
	Aggregates         []AggregateStatus
	Limit              int
	Offset             int
}

const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

// Normalize clamps paging values.
func (f *ListFilter) Normalize() {
	if f.Limit <= 0 {
		f.Limit = DefaultListLimit
	}
	if f.Limit > MaxListLimit {
		f.Limit = MaxListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
}

// Matches reports whether rec passes the filter. Used by the in-memory store.
func (f ListFilter) Matches(rec *Record) bool {
	if len(f.IdentityStatuses) > 0 && !slices.Contains(f.IdentityStatuses, rec.Identity.Status) {
		return false
	}
	if len(f.CredentialStatuses) > 0 && !slices.Contains(f.CredentialStatuses, rec.Credential.Status) {
		return false
	}
	if len(f.Aggregates) > 0 && !slices.Contains(f.Aggregates, rec.VerificationStatus) {
		return false
	}
	return true
}
