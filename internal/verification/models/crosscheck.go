package models

import (
	"time"

	dErrors "carematch/pkg/domain-errors"
)

// NeedsCrossCheck reports whether both document stages are satisfied and no outcome exists yet.
func (r *Record) NeedsCrossCheck() bool {
	return r.Identity.Status == IdentityVerified &&
		r.Credential.Status.IsSatisfied() &&
		!r.CrossCheck.Status.HasRun()
}

// CanRunCrossCheck is the guard half of the cross-check guard-and-set.
func (r *Record) CanRunCrossCheck() error {
	if !r.NeedsCrossCheck() {
		return ErrSuperseded
	}
	return nil
}

// ApplyCrossCheck records the outcome. Stage statuses are never rolled back.
func (r *Record) ApplyCrossCheck(passed bool, reasoning string, now time.Time) {
	r.CrossCheck.Status = CrossCheckReview
	if passed {
		r.CrossCheck.Status = CrossCheckPassed
	}
	r.CrossCheck.Reasoning = reasoning
	r.CrossCheck.CheckedAt = timePtr(now)
	r.CrossCheck.ResolvedBy = ""
	r.UpdatedAt = now
}

// CanResolveCrossCheck allows an admin to clear a cross-check held for review.
func (r *Record) CanResolveCrossCheck() error {
	if r.CrossCheck.Status != CrossCheckReview {
		return dErrors.New(dErrors.CodeConflict, "cross-check is "+r.CrossCheck.Status.String()+" and cannot be resolved")
	}
	return nil
}

func (r *Record) ApplyCrossCheckResolution(actor, note string, now time.Time) {
	r.CrossCheck.Status = CrossCheckPassed
	if note != "" {
		r.CrossCheck.Reasoning = note
	}
	r.CrossCheck.CheckedAt = timePtr(now)
	r.CrossCheck.ResolvedBy = actor
	r.UpdatedAt = now
}

func (r *Record) resetCrossCheck() {
	r.CrossCheck = CrossCheck{Status: CrossCheckNotStarted}
}
