package models

import (
	"time"

	id "carematch/pkg/domain"
)

// Stage names used in transition events and admin filters.
const (
	StageIdentity   = "identity"
	StageCredential = "credential"
	StageContact    = "contact"
	StageCrossCheck = "cross_check"
	StageAggregate  = "verification"
)

// TransitionEvent is published after a committed status change.
type TransitionEvent struct {
	ProviderID id.UserID `json:"provider_id"`
	Stage      string    `json:"stage"`
	From       string    `json:"from"`
	To         string    `json:"to"`
	Reason     string    `json:"reason,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Transitions lists the stage changes between two committed versions of a record.
// A record missing on the before side counts as all stages not_started.
func Transitions(before, after *Record, now time.Time) []TransitionEvent {
	if after == nil {
		return nil
	}
	prev := StageStatuses{
		Identity:   IdentityNotStarted,
		Credential: CredentialNotStarted,
		Contact:    ContactNotStarted,
		CrossCheck: CrossCheckNotStarted,
	}
	prevAggregate := AggregateNotStarted
	if before != nil {
		prev = before.Statuses()
		prevAggregate = before.VerificationStatus
	}
	next := after.Statuses()

	var events []TransitionEvent
	add := func(stage, from, to, reason string) {
		if from == to {
			return
		}
		events = append(events, TransitionEvent{
			ProviderID: after.ProviderID,
			Stage:      stage,
			From:       from,
			To:         to,
			Reason:     reason,
			OccurredAt: now,
		})
	}
	add(StageIdentity, prev.Identity.String(), next.Identity.String(), after.Identity.RejectionReason)
	add(StageCredential, prev.Credential.String(), next.Credential.String(), after.Credential.RejectionReason)
	add(StageContact, prev.Contact.String(), next.Contact.String(), "")
	add(StageCrossCheck, prev.CrossCheck.String(), next.CrossCheck.String(), after.CrossCheck.Reasoning)
	add(StageAggregate, prevAggregate.String(), after.VerificationStatus.String(), "")
	return events
}
