package models

import (
	"time"

	dErrors "carematch/pkg/domain-errors"
)

// ContactSubmission is a validated and normalised set of contact details.
type ContactSubmission struct {
	Phone    string
	Street   string
	City     string
	Region   string
	Postcode string
	Country  string
}

// CanSubmitContact requires the provider to have started the credential stage.
func (r *Record) CanSubmitContact() error {
	if r.Credential.Status == CredentialNotStarted {
		return dErrors.New(dErrors.CodeStageLocked, "contact details are locked until a credential is submitted")
	}
	return nil
}

// ApplyContact saves (or overwrites) the contact details.
func (r *Record) ApplyContact(sub ContactSubmission, now time.Time) {
	r.Contact = ContactStage{
		Status:   ContactSaved,
		Phone:    sub.Phone,
		Street:   sub.Street,
		City:     sub.City,
		Region:   sub.Region,
		Postcode: sub.Postcode,
		Country:  sub.Country,
		SavedAt:  timePtr(now),
	}
	r.UpdatedAt = now
}
