package handler

import (
	"strings"

	"carematch/internal/verification/models"
	dErrors "carematch/pkg/domain-errors"
)

const (
	maxNameLength   = 100
	maxRefLength    = 512
	maxDocumentRefs = 5
	maxFieldLength  = 200
	maxReasonLength = 500
)

// IdentityRequest is the body of POST /v1/verification/identity.
type IdentityRequest struct {
	Surname        string `json:"surname"`
	GivenNames     string `json:"given_names"`
	DateOfBirth    string `json:"date_of_birth"`
	CountryOfIssue string `json:"country_of_issue"`
	DocumentRef    string `json:"document_ref"`
	SelfieRef      string `json:"selfie_ref"`
	Attested       bool   `json:"attested"`
}

// Validate checks sizes only. Field semantics are checked by the service so
// the rules hold for every caller.
func (r *IdentityRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if len(r.Surname) > maxNameLength || len(r.GivenNames) > maxNameLength {
		return dErrors.New(dErrors.CodeValidation, "names must be at most 100 characters")
	}
	if len(r.DocumentRef) > maxRefLength || len(r.SelfieRef) > maxRefLength {
		return dErrors.New(dErrors.CodeValidation, "document references are too long")
	}
	if len(r.CountryOfIssue) > maxFieldLength {
		return dErrors.New(dErrors.CodeValidation, "country_of_issue is too long")
	}
	return nil
}

func (r *IdentityRequest) ToSubmission() models.IdentitySubmission {
	return models.IdentitySubmission{
		Surname:        r.Surname,
		GivenNames:     r.GivenNames,
		DateOfBirth:    r.DateOfBirth,
		CountryOfIssue: r.CountryOfIssue,
		DocumentRef:    r.DocumentRef,
		SelfieRef:      r.SelfieRef,
		Attested:       r.Attested,
	}
}

// CredentialRequest is the body of POST /v1/verification/credential.
type CredentialRequest struct {
	Method       string   `json:"method"`
	Number       string   `json:"number"`
	Expiry       string   `json:"expiry"`
	DocumentRefs []string `json:"document_refs"`
	Attested     bool     `json:"attested"`

	parsedMethod models.CredentialMethod
}

func (r *CredentialRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if len(r.DocumentRefs) > maxDocumentRefs {
		return dErrors.New(dErrors.CodeValidation, "at most 5 documents can be submitted")
	}
	for _, ref := range r.DocumentRefs {
		if len(ref) > maxRefLength {
			return dErrors.New(dErrors.CodeValidation, "document references are too long")
		}
	}
	if len(r.Number) > maxFieldLength {
		return dErrors.New(dErrors.CodeValidation, "number is too long")
	}
	method, err := models.ParseCredentialMethod(r.Method)
	if err != nil {
		return dErrors.New(dErrors.CodeValidation, "method must be document_email, mobile_wallet or manual_entry")
	}
	r.parsedMethod = method
	return nil
}

func (r *CredentialRequest) ToSubmission() models.CredentialSubmission {
	return models.CredentialSubmission{
		Method:       r.parsedMethod,
		Number:       r.Number,
		Expiry:       r.Expiry,
		DocumentRefs: r.DocumentRefs,
		Attested:     r.Attested,
	}
}

// ContactRequest is the body of PUT /v1/verification/contact.
type ContactRequest struct {
	Phone    string `json:"phone"`
	Street   string `json:"street"`
	City     string `json:"city"`
	Region   string `json:"region"`
	Postcode string `json:"postcode"`
	Country  string `json:"country"`
}

func (r *ContactRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	for _, v := range []string{r.Phone, r.Street, r.City, r.Region, r.Postcode, r.Country} {
		if len(v) > maxFieldLength {
			return dErrors.New(dErrors.CodeValidation, "contact fields must be at most 200 characters")
		}
	}
	return nil
}

func (r *ContactRequest) ToSubmission() models.ContactSubmission {
	return models.ContactSubmission{
		Phone:    r.Phone,
		Street:   r.Street,
		City:     r.City,
		Region:   r.Region,
		Postcode: r.Postcode,
		Country:  r.Country,
	}
}

// ReasonRequest carries a required admin reason (rejections, bars).
type ReasonRequest struct {
	Reason string `json:"reason"`
}

func (r *ReasonRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Reason = strings.TrimSpace(r.Reason)
	if r.Reason == "" {
		return dErrors.New(dErrors.CodeValidation, "reason is required")
	}
	if len(r.Reason) > maxReasonLength {
		return dErrors.New(dErrors.CodeValidation, "reason must be 500 characters or less")
	}
	return nil
}

// NoteRequest carries an optional admin note.
type NoteRequest struct {
	Note string `json:"note"`
}

func (r *NoteRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Note = strings.TrimSpace(r.Note)
	if len(r.Note) > maxReasonLength {
		return dErrors.New(dErrors.CodeValidation, "note must be 500 characters or less")
	}
	return nil
}

// RegistryOutcomeRequest records an issuing-agency lookup result.
type RegistryOutcomeRequest struct {
	Status string `json:"status"`
	Note   string `json:"note"`

	parsedStatus models.CredentialStatus
}

func (r *RegistryOutcomeRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	status, err := models.ParseCredentialStatus(r.Status)
	if err != nil || !status.IsRegistryOutcome() {
		return dErrors.New(dErrors.CodeValidation, "status must be ocg_not_found, closed or application_pending")
	}
	r.parsedStatus = status
	r.Note = strings.TrimSpace(r.Note)
	if len(r.Note) > maxReasonLength {
		return dErrors.New(dErrors.CodeValidation, "note must be 500 characters or less")
	}
	return nil
}
