package models

import (
	"slices"
	"strings"

	dErrors "carematch/pkg/domain-errors"
)

// Guidance tells a provider what went wrong and how to fix it.
type Guidance struct {
	Title       string   `json:"title"`
	Explanation string   `json:"explanation"`
	Steps       []string `json:"steps,omitempty"`
}

func (g *Guidance) Clone() *Guidance {
	if g == nil {
		return nil
	}
	c := *g
	c.Steps = slices.Clone(g.Steps)
	return &c
}

// GuidanceError is a coded rejection that carries guidance for the client.
type GuidanceError struct {
	Err      error
	Guidance Guidance
}

// NewGuidanceError builds a coded error carrying guidance.
func NewGuidanceError(code dErrors.Code, message string, g Guidance) *GuidanceError {
	return &GuidanceError{Err: dErrors.New(code, message), Guidance: g}
}

func (e *GuidanceError) Error() string { return e.Err.Error() }

func (e *GuidanceError) Unwrap() error { return e.Err }

// Details is merged into the HTTP error envelope.
func (e *GuidanceError) Details() map[string]any {
	return map[string]any{"guidance": e.Guidance}
}

// IdentityRejectionGuidance turns extraction issues into resubmission advice.
func IdentityRejectionGuidance(issues []string) *Guidance {
	g := &Guidance{
		Title:       "We couldn't verify your ID",
		Explanation: "The document you uploaded didn't pass our checks.",
	}
	for _, issue := range issues {
		lower := strings.ToLower(issue)
		switch {
		case strings.Contains(lower, "blur"), strings.Contains(lower, "glare"), strings.Contains(lower, "unreadable"):
			g.Steps = appendUnique(g.Steps, "Retake the photo in good light with the whole document in frame.")
		case strings.Contains(lower, "expired"):
			g.Steps = appendUnique(g.Steps, "Upload a current, unexpired photo ID.")
		case strings.Contains(lower, "selfie"), strings.Contains(lower, "face"):
			g.Steps = appendUnique(g.Steps, "Take a new selfie facing the camera with nothing covering your face.")
		case strings.Contains(lower, "name"), strings.Contains(lower, "date of birth"), strings.Contains(lower, "dob"):
			g.Steps = appendUnique(g.Steps, "Check that the details you entered match your ID exactly.")
		}
	}
	if len(g.Steps) == 0 {
		g.Steps = []string{"Check your details and upload a clear photo of a current photo ID."}
	}
	g.Steps = append(g.Steps, "If you believe this is a mistake, request a manual review.")
	return g
}

// CredentialGuidance returns advice for a credential outcome, or nil for outcomes needing none.
func CredentialGuidance(status CredentialStatus, issues []string) *Guidance {
	switch status {
	case CredentialExpired:
		return &Guidance{
			Title:       "Your check has expired",
			Explanation: "The clearance you supplied is past its expiry date.",
			Steps:       []string{"Renew your check with the issuing agency, then submit the new details."},
		}
	case CredentialOCGNotFound:
		return &Guidance{
			Title:       "We couldn't find your check",
			Explanation: "The issuing agency has no record matching the number you supplied.",
			Steps:       []string{"Confirm the number on your clearance letter and resubmit."},
		}
	case CredentialClosed:
		return &Guidance{
			Title:       "Your check is closed",
			Explanation: "The issuing agency reports this clearance as closed.",
			Steps:       []string{"Apply for a new check with the issuing agency."},
		}
	case CredentialApplicationPending:
		return &Guidance{
			Title:       "Your application is still pending",
			Explanation: "The issuing agency has not finished processing your application.",
			Steps:       []string{"Submit your clearance once the agency has issued it."},
		}
	case CredentialBarred:
		return &Guidance{
			Title:       "We can't accept this check",
			Explanation: "The issuing agency has barred this clearance.",
		}
	case CredentialRejected, CredentialFailed:
		g := &Guidance{
			Title:       "We couldn't verify your check",
			Explanation: "The clearance you supplied didn't pass our checks.",
			Steps:       []string{"Check the clearance number and expiry date, then resubmit."},
		}
		if len(issues) > 0 {
			g.Explanation = strings.Join(issues, "; ")
		}
		return g
	}
	return nil
}

// DocumentGuidance explains why an emailed clearance document was not accepted.
func DocumentGuidance(outcome DocumentOutcome) Guidance {
	switch outcome {
	case DocumentNameMismatch:
		return Guidance{
			Title:       "The name on your check doesn't match your ID",
			Explanation: "The clearance document is issued to a different name than your verified ID.",
			Steps: []string{
				"Make sure you uploaded your own clearance document.",
				"If your name has changed, update it with the issuing agency or enter your details manually.",
			},
		}
	case DocumentExpired:
		return Guidance{
			Title:       "Your check has expired",
			Explanation: "The clearance document shows an expiry date in the past.",
			Steps:       []string{"Renew your check with the issuing agency, then upload the new document."},
		}
	default:
		return Guidance{
			Title:       "We couldn't read your document",
			Explanation: "The file doesn't look like the clearance email PDF from the issuing agency.",
			Steps: []string{
				"Upload the original PDF attached to your clearance email.",
				"Alternatively, enter your clearance number manually.",
			},
		}
	}
}

func appendUnique(steps []string, step string) []string {
	if slices.Contains(steps, step) {
		return steps
	}
	return append(steps, step)
}
