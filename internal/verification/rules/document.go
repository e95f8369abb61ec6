package rules

import (
	"strings"
	"time"

	"carematch/internal/verification/models"
)

// DocumentVerdict is the outcome of judging an inspected clearance document.
type DocumentVerdict struct {
	Outcome       models.DocumentOutcome
	Fields        models.CredentialExtraction
	ExpiryWarning bool
}

// EvaluateDocument judges a parsed clearance document against the verified identity.
// Only a parsed document can pass; every other inspection outcome is returned as is.
func EvaluateDocument(inspection *models.DocumentInspection, identity models.IdentityStage, now time.Time) DocumentVerdict {
	if inspection == nil {
		return DocumentVerdict{Outcome: models.DocumentUnreadable}
	}
	verdict := DocumentVerdict{Outcome: inspection.Outcome, Fields: inspection.Fields}
	if inspection.Outcome != models.DocumentParsed {
		return verdict
	}

	fields := inspection.Fields
	number, err := NormalizeCredentialNumber(fields.Number)
	if err != nil || strings.TrimSpace(fields.Expiry) == "" || !fields.HasNames() {
		verdict.Outcome = models.DocumentAmbiguous
		return verdict
	}
	verdict.Fields.Number = number

	expiry, err := ParseDate(fields.Expiry)
	if err != nil {
		verdict.Outcome = models.DocumentAmbiguous
		return verdict
	}
	verdict.Fields.Expiry = expiry.Format(time.DateOnly)

	surname, given := identityNames(identity)
	credentialGiven := strings.TrimSpace(fields.FirstName + " " + fields.OtherNames)
	if !SurnamesMatch(surname, fields.Surname) || !GivenNamesMatch(given, credentialGiven) {
		verdict.Outcome = models.DocumentNameMismatch
		return verdict
	}

	check := EvaluateExpiry(expiry, now)
	if check.Expired {
		verdict.Outcome = models.DocumentExpired
		return verdict
	}
	verdict.ExpiryWarning = check.Warning
	return verdict
}
