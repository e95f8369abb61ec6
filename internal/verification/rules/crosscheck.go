package rules

import (
	"fmt"
	"strings"
	"time"

	"carematch/internal/verification/models"
)

// CrossCheckResult is the outcome of reconciling the identity and credential stages.
type CrossCheckResult struct {
	Passed    bool
	Reasons   []string
	Reasoning string
}

// identityNames prefers extracted names and falls back to what the provider typed.
func identityNames(identity models.IdentityStage) (surname, given string) {
	surname, given = identity.Extracted.Surname, identity.Extracted.GivenNames
	if strings.TrimSpace(surname) == "" {
		surname = identity.Surname
	}
	if strings.TrimSpace(given) == "" {
		given = identity.GivenNames
	}
	return surname, given
}

// CrossCheck compares the two document-derived identities.
// Names are skipped when the credential carries none (manual entry).
func CrossCheck(identity models.IdentityStage, credential models.CredentialStage) CrossCheckResult {
	var reasons []string

	surname, given := identityNames(identity)
	if credential.Extracted.HasNames() {
		if !SurnamesMatch(surname, credential.Extracted.Surname) {
			reasons = append(reasons, fmt.Sprintf("surname %q on identity does not match %q on credential",
				surname, credential.Extracted.Surname))
		}
		credentialGiven := strings.TrimSpace(credential.Extracted.FirstName + " " + credential.Extracted.OtherNames)
		if !GivenNamesMatch(given, credentialGiven) {
			reasons = append(reasons, fmt.Sprintf("first name %q on identity does not match %q on credential",
				FirstGivenName(given), FirstGivenName(credentialGiven)))
		}
	}

	var notes []string
	switch CompareNationality(identity.CountryOfIssue, identity.Extracted.Nationality) {
	case NationalityMismatch:
		reasons = append(reasons, fmt.Sprintf("nationality %q is not consistent with country of issue %q",
			identity.Extracted.Nationality, identity.CountryOfIssue))
	case NationalityUnresolved:
		if strings.TrimSpace(identity.Extracted.Nationality) != "" {
			notes = append(notes, fmt.Sprintf("nationality %q could not be compared with country of issue %q",
				identity.Extracted.Nationality, identity.CountryOfIssue))
		}
	}

	if identity.Extracted.DateOfBirth != "" && identity.DateOfBirth != "" {
		extracted, errA := ParseDate(identity.Extracted.DateOfBirth)
		submitted, errB := ParseDate(identity.DateOfBirth)
		if errA == nil && errB == nil && !extracted.Equal(submitted) {
			reasons = append(reasons, fmt.Sprintf("date of birth %s on document does not match submitted %s",
				extracted.Format(time.DateOnly), submitted.Format(time.DateOnly)))
		}
	}

	if len(reasons) > 0 {
		return CrossCheckResult{Reasons: reasons, Reasoning: strings.Join(reasons, "; ")}
	}
	reasoning := "identity and credential details are consistent"
	if !credential.Extracted.HasNames() {
		reasoning = "identity details are consistent; credential carries no names to compare"
	}
	if len(notes) > 0 {
		reasoning += "; " + strings.Join(notes, "; ")
	}
	return CrossCheckResult{Passed: true, Reasoning: reasoning}
}
