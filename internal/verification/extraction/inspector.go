package extraction

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"carematch/internal/objectstore"
	"carematch/internal/verification/models"
	"carematch/internal/verification/rules"
	dErrors "carematch/pkg/domain-errors"
	"carematch/pkg/platform/sentinel"
)

var (
	credentialNumber = regexp.MustCompile(`(?i)\bWWC\s*\d{7}\s*[A-Z]\b`)
	surnameLine      = regexp.MustCompile(`(?im)^\s*(?:family name|surname|last name)\s*:?\s*(.+?)\s*$`)
	firstNameLine    = regexp.MustCompile(`(?im)^\s*(?:first names?|given names?)\s*:?\s*(.+?)\s*$`)
	otherNamesLine   = regexp.MustCompile(`(?im)^\s*(?:other names?|middle names?)\s*:?\s*(.+?)\s*$`)
	clearanceLine    = regexp.MustCompile(`(?im)^\s*(?:clearance type|check type|type)\s*:?\s*(.+?)\s*$`)
	expiryLine       = regexp.MustCompile(`(?im)^\s*(?:expiry date|expiry|expires|valid until)\s*:?\s*(.+?)\s*$`)
)

// PDFInspector reads emailed clearance letters from object storage and pulls
// the labelled clearance fields out of their text.
type PDFInspector struct {
	objects objectstore.Reader
}

func NewPDFInspector(objects objectstore.Reader) (*PDFInspector, error) {
	if objects == nil {
		return nil, errors.New("object reader is required")
	}
	return &PDFInspector{objects: objects}, nil
}

// Inspect returns parsed when every document agrees, ambiguous when documents or
// lines disagree on a field, and unreadable when no clearance text is found.
func (i *PDFInspector) Inspect(ctx context.Context, documentRefs []string) (*models.DocumentInspection, error) {
	var texts []string
	for _, ref := range documentRefs {
		data, err := i.objects.Get(ctx, ref)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return nil, dErrors.Wrap(err, dErrors.CodeValidation, "document "+ref+" was not found, please upload it again")
			}
			if errors.Is(err, objectstore.ErrTooLarge) {
				return nil, dErrors.Wrap(err, dErrors.CodeValidation, "document "+ref+" is too large")
			}
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !isPDF(data) {
			return &models.DocumentInspection{Outcome: models.DocumentUnreadable, Detail: ref + " is not a PDF"}, nil
		}
		if text := pdfText(data); strings.TrimSpace(text) != "" {
			texts = append(texts, text)
		}
	}
	if len(texts) == 0 {
		return &models.DocumentInspection{Outcome: models.DocumentUnreadable, Detail: "no text found"}, nil
	}
	return parseClearance(strings.Join(texts, "\n")), nil
}

// parseClearance extracts the clearance fields from document text.
func parseClearance(text string) *models.DocumentInspection {
	fields := models.CredentialExtraction{}
	var conflicts []string

	numbers := distinct(credentialNumber.FindAllString(text, -1), func(v string) string {
		n, err := rules.NormalizeCredentialNumber(v)
		if err != nil {
			return ""
		}
		return n
	})
	fields.Number, conflicts = pick(numbers, "number", conflicts)

	expiries := distinct(captures(expiryLine, text), func(v string) string {
		t, err := rules.ParseDate(v)
		if err != nil {
			return ""
		}
		return t.Format(time.DateOnly)
	})
	fields.Expiry, conflicts = pick(expiries, "expiry", conflicts)

	fields.Surname, conflicts = pick(distinct(captures(surnameLine, text), strings.TrimSpace), "surname", conflicts)
	fields.FirstName, conflicts = pick(distinct(captures(firstNameLine, text), strings.TrimSpace), "first name", conflicts)
	fields.OtherNames, conflicts = pick(distinct(captures(otherNamesLine, text), strings.TrimSpace), "other names", conflicts)
	fields.ClearanceType, conflicts = pick(distinct(captures(clearanceLine, text), strings.TrimSpace), "clearance type", conflicts)

	switch {
	case len(conflicts) > 0:
		return &models.DocumentInspection{
			Outcome: models.DocumentAmbiguous,
			Fields:  fields,
			Detail:  "conflicting " + strings.Join(conflicts, ", "),
		}
	case fields.Number == "" && fields.Expiry == "" && !fields.HasNames():
		return &models.DocumentInspection{Outcome: models.DocumentUnreadable, Detail: "no clearance details found"}
	default:
		return &models.DocumentInspection{Outcome: models.DocumentParsed, Fields: fields}
	}
}

func captures(re *regexp.Regexp, text string) []string {
	var out []string
	for _, m := range re.FindAllStringSubmatch(text, -1) {
		out = append(out, m[1])
	}
	return out
}

// distinct canonicalises values and drops empties and duplicates, keeping order.
func distinct(values []string, canonical func(string) string) []string {
	seen := make(map[string]bool, len(values))
	var out []string
	for _, v := range values {
		c := canonical(v)
		key := rules.NormalizeName(c)
		if c == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, c)
	}
	return out
}

func pick(values []string, field string, conflicts []string) (string, []string) {
	switch len(values) {
	case 0:
		return "", conflicts
	case 1:
		return values[0], conflicts
	default:
		return "", append(conflicts, field)
	}
}
