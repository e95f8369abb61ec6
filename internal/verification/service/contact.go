package service

import (
	"context"
	"strings"

	"carematch/internal/verification/models"
	"carematch/internal/verification/rules"
	id "carematch/pkg/domain"
	dErrors "carematch/pkg/domain-errors"
	"carematch/pkg/platform/audit"
	"carematch/pkg/requestcontext"
)

var (
	errContactLocked = dErrors.New(dErrors.CodeStageLocked, "contact details are locked until a credential is submitted")
	errNoGazetteer   = dErrors.New(dErrors.CodeUnavailable, "address lookup is not configured")
)

// SubmitContact validates contact details against the gazetteer and saves them.
// Resubmission overwrites the previous details.
func (s *Service) SubmitContact(ctx context.Context, providerID id.UserID, sub models.ContactSubmission) (*models.Record, error) {
	if providerID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "provider ID required")
	}
	sub, err := normalizeContact(sub)
	if err != nil {
		return nil, err
	}
	if err := s.checkLocality(ctx, sub); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	rec, err := s.write(ctx, writeSpec{
		providerID: providerID,
		now:        now,
		validate: func(rec *models.Record) error {
			return rec.CanSubmitContact()
		},
		mutate: func(rec *models.Record) {
			rec.ApplyContact(sub, now)
		},
		notFound: errContactLocked,
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncSubmission(models.StageContact, "form")
	s.track(ctx, providerID, models.StageContact, audit.EventContactSaved, rec.Contact.Status.String())
	return rec, nil
}

func normalizeContact(sub models.ContactSubmission) (models.ContactSubmission, error) {
	var err error
	if sub.Phone, err = rules.NormalizeMobile(sub.Phone); err != nil {
		return sub, validationError(err.Error())
	}
	sub.Street = strings.Join(strings.Fields(sub.Street), " ")
	if sub.Street == "" {
		return sub, validationError("street is required")
	}
	sub.City = strings.Join(strings.Fields(sub.City), " ")
	if sub.City == "" {
		return sub, validationError("city is required")
	}
	if sub.Region, err = rules.NormalizeRegion(sub.Region); err != nil {
		return sub, validationError(err.Error())
	}
	if sub.Postcode, err = rules.ValidatePostcode(sub.Postcode); err != nil {
		return sub, validationError(err.Error())
	}
	if sub.Country, err = rules.NormalizeCountry(sub.Country); err != nil {
		return sub, validationError(err.Error())
	}
	return sub, nil
}

// checkLocality requires the city and region to belong to the postcode.
func (s *Service) checkLocality(ctx context.Context, sub models.ContactSubmission) error {
	if s.gazetteer == nil {
		return errNoGazetteer
	}
	localities, err := s.gazetteer.LocalitiesByPostcode(ctx, sub.Postcode)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "address lookup is temporarily unavailable")
	}
	if len(localities) == 0 {
		return validationError("postcode " + sub.Postcode + " is not a known Australian postcode")
	}

	city := rules.NormalizeName(sub.City)
	regionMatched := false
	for _, loc := range localities {
		if loc.Region != sub.Region {
			continue
		}
		regionMatched = true
		if rules.NormalizeName(loc.Name) == city {
			return nil
		}
	}
	if !regionMatched {
		return validationError("postcode " + sub.Postcode + " is not in " + sub.Region)
	}
	return validationError(sub.City + " does not match postcode " + sub.Postcode)
}
