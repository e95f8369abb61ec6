package ops

import (
	"testing"

	"github.com/stretchr/testify/assert"

	audit "carematch/pkg/platform/audit"
)

func TestSampler(t *testing.T) {
	s := NewSampler(1, map[audit.AuditEvent]float64{
		audit.EventContactSaved:   0.25,
		audit.EventVerdictApplied: 3,
	})
	s.roll = func() float64 { return 0.5 }

	assert.True(t, s.ShouldSample(string(audit.EventIdentitySubmitted)), "default keeps everything")
	assert.False(t, s.ShouldSample(string(audit.EventContactSaved)), "0.5 roll is above the 0.25 rate")
	assert.True(t, s.ShouldSample(string(audit.EventVerdictApplied)), "rates above 1 are clamped")

	s.roll = func() float64 { return 0.1 }
	assert.True(t, s.ShouldSample(string(audit.EventContactSaved)))

	none := NewSampler(-1, nil)
	assert.False(t, none.ShouldSample(string(audit.EventCredentialSubmitted)))
}
