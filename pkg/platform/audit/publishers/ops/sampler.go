package ops

import (
	"math/rand/v2"

	audit "carematch/pkg/platform/audit"
)

// Sampler keeps a fraction of routine events per action. Rates are fixed at
// construction, so it is safe for concurrent use without locking.
type Sampler struct {
	defaultRate float64
	rates       map[string]float64
	roll        func() float64
}

// NewSampler keeps defaultRate of every action not listed in overrides.
// Rates are clamped to [0, 1].
func NewSampler(defaultRate float64, overrides map[audit.AuditEvent]float64) *Sampler {
	s := &Sampler{
		defaultRate: clampRate(defaultRate),
		rates:       make(map[string]float64, len(overrides)),
		roll:        rand.Float64,
	}
	for action, rate := range overrides {
		s.rates[string(action)] = clampRate(rate)
	}
	return s
}

// ShouldSample reports whether to keep an event for action.
func (s *Sampler) ShouldSample(action string) bool {
	rate, ok := s.rates[action]
	if !ok {
		rate = s.defaultRate
	}
	switch rate {
	case 0:
		return false
	case 1:
		return true
	}
	return s.roll() < rate
}

func clampRate(rate float64) float64 {
	return min(max(rate, 0), 1)
}
