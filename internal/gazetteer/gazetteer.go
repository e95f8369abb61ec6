// Package gazetteer resolves Australian postcodes to their localities.
//
// Sources: an in-memory table (loaded from CSV), the localities table in
// Postgres, and a Redis read-through cache in front of either.
package gazetteer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"

	"carematch/internal/verification/ports"
	"carematch/internal/verification/rules"
)

// InMemory holds the whole gazetteer in a map keyed by postcode.
type InMemory struct {
	mu         sync.RWMutex
	byPostcode map[string][]ports.Locality
}

func NewInMemory(localities ...ports.Locality) *InMemory {
	g := &InMemory{byPostcode: make(map[string][]ports.Locality)}
	g.Add(localities...)
	return g
}

// Add inserts localities, normalising region codes. Duplicates are ignored.
func (g *InMemory) Add(localities ...ports.Locality) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, loc := range localities {
		loc = normalizeLocality(loc)
		if loc.Postcode == "" || loc.Name == "" {
			continue
		}
		existing := g.byPostcode[loc.Postcode]
		if slices.Contains(existing, loc) {
			continue
		}
		g.byPostcode[loc.Postcode] = append(existing, loc)
	}
}

func (g *InMemory) LocalitiesByPostcode(_ context.Context, postcode string) ([]ports.Locality, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return slices.Clone(g.byPostcode[strings.TrimSpace(postcode)]), nil
}

// Len returns the number of distinct postcodes.
func (g *InMemory) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.byPostcode)
}

// ReadCSV parses "locality,state,postcode" rows. A header row is skipped.
func ReadCSV(r io.Reader) ([]ports.Locality, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var out []ports.Locality
	for line := 1; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read gazetteer line %d: %w", line, err)
		}
		if len(row) < 3 {
			return nil, fmt.Errorf("gazetteer line %d: expected locality,state,postcode", line)
		}
		if line == 1 && strings.EqualFold(strings.TrimSpace(row[2]), "postcode") {
			continue
		}
		out = append(out, ports.Locality{Name: row[0], Region: row[1], Postcode: row[2]})
	}
}

func normalizeLocality(loc ports.Locality) ports.Locality {
	loc.Name = strings.Join(strings.Fields(loc.Name), " ")
	loc.Postcode = strings.TrimSpace(loc.Postcode)
	if region, err := rules.NormalizeRegion(loc.Region); err == nil {
		loc.Region = region
	} else {
		loc.Region = strings.ToUpper(strings.TrimSpace(loc.Region))
	}
	return loc
}
