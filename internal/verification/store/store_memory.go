package store

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"carematch/internal/verification/models"
	id "carematch/pkg/domain"
	"carematch/pkg/platform/sentinel"
)

// InMemory is a mutex-guarded record store for tests and local development.
// A single lock serialises writes, so hooks must not block.
type InMemory struct {
	mu      sync.Mutex
	records map[id.UserID]*models.Record
}

func NewInMemory() *InMemory {
	return &InMemory{records: make(map[id.UserID]*models.Record)}
}

func (s *InMemory) FindByProvider(_ context.Context, providerID id.UserID) (*models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[providerID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return rec.Clone(), nil
}

// Execute runs a guarded write on an existing record.
func (s *InMemory) Execute(ctx context.Context, providerID id.UserID, validate ValidateFunc, mutate MutateFunc, hooks ...models.WriteHook) (*models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.records[providerID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return s.write(ctx, current.Clone(), validate, mutate, hooks)
}

// ExecuteOrCreate runs a guarded write, starting from an empty record when none exists.
func (s *InMemory) ExecuteOrCreate(ctx context.Context, providerID id.UserID, now time.Time, validate ValidateFunc, mutate MutateFunc, hooks ...models.WriteHook) (*models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	work := models.NewRecord(id.RecordID(uuid.New()), providerID, now)
	if current, ok := s.records[providerID]; ok {
		work = current.Clone()
	}
	return s.write(ctx, work, validate, mutate, hooks)
}

func (s *InMemory) write(ctx context.Context, work *models.Record, validate ValidateFunc, mutate MutateFunc, hooks []models.WriteHook) (*models.Record, error) {
	if err := runWrite(work, validate, mutate); err != nil {
		return nil, err
	}
	for _, hook := range hooks {
		if err := hook(ctx, work); err != nil {
			return nil, err
		}
	}
	s.records[work.ProviderID] = work.Clone()
	return work, nil
}

// List returns records matching the filter, most recently updated first, and the total match count.
func (s *InMemory) List(_ context.Context, filter models.ListFilter) ([]*models.Record, int, error) {
	filter.Normalize()
	s.mu.Lock()
	matched := make([]*models.Record, 0, len(s.records))
	for _, rec := range s.records {
		if filter.Matches(rec) {
			matched = append(matched, rec.Clone())
		}
	}
	s.mu.Unlock()

	slices.SortFunc(matched, func(a, b *models.Record) int {
		return b.UpdatedAt.Compare(a.UpdatedAt)
	})
	total := len(matched)
	if filter.Offset >= total {
		return []*models.Record{}, total, nil
	}
	end := min(filter.Offset+filter.Limit, total)
	return matched[filter.Offset:end], total, nil
}

// ListExpiredCredentials returns providers whose satisfied credential expired before day.
func (s *InMemory) ListExpiredCredentials(_ context.Context, day time.Time, limit int) ([]id.UserID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []id.UserID
	for providerID, rec := range s.records {
		if rec.IsExpiredOn(day) {
			out = append(out, providerID)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

// Delete removes a provider's record. Used only when the account itself is deleted.
func (s *InMemory) Delete(_ context.Context, providerID id.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[providerID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.records, providerID)
	return nil
}
