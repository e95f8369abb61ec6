// Package objectstore reads uploaded documents by reference.
package objectstore

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"carematch/pkg/platform/sentinel"
)

// MaxObjectBytes caps how much of one document is read into memory.
const MaxObjectBytes = 10 << 20

// ErrTooLarge is returned for documents above MaxObjectBytes.
var ErrTooLarge = fmt.Errorf("document exceeds %d bytes", MaxObjectBytes)

// Reader fetches a whole object. Missing objects return sentinel.ErrNotFound.
type Reader interface {
	Get(ctx context.Context, key string) ([]byte, error)
}

// InMemory is a Reader over a fixed set of objects, used in development and tests.
type InMemory struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

func NewInMemory() *InMemory {
	return &InMemory{objects: make(map[string][]byte)}
}

// Put stores a copy of data under key.
func (m *InMemory) Put(key string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[normalizeKey(key)] = append([]byte(nil), data...)
}

func (m *InMemory) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objects[normalizeKey(key)]
	if !ok {
		return nil, fmt.Errorf("object %q: %w", key, sentinel.ErrNotFound)
	}
	return append([]byte(nil), data...), nil
}

// readLimited reads r up to MaxObjectBytes, failing when the object is larger.
func readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxObjectBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxObjectBytes {
		return nil, ErrTooLarge
	}
	return data, nil
}

func normalizeKey(key string) string {
	return strings.TrimPrefix(strings.TrimSpace(key), "/")
}
