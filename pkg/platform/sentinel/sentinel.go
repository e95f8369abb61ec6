// Package sentinel names the infrastructure outcomes that stores, queues and
// collaborator clients return, usually wrapped. Services translate them into
// coded domain errors; input validation uses pkg/domain-errors directly.
package sentinel

import "errors"

var (
	// ErrNotFound: no row or object for the key.
	ErrNotFound = errors.New("not found")
	// ErrConflict: a unique key is already taken.
	ErrConflict = errors.New("conflict")
	// ErrUnavailable: the dependency refused work for now (queue full, breaker open).
	ErrUnavailable = errors.New("unavailable")
)
