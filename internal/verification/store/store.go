// Package store persists verification records.
//
// Every write goes through Execute or ExecuteOrCreate: the record is loaded
// under a lock (mutex or SELECT ... FOR UPDATE), validated, mutated, has its
// aggregate recomputed, runs write hooks, and is persisted. Any error along
// the way leaves the stored record untouched.
package store

import "carematch/internal/verification/models"

// ValidateFunc inspects the locked record. A non-nil error aborts the write.
type ValidateFunc func(rec *models.Record) error

// MutateFunc applies the change to the locked record.
type MutateFunc func(rec *models.Record)

func runWrite(rec *models.Record, validate ValidateFunc, mutate MutateFunc) error {
	if validate != nil {
		if err := validate(rec); err != nil {
			return err
		}
	}
	if mutate != nil {
		mutate(rec)
	}
	rec.Refresh()
	return nil
}
