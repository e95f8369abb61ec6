// Package tx carries a *sql.Tx on the context so independent stores can join
// one unit of work without knowing about each other.
package tx

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// DefaultTimeout bounds a transaction whose context has no deadline.
const DefaultTimeout = 5 * time.Second

// Beginner is satisfied by *sql.DB.
type Beginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

type key struct{}

// WithTx attaches tx to ctx. A nil tx returns ctx unchanged.
func WithTx(ctx context.Context, tx *sql.Tx) context.Context {
	if tx == nil {
		return ctx
	}
	return context.WithValue(ctx, key{}, tx)
}

// From returns the transaction attached to ctx, if any.
func From(ctx context.Context) (*sql.Tx, bool) {
	tx, ok := ctx.Value(key{}).(*sql.Tx)
	return tx, ok && tx != nil
}

// Run calls fn inside a transaction and commits when it returns nil. If ctx
// already carries a transaction fn joins it and the outermost Run decides
// the outcome.
func Run(ctx context.Context, db Beginner, fn func(ctx context.Context, tx *sql.Tx) error) (err error) {
	if outer, ok := From(ctx); ok {
		return fn(ctx, outer)
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultTimeout)
		defer cancel()
	}

	sqlTx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if committed {
			return
		}
		if rbErr := sqlTx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) && err != nil {
			err = errors.Join(err, fmt.Errorf("rollback tx: %w", rbErr))
		}
	}()

	if err = fn(WithTx(ctx, sqlTx), sqlTx); err != nil {
		return err
	}
	if err = sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	committed = true
	return nil
}
