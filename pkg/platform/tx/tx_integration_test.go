//go:build integration

package tx_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"

	txcontext "carematch/pkg/platform/tx"
	"carematch/pkg/testutil/containers"
)

type TxSuite struct {
	suite.Suite
	pg  *containers.PostgresContainer
	ctx context.Context
}

func TestTxSuite(t *testing.T) {
	suite.Run(t, new(TxSuite))
}

func (s *TxSuite) SetupSuite() {
	s.pg = containers.GetManager().GetPostgres(s.T())
	s.ctx = context.Background()
	_, err := s.pg.DB.ExecContext(s.ctx, `CREATE TABLE IF NOT EXISTS tx_probe (v INT NOT NULL)`)
	s.Require().NoError(err)
}

func (s *TxSuite) SetupTest() {
	s.Require().NoError(s.pg.TruncateTables(s.ctx, "tx_probe"))
}

func (s *TxSuite) count() int {
	var n int
	s.Require().NoError(s.pg.DB.QueryRowContext(s.ctx, `SELECT COUNT(*) FROM tx_probe`).Scan(&n))
	return n
}

func insert(ctx context.Context, tx *sql.Tx, v int) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO tx_probe (v) VALUES ($1)`, v)
	return err
}

func (s *TxSuite) TestCommit() {
	err := txcontext.Run(s.ctx, s.pg.DB, func(ctx context.Context, tx *sql.Tx) error {
		return insert(ctx, tx, 1)
	})
	s.Require().NoError(err)
	s.Equal(1, s.count())
}

func (s *TxSuite) TestRollbackOnError() {
	boom := errors.New("boom")
	err := txcontext.Run(s.ctx, s.pg.DB, func(ctx context.Context, tx *sql.Tx) error {
		if err := insert(ctx, tx, 1); err != nil {
			return err
		}
		return boom
	})
	s.ErrorIs(err, boom)
	s.Equal(0, s.count())
}

func (s *TxSuite) TestNestedRunJoinsOuter() {
	boom := errors.New("outer failed")
	err := txcontext.Run(s.ctx, s.pg.DB, func(ctx context.Context, outer *sql.Tx) error {
		inner := txcontext.Run(ctx, s.pg.DB, func(ctx context.Context, tx *sql.Tx) error {
			s.Same(outer, tx)
			return insert(ctx, tx, 2)
		})
		s.Require().NoError(inner)
		return boom
	})
	s.ErrorIs(err, boom)
	s.Equal(0, s.count(), "inner write must roll back with the outer transaction")
}

func (s *TxSuite) TestFrom() {
	_, ok := txcontext.From(s.ctx)
	s.False(ok)
	s.Equal(s.ctx, txcontext.WithTx(s.ctx, nil))
}
