package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	id "carematch/pkg/domain"
	"carematch/pkg/platform/sentinel"
	txcontext "carematch/pkg/platform/tx"
)

const uniqueViolation = "23505"

// PostgresStore persists users in the users table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// RunInTx puts a transaction on the context so the verification store and the
// audit store join it.
func (s *PostgresStore) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return txcontext.Run(ctx, s.db, func(ctx context.Context, _ *sql.Tx) error {
		return fn(ctx)
	})
}

func (s *PostgresStore) Create(ctx context.Context, user *User) error {
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO users (id, email, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`, uuid.UUID(user.ID), user.Email, string(user.Role), user.CreatedAt, user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, userID id.UserID) (*User, error) {
	var (
		user  User
		rawID uuid.UUID
		role  string
	)
	err := s.execer(ctx).QueryRowContext(ctx, `
		SELECT id, email, role, created_at, updated_at
		FROM users
		WHERE id = $1
	`, uuid.UUID(userID)).Scan(&rawID, &user.Email, &role, &user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	user.ID = id.UserID(rawID)
	user.Role = id.Role(role)
	return &user, nil
}

func (s *PostgresStore) UpdateRole(ctx context.Context, user *User) error {
	result, err := s.execer(ctx).ExecContext(ctx, `
		UPDATE users SET role = $2, updated_at = $3 WHERE id = $1
	`, uuid.UUID(user.ID), string(user.Role), user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update user role: %w", err)
	}
	return requireRow(result, "update user role")
}

func (s *PostgresStore) Delete(ctx context.Context, userID id.UserID) error {
	result, err := s.execer(ctx).ExecContext(ctx, `DELETE FROM users WHERE id = $1`, uuid.UUID(userID))
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return requireRow(result, "delete user")
}

func requireRow(result sql.Result, op string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
