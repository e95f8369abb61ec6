// Package postgres stores the audit trail in the audit_events table.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	id "carematch/pkg/domain"
	audit "carematch/pkg/platform/audit"
	txcontext "carematch/pkg/platform/tx"
)

const eventColumns = `category, timestamp, user_id, subject, action, decision, reason, request_id, actor_id`

// Store implements audit.Store. Reads and writes join the transaction on the
// context, so an admin decision and its audit row commit or roll back together.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type conn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *Store) conn(ctx context.Context) conn {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	if event.Category == "" {
		event.Category = audit.AuditEvent(event.Action).Category()
	}
	_, err := s.conn(ctx).ExecContext(ctx,
		`INSERT INTO audit_events (id, `+eventColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		uuid.New(),
		string(event.Category),
		event.Timestamp.UTC(),
		nullableUser(event.UserID),
		event.Subject,
		event.Action,
		event.Decision,
		event.Reason,
		event.RequestID,
		event.ActorID,
	)
	if err != nil {
		return fmt.Errorf("insert audit event %s: %w", event.Action, err)
	}
	return nil
}

// ListByUser returns the provider's or account's trail, newest first.
func (s *Store) ListByUser(ctx context.Context, userID id.UserID) ([]audit.Event, error) {
	return s.query(ctx,
		`SELECT `+eventColumns+` FROM audit_events WHERE user_id = $1 ORDER BY timestamp DESC, id`,
		uuid.UUID(userID))
}

func (s *Store) ListRecent(ctx context.Context, limit int) ([]audit.Event, error) {
	return s.query(ctx,
		`SELECT `+eventColumns+` FROM audit_events ORDER BY timestamp DESC, id LIMIT $1`,
		limit)
}

func (s *Store) query(ctx context.Context, query string, args ...any) ([]audit.Event, error) {
	rows, err := s.conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		var (
			e        audit.Event
			category string
			userID   uuid.NullUUID
		)
		if err := rows.Scan(&category, &e.Timestamp, &userID, &e.Subject, &e.Action,
			&e.Decision, &e.Reason, &e.RequestID, &e.ActorID); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		e.Category = audit.EventCategory(category)
		if userID.Valid {
			e.UserID = id.UserID(userID.UUID)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func nullableUser(userID id.UserID) uuid.NullUUID {
	if userID.IsNil() {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: uuid.UUID(userID), Valid: true}
}
