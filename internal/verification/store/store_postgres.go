package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"carematch/internal/verification/models"
	id "carematch/pkg/domain"
	"carematch/pkg/platform/sentinel"
	txcontext "carematch/pkg/platform/tx"
)

// PostgresStore persists one verification_records row per provider.
// Stage payloads are JSONB; their statuses are mirrored into plain columns
// for the admin queue and the expiry sweep.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const selectRecord = `
	SELECT id, provider_id, identity, credential, contact, cross_check,
	       verification_status, created_at, updated_at
	FROM verification_records
`

type rowScanner interface {
	Scan(dest ...any) error
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) queryer(ctx context.Context) queryer {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) FindByProvider(ctx context.Context, providerID id.UserID) (*models.Record, error) {
	row := s.queryer(ctx).QueryRowContext(ctx, selectRecord+` WHERE provider_id = $1`, uuid.UUID(providerID))
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find verification record: %w", err)
	}
	return rec, nil
}

// Execute locks the row with SELECT ... FOR UPDATE for the whole validate-mutate-hook-write sequence.
func (s *PostgresStore) Execute(ctx context.Context, providerID id.UserID, validate ValidateFunc, mutate MutateFunc, hooks ...models.WriteHook) (*models.Record, error) {
	var result *models.Record
	err := txcontext.Run(ctx, s.db, func(txCtx context.Context, tx *sql.Tx) error {
		rec, err := lockRecord(txCtx, tx, providerID)
		if err != nil {
			return err
		}
		result, err = s.write(txCtx, tx, rec, validate, mutate, hooks)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ExecuteOrCreate inserts an empty record if none exists, then behaves like Execute.
func (s *PostgresStore) ExecuteOrCreate(ctx context.Context, providerID id.UserID, now time.Time, validate ValidateFunc, mutate MutateFunc, hooks ...models.WriteHook) (*models.Record, error) {
	var result *models.Record
	err := txcontext.Run(ctx, s.db, func(txCtx context.Context, tx *sql.Tx) error {
		fresh := models.NewRecord(id.RecordID(uuid.New()), providerID, now)
		if err := insertIfAbsent(txCtx, tx, fresh); err != nil {
			return err
		}
		rec, err := lockRecord(txCtx, tx, providerID)
		if err != nil {
			return err
		}
		result, err = s.write(txCtx, tx, rec, validate, mutate, hooks)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *PostgresStore) write(ctx context.Context, tx *sql.Tx, rec *models.Record, validate ValidateFunc, mutate MutateFunc, hooks []models.WriteHook) (*models.Record, error) {
	if err := runWrite(rec, validate, mutate); err != nil {
		return nil, err
	}
	for _, hook := range hooks {
		if err := hook(ctx, rec); err != nil {
			return nil, err
		}
	}
	if err := updateRecord(ctx, tx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func lockRecord(ctx context.Context, tx *sql.Tx, providerID id.UserID) (*models.Record, error) {
	row := tx.QueryRowContext(ctx, selectRecord+` WHERE provider_id = $1 FOR UPDATE`, uuid.UUID(providerID))
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("lock verification record: %w", err)
	}
	return rec, nil
}

func insertIfAbsent(ctx context.Context, tx *sql.Tx, rec *models.Record) error {
	cols, err := encodeRecord(rec)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO verification_records (
			id, provider_id, identity_status, credential_status, contact_status, cross_check_status,
			verification_status, credential_expiry, identity, credential, contact, cross_check,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (provider_id) DO NOTHING
	`
	_, err = tx.ExecContext(ctx, query,
		uuid.UUID(rec.ID),
		uuid.UUID(rec.ProviderID),
		string(rec.Identity.Status),
		string(rec.Credential.Status),
		string(rec.Contact.Status),
		string(rec.CrossCheck.Status),
		int(rec.VerificationStatus),
		cols.credentialExpiry,
		cols.identity,
		cols.credential,
		cols.contact,
		cols.crossCheck,
		rec.CreatedAt,
		rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert verification record: %w", err)
	}
	return nil
}

func updateRecord(ctx context.Context, tx *sql.Tx, rec *models.Record) error {
	cols, err := encodeRecord(rec)
	if err != nil {
		return err
	}
	query := `
		UPDATE verification_records SET
			identity_status = $2,
			credential_status = $3,
			contact_status = $4,
			cross_check_status = $5,
			verification_status = $6,
			credential_expiry = $7,
			identity = $8,
			credential = $9,
			contact = $10,
			cross_check = $11,
			updated_at = $12
		WHERE provider_id = $1
	`
	result, err := tx.ExecContext(ctx, query,
		uuid.UUID(rec.ProviderID),
		string(rec.Identity.Status),
		string(rec.Credential.Status),
		string(rec.Contact.Status),
		string(rec.CrossCheck.Status),
		int(rec.VerificationStatus),
		cols.credentialExpiry,
		cols.identity,
		cols.credential,
		cols.contact,
		cols.crossCheck,
		rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update verification record: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update verification record rows affected: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// List returns records matching the filter, most recently updated first, and the total match count.
func (s *PostgresStore) List(ctx context.Context, filter models.ListFilter) ([]*models.Record, int, error) {
	filter.Normalize()
	where, args := listConditions(filter)

	var total int
	countQuery := `SELECT COUNT(*) FROM verification_records` + where
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count verification records: %w", err)
	}

	query := selectRecord + where + fmt.Sprintf(` ORDER BY updated_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	rows, err := s.db.QueryContext(ctx, query, append(args, filter.Limit, filter.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list verification records: %w", err)
	}
	defer rows.Close()

	records := []*models.Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan verification record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate verification records: %w", err)
	}
	return records, total, nil
}

func listConditions(filter models.ListFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if len(filter.IdentityStatuses) > 0 {
		values := make([]string, len(filter.IdentityStatuses))
		for i, st := range filter.IdentityStatuses {
			values[i] = string(st)
		}
		args = append(args, pq.Array(values))
		conds = append(conds, fmt.Sprintf("identity_status = ANY($%d)", len(args)))
	}
	if len(filter.CredentialStatuses) > 0 {
		values := make([]string, len(filter.CredentialStatuses))
		for i, st := range filter.CredentialStatuses {
			values[i] = string(st)
		}
		args = append(args, pq.Array(values))
		conds = append(conds, fmt.Sprintf("credential_status = ANY($%d)", len(args)))
	}
	if len(filter.Aggregates) > 0 {
		values := make([]int64, len(filter.Aggregates))
		for i, a := range filter.Aggregates {
			values[i] = int64(a)
		}
		args = append(args, pq.Array(values))
		conds = append(conds, fmt.Sprintf("verification_status = ANY($%d)", len(args)))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// ListExpiredCredentials returns providers whose satisfied credential expired before day.
func (s *PostgresStore) ListExpiredCredentials(ctx context.Context, day time.Time, limit int) ([]id.UserID, error) {
	query := `
		SELECT provider_id
		FROM verification_records
		WHERE credential_status = ANY($1)
		  AND credential_expiry IS NOT NULL
		  AND credential_expiry < $2
		ORDER BY credential_expiry
		LIMIT $3
	`
	satisfied := pq.Array([]string{string(models.CredentialDocVerified), string(models.CredentialVerified)})
	rows, err := s.db.QueryContext(ctx, query, satisfied, day, limit)
	if err != nil {
		return nil, fmt.Errorf("list expired credentials: %w", err)
	}
	defer rows.Close()

	var out []id.UserID
	for rows.Next() {
		var providerID uuid.UUID
		if err := rows.Scan(&providerID); err != nil {
			return nil, fmt.Errorf("scan expired credential: %w", err)
		}
		out = append(out, id.UserID(providerID))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expired credentials: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Delete(ctx context.Context, providerID id.UserID) error {
	result, err := s.execer(ctx).ExecContext(ctx, `DELETE FROM verification_records WHERE provider_id = $1`, uuid.UUID(providerID))
	if err != nil {
		return fmt.Errorf("delete verification record: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete verification record rows affected: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

type encodedColumns struct {
	identity         []byte
	credential       []byte
	contact          []byte
	crossCheck       []byte
	credentialExpiry *time.Time
}

func encodeRecord(rec *models.Record) (encodedColumns, error) {
	var (
		cols encodedColumns
		err  error
	)
	if cols.identity, err = json.Marshal(rec.Identity); err != nil {
		return cols, fmt.Errorf("marshal identity stage: %w", err)
	}
	if cols.credential, err = json.Marshal(rec.Credential); err != nil {
		return cols, fmt.Errorf("marshal credential stage: %w", err)
	}
	if cols.contact, err = json.Marshal(rec.Contact); err != nil {
		return cols, fmt.Errorf("marshal contact stage: %w", err)
	}
	if cols.crossCheck, err = json.Marshal(rec.CrossCheck); err != nil {
		return cols, fmt.Errorf("marshal cross-check: %w", err)
	}
	if rec.Credential.Expiry != "" {
		if expiry, perr := time.Parse(time.DateOnly, rec.Credential.Expiry); perr == nil {
			cols.credentialExpiry = &expiry
		}
	}
	return cols, nil
}

func scanRecord(row rowScanner) (*models.Record, error) {
	var (
		rec                                      models.Record
		recordID, providerID                     uuid.UUID
		identity, credential, contact, crossJSON []byte
		aggregate                                int
	)
	if err := row.Scan(&recordID, &providerID, &identity, &credential, &contact, &crossJSON,
		&aggregate, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return nil, err
	}
	rec.ID = id.RecordID(recordID)
	rec.ProviderID = id.UserID(providerID)
	rec.VerificationStatus = models.AggregateStatus(aggregate)
	if err := json.Unmarshal(identity, &rec.Identity); err != nil {
		return nil, fmt.Errorf("unmarshal identity stage: %w", err)
	}
	if err := json.Unmarshal(credential, &rec.Credential); err != nil {
		return nil, fmt.Errorf("unmarshal credential stage: %w", err)
	}
	if err := json.Unmarshal(contact, &rec.Contact); err != nil {
		return nil, fmt.Errorf("unmarshal contact stage: %w", err)
	}
	if err := json.Unmarshal(crossJSON, &rec.CrossCheck); err != nil {
		return nil, fmt.Errorf("unmarshal cross-check: %w", err)
	}
	return &rec, nil
}
