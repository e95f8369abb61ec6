package gazetteer

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"carematch/internal/verification/ports"
)

// Postgres reads the localities table.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (g *Postgres) LocalitiesByPostcode(ctx context.Context, postcode string) ([]ports.Locality, error) {
	rows, err := g.db.QueryContext(ctx, `
		SELECT name, region, postcode
		FROM localities
		WHERE postcode = $1
		ORDER BY name
	`, postcode)
	if err != nil {
		return nil, fmt.Errorf("query localities: %w", err)
	}
	defer rows.Close()

	var out []ports.Locality
	for rows.Next() {
		var loc ports.Locality
		if err := rows.Scan(&loc.Name, &loc.Region, &loc.Postcode); err != nil {
			return nil, fmt.Errorf("scan locality: %w", err)
		}
		out = append(out, loc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate localities: %w", err)
	}
	return out, nil
}

// Import upserts localities in one statement. Returns the number inserted.
func (g *Postgres) Import(ctx context.Context, localities []ports.Locality) (int64, error) {
	if len(localities) == 0 {
		return 0, nil
	}
	names := make([]string, 0, len(localities))
	regions := make([]string, 0, len(localities))
	postcodes := make([]string, 0, len(localities))
	for _, loc := range localities {
		loc = normalizeLocality(loc)
		if loc.Name == "" || loc.Postcode == "" {
			continue
		}
		names = append(names, loc.Name)
		regions = append(regions, loc.Region)
		postcodes = append(postcodes, loc.Postcode)
	}

	result, err := g.db.ExecContext(ctx, `
		INSERT INTO localities (name, region, postcode)
		SELECT * FROM unnest($1::text[], $2::text[], $3::text[])
		ON CONFLICT (postcode, name, region) DO NOTHING
	`, pq.Array(names), pq.Array(regions), pq.Array(postcodes))
	if err != nil {
		return 0, fmt.Errorf("import localities: %w", err)
	}
	inserted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("import localities rows affected: %w", err)
	}
	return inserted, nil
}
