package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/brightsteps/brightsteps-analytics/internal/domain/norms"
	"github.com/brightsteps/brightsteps-analytics/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// NORM REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// NormRepository implements norms.Repository for PostgreSQL.
type NormRepository struct {
	conn *Connection
}

// NewNormRepository creates a new NormRepository.
func NewNormRepository(conn *Connection) *NormRepository {
	return &NormRepository{conn: conn}
}

// GetEntry returns the norm entry for an exact (age bucket, domain) pair.
func (r *NormRepository) GetEntry(ctx context.Context, ageBucketMonths int, domain shared.Domain) (*norms.Entry, error) {
	query := `
		SELECT age_bucket_months, domain, mean, std_dev, sample_size
		FROM norm_entries
		WHERE age_bucket_months = $1 AND domain = $2
	`

	var e norms.Entry
	err := r.conn.QueryRow(ctx, query, ageBucketMonths, string(domain)).Scan(
		&e.AgeBucketMonths,
		&e.Domain,
		&e.Mean,
		&e.StdDev,
		&e.SampleSize,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, norms.ErrEntryNotFound
		}
		return nil, fmt.Errorf("failed to get norm entry: %w", err)
	}

	return &e, nil
}

// Seed inserts entries that do not exist yet. ON CONFLICT DO NOTHING keeps
// hand-calibrated rows untouched across re-runs; the returned count is the
// number of rows actually written.
func (r *NormRepository) Seed(ctx context.Context, entries []norms.Entry) (int, error) {
	query := `
		INSERT INTO norm_entries (age_bucket_months, domain, mean, std_dev, sample_size)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (age_bucket_months, domain) DO NOTHING
	`

	inserted := 0
	err := r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		for _, e := range entries {
			tag, err := tx.Exec(ctx, query,
				e.AgeBucketMonths,
				string(e.Domain),
				e.Mean,
				e.StdDev,
				e.SampleSize,
			)
			if err != nil {
				return fmt.Errorf("failed to seed norm entry %s: %w", e.Key(), err)
			}
			inserted += int(tag.RowsAffected())
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return inserted, nil
}

// Count returns the number of seeded entries.
func (r *NormRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.conn.QueryRow(ctx, `SELECT COUNT(*) FROM norm_entries`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count norm entries: %w", err)
	}
	return count, nil
}
