package postgres

import (
	"context"
	"fmt"

	"github.com/brightsteps/brightsteps-analytics/internal/domain/scoring"
	"github.com/brightsteps/brightsteps-analytics/internal/domain/shared"
	"github.com/brightsteps/brightsteps-analytics/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// Z-PROFILE REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// ZProfileRepository implements scoring.Repository for PostgreSQL.
type ZProfileRepository struct {
	conn *Connection
}

// NewZProfileRepository creates a new ZProfileRepository.
func NewZProfileRepository(conn *Connection) *ZProfileRepository {
	return &ZProfileRepository{conn: conn}
}

// Upsert writes a snapshot. Recomputation of the same (student, domain,
// period) replaces the previous row in place.
func (r *ZProfileRepository) Upsert(ctx context.Context, entry scoring.Entry) error {
	query := `
		INSERT INTO z_profiles (student_id, domain, period, z_score, raw_mean, sample_count, computed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (student_id, domain, period) DO UPDATE SET
			z_score = EXCLUDED.z_score,
			raw_mean = EXCLUDED.raw_mean,
			sample_count = EXCLUDED.sample_count,
			computed_at = EXCLUDED.computed_at
	`

	_, err := r.conn.Exec(ctx, query,
		string(entry.StudentID),
		string(entry.Domain),
		entry.Period,
		entry.ZScore,
		entry.RawMean,
		entry.SampleCount,
		entry.ComputedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert z-profile: %w", err)
	}

	return nil
}

const zProfileColumns = `student_id, domain, period, z_score, raw_mean, sample_count, computed_at`

// Latest returns the most recent snapshot per domain for a student.
func (r *ZProfileRepository) Latest(ctx context.Context, studentID student.ID) ([]scoring.Entry, error) {
	query := fmt.Sprintf(`
		SELECT DISTINCT ON (domain) %s
		FROM z_profiles
		WHERE student_id = $1
		ORDER BY domain, period DESC
	`, zProfileColumns)

	return r.queryEntries(ctx, query, string(studentID))
}

// History returns all snapshots for one (student, domain) in period order.
func (r *ZProfileRepository) History(ctx context.Context, studentID student.ID, domain shared.Domain) ([]scoring.Entry, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM z_profiles
		WHERE student_id = $1 AND domain = $2
		ORDER BY period
	`, zProfileColumns)

	return r.queryEntries(ctx, query, string(studentID), string(domain))
}

func (r *ZProfileRepository) queryEntries(ctx context.Context, query string, args ...interface{}) ([]scoring.Entry, error) {
	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query z-profiles: %w", err)
	}
	defer rows.Close()

	var entries []scoring.Entry
	for rows.Next() {
		var e scoring.Entry
		if err := rows.Scan(
			&e.StudentID,
			&e.Domain,
			&e.Period,
			&e.ZScore,
			&e.RawMean,
			&e.SampleCount,
			&e.ComputedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan z-profile: %w", err)
		}
		e.Period = e.Period.UTC()
		entries = append(entries, e)
	}

	return entries, rows.Err()
}
