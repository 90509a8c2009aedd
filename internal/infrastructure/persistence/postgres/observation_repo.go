package postgres

import (
	"context"
	"fmt"

	"github.com/brightsteps/brightsteps-analytics/internal/domain/assessment"
	"github.com/brightsteps/brightsteps-analytics/internal/domain/shared"
	"github.com/brightsteps/brightsteps-analytics/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// OBSERVATION REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// ObservationRepository implements assessment.Repository against the
// observations view the assessment subsystem exposes. The pipeline only ever
// reads it; values come back raw and are normalized in the domain layer.
type ObservationRepository struct {
	conn *Connection
}

// NewObservationRepository creates a new ObservationRepository.
func NewObservationRepository(conn *Connection) *ObservationRepository {
	return &ObservationRepository{conn: conn}
}

// ListObservations returns a student's observations for one domain inside the
// half-open window [From, To), oldest first.
func (r *ObservationRepository) ListObservations(ctx context.Context, studentID student.ID, domain shared.Domain, window assessment.Window) ([]assessment.Observation, error) {
	query := `
		SELECT student_id, domain, value, scale, source, observed_at
		FROM observations
		WHERE student_id = $1
		  AND domain = $2
		  AND observed_at >= $3
		  AND observed_at < $4
		ORDER BY observed_at
	`

	rows, err := r.conn.Query(ctx, query, string(studentID), string(domain), window.From, window.To)
	if err != nil {
		return nil, fmt.Errorf("failed to query observations: %w", err)
	}
	defer rows.Close()

	var observations []assessment.Observation
	for rows.Next() {
		var o assessment.Observation
		if err := rows.Scan(
			&o.StudentID,
			&o.Domain,
			&o.Value,
			&o.Scale,
			&o.Source,
			&o.ObservedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan observation: %w", err)
		}
		observations = append(observations, o)
	}

	return observations, rows.Err()
}
