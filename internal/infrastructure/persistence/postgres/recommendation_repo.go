package postgres

import (
	"context"
	"fmt"

	"github.com/brightsteps/brightsteps-analytics/internal/domain/recommendation"
	"github.com/brightsteps/brightsteps-analytics/internal/domain/shared"
	"github.com/brightsteps/brightsteps-analytics/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECOMMENDATION REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// RecommendationRepository implements recommendation.Repository for
// PostgreSQL. Deduplication rides on the partial unique index over pending
// rows, so concurrent runs cannot double-insert either.
type RecommendationRepository struct {
	conn *Connection
}

// NewRecommendationRepository creates a new RecommendationRepository.
func NewRecommendationRepository(conn *Connection) *RecommendationRepository {
	return &RecommendationRepository{conn: conn}
}

// CreateIfAbsent inserts the recommendation unless a pending one already
// exists for the same (student, domain, activity).
func (r *RecommendationRepository) CreateIfAbsent(ctx context.Context, rec recommendation.Recommendation) (bool, error) {
	query := `
		INSERT INTO recommendations (id, student_id, domain, activity_id, rationale, priority, audience, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (student_id, domain, activity_id) WHERE status = 'pending' DO NOTHING
	`

	tag, err := r.conn.Exec(ctx, query,
		rec.ID,
		string(rec.StudentID),
		string(rec.Domain),
		string(rec.ActivityID),
		rec.Rationale,
		string(rec.Priority),
		string(rec.Audience),
		string(rec.Status),
		rec.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to create recommendation: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

const recommendationColumns = `id, student_id, domain, activity_id, rationale, priority, audience, status, created_at`

// ListPending returns a student's pending recommendations, newest first.
func (r *RecommendationRepository) ListPending(ctx context.Context, studentID student.ID) ([]recommendation.Recommendation, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM recommendations
		WHERE student_id = $1 AND status = 'pending'
		ORDER BY created_at DESC
	`, recommendationColumns)

	return r.queryRecommendations(ctx, query, string(studentID))
}

// ListPendingByDomain narrows ListPending to one domain.
func (r *RecommendationRepository) ListPendingByDomain(ctx context.Context, studentID student.ID, domain shared.Domain) ([]recommendation.Recommendation, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM recommendations
		WHERE student_id = $1 AND domain = $2 AND status = 'pending'
		ORDER BY created_at DESC
	`, recommendationColumns)

	return r.queryRecommendations(ctx, query, string(studentID), string(domain))
}

func (r *RecommendationRepository) queryRecommendations(ctx context.Context, query string, args ...interface{}) ([]recommendation.Recommendation, error) {
	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query recommendations: %w", err)
	}
	defer rows.Close()

	var recs []recommendation.Recommendation
	for rows.Next() {
		var rec recommendation.Recommendation
		if err := rows.Scan(
			&rec.ID,
			&rec.StudentID,
			&rec.Domain,
			&rec.ActivityID,
			&rec.Rationale,
			&rec.Priority,
			&rec.Audience,
			&rec.Status,
			&rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan recommendation: %w", err)
		}
		recs = append(recs, rec)
	}

	return recs, rows.Err()
}
