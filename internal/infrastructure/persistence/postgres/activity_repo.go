package postgres

import (
	"context"
	"fmt"

	"github.com/brightsteps/brightsteps-analytics/internal/domain/recommendation"
	"github.com/brightsteps/brightsteps-analytics/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACTIVITY CATALOG REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// ActivityCatalogRepository implements recommendation.CatalogRepository
// against the content-team-owned activities table. Read-only.
type ActivityCatalogRepository struct {
	conn *Connection
}

// NewActivityCatalogRepository creates a new ActivityCatalogRepository.
func NewActivityCatalogRepository(conn *Connection) *ActivityCatalogRepository {
	return &ActivityCatalogRepository{conn: conn}
}

// FindByDomainAndAge returns activities for the domain whose age bracket
// covers ageMonths. Ordered by ID so repeated runs pick the same activities.
func (r *ActivityCatalogRepository) FindByDomainAndAge(ctx context.Context, domain shared.Domain, ageMonths int) ([]recommendation.Activity, error) {
	query := `
		SELECT id, title, description, domain, age_min_months, age_max_months
		FROM activities
		WHERE domain = $1
		  AND age_min_months <= $2
		  AND age_max_months >= $2
		ORDER BY id
	`

	rows, err := r.conn.Query(ctx, query, string(domain), ageMonths)
	if err != nil {
		return nil, fmt.Errorf("failed to query activities: %w", err)
	}
	defer rows.Close()

	var activities []recommendation.Activity
	for rows.Next() {
		var a recommendation.Activity
		if err := rows.Scan(
			&a.ID,
			&a.Title,
			&a.Description,
			&a.Domain,
			&a.AgeMinMonths,
			&a.AgeMaxMonths,
		); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		activities = append(activities, a)
	}

	return activities, rows.Err()
}
