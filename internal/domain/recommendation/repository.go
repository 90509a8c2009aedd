package recommendation

import (
	"context"

	"github.com/brightsteps/brightsteps-analytics/internal/domain/shared"
	"github.com/brightsteps/brightsteps-analytics/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════
// REPOSITORY INTERFACE
// ══════════════════════════════════════════════════════════════

// Repository persists recommendations with pending-dedupe semantics.
type Repository interface {
	// CreateIfAbsent inserts the recommendation unless a pending one already
	// exists for the same (student, domain, activity). Returns true when a
	// row was inserted, false when the duplicate rule suppressed it.
	CreateIfAbsent(ctx context.Context, rec Recommendation) (bool, error)

	// ListPending returns a student's pending recommendations,
	// newest first.
	ListPending(ctx context.Context, studentID student.ID) ([]Recommendation, error)

	// ListPendingByDomain narrows ListPending to one domain.
	ListPendingByDomain(ctx context.Context, studentID student.ID, domain shared.Domain) ([]Recommendation, error)
}
