package risk

import (
	"context"

	"github.com/brightsteps/brightsteps-analytics/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════
// REPOSITORY INTERFACE
// ══════════════════════════════════════════════════════════════

// Repository persists risk profile snapshots. One row per student:
// Upsert replaces any previous snapshot for the same student.
type Repository interface {
	// Upsert writes the profile, overwriting an existing snapshot for the
	// student if present.
	Upsert(ctx context.Context, profile Profile) error

	// Get returns the current snapshot for a student.
	// Returns ErrProfileNotFound when none has been computed yet.
	Get(ctx context.Context, studentID student.ID) (Profile, error)
}
