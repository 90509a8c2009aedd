package scoring

import (
	"context"

	"github.com/brightsteps/brightsteps-analytics/internal/domain/shared"
	"github.com/brightsteps/brightsteps-analytics/internal/domain/student"
)

// Repository defines persistence operations for Z-profile snapshots.
type Repository interface {
	// Upsert writes an entry, overwriting any existing snapshot for the same
	// (student, domain, period).
	Upsert(ctx context.Context, entry Entry) error

	// Latest returns the most recent entry per domain for a student.
	// Domains with no history are simply absent from the result.
	Latest(ctx context.Context, studentID student.ID) ([]Entry, error)

	// History returns all entries for one (student, domain) in chronological
	// period order. This is the input of the trajectory predictor.
	History(ctx context.Context, studentID student.ID, domain shared.Domain) ([]Entry, error)
}
