package norms

import (
	"context"

	"github.com/brightsteps/brightsteps-analytics/internal/domain/shared"
)

// Repository defines persistence operations for the norm table.
type Repository interface {
	// GetEntry returns the norm entry for an exact (age bucket, domain) pair.
	// Returns ErrEntryNotFound when the pair has not been seeded.
	GetEntry(ctx context.Context, ageBucketMonths int, domain shared.Domain) (*Entry, error)

	// Seed inserts entries that do not exist yet and leaves existing rows
	// untouched, so re-running initialization never clobbers calibrated norms.
	// Returns the number of entries actually inserted.
	Seed(ctx context.Context, entries []Entry) (int, error)

	// Count returns the number of seeded entries. A zero count is a
	// configuration error that aborts a scoring run before any per-student
	// work starts.
	Count(ctx context.Context) (int, error)
}

// LookupNearest resolves a continuous age to its nearest bucket and fetches
// the norm entry for it. This is the lookup every scoring call goes through.
func LookupNearest(ctx context.Context, repo Repository, ageMonths int, domain shared.Domain) (*Entry, error) {
	return repo.GetEntry(ctx, NearestBucket(ageMonths), domain)
}
