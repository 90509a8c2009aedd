package command

import (
	"context"
	"fmt"
	"time"

	"github.com/brightsteps/brightsteps-analytics/internal/domain/norms"
	"github.com/brightsteps/brightsteps-analytics/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// SEED NORMS COMMAND
// Loads the reference norm dataset into the norm table. Idempotent: rows that
// already exist are left exactly as they are, so re-running initialization
// never clobbers calibrated norms.
// ══════════════════════════════════════════════════════════════════════════════

// SeedNormsCommand carries an optional custom dataset. Nil means the built-in
// reference dataset.
type SeedNormsCommand struct {
	Entries []norms.Entry
}

// SeedNormsResult reports what the seed pass did.
type SeedNormsResult struct {
	// Inserted is the number of rows actually written.
	Inserted int

	// Skipped is the number of rows that already existed.
	Skipped int

	// Total is the number of entries now expected in the table.
	Total int

	SeededAt time.Time
}

// SeedNormsHandler seeds the norm table.
type SeedNormsHandler struct {
	normRepo norms.Repository

	now func() time.Time
}

// NewSeedNormsHandler creates a new SeedNormsHandler.
func NewSeedNormsHandler(normRepo norms.Repository) *SeedNormsHandler {
	return &SeedNormsHandler{normRepo: normRepo, now: timeutil.NowUTC}
}

// Handle validates and seeds the dataset. Any invalid entry rejects the whole
// dataset before a single row is written.
func (h *SeedNormsHandler) Handle(ctx context.Context, cmd SeedNormsCommand) (*SeedNormsResult, error) {
	entries := cmd.Entries
	if entries == nil {
		entries = norms.DefaultSeed()
	}

	for _, e := range entries {
		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("seed_norms: invalid entry %s: %w", e.Key(), err)
		}
	}

	inserted, err := h.normRepo.Seed(ctx, entries)
	if err != nil {
		return nil, fmt.Errorf("seed_norms: seed failed: %w", err)
	}

	return &SeedNormsResult{
		Inserted: inserted,
		Skipped:  len(entries) - inserted,
		Total:    len(entries),
		SeededAt: h.now(),
	}, nil
}
