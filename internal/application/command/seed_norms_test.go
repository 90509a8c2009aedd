package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightsteps/brightsteps-analytics/internal/domain/norms"
	"github.com/brightsteps/brightsteps-analytics/internal/domain/shared"
)

func TestSeedNorms_DefaultDataset(t *testing.T) {
	repo := newFakeNormRepo()
	h := NewSeedNormsHandler(repo)

	result, err := h.Handle(context.Background(), SeedNormsCommand{})
	require.NoError(t, err)

	want := len(norms.AgeBuckets()) * len(shared.AllDomains())
	assert.Equal(t, want, result.Inserted)
	assert.Equal(t, 0, result.Skipped)
	assert.Equal(t, want, result.Total)
}

func TestSeedNorms_Idempotent(t *testing.T) {
	repo := newFakeNormRepo()
	h := NewSeedNormsHandler(repo)

	_, err := h.Handle(context.Background(), SeedNormsCommand{})
	require.NoError(t, err)

	again, err := h.Handle(context.Background(), SeedNormsCommand{})
	require.NoError(t, err)

	assert.Equal(t, 0, again.Inserted)
	assert.Equal(t, again.Total, again.Skipped)
}

func TestSeedNorms_PreservesCalibratedEntries(t *testing.T) {
	repo := newFakeNormRepo(norms.Entry{
		AgeBucketMonths: 42,
		Domain:          shared.DomainMotor,
		Mean:            61.5, // hand-calibrated, not the reference value
		StdDev:          12.0,
		SampleSize:      999,
	})
	h := NewSeedNormsHandler(repo)

	_, err := h.Handle(context.Background(), SeedNormsCommand{})
	require.NoError(t, err)

	entry, err := repo.GetEntry(context.Background(), 42, shared.DomainMotor)
	require.NoError(t, err)
	assert.Equal(t, 61.5, entry.Mean)
	assert.Equal(t, 999, entry.SampleSize)
}

func TestSeedNorms_RejectsInvalidDataset(t *testing.T) {
	repo := newFakeNormRepo()
	h := NewSeedNormsHandler(repo)

	_, err := h.Handle(context.Background(), SeedNormsCommand{Entries: []norms.Entry{
		{AgeBucketMonths: 42, Domain: shared.DomainMotor, Mean: 50, StdDev: 0},
	}})
	assert.ErrorIs(t, err, norms.ErrInvalidStdDev)

	count, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
