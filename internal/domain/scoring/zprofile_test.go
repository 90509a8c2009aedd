package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightsteps/brightsteps-analytics/internal/domain/norms"
	"github.com/brightsteps/brightsteps-analytics/internal/domain/shared"
)

func TestComputeZ(t *testing.T) {
	norm := norms.Entry{
		AgeBucketMonths: 42,
		Domain:          shared.DomainLanguage,
		Mean:            50,
		StdDev:          15,
		SampleSize:      290,
	}

	// Literal reference case: mean 50, stddev 15, observed 35 -> Z = -1.0.
	z := ComputeZ(35, norm)
	require.NotNil(t, z)
	assert.InDelta(t, -1.0, *z, 1e-9)

	z = ComputeZ(50, norm)
	require.NotNil(t, z)
	assert.InDelta(t, 0, *z, 1e-9)

	z = ComputeZ(80, norm)
	require.NotNil(t, z)
	assert.InDelta(t, 2.0, *z, 1e-9)
}

func TestComputeZGuardsDegenerateStdDev(t *testing.T) {
	norm := norms.Entry{AgeBucketMonths: 36, Domain: shared.DomainMotor, Mean: 50}

	norm.StdDev = 0
	assert.Nil(t, ComputeZ(35, norm), "zero deviation must yield nil, not infinity")

	norm.StdDev = 1e-9
	assert.Nil(t, ComputeZ(35, norm), "near-zero deviation must yield nil")
}

func TestMeanPct(t *testing.T) {
	mean, err := MeanPct([]float64{20, 40, 60})
	assert.NoError(t, err)
	assert.InDelta(t, 40, mean, 1e-9)

	_, err = MeanPct(nil)
	assert.ErrorIs(t, err, ErrNoObservations)
}

func TestPeriodFor(t *testing.T) {
	// Thursday 2026-03-05 -> week starts Monday 2026-03-02.
	th := time.Date(2026, 3, 5, 14, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), PeriodFor(th))

	// Sunday belongs to the week that started the previous Monday.
	su := time.Date(2026, 3, 8, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), PeriodFor(su))
}

func TestEntryHasScore(t *testing.T) {
	e := Entry{}
	assert.False(t, e.HasScore())

	z := -1.5
	e.ZScore = &z
	assert.True(t, e.HasScore())
}
