package trajectory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightsteps/brightsteps-analytics/internal/domain/shared"
)

func weekly(zs ...float64) []Point {
	base := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	points := make([]Point, len(zs))
	for i, z := range zs {
		points[i] = Point{Period: base.AddDate(0, 0, 7*i), ZScore: z}
	}
	return points
}

func TestFitTrend_Improving(t *testing.T) {
	trend, err := FitTrend(weekly(-2.0, -1.5, -1.0))
	require.NoError(t, err)

	assert.InDelta(t, 0.5, trend.Slope, 1e-9)
	assert.Equal(t, DirectionImproving, trend.Direction())
}

func TestFitTrend_Declining(t *testing.T) {
	trend, err := FitTrend(weekly(-0.5, -1.0, -1.5, -2.0))
	require.NoError(t, err)

	assert.InDelta(t, -0.5, trend.Slope, 1e-9)
	assert.Equal(t, DirectionDeclining, trend.Direction())
}

func TestFitTrend_Stable(t *testing.T) {
	trend, err := FitTrend(weekly(-1.0, -1.02, -0.98, -1.0))
	require.NoError(t, err)

	assert.Equal(t, DirectionStable, trend.Direction())
}

func TestFitTrend_InsufficientHistory(t *testing.T) {
	_, err := FitTrend(weekly(-1.0))
	assert.ErrorIs(t, err, ErrInsufficientHistory)

	_, err = FitTrend(nil)
	assert.ErrorIs(t, err, ErrInsufficientHistory)
}

func TestTrend_ProjectAt(t *testing.T) {
	trend, err := FitTrend(weekly(-2.0, -1.5, -1.0))
	require.NoError(t, err)

	// Last observed index is 2 at Z=-1.0; four periods ahead at slope 0.5.
	assert.InDelta(t, 1.0, trend.ProjectAt(4), 1e-9)
	assert.InDelta(t, -1.0, trend.ProjectAt(0), 1e-9)
}

func TestConfidenceFor(t *testing.T) {
	assert.Equal(t, ConfidenceLow, ConfidenceFor(2))
	assert.Equal(t, ConfidenceLow, ConfidenceFor(3))
	assert.Equal(t, ConfidenceMedium, ConfidenceFor(4))
	assert.Equal(t, ConfidenceMedium, ConfidenceFor(7))
	assert.Equal(t, ConfidenceHigh, ConfidenceFor(8))
}

func TestClampZ(t *testing.T) {
	assert.Equal(t, 5.0, ClampZ(12.3))
	assert.Equal(t, -5.0, ClampZ(-9.9))
	assert.Equal(t, -1.2, ClampZ(-1.2))
}

func TestNewSummary_Counts(t *testing.T) {
	z := -1.0
	s := NewSummary("st-1", 3, []Projection{
		{Domain: shared.DomainMotor, Direction: DirectionImproving, ProjectedZ: &z},
		{Domain: shared.DomainLanguage, Direction: DirectionDeclining, ProjectedZ: &z},
		{Domain: shared.DomainCognitive, Direction: DirectionStable, ProjectedZ: &z},
		{Domain: shared.DomainSocial, Direction: DirectionInsufficient},
		{Domain: shared.DomainSelfCare, Direction: DirectionInsufficient},
	}, time.Now())

	assert.Equal(t, 1, s.Improving)
	assert.Equal(t, 1, s.Declining)
	assert.Equal(t, 1, s.Stable)
	assert.Equal(t, 2, s.Insufficient)
}
