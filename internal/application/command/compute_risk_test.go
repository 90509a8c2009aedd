package command

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightsteps/brightsteps-analytics/internal/domain/risk"
	"github.com/brightsteps/brightsteps-analytics/internal/domain/scoring"
	"github.com/brightsteps/brightsteps-analytics/internal/domain/shared"
	"github.com/brightsteps/brightsteps-analytics/internal/domain/student"
)

func seedScore(t *testing.T, repo *fakeScoreRepo, id student.ID, domain shared.Domain, period time.Time, z *float64) {
	t.Helper()
	require.NoError(t, repo.Upsert(context.Background(), scoring.Entry{
		StudentID: id,
		Domain:    domain,
		Period:    period,
		ZScore:    z,
	}))
}

func fz(v float64) *float64 { return &v }

func TestComputeRisk_OverallIsWorstKnownTier(t *testing.T) {
	scores := newFakeScoreRepo()
	seedScore(t, scores, "st-1", shared.DomainMotor, periodMonday, fz(0.3))
	seedScore(t, scores, "st-1", shared.DomainLanguage, periodMonday, fz(-3.4))

	risks := newFakeRiskRepo()
	h := NewComputeRiskHandler(scores, risks)

	result, err := h.Handle(context.Background(), ComputeRiskCommand{StudentID: "st-1"})
	require.NoError(t, err)

	assert.Equal(t, risk.TierHighRisk, result.Profile.OverallTier)
	assert.Equal(t, []shared.Domain{shared.DomainLanguage}, result.Profile.AtRiskDomains)

	// Unscored domains classify as unknown, not normal.
	assert.Equal(t, risk.TierUnknown, result.Profile.TierFor(shared.DomainCognitive))
	assert.Len(t, result.Profile.UnknownDomains, 3)

	// The snapshot was persisted.
	stored, err := risks.Get(context.Background(), "st-1")
	require.NoError(t, err)
	assert.Equal(t, risk.TierHighRisk, stored.OverallTier)
}

func TestComputeRisk_RanksAtRiskMostNegativeFirst(t *testing.T) {
	scores := newFakeScoreRepo()
	seedScore(t, scores, "st-1", shared.DomainCognitive, periodMonday, fz(-2.1))
	seedScore(t, scores, "st-1", shared.DomainMotor, periodMonday, fz(-3.5))
	seedScore(t, scores, "st-1", shared.DomainSocial, periodMonday, fz(-1.0))

	h := NewComputeRiskHandler(scores, newFakeRiskRepo())
	result, err := h.Handle(context.Background(), ComputeRiskCommand{StudentID: "st-1"})
	require.NoError(t, err)

	assert.Equal(t,
		[]shared.Domain{shared.DomainMotor, shared.DomainCognitive},
		result.Profile.AtRiskDomains)
}

func TestComputeRisk_UsesLatestPeriodOnly(t *testing.T) {
	scores := newFakeScoreRepo()
	older := periodMonday.AddDate(0, 0, -7)
	seedScore(t, scores, "st-1", shared.DomainMotor, older, fz(-3.0))
	seedScore(t, scores, "st-1", shared.DomainMotor, periodMonday, fz(-0.5))

	h := NewComputeRiskHandler(scores, newFakeRiskRepo())
	result, err := h.Handle(context.Background(), ComputeRiskCommand{StudentID: "st-1"})
	require.NoError(t, err)

	assert.Equal(t, risk.TierNormal, result.Profile.TierFor(shared.DomainMotor))
	assert.Empty(t, result.Profile.AtRiskDomains)
}

func TestComputeRisk_NoHistoryIsAllUnknown(t *testing.T) {
	h := NewComputeRiskHandler(newFakeScoreRepo(), newFakeRiskRepo())
	result, err := h.Handle(context.Background(), ComputeRiskCommand{StudentID: "st-1"})
	require.NoError(t, err)

	assert.Equal(t, risk.TierUnknown, result.Profile.OverallTier)
	assert.Len(t, result.Profile.UnknownDomains, len(shared.AllDomains()))
}
