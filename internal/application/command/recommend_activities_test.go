package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightsteps/brightsteps-analytics/internal/domain/recommendation"
	"github.com/brightsteps/brightsteps-analytics/internal/domain/scoring"
	"github.com/brightsteps/brightsteps-analytics/internal/domain/shared"
)

func catalogFor(domains ...shared.Domain) *fakeCatalogRepo {
	repo := &fakeCatalogRepo{}
	for i, d := range domains {
		repo.activities = append(repo.activities, recommendation.Activity{
			ID:           recommendation.ActivityID(string(d) + "-act"),
			Title:        "Activity " + string(rune('A'+i)),
			Domain:       d,
			AgeMinMonths: 24,
			AgeMaxMonths: 72,
		})
	}
	return repo
}

// riskHandlerFixture computes a risk snapshot from seeded scores so the
// recommender reads the same shape of profile production writes.
func seedRiskFromScores(t *testing.T, scores *fakeScoreRepo, risks *fakeRiskRepo) {
	t.Helper()
	h := NewComputeRiskHandler(scores, risks)
	_, err := h.Handle(context.Background(), ComputeRiskCommand{StudentID: "st-1"})
	require.NoError(t, err)
}

func TestRecommendActivities_TargetsWorstDomainsFirst(t *testing.T) {
	scores := newFakeScoreRepo()
	seedScore(t, scores, "st-1", shared.DomainMotor, periodMonday, fz(-3.5))
	seedScore(t, scores, "st-1", shared.DomainCognitive, periodMonday, fz(-2.1))
	seedScore(t, scores, "st-1", shared.DomainSocial, periodMonday, fz(-2.8))
	risks := newFakeRiskRepo()
	seedRiskFromScores(t, scores, risks)

	recs := &fakeRecRepo{}
	h := NewRecommendActivitiesHandler(
		newFakeStudentRepo(testStudent("st-1", 42)),
		risks, scores, newFakeNormRepo(normsFor42()...),
		catalogFor(shared.AllDomains()...), recs,
	)

	result, err := h.Handle(context.Background(), RecommendActivitiesCommand{StudentID: "st-1", Limit: 2})
	require.NoError(t, err)

	// Two slots, three at-risk domains: the worst two win.
	require.Len(t, result.Created, 2)
	assert.Equal(t, shared.DomainMotor, result.Created[0].Domain)
	assert.Equal(t, shared.DomainSocial, result.Created[1].Domain)
}

func TestRecommendActivities_PendingDuplicateSuppressed(t *testing.T) {
	scores := newFakeScoreRepo()
	seedScore(t, scores, "st-1", shared.DomainMotor, periodMonday, fz(-2.5))
	risks := newFakeRiskRepo()
	seedRiskFromScores(t, scores, risks)

	recs := &fakeRecRepo{}
	h := NewRecommendActivitiesHandler(
		newFakeStudentRepo(testStudent("st-1", 42)),
		risks, scores, newFakeNormRepo(normsFor42()...),
		catalogFor(shared.DomainMotor), recs,
	)

	first, err := h.Handle(context.Background(), RecommendActivitiesCommand{StudentID: "st-1"})
	require.NoError(t, err)
	require.Len(t, first.Created, 1)

	// Second run while the recommendation is still pending: nothing new.
	second, err := h.Handle(context.Background(), RecommendActivitiesCommand{StudentID: "st-1"})
	require.NoError(t, err)
	assert.Empty(t, second.Created)
	assert.Equal(t, 1, second.Suppressed)
	assert.Len(t, recs.recs, 1)
}

func TestRecommendActivities_ResolvedRecommendationAllowsRepeat(t *testing.T) {
	scores := newFakeScoreRepo()
	seedScore(t, scores, "st-1", shared.DomainMotor, periodMonday, fz(-2.5))
	risks := newFakeRiskRepo()
	seedRiskFromScores(t, scores, risks)

	recs := &fakeRecRepo{}
	h := NewRecommendActivitiesHandler(
		newFakeStudentRepo(testStudent("st-1", 42)),
		risks, scores, newFakeNormRepo(normsFor42()...),
		catalogFor(shared.DomainMotor), recs,
	)

	first, err := h.Handle(context.Background(), RecommendActivitiesCommand{StudentID: "st-1"})
	require.NoError(t, err)
	require.Len(t, first.Created, 1)

	// The family completed the activity; the same one may come back later.
	recs.recs[0].Status = recommendation.StatusCompleted
	second, err := h.Handle(context.Background(), RecommendActivitiesCommand{StudentID: "st-1"})
	require.NoError(t, err)
	assert.Len(t, second.Created, 1)
}

func TestRecommendActivities_NoRiskProfileMeansNone(t *testing.T) {
	h := NewRecommendActivitiesHandler(
		newFakeStudentRepo(testStudent("st-1", 42)),
		newFakeRiskRepo(), newFakeScoreRepo(), newFakeNormRepo(),
		catalogFor(), &fakeRecRepo{},
	)

	result, err := h.Handle(context.Background(), RecommendActivitiesCommand{StudentID: "st-1"})
	require.NoError(t, err)
	assert.Empty(t, result.Created)
}

func TestRecommendActivities_CatalogGapSurfaced(t *testing.T) {
	scores := newFakeScoreRepo()
	seedScore(t, scores, "st-1", shared.DomainSelfCare, periodMonday, fz(-2.4))
	risks := newFakeRiskRepo()
	seedRiskFromScores(t, scores, risks)

	h := NewRecommendActivitiesHandler(
		newFakeStudentRepo(testStudent("st-1", 42)),
		risks, scores, newFakeNormRepo(normsFor42()...),
		catalogFor(shared.DomainMotor), // no self_care activities
		&fakeRecRepo{},
	)

	result, err := h.Handle(context.Background(), RecommendActivitiesCommand{StudentID: "st-1"})
	require.NoError(t, err)
	assert.Empty(t, result.Created)
	assert.Equal(t, []shared.Domain{shared.DomainSelfCare}, result.UncoveredDomains)
}

func TestRecommendActivities_PriorityFromScoreVsNormMean(t *testing.T) {
	scores := newFakeScoreRepo()
	mean := 35.0
	require.NoError(t, scores.Upsert(context.Background(), scoring.Entry{
		StudentID: "st-1",
		Domain:    shared.DomainMotor,
		Period:    periodMonday,
		ZScore:    fz(-2.5),
		RawMean:   &mean,
	}))
	risks := newFakeRiskRepo()
	seedRiskFromScores(t, scores, risks)

	h := NewRecommendActivitiesHandler(
		newFakeStudentRepo(testStudent("st-1", 42)),
		risks, scores, newFakeNormRepo(normsFor42()...),
		catalogFor(shared.DomainMotor), &fakeRecRepo{},
	)

	result, err := h.Handle(context.Background(), RecommendActivitiesCommand{StudentID: "st-1"})
	require.NoError(t, err)
	require.Len(t, result.Created, 1)

	// Raw mean 35 percent sits more than a point under the norm mean of 50.
	assert.Equal(t, recommendation.PriorityHigh, result.Created[0].Priority)
}
