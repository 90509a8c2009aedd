package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/brightsteps/brightsteps-analytics/internal/domain/norms"
	"github.com/brightsteps/brightsteps-analytics/internal/domain/recommendation"
	"github.com/brightsteps/brightsteps-analytics/internal/domain/risk"
	"github.com/brightsteps/brightsteps-analytics/internal/domain/scoring"
	"github.com/brightsteps/brightsteps-analytics/internal/domain/shared"
	"github.com/brightsteps/brightsteps-analytics/internal/domain/student"
	"github.com/brightsteps/brightsteps-analytics/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECOMMEND ACTIVITIES COMMAND
// Generates targeted catalog activities for a student's at-risk domains,
// worst domain first, deduplicated against already-pending recommendations.
// ══════════════════════════════════════════════════════════════════════════════

// DefaultRecommendationLimit caps how many new recommendations one run may
// create for a student. Families act on a handful of suggestions, not a dump
// of the catalog.
const DefaultRecommendationLimit = 3

// RecommendActivitiesCommand identifies the student to generate for.
type RecommendActivitiesCommand struct {
	StudentID student.ID

	// Limit caps new recommendations for this run. Zero means the default.
	Limit int

	// Audience addresses the generated recommendations. Empty means parent.
	Audience recommendation.Audience
}

// Validate validates the command.
func (c RecommendActivitiesCommand) Validate() error {
	if !c.StudentID.IsValid() {
		return errors.New("recommend_activities: student_id is required")
	}
	if c.Limit < 0 {
		return errors.New("recommend_activities: limit must not be negative")
	}
	return nil
}

// RecommendActivitiesResult reports what one generation pass did.
type RecommendActivitiesResult struct {
	StudentID student.ID

	// Created holds the recommendations actually inserted this run.
	Created []recommendation.Recommendation

	// Suppressed counts candidates skipped by the pending-dedupe rule.
	Suppressed int

	// UncoveredDomains lists at-risk domains with no catalog activity for
	// the student's age. A catalog gap worth surfacing to the content team.
	UncoveredDomains []shared.Domain

	GeneratedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// RecommendActivitiesHandler matches at-risk domains to catalog activities.
type RecommendActivitiesHandler struct {
	studentRepo student.Repository
	riskRepo    risk.Repository
	scoreRepo   scoring.Repository
	normRepo    norms.Repository
	catalogRepo recommendation.CatalogRepository
	recRepo     recommendation.Repository

	now func() time.Time
}

// NewRecommendActivitiesHandler creates a new RecommendActivitiesHandler.
func NewRecommendActivitiesHandler(
	studentRepo student.Repository,
	riskRepo risk.Repository,
	scoreRepo scoring.Repository,
	normRepo norms.Repository,
	catalogRepo recommendation.CatalogRepository,
	recRepo recommendation.Repository,
) *RecommendActivitiesHandler {
	return &RecommendActivitiesHandler{
		studentRepo: studentRepo,
		riskRepo:    riskRepo,
		scoreRepo:   scoreRepo,
		normRepo:    normRepo,
		catalogRepo: catalogRepo,
		recRepo:     recRepo,
		now:         timeutil.NowUTC,
	}
}

// Handle generates recommendations for the student's current risk snapshot.
// A student with no at-risk domains, or no risk snapshot yet, gets none.
func (h *RecommendActivitiesHandler) Handle(ctx context.Context, cmd RecommendActivitiesCommand) (*RecommendActivitiesResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	limit := cmd.Limit
	if limit == 0 {
		limit = DefaultRecommendationLimit
	}
	audience := cmd.Audience
	if audience == "" {
		audience = recommendation.AudienceParent
	}

	result := &RecommendActivitiesResult{
		StudentID:   cmd.StudentID,
		GeneratedAt: h.now(),
	}

	profile, err := h.riskRepo.Get(ctx, cmd.StudentID)
	if err != nil {
		if errors.Is(err, risk.ErrProfileNotFound) {
			return result, nil
		}
		return nil, fmt.Errorf("recommend_activities: load risk profile for %s: %w", cmd.StudentID, err)
	}
	if len(profile.AtRiskDomains) == 0 {
		return result, nil
	}

	stud, err := h.studentRepo.GetByID(ctx, cmd.StudentID)
	if err != nil {
		return nil, fmt.Errorf("recommend_activities: load student %s: %w", cmd.StudentID, err)
	}
	ageMonths, err := stud.AgeInMonths(result.GeneratedAt)
	if err != nil {
		return nil, shared.WrapDomainError("recommendation", "RecommendActivities",
			shared.ErrMissingDateOfBirth, "cannot derive age for catalog match", err)
	}

	latest, err := h.scoreRepo.Latest(ctx, cmd.StudentID)
	if err != nil {
		return nil, fmt.Errorf("recommend_activities: load latest scores for %s: %w", cmd.StudentID, err)
	}
	rawMeans := make(map[shared.Domain]*float64, len(latest))
	for _, e := range latest {
		rawMeans[e.Domain] = e.RawMean
	}

	// AtRiskDomains is already ranked worst first, so the limit spends its
	// budget on the domains that need it most.
	for _, domain := range profile.AtRiskDomains {
		if len(result.Created) >= limit {
			break
		}

		activities, err := h.catalogRepo.FindByDomainAndAge(ctx, domain, ageMonths)
		if err != nil {
			return nil, fmt.Errorf("recommend_activities: catalog lookup %s/%d: %w", domain, ageMonths, err)
		}
		if len(activities) == 0 {
			result.UncoveredDomains = append(result.UncoveredDomains, domain)
			continue
		}

		priority, err := h.priorityFor(ctx, domain, ageMonths, rawMeans[domain])
		if err != nil {
			return nil, err
		}
		rationale := recommendation.RationaleFor(domain, string(profile.TierFor(domain)))

		for _, activity := range activities {
			if len(result.Created) >= limit {
				break
			}
			rec := recommendation.New(cmd.StudentID, activity, priority, audience, rationale)
			created, err := h.recRepo.CreateIfAbsent(ctx, rec)
			if err != nil {
				return nil, fmt.Errorf("recommend_activities: persist %s/%s: %w", cmd.StudentID, activity.ID, err)
			}
			if !created {
				result.Suppressed++
				continue
			}
			result.Created = append(result.Created, rec)
		}
	}

	return result, nil
}

// priorityFor grades urgency on the percentage scale against the norm mean.
// Without a raw mean or a norm entry the domain defaults to high: it reached
// the at-risk ranking, and there is no evidence to soften it.
func (h *RecommendActivitiesHandler) priorityFor(ctx context.Context, domain shared.Domain, ageMonths int, rawMean *float64) (recommendation.Priority, error) {
	if rawMean == nil {
		return recommendation.PriorityHigh, nil
	}
	norm, err := norms.LookupNearest(ctx, h.normRepo, ageMonths, domain)
	if err != nil {
		if errors.Is(err, norms.ErrEntryNotFound) {
			return recommendation.PriorityHigh, nil
		}
		return "", fmt.Errorf("recommend_activities: norm lookup %d/%s: %w", ageMonths, domain, err)
	}
	return recommendation.PriorityFor(*rawMean, norm.Mean), nil
}
