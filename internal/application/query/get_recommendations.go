package query

import (
	"context"
	"errors"
	"fmt"

	"github.com/brightsteps/brightsteps-analytics/internal/domain/recommendation"
	"github.com/brightsteps/brightsteps-analytics/internal/domain/risk"
	"github.com/brightsteps/brightsteps-analytics/internal/domain/shared"
	"github.com/brightsteps/brightsteps-analytics/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET RECOMMENDATIONS QUERY
// Returns a student's pending recommendations together with the risk context
// that produced them, so the caller can render "why" alongside "what".
// ══════════════════════════════════════════════════════════════════════════════

// GetRecommendationsQuery identifies the student.
type GetRecommendationsQuery struct {
	StudentID student.ID
}

// Validate validates the query.
func (q GetRecommendationsQuery) Validate() error {
	if !q.StudentID.IsValid() {
		return errors.New("get_recommendations: student_id is required")
	}
	return nil
}

// GetRecommendationsResult is the combined view.
type GetRecommendationsResult struct {
	StudentID student.ID `json:"student_id"`

	// Recommendations are the pending ones, newest first.
	Recommendations []recommendation.Recommendation `json:"recommendations"`

	// RiskDomains is the ranked at-risk list from the current snapshot.
	RiskDomains []shared.Domain `json:"risk_domains"`

	// OverallRisk is the current overall tier. Unknown when no snapshot
	// has been computed yet.
	OverallRisk risk.Tier `json:"overall_risk"`
}

// RiskCache is an optional read-through cache for risk snapshots. A miss or
// a cache outage falls back to the store; the nightly run invalidates entries
// after recomputing.
type RiskCache interface {
	GetRiskProfile(ctx context.Context, studentID student.ID) (*risk.Profile, bool)
	SetRiskProfile(ctx context.Context, profile risk.Profile)
}

// GetRecommendationsHandler handles the GetRecommendationsQuery.
type GetRecommendationsHandler struct {
	recRepo  recommendation.Repository
	riskRepo risk.Repository
	cache    RiskCache
}

// NewGetRecommendationsHandler creates a new GetRecommendationsHandler.
// The cache may be nil.
func NewGetRecommendationsHandler(recRepo recommendation.Repository, riskRepo risk.Repository, cache RiskCache) *GetRecommendationsHandler {
	return &GetRecommendationsHandler{recRepo: recRepo, riskRepo: riskRepo, cache: cache}
}

// Handle assembles the combined view. A student with no risk snapshot yet is
// not an error: the view reports unknown overall risk and whatever pending
// recommendations exist.
func (h *GetRecommendationsHandler) Handle(ctx context.Context, q GetRecommendationsQuery) (*GetRecommendationsResult, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	result := &GetRecommendationsResult{
		StudentID:   q.StudentID,
		OverallRisk: risk.TierUnknown,
	}

	recs, err := h.recRepo.ListPending(ctx, q.StudentID)
	if err != nil {
		return nil, fmt.Errorf("get_recommendations: list pending for %s: %w", q.StudentID, err)
	}
	result.Recommendations = recs

	profile, err := h.riskProfile(ctx, q.StudentID)
	if err != nil {
		if errors.Is(err, risk.ErrProfileNotFound) {
			return result, nil
		}
		return nil, fmt.Errorf("get_recommendations: load risk profile for %s: %w", q.StudentID, err)
	}
	result.RiskDomains = profile.AtRiskDomains
	result.OverallRisk = profile.OverallTier

	return result, nil
}

func (h *GetRecommendationsHandler) riskProfile(ctx context.Context, studentID student.ID) (*risk.Profile, error) {
	if h.cache != nil {
		if cached, ok := h.cache.GetRiskProfile(ctx, studentID); ok {
			return cached, nil
		}
	}

	profile, err := h.riskRepo.Get(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if h.cache != nil {
		h.cache.SetRiskProfile(ctx, profile)
	}
	return &profile, nil
}
