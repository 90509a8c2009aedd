package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/brightsteps/brightsteps-analytics/internal/domain/risk"
	"github.com/brightsteps/brightsteps-analytics/internal/domain/scoring"
	"github.com/brightsteps/brightsteps-analytics/internal/domain/shared"
	"github.com/brightsteps/brightsteps-analytics/internal/domain/student"
	"github.com/brightsteps/brightsteps-analytics/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// COMPUTE RISK COMMAND
// Classifies a student's latest Z-score per domain into risk tiers and
// overwrites the student's risk snapshot.
// ══════════════════════════════════════════════════════════════════════════════

// ComputeRiskCommand identifies the student to classify.
type ComputeRiskCommand struct {
	StudentID student.ID
}

// Validate validates the command.
func (c ComputeRiskCommand) Validate() error {
	if !c.StudentID.IsValid() {
		return errors.New("compute_risk: student_id is required")
	}
	return nil
}

// ComputeRiskResult carries the freshly written snapshot.
type ComputeRiskResult struct {
	Profile risk.Profile
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// ComputeRiskHandler classifies latest Z-scores into the tier snapshot.
type ComputeRiskHandler struct {
	scoreRepo scoring.Repository
	riskRepo  risk.Repository

	now func() time.Time
}

// NewComputeRiskHandler creates a new ComputeRiskHandler.
func NewComputeRiskHandler(scoreRepo scoring.Repository, riskRepo risk.Repository) *ComputeRiskHandler {
	return &ComputeRiskHandler{
		scoreRepo: scoreRepo,
		riskRepo:  riskRepo,
		now:       timeutil.NowUTC,
	}
}

// Handle classifies the student's latest score per domain. Domains with no
// history or a null score classify as unknown; they never pull the overall
// tier toward normal.
func (h *ComputeRiskHandler) Handle(ctx context.Context, cmd ComputeRiskCommand) (*ComputeRiskResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	latest, err := h.scoreRepo.Latest(ctx, cmd.StudentID)
	if err != nil {
		return nil, fmt.Errorf("compute_risk: load latest scores for %s: %w", cmd.StudentID, err)
	}

	byDomain := make(map[shared.Domain]scoring.Entry, len(latest))
	for _, e := range latest {
		byDomain[e.Domain] = e
	}

	assessments := make([]risk.DomainAssessment, 0, len(shared.AllDomains()))
	for _, domain := range shared.AllDomains() {
		var z *float64
		if e, ok := byDomain[domain]; ok {
			z = e.ZScore
		}
		assessments = append(assessments, risk.DomainAssessment{
			Domain: domain,
			Tier:   risk.ClassifyZ(z),
			ZScore: z,
		})
	}

	profile := risk.BuildProfile(cmd.StudentID, assessments, h.now())
	if err := h.riskRepo.Upsert(ctx, profile); err != nil {
		return nil, fmt.Errorf("compute_risk: persist profile for %s: %w", cmd.StudentID, err)
	}

	return &ComputeRiskResult{Profile: profile}, nil
}
