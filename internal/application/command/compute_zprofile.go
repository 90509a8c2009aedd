// Package command contains write operations (CQRS - Commands): the scoring,
// risk, and recommendation engines that derive and persist analytics.
package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/brightsteps/brightsteps-analytics/internal/domain/assessment"
	"github.com/brightsteps/brightsteps-analytics/internal/domain/norms"
	"github.com/brightsteps/brightsteps-analytics/internal/domain/scoring"
	"github.com/brightsteps/brightsteps-analytics/internal/domain/shared"
	"github.com/brightsteps/brightsteps-analytics/internal/domain/student"
	"github.com/brightsteps/brightsteps-analytics/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// COMPUTE Z-PROFILE COMMAND
// Scores one student for one weekly period: gathers raw observations per
// domain, normalizes them to the percentage scale, and writes one Z-profile
// entry per domain - with an explicit null score where data or norms are
// missing.
// ══════════════════════════════════════════════════════════════════════════════

// ComputeZProfileCommand identifies the student and period to score.
type ComputeZProfileCommand struct {
	// StudentID is the internal ID of the student.
	StudentID student.ID

	// PeriodStart is any time inside the target week; it is snapped to the
	// canonical week start. Zero means the current week.
	PeriodStart time.Time
}

// Validate validates the command.
func (c ComputeZProfileCommand) Validate() error {
	if !c.StudentID.IsValid() {
		return errors.New("compute_zprofile: student_id is required")
	}
	return nil
}

// ComputeZProfileResult reports one scoring pass over all domains.
type ComputeZProfileResult struct {
	StudentID student.ID

	// Period is the canonical week start that was scored.
	Period time.Time

	// AgeMonths is the student's age at the period reference date.
	AgeMonths int

	// Entries holds one snapshot per tracked domain, in canonical order.
	Entries []scoring.Entry

	// ScoredDomains counts entries with a usable Z-score.
	ScoredDomains int

	// MissingNormDomains lists domains where observations existed but no
	// norm entry matched the age bucket. A data-quality condition, not a
	// student failure.
	MissingNormDomains []shared.Domain

	ComputedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// ComputeZProfileHandler scores students against the norm table.
type ComputeZProfileHandler struct {
	studentRepo student.Repository
	obsRepo     assessment.Repository
	normRepo    norms.Repository
	scoreRepo   scoring.Repository

	now func() time.Time
}

// NewComputeZProfileHandler creates a new ComputeZProfileHandler.
func NewComputeZProfileHandler(
	studentRepo student.Repository,
	obsRepo assessment.Repository,
	normRepo norms.Repository,
	scoreRepo scoring.Repository,
) *ComputeZProfileHandler {
	return &ComputeZProfileHandler{
		studentRepo: studentRepo,
		obsRepo:     obsRepo,
		normRepo:    normRepo,
		scoreRepo:   scoreRepo,
		now:         timeutil.NowUTC,
	}
}

// Handle executes one scoring pass.
//
// Error semantics follow the pipeline taxonomy: a missing date of birth or a
// malformed observation fails this student (input data error); a missing norm
// entry only nulls the affected domain; store errors propagate for the caller
// to retry.
func (h *ComputeZProfileHandler) Handle(ctx context.Context, cmd ComputeZProfileCommand) (*ComputeZProfileResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	at := cmd.PeriodStart
	if at.IsZero() {
		at = h.now()
	}
	period := scoring.PeriodFor(at)
	window, err := assessment.NewWindow(period, period.AddDate(0, 0, 7))
	if err != nil {
		return nil, fmt.Errorf("compute_zprofile: bad period window: %w", err)
	}

	stud, err := h.studentRepo.GetByID(ctx, cmd.StudentID)
	if err != nil {
		return nil, fmt.Errorf("compute_zprofile: load student %s: %w", cmd.StudentID, err)
	}

	ageMonths, err := stud.AgeInMonths(window.ReferenceDate())
	if err != nil {
		return nil, shared.WrapDomainError("scoring", "ComputeZProfile",
			shared.ErrMissingDateOfBirth, "cannot derive age for norm lookup", err)
	}

	computedAt := h.now()
	result := &ComputeZProfileResult{
		StudentID:  cmd.StudentID,
		Period:     period,
		AgeMonths:  ageMonths,
		ComputedAt: computedAt,
	}

	for _, domain := range shared.AllDomains() {
		entry, missingNorm, err := h.scoreDomain(ctx, stud, domain, window, period, ageMonths, computedAt)
		if err != nil {
			return nil, err
		}
		if missingNorm {
			result.MissingNormDomains = append(result.MissingNormDomains, domain)
		}
		if entry.HasScore() {
			result.ScoredDomains++
		}

		if err := h.scoreRepo.Upsert(ctx, entry); err != nil {
			return nil, fmt.Errorf("compute_zprofile: persist %s/%s: %w", cmd.StudentID, domain, err)
		}
		result.Entries = append(result.Entries, entry)
	}

	return result, nil
}

// scoreDomain builds the snapshot for a single domain. Domains with no
// observations or no matching norm produce a null-score entry, never an error;
// a malformed observation is an error that fails the whole student.
func (h *ComputeZProfileHandler) scoreDomain(
	ctx context.Context,
	stud *student.Student,
	domain shared.Domain,
	window assessment.Window,
	period time.Time,
	ageMonths int,
	computedAt time.Time,
) (scoring.Entry, bool, error) {
	entry := scoring.Entry{
		StudentID:  stud.ID,
		Domain:     domain,
		Period:     period,
		ComputedAt: computedAt,
	}

	observations, err := h.obsRepo.ListObservations(ctx, stud.ID, domain, window)
	if err != nil {
		return entry, false, fmt.Errorf("compute_zprofile: list observations %s/%s: %w", stud.ID, domain, err)
	}
	if len(observations) == 0 {
		return entry, false, nil
	}

	values := make([]float64, 0, len(observations))
	for _, obs := range observations {
		pct, err := obs.NormalizedValue()
		if err != nil {
			return entry, false, shared.WrapDomainError("scoring", "ComputeZProfile",
				shared.ErrMalformedObservation,
				fmt.Sprintf("observation for %s in %s", stud.ID, domain), err)
		}
		values = append(values, pct)
	}

	mean, err := scoring.MeanPct(values)
	if err != nil {
		return entry, false, err
	}
	entry.RawMean = &mean
	entry.SampleCount = len(values)

	norm, err := norms.LookupNearest(ctx, h.normRepo, ageMonths, domain)
	if err != nil {
		if errors.Is(err, norms.ErrEntryNotFound) {
			// Observations without a norm: record the raw mean, leave the
			// score null, and surface the gap as a data-quality condition.
			return entry, true, nil
		}
		return entry, false, fmt.Errorf("compute_zprofile: norm lookup %d/%s: %w", ageMonths, domain, err)
	}

	entry.ZScore = scoring.ComputeZ(mean, *norm)
	return entry, false, nil
}
