// Package query contains read operations (CQRS - Queries): trajectory
// projections and the combined recommendation/risk view served to callers.
package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/brightsteps/brightsteps-analytics/internal/domain/scoring"
	"github.com/brightsteps/brightsteps-analytics/internal/domain/shared"
	"github.com/brightsteps/brightsteps-analytics/internal/domain/student"
	"github.com/brightsteps/brightsteps-analytics/internal/domain/trajectory"
	"github.com/brightsteps/brightsteps-analytics/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// PREDICT TRAJECTORY QUERY
// Fits a least-squares line through each domain's Z-score history and
// projects it forward. Read-only: derived on demand, nothing persisted.
// ══════════════════════════════════════════════════════════════════════════════

// periodsPerMonth converts a month horizon to weekly scoring periods.
const periodsPerMonth = 4

// DefaultProjectionMonths is the horizon used when the caller does not name one.
const DefaultProjectionMonths = 3

// PredictTrajectoryQuery identifies the student and horizon.
type PredictTrajectoryQuery struct {
	StudentID student.ID

	// MonthsAhead is the projection horizon. Zero means the default.
	MonthsAhead int
}

// Validate validates the query.
func (q PredictTrajectoryQuery) Validate() error {
	if !q.StudentID.IsValid() {
		return errors.New("predict_trajectory: student_id is required")
	}
	if q.MonthsAhead < 0 {
		return errors.New("predict_trajectory: months_ahead must not be negative")
	}
	return nil
}

// TrajectoryCache is an optional read-through cache for summaries. The
// pipeline works identically without one; a miss or a cache outage falls
// back to computing from the store.
type TrajectoryCache interface {
	GetSummary(ctx context.Context, studentID student.ID, monthsAhead int) (*trajectory.Summary, bool)
	SetSummary(ctx context.Context, summary trajectory.Summary)
}

// PredictTrajectoryHandler handles the PredictTrajectoryQuery.
type PredictTrajectoryHandler struct {
	scoreRepo scoring.Repository
	cache     TrajectoryCache

	now func() time.Time
}

// NewPredictTrajectoryHandler creates a new PredictTrajectoryHandler.
// The cache may be nil.
func NewPredictTrajectoryHandler(scoreRepo scoring.Repository, cache TrajectoryCache) *PredictTrajectoryHandler {
	return &PredictTrajectoryHandler{
		scoreRepo: scoreRepo,
		cache:     cache,
		now:       timeutil.NowUTC,
	}
}

// Handle projects every domain for the student. Domains with fewer than two
// scored periods report insufficient history instead of a fabricated trend.
func (h *PredictTrajectoryHandler) Handle(ctx context.Context, q PredictTrajectoryQuery) (*trajectory.Summary, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	monthsAhead := q.MonthsAhead
	if monthsAhead == 0 {
		monthsAhead = DefaultProjectionMonths
	}

	if h.cache != nil {
		if cached, ok := h.cache.GetSummary(ctx, q.StudentID, monthsAhead); ok {
			return cached, nil
		}
	}

	projections := make([]trajectory.Projection, 0, len(shared.AllDomains()))
	for _, domain := range shared.AllDomains() {
		projection, err := h.projectDomain(ctx, q.StudentID, domain, monthsAhead)
		if err != nil {
			return nil, err
		}
		projections = append(projections, projection)
	}

	summary := trajectory.NewSummary(q.StudentID, monthsAhead, projections, h.now())
	if h.cache != nil {
		h.cache.SetSummary(ctx, summary)
	}
	return &summary, nil
}

func (h *PredictTrajectoryHandler) projectDomain(ctx context.Context, studentID student.ID, domain shared.Domain, monthsAhead int) (trajectory.Projection, error) {
	projection := trajectory.Projection{
		Domain:      domain,
		MonthOffset: monthsAhead,
		Direction:   trajectory.DirectionInsufficient,
		Confidence:  trajectory.ConfidenceLow,
	}

	history, err := h.scoreRepo.History(ctx, studentID, domain)
	if err != nil {
		return projection, fmt.Errorf("predict_trajectory: load history %s/%s: %w", studentID, domain, err)
	}

	// Null-score periods carry no signal for the fit.
	points := make([]trajectory.Point, 0, len(history))
	for _, e := range history {
		if e.ZScore == nil {
			continue
		}
		points = append(points, trajectory.Point{Period: e.Period, ZScore: *e.ZScore})
	}

	trend, err := trajectory.FitTrend(points)
	if err != nil {
		if errors.Is(err, trajectory.ErrInsufficientHistory) {
			return projection, nil
		}
		return projection, err
	}

	projected := trajectory.ClampZ(trend.ProjectAt(monthsAhead * periodsPerMonth))
	projection.ProjectedZ = &projected
	projection.Direction = trend.Direction()
	projection.Confidence = trajectory.ConfidenceFor(trend.Points)
	projection.Slope = trend.Slope
	return projection, nil
}
