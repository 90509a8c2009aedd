// Package trajectory fits linear trends over a student's Z-score history and
// projects them forward. Projections are advisory: they extrapolate the
// fitted line and are flagged with a confidence level derived from how much
// history backs them.
package trajectory

import (
	"errors"
	"math"
	"time"

	"github.com/brightsteps/brightsteps-analytics/internal/domain/shared"
	"github.com/brightsteps/brightsteps-analytics/internal/domain/student"
)

var (
	ErrInsufficientHistory = errors.New("trajectory: need at least two scored periods")
)

// Direction classifies the fitted slope.
type Direction string

const (
	DirectionImproving Direction = "improving"
	DirectionDeclining Direction = "declining"
	DirectionStable    Direction = "stable"
	// DirectionInsufficient marks a domain with fewer than two scored
	// periods. No slope, no projection.
	DirectionInsufficient Direction = "insufficient_history"
)

// Confidence grades how much history backs a projection.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// slopeEpsilon bounds the band treated as flat. Weekly Z movement inside
// +-0.05 per period is noise, not a trend.
const slopeEpsilon = 0.05

// minPoints is the fewest scored periods a line can be fitted through.
const minPoints = 2

// Point is one scored period in a domain's history.
type Point struct {
	Period time.Time
	ZScore float64
}

// Trend is the least-squares line fitted through a domain's history.
type Trend struct {
	Slope     float64
	Intercept float64
	Points    int
}

// FitTrend fits an ordinary least-squares line through the history.
// The x axis is the period index (0, 1, 2, ...), so the slope reads as
// Z change per period. Returns ErrInsufficientHistory below two points.
func FitTrend(points []Point) (Trend, error) {
	n := len(points)
	if n < minPoints {
		return Trend{}, ErrInsufficientHistory
	}

	var sumX, sumY, sumXY, sumXX float64
	for i, p := range points {
		x := float64(i)
		sumX += x
		sumY += p.ZScore
		sumXY += x * p.ZScore
		sumXX += x * x
	}

	fn := float64(n)
	denom := fn*sumXX - sumX*sumX
	if denom == 0 {
		return Trend{}, ErrInsufficientHistory
	}

	slope := (fn*sumXY - sumX*sumY) / denom
	intercept := (sumY - slope*sumX) / fn

	return Trend{Slope: slope, Intercept: intercept, Points: n}, nil
}

// Direction classifies the slope against the noise band.
func (t Trend) Direction() Direction {
	switch {
	case t.Slope > slopeEpsilon:
		return DirectionImproving
	case t.Slope < -slopeEpsilon:
		return DirectionDeclining
	default:
		return DirectionStable
	}
}

// ProjectAt extrapolates the fitted line forward by the given number of
// periods past the last observed point.
func (t Trend) ProjectAt(periodsAhead int) float64 {
	x := float64(t.Points-1) + float64(periodsAhead)
	return t.Intercept + t.Slope*x
}

// ConfidenceFor grades a projection by the depth of history behind it.
func ConfidenceFor(points int) Confidence {
	switch {
	case points >= 8:
		return ConfidenceHigh
	case points >= 4:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// Projection is a forward-looking estimate for one domain.
type Projection struct {
	Domain      shared.Domain `json:"domain"`
	MonthOffset int           `json:"month_offset"`

	// ProjectedZ is nil when the direction is insufficient_history.
	ProjectedZ *float64 `json:"projected_z"`

	Direction  Direction  `json:"direction"`
	Confidence Confidence `json:"confidence"`
	Slope      float64    `json:"slope"`
}

// Summary aggregates a student's projections across domains.
type Summary struct {
	StudentID   student.ID   `json:"student_id"`
	MonthsAhead int          `json:"months_ahead"`
	Projections []Projection `json:"projections"`

	Improving    int `json:"improving"`
	Declining    int `json:"declining"`
	Stable       int `json:"stable"`
	Insufficient int `json:"insufficient"`

	ComputedAt time.Time `json:"computed_at"`
}

// NewSummary tallies direction counts over the projections.
func NewSummary(studentID student.ID, monthsAhead int, projections []Projection, at time.Time) Summary {
	s := Summary{
		StudentID:   studentID,
		MonthsAhead: monthsAhead,
		Projections: projections,
		ComputedAt:  at,
	}
	for _, p := range projections {
		switch p.Direction {
		case DirectionImproving:
			s.Improving++
		case DirectionDeclining:
			s.Declining++
		case DirectionStable:
			s.Stable++
		default:
			s.Insufficient++
		}
	}
	return s
}

// ClampZ keeps extrapolated values inside a plausible band. A linear fit on
// a short history can shoot far past what a Z-score means.
func ClampZ(z float64) float64 {
	return math.Max(-5, math.Min(5, z))
}
