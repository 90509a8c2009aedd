// Package scoring contains the Z-profile snapshot: the age-normalized score
// of one student in one domain for one weekly period. The arithmetic lives
// here so the engines and tests share a single definition of what a Z-score is.
package scoring

import (
	"errors"
	"math"
	"time"

	"github.com/brightsteps/brightsteps-analytics/internal/domain/norms"
	"github.com/brightsteps/brightsteps-analytics/internal/domain/shared"
	"github.com/brightsteps/brightsteps-analytics/internal/domain/student"
	"github.com/brightsteps/brightsteps-analytics/pkg/timeutil"
)

// Domain errors for the scoring package.
var (
	ErrNoObservations  = errors.New("scoring: no observations in period")
	ErrProfileNotFound = errors.New("scoring: z-profile not found")
)

// minStdDev guards the Z division. A norm deviation this close to zero is a
// data defect, and dividing by it would manufacture infinite risk.
const minStdDev = 1e-6

// Entry is one Z-profile snapshot for (student, domain, period).
// Recomputation for the same period overwrites rather than duplicates.
type Entry struct {
	StudentID student.ID
	Domain    shared.Domain

	// Period is the week-start date (UTC midnight Monday) the snapshot covers.
	Period time.Time

	// ZScore is nil iff no qualifying observations exist for the period OR no
	// norm entry matches the student's age bucket for the domain. Never zero
	// as a stand-in for "no data".
	ZScore *float64

	// RawMean is the period mean on the common percentage scale. Nil when
	// there were no observations.
	RawMean *float64

	// SampleCount is the number of observations behind RawMean.
	SampleCount int

	ComputedAt time.Time
}

// HasScore reports whether the entry carries a usable Z-score.
func (e Entry) HasScore() bool {
	return e.ZScore != nil
}

// PeriodKey returns the canonical string key for the entry's period.
func (e Entry) PeriodKey() string {
	return timeutil.PeriodKey(e.Period)
}

// ComputeZ normalizes an observed percentage mean against a norm entry.
// Returns nil when the norm's deviation is zero or near-zero - an entry with
// a degenerate deviation yields "insufficient data", never infinity.
func ComputeZ(observedMeanPct float64, norm norms.Entry) *float64 {
	if norm.StdDev < minStdDev {
		return nil
	}
	z := (observedMeanPct - norm.Mean) / norm.StdDev
	if math.IsNaN(z) || math.IsInf(z, 0) {
		return nil
	}
	return &z
}

// MeanPct computes the arithmetic mean of already-normalized percentage values.
func MeanPct(values []float64) (float64, error) {
	if len(values) == 0 {
		return 0, ErrNoObservations
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values)), nil
}

// PeriodFor returns the canonical period (week start) containing t.
func PeriodFor(t time.Time) time.Time {
	return timeutil.StartOfWeek(t)
}
