// Package assessment contains the raw-observation input contract of the
// scoring pipeline. Observations come from three sources owned by the
// excluded assessment subsystem - formal assessments, quick checks, and mood
// logs - on two different scales. The pipeline reconciles every observation
// to one common percentage scale before any averaging.
package assessment

import (
	"errors"
	"fmt"
	"time"

	"github.com/brightsteps/brightsteps-analytics/internal/domain/shared"
	"github.com/brightsteps/brightsteps-analytics/internal/domain/student"
)

// Domain errors for the assessment package.
var (
	ErrUnknownScale    = errors.New("assessment: unknown observation scale")
	ErrValueOutOfScale = errors.New("assessment: observation value outside its scale")
	ErrInvalidWindow   = errors.New("assessment: window end must be after start")
)

// Scale identifies the measurement scale of a raw observation value.
type Scale string

const (
	// ScaleRating5 is a 1-5 rating (formal assessments, mood logs).
	ScaleRating5 Scale = "rating_1_5"
	// ScalePercent is a 0-100 percentage (quick checks).
	ScalePercent Scale = "percent"
)

// IsValid checks that the scale is one of the known values.
func (s Scale) IsValid() bool {
	return s == ScaleRating5 || s == ScalePercent
}

// Source identifies where an observation was recorded.
type Source string

const (
	SourceAssessment Source = "assessment"
	SourceQuickCheck Source = "quick_check"
	SourceMoodLog    Source = "mood_log"
)

// Observation is one measured data point for one student in one domain.
// Owned by the excluded assessment subsystem; the pipeline only reads it.
type Observation struct {
	StudentID  student.ID
	Domain     shared.Domain
	Value      float64
	Scale      Scale
	Source     Source
	ObservedAt time.Time
}

// NormalizeToPercent converts an observation value to the common percentage
// scale. This is the single place scale coercion happens; callers must never
// branch on scale themselves.
//
// A malformed value (unknown scale, or a value outside its scale's bounds) is
// an input data error: it fails the observation's student for the run rather
// than being silently clamped.
func NormalizeToPercent(value float64, scale Scale) (float64, error) {
	switch scale {
	case ScaleRating5:
		if value < 1 || value > 5 {
			return 0, fmt.Errorf("%w: %v on %s", ErrValueOutOfScale, value, scale)
		}
		return value / 5 * 100, nil
	case ScalePercent:
		if value < 0 || value > 100 {
			return 0, fmt.Errorf("%w: %v on %s", ErrValueOutOfScale, value, scale)
		}
		return value, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownScale, scale)
	}
}

// NormalizedValue converts this observation to the percentage scale.
func (o Observation) NormalizedValue() (float64, error) {
	return NormalizeToPercent(o.Value, o.Scale)
}

// Window is a half-open time interval [From, To) used to gather observations
// for one scoring period.
type Window struct {
	From time.Time
	To   time.Time
}

// NewWindow creates a window, validating its bounds.
func NewWindow(from, to time.Time) (Window, error) {
	if !to.After(from) {
		return Window{}, ErrInvalidWindow
	}
	return Window{From: from, To: to}, nil
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.From) && t.Before(w.To)
}

// ReferenceDate is the date used to determine the student's age for the
// window: the window end, since that is when the period's snapshot is taken.
func (w Window) ReferenceDate() time.Time {
	return w.To
}
