// Package student contains the enrolled-child entity as seen by the analytics
// core. The wider platform owns the full student record (guardians, classes,
// enrollment paperwork); the pipeline only needs identity, date of birth, and
// enrollment status. This is a pure domain layer with zero external dependencies.
package student

import (
	"errors"
	"time"

	"github.com/brightsteps/brightsteps-analytics/pkg/timeutil"
)

// Domain errors for the student package.
var (
	ErrInvalidStudentID   = errors.New("student: invalid student ID")
	ErrMissingDateOfBirth = errors.New("student: date of birth is not set")
	ErrFutureDateOfBirth  = errors.New("student: date of birth is in the future")
	ErrStudentNotFound    = errors.New("student: not found")
)

// ID represents a unique identifier for a student (UUID in string form).
type ID string

// IsValid checks if the student ID is valid.
func (id ID) IsValid() bool {
	return id != ""
}

// String returns the string representation of the ID.
func (id ID) String() string {
	return string(id)
}

// Status defines a student's enrollment status.
type Status string

const (
	// StatusActive - enrolled and attending; included in batch runs.
	StatusActive Status = "active"
	// StatusInactive - temporarily not attending; excluded from batch runs.
	StatusInactive Status = "inactive"
	// StatusWithdrawn - left the program.
	StatusWithdrawn Status = "withdrawn"
)

// IsValid checks that the status is one of the known values.
func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusWithdrawn:
		return true
	default:
		return false
	}
}

// IsTracked returns true if the student should be scored by batch runs.
func (s Status) IsTracked() bool {
	return s == StatusActive
}

// Student is the analytics core's view of an enrolled child.
type Student struct {
	// ID is the internal unique identifier (UUID in string form).
	ID ID

	// DateOfBirth drives all age-normalized scoring. The zero value means
	// the intake record is incomplete; scoring such a student is an input
	// data error, not a panic.
	DateOfBirth time.Time

	// Status is the enrollment status.
	Status Status

	// EnrolledAt is when the student joined the program.
	EnrolledAt time.Time

	// CreatedAt / UpdatedAt are bookkeeping timestamps.
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks the invariants the pipeline relies on.
func (s *Student) Validate() error {
	if !s.ID.IsValid() {
		return ErrInvalidStudentID
	}
	if s.DateOfBirth.IsZero() {
		return ErrMissingDateOfBirth
	}
	if s.DateOfBirth.After(time.Now().UTC()) {
		return ErrFutureDateOfBirth
	}
	return nil
}

// AgeInMonths returns the student's age in whole months at the reference date.
// Returns an error when the date of birth is missing or in the future relative
// to the reference date.
func (s *Student) AgeInMonths(at time.Time) (int, error) {
	if s.DateOfBirth.IsZero() {
		return 0, ErrMissingDateOfBirth
	}
	if s.DateOfBirth.After(at) {
		return 0, ErrFutureDateOfBirth
	}
	return timeutil.AgeInMonths(s.DateOfBirth, at), nil
}
