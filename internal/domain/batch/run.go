// Package batch contains the batch-run contract: the per-run summary the
// orchestrator produces and the persisted run history used by operators to
// audit nightly processing.
package batch

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/brightsteps/brightsteps-analytics/internal/domain/student"
)

// StudentError records one student's failure inside an otherwise healthy run.
type StudentError struct {
	StudentID student.ID `json:"student_id"`
	Message   string     `json:"message"`
}

// RunSummary is the outcome of one batch pass over the population.
// processed == succeeded + failed always holds; a cancelled run reports the
// students it finished before stopping.
type RunSummary struct {
	Processed int            `json:"processed"`
	Succeeded int            `json:"succeeded"`
	Failed    int            `json:"failed"`
	Errors    []StudentError `json:"errors,omitempty"`

	// Conditions are named data-quality counts observed during the run,
	// such as domains scored without a norm row. Conditions are not
	// failures; they flag coverage gaps to operators.
	Conditions map[string]int `json:"conditions,omitempty"`
}

// SetCondition records a named data-quality count. Zero counts are omitted.
func (s *RunSummary) SetCondition(name string, count int) {
	if count == 0 {
		return
	}
	if s.Conditions == nil {
		s.Conditions = make(map[string]int)
	}
	s.Conditions[name] = count
}

// RecordFailure appends a student failure and bumps counters.
func (s *RunSummary) RecordFailure(studentID student.ID, err error) {
	s.Processed++
	s.Failed++
	s.Errors = append(s.Errors, StudentError{StudentID: studentID, Message: err.Error()})
}

// RecordSuccess bumps counters for one scored student.
func (s *RunSummary) RecordSuccess() {
	s.Processed++
	s.Succeeded++
}

// RunRecord is one row of persisted run history.
type RunRecord struct {
	ID          uuid.UUID
	JobName     string
	StartedAt   time.Time
	FinishedAt  *time.Time
	Summary     RunSummary
	Aborted     bool
	AbortReason string
}

// Duration returns how long the run took, or zero while still running.
func (r RunRecord) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// HistoryRepository persists run records.
type HistoryRepository interface {
	// Record writes a finished run.
	Record(ctx context.Context, record RunRecord) error

	// Recent returns the latest runs for a job, newest first.
	Recent(ctx context.Context, jobName string, limit int) ([]RunRecord, error)
}
