package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightsteps/brightsteps-analytics/internal/domain/batch"
	"github.com/brightsteps/brightsteps-analytics/internal/domain/shared"
	"github.com/brightsteps/brightsteps-analytics/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// FAKES
// ══════════════════════════════════════════════════════════════════════════════

type fakeStudentRepo struct {
	students []*student.Student
	err      error
}

var _ student.Repository = (*fakeStudentRepo)(nil)

func (f *fakeStudentRepo) GetByID(_ context.Context, id student.ID) (*student.Student, error) {
	for _, s := range f.students {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, student.ErrStudentNotFound
}

func (f *fakeStudentRepo) GetActiveStudents(_ context.Context) ([]*student.Student, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.students, nil
}

type fakeHistoryRepo struct {
	mu      sync.Mutex
	records []batch.RunRecord
	err     error
}

var _ batch.HistoryRepository = (*fakeHistoryRepo)(nil)

func (f *fakeHistoryRepo) Record(_ context.Context, record batch.RunRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, record)
	return nil
}

func (f *fakeHistoryRepo) Recent(_ context.Context, jobName string, limit int) ([]batch.RunRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	matched := make([]batch.RunRecord, 0, len(f.records))
	for _, record := range f.records {
		if record.JobName == jobName {
			matched = append(matched, record)
		}
	}
	if limit <= 0 || limit > len(matched) {
		limit = len(matched)
	}
	return matched[len(matched)-limit:], nil
}

func population(n int) []*student.Student {
	students := make([]*student.Student, 0, n)
	for i := 0; i < n; i++ {
		students = append(students, &student.Student{
			ID:          student.ID(fmt.Sprintf("st-%02d", i)),
			DateOfBirth: time.Date(2022, time.June, 1, 0, 0, 0, 0, time.UTC),
			Status:      student.StatusActive,
		})
	}
	return students
}

func testRunner(students []*student.Student, history batch.HistoryRepository, concurrency int) *BatchRunner {
	return NewBatchRunner(
		&fakeStudentRepo{students: students},
		history,
		slog.New(slog.NewTextHandler(discard{}, nil)),
		RunnerConfig{Concurrency: concurrency, StudentTimeout: 5 * time.Second},
	)
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

// ══════════════════════════════════════════════════════════════════════════════
// TESTS
// ══════════════════════════════════════════════════════════════════════════════

func TestBatchRunner_OneFailureDoesNotAbortRun(t *testing.T) {
	runner := testRunner(population(10), nil, 3)

	summary, err := runner.Run(context.Background(), "test_job", func(_ context.Context, s *student.Student) error {
		if s.ID == "st-04" {
			return shared.ErrMalformedObservation
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 10, summary.Processed)
	assert.Equal(t, 9, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)
	require.Len(t, summary.Errors, 1)
	assert.Equal(t, student.ID("st-04"), summary.Errors[0].StudentID)
	assert.Contains(t, summary.Errors[0].Message, "malformed observation")
}

func TestBatchRunner_InputDataErrorNotRetried(t *testing.T) {
	runner := testRunner(population(1), nil, 1)

	var calls atomic.Int32
	summary, err := runner.Run(context.Background(), "test_job", func(context.Context, *student.Student) error {
		calls.Add(1)
		return shared.ErrMissingDateOfBirth
	})

	require.NoError(t, err)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, int32(1), calls.Load(), "input data errors must not burn retry attempts")
}

func TestBatchRunner_TransientErrorRetriedThenDowngraded(t *testing.T) {
	runner := testRunner(population(1), nil, 1)

	var calls atomic.Int32
	summary, err := runner.Run(context.Background(), "test_job", func(context.Context, *student.Student) error {
		calls.Add(1)
		return shared.ErrStoreUnavailable
	})

	require.NoError(t, err, "exhausted retries downgrade to a per-student failure")
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, int32(3), calls.Load())
}

func TestBatchRunner_TransientErrorRecoversMidway(t *testing.T) {
	runner := testRunner(population(1), nil, 1)

	var calls atomic.Int32
	summary, err := runner.Run(context.Background(), "test_job", func(context.Context, *student.Student) error {
		if calls.Add(1) < 2 {
			return shared.ErrStoreUnavailable
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, int32(2), calls.Load())
}

func TestBatchRunner_CancelledBeforeDispatch(t *testing.T) {
	history := &fakeHistoryRepo{}
	runner := testRunner(population(10), history, 3)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls atomic.Int32
	summary, err := runner.Run(ctx, "test_job", func(context.Context, *student.Student) error {
		calls.Add(1)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, int32(0), calls.Load(), "no student work should start after cancellation")
	assert.Equal(t, 0, summary.Processed)

	require.Len(t, history.records, 1)
	assert.True(t, history.records[0].Aborted)
	assert.Contains(t, history.records[0].AbortReason, "canceled")
}

func TestBatchRunner_PopulationQueryFailureIsRunLevel(t *testing.T) {
	runner := NewBatchRunner(
		&fakeStudentRepo{err: errors.New("connection refused")},
		nil,
		slog.New(slog.NewTextHandler(discard{}, nil)),
		DefaultRunnerConfig(),
	)

	summary, err := runner.Run(context.Background(), "test_job", func(context.Context, *student.Student) error {
		return nil
	})

	require.Error(t, err)
	assert.Nil(t, summary)
	assert.Contains(t, err.Error(), "failed to load active students")
}

func TestBatchRunner_RecordsRunHistory(t *testing.T) {
	history := &fakeHistoryRepo{}
	runner := testRunner(population(4), history, 2)

	_, err := runner.Run(context.Background(), "zscore_run", func(context.Context, *student.Student) error {
		return nil
	})
	require.NoError(t, err)

	require.Len(t, history.records, 1)
	record := history.records[0]
	assert.Equal(t, "zscore_run", record.JobName)
	assert.Equal(t, 4, record.Summary.Succeeded)
	assert.False(t, record.Aborted)
	require.NotNil(t, record.FinishedAt)
	assert.False(t, record.FinishedAt.Before(record.StartedAt))
}

func TestBatchRunner_HistoryWriteFailureIsSwallowed(t *testing.T) {
	history := &fakeHistoryRepo{err: errors.New("disk full")}
	runner := testRunner(population(2), history, 2)

	summary, err := runner.Run(context.Background(), "test_job", func(context.Context, *student.Student) error {
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, summary.Succeeded)
}

func TestBatchRunner_DeadStoreTripsBreaker(t *testing.T) {
	runner := testRunner(population(6), nil, 1)

	var calls atomic.Int32
	summary, err := runner.Run(context.Background(), "test_job", func(context.Context, *student.Student) error {
		calls.Add(1)
		return shared.ErrStoreUnavailable
	})

	require.NoError(t, err)
	assert.Equal(t, 6, summary.Failed)
	// Three students exhaust their retries before the breaker opens; the
	// rest fail fast without touching the store.
	assert.Equal(t, int32(9), calls.Load())
}

func TestBatchRunner_InputDataErrorsDoNotTripBreaker(t *testing.T) {
	runner := testRunner(population(8), nil, 1)

	var calls atomic.Int32
	summary, err := runner.Run(context.Background(), "test_job", func(context.Context, *student.Student) error {
		calls.Add(1)
		return shared.ErrMissingDateOfBirth
	})

	require.NoError(t, err)
	assert.Equal(t, 8, summary.Failed)
	assert.Equal(t, int32(8), calls.Load(), "every student must still be attempted")
}

func TestBatchRunner_BoundedParallelism(t *testing.T) {
	runner := testRunner(population(12), nil, 3)

	var inFlight, peak atomic.Int32
	summary, err := runner.Run(context.Background(), "test_job", func(context.Context, *student.Student) error {
		current := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			observed := peak.Load()
			if current <= observed || peak.CompareAndSwap(observed, current) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 12, summary.Succeeded)
	assert.LessOrEqual(t, peak.Load(), int32(3))
}
