// Package jobs contains the scheduled batch jobs of the analytics pipeline:
// nightly scoring, risk classification, and recommendation generation. All
// three share one orchestration core that walks the active population with
// bounded parallelism and fail-soft per-student semantics.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/brightsteps/brightsteps-analytics/internal/domain/batch"
	"github.com/brightsteps/brightsteps-analytics/internal/domain/shared"
	"github.com/brightsteps/brightsteps-analytics/internal/domain/student"
	"github.com/brightsteps/brightsteps-analytics/pkg/circuitbreaker"
	"github.com/brightsteps/brightsteps-analytics/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// BATCH RUNNER
// ══════════════════════════════════════════════════════════════════════════════

// StudentFunc processes one student. A returned error fails that student
// only; the run continues with the rest of the population.
type StudentFunc func(ctx context.Context, s *student.Student) error

// RunnerConfig contains orchestration settings shared by all batch jobs.
type RunnerConfig struct {
	// Concurrency is the number of students processed in parallel.
	Concurrency int

	// StudentTimeout bounds the work done for a single student, so one
	// pathological record cannot stall the whole run.
	StudentTimeout time.Duration

	// RunTimeout bounds the entire batch pass. Zero means no limit.
	RunTimeout time.Duration
}

// DefaultRunnerConfig returns sensible defaults.
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		Concurrency:    5,
		StudentTimeout: 30 * time.Second,
		RunTimeout:     15 * time.Minute,
	}
}

// BatchRunner orchestrates a pass over the active student population.
// One runner instance is shared by all jobs; it owns the worker pool shape,
// the per-student retry policy, and run-history persistence.
type BatchRunner struct {
	studentRepo student.Repository
	historyRepo batch.HistoryRepository
	logger      *slog.Logger
	config      RunnerConfig
	retrier     *retry.Retrier
	breaker     *circuitbreaker.CircuitBreaker
}

// NewBatchRunner creates a BatchRunner. historyRepo may be nil, in which
// case runs are not persisted.
func NewBatchRunner(
	studentRepo student.Repository,
	historyRepo batch.HistoryRepository,
	logger *slog.Logger,
	config RunnerConfig,
) *BatchRunner {
	if logger == nil {
		logger = slog.Default()
	}
	if config.Concurrency <= 0 {
		config.Concurrency = 5
	}
	if config.StudentTimeout <= 0 {
		config.StudentTimeout = 30 * time.Second
	}

	// A dead store should trip fast rather than time out for every student
	// in the run. Input data errors are the student's own and never count.
	breaker := circuitbreaker.New("store",
		circuitbreaker.WithFailureThreshold(3),
		circuitbreaker.WithSuccessThreshold(1),
		circuitbreaker.WithTimeout(10*time.Second),
		circuitbreaker.WithIsFailure(func(err error) bool {
			return err != nil && !retry.IsPermanent(err)
		}),
		circuitbreaker.WithOnStateChange(func(name string, from, to circuitbreaker.State) {
			logger.Warn("store circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		}),
	)

	return &BatchRunner{
		studentRepo: studentRepo,
		historyRepo: historyRepo,
		logger:      logger,
		config:      config,
		retrier:     retry.StoreRetrier(),
		breaker:     breaker,
	}
}

// Run processes every active student through fn.
//
// Failure semantics follow the pipeline taxonomy:
//   - per-student errors (bad input data, missing norms escalated by the
//     engine) are recorded in the summary and never abort the run;
//   - transient store errors are retried a bounded number of times, then
//     downgraded to a per-student failure;
//   - context cancellation stops dispatching new students and reports the
//     students already finished.
//
// The returned error is non-nil only for run-level problems: the population
// query failing, or configuration errors surfaced before any student work.
func (r *BatchRunner) Run(ctx context.Context, jobName string, fn StudentFunc) (*batch.RunSummary, error) {
	startedAt := time.Now().UTC()

	if r.config.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.config.RunTimeout)
		defer cancel()
	}

	students, err := r.studentRepo.GetActiveStudents(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to load active students: %w", jobName, err)
	}

	r.logger.Info("batch run started",
		"job", jobName,
		"students", len(students),
		"concurrency", r.config.Concurrency,
	)

	summary := &batch.RunSummary{}
	var (
		wg        sync.WaitGroup
		semaphore = make(chan struct{}, r.config.Concurrency)
		mu        sync.Mutex
	)

dispatch:
	for _, s := range students {
		if ctx.Err() != nil {
			break
		}
		select {
		case <-ctx.Done():
			// Stop dispatching; in-flight students drain below.
			break dispatch
		case semaphore <- struct{}{}:
		}

		wg.Add(1)
		go func(s *student.Student) {
			defer wg.Done()
			defer func() { <-semaphore }()

			err := r.processOne(ctx, s, fn)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				summary.RecordFailure(s.ID, err)
				r.logger.Warn("student failed in batch run",
					"job", jobName,
					"student_id", string(s.ID),
					"error", err,
				)
				return
			}
			summary.RecordSuccess()
		}(s)
	}

	wg.Wait()

	finishedAt := time.Now().UTC()
	aborted := ctx.Err() != nil

	r.logger.Info("batch run finished",
		"job", jobName,
		"processed", summary.Processed,
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
		"aborted", aborted,
		"duration", finishedAt.Sub(startedAt).String(),
	)

	r.recordHistory(jobName, startedAt, finishedAt, *summary, aborted, ctx.Err())

	return summary, nil
}

// processOne runs fn for one student under the per-student timeout and the
// store retry policy. Input data errors are marked permanent so the retrier
// does not waste attempts on them.
func (r *BatchRunner) processOne(ctx context.Context, s *student.Student, fn StudentFunc) error {
	studentCtx, cancel := context.WithTimeout(ctx, r.config.StudentTimeout)
	defer cancel()

	return r.breaker.Execute(studentCtx, func(ctx context.Context) error {
		return r.retrier.Do(ctx, func(ctx context.Context) error {
			err := fn(ctx, s)
			if err == nil {
				return nil
			}
			if isInputDataError(err) {
				return retry.Permanent(err)
			}
			return err
		})
	})
}

// isInputDataError reports whether the error is scoped to the student's own
// data. Retrying cannot fix a missing birth date.
func isInputDataError(err error) bool {
	return errors.Is(err, shared.ErrMissingDateOfBirth) ||
		errors.Is(err, shared.ErrMalformedObservation) ||
		errors.Is(err, student.ErrFutureDateOfBirth) ||
		errors.Is(err, student.ErrStudentNotFound)
}

// recordHistory persists the run record. History is best-effort: a write
// failure is logged, never propagated.
func (r *BatchRunner) recordHistory(jobName string, startedAt, finishedAt time.Time, summary batch.RunSummary, aborted bool, cause error) {
	if r.historyRepo == nil {
		return
	}

	record := batch.RunRecord{
		ID:         uuid.New(),
		JobName:    jobName,
		StartedAt:  startedAt,
		FinishedAt: &finishedAt,
		Summary:    summary,
		Aborted:    aborted,
	}
	if cause != nil {
		record.AbortReason = cause.Error()
	}

	// The run context may already be cancelled; history gets its own.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := r.historyRepo.Record(ctx, record); err != nil {
		r.logger.Error("failed to record batch run history",
			"job", jobName,
			"error", err,
		)
	}
}
