package jobs

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/brightsteps/brightsteps-analytics/internal/application/command"
	"github.com/brightsteps/brightsteps-analytics/internal/domain/batch"
	"github.com/brightsteps/brightsteps-analytics/internal/domain/norms"
	"github.com/brightsteps/brightsteps-analytics/internal/domain/shared"
	"github.com/brightsteps/brightsteps-analytics/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// Z-SCORE RUN JOB
// ══════════════════════════════════════════════════════════════════════════════

// JobNameZScoreRun is the registered name of the scoring job.
const JobNameZScoreRun = "zscore_run"

// ZScoreRunJob scores every active student for the current weekly period.
type ZScoreRunJob struct {
	runner   *BatchRunner
	handler  *command.ComputeZProfileHandler
	normRepo norms.Repository
}

// NewZScoreRunJob creates the scoring job.
func NewZScoreRunJob(runner *BatchRunner, handler *command.ComputeZProfileHandler, normRepo norms.Repository) *ZScoreRunJob {
	return &ZScoreRunJob{runner: runner, handler: handler, normRepo: normRepo}
}

// Name returns the job name.
func (j *ZScoreRunJob) Name() string { return JobNameZScoreRun }

// Description returns a human-readable description.
func (j *ZScoreRunJob) Description() string {
	return "Computes weekly age-normalized Z-scores for all active students"
}

// Run executes the job via the scheduler.
func (j *ZScoreRunJob) Run(ctx context.Context) error {
	summary, err := j.RunBatch(ctx)
	if err != nil {
		return err
	}
	if summary.Processed > 0 && summary.Succeeded == 0 {
		return fmt.Errorf("zscore_run: all %d students failed", summary.Processed)
	}
	return nil
}

// RunBatch executes the full pass and returns the summary. The HTTP trigger
// surface calls this directly so it can return the counts to the caller.
//
// An unseeded norm table is a configuration error: the run aborts before a
// single student is touched rather than writing a population of null scores.
func (j *ZScoreRunJob) RunBatch(ctx context.Context) (*batch.RunSummary, error) {
	count, err := j.normRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("zscore_run: norm table preflight: %w", err)
	}
	if count == 0 {
		return nil, shared.NewDomainError("scoring", "ZScoreRun",
			shared.ErrNormTableUnseeded, "refusing to score against an empty norm table")
	}

	var missingNorms atomic.Int64
	summary, err := j.runner.Run(ctx, JobNameZScoreRun, func(ctx context.Context, s *student.Student) error {
		result, err := j.handler.Handle(ctx, command.ComputeZProfileCommand{StudentID: s.ID})
		if err != nil {
			return err
		}
		missingNorms.Add(int64(len(result.MissingNormDomains)))
		return nil
	})
	if err != nil {
		return nil, err
	}

	summary.SetCondition("missing_norm_domains", int(missingNorms.Load()))
	return summary, nil
}
