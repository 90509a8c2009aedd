package jobs

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/brightsteps/brightsteps-analytics/internal/application/command"
	"github.com/brightsteps/brightsteps-analytics/internal/domain/batch"
	"github.com/brightsteps/brightsteps-analytics/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// RISK RUN JOB
// ══════════════════════════════════════════════════════════════════════════════

// JobNameRiskRun is the registered name of the risk classification job.
const JobNameRiskRun = "risk_run"

// ProfileInvalidator drops a student's cached analytics after recomputation.
type ProfileInvalidator interface {
	InvalidateStudent(ctx context.Context, studentID student.ID)
}

// RiskRunJob rebuilds every active student's risk snapshot from their latest
// Z-scores. Runs after the scoring job so it classifies fresh data.
type RiskRunJob struct {
	runner      *BatchRunner
	handler     *command.ComputeRiskHandler
	invalidator ProfileInvalidator
}

// NewRiskRunJob creates the risk job. invalidator may be nil when the cache
// layer is disabled.
func NewRiskRunJob(runner *BatchRunner, handler *command.ComputeRiskHandler, invalidator ProfileInvalidator) *RiskRunJob {
	return &RiskRunJob{runner: runner, handler: handler, invalidator: invalidator}
}

// Name returns the job name.
func (j *RiskRunJob) Name() string { return JobNameRiskRun }

// Description returns a human-readable description.
func (j *RiskRunJob) Description() string {
	return "Classifies latest Z-scores into risk tiers for all active students"
}

// Run executes the job via the scheduler.
func (j *RiskRunJob) Run(ctx context.Context) error {
	summary, err := j.RunBatch(ctx)
	if err != nil {
		return err
	}
	if summary.Processed > 0 && summary.Succeeded == 0 {
		return fmt.Errorf("risk_run: all %d students failed", summary.Processed)
	}
	return nil
}

// RunBatch executes the full pass and returns the summary.
func (j *RiskRunJob) RunBatch(ctx context.Context) (*batch.RunSummary, error) {
	var unknownDomains atomic.Int64
	summary, err := j.runner.Run(ctx, JobNameRiskRun, func(ctx context.Context, s *student.Student) error {
		result, err := j.handler.Handle(ctx, command.ComputeRiskCommand{StudentID: s.ID})
		if err != nil {
			return err
		}
		unknownDomains.Add(int64(len(result.Profile.UnknownDomains)))
		if j.invalidator != nil {
			j.invalidator.InvalidateStudent(ctx, s.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	summary.SetCondition("unknown_tier_domains", int(unknownDomains.Load()))
	return summary, nil
}
