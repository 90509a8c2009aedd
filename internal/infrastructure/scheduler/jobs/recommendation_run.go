package jobs

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/brightsteps/brightsteps-analytics/internal/application/command"
	"github.com/brightsteps/brightsteps-analytics/internal/domain/batch"
	"github.com/brightsteps/brightsteps-analytics/internal/domain/recommendation"
	"github.com/brightsteps/brightsteps-analytics/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECOMMENDATION RUN JOB
// ══════════════════════════════════════════════════════════════════════════════

// JobNameRecommendationRun is the registered name of the recommendation job.
const JobNameRecommendationRun = "recommendation_run"

// RecommendationRunJob generates activity recommendations for students whose
// latest risk snapshot flags at-risk domains.
type RecommendationRunJob struct {
	runner   *BatchRunner
	handler  *command.RecommendActivitiesHandler
	limit    int
	audience recommendation.Audience
}

// NewRecommendationRunJob creates the recommendation job. A limit of 0 falls
// back to the handler default.
func NewRecommendationRunJob(runner *BatchRunner, handler *command.RecommendActivitiesHandler, limit int) *RecommendationRunJob {
	return &RecommendationRunJob{
		runner:   runner,
		handler:  handler,
		limit:    limit,
		audience: recommendation.AudienceParent,
	}
}

// Name returns the job name.
func (j *RecommendationRunJob) Name() string { return JobNameRecommendationRun }

// Description returns a human-readable description.
func (j *RecommendationRunJob) Description() string {
	return "Generates catalog activity recommendations for at-risk domains"
}

// Run executes the job via the scheduler.
func (j *RecommendationRunJob) Run(ctx context.Context) error {
	summary, err := j.RunBatch(ctx)
	if err != nil {
		return err
	}
	if summary.Processed > 0 && summary.Succeeded == 0 {
		return fmt.Errorf("recommendation_run: all %d students failed", summary.Processed)
	}
	return nil
}

// RunBatch executes the full pass and returns the summary.
func (j *RecommendationRunJob) RunBatch(ctx context.Context) (*batch.RunSummary, error) {
	var suppressed, uncovered atomic.Int64
	summary, err := j.runner.Run(ctx, JobNameRecommendationRun, func(ctx context.Context, s *student.Student) error {
		result, err := j.handler.Handle(ctx, command.RecommendActivitiesCommand{
			StudentID: s.ID,
			Limit:     j.limit,
			Audience:  j.audience,
		})
		if err != nil {
			return err
		}
		suppressed.Add(int64(result.Suppressed))
		uncovered.Add(int64(len(result.UncoveredDomains)))
		return nil
	})
	if err != nil {
		return nil, err
	}

	summary.SetCondition("suppressed_duplicates", int(suppressed.Load()))
	summary.SetCondition("uncovered_domains", int(uncovered.Load()))
	return summary, nil
}
