package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/brightsteps/brightsteps-analytics/internal/domain/risk"
	"github.com/brightsteps/brightsteps-analytics/internal/domain/student"
	"github.com/brightsteps/brightsteps-analytics/internal/domain/trajectory"
	"github.com/brightsteps/brightsteps-analytics/pkg/circuitbreaker"
	"github.com/brightsteps/brightsteps-analytics/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROFILE CACHE
// ══════════════════════════════════════════════════════════════════════════════

// ProfileCache caches derived analytics (risk snapshots, trajectory
// summaries) in front of PostgreSQL. All operations are best-effort behind a
// circuit breaker: when Redis misbehaves the breaker opens, reads report a
// miss, writes become no-ops, and callers fall through to the store.
type ProfileCache struct {
	cache   *Cache
	breaker *circuitbreaker.CircuitBreaker
	log     *logger.Logger
}

// NewProfileCache creates a ProfileCache.
func NewProfileCache(cache *Cache, log *logger.Logger) *ProfileCache {
	// A miss on an absent key is a normal outcome, not a Redis failure;
	// only real errors may open the breaker.
	isFailure := func(err error) bool {
		return !errors.Is(err, ErrCacheMiss)
	}
	return &ProfileCache{
		cache: cache,
		breaker: circuitbreaker.CacheBreaker(isFailure, func(name string, from, to circuitbreaker.State) {
			log.Warn("cache breaker state change",
				logger.Component(name),
				logger.String("from", from.String()),
				logger.String("to", to.String()))
		}),
		log: log,
	}
}

func riskKey(studentID student.ID) string {
	return PrefixRisk + string(studentID)
}

func trajectoryKey(studentID student.ID, monthsAhead int) string {
	return fmt.Sprintf("%s%s:%d", PrefixTrajectory, studentID, monthsAhead)
}

// GetRiskProfile returns a cached snapshot, or false on miss or outage.
func (p *ProfileCache) GetRiskProfile(ctx context.Context, studentID student.ID) (*risk.Profile, bool) {
	var profile risk.Profile
	err := p.breaker.Execute(ctx, func(ctx context.Context) error {
		return p.cache.Get(ctx, riskKey(studentID), &profile)
	})
	if err != nil {
		return nil, false
	}
	return &profile, true
}

// SetRiskProfile caches a snapshot. Failures are logged and swallowed.
func (p *ProfileCache) SetRiskProfile(ctx context.Context, profile risk.Profile) {
	err := p.breaker.Execute(ctx, func(ctx context.Context) error {
		return p.cache.Set(ctx, riskKey(profile.StudentID), profile, TTLRiskProfile)
	})
	if err != nil {
		p.log.Debug("risk profile cache write skipped",
			logger.StudentID(string(profile.StudentID)),
			logger.Err(err))
	}
}

// GetSummary returns a cached trajectory summary, or false on miss or outage.
func (p *ProfileCache) GetSummary(ctx context.Context, studentID student.ID, monthsAhead int) (*trajectory.Summary, bool) {
	var summary trajectory.Summary
	err := p.breaker.Execute(ctx, func(ctx context.Context) error {
		return p.cache.Get(ctx, trajectoryKey(studentID, monthsAhead), &summary)
	})
	if err != nil {
		return nil, false
	}
	return &summary, true
}

// SetSummary caches a trajectory summary. Failures are logged and swallowed.
func (p *ProfileCache) SetSummary(ctx context.Context, summary trajectory.Summary) {
	err := p.breaker.Execute(ctx, func(ctx context.Context) error {
		return p.cache.Set(ctx, trajectoryKey(summary.StudentID, summary.MonthsAhead), summary, TTLTrajectory)
	})
	if err != nil {
		p.log.Debug("trajectory cache write skipped",
			logger.StudentID(string(summary.StudentID)),
			logger.Err(err))
	}
}

// InvalidateStudent drops every cached analytic for a student. Called after
// a batch run rewrites the student's snapshots.
func (p *ProfileCache) InvalidateStudent(ctx context.Context, studentID student.ID) {
	err := p.breaker.Execute(ctx, func(ctx context.Context) error {
		if err := p.cache.Delete(ctx, riskKey(studentID)); err != nil {
			return err
		}
		return p.cache.DeleteByPattern(ctx, PrefixTrajectory+string(studentID)+":*")
	})
	if err != nil {
		p.log.Debug("cache invalidation skipped",
			logger.StudentID(string(studentID)),
			logger.Err(err))
	}
}
