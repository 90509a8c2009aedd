package query

import (
	"context"
	"fmt"
	"sort"

	"github.com/brightsteps/brightsteps-analytics/internal/domain/recommendation"
	"github.com/brightsteps/brightsteps-analytics/internal/domain/risk"
	"github.com/brightsteps/brightsteps-analytics/internal/domain/scoring"
	"github.com/brightsteps/brightsteps-analytics/internal/domain/shared"
	"github.com/brightsteps/brightsteps-analytics/internal/domain/student"
)

type fakeScoreRepo struct {
	entries []scoring.Entry
}

func (r *fakeScoreRepo) Upsert(_ context.Context, entry scoring.Entry) error {
	key := fmt.Sprintf("%s:%s:%s", entry.StudentID, entry.Domain, entry.PeriodKey())
	for i, e := range r.entries {
		if fmt.Sprintf("%s:%s:%s", e.StudentID, e.Domain, e.PeriodKey()) == key {
			r.entries[i] = entry
			return nil
		}
	}
	r.entries = append(r.entries, entry)
	return nil
}

func (r *fakeScoreRepo) Latest(_ context.Context, studentID student.ID) ([]scoring.Entry, error) {
	latest := make(map[shared.Domain]scoring.Entry)
	for _, e := range r.entries {
		if e.StudentID != studentID {
			continue
		}
		if cur, ok := latest[e.Domain]; !ok || e.Period.After(cur.Period) {
			latest[e.Domain] = e
		}
	}
	var out []scoring.Entry
	for _, domain := range shared.AllDomains() {
		if e, ok := latest[domain]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeScoreRepo) History(_ context.Context, studentID student.ID, domain shared.Domain) ([]scoring.Entry, error) {
	var out []scoring.Entry
	for _, e := range r.entries {
		if e.StudentID == studentID && e.Domain == domain {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period.Before(out[j].Period) })
	return out, nil
}

type fakeRiskRepo struct {
	profiles map[student.ID]risk.Profile
}

func (r *fakeRiskRepo) Upsert(_ context.Context, profile risk.Profile) error {
	if r.profiles == nil {
		r.profiles = make(map[student.ID]risk.Profile)
	}
	r.profiles[profile.StudentID] = profile
	return nil
}

func (r *fakeRiskRepo) Get(_ context.Context, studentID student.ID) (risk.Profile, error) {
	p, ok := r.profiles[studentID]
	if !ok {
		return risk.Profile{}, risk.ErrProfileNotFound
	}
	return p, nil
}

type fakeRecRepo struct {
	recs []recommendation.Recommendation
}

func (r *fakeRecRepo) CreateIfAbsent(_ context.Context, rec recommendation.Recommendation) (bool, error) {
	r.recs = append(r.recs, rec)
	return true, nil
}

func (r *fakeRecRepo) ListPending(_ context.Context, studentID student.ID) ([]recommendation.Recommendation, error) {
	var out []recommendation.Recommendation
	for _, rec := range r.recs {
		if rec.StudentID == studentID && rec.Status == recommendation.StatusPending {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *fakeRecRepo) ListPendingByDomain(ctx context.Context, studentID student.ID, domain shared.Domain) ([]recommendation.Recommendation, error) {
	all, err := r.ListPending(ctx, studentID)
	if err != nil {
		return nil, err
	}
	var out []recommendation.Recommendation
	for _, rec := range all {
		if rec.Domain == domain {
			out = append(out, rec)
		}
	}
	return out, nil
}
