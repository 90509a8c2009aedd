package command

import (
	"context"
	"fmt"

	"github.com/brightsteps/brightsteps-analytics/internal/domain/assessment"
	"github.com/brightsteps/brightsteps-analytics/internal/domain/norms"
	"github.com/brightsteps/brightsteps-analytics/internal/domain/recommendation"
	"github.com/brightsteps/brightsteps-analytics/internal/domain/risk"
	"github.com/brightsteps/brightsteps-analytics/internal/domain/scoring"
	"github.com/brightsteps/brightsteps-analytics/internal/domain/shared"
	"github.com/brightsteps/brightsteps-analytics/internal/domain/student"
)

// In-memory repository fakes for handler tests.

type fakeStudentRepo struct {
	students map[student.ID]*student.Student
}

func newFakeStudentRepo(students ...*student.Student) *fakeStudentRepo {
	repo := &fakeStudentRepo{students: make(map[student.ID]*student.Student)}
	for _, s := range students {
		repo.students[s.ID] = s
	}
	return repo
}

func (r *fakeStudentRepo) GetByID(_ context.Context, id student.ID) (*student.Student, error) {
	s, ok := r.students[id]
	if !ok {
		return nil, student.ErrStudentNotFound
	}
	return s, nil
}

func (r *fakeStudentRepo) GetActiveStudents(_ context.Context) ([]*student.Student, error) {
	var active []*student.Student
	for _, s := range r.students {
		if s.Status.IsTracked() {
			active = append(active, s)
		}
	}
	return active, nil
}

type fakeObsRepo struct {
	observations []assessment.Observation
	err          error
}

func (r *fakeObsRepo) ListObservations(_ context.Context, studentID student.ID, domain shared.Domain, window assessment.Window) ([]assessment.Observation, error) {
	if r.err != nil {
		return nil, r.err
	}
	var out []assessment.Observation
	for _, o := range r.observations {
		if o.StudentID == studentID && o.Domain == domain && window.Contains(o.ObservedAt) {
			out = append(out, o)
		}
	}
	return out, nil
}

type fakeNormRepo struct {
	entries map[string]norms.Entry
}

func newFakeNormRepo(entries ...norms.Entry) *fakeNormRepo {
	repo := &fakeNormRepo{entries: make(map[string]norms.Entry)}
	for _, e := range entries {
		repo.entries[e.Key()] = e
	}
	return repo
}

func (r *fakeNormRepo) GetEntry(_ context.Context, ageBucketMonths int, domain shared.Domain) (*norms.Entry, error) {
	e, ok := r.entries[fmt.Sprintf("%d:%s", ageBucketMonths, domain)]
	if !ok {
		return nil, norms.ErrEntryNotFound
	}
	return &e, nil
}

func (r *fakeNormRepo) Seed(_ context.Context, entries []norms.Entry) (int, error) {
	inserted := 0
	for _, e := range entries {
		if _, ok := r.entries[e.Key()]; ok {
			continue
		}
		r.entries[e.Key()] = e
		inserted++
	}
	return inserted, nil
}

func (r *fakeNormRepo) Count(_ context.Context) (int, error) {
	return len(r.entries), nil
}

type fakeScoreRepo struct {
	entries map[string]scoring.Entry
}

func newFakeScoreRepo() *fakeScoreRepo {
	return &fakeScoreRepo{entries: make(map[string]scoring.Entry)}
}

func scoreKey(e scoring.Entry) string {
	return fmt.Sprintf("%s:%s:%s", e.StudentID, e.Domain, e.PeriodKey())
}

func (r *fakeScoreRepo) Upsert(_ context.Context, entry scoring.Entry) error {
	r.entries[scoreKey(entry)] = entry
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
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].Period.Before(out[i].Period) {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out, nil
}

type fakeRiskRepo struct {
	profiles map[student.ID]risk.Profile
}

func newFakeRiskRepo() *fakeRiskRepo {
	return &fakeRiskRepo{profiles: make(map[student.ID]risk.Profile)}
}

func (r *fakeRiskRepo) Upsert(_ context.Context, profile risk.Profile) error {
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

type fakeCatalogRepo struct {
	activities []recommendation.Activity
}

func (r *fakeCatalogRepo) FindByDomainAndAge(_ context.Context, domain shared.Domain, ageMonths int) ([]recommendation.Activity, error) {
	var out []recommendation.Activity
	for _, a := range r.activities {
		if a.SuitableFor(domain, ageMonths) {
			out = append(out, a)
		}
	}
	return out, nil
}

type fakeRecRepo struct {
	recs []recommendation.Recommendation
}

func (r *fakeRecRepo) CreateIfAbsent(_ context.Context, rec recommendation.Recommendation) (bool, error) {
	for _, existing := range r.recs {
		if existing.StudentID == rec.StudentID &&
			existing.Domain == rec.Domain &&
			existing.ActivityID == rec.ActivityID &&
			existing.Status == recommendation.StatusPending {
			return false, nil
		}
	}
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
