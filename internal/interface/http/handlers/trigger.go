package handlers

import (
	"context"
	"sort"
	"sync"

	"github.com/brightsteps/brightsteps-analytics/internal/domain/batch"
)

// ══════════════════════════════════════════════════════════════════════════════
// BATCH TRIGGER REGISTRY
// ══════════════════════════════════════════════════════════════════════════════

// BatchJob is a triggerable batch pass. The scheduler jobs satisfy this with
// their RunBatch methods, so the HTTP surface returns the same summary a
// scheduled run would produce.
type BatchJob interface {
	Name() string
	Description() string
	RunBatch(ctx context.Context) (*batch.RunSummary, error)
}

// TriggerRegistry maps job names to triggerable jobs and serializes runs:
// a job already in flight refuses a second trigger instead of doubling the
// load on the store.
type TriggerRegistry struct {
	mu       sync.Mutex
	jobs     map[string]BatchJob
	inFlight map[string]bool
}

// NewTriggerRegistry creates an empty registry.
func NewTriggerRegistry() *TriggerRegistry {
	return &TriggerRegistry{
		jobs:     make(map[string]BatchJob),
		inFlight: make(map[string]bool),
	}
}

// Register adds a job to the registry.
func (t *TriggerRegistry) Register(job BatchJob) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.jobs[job.Name()] = job
}

// Get returns a registered job by name.
func (t *TriggerRegistry) Get(name string) (BatchJob, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	job, ok := t.jobs[name]
	return job, ok
}

// Names returns registered job names in sorted order.
func (t *TriggerRegistry) Names() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	names := make([]string, 0, len(t.jobs))
	for name := range t.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Trigger runs a registered job, returning its summary. The second return
// reports whether the job was found, the third whether it was already
// running.
func (t *TriggerRegistry) Trigger(ctx context.Context, name string) (*batch.RunSummary, bool, bool, error) {
	t.mu.Lock()
	job, ok := t.jobs[name]
	if !ok {
		t.mu.Unlock()
		return nil, false, false, nil
	}
	if t.inFlight[name] {
		t.mu.Unlock()
		return nil, true, true, nil
	}
	t.inFlight[name] = true
	t.mu.Unlock()

	defer func() {
		t.mu.Lock()
		delete(t.inFlight, name)
		t.mu.Unlock()
	}()

	summary, err := job.RunBatch(ctx)
	return summary, true, false, err
}
