package handlers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightsteps/brightsteps-analytics/internal/domain/batch"
)

type fakeJob struct {
	name    string
	summary *batch.RunSummary
	err     error
	started chan struct{}
	release chan struct{}
}

func (f *fakeJob) Name() string        { return f.name }
func (f *fakeJob) Description() string { return "fake job" }

func (f *fakeJob) RunBatch(ctx context.Context) (*batch.RunSummary, error) {
	if f.started != nil {
		close(f.started)
	}
	if f.release != nil {
		<-f.release
	}
	return f.summary, f.err
}

func TestTriggerRegistry_UnknownJob(t *testing.T) {
	reg := NewTriggerRegistry()

	summary, found, busy, err := reg.Trigger(context.Background(), "no_such_job")

	require.NoError(t, err)
	assert.False(t, found)
	assert.False(t, busy)
	assert.Nil(t, summary)
}

func TestTriggerRegistry_ReturnsRunSummary(t *testing.T) {
	reg := NewTriggerRegistry()
	reg.Register(&fakeJob{
		name:    "zscore_run",
		summary: &batch.RunSummary{Processed: 12, Succeeded: 11, Failed: 1},
	})

	summary, found, busy, err := reg.Trigger(context.Background(), "zscore_run")

	require.NoError(t, err)
	assert.True(t, found)
	assert.False(t, busy)
	require.NotNil(t, summary)
	assert.Equal(t, 12, summary.Processed)
	assert.Equal(t, 1, summary.Failed)
}

func TestTriggerRegistry_PropagatesRunError(t *testing.T) {
	reg := NewTriggerRegistry()
	reg.Register(&fakeJob{name: "risk_run", err: errors.New("norm table is empty")})

	_, found, _, err := reg.Trigger(context.Background(), "risk_run")

	assert.True(t, found)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "norm table is empty")
}

func TestTriggerRegistry_RefusesConcurrentRun(t *testing.T) {
	job := &fakeJob{
		name:    "zscore_run",
		summary: &batch.RunSummary{},
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	reg := NewTriggerRegistry()
	reg.Register(job)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _, _, _ = reg.Trigger(context.Background(), "zscore_run")
	}()

	<-job.started
	_, found, busy, err := reg.Trigger(context.Background(), "zscore_run")
	close(job.release)
	<-done

	require.NoError(t, err)
	assert.True(t, found)
	assert.True(t, busy)
}

func TestTriggerRegistry_Names(t *testing.T) {
	reg := NewTriggerRegistry()
	reg.Register(&fakeJob{name: "zscore_run"})
	reg.Register(&fakeJob{name: "recommendation_run"})
	reg.Register(&fakeJob{name: "risk_run"})

	assert.Equal(t, []string{"recommendation_run", "risk_run", "zscore_run"}, reg.Names())
}
