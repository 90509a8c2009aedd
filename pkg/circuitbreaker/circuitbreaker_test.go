package circuitbreaker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func failN(cb *CircuitBreaker, n int, err error) {
	for i := 0; i < n; i++ {
		_ = cb.Execute(context.Background(), func(context.Context) error {
			return err
		})
	}
}

func TestCircuitBreaker_OpensAfterFailureThreshold(t *testing.T) {
	cb := New("test", WithFailureThreshold(3))

	failN(cb, 2, errBoom)
	assert.Equal(t, StateClosed, cb.State())

	failN(cb, 1, errBoom)
	assert.Equal(t, StateOpen, cb.State())

	err := cb.Execute(context.Background(), func(context.Context) error {
		return nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestCircuitBreaker_IsFailureFiltersErrors(t *testing.T) {
	benign := errors.New("not found")
	cb := New("test",
		WithFailureThreshold(3),
		WithIsFailure(func(err error) bool {
			return err != nil && !errors.Is(err, benign)
		}),
	)

	failN(cb, 10, benign)
	assert.Equal(t, StateClosed, cb.State())

	// The benign error still reaches the caller unchanged.
	err := cb.Execute(context.Background(), func(context.Context) error {
		return benign
	})
	assert.ErrorIs(t, err, benign)
}

func TestCacheBreaker_MissesDoNotOpen(t *testing.T) {
	miss := errors.New("cache: key not found")
	cb := CacheBreaker(func(err error) bool {
		return !errors.Is(err, miss)
	}, nil)

	// A cold cache returns a miss for every key in the run. The breaker
	// must stay closed so writes can repopulate it.
	failN(cb, 10, miss)
	assert.Equal(t, StateClosed, cb.State())

	err := cb.Execute(context.Background(), func(context.Context) error {
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, StateClosed, cb.State())
}

func TestCacheBreaker_RealErrorsStillOpen(t *testing.T) {
	miss := errors.New("cache: key not found")
	cb := CacheBreaker(func(err error) bool {
		return !errors.Is(err, miss)
	}, nil)

	failN(cb, 5, errBoom)
	assert.Equal(t, StateOpen, cb.State())
}

func TestCircuitBreaker_Reset(t *testing.T) {
	cb := New("test", WithFailureThreshold(1))
	failN(cb, 1, errBoom)
	require.Equal(t, StateOpen, cb.State())

	cb.Reset()
	assert.Equal(t, StateClosed, cb.State())
}
