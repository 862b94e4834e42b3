package core

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestExecuteTasks_RespectsWorkerLimit(t *testing.T) {
	defer goleak.VerifyNone(t)

	var inFlight, peak int32
	tasks := make([]Task[int], 20)
	for i := range tasks {
		tasks[i] = Task[int]{
			Input: i,
			Run: func(ctx context.Context) (int, error) {
				n := atomic.AddInt32(&inFlight, 1)
				for {
					p := atomic.LoadInt32(&peak)
					if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
						break
					}
				}
				time.Sleep(2 * time.Millisecond)
				atomic.AddInt32(&inFlight, -1)
				return i * 10, nil
			},
		}
	}

	summary := ExecuteTasks(context.Background(), 3, tasks)
	require.NoError(t, summary.Err())
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(3))
	assert.Len(t, summary.Succeeded(), 20)
	assert.Equal(t, 190, summary.Results[19])
}

func TestExecuteTasks_Errors(t *testing.T) {
	defer goleak.VerifyNone(t)

	boom := errors.New("boom")
	single := ExecuteTasks(context.Background(), 2, []Task[string]{{
		Input: "only",
		Run:   func(context.Context) (string, error) { return "", boom },
	}})
	assert.Same(t, boom, single.Err())

	summary := ExecuteTasks(context.Background(), 2, []Task[string]{
		{Input: "a", Run: func(context.Context) (string, error) { return "ok", nil }},
		{Input: "b", Run: func(context.Context) (string, error) { return "", boom }},
	})
	err := summary.Err()
	require.True(t, IsCompoundErr(err))
	var compound *CompoundError
	require.ErrorAs(t, err, &compound)
	assert.Equal(t, []any{"ok"}, compound.Succeeded)
	assert.Equal(t, []any{"b"}, compound.Failed)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"ok"}, summary.Succeeded())
}

func TestExecuteTasks_CancelledContext(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var ran int32
	summary := ExecuteTasks(ctx, 1, []Task[int]{{
		Run: func(context.Context) (int, error) {
			atomic.AddInt32(&ran, 1)
			return 1, nil
		},
	}})
	assert.ErrorIs(t, summary.Err(), context.Canceled)
	assert.Zero(t, atomic.LoadInt32(&ran))
}
