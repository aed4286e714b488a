package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueRunsRegisteredHandler(t *testing.T) {
	q := NewQueue("test", QueueConfig{Workers: 2, RetryDelay: time.Millisecond})
	done := make(chan string, 1)
	q.Register("echo", func(_ context.Context, job Job) error {
		done <- job.Payload.(string)
		return nil
	})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "1", Kind: "echo", Payload: "hello"}))
	select {
	case got := <-done:
		assert.Equal(t, "hello", got)
	case <-time.After(time.Second):
		t.Fatal("job not processed")
	}
	require.Eventually(t, func() bool { return q.Stats().Succeeded == 1 }, time.Second, 5*time.Millisecond)
}

func TestQueueRetriesThenSucceeds(t *testing.T) {
	q := NewQueue("test", QueueConfig{MaxAttempts: 5, RetryDelay: time.Millisecond})
	var calls int32
	q.Register("flaky", func(context.Context, Job) error {
		if atomic.AddInt32(&calls, 1) < 3 {
			return errors.New("transient")
		}
		return nil
	})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "1", Kind: "flaky"}))
	require.Eventually(t, func() bool { return q.Stats().Succeeded == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, uint64(2), q.Stats().Retried)
}

func TestQueueAbandonsAfterMaxAttempts(t *testing.T) {
	q := NewQueue("test", QueueConfig{MaxAttempts: 2, RetryDelay: time.Millisecond})
	q.Register("broken", func(context.Context, Job) error { return errors.New("nope") })
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "1", Kind: "broken"}))
	require.Eventually(t, func() bool { return q.Stats().Abandoned == 1 }, time.Second, 5*time.Millisecond)
}

func TestQueueRejectsUnknownKindAndStoppedQueue(t *testing.T) {
	q := NewQueue("test", QueueConfig{})
	require.Error(t, q.Enqueue(Job{Kind: "x"}))

	q.Start(context.Background())
	require.Error(t, q.Enqueue(Job{Kind: "x"}))
	q.Stop()
	q.Register("x", func(context.Context, Job) error { return nil })
	require.Error(t, q.Enqueue(Job{Kind: "x"}))
}
