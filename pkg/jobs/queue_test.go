package jobs

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueRetriesUntilSuccess(t *testing.T) {
	var calls int32
	done := make(chan struct{})
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		if atomic.AddInt32(&calls, 1) < 3 {
			return errors.New("transient")
		}
		close(done)
		return nil
	}, QueueConfig{MaxRetries: 5, RetryDelay: time.Millisecond})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.TryEnqueue(Job{ID: "job-1", Type: "event"}))
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job was not retried to completion")
	}
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestQueuePermanentErrorSkipsRetry(t *testing.T) {
	var calls int32
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		atomic.AddInt32(&calls, 1)
		return Permanent(errors.New("bad payload"))
	}, QueueConfig{MaxRetries: 3, RetryDelay: time.Millisecond})
	q.Start(context.Background())

	require.NoError(t, q.Enqueue(Job{ID: "job-1"}))
	time.Sleep(50 * time.Millisecond)
	q.Stop()
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestTryEnqueueRequiresStart(t *testing.T) {
	q := NewQueue("idle", func(context.Context, Job) error { return nil }, QueueConfig{})
	assert.Error(t, q.TryEnqueue(Job{ID: "x"}))
}

func TestTryEnqueueReportsFullBuffer(t *testing.T) {
	block := make(chan struct{})
	q := NewQueue("full", func(ctx context.Context, job Job) error {
		<-block
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 1})
	q.Start(context.Background())
	defer func() {
		close(block)
		q.Stop()
	}()

	var full error
	for i := 0; i < 5 && full == nil; i++ {
		full = q.TryEnqueue(Job{ID: "job"})
	}
	assert.ErrorIs(t, full, ErrQueueFull)
}

func TestQueueReportsExhaustedJobs(t *testing.T) {
	exhausted := make(chan Job, 1)
	q := NewQueue("exhaust", func(ctx context.Context, job Job) error {
		return errors.New("broker down")
	}, QueueConfig{
		MaxRetries:  1,
		RetryDelay:  time.Millisecond,
		OnExhausted: func(job Job, err error) { exhausted <- job },
	})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.TryEnqueue(Job{ID: "job-1", Type: "event"}))
	select {
	case job := <-exhausted:
		assert.Equal(t, "job-1", job.ID)
		assert.Equal(t, 2, job.Attempt)
	case <-time.After(2 * time.Second):
		t.Fatal("exhausted job was not reported")
	}
}

func TestQueueDrainsBufferedJobsOnStop(t *testing.T) {
	var processed int32
	release := make(chan struct{})
	q := NewQueue("drain", func(ctx context.Context, job Job) error {
		<-release
		atomic.AddInt32(&processed, 1)
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 8, DrainTimeout: 2 * time.Second})
	q.Start(context.Background())

	for i := 0; i < 4; i++ {
		require.NoError(t, q.TryEnqueue(Job{ID: "job"}))
	}
	close(release)
	q.Stop()

	assert.Equal(t, int32(4), atomic.LoadInt32(&processed))
	assert.Zero(t, q.Len())
	assert.Error(t, q.TryEnqueue(Job{ID: "late"}))
}

func TestStopKeepsEveryAcceptedJob(t *testing.T) {
	var processed, accepted int32
	q := NewQueue("race", func(ctx context.Context, job Job) error {
		atomic.AddInt32(&processed, 1)
		return nil
	}, QueueConfig{Workers: 2, BufferSize: 4, DrainTimeout: 2 * time.Second})
	q.Start(context.Background())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(blocking bool) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				var err error
				if blocking {
					err = q.Enqueue(Job{ID: "job"})
				} else {
					err = q.TryEnqueue(Job{ID: "job"})
				}
				if err == nil {
					atomic.AddInt32(&accepted, 1)
				}
			}
		}(i%2 == 0)
	}
	time.Sleep(time.Millisecond)
	q.Stop()
	wg.Wait()

	assert.Equal(t, atomic.LoadInt32(&accepted), atomic.LoadInt32(&processed))
	assert.Zero(t, q.Len())
}

func TestStopAbandonsPendingRetries(t *testing.T) {
	var reasons []error
	var mu sync.Mutex
	attempted := make(chan struct{}, 1)
	q := NewQueue("abandon", func(ctx context.Context, job Job) error {
		select {
		case attempted <- struct{}{}:
		default:
		}
		return errors.New("transient")
	}, QueueConfig{
		MaxRetries: 3,
		RetryDelay: time.Hour,
		OnExhausted: func(job Job, err error) {
			mu.Lock()
			reasons = append(reasons, err)
			mu.Unlock()
		},
	})
	q.Start(context.Background())
	require.NoError(t, q.TryEnqueue(Job{ID: "job-1"}))
	<-attempted
	time.Sleep(20 * time.Millisecond)
	q.Stop()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, reasons, 1)
	assert.ErrorIs(t, reasons[0], ErrQueueStopped)
}

func TestBackoffDoublesUpToLimit(t *testing.T) {
	base := 100 * time.Millisecond
	assert.Equal(t, base, backoff(base, time.Second, 1))
	assert.Equal(t, 200*time.Millisecond, backoff(base, time.Second, 2))
	assert.Equal(t, 800*time.Millisecond, backoff(base, time.Second, 4))
	assert.Equal(t, time.Second, backoff(base, time.Second, 10))
}
