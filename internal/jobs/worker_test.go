package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWorkerRunsQueuedJobs(t *testing.T) {
	worker := NewWorker(2)
	defer worker.Shutdown()

	var ran int32
	worker.Enqueue(func(ctx context.Context) error {
		atomic.AddInt32(&ran, 1)
		return nil
	})

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&ran))
}

func TestWorkerCountsFailures(t *testing.T) {
	worker := NewWorker(1)
	defer worker.Shutdown()

	worker.EnqueueAsync(func(ctx context.Context) error {
		return errors.New("boom")
	})

	time.Sleep(100 * time.Millisecond)
	stats := worker.GetStats()
	assert.Equal(t, int64(1), stats.FailedJobs)
	assert.Equal(t, int64(1), stats.FinishedJobs)
}

func TestWorkerRecoversAsyncPanic(t *testing.T) {
	worker := NewWorker(1)
	defer worker.Shutdown()

	worker.EnqueueAsync(func(ctx context.Context) error {
		panic("unexpected")
	})

	time.Sleep(100 * time.Millisecond)
	stats := worker.GetStats()
	assert.Equal(t, int64(1), stats.FailedJobs)
}
