package main

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"recipecost/pkg/logger"
)

type countingCleaner struct {
	calls atomic.Int32
	err   error
}

func (c *countingCleaner) CleanupExpired(context.Context) (int64, error) {
	c.calls.Add(1)
	return 3, c.err
}

func TestWorkerRunsUntilCancelled(t *testing.T) {
	cleaner := &countingCleaner{}
	w := NewWorker(cleaner, 5*time.Millisecond, logger.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return cleaner.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestWorkerSurvivesCleanupErrors(t *testing.T) {
	cleaner := &countingCleaner{err: errors.New("connection reset")}
	w := NewWorker(cleaner, time.Hour, logger.NewNop())

	w.cleanupIdempotency(context.Background())
	w.cleanupIdempotency(context.Background())
	assert.Equal(t, int32(2), cleaner.calls.Load())
}
