package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSuperviseRestartsAfterFailure(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var attempts atomic.Int32
	done := make(chan struct{})
	go func() {
		defer close(done)
		Supervise(ctx, "notify", func(ctx context.Context) error {
			if attempts.Add(1) < 3 {
				return errors.New("dial tcp: connection refused")
			}
			<-ctx.Done()
			return nil
		}, Backoff{Base: time.Millisecond, Max: 4 * time.Millisecond})
	}()

	assert.Eventually(t, func() bool { return attempts.Load() == 3 }, time.Second, time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Supervise did not return after cancel")
	}
	assert.EqualValues(t, 3, attempts.Load())
}

func TestSuperviseStopsDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var attempts atomic.Int32
	done := make(chan struct{})
	go func() {
		defer close(done)
		Supervise(ctx, "notify", func(context.Context) error {
			attempts.Add(1)
			return errors.New("channel closed")
		}, Backoff{Base: time.Hour, Max: time.Hour})
	}()

	assert.Eventually(t, func() bool { return attempts.Load() == 1 }, time.Second, time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Supervise did not return after cancel")
	}
	assert.EqualValues(t, 1, attempts.Load())
}
