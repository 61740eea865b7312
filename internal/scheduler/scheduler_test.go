package scheduler

import (
	"Go_Share/config"
	"Go_Share/internal/logger"
	"Go_Share/internal/repo"
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeLock struct {
	lockErr  error
	locked   *atomic.Int32
	unlocked *atomic.Int32
}

func (l fakeLock) Lock(context.Context) error {
	if l.lockErr != nil {
		return l.lockErr
	}
	l.locked.Add(1)
	return nil
}

func (l fakeLock) Unlock(context.Context) error {
	l.unlocked.Add(1)
	return nil
}

func counting(name string, calls *atomic.Int32) Job {
	return Job{Name: name, Schedule: "@every 1h", Run: func(context.Context) (int64, error) {
		calls.Add(1)
		return 3, nil
	}}
}

func TestRunJobWithoutRedis(t *testing.T) {
	logger.Replace(zap.NewNop())
	var calls atomic.Int32
	s := New(nil, nil)

	s.RunJob(context.Background(), counting("expire-links", &calls))
	s.RunJob(context.Background(), counting("expire-links", &calls))
	assert.EqualValues(t, 2, calls.Load())
}

func TestRunJobSkipsOverlap(t *testing.T) {
	logger.Replace(zap.NewNop())
	var calls atomic.Int32
	release := make(chan struct{})
	started := make(chan struct{})
	s := New(nil, nil)
	slow := Job{Name: "slow", Run: func(context.Context) (int64, error) {
		calls.Add(1)
		close(started)
		<-release
		return 0, nil
	}}

	done := make(chan struct{})
	go func() {
		s.RunJob(context.Background(), slow)
		close(done)
	}()
	<-started
	s.RunJob(context.Background(), slow)
	close(release)
	<-done

	assert.EqualValues(t, 1, calls.Load())
}

func TestRunJobHoldsLock(t *testing.T) {
	logger.Replace(zap.NewNop())
	var calls, locked, unlocked atomic.Int32
	s := New(nil, nil)
	var gotName string
	s.newLock = func(name string, ttl time.Duration) locker {
		gotName = name
		return fakeLock{locked: &locked, unlocked: &unlocked}
	}

	s.RunJob(context.Background(), counting("lock-exceeded-links", &calls))
	assert.EqualValues(t, 1, calls.Load())
	assert.EqualValues(t, 1, locked.Load())
	assert.EqualValues(t, 1, unlocked.Load())
	assert.Equal(t, "lock-exceeded-links", gotName)
}

func TestRunJobSkipsWhenLockBusy(t *testing.T) {
	logger.Replace(zap.NewNop())
	var calls, locked, unlocked atomic.Int32
	s := New(nil, nil)
	s.newLock = func(string, time.Duration) locker {
		return fakeLock{lockErr: repo.ErrLockBusy, locked: &locked, unlocked: &unlocked}
	}

	s.RunJob(context.Background(), counting("reap-stale-uploads", &calls))
	assert.Zero(t, calls.Load())
	assert.Zero(t, unlocked.Load())
}

func TestStartRejectsBadSchedule(t *testing.T) {
	logger.Replace(zap.NewNop())
	s := New(nil, []Job{{Name: "broken", Schedule: "every now and then", Run: func(context.Context) (int64, error) { return 0, nil }}})
	err := s.Start(context.Background())
	assert.Error(t, err)
}

func TestStartStopsWithContext(t *testing.T) {
	logger.Replace(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	s := New(nil, DefaultJobs(config.Config{
		SweepExpirySchedule: "@hourly",
		SweepLimitSchedule:  "@every 15m",
		SweepUploadSchedule: "",
		StaleUploadGrace:    time.Hour,
	}))

	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
	assert.Len(t, s.cron.Entries(), 2)
}
