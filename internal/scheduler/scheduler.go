// Package scheduler runs the periodic share link and upload sweeps.
package scheduler

import (
	"Go_Share/config"
	"Go_Share/internal/logger"
	"Go_Share/internal/repo"
	"Go_Share/internal/service"
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Job is one sweep. Run reports how many rows it changed.
type Job struct {
	Name     string
	Schedule string
	Run      func(ctx context.Context) (int64, error)
}

type locker interface {
	Lock(ctx context.Context) error
	Unlock(ctx context.Context) error
}

// Scheduler fires jobs on their cron schedules. With Redis every run holds a
// lock so replicas of the worker never sweep at the same time.
type Scheduler struct {
	jobs    []Job
	cron    *cron.Cron
	lockTTL time.Duration
	newLock func(name string, ttl time.Duration) locker

	mu      sync.Mutex
	running map[string]bool
}

// DefaultJobs returns the expiry, limit and stale upload sweeps.
func DefaultJobs(cfg config.Config) []Job {
	grace := cfg.StaleUploadGrace
	return []Job{
		{
			Name:     "expire-links",
			Schedule: cfg.SweepExpirySchedule,
			Run: func(ctx context.Context) (int64, error) {
				return service.ExpireLinks(ctx, time.Now())
			},
		},
		{
			Name:     "lock-exceeded-links",
			Schedule: cfg.SweepLimitSchedule,
			Run:      service.LockExceededLinks,
		},
		{
			Name:     "reap-stale-uploads",
			Schedule: cfg.SweepUploadSchedule,
			Run: func(ctx context.Context) (int64, error) {
				return service.ReapStaleUploads(ctx, grace)
			},
		},
	}
}

// New builds a scheduler. rdb may be nil, in which case runs are only
// guarded within this process.
func New(rdb *redis.Client, jobs []Job) *Scheduler {
	s := &Scheduler{
		jobs:    jobs,
		lockTTL: 10 * time.Minute,
		running: make(map[string]bool),
	}
	if rdb != nil {
		s.newLock = func(name string, ttl time.Duration) locker {
			return repo.NewRedisLock(rdb, "lock:sweep:"+name, ttl)
		}
	}
	return s
}

// Start registers every job and blocks until ctx is done, then waits for
// running jobs to finish.
func (s *Scheduler) Start(ctx context.Context) error {
	s.cron = cron.New()
	for _, job := range s.jobs {
		job := job
		if job.Schedule == "" {
			logger.L().Info("sweep disabled", zap.String("job", job.Name))
			continue
		}
		if _, err := s.cron.AddFunc(job.Schedule, func() { s.RunJob(ctx, job) }); err != nil {
			return err
		}
		logger.L().Info("sweep scheduled", zap.String("job", job.Name), zap.String("schedule", job.Schedule))
	}

	s.cron.Start()
	<-ctx.Done()

	logger.L().Info("scheduler stopping")
	<-s.cron.Stop().Done()
	return nil
}

// RunJob runs job once unless it is already running here or on another
// replica.
func (s *Scheduler) RunJob(ctx context.Context, job Job) {
	s.mu.Lock()
	if s.running[job.Name] {
		s.mu.Unlock()
		logger.L().Warn("sweep skipped: already running", zap.String("job", job.Name))
		return
	}
	s.running[job.Name] = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.running, job.Name)
		s.mu.Unlock()
	}()

	if s.newLock != nil {
		lock := s.newLock(job.Name, s.lockTTL)
		if err := lock.Lock(ctx); err != nil {
			if errors.Is(err, repo.ErrLockBusy) {
				logger.L().Debug("sweep skipped: lock held elsewhere", zap.String("job", job.Name))
				return
			}
			logger.L().Error("sweep lock fail", zap.String("job", job.Name), zap.Error(err))
			return
		}
		defer func() {
			if err := lock.Unlock(context.WithoutCancel(ctx)); err != nil {
				logger.L().Warn("sweep unlock fail", zap.String("job", job.Name), zap.Error(err))
			}
		}()
	}

	start := time.Now()
	affected, err := job.Run(ctx)
	if err != nil {
		logger.L().Error("sweep fail", zap.String("job", job.Name), zap.Error(err))
		return
	}
	logger.L().Info("sweep done",
		zap.String("job", job.Name),
		zap.Int64("affected", affected),
		zap.Duration("took", time.Since(start)),
	)
}
