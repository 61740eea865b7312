package main

import (
	"Go_Share/config"
	"Go_Share/internal/logger"
	"Go_Share/internal/repo"
	"Go_Share/internal/scheduler"
	"Go_Share/internal/storage"
	"Go_Share/internal/worker"
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var notifyBackoff = worker.Backoff{Base: time.Second, Max: time.Minute}

// run drives the sweeps and the notification consumer until ctx is done.
// Only a sweep scheduler failure stops the process; the consumer is
// restarted with backoff.
func run(ctx context.Context, sweeps, notify func(context.Context) error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return sweeps(gctx)
	})
	g.Go(func() error {
		worker.Supervise(gctx, "notify", notify, notifyBackoff)
		return nil
	})
	return g.Wait()
}

// main runs the notification consumer and the sweep scheduler.
func main() {
	config.InitConfig()
	if err := logger.Init(config.AppConfig.IsProduction()); err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo.InitDatabase()
	if err := repo.InitRedis(); err != nil {
		logger.L().Warn("redis unavailable, sweeps are not coordinated across replicas", zap.Error(err))
	}
	if err := storage.InitStorage(ctx); err != nil {
		logger.L().Fatal("init storage fail", zap.Error(err))
	}

	sched := scheduler.New(repo.Redis, scheduler.DefaultJobs(config.AppConfig))

	logger.L().Info("worker started")
	if err := run(ctx, sched.Start, worker.RunNotifyWorker); err != nil {
		logger.L().Fatal("worker stopped", zap.Error(err))
	}
	logger.L().Info("worker stopped")
}
