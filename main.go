package main

import (
	"Go_Share/config"
	"Go_Share/internal/events"
	"Go_Share/internal/logger"
	"Go_Share/internal/repo"
	"Go_Share/internal/service"
	"Go_Share/internal/storage"
	"Go_Share/router"
	"Go_Share/utils"
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// main initializes services and starts the HTTP server.
func main() {
	config.InitConfig()
	if err := logger.Init(config.AppConfig.IsProduction()); err != nil {
		panic(err)
	}
	defer logger.Sync()
	if config.AppConfig.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo.InitDatabase()
	if err := repo.InitRedis(); err != nil {
		logger.L().Warn("redis unavailable, running without expiry keys and event bus", zap.Error(err))
	}
	if err := storage.InitStorage(ctx); err != nil {
		logger.L().Fatal("init storage fail", zap.Error(err))
	}
	if err := service.EnsureAdmin(ctx, config.AppConfig.AdminEmail, config.AppConfig.AdminPassword); err != nil {
		logger.L().Fatal("seed admin fail", zap.Error(err))
	}

	hub := events.NewHub()
	events.Default = hub
	if repo.Redis != nil {
		bus := events.NewBus(repo.Redis, hub)
		events.Default = bus
		go func() {
			if err := bus.Run(ctx); err != nil {
				logger.L().Error("event bus stopped", zap.Error(err))
			}
		}()
		startExpiryListener(ctx)
	}

	limiter := utils.NewIPRateLimiter(config.AppConfig.ThrottleLimit, config.AppConfig.ThrottleTTL)
	go pruneLimiter(ctx, limiter)

	srv := &http.Server{
		Addr:              ":" + config.AppConfig.AppPort,
		Handler:           router.InitRouter(hub, limiter),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.L().Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.L().Fatal("http server fail", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.L().Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.L().Error("server forced to shutdown", zap.Error(err))
	}
}

// startExpiryListener deactivates links as their Redis expiry keys fire.
func startExpiryListener(ctx context.Context) {
	if err := repo.EnableKeyspaceNotifications(ctx); err != nil {
		logger.L().Warn("enable redis keyspace notifications fail", zap.Error(err))
		return
	}
	ready := make(chan struct{})
	failed := make(chan error, 1)
	go func() {
		failed <- repo.ListenRedisExpired(ctx, repo.Redis, ready)
	}()
	select {
	case <-ready:
		logger.L().Info("link expiry listener ready")
	case err := <-failed:
		logger.L().Warn("link expiry listener stopped", zap.Error(err))
	}
}

func pruneLimiter(ctx context.Context, l *utils.IPRateLimiter) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Prune()
		}
	}
}
