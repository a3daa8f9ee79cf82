package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/xxxsen/easyledger/internal/config"
	"github.com/xxxsen/easyledger/internal/db"
	"github.com/xxxsen/easyledger/internal/handler"
	"github.com/xxxsen/easyledger/internal/job"
	"github.com/xxxsen/easyledger/internal/middleware"
	"github.com/xxxsen/easyledger/internal/notify"
	"github.com/xxxsen/easyledger/internal/repo"
	"github.com/xxxsen/easyledger/internal/schedule"
	"github.com/xxxsen/easyledger/internal/service"
)

type otpStore interface {
	service.OtpStore
	job.ExpiredPurger
	handler.Pinger
}

func openStore(ctx context.Context, cfg *config.Config) (otpStore, func(), error) {
	if cfg.Store == config.StoreMemory {
		return repo.NewMemoryOtpRepo(), func() {}, nil
	}
	conn, err := db.Open(cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.ApplyMigrations(ctx, conn); err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("migrations: %w", err)
	}
	return repo.NewOtpRepo(conn), func() { _ = conn.Close() }, nil
}

func runServer(ctx context.Context, cfg *config.Config) error {
	logger := logutil.GetLogger(ctx)
	logger.Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("store", cfg.Store),
		zap.String("notifier", cfg.Notifier.Type),
		zap.String("delivery_policy", cfg.OTP.DeliveryPolicy),
	)

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	notifier, err := notify.New(cfg.Notifier)
	if err != nil {
		return fmt.Errorf("init notifier: %w", err)
	}
	otpService := service.NewOtpService(store, notifier, service.OtpOptions{
		TTL:            time.Duration(cfg.OTP.TTLSeconds) * time.Second,
		CodeLength:     cfg.OTP.CodeLength,
		Subject:        cfg.OTP.Subject,
		StrictDelivery: cfg.OTP.DeliveryPolicy == config.DeliveryStrict,
	})

	deps := handler.RouterDeps{
		Otp:        handler.NewOtpHandler(otpService),
		Health:     handler.NewHealthHandler(store),
		OtpLimiter: middleware.RateLimit(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst),
	}

	addr := fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	engine, err := webapi.NewEngine(
		"/api/v1",
		addr,
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(cfg.CORSAllowlist),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Cleanup.Spec != "" {
		scheduler := schedule.NewCronScheduler()
		cleanup := job.NewOtpCleanupJob(store, time.Duration(cfg.Cleanup.RetentionHours)*time.Hour)
		if err := scheduler.AddJob(cleanup, cfg.Cleanup.Spec); err != nil {
			return fmt.Errorf("schedule cleanup: %w", err)
		}
		scheduler.Start(ctx)
		defer scheduler.Stop()
	}

	logger.Info("http server listening", zap.String("addr", addr))
	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("server stopping...")
	return nil
}
