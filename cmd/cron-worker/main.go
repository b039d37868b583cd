package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jmarchetti/storefront-backend/internal/cron"
	"github.com/jmarchetti/storefront-backend/internal/notifications"
	"github.com/jmarchetti/storefront-backend/internal/orders"
	"github.com/jmarchetti/storefront-backend/pkg/config"
	"github.com/jmarchetti/storefront-backend/pkg/db"
	"github.com/jmarchetti/storefront-backend/pkg/logger"
	"github.com/jmarchetti/storefront-backend/pkg/mailer"
	"github.com/jmarchetti/storefront-backend/pkg/metrics"
	"github.com/jmarchetti/storefront-backend/pkg/migrate"
	"github.com/jmarchetti/storefront-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	ordersService, err := orders.NewService(orders.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	mail := newMailer(cfg, logg)
	dispatcher, err := notifications.NewDispatcher(mail, notifications.NewRepository(dbClient.DB()), logg, 0)
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications dispatcher", err)
		os.Exit(1)
	}

	digestJob, err := cron.NewDailySalesJob(ordersService, dispatcher)
	if err != nil {
		logg.Error(context.Background(), "failed to create daily sales job", err)
		os.Exit(1)
	}

	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey("cron-worker"), cfg.Cron.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:    logg,
		Registry:  cron.NewRegistry(digestJob),
		Lock:      lock,
		Metrics:   metrics.NewJobMetrics(prometheus.DefaultRegisterer),
		Interval:  cfg.Cron.Interval,
		RunAtHour: cfg.Cron.DigestHour,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"digest_hour": cfg.Cron.DigestHour,
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func newMailer(cfg *config.Config, logg *logger.Logger) mailer.Mailer {
	if cfg.App.IsDev() && cfg.Mail.SMTPUser == "" {
		return mailer.NewLogMailer(logg)
	}
	smtp, err := mailer.NewSMTPMailer(cfg.Mail)
	if err != nil {
		logg.Warn(context.Background(), "smtp mailer unavailable, falling back to log mailer")
		return mailer.NewLogMailer(logg)
	}
	return smtp
}
