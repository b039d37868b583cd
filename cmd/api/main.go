package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jmarchetti/storefront-backend/api/routes"
	"github.com/jmarchetti/storefront-backend/internal/cart"
	"github.com/jmarchetti/storefront-backend/internal/catalog"
	"github.com/jmarchetti/storefront-backend/internal/checkout"
	"github.com/jmarchetti/storefront-backend/internal/notifications"
	"github.com/jmarchetti/storefront-backend/internal/orders"
	"github.com/jmarchetti/storefront-backend/pkg/cache"
	"github.com/jmarchetti/storefront-backend/pkg/config"
	"github.com/jmarchetti/storefront-backend/pkg/db"
	"github.com/jmarchetti/storefront-backend/pkg/logger"
	"github.com/jmarchetti/storefront-backend/pkg/mailer"
	"github.com/jmarchetti/storefront-backend/pkg/metrics"
	"github.com/jmarchetti/storefront-backend/pkg/migrate"
	"github.com/jmarchetti/storefront-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
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

	cacheStore, err := cache.NewStore(redisClient, cfg.Catalog.CacheTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create cache store", err)
		os.Exit(1)
	}
	purger, err := cache.NewPatternPurger(redisClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create cache purger", err)
		os.Exit(1)
	}
	invalidator, err := cache.NewInvalidator(redisClient, purger)
	if err != nil {
		logg.Error(context.Background(), "failed to create cache invalidator", err)
		os.Exit(1)
	}

	cacheStats := metrics.NewCacheMetrics(prometheus.DefaultRegisterer)

	catalogRepo := catalog.NewRepository(dbClient.DB())
	catalogService, err := catalog.NewService(catalogRepo, cacheStore, invalidator, logg, cacheStats, cfg.Catalog.PageSize)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	cartRepo := cart.NewRepository(dbClient.DB())
	cartService, err := cart.NewService(cartRepo, catalogRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	ordersRepo := orders.NewRepository(dbClient.DB())
	ordersService, err := orders.NewService(ordersRepo)
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

	checkoutService, err := checkout.NewService(
		dbClient,
		checkout.NewRepository(),
		cartRepo,
		ordersRepo,
		dispatcher,
		invalidator,
		logg,
		cfg.Inventory.LowStockThreshold,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	dispatcher.Start(ctx)
	defer dispatcher.Stop()

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			catalogService,
			cartService,
			checkoutService,
			ordersService,
			prometheus.DefaultGatherer,
		),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(ctx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
			os.Exit(1)
		}
	}

	logg.Info(ctx, "api server stopped")
}

// newMailer logs mail in dev unless SMTP credentials are configured.
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
