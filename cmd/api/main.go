package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sethvargo/go-retry"
	"go.uber.org/multierr"

	"github.com/kukumart/marketplace-backend/api/routes"
	"github.com/kukumart/marketplace-backend/internal/activities"
	"github.com/kukumart/marketplace-backend/internal/admin"
	"github.com/kukumart/marketplace-backend/internal/auth"
	"github.com/kukumart/marketplace-backend/internal/feed"
	"github.com/kukumart/marketplace-backend/internal/ledger"
	"github.com/kukumart/marketplace-backend/internal/notifications"
	"github.com/kukumart/marketplace-backend/internal/orders"
	product "github.com/kukumart/marketplace-backend/internal/products"
	"github.com/kukumart/marketplace-backend/internal/reviews"
	"github.com/kukumart/marketplace-backend/internal/settings"
	"github.com/kukumart/marketplace-backend/internal/statuses"
	"github.com/kukumart/marketplace-backend/internal/users"
	"github.com/kukumart/marketplace-backend/pkg/auth/session"
	"github.com/kukumart/marketplace-backend/pkg/config"
	"github.com/kukumart/marketplace-backend/pkg/db"
	"github.com/kukumart/marketplace-backend/pkg/instance"
	"github.com/kukumart/marketplace-backend/pkg/logger"
	"github.com/kukumart/marketplace-backend/pkg/metrics"
	"github.com/kukumart/marketplace-backend/pkg/migrate"
	"github.com/kukumart/marketplace-backend/pkg/outbox"
	"github.com/kukumart/marketplace-backend/pkg/redis"
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
		Format:      cfg.App.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Postgres and Redis may still be starting next to us in compose.
	boot := retry.WithMaxRetries(5, retry.NewExponential(500*time.Millisecond))

	var dbClient *db.Client
	err = retry.Do(ctx, boot, func(ctx context.Context) error {
		client, err := db.New(ctx, cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
		if err != nil {
			return retry.RetryableError(err)
		}
		dbClient = client
		return nil
	})
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	var redisClient *redis.Client
	err = retry.Do(ctx, boot, func(ctx context.Context) error {
		client, err := redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return retry.RetryableError(err)
		}
		redisClient = client
		return nil
	})
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		_ = dbClient.Close()
		os.Exit(1)
	}
	defer func() {
		if err := multierr.Combine(redisClient.Close(), dbClient.Close()); err != nil {
			logg.Error(context.Background(), "error closing clients", err)
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	services, err := buildServices(ctx, cfg, logg, dbClient, redisClient, reg)
	if err != nil {
		logg.Error(ctx, "failed to wire services", err)
		os.Exit(1)
	}

	addr := ":" + cfg.App.Port
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, services),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
	}

	logg.Info(ctx, "api server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Error(ctx, "graceful shutdown failed", err)
	}
}

func buildServices(ctx context.Context, cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client, reg *prometheus.Registry) (routes.Services, error) {
	conn := dbClient.DB()
	mkt := metrics.NewMarketplace(reg)
	ob := outbox.NewService(outbox.NewRepository(conn), logg)

	acts, err := activities.NewService(activities.NewRepository(conn), ob)
	if err != nil {
		return routes.Services{}, err
	}

	settingsSvc, err := settings.NewService(settings.ServiceParams{
		Repo:       settings.NewRepository(conn),
		Tx:         dbClient,
		Outbox:     ob,
		Activities: acts,
		Env: settings.Env{
			Media:       cfg.Media,
			Identity:    cfg.Identity,
			Marketplace: cfg.Marketplace,
		},
	})
	if err != nil {
		return routes.Services{}, err
	}

	formatter := notifications.NewFormatter(cfg.Marketplace.AdminWhatsApp).WithAdminContact(settingsSvc)

	sessionManager, err := session.NewManager(redisClient, cfg.JWT.Expiration())
	if err != nil {
		return routes.Services{}, err
	}

	userRepo := users.NewRepository(conn)
	productRepo := product.NewRepository(conn)
	orderRepo := orders.NewRepository(conn)
	ledgerRepo := ledger.NewRepository(conn)

	authSvc, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		SessionManager: sessionManager,
		Tx:             dbClient,
		Activities:     acts,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
		Logger:         logg,
	})
	if err != nil {
		return routes.Services{}, err
	}
	if err := authSvc.EnsureAdmin(ctx, cfg.Admin); err != nil {
		return routes.Services{}, err
	}

	registerSvc, err := auth.NewRegisterService(auth.RegisterServiceParams{
		Tx:             dbClient,
		Outbox:         ob,
		Activities:     acts,
		Formatter:      formatter,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		return routes.Services{}, err
	}

	productSvc, err := product.NewService(product.ServiceParams{
		Repo:       productRepo,
		Users:      userRepo,
		Tx:         dbClient,
		Outbox:     ob,
		Activities: acts,
		Logger:     logg,
	})
	if err != nil {
		return routes.Services{}, err
	}

	userSvc, err := users.NewService(users.ServiceParams{
		Repo:       userRepo,
		Tx:         dbClient,
		Outbox:     ob,
		Activities: acts,
		FeeSyncer:  productSvc,
		Sessions:   sessionManager,
		Logger:     logg,
	})
	if err != nil {
		return routes.Services{}, err
	}

	orderSvc, err := orders.NewService(orders.ServiceParams{
		Repo:                  orderRepo,
		Products:              productRepo,
		Users:                 userRepo,
		Tx:                    dbClient,
		Outbox:                ob,
		Activities:            acts,
		Formatter:             formatter,
		Metrics:               mkt,
		CommissionBasisPoints: cfg.Marketplace.CommissionBasisPoints,
		Logger:                logg,
	})
	if err != nil {
		return routes.Services{}, err
	}

	ledgerSvc, err := ledger.NewService(ledger.ServiceParams{
		Repo:              ledgerRepo,
		Tx:                dbClient,
		Outbox:            ob,
		Activities:        acts,
		Metrics:           mkt,
		MinimumWithdrawal: cfg.Marketplace.MinWithdrawal,
		Logger:            logg,
	})
	if err != nil {
		return routes.Services{}, err
	}

	reviewSvc, err := reviews.NewService(reviews.NewRepository(conn), dbClient)
	if err != nil {
		return routes.Services{}, err
	}
	statusSvc, err := statuses.NewService(statuses.NewRepository(conn), dbClient)
	if err != nil {
		return routes.Services{}, err
	}

	adminSvc, err := admin.NewService(admin.ServiceParams{
		Users:             userSvc,
		Products:          productSvc,
		Orders:            orderSvc,
		Ledger:            ledgerSvc,
		OrderStats:        orderRepo,
		UserCounter:       userRepo,
		ProductCounter:    productRepo,
		WithdrawalCounter: ledgerRepo,
		Logger:            logg,
	})
	if err != nil {
		return routes.Services{}, err
	}

	hub, err := feed.NewHub(redisClient, logg)
	if err != nil {
		return routes.Services{}, err
	}

	return routes.Services{
		Sessions:    sessionManager,
		Auth:        authSvc,
		Register:    registerSvc,
		Users:       userSvc,
		Products:    productSvc,
		Orders:      orderSvc,
		Ledger:      ledgerSvc,
		Reviews:     reviewSvc,
		Statuses:    statusSvc,
		Activities:  acts,
		Settings:    settingsSvc,
		Admin:       adminSvc,
		Feed:        hub,
		Redis:       redisClient,
		DB:          dbClient,
		HTTPMetrics: metrics.NewHTTP(reg),
		Metrics:     promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
	}, nil
}
