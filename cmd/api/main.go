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
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/orderbot-backend/api/routes"
	"github.com/angelmondragon/orderbot-backend/internal/cart"
	"github.com/angelmondragon/orderbot-backend/internal/catalog"
	"github.com/angelmondragon/orderbot-backend/internal/checkout"
	"github.com/angelmondragon/orderbot-backend/internal/customers"
	"github.com/angelmondragon/orderbot-backend/internal/orders"
	"github.com/angelmondragon/orderbot-backend/internal/pricing"
	"github.com/angelmondragon/orderbot-backend/pkg/config"
	"github.com/angelmondragon/orderbot-backend/pkg/db"
	"github.com/angelmondragon/orderbot-backend/pkg/instance"
	"github.com/angelmondragon/orderbot-backend/pkg/logger"
	"github.com/angelmondragon/orderbot-backend/pkg/metrics"
	"github.com/angelmondragon/orderbot-backend/pkg/migrate"
	"github.com/angelmondragon/orderbot-backend/pkg/outbox"
	"github.com/angelmondragon/orderbot-backend/pkg/redis"
	"github.com/angelmondragon/orderbot-backend/pkg/security"
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

	loc, err := cfg.App.Location()
	if err != nil {
		logg.Error(context.Background(), "invalid business timezone", err)
		os.Exit(1)
	}

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	orderMetrics := metrics.NewOrderMetrics(reg)

	resolver, err := pricing.NewResolver(cfg.Orders.FreeDeliveryThreshold)
	if err != nil {
		logg.Error(context.Background(), "invalid free delivery threshold", err)
		os.Exit(1)
	}

	conn := dbClient.DB()
	ledger := orders.NewRepository(conn)
	emitter := outbox.NewService(outbox.NewRepository(conn), logg)

	customerService, err := customers.NewService(customers.ServiceParams{
		Repo:    customers.NewRepository(conn),
		Tx:      dbClient,
		Logger:  logg,
		Hasher:  security.NewHasher(cfg.Password),
		Cache:   redisClient,
		Limiter: redisClient,
		Lease:   redisClient,
		Admin: customers.AdminSettings{
			RegistrationPassword: cfg.Admin.RegistrationPassword,
			CacheTTL:             cfg.Admin.CacheTTL,
			LoginAttemptLimit:    cfg.Admin.LoginAttemptLimit,
			LoginAttemptWindow:   cfg.Admin.LoginAttemptWindow,
		},
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create customers service", err)
		os.Exit(1)
	}

	if cfg.Admin.BootstrapChatID != 0 {
		if _, err := customerService.BootstrapAdmin(context.Background(), cfg.Admin.BootstrapChatID, cfg.Admin.BootstrapPassword); err != nil {
			logg.Error(context.Background(), "failed to bootstrap administrator", err)
			os.Exit(1)
		}
	}

	catalogService, err := catalog.NewService(catalog.NewRepository(conn), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	cartService, err := cart.NewService(cart.ServiceParams{
		Ledger:        ledger,
		Customers:     customerService,
		Products:      func(tx *gorm.DB) cart.ProductFinder { return catalog.NewRepository(tx) },
		DeliveryTypes: catalogService,
		Pricing:       resolver,
		Tx:            dbClient,
		Metrics:       orderMetrics,
		Logger:        logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	drafts, err := checkout.NewDraftStore(redisClient, cfg.Orders.CheckoutDraftTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout draft store", err)
		os.Exit(1)
	}
	checkoutService, err := checkout.NewService(checkout.ServiceParams{
		Ledger:        ledger,
		Customers:     customerService,
		DeliveryTypes: catalogService,
		Drafts:        drafts,
		Pricing:       resolver,
		Tx:            dbClient,
		Outbox:        emitter,
		Metrics:       orderMetrics,
		Logger:        logg,
		Location:      loc,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	ordersService, err := orders.NewService(orders.ServiceParams{
		Repo:                ledger,
		Customers:           customerService,
		Tx:                  dbClient,
		Outbox:              emitter,
		Metrics:             orderMetrics,
		Logger:              logg,
		Location:            loc,
		HistoryWindowDays:   cfg.Orders.HistoryWindowDays,
		HistoryLimit:        cfg.Orders.HistoryLimit,
		AllowCustomerCancel: cfg.FeatureFlags.CustomerCancel,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.ID(),
		"timezone": loc.String(),
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
			customerService,
			catalogService,
			cartService,
			checkoutService,
			ordersService,
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	exitCode := 0
	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			exitCode = 1
		}
	case sig := <-stop:
		logg.Info(logg.WithField(ctx, "signal", sig.String()), "shutting down api server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	err = multierr.Combine(
		server.Shutdown(shutdownCtx),
		redisClient.Close(),
		dbClient.Close(),
	)
	cancel()
	if err != nil {
		logg.Error(ctx, "api shutdown incomplete", err)
		exitCode = 1
	}
	os.Exit(exitCode)
}
