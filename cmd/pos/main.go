package main

import (
	"context"
	"errors"
	"io"
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

	"github.com/angelmondragon/pos-terminal/api/middleware"
	"github.com/angelmondragon/pos-terminal/api/routes"
	"github.com/angelmondragon/pos-terminal/internal/catalog"
	"github.com/angelmondragon/pos-terminal/internal/checkout"
	"github.com/angelmondragon/pos-terminal/internal/customers"
	"github.com/angelmondragon/pos-terminal/internal/locations"
	"github.com/angelmondragon/pos-terminal/internal/paymentmethods"
	"github.com/angelmondragon/pos-terminal/internal/session"
	"github.com/angelmondragon/pos-terminal/internal/tabs"
	"github.com/angelmondragon/pos-terminal/pkg/backend"
	"github.com/angelmondragon/pos-terminal/pkg/config"
	"github.com/angelmondragon/pos-terminal/pkg/db"
	"github.com/angelmondragon/pos-terminal/pkg/logger"
	"github.com/angelmondragon/pos-terminal/pkg/metrics"
	"github.com/angelmondragon/pos-terminal/pkg/migrate"
	"github.com/angelmondragon/pos-terminal/pkg/printer"
	"github.com/angelmondragon/pos-terminal/pkg/redis"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "pos"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "pos",
		TerminalID:  cfg.App.TerminalID,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(context.Background(), "pos terminal stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) (err error) {
	var closers []io.Closer
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			err = multierr.Append(err, closers[i].Close())
		}
	}()

	kv, replayStore, closer, err := openStateStore(ctx, cfg, logg)
	if err != nil {
		return err
	}
	closers = append(closers, closer)

	adapter, err := session.NewAdapter(kv, logg.Component("session"))
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	terminalMetrics := metrics.NewTerminalMetrics(registry)

	taxRate, err := cfg.Checkout.Rate()
	if err != nil {
		return err
	}

	// Load only errors when the store is unreachable; unreadable data comes back nil.
	// Writing defaults over a session we could not read would lose it.
	restored, err := adapter.Load(ctx)
	memoryOnly := false
	if err != nil {
		logg.Warn(logg.WithField(ctx, "error", err.Error()), "session.restore_failed")
		restored = nil
		memoryOnly = true
	}
	store, err := tabs.NewStore(tabs.StoreParams{
		Initial:    restored,
		Persister:  adapter,
		TaxRate:    taxRate,
		Logger:     logg.Component("tabs"),
		Metrics:    terminalMetrics,
		MemoryOnly: memoryOnly,
	})
	if err != nil {
		return err
	}

	backendClient, err := backend.NewClient(cfg.Backend.BaseURL, cfg.Backend.APIToken, backend.WithTimeout(cfg.Backend.Timeout))
	if err != nil {
		return err
	}

	receiptPrinter, err := printer.New(cfg.Printer)
	if err != nil {
		return err
	}
	closers = append(closers, receiptPrinter)

	checkoutService, err := checkout.NewService(checkout.ServiceParams{
		Store:         store,
		Orders:        backendClient,
		Printer:       receiptPrinter,
		Logger:        logg.Component("checkout"),
		Metrics:       terminalMetrics,
		SourceAlias:   cfg.Checkout.SourceAlias,
		PickupNote:    cfg.Checkout.PickupNote,
		PrintFallback: cfg.Checkout.PrintFallback,
		PrintSettle:   cfg.Checkout.PrintSettle,
		SubmitTimeout: cfg.Checkout.SubmitTimeout,
	})
	if err != nil {
		return err
	}
	catalogService, err := catalog.NewService(catalog.ServiceParams{Variants: backendClient})
	if err != nil {
		return err
	}
	customerService, err := customers.NewService(customers.ServiceParams{Backend: backendClient})
	if err != nil {
		return err
	}
	locationService, err := locations.NewService(locations.ServiceParams{
		Lister:    backendClient,
		Selection: adapter,
		Logger:    logg.Component("locations"),
	})
	if err != nil {
		return err
	}
	paymentMethodService, err := paymentmethods.NewService(paymentmethods.ServiceParams{Lister: backendClient})
	if err != nil {
		return err
	}

	addr := ":" + cfg.App.Port
	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			adapter,
			replayStore,
			promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
			store,
			checkoutService,
			catalogService,
			customerService,
			locationService,
			paymentMethodService,
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logCtx := logg.WithFields(ctx, map[string]any{
		"env":       cfg.App.Env,
		"addr":      addr,
		"storage":   cfg.Storage.NormalizedDriver(),
		"tabs":      store.Len(),
		"printer":   cfg.Printer.NormalizedMode(),
		"jwt_check": cfg.JWT.Enabled(),
	})
	logg.Info(logCtx, "starting pos terminal")

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logg.Info(logCtx, "shutting down pos terminal")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// openStateStore connects the configured durable store. Redis also backs
// idempotent replays; the SQL drivers replay from process memory.
func openStateStore(ctx context.Context, cfg *config.Config, logg *logger.Logger) (session.KV, redis.IdempotencyStore, io.Closer, error) {
	switch cfg.Storage.NormalizedDriver() {
	case config.StorageDriverRedis:
		client, err := redis.New(ctx, cfg.Redis, cfg.Storage.Namespace, logg)
		if err != nil {
			return nil, nil, nil, err
		}
		return session.NewRedisStore(client, cfg.App.TerminalID), client, client, nil
	default:
		client, err := db.New(ctx, cfg.Storage.NormalizedDriver(), cfg.DB, logg)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := migrate.MaybeAutoRun(ctx, cfg, logg, client); err != nil {
			return nil, nil, nil, multierr.Append(err, client.Close())
		}
		return session.NewSQLStore(client, cfg.App.TerminalID), middleware.NewMemoryReplayStore(), client, nil
	}
}
