package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"schoolops/internal/domain/audit"
	"schoolops/internal/domain/fees"
	"schoolops/internal/domain/invoicing"
	"schoolops/internal/domain/payments"
	"schoolops/internal/domain/payroll"
	"schoolops/internal/domain/results"
	"schoolops/internal/domain/scores"
	"schoolops/internal/platform/config"
	"schoolops/internal/platform/db"
	"schoolops/internal/platform/docstore"
	"schoolops/internal/platform/docstore/memstore"
	"schoolops/internal/platform/docstore/mongostore"
	"schoolops/internal/platform/docstore/pgstore"
	"schoolops/internal/platform/logging"
	"schoolops/internal/platform/metrics"
	"schoolops/internal/platform/seed"
	"schoolops/internal/transport/http/api"
	audithandler "schoolops/internal/transport/http/handlers/audit"
	feeshandler "schoolops/internal/transport/http/handlers/fees"
	invoiceshandler "schoolops/internal/transport/http/handlers/invoices"
	paymentshandler "schoolops/internal/transport/http/handlers/payments"
	payrollhandler "schoolops/internal/transport/http/handlers/payroll"
	resultshandler "schoolops/internal/transport/http/handlers/results"
	scoreshandler "schoolops/internal/transport/http/handlers/scores"
	"schoolops/internal/transport/http/middleware"
)

type App struct {
	Config  config.Config
	Store   docstore.Gateway
	Metrics *metrics.Collector
	Router  http.Handler
	closers []func(context.Context) error
}

// OpenStore connects the document store named by cfg.StoreDriver. The returned
// close function releases the underlying connections.
func OpenStore(ctx context.Context, cfg config.Config) (docstore.Gateway, func(context.Context) error, error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		return memstore.New(), func(context.Context) error { return nil }, nil
	case config.DriverPostgres:
		pool, err := db.Connect(ctx, cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("db connect: %w", err)
		}
		if cfg.RunMigrations {
			if err := db.Migrate(ctx, pool, cfg.MigrationsDir); err != nil {
				pool.Close()
				return nil, nil, fmt.Errorf("migrations: %w", err)
			}
		}
		return pgstore.New(pool), func(context.Context) error { pool.Close(); return nil }, nil
	case config.DriverMongo:
		store, err := mongostore.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, nil, fmt.Errorf("mongo connect: %w", err)
		}
		return store, store.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	store, closeStore, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app := &App{Config: cfg, Store: store, Metrics: metrics.New(), closers: []func(context.Context) error{closeStore}}

	if cfg.RunSeed {
		if err := seed.Run(ctx, store, seed.Options{AdminID: cfg.SeedAdminID, AdminName: cfg.SeedAdminName}); err != nil {
			_ = app.Close()
			return nil, fmt.Errorf("seed: %w", err)
		}
	}

	app.Router = app.routes()
	return app, nil
}

func (a *App) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var errs []error
	for _, closeFn := range a.closers {
		errs = append(errs, closeFn(ctx))
	}
	return errors.Join(errs...)
}

func (a *App) routes() http.Handler {
	cfg := a.Config
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	if cfg.MetricsEnabled {
		router.Use(middleware.Metrics(a.Metrics))
	}
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Timeout(cfg.RequestTimeout))
	router.Use(middleware.Auth(cfg.JWTSecret))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := a.Store.Ping(ctx); err != nil {
			http.Error(w, "store not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if cfg.MetricsEnabled {
		router.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			api.Success(w, a.Metrics.Snapshot(), middleware.GetRequestID(r.Context()))
		})
	}

	idem := middleware.NewIdempotencyStore(a.Store)
	paymentsService := payments.NewService(a.Store)

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute, middleware.ExemptReads()))

		feeshandler.NewHandler(fees.NewService(a.Store), a.Metrics).RegisterRoutes(r)
		invoiceshandler.NewHandler(invoicing.NewService(a.Store, cfg.InvoiceDueDays), paymentsService, a.Metrics).RegisterRoutes(r)
		paymentshandler.NewHandler(paymentsService, idem, a.Metrics).RegisterRoutes(r)
		payrollhandler.NewHandler(payroll.NewService(a.Store), idem, a.Metrics).RegisterRoutes(r)
		scoreshandler.NewHandler(scores.NewService(a.Store), a.Metrics).RegisterRoutes(r)
		resultshandler.NewHandler(results.NewService(a.Store), a.Metrics).RegisterRoutes(r)
		audithandler.NewHandler(audit.New(a.Store)).RegisterRoutes(r)
	})

	return router
}

func Run() {
	cfg := config.Load()
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, cfg); err != nil {
		slog.Error("server failed", "err", err)
		stop()
		os.Exit(1)
	}
}

func serve(ctx context.Context, cfg config.Config) error {
	app, err := New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("startup: %w", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			slog.Warn("shutdown close failed", "err", err)
		}
	}()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("http shutdown failed", "err", err)
		}
	}()

	slog.Info("school ledger server listening", "addr", cfg.Addr, "store", cfg.StoreDriver)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
