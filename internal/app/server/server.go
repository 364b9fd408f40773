package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"payroll/internal/domain/audit"
	"payroll/internal/domain/auth"
	"payroll/internal/domain/employee"
	"payroll/internal/domain/payrun"
	"payroll/internal/domain/timesheet"
	"payroll/internal/platform/artifacts"
	"payroll/internal/platform/config"
	cryptoutil "payroll/internal/platform/crypto"
	"payroll/internal/platform/db"
	"payroll/internal/platform/jobs"
	"payroll/internal/platform/metrics"
	"payroll/internal/platform/payments"
	audithandler "payroll/internal/transport/http/handlers/audit"
	authhandler "payroll/internal/transport/http/handlers/auth"
	employeehandler "payroll/internal/transport/http/handlers/employee"
	payrunhandler "payroll/internal/transport/http/handlers/payrun"
	paysliphandler "payroll/internal/transport/http/handlers/payslip"
	timesheethandler "payroll/internal/transport/http/handlers/timesheet"
	"payroll/internal/transport/http/middleware"
)

type App struct {
	Config  config.Config
	DB      *pgxpool.Pool
	Router  http.Handler
	Jobs    *jobs.Service
	Payruns *payrun.Service
}

// New wires the full application from config: database, domain services,
// payment gateway, artifact generator, jobs and the HTTP router. The caller
// owns the pool and must Close the app when done.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, cfg.MigrationsDir); err != nil {
			pool.Close()
			return nil, err
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg); err != nil {
			pool.Close()
			return nil, err
		}
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		pool.Close()
		return nil, err
	}

	cryptoSvc, err := cryptoutil.New(cfg.DataEncryptionKey)
	if err != nil {
		pool.Close()
		return nil, err
	}

	var collector *metrics.Collector
	if cfg.MetricsEnabled {
		collector = metrics.New()
	}

	auditSvc := audit.New(pool)
	jobsSvc := jobs.New(pool, cfg)

	employeeStore := employee.NewStore(pool)
	timesheetStore := timesheet.NewStore(pool)
	timesheetSvc := timesheet.NewService(timesheetStore)

	gateway := payments.NewStripeGateway(cfg.StripeAPIKey)
	generator := artifacts.New(cfg, cryptoSvc)
	payrunStore := payrun.NewStore(pool)
	payrunSvc := payrun.NewService(payrunStore, gateway, generator, payrun.ServiceConfig{
		Currency:        cfg.Currency,
		TransferTimeout: cfg.TransferTimeout,
		Metrics:         collector,
	})

	authStore := auth.NewStore(pool)
	idemStore := middleware.NewIdempotencyStore(pool)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recover)
	router.Use(middleware.Logger(collector))
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Auth(cfg.JWTSecret))
	router.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))
	router.Use(middleware.SensitiveMutationRateLimit(cfg.RateLimitPerMinute, time.Minute))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	if collector != nil {
		router.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(collector.Snapshot())
		})
	}

	router.Route("/api/v1", func(r chi.Router) {
		authhandler.NewHandler(authStore, cfg.JWTSecret).RegisterRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireUser)
			employeehandler.NewHandler(employeeStore, auditSvc).RegisterRoutes(r)
			timesheethandler.NewHandler(timesheetSvc, auditSvc, loc).RegisterRoutes(r)
			payrunhandler.NewHandler(payrunSvc, auditSvc, jobsSvc, idemStore, loc).RegisterRoutes(r)
			paysliphandler.NewHandler(payrunSvc, cryptoSvc).RegisterRoutes(r)
			audithandler.NewHandler(auditSvc).RegisterRoutes(r)
		})
	})

	return &App{
		Config:  cfg,
		DB:      pool,
		Router:  router,
		Jobs:    jobsSvc,
		Payruns: payrunSvc,
	}, nil
}

func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
	}
}

// Run boots the app from environment config and serves until interrupted.
func Run() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := New(ctx, cfg)
	if err != nil {
		log.Fatalf("startup failed: %v", err)
	}
	defer app.Close()

	app.Jobs.Start(ctx, app.Payruns.RetryPendingDisbursements)

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      app.Router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("shutdown failed", "err", err)
		}
	}()

	slog.Info("payroll server listening", "addr", cfg.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server failed: %v", err)
	}
}
