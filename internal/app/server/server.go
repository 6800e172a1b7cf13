package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"

	"hrdesk/internal/domain/audit"
	"hrdesk/internal/domain/core"
	"hrdesk/internal/domain/leave"
	"hrdesk/internal/domain/notifications"
	"hrdesk/internal/domain/payroll"
	"hrdesk/internal/domain/reports"
	"hrdesk/internal/platform/config"
	"hrdesk/internal/platform/db"
	"hrdesk/internal/platform/jobs"
	"hrdesk/internal/platform/metrics"
	"hrdesk/internal/requestctx"
	audithandler "hrdesk/internal/transport/http/handlers/audit"
	corehandler "hrdesk/internal/transport/http/handlers/core"
	leavehandler "hrdesk/internal/transport/http/handlers/leave"
	notificationshandler "hrdesk/internal/transport/http/handlers/notifications"
	opshandler "hrdesk/internal/transport/http/handlers/ops"
	payrollhandler "hrdesk/internal/transport/http/handlers/payroll"
	reportshandler "hrdesk/internal/transport/http/handlers/reports"
	"hrdesk/internal/transport/http/middleware"
	"hrdesk/internal/transport/http/shared"
)

type App struct {
	Config  config.Config
	Router  http.Handler
	Jobs    *jobs.Service
	Metrics *metrics.Collector

	Core          *core.Service
	Leave         *leave.Service
	Payroll       *payroll.Service
	Audit         *audit.Service
	Notifications *notifications.Service
	Reports       *reports.Service

	pool *pgxpool.Pool
}

type stores struct {
	core          core.StoreAPI
	leave         leave.StoreAPI
	payroll       payroll.StoreAPI
	runs          jobs.RunStore
	audit         audit.StoreAPI
	notifications notifications.StoreAPI
}

// New builds the application for cfg. With the postgres driver it connects,
// optionally migrates and owns the pool until Close.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	app := &App{Config: cfg}

	var st stores
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		st = stores{
			core:          core.NewMemoryStore(),
			leave:         leave.NewMemoryStore(),
			payroll:       payroll.NewMemoryStore(),
			runs:          jobs.NewMemoryStore(),
			audit:         audit.NewMemoryStore(),
			notifications: notifications.NewMemoryStore(),
		}
	case config.StoreDriverPostgres:
		if cfg.RunMigrations {
			if err := db.Migrate(cfg.DatabaseURL); err != nil {
				return nil, fmt.Errorf("migrations failed: %w", err)
			}
		}
		pool, err := db.Connect(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("db connect failed: %w", err)
		}
		app.pool = pool
		tx := db.NewTxManager(pool)
		st = stores{
			core:          core.NewStore(pool),
			leave:         leave.NewStore(pool, tx),
			payroll:       payroll.NewStore(pool, tx),
			runs:          jobs.NewStore(pool),
			audit:         audit.NewStore(pool),
			notifications: notifications.NewStore(pool),
		}
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}

	app.Core = core.NewService(st.core)
	if err := app.Core.Seed(ctx, cfg.Seed.Employees); err != nil {
		app.Close()
		return nil, fmt.Errorf("seed failed: %w", err)
	}

	app.Metrics = metrics.New()
	app.Audit = audit.New(st.audit)
	app.Notifications = notifications.New(st.notifications)
	trail := audit.NewTrail(app.Audit)
	app.Leave = leave.NewService(st.leave, app.Core, leave.AccrualTable{
		FirstYearDays:    cfg.Accrual.FirstYearDays,
		FirstYearMonthly: cfg.Accrual.FirstYearMonthly,
		BaseDays:         cfg.Accrual.BaseDays,
		BonusEveryYears:  cfg.Accrual.BonusEveryYears,
		MaxDays:          cfg.Accrual.MaxDays,
	})
	app.Leave.Audit = trail
	app.Leave.Notifier = app.Notifications
	app.Payroll = payroll.NewService(st.payroll, app.Core, payroll.NewSessionStore(cfg.UploadSessionTTL))
	app.Payroll.Recorder = app.Metrics
	app.Payroll.DuplicatesRequireOptIn = cfg.DuplicatesRequireOptIn
	app.Payroll.Audit = trail
	app.Payroll.Notifier = app.Notifications
	app.Reports = reports.NewService(app.Leave, app.Payroll, app.Notifications)
	app.Jobs = jobs.New(st.runs, cfg, app.Leave, app.Payroll)

	app.Router = app.routes()
	return app, nil
}

func (a *App) routes() http.Handler {
	cfg := a.Config
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(a.Metrics))
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.IsProduction()))
	if len(cfg.CORSAllowedOrigins) > 0 {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORSAllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID", shared.TotalCountHeader, "Content-Disposition"},
			AllowCredentials: true,
		}))
	}
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes, cfg.MaxUploadBytes))
	router.Use(middleware.Auth(cfg.JWTSecret))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if a.pool != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := a.pool.Ping(ctx); err != nil {
				http.Error(w, "db not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		if cfg.RateLimitPerMinute > 0 {
			r.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))
			r.Use(middleware.SensitiveMutationRateLimit(cfg.RateLimitPerMinute, time.Minute))
		}

		corehandler.NewHandler(a.Core).RegisterRoutes(r)
		leavehandler.NewHandler(a.Leave, a.Jobs).RegisterRoutes(r)
		payrollhandler.NewHandler(a.Payroll).RegisterRoutes(r)
		notificationshandler.NewHandler(a.Notifications).RegisterRoutes(r)
		audithandler.NewHandler(a.Audit).RegisterRoutes(r)
		reportshandler.NewHandler(a.Reports).RegisterRoutes(r)

		var collector *metrics.Collector
		if cfg.MetricsEnabled {
			collector = a.Metrics
		}
		opshandler.NewHandler(a.Jobs, collector).RegisterRoutes(r)
	})

	return router
}

func (a *App) Close() {
	if a.pool != nil {
		a.pool.Close()
	}
}

// NewLogger returns the JSON logger used by the server process.
func NewLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	return slog.New(requestctx.NewLogHandler(handler))
}

func Run() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}
	slog.SetDefault(NewLogger(cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := New(ctx, cfg)
	if err != nil {
		log.Fatalf("startup failed: %v", err)
	}
	defer app.Close()

	app.Jobs.Start(ctx)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	go func() {
		slog.Info("hrdesk server listening", "addr", cfg.Addr, "storeDriver", cfg.StoreDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown failed", "err", err)
	}
}
