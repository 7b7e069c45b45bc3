package main

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

	"github.com/finchworks/gatehouse/internal/auth"
	"github.com/finchworks/gatehouse/internal/background"
	"github.com/finchworks/gatehouse/internal/config"
	"github.com/finchworks/gatehouse/internal/database"
	"github.com/finchworks/gatehouse/internal/handlers"
	middlewareCustom "github.com/finchworks/gatehouse/internal/middleware"
	"github.com/finchworks/gatehouse/internal/repositories"
	"github.com/finchworks/gatehouse/internal/routes"
	"github.com/finchworks/gatehouse/internal/security"
	"github.com/finchworks/gatehouse/internal/services"
	pkghttp "github.com/finchworks/gatehouse/pkg/http"
	pkglogger "github.com/finchworks/gatehouse/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		slog.String("env", cfg.Server.Env),
		pkglogger.RedactedAttr("db_host", cfg.Database.Host, cfg.Server.Env))

	if err := database.Migrate(cfg.Database.DSN()); err != nil {
		logger.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}

	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	// Repositories
	auditRepo := repositories.NewAuditEventRepository(db)
	employeeRepo := repositories.NewEmployeeRepository(db)
	policyRepo := repositories.NewPolicyRepository(db)

	// Audit sink: every other component writes into it
	auditService := services.NewAuditService(auditRepo, logger)

	// Policy cache
	policyService := services.NewPolicyService(policyRepo, auditService, logger)

	// Optional SES alerting
	var alertService *services.AlertService
	if cfg.Alerts.Enabled {
		alertService, err = services.NewAlertService(
			cfg.Alerts.AWSRegion, cfg.Alerts.FromAddress, cfg.Alerts.ToAddress, logger,
		)
		if err != nil {
			logger.Error("failed to initialize alert service", slog.Any("error", err))
			os.Exit(1)
		}
	}

	// Login-defense components
	tracker := security.NewAttemptTracker(auditService, logger)
	blocklist := security.NewIPBlocklist()
	lockout := security.NewAccountLockPolicy(employeeRepo, auditService, logger)
	sessionGuard := security.NewSessionGuard(employeeRepo, auditService, logger)
	gate := security.NewRateLimitGate(blocklist, auditService)

	defenseService := services.NewDefenseService(tracker, blocklist, lockout, employeeRepo, alertService, logger)

	// Background sweep for expired blocks and audit retention
	sweeper := background.NewSweeper(blocklist, auditRepo, logger, cfg.Server.SweepInterval, cfg.Server.AuditRetentionDays)

	verifier := auth.NewTokenVerifier(cfg.Auth.JWTSecret)
	ipConfig := &pkghttp.IPConfig{TrustedProxies: cfg.Server.TrustedProxies}

	// Handlers
	attemptHandler := handlers.NewAttemptHandler(defenseService, policyService, ipConfig, logger)
	sessionHandler := handlers.NewSessionHandler(sessionGuard, policyService, ipConfig, logger)
	passwordHandler := handlers.NewPasswordHandler(policyService)
	auditHandler := handlers.NewAuditHandler(auditService, logger)
	adminHandler := handlers.NewAdminHandler(lockout, tracker, blocklist, policyService, auditService, ipConfig, logger)

	healthCheck := func(w http.ResponseWriter, r *http.Request) {
		if err := db.HealthCheck(r.Context()); err != nil {
			pkghttp.WriteError(w, http.StatusServiceUnavailable, "unhealthy", "database unreachable")
			return
		}
		stats := db.Stats()
		pkghttp.WriteJSON(w, http.StatusOK, map[string]interface{}{
			"status":         "ok",
			"db_total_conns": stats.TotalConns(),
			"db_idle_conns":  stats.IdleConns(),
		})
	}

	// Router
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(middlewareCustom.SecurityHeaders())
	router.Use(middlewareCustom.SecureLogger(logger))

	routes.RegisterRoutes(
		router, gate, ipConfig, verifier, cfg.Auth.AdminRole,
		attemptHandler, sessionHandler, passwordHandler, auditHandler, adminHandler,
		healthCheck,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go sweeper.Start(ctx)

	go func() {
		logger.Info("server starting", slog.String("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	sweeper.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", slog.Any("error", err))
	}
	logger.Info("server stopped")
}
