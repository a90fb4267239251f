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

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/shopcredit/internal/auth"
	"github.com/mmynk/shopcredit/internal/calculator"
	"github.com/mmynk/shopcredit/internal/config"
	"github.com/mmynk/shopcredit/internal/ledger"
	"github.com/mmynk/shopcredit/internal/metrics"
	"github.com/mmynk/shopcredit/internal/middleware"
	"github.com/mmynk/shopcredit/internal/models"
	"github.com/mmynk/shopcredit/internal/notify"
	"github.com/mmynk/shopcredit/internal/risk"
	"github.com/mmynk/shopcredit/internal/scheduler"
	"github.com/mmynk/shopcredit/internal/service"
	"github.com/mmynk/shopcredit/internal/storage"
	"github.com/mmynk/shopcredit/internal/storage/postgres"
	"github.com/mmynk/shopcredit/internal/storage/sqlite"
	"github.com/mmynk/shopcredit/pkg/api/authv1"
	"github.com/mmynk/shopcredit/pkg/api/ledgerv1"
	"github.com/mmynk/shopcredit/pkg/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Setup()
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	logging.SetupWithLevel(logging.ParseLevel(cfg.LogLevel))

	if err := run(cfg); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	authenticator := auth.NewPasswordAuthenticator(store)
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)
	if err := bootstrapAdmin(ctx, cfg, authenticator); err != nil {
		return err
	}

	var limits ledger.CreditLimitProvider = risk.NewStoredLimits(store)
	if cfg.RiskServiceURL != "" {
		limits = risk.NewClient(cfg.RiskServiceURL, cfg.RiskTimeout, limits)
		slog.Info("Risk service enabled", "url", cfg.RiskServiceURL)
	}

	opts := []ledger.Option{
		ledger.WithCreditLimits(limits),
		ledger.WithMetrics(m),
		ledger.WithPolicy(calculator.DelinquencyPolicy{
			MaxOverdue: cfg.DelinquencyMaxOverdue,
			GraceDays:  cfg.DelinquencyGraceDays,
		}),
	}
	var notifier *notify.EmailNotifier
	if cfg.NotificationsEnabled() {
		notifier = notify.NewEmailNotifier(store, notify.NewSMTPSender(notify.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SenderEmail,
		}), cfg.SenderEmail)
		opts = append(opts, ledger.WithNotifier(notifier))
		slog.Info("Email reminders enabled", "smtp_host", cfg.SMTPHost)
	}
	engine := ledger.New(store, opts...)

	sweeps, err := scheduler.New(cfg.DelinquencySchedule, engine)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()

	// Interceptors run in order: metrics see every call, logging sees the
	// authenticated party.
	ledgerPath, ledgerHandler := ledgerv1.NewLedgerServiceHandler(
		service.NewLedgerService(engine),
		connect.WithInterceptors(
			middleware.MetricsInterceptor(m),
			middleware.RequireAuth(jwtManager),
			middleware.LoggingInterceptor(),
		),
	)
	mux.Handle(ledgerPath, ledgerHandler)

	authPath, authHandler := authv1.NewAuthServiceHandler(
		service.NewAuthService(authenticator, jwtManager, store, slog.Default()),
		connect.WithInterceptors(
			middleware.MetricsInterceptor(m),
			middleware.OptionalAuth(jwtManager),
			middleware.LoggingInterceptor(),
		),
	)
	mux.Handle(authPath, authHandler)

	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))
	mux.HandleFunc("/healthz", healthHandler(store))

	// Wrap with h2c for HTTP/2 without TLS (required for Connect)
	handler := h2c.NewHandler(loggingMiddleware(corsMiddleware(mux)), &http2.Server{})

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	sweeps.Start()
	serveErr := make(chan error, 1)
	go func() {
		slog.Info("Connect server starting", "address", addr, "url", fmt.Sprintf("http://localhost%s", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		slog.Info("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Warn("HTTP shutdown incomplete", "error", err)
	}
	if err := sweeps.Stop(shutdownCtx); err != nil {
		slog.Warn("Delinquency sweep interrupted", "error", err)
	}
	if notifier != nil {
		notifier.Wait()
	}
	return nil
}

func openStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	switch cfg.DBDriver {
	case "postgres":
		store, err := postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize postgres storage: %w", err)
		}
		slog.Info("Storage initialized", "driver", "postgres")
		return store, nil
	default:
		store, err := sqlite.New(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize sqlite storage: %w", err)
		}
		slog.Info("Storage initialized", "driver", "sqlite", "database", cfg.DBPath)
		return store, nil
	}
}

// bootstrapAdmin creates the configured admin account once.
func bootstrapAdmin(ctx context.Context, cfg *config.Config, authenticator auth.Authenticator) error {
	if cfg.AdminEmail == "" {
		return nil
	}
	party, err := authenticator.Register(ctx, cfg.AdminEmail, "Administrator", cfg.AdminPassword, models.RoleAdmin)
	switch {
	case errors.Is(err, auth.ErrEmailExists):
		return nil
	case err != nil:
		return fmt.Errorf("failed to create admin account: %w", err)
	}
	slog.Info("Admin account created", "party_id", party.ID, "email", party.Email)
	return nil
}
