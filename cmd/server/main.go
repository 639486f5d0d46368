package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	paycode "github.com/vidaplan/paycode"
	"github.com/vidaplan/paycode/internal/boleto"
	"github.com/vidaplan/paycode/internal/config"
	"github.com/vidaplan/paycode/internal/gateway"
	"github.com/vidaplan/paycode/internal/handler"
	"github.com/vidaplan/paycode/internal/qrrender"
	"github.com/vidaplan/paycode/internal/registry"
	"github.com/vidaplan/paycode/internal/repository"
	"github.com/vidaplan/paycode/internal/resilience"
	"github.com/vidaplan/paycode/internal/service"
	"github.com/vidaplan/paycode/internal/worker"
)

func main() {
	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Local overrides; absent file is fine in production
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	boletoGen, err := boleto.NewGenerator(cfg.BankCode, cfg.Agency, cfg.Account)
	if err != nil {
		slog.Error("invalid beneficiary configuration", "error", err)
		os.Exit(1)
	}

	// Optional write-through persistence
	var store service.Store
	if cfg.DatabaseURL != "" {
		pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		migrationsFS, err := fs.Sub(paycode.MigrationsFS, "migrations")
		if err != nil {
			slog.Error("failed to load embedded migrations", "error", err)
			os.Exit(1)
		}
		if err := repository.RunMigrations(cfg.DatabaseURL, migrationsFS); err != nil {
			slog.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}
		store = repository.NewPaymentStore(pool)
	}

	var renderer qrrender.Renderer = qrrender.Disabled{}
	if cfg.QRRenderURL != "" {
		renderer = qrrender.NewClient(cfg.QRRenderURL)
	}

	breakerCfg := resilience.BreakerConfig{
		WindowSize:       cfg.BreakerWindow,
		FailureThreshold: cfg.BreakerThreshold,
		Cooldown:         cfg.BreakerCooldown,
		HalfOpenMax:      2,
	}
	retryCfg := resilience.RetryConfig{
		MaxAttempts: cfg.RetryAttempts,
		BaseDelay:   cfg.RetryBaseDelay,
		MaxDelay:    2 * time.Second,
	}

	// One breaker per gateway operation type
	registerBreaker := resilience.NewBreaker(breakerCfg, time.Now)
	statusBreaker := resilience.NewBreaker(breakerCfg, time.Now)

	payments := service.New(service.Deps{
		Cfg:             cfg,
		Boleto:          boletoGen,
		Registry:        registry.New(),
		Gateway:         gateway.NewClient(cfg.GatewayURL, cfg.GatewayAPIKey),
		Renderer:        renderer,
		Store:           store,
		RegisterInvoker: resilience.NewInvoker("register-payment", registerBreaker, retryCfg, cfg.RegisterTimeout),
		StatusInvoker:   resilience.NewInvoker("status-check", statusBreaker, retryCfg, cfg.StatusTimeout),
	})

	if cfg.OverdueSweepInterval > 0 {
		go worker.NewOverdueSweeper(payments, cfg.OverdueSweepInterval).Run(ctx)
	}

	h := handler.New(payments)
	srv := &http.Server{
		Addr:    ":" + strconv.Itoa(cfg.Port),
		Handler: h.Router(),
	}

	go func() {
		slog.Info("starting payment engine", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
	slog.Info("payment engine stopped gracefully")
}
