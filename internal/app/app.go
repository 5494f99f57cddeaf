package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/olumide-dev/bankledger/internal/api"
	"github.com/olumide-dev/bankledger/internal/api/middleware"
	"github.com/olumide-dev/bankledger/internal/config"
	"github.com/olumide-dev/bankledger/internal/db"
	"github.com/olumide-dev/bankledger/internal/gateway"
	"github.com/olumide-dev/bankledger/internal/idempotency"
	"github.com/olumide-dev/bankledger/internal/observability"
	"github.com/olumide-dev/bankledger/internal/repository/postgres"
	"github.com/olumide-dev/bankledger/internal/service"
	"github.com/olumide-dev/bankledger/internal/worker"
)

// Run wires configuration, storage, services and the HTTP server,
// then blocks until a shutdown signal arrives.
func Run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck
	zap.ReplaceGlobals(logger)

	observability.Init()
	middleware.SetJWTSecret(cfg.JWTSecret)
	middleware.SetJWTValidation(cfg.JWTIssuer, cfg.JWTAudience)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	redisClient, err := newRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer redisClient.Close()

	idemStore := idempotency.NewStore(redisClient, cfg.IdempotencyTTL)

	store := postgres.NewStore(pool)
	notifier := service.NewNotificationService(store, cfg.NotificationWorkers)
	referrals := service.NewReferralService(store, notifier, cfg.ReferralRewardCents)
	auth := service.NewAuthService(store, referrals, service.TokenConfig{
		Secret:   cfg.JWTSecret,
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      cfg.JWTTTL,
	}, cfg.DefaultCurrency)
	ledger := service.NewLedgerService(store, notifier, gateway.NewMockBillerGateway())
	ledger.SetCompletionHook(referrals.RewardOnCompletion)
	approvals := service.NewApprovalService(store, notifier)
	accounts := service.NewAccountService(store)
	reconciliation := service.NewReconciliationService(store, cfg.DefaultCurrency)

	stopWorker := worker.NewReconciliationWorker(reconciliation).
		WithInterval(cfg.ReconciliationInterval).
		Run(ctx)
	defer stopWorker()

	router := api.NewRouter(cfg, logger, api.Services{
		Auth:      auth,
		Accounts:  accounts,
		Ledger:    ledger,
		Approvals: approvals,
		Referrals: referrals,
	}, pool, redisClient, idemStore)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case sig := <-sigCh:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	if err := notifier.Shutdown(shutdownCtx); err != nil {
		logger.Warn("notification drain incomplete", zap.Error(err))
	}
	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}

func newRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}
