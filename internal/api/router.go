package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"

	"github.com/olumide-dev/bankledger/internal/api/handler"
	"github.com/olumide-dev/bankledger/internal/api/middleware"
	"github.com/olumide-dev/bankledger/internal/api/spec"
	"github.com/olumide-dev/bankledger/internal/config"
	"github.com/olumide-dev/bankledger/internal/idempotency"
	"github.com/olumide-dev/bankledger/internal/service"
)

// Services bundles the application services the router exposes.
type Services struct {
	Auth      *service.AuthService
	Accounts  *service.AccountService
	Ledger    *service.LedgerService
	Approvals *service.ApprovalService
	Referrals *service.ReferralService
}

type Router struct {
	cfg    *config.Config
	logger *zap.Logger
	svcs   Services
	pool   *pgxpool.Pool
	redis  redis.Cmdable
	idem   *idempotency.Store
}

func NewRouter(cfg *config.Config, logger *zap.Logger, svcs Services, pool *pgxpool.Pool, redisClient redis.Cmdable, idem *idempotency.Store) *Router {
	return &Router{
		cfg:    cfg,
		logger: logger,
		svcs:   svcs,
		pool:   pool,
		redis:  redisClient,
		idem:   idem,
	}
}

func (api *Router) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.TraceMiddleware)
	r.Use(middleware.RecoverMiddleware(api.logger))
	r.Use(middleware.LoggingMiddleware(api.logger))
	r.Use(middleware.MetricsMiddleware)

	authHandler := handler.NewAuthHandler(api.svcs.Auth)
	accountHandler := handler.NewAccountHandler(api.svcs.Accounts)
	ledgerHandler := handler.NewLedgerHandler(api.svcs.Ledger, api.svcs.Accounts)
	transferHandler := handler.NewTransferHandler(api.svcs.Ledger, api.svcs.Accounts)
	requestHandler := handler.NewRequestHandler(api.svcs.Approvals, api.svcs.Accounts)
	referralHandler := handler.NewReferralHandler(api.svcs.Referrals, api.svcs.Accounts)
	adminHandler := handler.NewAdminHandler(api.svcs.Ledger)
	healthHandler := handler.NewHealthHandler(api.pool, api.redis)

	idem := middleware.IdempotencyMiddleware(api.idem, api.logger)

	// Operational endpoints.
	r.Get("/healthz/live", healthHandler.Live)
	r.Get("/healthz/ready", healthHandler.Ready)
	r.Method("GET", "/metrics", promhttp.Handler())
	r.Get("/openapi.yaml", spec.OpenAPIHandler())
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/openapi.yaml")))

	// Public routes.
	r.Group(func(r chi.Router) {
		r.Use(middleware.PublicRateLimiter(api.cfg.PublicRateLimitRPS))
		r.Post("/v1/auth/register", authHandler.Register)
		r.Post("/v1/auth/login", authHandler.Login)
	})

	// Authenticated routes.
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware)
		r.Use(middleware.AuthRateLimiter(api.cfg.AuthRateLimitRPS))

		r.Get("/v1/accounts/me", accountHandler.Me)
		r.Get("/v1/accounts/{id}/balance", accountHandler.GetBalance)
		r.Get("/v1/accounts/{id}/statement", accountHandler.GetStatement)
		r.Get("/v1/accounts/{id}/notifications", accountHandler.GetNotifications)
		r.Get("/v1/accounts/{id}/card", accountHandler.GetCard)
		r.Get("/v1/accounts/{id}/bill-payments", accountHandler.GetBillPayments)

		r.With(idem).Post("/v1/ledger/deposit", ledgerHandler.Deposit)
		r.With(idem).Post("/v1/ledger/withdraw", ledgerHandler.Withdraw)
		r.With(idem).Post("/v1/ledger/bill-payments", ledgerHandler.PayBill)

		r.With(idem).Post("/v1/transfers", transferHandler.Submit)
		r.Get("/v1/transfers/{id}", transferHandler.Get)

		r.Post("/v1/requests/card", requestHandler.SubmitCard)
		r.Post("/v1/requests/kyc", requestHandler.SubmitKYC)
		r.Post("/v1/requests/loan", requestHandler.SubmitLoan)
		r.Get("/v1/requests", requestHandler.ListMine)
		r.Get("/v1/requests/{id}", requestHandler.Get)

		r.Get("/v1/referrals", referralHandler.ListMine)

		// Admin routes. The role claim gates the route; the services
		// re-check the persisted role before acting.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole("admin"))

			r.Get("/v1/admin/transfers/pending", transferHandler.ListPending)
			r.Post("/v1/admin/transfers/{id}/approve", transferHandler.Approve)
			r.Post("/v1/admin/transfers/{id}/reject", transferHandler.Reject)

			r.Get("/v1/admin/requests", requestHandler.ListAll)
			r.Post("/v1/admin/requests/{id}/resolve", requestHandler.Resolve)

			r.Post("/v1/admin/accounts/{id}/adjust", adminHandler.AdjustBalance)
		})
	})

	return r
}
