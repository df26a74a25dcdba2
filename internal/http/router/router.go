package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/verdant-ops/gardenledger/internal/auth"
	"github.com/verdant-ops/gardenledger/internal/config"
	"github.com/verdant-ops/gardenledger/internal/http/handler"
	"github.com/verdant-ops/gardenledger/internal/http/middleware"
	"go.uber.org/zap"
)

// Handlers groups the HTTP handlers mounted by the router
type Handlers struct {
	Health    *handler.HealthHandler
	Plan      *handler.PlanHandler
	Execution *handler.ExecutionHandler
	Closure   *handler.ClosureHandler
	Inventory *handler.InventoryHandler
	Photo     *handler.PhotoHandler
}

type Router struct {
	cfg                    *config.Config
	logger                 *zap.Logger
	authMiddleware         *auth.Middleware
	accountScopeMiddleware *middleware.AccountScopeMiddleware
	rateLimiter            *middleware.RateLimiter
	handlers               Handlers
}

func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	authMiddleware *auth.Middleware,
	accountScopeMiddleware *middleware.AccountScopeMiddleware,
	rateLimiter *middleware.RateLimiter,
	handlers Handlers,
) *Router {
	return &Router{
		cfg:                    cfg,
		logger:                 logger,
		authMiddleware:         authMiddleware,
		accountScopeMiddleware: accountScopeMiddleware,
		rateLimiter:            rateLimiter,
		handlers:               handlers,
	}
}

func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.Recoverer)
	r.Use(middleware.Logging(rt.logger))
	r.Use(middleware.SecurityHeaders(&rt.cfg.Security))
	r.Use(middleware.CORS(&rt.cfg.CORS, rt.cfg.App.Environment, rt.logger))
	r.Use(rt.rateLimiter.LimitByIP)

	// Liveness and readiness probes
	r.Get("/health", rt.handlers.Health.Live)
	r.Get("/health/db", rt.handlers.Health.Database)
	r.Get("/health/ready", rt.handlers.Health.Ready)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(rt.authMiddleware.Authenticate)
		r.Use(rt.accountScopeMiddleware.Scope)
		r.Use(rt.rateLimiter.LimitByAccount)
		if timeout := rt.cfg.Server.RequestTimeoutDuration(); timeout > 0 {
			r.Use(chimw.Timeout(timeout))
		}

		r.Route("/plans", func(r chi.Router) {
			r.Get("/", rt.handlers.Plan.List)
			r.With(rt.authMiddleware.RequirePlanManager).Post("/", rt.handlers.Plan.Create)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", rt.handlers.Plan.GetByID)
				r.Get("/overview", rt.handlers.Plan.Overview)
				r.Get("/status", rt.handlers.Plan.Status)

				// Plan configuration is reserved to plan managers
				r.Group(func(r chi.Router) {
					r.Use(rt.authMiddleware.RequirePlanManager)
					r.Put("/", rt.handlers.Plan.Update)
					r.Post("/pause", rt.handlers.Plan.Pause)
					r.Post("/resume", rt.handlers.Plan.Resume)
					r.Put("/template", rt.handlers.Execution.SaveTemplate)
					r.Post("/close", rt.handlers.Closure.Close)
				})

				// Execution ledger
				r.Get("/template", rt.handlers.Execution.GetTemplate)
				r.Get("/executions", rt.handlers.Execution.List)
				r.Post("/periods/{year}/{month}", rt.handlers.Execution.GetOrCreatePeriod)
				r.Post("/adhoc", rt.handlers.Execution.RecordAdHoc)
				r.Post("/events/{kind}", rt.handlers.Execution.AppendEvent)

				r.Route("/executions/{executionId}", func(r chi.Router) {
					r.Get("/", rt.handlers.Execution.GetByID)
					r.Put("/checklist", rt.handlers.Execution.UpdateChecklist)
					r.Put("/links", rt.handlers.Execution.LinkReferences)
					r.Post("/photos", rt.handlers.Photo.Upload)
					r.Get("/photos", rt.handlers.Photo.Download)
				})
			})
		})

		r.Route("/inventory/movements", func(r chi.Router) {
			r.Get("/", rt.handlers.Inventory.ListMovements)
			r.Post("/", rt.handlers.Inventory.RecordMovement)
			r.Get("/{id}/expense", rt.handlers.Inventory.GetExpense)
		})
	})

	return r
}
