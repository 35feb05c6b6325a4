package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/timi233/channel-target-api/internal/auth"
	"github.com/timi233/channel-target-api/internal/config"
	"github.com/timi233/channel-target-api/internal/database"
	"github.com/timi233/channel-target-api/internal/http/handler"
	"github.com/timi233/channel-target-api/internal/http/middleware"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Router struct {
	cfg                *config.Config
	logger             *zap.Logger
	db                 *gorm.DB
	authMiddleware     *auth.Middleware
	rateLimiter        *middleware.RateLimiter
	targetHandler      *handler.TargetHandler
	allocationHandler  *handler.AllocationHandler
	distributorHandler *handler.DistributorHandler
}

func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	authMiddleware *auth.Middleware,
	rateLimiter *middleware.RateLimiter,
	targetHandler *handler.TargetHandler,
	allocationHandler *handler.AllocationHandler,
	distributorHandler *handler.DistributorHandler,
) *Router {
	return &Router{
		cfg:                cfg,
		logger:             logger,
		db:                 db,
		authMiddleware:     authMiddleware,
		rateLimiter:        rateLimiter,
		targetHandler:      targetHandler,
		allocationHandler:  allocationHandler,
		distributorHandler: distributorHandler,
	}
}

func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.Logging(rt.logger))
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(&rt.cfg.CORS, rt.cfg.App.Environment, rt.logger))
	r.Use(rt.rateLimiter.Limit)

	// Health check (basic liveness probe)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// Database health check (readiness probe with pool stats)
	r.Get("/health/db", func(w http.ResponseWriter, r *http.Request) {
		stats, err := database.HealthCheckWithStats(rt.db)
		if err != nil {
			rt.logger.Error("Database health check failed", zap.Error(err))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"status":  "unhealthy",
				"error":   err.Error(),
				"service": "database",
			})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  "healthy",
			"service": "database",
			"stats": map[string]interface{}{
				"max_open_connections": stats.MaxOpenConnections,
				"open_connections":     stats.OpenConnections,
				"in_use":               stats.InUse,
				"idle":                 stats.Idle,
				"wait_count":           stats.WaitCount,
				"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
			},
		})
	})

	// Combined readiness check
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		checks := make(map[string]interface{})
		healthy := true

		if err := database.HealthCheck(rt.db); err != nil {
			rt.logger.Error("Database health check failed", zap.Error(err))
			checks["database"] = map[string]interface{}{
				"status": "unhealthy",
				"error":  err.Error(),
			}
			healthy = false
		} else {
			checks["database"] = map[string]interface{}{"status": "healthy"}
		}

		w.Header().Set("Content-Type", "application/json")
		status := "healthy"
		code := http.StatusOK
		if !healthy {
			status = "unhealthy"
			code = http.StatusServiceUnavailable
		}
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status": status,
			"checks": checks,
		})
	})

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(rt.authMiddleware.Authenticate)

			// Targets
			r.Route("/targets", func(r chi.Router) {
				r.Get("/", rt.targetHandler.List)
				r.Post("/", rt.targetHandler.Create)
				r.Get("/{id}", rt.targetHandler.Get)
				r.Put("/{id}", rt.targetHandler.Update)
				r.Delete("/{id}", rt.targetHandler.Delete)
				r.Get("/{id}/allocations", rt.allocationHandler.ListByTarget)
				r.Post("/{id}/allocations", rt.allocationHandler.Allocate)
			})

			// Allocations
			r.Route("/allocations", func(r chi.Router) {
				r.Put("/{id}/completion", rt.allocationHandler.UpdateCompletion)
				r.Delete("/{id}", rt.allocationHandler.Delete)
			})

			// Bottom-up distributor targets
			r.Post("/distributor-targets", rt.allocationHandler.UpsertDistributorTarget)

			// Distributors
			r.Route("/distributors", func(r chi.Router) {
				r.Get("/", rt.distributorHandler.List)
				r.Post("/", rt.distributorHandler.Create)
				r.Get("/{id}", rt.distributorHandler.Get)
				r.Put("/{id}", rt.distributorHandler.Update)
				r.Delete("/{id}", rt.distributorHandler.Delete)
				r.Get("/{id}/targets", rt.allocationHandler.ListByDistributor)
			})
		})
	})

	return r
}
