// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"recipecost/internal/core/idempotency"
	"recipecost/internal/domain/catalogs/rawmaterial"
	"recipecost/internal/domain/quotation"
	"recipecost/internal/domain/recipe"
	"recipecost/internal/infrastructure/http/v1/handlers"
	"recipecost/internal/infrastructure/http/v1/middleware"
	"recipecost/pkg/logger"
)

// RouterConfig holds router configuration.
type RouterConfig struct {
	// Logger for request logging
	Logger *logger.Logger

	// JWTValidator for token validation; nil accepts anonymous callers only
	JWTValidator middleware.JWTValidator

	// AuthRequired rejects requests without a valid bearer token
	AuthRequired bool

	// ApproverRoles, when set, are required to approve or reject quotations
	ApproverRoles []string

	// Idempotency stores X-Idempotency-Key results; nil disables the middleware
	Idempotency idempotency.Store

	// DB backs the readiness probe; nil when running on the in-memory store
	DB handlers.DatabaseChecker

	// Version reported by /health/info
	Version string

	RawMaterials *rawmaterial.Service
	Recipes      *recipe.Service
	Quotations   *quotation.Service
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()

	log := cfg.Logger
	if log == nil {
		log = logger.Default()
	}

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(log))
	router.Use(middleware.ErrorHandler())

	healthHandler := handlers.NewHealthHandler(cfg.DB, cfg.Version)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	v1 := router.Group("/api/v1")
	if cfg.AuthRequired {
		v1.Use(middleware.Auth(cfg.JWTValidator))
	} else {
		v1.Use(middleware.OptionalAuth(cfg.JWTValidator))
	}
	v1.Use(middleware.UserContext())

	if cfg.Idempotency != nil {
		v1.Use(middleware.Idempotency(cfg.Idempotency))
	}

	base := handlers.NewBaseHandler()

	handlers.NewRawMaterialHandler(base, cfg.RawMaterials).
		RegisterRoutes(v1.Group("/catalog/raw-materials"))

	recipes := v1.Group("/recipes")
	handlers.NewRecipeHandler(base, cfg.Recipes).RegisterRoutes(recipes)

	quotationHandler := handlers.NewQuotationHandler(base, cfg.Quotations)
	quotationHandler.RegisterRecipeRoutes(recipes)
	var statusGuards []gin.HandlerFunc
	if len(cfg.ApproverRoles) > 0 {
		statusGuards = append(statusGuards, middleware.RequireRole(cfg.ApproverRoles...))
	}
	quotationHandler.RegisterRoutes(v1.Group("/quotations"), statusGuards...)

	handlers.NewCostingHandler(base).RegisterRoutes(v1.Group("/costing"))

	return router
}
