// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"stockcore/internal/domain/auth"
	"stockcore/internal/domain/catalogs/product"
	"stockcore/internal/domain/catalogs/supplier"
	"stockcore/internal/domain/catalogs/warehouse"
	"stockcore/internal/domain/costing"
	"stockcore/internal/domain/engine"
	"stockcore/internal/infrastructure/http/v1/handlers"
	"stockcore/internal/infrastructure/http/v1/middleware"
	"stockcore/internal/infrastructure/storage/postgres"
	"stockcore/pkg/logger"
)

// RouterConfig holds the wired services the API exposes.
type RouterConfig struct {
	Pool   *postgres.Pool
	Logger *logger.Logger

	JWTValidator middleware.JWTValidator
	AuthService  *auth.Service
	Users        auth.UserRepository

	Engine         *engine.Engine
	CostingService *costing.Service
	CostStore      costing.Store

	Products   *product.Service
	Warehouses *warehouse.Service
	Suppliers  *supplier.Service

	// Audit is optional; nil disables operation auditing.
	Audit *postgres.AuditService
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth)
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	baseHandler := handlers.NewBaseHandler()

	// API v1
	api := router.Group("/api/v1")
	{
		authHandler := handlers.NewAuthHandler(baseHandler, cfg.AuthService, cfg.Users)

		// Public auth endpoints
		public := api.Group("/auth")
		{
			public.POST("/register", authHandler.Register)
			public.POST("/login", authHandler.Login)
		}

		// Everything else requires a valid token
		protected := api.Group("")
		protected.Use(middleware.Auth(cfg.JWTValidator))

		protected.GET("/auth/me", authHandler.Me)

		registerCatalogRoutes(protected, baseHandler, cfg)
		registerStockRoutes(protected, baseHandler, cfg)
		registerCostingRoutes(protected, baseHandler, cfg)
	}

	return router
}

func registerCatalogRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	catalogs := rg.Group("/catalogs")

	{
		handler := handlers.NewProductHandler(base, cfg.Products)
		g := catalogs.Group("/products")
		g.POST("", handler.Create)
		g.GET("", handler.List)
		g.GET("/by-code/:code", handler.GetByCode)
		g.GET("/:id", handler.Get)
		g.PUT("/:id", handler.Update)
		g.DELETE("/:id", handler.Delete)
		g.POST("/:id/deletion-mark", handler.SetDeletionMark)
	}

	{
		handler := handlers.NewWarehouseHandler(base, cfg.Warehouses)
		g := catalogs.Group("/warehouses")
		g.POST("", handler.Create)
		g.GET("", handler.List)
		g.GET("/default", handler.GetDefault)
		g.GET("/:id", handler.Get)
		g.PUT("/:id", handler.Update)
		g.DELETE("/:id", handler.Delete)
		g.POST("/:id/deletion-mark", handler.SetDeletionMark)
	}

	{
		handler := handlers.NewSupplierHandler(base, cfg.Suppliers)
		g := catalogs.Group("/suppliers")
		g.POST("", handler.Create)
		g.GET("", handler.List)
		g.GET("/:id", handler.Get)
		g.PUT("/:id", handler.Update)
		g.DELETE("/:id", handler.Delete)
		g.POST("/:id/deletion-mark", handler.SetDeletionMark)
	}
}

func registerStockRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	handler := handlers.NewStockHandler(base, cfg.Engine, cfg.Audit)

	stock := rg.Group("/stock")
	stock.POST("/operations", handler.Apply)
	stock.POST("/level", handler.SetLevel)
	stock.GET("/products/:productId", handler.CurrentStock)
	stock.GET("/products/:productId/lots", handler.Lots)
	stock.GET("/products/:productId/history", handler.History)
	stock.GET("/products/:productId/value", handler.ProductValue)
	stock.GET("/warehouses/:warehouseId/value", handler.WarehouseValue)
	stock.GET("/warehouses/:warehouseId/products", handler.WarehouseProducts)
}

func registerCostingRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	handler := handlers.NewCostingHandler(base, cfg.CostingService, cfg.CostStore)

	costs := rg.Group("/costing")
	costs.GET("/products/:productId/records", handler.ProductCosts)
	costs.GET("/products/:productId/average", handler.AverageCost)
	costs.POST("/products/:productId/average", handler.RecomputeAverage)
	costs.GET("/suppliers/:supplierId/history", handler.SupplierHistory)
}
