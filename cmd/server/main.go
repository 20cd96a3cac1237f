// Package main is the entry point for the stockcore API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stockcore/internal/core/id"
	"stockcore/internal/core/ref"
	"stockcore/internal/core/types"
	"stockcore/internal/domain/auth"
	"stockcore/internal/domain/catalogs/product"
	"stockcore/internal/domain/catalogs/supplier"
	"stockcore/internal/domain/catalogs/warehouse"
	"stockcore/internal/domain/costing"
	"stockcore/internal/domain/engine"
	v1 "stockcore/internal/infrastructure/http/v1"
	"stockcore/internal/infrastructure/storage/postgres"
	"stockcore/internal/infrastructure/storage/postgres/auth_repo"
	"stockcore/internal/infrastructure/storage/postgres/catalog_repo"
	"stockcore/internal/infrastructure/storage/postgres/cost_repo"
	"stockcore/internal/infrastructure/storage/postgres/ledger_repo"
	"stockcore/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Info("starting stockcore server")

	// --- Database ---
	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(mustEnv("DATABASE_URL")))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool)

	// --- Repositories ---
	mutationRepo := ledger_repo.NewMutationRepo(txManager)
	costRepo := cost_repo.NewCostRepo(txManager)
	productRepo := catalog_repo.NewProductRepo(txManager)
	warehouseRepo := catalog_repo.NewWarehouseRepo(txManager)
	supplierRepo := catalog_repo.NewSupplierRepo(txManager)
	userRepo := auth_repo.NewUserRepo(txManager)

	// --- Catalog services ---
	productService := product.NewService(productRepo, txManager)
	warehouseService := warehouse.NewService(warehouseRepo, txManager)
	supplierService := supplier.NewService(supplierRepo, txManager)

	// --- Costing ---
	costingService := costing.NewService(costRepo, mutationRepo, productRepo)

	// --- Reference registry ---
	// Stock operations may carry a reference to the originating entity;
	// unknown targets are rejected before anything hits the ledger.
	// Documents live outside this service, so their refs pass unchecked.
	registry := ref.NewRegistry()
	registry.Register(ref.KindProduct, existsResolver(productRepo.Exists))
	registry.Register(ref.KindWarehouse, existsResolver(warehouseRepo.Exists))
	registry.Register(ref.KindSupplier, existsResolver(supplierRepo.Exists))
	registry.Register(ref.KindDocument, ref.ResolverFunc(
		func(ctx context.Context, entityID id.ID) (bool, error) { return true, nil },
	))

	// --- Stock engine ---
	method := engine.Method(getEnv("STOCK_METHOD", string(engine.FIFO)))
	eng, err := engine.New(
		engine.Config{Method: method},
		mutationRepo,
		costRepo,
		costingService,
		engine.WithNotifier(logNotifier{log}, productService.Threshold),
		engine.WithReferenceRegistry(registry),
	)
	if err != nil {
		log.Fatalw("failed to build stock engine", "error", err)
	}
	log.Infow("stock engine initialized", "method", method)

	// --- Auth ---
	jwtSecret := getEnv("JWT_SECRET", "change-me-in-production")
	jwtService := auth.NewJWTService(auth.DefaultJWTConfig(jwtSecret))
	authService := auth.NewService(userRepo, txManager, jwtService, auth.DefaultServiceConfig())

	// --- Audit ---
	auditService, err := postgres.NewAuditService(txManager)
	if err != nil {
		log.Fatalw("failed to initialize audit service", "error", err)
	}
	defer auditService.Close()

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Pool:           pool,
		Logger:         log,
		JWTValidator:   jwtService,
		AuthService:    authService,
		Users:          userRepo,
		Engine:         eng,
		CostingService: costingService,
		CostStore:      costRepo,
		Products:       productService,
		Warehouses:     warehouseService,
		Suppliers:      supplierService,
		Audit:          auditService,
	})

	// --- HTTP server ---
	port := getEnv("APP_PORT", "8080")
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

// logNotifier logs low-stock signals. Delivery channels (mail, queues)
// belong to consumers of the API, not this service.
type logNotifier struct {
	log *logger.Logger
}

func (n logNotifier) LowStock(ctx context.Context, productID, warehouseID id.ID, remaining types.Quantity) {
	n.log.WithContext(ctx).Warnw("stock below threshold",
		"product_id", productID.String(),
		"warehouse_id", warehouseID.String(),
		"remaining", remaining.Float64(),
	)
}

// existsResolver adapts a repository Exists method to a ref.Resolver.
func existsResolver(exists func(ctx context.Context, entityID id.ID) (bool, error)) ref.Resolver {
	return ref.ResolverFunc(exists)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s not set\n", key)
		os.Exit(1)
	}
	return value
}
