// Package main provides a CLI tool for seeding the database with initial data.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"stockcore/internal/core/id"
	"stockcore/internal/core/types"
	"stockcore/internal/domain/auth"
	"stockcore/internal/domain/catalogs/product"
	"stockcore/internal/domain/catalogs/supplier"
	"stockcore/internal/domain/catalogs/warehouse"
	"stockcore/internal/infrastructure/storage/postgres"
	"stockcore/internal/infrastructure/storage/postgres/auth_repo"
	"stockcore/internal/infrastructure/storage/postgres/catalog_repo"
	"stockcore/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(dbURL))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	txManager := postgres.NewTxManager(pool)

	if err := seedAdminUser(ctx, pool, txManager, log); err != nil {
		log.Fatalw("failed to seed admin user", "error", err)
	}

	if os.Getenv("SEED_DEMO_DATA") == "true" {
		if err := seedDemoData(ctx, txManager, log); err != nil {
			log.Fatalw("failed to seed demo data", "error", err)
		}
	}

	log.Info("seeding completed successfully")
}

func seedAdminUser(ctx context.Context, pool *postgres.Pool, txManager *postgres.TxManager, log *logger.Logger) error {
	adminEmail := getEnv("ADMIN_EMAIL", "admin@stockcore.local")
	adminPassword := getEnv("ADMIN_PASSWORD", "Admin123!")

	var existingID id.ID
	err := pool.QueryRow(ctx, `SELECT id FROM users WHERE email = $1`, adminEmail).Scan(&existingID)
	if err == nil {
		log.Infow("admin user already exists", "email", adminEmail, "user_id", existingID)
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("check admin exists: %w", err)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	admin := auth.NewUser(adminEmail, string(passwordHash))
	admin.FullName = "Administrator"
	admin.IsAdmin = true
	admin.Roles = []string{"admin"}

	if err := auth_repo.NewUserRepo(txManager).Create(ctx, admin); err != nil {
		return err
	}

	log.Infow("admin user created", "email", adminEmail, "user_id", admin.ID)
	return nil
}

func seedDemoData(ctx context.Context, txManager *postgres.TxManager, log *logger.Logger) error {
	warehouseRepo := catalog_repo.NewWarehouseRepo(txManager)
	supplierRepo := catalog_repo.NewSupplierRepo(txManager)
	productRepo := catalog_repo.NewProductRepo(txManager)

	warehouseService := warehouse.NewService(warehouseRepo, txManager)
	supplierService := supplier.NewService(supplierRepo, txManager)
	productService := product.NewService(productRepo, txManager)

	if exists, err := warehouseRepo.ExistsByCode(ctx, "WH-MAIN"); err != nil {
		return err
	} else if exists {
		log.Info("demo data already present, skipping")
		return nil
	}

	mainWh := warehouse.NewWarehouse("WH-MAIN", "Main warehouse", warehouse.TypeMain)
	mainWh.IsDefault = true
	if err := warehouseService.Create(ctx, mainWh); err != nil {
		return fmt.Errorf("create main warehouse: %w", err)
	}

	retail := warehouse.NewWarehouse("WH-RETAIL", "Retail store", warehouse.TypeRetail)
	if err := warehouseService.Create(ctx, retail); err != nil {
		return fmt.Errorf("create retail warehouse: %w", err)
	}

	acme := supplier.NewSupplier("SUP-ACME", "Acme Wholesale")
	email := "orders@acme.example"
	acme.Email = &email
	if err := supplierService.Create(ctx, acme); err != nil {
		return fmt.Errorf("create supplier: %w", err)
	}

	demoProducts := []struct {
		code, name string
		price      float64
		threshold  float64
	}{
		{"PRD-WIDGET", "Widget", 14.99, 10},
		{"PRD-GADGET", "Gadget", 34.50, 5},
		{"PRD-SPROCKET", "Sprocket", 4.25, 0},
	}
	for _, d := range demoProducts {
		p := product.NewProduct(d.code, d.name)
		p.SalePrice = types.NewMoney(d.price)
		p.LowStockThreshold = types.NewQuantityFromFloat64(d.threshold)
		if err := productService.Create(ctx, p); err != nil {
			return fmt.Errorf("create product %s: %w", d.code, err)
		}
	}

	log.Info("demo data created")
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
