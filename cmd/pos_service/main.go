package main

import (
	"context"

	"github.com/gin-gonic/gin"

	authAPI "shoppos/internal/auth/api"
	authRepo "shoppos/internal/auth/repository"
	authService "shoppos/internal/auth/service"
	billingAPI "shoppos/internal/billing/api"
	billingRepo "shoppos/internal/billing/repository"
	billingService "shoppos/internal/billing/service"
	catalogAPI "shoppos/internal/catalog/api"
	catalogRepo "shoppos/internal/catalog/repository"
	catalogService "shoppos/internal/catalog/service"
	"shoppos/internal/platform/config"
	"shoppos/internal/platform/database"
	"shoppos/internal/platform/logger"
	scanAPI "shoppos/internal/scan/api"
	"shoppos/internal/scan/decoder"
	"shoppos/internal/scan/session"
)

func main() {
	serverCfg := config.LoadServerConfig("8080")
	catalogCfg := config.LoadCatalogConfig()
	scanCfg := config.LoadScanConfig()
	authCfg := config.LoadAuthConfig()

	logger.Info("Starting POS service (catalog backend: %s)...", catalogCfg.Backend)

	// Product store + sales ledger + user store, per backend
	var productRepository catalogRepo.ProductRepository
	var saleRepository billingRepo.SaleRepository
	var userRepository authRepo.UserRepository

	switch catalogCfg.Backend {
	case "sheet":
		var err error
		productRepository, err = catalogRepo.NewSheetProductRepository(catalogCfg.SheetPath)
		if err != nil {
			logger.Fatal("Failed to open catalog workbook", err)
		}
		saleRepository = billingRepo.NewMemorySaleRepository()
		userRepository = authRepo.NewMemoryUserRepository()
	default:
		dbCfg := config.LoadPosDBConfig()
		db, err := database.Connect(dbCfg.DSN)
		if err != nil {
			logger.Fatal("Failed to connect to database", err)
		}
		defer db.Close()
		productRepository = catalogRepo.NewPostgresProductRepository(db)
		saleRepository = billingRepo.NewPostgresSaleRepository(db)
		userRepository = authRepo.NewPostgresUserRepository(db)
	}

	// Services
	catalogSvc := catalogService.NewCatalogService(productRepository)
	billingSvc := billingService.NewBillingService(saleRepository, productRepository)
	authSvc := authService.NewAuthService(userRepository, authCfg.JWTSecret)

	if err := authService.SeedOperator(context.Background(), authSvc, authCfg.AdminUser, authCfg.AdminPassword); err != nil {
		logger.Fatal("Failed to seed operator account", err)
	}

	// Scan pipeline
	scanHandler := scanAPI.NewScanHandler()
	scanSession := session.New(decoder.New(), productRepository, billingSvc, scanHandler, session.Config{
		Cooldown:  scanCfg.Cooldown,
		QueueSize: scanCfg.QueueSize,
	})
	scanHandler.SetSession(scanSession)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	scanSession.Start(ctx)
	defer scanSession.Stop()

	// HTTP host
	router := gin.Default()
	router.RedirectTrailingSlash = false

	apiV1 := router.Group("/api/v1")

	authHandler := authAPI.NewAuthHandler(authSvc)
	authHandler.RegisterRoutes(apiV1)

	protected := apiV1.Group("")
	protected.Use(authAPI.RequireAuth(authSvc))

	catalogAPI.NewCatalogHandler(catalogSvc).RegisterRoutes(protected)
	billingAPI.NewBillingHandler(billingSvc).RegisterRoutes(protected)
	scanHandler.RegisterRoutes(protected)

	logger.Info("POS service running on port %s", serverCfg.Port)
	if err := router.Run(serverCfg.Port); err != nil {
		logger.Error("Failed to run POS service server", err, nil)
	}
}
