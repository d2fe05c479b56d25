package main

import (
	"context"
	"log"
	"pos_sync/internal/auth"
	"pos_sync/internal/cache"
	"pos_sync/internal/config"
	"pos_sync/internal/connectivity"
	"pos_sync/internal/database"
	"pos_sync/internal/handlers"
	"pos_sync/internal/remote"
	"pos_sync/internal/repository"
	"pos_sync/internal/retry"
	"pos_sync/internal/services"
	"pos_sync/pkg/securestore"

	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Open the secure credential store
	secrets, err := securestore.Open(cfg.SecureStorePath, cfg.SecureStorePassphrase)
	if err != nil {
		log.Fatal("Failed to open secure store:", err)
	}
	session := auth.NewSession(secrets)

	// Initialize the local database
	db, err := database.Initialize(cfg.DatabasePath)
	if err != nil {
		log.Fatal("Failed to open local database:", err)
	}

	// Redis projection cache is optional; without it reads hit the store.
	var projections *cache.Client
	if cfg.RedisURL != "" {
		projections, err = cache.Initialize(cfg.RedisURL, cfg.CacheTTL)
		if err != nil {
			log.Fatal("Failed to connect to Redis:", err)
		}
		defer projections.Close()
	}

	// Initialize the remote client
	remoteClient := remote.NewClient(cfg.ServerURL, session)

	// Initialize repositories
	itemRepo := repository.NewItemRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	tombstoneRepo := repository.NewTombstoneRepository(db)

	retrier := retry.NewExecutor()
	retrier.MaxAttempts = cfg.SyncMaxAttempts
	retrier.BaseDelay = cfg.SyncBaseDelay

	// Initialize services
	itemService := services.NewItemService(itemRepo)
	var orderCache services.ProjectionCache
	var statusCache services.StatusCache
	if projections != nil {
		orderCache = projections
		statusCache = projections
	}
	orderService := services.NewOrderService(orderRepo, tombstoneRepo, remoteClient, retrier, orderCache)

	syncService := services.NewSyncService(itemRepo, orderRepo, tombstoneRepo, remoteClient, retrier, session, statusCache)

	// Connectivity transitions to online trigger a full sync cycle.
	monitor := connectivity.NewMonitor()
	go func() {
		for online := range monitor.Subscribe() {
			if !online {
				continue
			}
			log.Println("Connectivity restored, starting sync cycle")
			if err := syncService.Sync(context.Background()); err != nil {
				log.Printf("Sync cycle finished with error: %v", err)
			}
		}
	}()

	// Initialize handlers
	apiHandler := handlers.NewAPIHandler(itemService, orderService, syncService, monitor)

	// Setup routes
	router := gin.Default()

	api := router.Group("/api")
	{
		api.POST("/connectivity", apiHandler.SetConnectivity)

		api.GET("/sync/status", apiHandler.SyncStatus)
		api.POST("/sync/download", apiHandler.Download)
		api.POST("/sync/upload", apiHandler.Upload)

		api.GET("/items", apiHandler.ListItems)
		api.GET("/items/categories", apiHandler.ListCategories)
		api.POST("/items", apiHandler.CreateItem)
		api.PUT("/items/:id", apiHandler.UpdateItem)
		api.DELETE("/items/:id", apiHandler.DeleteItem)

		api.GET("/orders", apiHandler.ListOrders)
		api.GET("/orders/:id", apiHandler.GetOrder)
		api.POST("/orders", apiHandler.CreateOrder)
		api.DELETE("/orders/:id", apiHandler.DeleteOrder)
		api.POST("/orders/:id/items", apiHandler.AddItemToOrder)
		api.DELETE("/orders/:id/items/:item_id", apiHandler.RemoveItemFromOrder)
		api.POST("/orders/:id/paid", apiHandler.MarkOrderAsPaid)
	}

	// Start server
	log.Printf("Sync daemon starting on port %s", cfg.ServerPort)
	if err := router.Run(":" + cfg.ServerPort); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
