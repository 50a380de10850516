package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/gorilla/mux"

	"github.com/wearhouse/storefront/internal/api"
	"github.com/wearhouse/storefront/internal/audit"
	"github.com/wearhouse/storefront/internal/auth"
	"github.com/wearhouse/storefront/internal/db"
	"github.com/wearhouse/storefront/internal/metrics"
	"github.com/wearhouse/storefront/internal/repository/mysql"
	"github.com/wearhouse/storefront/internal/services"
	"github.com/wearhouse/storefront/pkg/config"
)

func main() {
	// Load configuration
	cfg := config.LoadConfig()

	// Initialize OpenTelemetry metrics
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appMetrics, meterProvider, err := metrics.InitMetrics(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize metrics: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := meterProvider.Shutdown(shutdownCtx); err != nil {
			log.Printf("Error shutting down meter provider: %v", err)
		}
	}()

	// Initialize database
	database, err := db.NewDB(cfg.GetDSN(), cfg.OTELServiceName)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	// Initialize schema
	schemaSQL, err := os.ReadFile("schema.sql")
	if err != nil {
		log.Printf("Warning: Could not read schema.sql: %v", err)
		log.Println("Assuming database schema already exists")
	} else {
		if err := database.InitSchema(ctx, string(schemaSQL)); err != nil {
			log.Printf("Warning: Could not initialize schema: %v", err)
			log.Println("Assuming database schema already exists")
		}
	}

	store := mysql.NewStore(database, appMetrics)
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)

	// Audit pipeline: admin mutations flow through an in-process pub/sub
	// into the persistent action log. The recorder subscribes before any
	// route can publish, so startup-window mutations are never unlogged.
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NewStdLogger(false, false))
	defer pubSub.Close()
	auditPublisher := audit.NewPublisher(pubSub)
	if err := audit.NewRecorder(store).Start(ctx, pubSub); err != nil {
		log.Fatalf("Failed to start audit recorder: %v", err)
	}

	// Initialize services. Cart and checkout share one lock registry so
	// a user's cart mutations serialize with their checkout.
	locks := services.NewUserLocks()
	catalogService := services.NewCatalogService(store)
	cartService := services.NewCartService(store, appMetrics, locks)
	orderService := services.NewOrderService(store, appMetrics, locks)
	accountService := services.NewAccountService(store, tokens)
	favoriteService := services.NewFavoriteService(store)
	adminService := services.NewAdminService(store, auditPublisher)

	go cartService.RunActiveCartGauge(ctx, 30*time.Second)

	// Initialize app
	app := api.NewApp(cfg, appMetrics, tokens,
		catalogService, cartService, orderService,
		accountService, favoriteService, adminService)

	// Setup router
	router := mux.NewRouter()
	app.SetupRoutes(router)

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server starting on port %s", cfg.AppPort)
		log.Printf("OTLP endpoint: %s", cfg.OTELExporterOTLPEndpoint)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	cancel()

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
