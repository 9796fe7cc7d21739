package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"storefront-system/internal/catalog"
	"storefront-system/internal/config"
	"storefront-system/internal/coupon"
	"storefront-system/internal/database"
	"storefront-system/internal/identity"
	"storefront-system/internal/logger"
	"storefront-system/internal/messaging"
	"storefront-system/internal/pricing"
	"storefront-system/internal/services/checkout"
)

func main() {
	var (
		port       = flag.Int("port", 3000, "HTTP port")
		configPath = flag.String("config", "config.yaml", "Path to configuration file")
	)
	flag.Parse()

	// Secrets come from the environment; .env is optional in development.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New("storefront")
	requestID := logger.GenerateRequestID()

	log.Info("service_started", "Starting storefront service", requestID, map[string]interface{}{
		"port":  *port,
		"store": cfg.Store.Name,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info("graceful_shutdown", "Received shutdown signal", requestID, nil)
		cancel()
	}()

	if err := run(ctx, cfg, log, *port); err != nil {
		log.Error("service_failed", "Storefront service failed", requestID, err, nil)
		os.Exit(1)
	}

	log.Info("service_stopped", "Service stopped gracefully", requestID, nil)
}

func run(ctx context.Context, cfg *config.Config, log *logger.Logger, port int) error {
	requestID := logger.GenerateRequestID()

	db, err := database.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	log.Info("db_connected", "Connected to PostgreSQL database", requestID, nil)

	if err := db.RunMigrations(ctx, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	conn, err := messaging.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize messaging: %w", err)
	}
	defer conn.Close()

	log.Info("rabbitmq_connected", "Connected to RabbitMQ", requestID, nil)

	catalogService := catalog.NewService(catalog.NewStore(db), log)
	if err := catalogService.Reload(ctx); err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	// Catalog change notifications trigger full snapshot reloads for the
	// lifetime of the service.
	consumer := messaging.NewConsumer(conn, log, messaging.CatalogQueue, "storefront-catalog", 1)
	go func() {
		if err := catalogService.Subscribe(ctx, consumer); err != nil && ctx.Err() == nil {
			log.Error("catalog_subscription_failed", "Catalog consumer stopped", requestID, err, nil)
		}
	}()

	couponService := coupon.NewService(coupon.NewPostgresStore(db), log)
	profiles := identity.NewProvider(db, log)
	sales := checkout.NewPostgresSales(db)
	publisher := messaging.NewPublisher(conn, log)

	service := checkout.NewService(db, catalogService, couponService, profiles,
		sales, publisher, pricing.NewPolicy(cfg.Store.TaxRate), cfg.Store, log)
	handler := checkout.NewHandler(service, log)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: handler.SetupRoutes(),
	}

	go func() {
		log.Info("http_listening", fmt.Sprintf("Storefront started on port %d", port), requestID, map[string]interface{}{
			"port": port,
		})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server_failed", "HTTP server failed", requestID, err, nil)
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	return server.Shutdown(shutdownCtx)
}
