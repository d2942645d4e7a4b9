package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/ellcworth/shipment-service/pkg/kafka"
	"github.com/ellcworth/shipment-service/pkg/logging"
	"github.com/ellcworth/shipment-service/pkg/metrics"
	"github.com/ellcworth/shipment-service/pkg/middleware"
	"github.com/ellcworth/shipment-service/pkg/mongodb"
	"github.com/ellcworth/shipment-service/pkg/outbox"

	"github.com/ellcworth/shipment-service/internal/api/handlers"
	"github.com/ellcworth/shipment-service/internal/application"
	"github.com/ellcworth/shipment-service/internal/domain"
	mongoRepo "github.com/ellcworth/shipment-service/internal/infrastructure/mongodb"
)

const serviceName = "shipment-service"

func main() {
	// Load .env if present, environment wins over file values
	_ = godotenv.Load()

	logConfig := logging.DefaultConfig(serviceName)
	logConfig.Level = logging.LogLevel(getEnv("LOG_LEVEL", "info"))
	logger := logging.New(logConfig)
	logger.SetDefault()

	logger.Info("Starting shipment-service API")

	config := loadConfig()
	ctx := context.Background()

	// Initialize Prometheus metrics
	m := metrics.New(metrics.DefaultConfig(serviceName))
	logger.Info("Metrics initialized")

	// Initialize MongoDB
	mongoClient, err := mongodb.NewClient(ctx, config.MongoDB)
	if err != nil {
		logger.Error("Failed to connect to MongoDB", "error", err)
		os.Exit(1)
	}
	defer mongoClient.Close(ctx)
	logger.Info("Connected to MongoDB", "database", config.MongoDB.Database)

	// Initialize Kafka producer
	producer := kafka.NewProducer(config.Kafka)
	defer producer.Close()
	logger.Info("Kafka producer initialized", "brokers", config.Kafka.Brokers)

	// Initialize repositories
	repo := mongoRepo.NewShipmentRepository(mongoClient.Database())
	counters := mongoRepo.NewCounterRepository(mongoClient.Database())

	// Initialize and start outbox publisher
	outboxPublisher := outbox.NewPublisher(
		repo.GetOutboxRepository(),
		producer,
		logger,
		m,
		&outbox.PublisherConfig{
			PollInterval: 1 * time.Second,
			BatchSize:    100,
		},
	)
	if err := outboxPublisher.Start(ctx); err != nil {
		logger.Error("Failed to start outbox publisher", "error", err)
		os.Exit(1)
	}
	defer outboxPublisher.Stop()
	logger.Info("Outbox publisher started")

	// Initialize application service
	references := domain.NewReferenceGenerator(counters, repo.ExistsReference)
	shipmentService := application.NewShipmentApplicationService(repo, references, logger, m)

	// Initialize handlers
	shipmentHandler := handlers.NewShipmentHandler(shipmentService, logger)

	// Setup Gin router with middleware
	router := gin.New()

	middlewareConfig := middleware.DefaultConfig(serviceName, logger.Logger)
	middleware.Setup(router, middlewareConfig)
	router.Use(middleware.MetricsMiddleware(m))

	router.NoRoute(middleware.NoRoute())
	router.NoMethod(middleware.NoMethod())

	// Health check endpoints
	router.GET("/health", middleware.HealthCheck(serviceName))
	router.GET("/ready", middleware.ReadinessCheck(serviceName, func() error {
		return mongoClient.HealthCheck(ctx)
	}))

	// Metrics endpoint
	router.GET("/metrics", middleware.MetricsEndpoint(m))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		shipments := v1.Group("/shipments")
		{
			shipments.POST("", shipmentHandler.CreateShipment)
			shipments.GET("", shipmentHandler.ListShipments)
			shipments.GET("/:shipmentId", shipmentHandler.GetShipment)
			shipments.PATCH("/:shipmentId", shipmentHandler.UpdateShipment)
			shipments.DELETE("/:shipmentId", shipmentHandler.DeleteShipment)
			shipments.PUT("/:shipmentId/status", shipmentHandler.ChangeStatus)
			shipments.GET("/:shipmentId/tracking", shipmentHandler.GetTracking)
			shipments.POST("/:shipmentId/tracking", shipmentHandler.AppendTracking)
			shipments.POST("/:shipmentId/documents", shipmentHandler.AttachDocument)
			shipments.POST("/:shipmentId/surcharges", shipmentHandler.AddSurcharge)
			shipments.POST("/:shipmentId/payments", shipmentHandler.RecordPayment)
			shipments.GET("/reference/:reference", shipmentHandler.GetByReference)
		}
	}

	// Start server
	srv := &http.Server{
		Addr:         config.ServerAddr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	// Graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server error", "error", err)
		}
	}()
	logger.Info("Server started", "addr", config.ServerAddr)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	logger.Info("Server stopped")
}

// Config holds application configuration
type Config struct {
	ServerAddr string
	MongoDB    *mongodb.Config
	Kafka      *kafka.Config
}

func loadConfig() *Config {
	return &Config{
		ServerAddr: getEnv("SERVER_ADDR", ":8080"),
		MongoDB: &mongodb.Config{
			URI:            getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database:       getEnv("MONGODB_DATABASE", "shipments_db"),
			ConnectTimeout: 10 * time.Second,
			MaxPoolSize:    100,
			MinPoolSize:    10,
		},
		Kafka: &kafka.Config{
			Brokers:      []string{getEnv("KAFKA_BROKERS", "localhost:9092")},
			ClientID:     serviceName,
			BatchSize:    100,
			BatchTimeout: 10 * time.Millisecond,
			RequiredAcks: -1,
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
