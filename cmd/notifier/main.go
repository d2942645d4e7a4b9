package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/ellcworth/shipment-service/pkg/kafka"
	"github.com/ellcworth/shipment-service/pkg/logging"
	"github.com/ellcworth/shipment-service/pkg/metrics"
	"github.com/ellcworth/shipment-service/pkg/middleware"
	"github.com/ellcworth/shipment-service/pkg/mongodb"

	"github.com/ellcworth/shipment-service/internal/infrastructure/mailer"
	mongoRepo "github.com/ellcworth/shipment-service/internal/infrastructure/mongodb"
	"github.com/ellcworth/shipment-service/internal/notifier"
)

const serviceName = "shipment-notifier"

func main() {
	// Load .env if present, environment wins over file values
	_ = godotenv.Load()

	logConfig := logging.DefaultConfig(serviceName)
	logConfig.Level = logging.LogLevel(getEnv("LOG_LEVEL", "info"))
	logger := logging.New(logConfig)
	logger.SetDefault()

	logger.Info("Starting shipment notifier")

	config := loadConfig()
	ctx := context.Background()

	// Initialize Prometheus metrics
	m := metrics.New(metrics.DefaultConfig(serviceName))

	// Initialize MongoDB
	mongoClient, err := mongodb.NewClient(ctx, config.MongoDB)
	if err != nil {
		logger.Error("Failed to connect to MongoDB", "error", err)
		os.Exit(1)
	}
	defer mongoClient.Close(ctx)
	logger.Info("Connected to MongoDB", "database", config.MongoDB.Database)

	// Initialize Kafka producer for notification events
	producer := kafka.NewProducer(config.Kafka)
	defer producer.Close()

	// Initialize SMTP mailer behind a circuit breaker
	smtpMailer := mailer.NewSMTPMailer(config.SMTP, logger, m)
	logger.Info("SMTP mailer initialized", "host", config.SMTP.Host, "port", config.SMTP.Port)

	// Initialize and start the notification scanner
	repo := mongoRepo.NewShipmentRepository(mongoClient.Database())
	scanner := notifier.NewScanner(repo, smtpMailer, producer, logger, m, &notifier.ScannerConfig{
		ScanInterval: config.ScanInterval,
		SupportEmail: config.SupportEmail,
	})
	if err := scanner.Start(ctx); err != nil {
		logger.Error("Failed to start notification scanner", "error", err)
		os.Exit(1)
	}
	defer scanner.Stop()

	// Small HTTP surface for health and metrics
	router := gin.New()
	middlewareConfig := middleware.DefaultConfig(serviceName, logger.Logger)
	middleware.SetupMinimal(router, middlewareConfig)

	router.GET("/health", middleware.HealthCheck(serviceName))
	router.GET("/ready", middleware.ReadinessCheck(serviceName, func() error {
		return mongoClient.HealthCheck(ctx)
	}))
	router.GET("/metrics", middleware.MetricsEndpoint(m))

	srv := &http.Server{
		Addr:         config.ServerAddr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server error", "error", err)
		}
	}()
	logger.Info("Notifier started", "addr", config.ServerAddr, "scanInterval", config.ScanInterval)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down notifier...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	logger.Info("Notifier stopped")
}

// Config holds notifier configuration
type Config struct {
	ServerAddr   string
	ScanInterval time.Duration
	SupportEmail string
	MongoDB      *mongodb.Config
	Kafka        *kafka.Config
	SMTP         *mailer.Config
}

func loadConfig() *Config {
	smtpPort, err := strconv.Atoi(getEnv("SMTP_PORT", "587"))
	if err != nil {
		smtpPort = 587
	}

	scanInterval, err := time.ParseDuration(getEnv("SCAN_INTERVAL", "1m"))
	if err != nil {
		scanInterval = time.Minute
	}

	return &Config{
		ServerAddr:   getEnv("SERVER_ADDR", ":8081"),
		ScanInterval: scanInterval,
		SupportEmail: getEnv("SUPPORT_EMAIL", "support@ellcworth.com"),
		MongoDB: &mongodb.Config{
			URI:            getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database:       getEnv("MONGODB_DATABASE", "shipments_db"),
			ConnectTimeout: 10 * time.Second,
			MaxPoolSize:    20,
			MinPoolSize:    2,
		},
		Kafka: &kafka.Config{
			Brokers:      []string{getEnv("KAFKA_BROKERS", "localhost:9092")},
			ClientID:     serviceName,
			BatchSize:    100,
			BatchTimeout: 10 * time.Millisecond,
			RequiredAcks: -1,
		},
		SMTP: &mailer.Config{
			Host:     getEnv("SMTP_HOST", "smtp.gmail.com"),
			Port:     smtpPort,
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("EMAIL_FROM", "noreply@ellcworth.com"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
