package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/ranktrackhq/billing-service/internal/config"
	"github.com/ranktrackhq/billing-service/internal/infrastructure/database"
	"github.com/ranktrackhq/billing-service/internal/infrastructure/gateway"
	httpServer "github.com/ranktrackhq/billing-service/internal/infrastructure/http"
	"github.com/ranktrackhq/billing-service/internal/infrastructure/notify"
	"github.com/ranktrackhq/billing-service/internal/usecase"
	"github.com/ranktrackhq/billing-service/pkg/logger"
	"github.com/ranktrackhq/billing-service/pkg/messaging"
	"github.com/ranktrackhq/billing-service/pkg/ratelimit"
	"go.uber.org/zap"
)

func main() {
	// Load .env if present, environment wins over file values
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	zapLogger, err := logger.NewZapLogger(logger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		Output:      cfg.Log.Output,
		Development: cfg.Log.Development,
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	// Initialize database connection
	db, err := database.NewConnection(&cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := database.Close(db, zapLogger); err != nil {
			zapLogger.Error("Failed to close database connection", zap.Error(err))
		}
	}()

	// Run database migrations
	if err := database.Migrate(db, zapLogger); err != nil {
		zapLogger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	// Initialize repositories
	repos := database.NewRepositories(db, zapLogger)

	// Payment gateways
	registry, err := gateway.NewRegistry(&cfg.Gateways, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to build gateway registry", zap.Error(err))
	}

	// Redis backs event publishing and rate limiting. The service stays up
	// without it: events are dropped and limiting falls back to memory.
	limiter, publisher := buildRedisBackends(cfg, zapLogger)
	defer limiter.Close()
	if publisher != nil {
		defer publisher.Close()
	}

	var email notify.EmailSender
	if cfg.Email.BrevoAPIKey != "" {
		email = notify.NewBrevoSender(cfg.Email.BrevoAPIKey, cfg.Email.FromEmail, cfg.Email.FromName, zapLogger)
	}
	notifier := notify.NewBillingNotifier(publisher, email, zapLogger)

	// Usecases
	payments := usecase.NewPaymentService(repos.Transaction, repos.Package, registry, zapLogger)
	cancellations := usecase.NewCancellationService(
		repos.Subscription, repos.Transaction, registry, notifier,
		cfg.Cancellation.RefundWindowDays, zapLogger)
	sweeper := usecase.NewExpirySweeper(
		repos.Transaction, notifier,
		cfg.Sweeper.Interval, cfg.Sweeper.MaxPendingAge, zapLogger)

	sweeper.Start()

	httpSrv := httpServer.NewServer(cfg, zapLogger, payments, cancellations, sweeper, limiter)

	go func() {
		if err := httpSrv.Start(); err != nil {
			zapLogger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	zapLogger.Info("Shutting down...")

	sweeper.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Failed to shutdown HTTP server", zap.Error(err))
	}

	zapLogger.Info("Shutdown complete")
}

// buildRedisBackends connects the rate limiter and event publisher to Redis,
// degrading to an in-memory limiter and no publisher when Redis is down.
func buildRedisBackends(cfg *config.Config, zapLogger *zap.Logger) (ratelimit.Limiter, messaging.RedisClient) {
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		zapLogger.Warn("Redis unavailable, using in-memory rate limiter and dropping events",
			zap.String("addr", cfg.Redis.Addr),
			zap.Error(err))
		redisClient.Close()
		return ratelimit.NewMemoryLimiter(0), nil
	}

	publisher, err := messaging.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		zapLogger.Warn("Failed to create Redis publisher, dropping events", zap.Error(err))
		publisher = nil
	}

	return ratelimit.NewRedisLimiter(redisClient, zapLogger), publisher
}
