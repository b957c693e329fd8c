package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/ranktrackhq/billing-service/internal/config"
	"github.com/ranktrackhq/billing-service/internal/infrastructure/database"
	"github.com/ranktrackhq/billing-service/internal/usecase"
	"github.com/ranktrackhq/billing-service/pkg/logger"
	"go.uber.org/zap"
)

// One-shot expiry sweep for cron or manual operator use. Runs a single
// sweep against the configured database and exits.
func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLogger, err := logger.NewZapLogger(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: "stdout",
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	db, err := database.NewConnection(&cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close(db, zapLogger)

	repos := database.NewRepositories(db, zapLogger)

	sweeper := usecase.NewExpirySweeper(
		repos.Transaction, usecase.NopNotifier{},
		cfg.Sweeper.Interval, cfg.Sweeper.MaxPendingAge, zapLogger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	result, err := sweeper.Sweep(ctx)
	if err != nil {
		zapLogger.Fatal("Sweep failed", zap.Error(err))
	}

	zapLogger.Info("Sweep finished",
		zap.Int("total_found", result.TotalFound),
		zap.Int("success_count", result.SuccessCount),
		zap.Int("error_count", result.ErrorCount),
		zap.Duration("duration", result.Duration))
}
