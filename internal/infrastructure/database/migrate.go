package database

import (
	"github.com/ranktrackhq/billing-service/internal/domain/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Migrate runs database migrations
func Migrate(db *gorm.DB, logger *zap.Logger) error {
	logger.Info("Running database migrations...")

	if err := createExtensions(db); err != nil {
		logger.Error("Failed to create extensions", zap.Error(err))
		return err
	}

	err := db.AutoMigrate(
		&model.Package{},
		&model.PricingTier{},
		&model.Subscription{},
		&model.UserPackage{},
		&model.Transaction{},
		&model.TransactionHistory{},
	)
	if err != nil {
		logger.Error("Failed to run migrations", zap.Error(err))
		return err
	}

	if err := createCustomIndexes(db); err != nil {
		logger.Error("Failed to create custom indexes", zap.Error(err))
		return err
	}

	logger.Info("Database migrations completed successfully")
	return nil
}

// createCustomIndexes creates partial indexes GORM tags cannot express.
func createCustomIndexes(db *gorm.DB) error {
	// The sweeper scans pending transactions by age on every tick.
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_transactions_stale_pending ON transactions (created_at) WHERE status = 'pending'`).Error; err != nil {
		return err
	}

	// One active subscription per user and package.
	if err := db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS unique_active_subscription_per_user_package ON subscriptions (user_id, package_id) WHERE status = 'active'`).Error; err != nil {
		return err
	}

	return nil
}

// createExtensions creates required PostgreSQL extensions
func createExtensions(db *gorm.DB) error {
	return db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error
}
