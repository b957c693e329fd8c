package repository

import (
	"testing"

	"github.com/ranktrackhq/billing-service/internal/domain/model"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// setupTestDB opens a fresh in-memory database with the billing schema.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&model.Package{},
		&model.PricingTier{},
		&model.Subscription{},
		&model.UserPackage{},
		&model.Transaction{},
		&model.TransactionHistory{},
	)
	require.NoError(t, err)

	return db
}
