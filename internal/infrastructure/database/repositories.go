package database

import (
	"github.com/ranktrackhq/billing-service/internal/adapter/repository"
	domainRepo "github.com/ranktrackhq/billing-service/internal/domain/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Repositories holds all repository instances
type Repositories struct {
	Transaction  domainRepo.TransactionRepository
	Subscription domainRepo.SubscriptionRepository
	Package      domainRepo.PackageRepository
}

// NewRepositories creates new repository instances with database connection
func NewRepositories(db *gorm.DB, logger *zap.Logger) *Repositories {
	return &Repositories{
		Transaction:  repository.NewTransactionRepository(db, logger),
		Subscription: repository.NewSubscriptionRepository(db, logger),
		Package:      repository.NewPackageRepository(db, logger),
	}
}
