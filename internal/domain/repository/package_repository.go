package repository

import (
	"context"

	"github.com/ranktrackhq/billing-service/internal/domain/model"
)

// PackageRepository reads sellable packages and their pricing tiers.
type PackageRepository interface {
	// GetActiveByID returns the package with its tiers preloaded, or
	// nil, nil when the package is missing or inactive.
	GetActiveByID(ctx context.Context, id int64) (*model.Package, error)

	ListActive(ctx context.Context) ([]*model.Package, error)
}
