package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/ranktrackhq/billing-service/internal/domain/model"
	"github.com/ranktrackhq/billing-service/internal/domain/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type packageRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewPackageRepository creates a new package repository
func NewPackageRepository(db *gorm.DB, logger *zap.Logger) repository.PackageRepository {
	return &packageRepository{
		db:     db,
		logger: logger,
	}
}

func (r *packageRepository) GetActiveByID(ctx context.Context, id int64) (*model.Package, error) {
	var pkg model.Package

	err := r.db.WithContext(ctx).
		Preload("Tiers").
		Where("id = ? AND is_active = ?", id, true).
		First(&pkg).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to get package",
			zap.Int64("package_id", id),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get package: %w", err)
	}

	return &pkg, nil
}

func (r *packageRepository) ListActive(ctx context.Context) ([]*model.Package, error) {
	var pkgs []*model.Package

	err := r.db.WithContext(ctx).
		Preload("Tiers").
		Where("is_active = ?", true).
		Order("id ASC").
		Find(&pkgs).Error

	if err != nil {
		return nil, fmt.Errorf("failed to list packages: %w", err)
	}

	return pkgs, nil
}
