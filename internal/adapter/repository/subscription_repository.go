package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ranktrackhq/billing-service/internal/domain/model"
	"github.com/ranktrackhq/billing-service/internal/domain/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type subscriptionRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewSubscriptionRepository creates a new subscription repository
func NewSubscriptionRepository(db *gorm.DB, logger *zap.Logger) repository.SubscriptionRepository {
	return &subscriptionRepository{
		db:     db,
		logger: logger,
	}
}

func (r *subscriptionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Subscription, error) {
	var sub model.Subscription

	err := r.db.WithContext(ctx).
		Preload("Package").
		Where("id = ?", id).
		First(&sub).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to get subscription by ID",
			zap.String("subscription_id", id.String()),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}

	return &sub, nil
}

func (r *subscriptionRepository) GetActiveByUserID(ctx context.Context, userID uuid.UUID) (*model.Subscription, error) {
	var sub model.Subscription

	err := r.db.WithContext(ctx).
		Preload("Package").
		Where("user_id = ? AND status = ?", userID, model.SubscriptionStatusActive).
		First(&sub).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to get active subscription",
			zap.String("user_id", userID.String()),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get active subscription: %w", err)
	}

	return &sub, nil
}

func (r *subscriptionRepository) MarkCanceled(ctx context.Context, id uuid.UUID, canceledAt time.Time, reason string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Subscription{}).
		Where("id = ? AND status = ?", id, model.SubscriptionStatusActive).
		Updates(map[string]interface{}{
			"status":               model.SubscriptionStatusCanceled,
			"cancel_at_period_end": false,
			"canceled_at":          canceledAt,
			"end_date":             canceledAt,
			"cancel_reason":        reason,
			"updated_at":           time.Now(),
		})

	if res.Error != nil {
		r.logger.Error("Failed to mark subscription canceled",
			zap.String("subscription_id", id.String()),
			zap.Error(res.Error))
		return false, fmt.Errorf("failed to mark subscription canceled: %w", res.Error)
	}

	return res.RowsAffected > 0, nil
}

func (r *subscriptionRepository) ScheduleCancelAtPeriodEnd(ctx context.Context, id uuid.UUID, canceledAt time.Time, reason string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Subscription{}).
		Where("id = ? AND status = ? AND cancel_at_period_end = ?", id, model.SubscriptionStatusActive, false).
		Updates(map[string]interface{}{
			"cancel_at_period_end": true,
			"canceled_at":          canceledAt,
			"cancel_reason":        reason,
			"updated_at":           time.Now(),
		})

	if res.Error != nil {
		r.logger.Error("Failed to schedule period-end cancellation",
			zap.String("subscription_id", id.String()),
			zap.Error(res.Error))
		return false, fmt.Errorf("failed to schedule cancellation: %w", res.Error)
	}

	return res.RowsAffected > 0, nil
}

func (r *subscriptionRepository) ClearActivePackage(ctx context.Context, userID uuid.UUID) error {
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&model.UserPackage{}).Error

	if err != nil {
		r.logger.Error("Failed to clear active package",
			zap.String("user_id", userID.String()),
			zap.Error(err))
		return fmt.Errorf("failed to clear active package: %w", err)
	}

	return nil
}
