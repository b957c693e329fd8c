package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ranktrackhq/billing-service/internal/domain/model"
)

func seedSubscription(t *testing.T, db *gorm.DB, status model.SubscriptionStatus) *model.Subscription {
	t.Helper()

	sub := &model.Subscription{
		ID:               uuid.New(),
		UserID:           uuid.New(),
		PackageID:        1,
		Gateway:          "midtrans",
		Status:           status,
		StartDate:        time.Now().Add(-72 * time.Hour),
		CurrentPeriodEnd: time.Now().Add(27 * 24 * time.Hour),
	}
	require.NoError(t, db.Create(sub).Error)
	return sub
}

func TestSubscriptionRepository_MarkCanceled(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSubscriptionRepository(db, zap.NewNop())
	ctx := context.Background()

	sub := seedSubscription(t, db, model.SubscriptionStatusActive)

	now := time.Now()
	updated, err := repo.MarkCanceled(ctx, sub.ID, now, "too expensive")
	require.NoError(t, err)
	assert.True(t, updated)

	got, err := repo.GetByID(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SubscriptionStatusCanceled, got.Status)
	assert.False(t, got.CancelAtPeriodEnd)
	assert.Equal(t, "too expensive", got.CancelReason)
	require.NotNil(t, got.EndDate)

	// A second cancel finds no active row.
	updated, err = repo.MarkCanceled(ctx, sub.ID, time.Now(), "again")
	require.NoError(t, err)
	assert.False(t, updated)
}

func TestSubscriptionRepository_ScheduleCancelAtPeriodEnd(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSubscriptionRepository(db, zap.NewNop())
	ctx := context.Background()

	sub := seedSubscription(t, db, model.SubscriptionStatusActive)

	updated, err := repo.ScheduleCancelAtPeriodEnd(ctx, sub.ID, time.Now(), "switching tools")
	require.NoError(t, err)
	assert.True(t, updated)

	got, err := repo.GetByID(ctx, sub.ID)
	require.NoError(t, err)
	// Still active, only flagged.
	assert.Equal(t, model.SubscriptionStatusActive, got.Status)
	assert.True(t, got.CancelAtPeriodEnd)

	// Scheduling twice is a no-op conflict.
	updated, err = repo.ScheduleCancelAtPeriodEnd(ctx, sub.ID, time.Now(), "again")
	require.NoError(t, err)
	assert.False(t, updated)
}

func TestSubscriptionRepository_GetByIDMissing(t *testing.T) {
	repo := NewSubscriptionRepository(setupTestDB(t), zap.NewNop())

	got, err := repo.GetByID(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSubscriptionRepository_ClearActivePackage(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSubscriptionRepository(db, zap.NewNop())
	ctx := context.Background()

	userID := uuid.New()
	require.NoError(t, db.Create(&model.UserPackage{UserID: userID, PackageID: 1}).Error)

	require.NoError(t, repo.ClearActivePackage(ctx, userID))

	var count int64
	require.NoError(t, db.Model(&model.UserPackage{}).Where("user_id = ?", userID).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}
