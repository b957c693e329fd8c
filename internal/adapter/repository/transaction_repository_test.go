package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	domainErrors "github.com/ranktrackhq/billing-service/internal/domain/errors"
	"github.com/ranktrackhq/billing-service/internal/domain/model"
	"github.com/ranktrackhq/billing-service/internal/domain/repository"
)

func newTxRepo(t *testing.T) repository.TransactionRepository {
	return NewTransactionRepository(setupTestDB(t), zap.NewNop())
}

func newTransaction(orderID string) *model.Transaction {
	return &model.Transaction{
		ID:            uuid.New(),
		UserID:        uuid.New(),
		PackageID:     1,
		Gateway:       "midtrans",
		OrderID:       orderID,
		Amount:        decimal.NewFromFloat(29.99),
		Currency:      "USD",
		PaymentMethod: "bank_transfer",
		Status:        model.TransactionStatusPending,
	}
}

func creationEntry() *model.TransactionHistory {
	return &model.TransactionHistory{
		OldStatus:  model.TransactionStatusPending,
		NewStatus:  model.TransactionStatusPending,
		ActionType: model.ActionPaymentCreated,
		ActorType:  model.ActorTypeUser,
	}
}

func TestTransactionRepository_CreateAndGet(t *testing.T) {
	repo := newTxRepo(t)
	ctx := context.Background()

	tx := newTransaction("ORDER-001")
	require.NoError(t, repo.Create(ctx, tx, creationEntry()))

	got, err := repo.GetByID(ctx, tx.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, tx.OrderID, got.OrderID)
	assert.Equal(t, model.TransactionStatusPending, got.Status)

	byOrder, err := repo.GetByOrderID(ctx, "ORDER-001")
	require.NoError(t, err)
	require.NotNil(t, byOrder)
	assert.Equal(t, tx.ID, byOrder.ID)

	missing, err := repo.GetByID(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestTransactionRepository_DuplicateOrderID(t *testing.T) {
	repo := newTxRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newTransaction("ORDER-DUP"), creationEntry()))

	err := repo.Create(ctx, newTransaction("ORDER-DUP"), creationEntry())
	assert.ErrorIs(t, err, domainErrors.ErrDuplicateOrderID)
}

func TestTransactionRepository_TryTransition(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTransactionRepository(db, zap.NewNop())
	ctx := context.Background()

	tx := newTransaction("ORDER-CAS")
	require.NoError(t, repo.Create(ctx, tx, creationEntry()))

	entry := &model.TransactionHistory{
		ActionType: model.ActionGatewayUpdate,
		ActorType:  model.ActorTypeGateway,
	}
	ok, err := repo.TryTransition(ctx, tx.ID,
		model.TransactionStatusPending, model.TransactionStatusCompleted,
		map[string]interface{}{"payment_status": "settlement"}, entry)
	require.NoError(t, err)
	assert.True(t, ok)

	// Second writer arrives after the status already moved.
	ok, err = repo.TryTransition(ctx, tx.ID,
		model.TransactionStatusPending, model.TransactionStatusFailed,
		nil, &model.TransactionHistory{
			ActionType: model.ActionAutoExpire,
			ActorType:  model.ActorTypeSystem,
		})
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := repo.GetByID(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TransactionStatusCompleted, got.Status)
	assert.Equal(t, "settlement", got.PaymentStatus)

	// Exactly one transition entry beyond the creation entry.
	var count int64
	require.NoError(t, db.Model(&model.TransactionHistory{}).
		Where("transaction_id = ? AND action_type = ?", tx.ID, model.ActionGatewayUpdate).
		Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestTransactionRepository_ListStalePending(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTransactionRepository(db, zap.NewNop())
	ctx := context.Background()

	oldTx := newTransaction("ORDER-OLD")
	require.NoError(t, repo.Create(ctx, oldTx, creationEntry()))
	// Backdate past the cutoff.
	require.NoError(t, db.Model(&model.Transaction{}).
		Where("id = ?", oldTx.ID).
		Update("created_at", time.Now().Add(-30*time.Hour)).Error)

	freshTx := newTransaction("ORDER-FRESH")
	require.NoError(t, repo.Create(ctx, freshTx, creationEntry()))

	settledTx := newTransaction("ORDER-SETTLED")
	settledTx.Status = model.TransactionStatusCompleted
	require.NoError(t, repo.Create(ctx, settledTx, creationEntry()))
	require.NoError(t, db.Model(&model.Transaction{}).
		Where("id = ?", settledTx.ID).
		Update("created_at", time.Now().Add(-30*time.Hour)).Error)

	stale, err := repo.ListStalePending(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, oldTx.ID, stale[0].ID)
}

func TestTransactionRepository_GetLatestCompletedBySubscription(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTransactionRepository(db, zap.NewNop())
	ctx := context.Background()

	subID := uuid.New()

	older := newTransaction("ORDER-R1")
	older.SubscriptionID = &subID
	older.Status = model.TransactionStatusCompleted
	require.NoError(t, repo.Create(ctx, older, creationEntry()))
	require.NoError(t, db.Model(&model.Transaction{}).
		Where("id = ?", older.ID).
		Update("created_at", time.Now().Add(-48*time.Hour)).Error)

	newer := newTransaction("ORDER-R2")
	newer.SubscriptionID = &subID
	newer.Status = model.TransactionStatusCompleted
	require.NoError(t, repo.Create(ctx, newer, creationEntry()))

	pending := newTransaction("ORDER-R3")
	pending.SubscriptionID = &subID
	require.NoError(t, repo.Create(ctx, pending, creationEntry()))

	got, err := repo.GetLatestCompletedBySubscription(ctx, subID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, newer.ID, got.ID)

	none, err := repo.GetLatestCompletedBySubscription(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestTransactionRepository_AppendNote(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTransactionRepository(db, zap.NewNop())
	ctx := context.Background()

	tx := newTransaction("ORDER-NOTE")
	tx.Status = model.TransactionStatusCompleted
	require.NoError(t, repo.Create(ctx, tx, creationEntry()))

	require.NoError(t, repo.AppendNote(ctx, tx.ID, "refund attempt failed: gateway down"))
	require.NoError(t, repo.AppendNote(ctx, tx.ID, "full refund issued (ref-1)"))

	got, err := repo.GetByID(ctx, tx.ID)
	require.NoError(t, err)
	assert.Contains(t, got.Notes, "refund attempt failed")
	assert.Contains(t, got.Notes, "full refund issued")
	// Status untouched by note appends.
	assert.Equal(t, model.TransactionStatusCompleted, got.Status)

	err = repo.AppendNote(ctx, uuid.New(), "orphan note")
	assert.ErrorIs(t, err, domainErrors.ErrTransactionNotFound)
}

func TestTransactionRepository_GetRecentByUserID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTransactionRepository(db, zap.NewNop())
	ctx := context.Background()

	userID := uuid.New()
	for i, age := range []time.Duration{3 * time.Hour, 2 * time.Hour, time.Hour} {
		tx := newTransaction(string(rune('A'+i)) + "-ORDER")
		tx.UserID = userID
		require.NoError(t, repo.Create(ctx, tx, creationEntry()))
		require.NoError(t, db.Model(&model.Transaction{}).
			Where("id = ?", tx.ID).
			Update("created_at", time.Now().Add(-age)).Error)
	}

	recent, err := repo.GetRecentByUserID(ctx, userID, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	// Newest first.
	assert.True(t, recent[0].CreatedAt.After(recent[1].CreatedAt))
}
