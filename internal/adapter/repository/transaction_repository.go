package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	domainErrors "github.com/ranktrackhq/billing-service/internal/domain/errors"
	"github.com/ranktrackhq/billing-service/internal/domain/model"
	"github.com/ranktrackhq/billing-service/internal/domain/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type transactionRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *gorm.DB, logger *zap.Logger) repository.TransactionRepository {
	return &transactionRepository{
		db:     db,
		logger: logger,
	}
}

func (r *transactionRepository) Create(ctx context.Context, tx *model.Transaction, entry *model.TransactionHistory) error {
	err := r.db.WithContext(ctx).Transaction(func(dbtx *gorm.DB) error {
		if err := dbtx.Create(tx).Error; err != nil {
			return err
		}
		entry.TransactionID = tx.ID
		return dbtx.Create(entry).Error
	})

	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domainErrors.ErrDuplicateOrderID
		}
		r.logger.Error("Failed to create transaction",
			zap.String("order_id", tx.OrderID),
			zap.Error(err))
		return fmt.Errorf("failed to create transaction: %w", err)
	}

	return nil
}

func (r *transactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Transaction, error) {
	var tx model.Transaction

	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&tx).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to get transaction by ID",
			zap.String("transaction_id", id.String()),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	return &tx, nil
}

func (r *transactionRepository) GetByOrderID(ctx context.Context, orderID string) (*model.Transaction, error) {
	var tx model.Transaction

	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		First(&tx).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to get transaction by order ID",
			zap.String("order_id", orderID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	return &tx, nil
}

func (r *transactionRepository) GetByUserID(ctx context.Context, userID uuid.UUID) ([]*model.Transaction, error) {
	var txs []*model.Transaction

	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&txs).Error

	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	return txs, nil
}

func (r *transactionRepository) GetRecentByUserID(ctx context.Context, userID uuid.UUID, limit int) ([]*model.Transaction, error) {
	var txs []*model.Transaction

	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&txs).Error

	if err != nil {
		return nil, fmt.Errorf("failed to list recent transactions: %w", err)
	}

	return txs, nil
}

func (r *transactionRepository) GetLatestCompletedBySubscription(ctx context.Context, subscriptionID uuid.UUID) (*model.Transaction, error) {
	var tx model.Transaction

	err := r.db.WithContext(ctx).
		Where("subscription_id = ? AND status = ?", subscriptionID, model.TransactionStatusCompleted).
		Order("created_at DESC").
		First(&tx).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to get latest completed transaction",
			zap.String("subscription_id", subscriptionID.String()),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get latest completed transaction: %w", err)
	}

	return &tx, nil
}

func (r *transactionRepository) ListStalePending(ctx context.Context, cutoff time.Time) ([]*model.Transaction, error) {
	var txs []*model.Transaction

	err := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", model.TransactionStatusPending, cutoff).
		Order("created_at ASC").
		Find(&txs).Error

	if err != nil {
		return nil, fmt.Errorf("failed to list stale pending transactions: %w", err)
	}

	return txs, nil
}

// errTransitionLost signals inside the write transaction that the guarded
// update matched zero rows.
var errTransitionLost = errors.New("transition lost race")

func (r *transactionRepository) TryTransition(ctx context.Context, id uuid.UUID, from, to model.TransactionStatus, updates map[string]interface{}, entry *model.TransactionHistory) (bool, error) {
	fields := make(map[string]interface{}, len(updates)+2)
	for k, v := range updates {
		fields[k] = v
	}
	fields["status"] = to
	fields["updated_at"] = time.Now()

	err := r.db.WithContext(ctx).Transaction(func(dbtx *gorm.DB) error {
		res := dbtx.Model(&model.Transaction{}).
			Where("id = ? AND status = ?", id, from).
			Updates(fields)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errTransitionLost
		}

		entry.TransactionID = id
		entry.OldStatus = from
		entry.NewStatus = to
		return dbtx.Create(entry).Error
	})

	if err != nil {
		if errors.Is(err, errTransitionLost) {
			return false, nil
		}
		r.logger.Error("Failed to transition transaction",
			zap.String("transaction_id", id.String()),
			zap.String("from", string(from)),
			zap.String("to", string(to)),
			zap.Error(err))
		return false, fmt.Errorf("failed to transition transaction: %w", err)
	}

	return true, nil
}

func (r *transactionRepository) UpdateGatewayState(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	fields := make(map[string]interface{}, len(updates)+1)
	for k, v := range updates {
		fields[k] = v
	}
	fields["updated_at"] = time.Now()

	err := r.db.WithContext(ctx).
		Model(&model.Transaction{}).
		Where("id = ?", id).
		Updates(fields).Error

	if err != nil {
		r.logger.Error("Failed to update transaction gateway state",
			zap.String("transaction_id", id.String()),
			zap.Error(err))
		return fmt.Errorf("failed to update transaction: %w", err)
	}

	return nil
}

func (r *transactionRepository) AppendNote(ctx context.Context, id uuid.UUID, note string) error {
	err := r.db.WithContext(ctx).Transaction(func(dbtx *gorm.DB) error {
		var tx model.Transaction
		if err := dbtx.Where("id = ?", id).First(&tx).Error; err != nil {
			return err
		}

		notes := tx.Notes
		if notes != "" {
			notes += "\n"
		}
		notes += fmt.Sprintf("[%s] %s", time.Now().Format(time.RFC3339), note)

		if err := dbtx.Model(&model.Transaction{}).
			Where("id = ?", id).
			Update("notes", notes).Error; err != nil {
			return err
		}

		return dbtx.Create(&model.TransactionHistory{
			TransactionID: id,
			OldStatus:     tx.Status,
			NewStatus:     tx.Status,
			ActionType:    model.ActionNoteAppended,
			ActorType:     model.ActorTypeSystem,
			Notes:         note,
		}).Error
	})

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domainErrors.ErrTransactionNotFound
		}
		r.logger.Error("Failed to append transaction note",
			zap.String("transaction_id", id.String()),
			zap.Error(err))
		return fmt.Errorf("failed to append note: %w", err)
	}

	return nil
}
