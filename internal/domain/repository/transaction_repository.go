package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ranktrackhq/billing-service/internal/domain/model"
)

// TransactionRepository owns durability of payment transactions and their
// append-only transition history.
type TransactionRepository interface {
	// Create inserts a new transaction together with its creation history
	// entry. A duplicate order id surfaces as ErrDuplicateOrderID.
	Create(ctx context.Context, tx *model.Transaction, entry *model.TransactionHistory) error

	// GetByID returns nil, nil when the transaction does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Transaction, error)

	GetByOrderID(ctx context.Context, orderID string) (*model.Transaction, error)

	GetByUserID(ctx context.Context, userID uuid.UUID) ([]*model.Transaction, error)

	GetRecentByUserID(ctx context.Context, userID uuid.UUID, limit int) ([]*model.Transaction, error)

	// GetLatestCompletedBySubscription returns the most recent completed
	// transaction funding the subscription, or nil, nil when none exists.
	GetLatestCompletedBySubscription(ctx context.Context, subscriptionID uuid.UUID) (*model.Transaction, error)

	// ListStalePending returns pending transactions created before the cutoff.
	ListStalePending(ctx context.Context, cutoff time.Time) ([]*model.Transaction, error)

	// TryTransition atomically moves a transaction from one status to
	// another, applying the extra column updates and appending exactly one
	// history entry. The update is conditioned on the row still holding the
	// from status; false with a nil error means another writer won the race.
	TryTransition(ctx context.Context, id uuid.UUID, from, to model.TransactionStatus, updates map[string]interface{}, entry *model.TransactionHistory) (bool, error)

	// UpdateGatewayState records gateway data on a transaction without
	// changing its lifecycle status (e.g. a raw-status refresh while the
	// row stays pending).
	UpdateGatewayState(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error

	// AppendNote appends to the free-text audit trail of a transaction.
	// Allowed on terminal rows; the status itself never changes again.
	AppendNote(ctx context.Context, id uuid.UUID, note string) error
}
