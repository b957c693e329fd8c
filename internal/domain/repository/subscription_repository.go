package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ranktrackhq/billing-service/internal/domain/model"
)

// SubscriptionRepository persists subscription lifecycle state.
type SubscriptionRepository interface {
	// GetByID returns nil, nil when the subscription does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Subscription, error)

	GetActiveByUserID(ctx context.Context, userID uuid.UUID) (*model.Subscription, error)

	// MarkCanceled sets status=canceled with cancel_at_period_end=false.
	// Guarded on the row still being active; false means it already left
	// the active state.
	MarkCanceled(ctx context.Context, id uuid.UUID, canceledAt time.Time, reason string) (bool, error)

	// ScheduleCancelAtPeriodEnd keeps the row active but flags it to cancel
	// when the current period ends. Same active-only guard as MarkCanceled.
	ScheduleCancelAtPeriodEnd(ctx context.Context, id uuid.UUID, canceledAt time.Time, reason string) (bool, error)

	// ClearActivePackage removes the user's package association after an
	// immediate cancellation.
	ClearActivePackage(ctx context.Context, userID uuid.UUID) error
}
