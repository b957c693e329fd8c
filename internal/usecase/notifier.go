package usecase

import (
	"context"

	"github.com/ranktrackhq/billing-service/internal/domain/model"
	"github.com/shopspring/decimal"
)

// Notifier delivers post-transition notifications (activity events, user
// email). Implementations are fire-and-forget: they log their own failures
// and never surface them to the caller, so a broken sink can never fail or
// roll back the transition that triggered it.
type Notifier interface {
	OrderExpired(ctx context.Context, tx *model.Transaction, hoursPending float64)
	SubscriptionCanceled(ctx context.Context, sub *model.Subscription, refunded bool, refundAmount decimal.Decimal)
}

// NopNotifier discards all notifications. Used by the one-shot sweep CLI
// and in tests.
type NopNotifier struct{}

func (NopNotifier) OrderExpired(context.Context, *model.Transaction, float64) {}

func (NopNotifier) SubscriptionCanceled(context.Context, *model.Subscription, bool, decimal.Decimal) {
}
