package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/ranktrackhq/billing-service/internal/domain/model"
	"github.com/ranktrackhq/billing-service/pkg/messaging"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// EventsChannel is the Redis pub/sub channel billing events are published to.
const EventsChannel = "billing.events"

// BillingNotifier publishes billing events to Redis and emails the customer
// about order expiry. All delivery failures are logged and swallowed: the
// state transition that triggered the notification has already committed.
type BillingNotifier struct {
	publisher messaging.RedisClient
	email     EmailSender
	logger    *zap.Logger
}

// NewBillingNotifier creates a new billing notifier. Both publisher and email
// may be nil, in which case the corresponding sink is skipped.
func NewBillingNotifier(publisher messaging.RedisClient, email EmailSender, logger *zap.Logger) *BillingNotifier {
	return &BillingNotifier{
		publisher: publisher,
		email:     email,
		logger:    logger,
	}
}

type billingEvent struct {
	Event      string                 `json:"event"`
	OccurredAt time.Time              `json:"occurred_at"`
	Data       map[string]interface{} `json:"data"`
}

// OrderExpired announces that a pending order was expired by the sweeper.
func (n *BillingNotifier) OrderExpired(ctx context.Context, tx *model.Transaction, hoursPending float64) {
	n.publish(ctx, "order.expired", map[string]interface{}{
		"transaction_id": tx.ID.String(),
		"order_id":       tx.OrderID,
		"user_id":        tx.UserID.String(),
		"amount":         tx.Amount.String(),
		"currency":       tx.Currency,
		"hours_pending":  hoursPending,
	})

	email, name := customerContact(tx)
	if email == "" || n.email == nil {
		return
	}

	subject := "Your order has expired"
	text := fmt.Sprintf(
		"Your order %s for %s %s was not completed within %d hours and has been cancelled.\n\n"+
			"No payment was taken. You can place a new order at any time.",
		tx.OrderID, tx.Amount.StringFixed(2), tx.Currency, int(hoursPending))
	html := fmt.Sprintf(`
		<p>Your order <strong>%s</strong> for %s %s was not completed within %d hours and has been cancelled.</p>
		<p>No payment was taken. You can place a new order at any time.</p>
	`, tx.OrderID, tx.Amount.StringFixed(2), tx.Currency, int(hoursPending))

	if err := n.email.Send(ctx, email, name, subject, html, text); err != nil {
		n.logger.Warn("Failed to send order expiry email",
			zap.String("order_id", tx.OrderID),
			zap.Error(err))
	}
}

// SubscriptionCanceled announces a completed cancellation.
func (n *BillingNotifier) SubscriptionCanceled(ctx context.Context, sub *model.Subscription, refunded bool, refundAmount decimal.Decimal) {
	data := map[string]interface{}{
		"subscription_id": sub.ID.String(),
		"user_id":         sub.UserID.String(),
		"package_id":      sub.PackageID,
		"refunded":        refunded,
	}
	if refunded {
		data["refund_amount"] = refundAmount.String()
	}
	n.publish(ctx, "subscription.canceled", data)
}

func (n *BillingNotifier) publish(ctx context.Context, event string, data map[string]interface{}) {
	if n.publisher == nil {
		return
	}

	err := n.publisher.Publish(ctx, EventsChannel, billingEvent{
		Event:      event,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	})
	if err != nil {
		n.logger.Warn("Failed to publish billing event",
			zap.String("event", event),
			zap.Error(err))
	}
}

// customerContact pulls the customer's email and name from the metadata the
// payment request recorded on the transaction row.
func customerContact(tx *model.Transaction) (email, name string) {
	if tx.Metadata == nil {
		return "", ""
	}
	email, _ = tx.Metadata["customer_email"].(string)
	name, _ = tx.Metadata["customer_name"].(string)
	return email, name
}
