package gateway

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// EffectiveFrom controls when a gateway-side subscription cancellation
// takes effect.
type EffectiveFrom string

const (
	EffectiveImmediately EffectiveFrom = "immediately"
	EffectiveNextPeriod  EffectiveFrom = "next_billing_period"
)

// Gateway defines the contract with an external billing processor.
// The gateway is the authoritative source of billing truth; its responses
// are recorded, never re-derived locally.
type Gateway interface {
	// Name returns the gateway identifier used in transaction rows.
	Name() string

	// CreateCharge creates a charge or subscription for the given order.
	// It must never be invoked twice for the same order id.
	CreateCharge(ctx context.Context, req *ChargeRequest) (*ChargeResponse, error)

	// CancelSubscription cancels a gateway subscription, either immediately
	// or at the next billing period boundary.
	CancelSubscription(ctx context.Context, externalSubscriptionID string, effective EffectiveFrom) error

	// CreateRefund issues a full refund for a settled gateway transaction.
	CreateRefund(ctx context.Context, req *RefundRequest) (*RefundResponse, error)

	// FetchTransaction retrieves the current gateway-side state of a
	// transaction, used for reconciliation.
	FetchTransaction(ctx context.Context, externalTransactionID string) (*TransactionState, error)
}

// CustomerDetails identifies the paying customer to the gateway.
type CustomerDetails struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone,omitempty"`
}

// ChargeItem is one line item on a charge.
type ChargeItem struct {
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

// ChargeRequest is a gateway-agnostic charge creation request.
type ChargeRequest struct {
	OrderID       string                 `json:"order_id"`
	Amount        decimal.Decimal        `json:"amount"`
	Currency      string                 `json:"currency"`
	PaymentMethod string                 `json:"payment_method"`
	Customer      CustomerDetails        `json:"customer"`
	Items         []ChargeItem           `json:"items,omitempty"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
}

// ChargeResponse is the gateway's answer to a charge creation.
type ChargeResponse struct {
	TransactionID string                 `json:"transaction_id"`
	RawStatus     string                 `json:"raw_status"`
	RedirectURL   string                 `json:"redirect_url,omitempty"`
	Raw           map[string]interface{} `json:"raw,omitempty"`
}

// RefundRequest asks for a full refund of a settled transaction.
type RefundRequest struct {
	ExternalTransactionID string `json:"external_transaction_id"`
	Reason                string `json:"reason,omitempty"`
}

// RefundResponse is the gateway's refund record.
type RefundResponse struct {
	RefundID  string     `json:"refund_id"`
	RawStatus string     `json:"raw_status"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// TransactionState is the gateway-side view of a transaction.
type TransactionState struct {
	TransactionID string                 `json:"transaction_id"`
	OrderID       string                 `json:"order_id,omitempty"`
	RawStatus     string                 `json:"raw_status"`
	Raw           map[string]interface{} `json:"raw,omitempty"`
}

// GatewayError is a structured failure from a gateway call. Timeout marks an
// unknown outcome: callers must not treat it as a definite rejection.
type GatewayError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
	Timeout bool   `json:"timeout,omitempty"`
}

func (e *GatewayError) Error() string {
	if e.Details != "" {
		return e.Message + ": " + e.Details
	}
	return e.Message
}

// IsTimeout reports whether err represents a gateway call whose outcome is
// unknown (deadline exceeded, connection dropped mid-flight).
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	var gwErr *GatewayError
	if errors.As(err, &gwErr) {
		return gwErr.Timeout
	}
	return false
}
