package stripecard

import (
	"context"
	"errors"

	"github.com/ranktrackhq/billing-service/internal/domain/gateway"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/paymentintent"
	"github.com/stripe/stripe-go/v79/refund"
	"github.com/stripe/stripe-go/v79/subscription"
	"go.uber.org/zap"
)

// StripeGateway serves card payments through the Stripe API.
type StripeGateway struct {
	logger *zap.Logger
}

// NewStripeGateway creates a new Stripe gateway
func NewStripeGateway(secretKey string, logger *zap.Logger) *StripeGateway {
	stripe.Key = secretKey
	return &StripeGateway{logger: logger}
}

// Name returns the gateway identifier
func (g *StripeGateway) Name() string {
	return "stripe"
}

// CreateCharge creates a PaymentIntent for the order amount.
func (g *StripeGateway) CreateCharge(ctx context.Context, req *gateway.ChargeRequest) (*gateway.ChargeResponse, error) {
	params := &stripe.PaymentIntentParams{
		Amount:       stripe.Int64(toMinorUnits(req)),
		Currency:     stripe.String(req.Currency),
		ReceiptEmail: stripe.String(req.Customer.Email),
		Params: stripe.Params{
			Context: ctx,
		},
	}
	params.AddMetadata("order_id", req.OrderID)

	intent, err := paymentintent.New(params)
	if err != nil {
		return nil, translateStripeError(err, "failed to create payment intent")
	}

	g.logger.Info("Stripe payment intent created",
		zap.String("order_id", req.OrderID),
		zap.String("payment_intent_id", intent.ID),
		zap.String("status", string(intent.Status)))

	return &gateway.ChargeResponse{
		TransactionID: intent.ID,
		RawStatus:     string(intent.Status),
		Raw: map[string]interface{}{
			"payment_intent_id": intent.ID,
			"client_secret":     intent.ClientSecret,
			"status":            string(intent.Status),
		},
	}, nil
}

// CancelSubscription cancels a Stripe subscription. Immediate cancellations
// terminate the subscription now; next-period cancellations set
// cancel_at_period_end so access survives until the boundary.
func (g *StripeGateway) CancelSubscription(ctx context.Context, externalSubscriptionID string, effective gateway.EffectiveFrom) error {
	var err error
	if effective == gateway.EffectiveImmediately {
		params := &stripe.SubscriptionCancelParams{
			Params: stripe.Params{Context: ctx},
		}
		_, err = subscription.Cancel(externalSubscriptionID, params)
	} else {
		params := &stripe.SubscriptionParams{
			CancelAtPeriodEnd: stripe.Bool(true),
			Params:            stripe.Params{Context: ctx},
		}
		_, err = subscription.Update(externalSubscriptionID, params)
	}
	if err != nil {
		return translateStripeError(err, "failed to cancel subscription")
	}

	g.logger.Info("Stripe subscription canceled",
		zap.String("subscription_id", externalSubscriptionID),
		zap.String("effective", string(effective)))

	return nil
}

// CreateRefund refunds the full PaymentIntent amount.
func (g *StripeGateway) CreateRefund(ctx context.Context, req *gateway.RefundRequest) (*gateway.RefundResponse, error) {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(req.ExternalTransactionID),
		Params:        stripe.Params{Context: ctx},
	}
	if req.Reason != "" {
		params.AddMetadata("reason", req.Reason)
	}

	r, err := refund.New(params)
	if err != nil {
		return nil, translateStripeError(err, "failed to create refund")
	}

	g.logger.Info("Stripe refund issued",
		zap.String("payment_intent_id", req.ExternalTransactionID),
		zap.String("refund_id", r.ID))

	return &gateway.RefundResponse{
		RefundID:  r.ID,
		RawStatus: string(r.Status),
	}, nil
}

// FetchTransaction retrieves the current PaymentIntent state.
func (g *StripeGateway) FetchTransaction(ctx context.Context, externalTransactionID string) (*gateway.TransactionState, error) {
	params := &stripe.PaymentIntentParams{
		Params: stripe.Params{Context: ctx},
	}

	intent, err := paymentintent.Get(externalTransactionID, params)
	if err != nil {
		return nil, translateStripeError(err, "failed to fetch payment intent")
	}

	return &gateway.TransactionState{
		TransactionID: intent.ID,
		OrderID:       intent.Metadata["order_id"],
		RawStatus:     string(intent.Status),
	}, nil
}

// toMinorUnits converts the decimal amount to the smallest currency unit
// Stripe expects (cents for USD).
func toMinorUnits(req *gateway.ChargeRequest) int64 {
	return req.Amount.Mul(decimal.NewFromInt(100)).IntPart()
}

// translateStripeError maps a stripe-go error into a structured gateway
// error. Context cancellation and deadline errors are flagged as timeouts so
// callers treat the outcome as unknown.
func translateStripeError(err error, message string) *gateway.GatewayError {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &gateway.GatewayError{
			Code:    "TIMEOUT",
			Message: message,
			Details: err.Error(),
			Timeout: true,
		}
	}

	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		return &gateway.GatewayError{
			Code:    string(stripeErr.Code),
			Message: stripeErr.Msg,
			Details: err.Error(),
		}
	}

	return &gateway.GatewayError{
		Code:    "API_ERROR",
		Message: message,
		Details: err.Error(),
	}
}
