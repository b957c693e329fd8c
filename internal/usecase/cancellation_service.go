package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/ranktrackhq/billing-service/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	domainErrors "github.com/ranktrackhq/billing-service/internal/domain/errors"
	"github.com/ranktrackhq/billing-service/internal/domain/gateway"
	"github.com/ranktrackhq/billing-service/internal/domain/model"
	"github.com/ranktrackhq/billing-service/internal/domain/repository"
)

// DefaultRefundWindowDays is the fixed window after subscription start
// during which cancellation triggers an automatic full refund.
const DefaultRefundWindowDays = 7

// CancellationResult is the definitive outcome of a cancellation. The two
// paths are never conflated: Immediate tells the caller which one ran.
type CancellationResult struct {
	SubscriptionID uuid.UUID       `json:"subscription_id"`
	Immediate      bool            `json:"immediate"`
	RefundIssued   bool            `json:"refund_issued"`
	RefundAmount   decimal.Decimal `json:"refund_amount"`
	Currency       string          `json:"currency,omitempty"`
	Message        string          `json:"message"`
}

// RefundWindowInfo exposes refund eligibility for UI display.
type RefundWindowInfo struct {
	SubscriptionID uuid.UUID `json:"subscription_id"`
	WindowDays     int       `json:"window_days"`
	DaysActive     int       `json:"days_active"`
	DaysRemaining  int       `json:"days_remaining"`
	RefundEligible bool      `json:"refund_eligible"`
}

// CancellationService decides between refund-eligible immediate cancellation
// and no-refund deferred cancellation as a function of subscription age,
// then executes the decision against the gateway first and local state second.
type CancellationService struct {
	subRepo    repository.SubscriptionRepository
	txRepo     repository.TransactionRepository
	gateways   GatewayResolver
	notifier   Notifier
	windowDays int
	logger     *zap.Logger
}

// NewCancellationService creates a new cancellation service instance
func NewCancellationService(
	subRepo repository.SubscriptionRepository,
	txRepo repository.TransactionRepository,
	gateways GatewayResolver,
	notifier Notifier,
	windowDays int,
	logger *zap.Logger,
) *CancellationService {
	if windowDays <= 0 {
		windowDays = DefaultRefundWindowDays
	}
	return &CancellationService{
		subRepo:    subRepo,
		txRepo:     txRepo,
		gateways:   gateways,
		notifier:   notifier,
		windowDays: windowDays,
		logger:     logger,
	}
}

// CancelWithRefundPolicy cancels a subscription. Within the refund window
// the subscription is canceled immediately at the gateway and the most
// recent completed transaction is fully refunded; outside the window the
// gateway cancellation takes effect at the next billing period and the
// local row stays active with cancel_at_period_end set.
func (s *CancellationService) CancelWithRefundPolicy(ctx context.Context, subscriptionID, userID uuid.UUID, reason string) (*CancellationResult, error) {
	sub, err := s.loadOwnedSubscription(ctx, subscriptionID, userID)
	if err != nil {
		return nil, err
	}

	if sub.Status != model.SubscriptionStatusActive || sub.CancelAtPeriodEnd {
		return nil, apperrors.NewAppError(apperrors.ErrNotFound,
			"subscription already canceled", domainErrors.ErrSubscriptionAlreadyCanceled)
	}

	gw, ok := s.gateways.ByName(sub.Gateway)
	if !ok {
		return nil, apperrors.NewAppError(apperrors.ErrInternal,
			fmt.Sprintf("no gateway configured for %q", sub.Gateway), nil)
	}

	if s.daysActive(sub) <= s.windowDays {
		return s.cancelImmediateWithRefund(ctx, sub, gw, reason)
	}
	return s.scheduleCancelNoRefund(ctx, sub, gw, reason)
}

// cancelImmediateWithRefund runs the in-window path. The gateway call comes
// first: on gateway failure the local row is untouched and the caller gets a
// retryable error. A refund failure after a successful cancel is reported as
// partial success, never rolled back.
func (s *CancellationService) cancelImmediateWithRefund(ctx context.Context, sub *model.Subscription, gw gateway.Gateway, reason string) (*CancellationResult, error) {
	if sub.ExternalSubscriptionID != nil {
		if err := gw.CancelSubscription(ctx, *sub.ExternalSubscriptionID, gateway.EffectiveImmediately); err != nil {
			s.logger.Error("Gateway cancellation failed",
				zap.String("subscription_id", sub.ID.String()),
				zap.Error(err))
			return nil, apperrors.NewAppError(apperrors.ErrGateway, "gateway cancellation failed, retry later", err)
		}
	}

	now := time.Now()
	updated, err := s.subRepo.MarkCanceled(ctx, sub.ID, now, reason)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to mark subscription canceled")
	}
	if !updated {
		return nil, apperrors.NewAppError(apperrors.ErrConflict,
			"subscription already canceled", domainErrors.ErrSubscriptionAlreadyCanceled)
	}

	if err := s.subRepo.ClearActivePackage(ctx, sub.UserID); err != nil {
		// Access removal is retried out of band; the cancellation stands.
		s.logger.Error("Failed to clear active package after cancellation",
			zap.String("user_id", sub.UserID.String()),
			zap.Error(err))
	}

	result := &CancellationResult{
		SubscriptionID: sub.ID,
		Immediate:      true,
		Message:        "subscription canceled",
	}

	s.issueRefund(ctx, sub, gw, result)

	sub.Status = model.SubscriptionStatusCanceled
	sub.CanceledAt = &now
	s.notifier.SubscriptionCanceled(ctx, sub, result.RefundIssued, result.RefundAmount)

	s.logger.Info("Subscription canceled immediately",
		zap.String("subscription_id", sub.ID.String()),
		zap.Bool("refund_issued", result.RefundIssued))

	return result, nil
}

// issueRefund refunds the most recent completed transaction in full and
// folds the outcome into the result message.
func (s *CancellationService) issueRefund(ctx context.Context, sub *model.Subscription, gw gateway.Gateway, result *CancellationResult) {
	lastTx, err := s.txRepo.GetLatestCompletedBySubscription(ctx, sub.ID)
	if err != nil {
		s.logger.Error("Failed to look up refundable transaction",
			zap.String("subscription_id", sub.ID.String()),
			zap.Error(err))
		result.Message = "subscription canceled; refund lookup failed and will be retried"
		return
	}
	if lastTx == nil || lastTx.ExternalTransactionID == nil {
		return
	}

	refund, err := gw.CreateRefund(ctx, &gateway.RefundRequest{
		ExternalTransactionID: *lastTx.ExternalTransactionID,
		Reason:                "cancellation within refund window",
	})
	if err != nil {
		s.logger.Error("Refund failed after successful cancellation",
			zap.String("subscription_id", sub.ID.String()),
			zap.String("transaction_id", lastTx.ID.String()),
			zap.Error(err))
		if noteErr := s.txRepo.AppendNote(ctx, lastTx.ID, fmt.Sprintf("refund attempt failed: %s", err.Error())); noteErr != nil {
			s.logger.Error("Failed to record refund failure note", zap.Error(noteErr))
		}
		result.Message = fmt.Sprintf("subscription canceled; refund of $%s could not be processed and will be retried",
			lastTx.Amount.StringFixed(2))
		return
	}

	result.RefundIssued = true
	result.RefundAmount = lastTx.Amount
	result.Currency = lastTx.Currency
	result.Message = fmt.Sprintf("subscription canceled, refund of $%s processed", lastTx.Amount.StringFixed(2))

	if noteErr := s.txRepo.AppendNote(ctx, lastTx.ID, fmt.Sprintf("full refund issued (%s)", refund.RefundID)); noteErr != nil {
		s.logger.Error("Failed to record refund note", zap.Error(noteErr))
	}
}

// scheduleCancelNoRefund runs the out-of-window path: the row stays active
// until the gateway's period-end event flips it to canceled.
func (s *CancellationService) scheduleCancelNoRefund(ctx context.Context, sub *model.Subscription, gw gateway.Gateway, reason string) (*CancellationResult, error) {
	if sub.ExternalSubscriptionID != nil {
		if err := gw.CancelSubscription(ctx, *sub.ExternalSubscriptionID, gateway.EffectiveNextPeriod); err != nil {
			s.logger.Error("Gateway cancellation failed",
				zap.String("subscription_id", sub.ID.String()),
				zap.Error(err))
			return nil, apperrors.NewAppError(apperrors.ErrGateway, "gateway cancellation failed, retry later", err)
		}
	}

	updated, err := s.subRepo.ScheduleCancelAtPeriodEnd(ctx, sub.ID, time.Now(), reason)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to schedule cancellation")
	}
	if !updated {
		return nil, apperrors.NewAppError(apperrors.ErrConflict,
			"subscription already canceled", domainErrors.ErrSubscriptionAlreadyCanceled)
	}

	s.logger.Info("Subscription scheduled for period-end cancellation",
		zap.String("subscription_id", sub.ID.String()),
		zap.Time("current_period_end", sub.CurrentPeriodEnd))

	return &CancellationResult{
		SubscriptionID: sub.ID,
		Immediate:      false,
		Message: fmt.Sprintf("subscription will cancel at period end (%s), no refund",
			sub.CurrentPeriodEnd.Format("2006-01-02")),
	}, nil
}

// GetRefundWindowInfo is a read-only eligibility query for UI display.
func (s *CancellationService) GetRefundWindowInfo(ctx context.Context, subscriptionID, userID uuid.UUID) (*RefundWindowInfo, error) {
	sub, err := s.loadOwnedSubscription(ctx, subscriptionID, userID)
	if err != nil {
		return nil, err
	}

	daysActive := s.daysActive(sub)
	daysRemaining := s.windowDays - daysActive
	if daysRemaining < 0 {
		daysRemaining = 0
	}

	return &RefundWindowInfo{
		SubscriptionID: sub.ID,
		WindowDays:     s.windowDays,
		DaysActive:     daysActive,
		DaysRemaining:  daysRemaining,
		RefundEligible: daysActive <= s.windowDays,
	}, nil
}

func (s *CancellationService) loadOwnedSubscription(ctx context.Context, subscriptionID, userID uuid.UUID) (*model.Subscription, error) {
	sub, err := s.subRepo.GetByID(ctx, subscriptionID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to get subscription")
	}
	if sub == nil || sub.UserID != userID {
		return nil, apperrors.NewAppError(apperrors.ErrNotFound,
			"subscription not found", domainErrors.ErrSubscriptionNotFound)
	}
	return sub, nil
}

func (s *CancellationService) daysActive(sub *model.Subscription) int {
	return int(time.Since(sub.StartDate).Hours() / 24)
}
