package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	domainErrors "github.com/ranktrackhq/billing-service/internal/domain/errors"
	"github.com/ranktrackhq/billing-service/internal/domain/gateway"
	"github.com/ranktrackhq/billing-service/internal/domain/model"
	apperrors "github.com/ranktrackhq/billing-service/pkg/errors"
)

func activeSubscription(daysOld int) *model.Subscription {
	extID := "gw-sub-001"
	return &model.Subscription{
		ID:                     uuid.New(),
		UserID:                 uuid.New(),
		PackageID:              42,
		Gateway:                "midtrans",
		Status:                 model.SubscriptionStatusActive,
		StartDate:              time.Now().Add(-time.Duration(daysOld) * 24 * time.Hour),
		CurrentPeriodEnd:       time.Now().Add(20 * 24 * time.Hour),
		ExternalSubscriptionID: &extID,
	}
}

func completedTransaction(subID uuid.UUID, amount float64) *model.Transaction {
	extTx := "mid-555"
	return &model.Transaction{
		ID:                    uuid.New(),
		SubscriptionID:        &subID,
		Status:                model.TransactionStatusCompleted,
		Amount:                decimal.NewFromFloat(amount),
		Currency:              "USD",
		ExternalTransactionID: &extTx,
	}
}

func TestCancelWithRefundPolicy_InsideWindowRefunds(t *testing.T) {
	subRepo := new(MockSubscriptionRepository)
	txRepo := new(MockTransactionRepository)
	gw := new(MockGateway)
	notifier := new(MockNotifier)

	sub := activeSubscription(3)
	lastTx := completedTransaction(sub.ID, 29.99)

	subRepo.On("GetByID", mock.Anything, sub.ID).Return(sub, nil)
	gw.On("CancelSubscription", mock.Anything, *sub.ExternalSubscriptionID, gateway.EffectiveImmediately).Return(nil)
	subRepo.On("MarkCanceled", mock.Anything, sub.ID, mock.AnythingOfType("time.Time"), "too expensive").Return(true, nil)
	subRepo.On("ClearActivePackage", mock.Anything, sub.UserID).Return(nil)
	txRepo.On("GetLatestCompletedBySubscription", mock.Anything, sub.ID).Return(lastTx, nil)
	gw.On("CreateRefund", mock.Anything, mock.AnythingOfType("*gateway.RefundRequest")).Return(&gateway.RefundResponse{RefundID: "ref-1"}, nil)
	txRepo.On("AppendNote", mock.Anything, lastTx.ID, mock.AnythingOfType("string")).Return(nil)
	notifier.On("SubscriptionCanceled", mock.Anything, sub, true, mock.Anything).Return()

	svc := NewCancellationService(subRepo, txRepo, staticResolver{gw: gw}, notifier, 7, zap.NewNop())

	result, err := svc.CancelWithRefundPolicy(context.Background(), sub.ID, sub.UserID, "too expensive")

	assert.NoError(t, err)
	assert.True(t, result.Immediate)
	assert.True(t, result.RefundIssued)
	assert.True(t, result.RefundAmount.Equal(decimal.NewFromFloat(29.99)))
	assert.Contains(t, result.Message, "$29.99")

	subRepo.AssertExpectations(t)
	txRepo.AssertExpectations(t)
	gw.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestCancelWithRefundPolicy_OutsideWindowSchedules(t *testing.T) {
	subRepo := new(MockSubscriptionRepository)
	txRepo := new(MockTransactionRepository)
	gw := new(MockGateway)
	notifier := new(MockNotifier)

	sub := activeSubscription(10)

	subRepo.On("GetByID", mock.Anything, sub.ID).Return(sub, nil)
	gw.On("CancelSubscription", mock.Anything, *sub.ExternalSubscriptionID, gateway.EffectiveNextPeriod).Return(nil)
	subRepo.On("ScheduleCancelAtPeriodEnd", mock.Anything, sub.ID, mock.AnythingOfType("time.Time"), "").Return(true, nil)

	svc := NewCancellationService(subRepo, txRepo, staticResolver{gw: gw}, notifier, 7, zap.NewNop())

	result, err := svc.CancelWithRefundPolicy(context.Background(), sub.ID, sub.UserID, "")

	assert.NoError(t, err)
	assert.False(t, result.Immediate)
	assert.False(t, result.RefundIssued)
	assert.Contains(t, result.Message, "no refund")

	// The no-refund path must never touch refunds or immediate cancellation.
	gw.AssertNotCalled(t, "CreateRefund", mock.Anything, mock.Anything)
	subRepo.AssertNotCalled(t, "MarkCanceled", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	subRepo.AssertExpectations(t)
}

func TestCancelWithRefundPolicy_WindowBoundary(t *testing.T) {
	cases := []struct {
		name          string
		daysOld       int
		wantImmediate bool
	}{
		{"day 7 is still eligible", 7, true},
		{"day 8 is not", 8, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			subRepo := new(MockSubscriptionRepository)
			txRepo := new(MockTransactionRepository)
			gw := new(MockGateway)
			notifier := new(MockNotifier)

			sub := activeSubscription(tc.daysOld)
			subRepo.On("GetByID", mock.Anything, sub.ID).Return(sub, nil)
			gw.On("CancelSubscription", mock.Anything, mock.Anything, mock.Anything).Return(nil)

			if tc.wantImmediate {
				subRepo.On("MarkCanceled", mock.Anything, sub.ID, mock.Anything, mock.Anything).Return(true, nil)
				subRepo.On("ClearActivePackage", mock.Anything, sub.UserID).Return(nil)
				txRepo.On("GetLatestCompletedBySubscription", mock.Anything, sub.ID).Return(nil, nil)
				notifier.On("SubscriptionCanceled", mock.Anything, sub, false, mock.Anything).Return()
			} else {
				subRepo.On("ScheduleCancelAtPeriodEnd", mock.Anything, sub.ID, mock.Anything, mock.Anything).Return(true, nil)
			}

			svc := NewCancellationService(subRepo, txRepo, staticResolver{gw: gw}, notifier, 7, zap.NewNop())

			result, err := svc.CancelWithRefundPolicy(context.Background(), sub.ID, sub.UserID, "")

			assert.NoError(t, err)
			assert.Equal(t, tc.wantImmediate, result.Immediate)
		})
	}
}

func TestCancelWithRefundPolicy_AlreadyCanceled(t *testing.T) {
	subRepo := new(MockSubscriptionRepository)
	txRepo := new(MockTransactionRepository)
	gw := new(MockGateway)
	notifier := new(MockNotifier)

	sub := activeSubscription(3)
	sub.Status = model.SubscriptionStatusCanceled
	subRepo.On("GetByID", mock.Anything, sub.ID).Return(sub, nil)

	svc := NewCancellationService(subRepo, txRepo, staticResolver{gw: gw}, notifier, 7, zap.NewNop())

	result, err := svc.CancelWithRefundPolicy(context.Background(), sub.ID, sub.UserID, "")

	assert.Nil(t, result)
	assert.True(t, apperrors.Is(err, domainErrors.ErrSubscriptionAlreadyCanceled))
	// No second gateway call for a subscription that already left active.
	gw.AssertNotCalled(t, "CancelSubscription", mock.Anything, mock.Anything, mock.Anything)
}

func TestCancelWithRefundPolicy_PendingPeriodEndCancelRejected(t *testing.T) {
	subRepo := new(MockSubscriptionRepository)
	txRepo := new(MockTransactionRepository)
	gw := new(MockGateway)
	notifier := new(MockNotifier)

	sub := activeSubscription(10)
	sub.CancelAtPeriodEnd = true
	subRepo.On("GetByID", mock.Anything, sub.ID).Return(sub, nil)

	svc := NewCancellationService(subRepo, txRepo, staticResolver{gw: gw}, notifier, 7, zap.NewNop())

	_, err := svc.CancelWithRefundPolicy(context.Background(), sub.ID, sub.UserID, "")

	assert.True(t, apperrors.Is(err, domainErrors.ErrSubscriptionAlreadyCanceled))
}

func TestCancelWithRefundPolicy_GatewayFailureLeavesLocalStateUntouched(t *testing.T) {
	subRepo := new(MockSubscriptionRepository)
	txRepo := new(MockTransactionRepository)
	gw := new(MockGateway)
	notifier := new(MockNotifier)

	sub := activeSubscription(3)
	subRepo.On("GetByID", mock.Anything, sub.ID).Return(sub, nil)
	gw.On("CancelSubscription", mock.Anything, mock.Anything, mock.Anything).Return(&gateway.GatewayError{
		Code:    "500",
		Message: "gateway exploded",
	})

	svc := NewCancellationService(subRepo, txRepo, staticResolver{gw: gw}, notifier, 7, zap.NewNop())

	result, err := svc.CancelWithRefundPolicy(context.Background(), sub.ID, sub.UserID, "")

	assert.Nil(t, result)
	assert.Equal(t, apperrors.ErrGateway, apperrors.CodeOf(err))
	subRepo.AssertNotCalled(t, "MarkCanceled", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	subRepo.AssertNotCalled(t, "ClearActivePackage", mock.Anything, mock.Anything)
}

func TestCancelWithRefundPolicy_RefundFailureIsPartialSuccess(t *testing.T) {
	subRepo := new(MockSubscriptionRepository)
	txRepo := new(MockTransactionRepository)
	gw := new(MockGateway)
	notifier := new(MockNotifier)

	sub := activeSubscription(3)
	lastTx := completedTransaction(sub.ID, 29.99)

	subRepo.On("GetByID", mock.Anything, sub.ID).Return(sub, nil)
	gw.On("CancelSubscription", mock.Anything, mock.Anything, gateway.EffectiveImmediately).Return(nil)
	subRepo.On("MarkCanceled", mock.Anything, sub.ID, mock.Anything, mock.Anything).Return(true, nil)
	subRepo.On("ClearActivePackage", mock.Anything, sub.UserID).Return(nil)
	txRepo.On("GetLatestCompletedBySubscription", mock.Anything, sub.ID).Return(lastTx, nil)
	gw.On("CreateRefund", mock.Anything, mock.Anything).Return(nil, &gateway.GatewayError{
		Code:    "500",
		Message: "refund endpoint down",
	})
	txRepo.On("AppendNote", mock.Anything, lastTx.ID, mock.AnythingOfType("string")).Return(nil)
	notifier.On("SubscriptionCanceled", mock.Anything, sub, false, mock.Anything).Return()

	svc := NewCancellationService(subRepo, txRepo, staticResolver{gw: gw}, notifier, 7, zap.NewNop())

	result, err := svc.CancelWithRefundPolicy(context.Background(), sub.ID, sub.UserID, "")

	// The cancellation stands even though the refund failed.
	assert.NoError(t, err)
	assert.True(t, result.Immediate)
	assert.False(t, result.RefundIssued)
	assert.Contains(t, result.Message, "could not be processed")
	txRepo.AssertCalled(t, "AppendNote", mock.Anything, lastTx.ID, mock.AnythingOfType("string"))
}

func TestCancelWithRefundPolicy_WrongOwner(t *testing.T) {
	subRepo := new(MockSubscriptionRepository)
	txRepo := new(MockTransactionRepository)

	sub := activeSubscription(3)
	subRepo.On("GetByID", mock.Anything, sub.ID).Return(sub, nil)

	svc := NewCancellationService(subRepo, txRepo, staticResolver{}, NopNotifier{}, 7, zap.NewNop())

	_, err := svc.CancelWithRefundPolicy(context.Background(), sub.ID, uuid.New(), "")

	assert.True(t, apperrors.Is(err, domainErrors.ErrSubscriptionNotFound))
}

func TestGetRefundWindowInfo(t *testing.T) {
	subRepo := new(MockSubscriptionRepository)
	txRepo := new(MockTransactionRepository)

	sub := activeSubscription(3)
	subRepo.On("GetByID", mock.Anything, sub.ID).Return(sub, nil)

	svc := NewCancellationService(subRepo, txRepo, staticResolver{}, NopNotifier{}, 7, zap.NewNop())

	info, err := svc.GetRefundWindowInfo(context.Background(), sub.ID, sub.UserID)

	assert.NoError(t, err)
	assert.Equal(t, 7, info.WindowDays)
	assert.Equal(t, 3, info.DaysActive)
	assert.Equal(t, 4, info.DaysRemaining)
	assert.True(t, info.RefundEligible)
}
