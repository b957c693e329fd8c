package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/ranktrackhq/billing-service/internal/domain/gateway"
	"github.com/ranktrackhq/billing-service/internal/domain/model"
)

// MockTransactionRepository is a mock implementation
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) Create(ctx context.Context, tx *model.Transaction, entry *model.TransactionHistory) error {
	args := m.Called(ctx, tx, entry)
	return args.Error(0)
}

func (m *MockTransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) GetByOrderID(ctx context.Context, orderID string) (*model.Transaction, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) GetByUserID(ctx context.Context, userID uuid.UUID) ([]*model.Transaction, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) GetRecentByUserID(ctx context.Context, userID uuid.UUID, limit int) ([]*model.Transaction, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) GetLatestCompletedBySubscription(ctx context.Context, subscriptionID uuid.UUID) (*model.Transaction, error) {
	args := m.Called(ctx, subscriptionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) ListStalePending(ctx context.Context, cutoff time.Time) ([]*model.Transaction, error) {
	args := m.Called(ctx, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) TryTransition(ctx context.Context, id uuid.UUID, from, to model.TransactionStatus, updates map[string]interface{}, entry *model.TransactionHistory) (bool, error) {
	args := m.Called(ctx, id, from, to, updates, entry)
	return args.Bool(0), args.Error(1)
}

func (m *MockTransactionRepository) UpdateGatewayState(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	args := m.Called(ctx, id, updates)
	return args.Error(0)
}

func (m *MockTransactionRepository) AppendNote(ctx context.Context, id uuid.UUID, note string) error {
	args := m.Called(ctx, id, note)
	return args.Error(0)
}

// MockSubscriptionRepository is a mock implementation
type MockSubscriptionRepository struct {
	mock.Mock
}

func (m *MockSubscriptionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Subscription, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Subscription), args.Error(1)
}

func (m *MockSubscriptionRepository) GetActiveByUserID(ctx context.Context, userID uuid.UUID) (*model.Subscription, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Subscription), args.Error(1)
}

func (m *MockSubscriptionRepository) MarkCanceled(ctx context.Context, id uuid.UUID, canceledAt time.Time, reason string) (bool, error) {
	args := m.Called(ctx, id, canceledAt, reason)
	return args.Bool(0), args.Error(1)
}

func (m *MockSubscriptionRepository) ScheduleCancelAtPeriodEnd(ctx context.Context, id uuid.UUID, canceledAt time.Time, reason string) (bool, error) {
	args := m.Called(ctx, id, canceledAt, reason)
	return args.Bool(0), args.Error(1)
}

func (m *MockSubscriptionRepository) ClearActivePackage(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// MockPackageRepository is a mock implementation
type MockPackageRepository struct {
	mock.Mock
}

func (m *MockPackageRepository) GetActiveByID(ctx context.Context, id int64) (*model.Package, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Package), args.Error(1)
}

func (m *MockPackageRepository) ListActive(ctx context.Context) ([]*model.Package, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Package), args.Error(1)
}

// MockGateway is a mock payment gateway
type MockGateway struct {
	mock.Mock
	name string
}

func (m *MockGateway) Name() string {
	if m.name != "" {
		return m.name
	}
	return "mockpay"
}

func (m *MockGateway) CreateCharge(ctx context.Context, req *gateway.ChargeRequest) (*gateway.ChargeResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.ChargeResponse), args.Error(1)
}

func (m *MockGateway) CancelSubscription(ctx context.Context, externalSubscriptionID string, effective gateway.EffectiveFrom) error {
	args := m.Called(ctx, externalSubscriptionID, effective)
	return args.Error(0)
}

func (m *MockGateway) CreateRefund(ctx context.Context, req *gateway.RefundRequest) (*gateway.RefundResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.RefundResponse), args.Error(1)
}

func (m *MockGateway) FetchTransaction(ctx context.Context, externalTransactionID string) (*gateway.TransactionState, error) {
	args := m.Called(ctx, externalTransactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.TransactionState), args.Error(1)
}

// staticResolver resolves every method and name to the same gateway.
type staticResolver struct {
	gw gateway.Gateway
}

func (r staticResolver) ForMethod(method string) (gateway.Gateway, bool) {
	if r.gw == nil {
		return nil, false
	}
	return r.gw, true
}

func (r staticResolver) ByName(name string) (gateway.Gateway, bool) {
	if r.gw == nil {
		return nil, false
	}
	return r.gw, true
}

// MockNotifier records delivered notifications
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) OrderExpired(ctx context.Context, tx *model.Transaction, hoursPending float64) {
	m.Called(ctx, tx, hoursPending)
}

func (m *MockNotifier) SubscriptionCanceled(ctx context.Context, sub *model.Subscription, refunded bool, refundAmount decimal.Decimal) {
	m.Called(ctx, sub, refunded, refundAmount)
}
