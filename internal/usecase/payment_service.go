package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	apperrors "github.com/ranktrackhq/billing-service/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	domainErrors "github.com/ranktrackhq/billing-service/internal/domain/errors"
	"github.com/ranktrackhq/billing-service/internal/domain/gateway"
	"github.com/ranktrackhq/billing-service/internal/domain/model"
	"github.com/ranktrackhq/billing-service/internal/domain/repository"
)

// GatewayResolver maps payment methods and gateway names to gateway
// implementations. The mapping is built once at startup.
type GatewayResolver interface {
	ForMethod(method string) (gateway.Gateway, bool)
	ByName(name string) (gateway.Gateway, bool)
}

// ProcessPaymentRequest is the inbound payment request.
type ProcessPaymentRequest struct {
	UserID        uuid.UUID               `json:"user_id" validate:"required"`
	PackageID     int64                   `json:"package_id" validate:"required,gt=0"`
	BillingPeriod string                  `json:"billing_period" validate:"required"`
	PaymentMethod string                  `json:"payment_method" validate:"required"`
	Customer      gateway.CustomerDetails `json:"customer" validate:"required"`
}

// ProcessPaymentResult is the structured outcome of one payment attempt.
// A definite gateway rejection comes back as Success=false, not as an error.
type ProcessPaymentResult struct {
	TransactionID uuid.UUID               `json:"transaction_id"`
	OrderID       string                  `json:"order_id"`
	Status        model.TransactionStatus `json:"status"`
	Amount        decimal.Decimal         `json:"amount"`
	Currency      string                  `json:"currency"`
	RedirectURL   string                  `json:"redirect_url,omitempty"`
	Success       bool                    `json:"success"`
	Message       string                  `json:"message"`
}

// PaymentService orchestrates creation of a transaction, routes it to a
// gateway and reconciles the gateway's response into the store.
type PaymentService struct {
	txRepo      repository.TransactionRepository
	packageRepo repository.PackageRepository
	gateways    GatewayResolver
	validate    *validator.Validate
	logger      *zap.Logger
}

// NewPaymentService creates a new payment service instance
func NewPaymentService(
	txRepo repository.TransactionRepository,
	packageRepo repository.PackageRepository,
	gateways GatewayResolver,
	logger *zap.Logger,
) *PaymentService {
	return &PaymentService{
		txRepo:      txRepo,
		packageRepo: packageRepo,
		gateways:    gateways,
		validate:    validator.New(),
		logger:      logger,
	}
}

// ProcessPayment validates and prices the request, persists a pending
// transaction, delegates the charge to a gateway and records the result.
// Exactly one transaction row is created per call; a failed gateway call
// transitions that same row to failed instead of leaving an orphan.
func (s *PaymentService) ProcessPayment(ctx context.Context, req *ProcessPaymentRequest) (*ProcessPaymentResult, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, apperrors.NewAppError(apperrors.ErrInvalidArgument, "invalid payment request", err)
	}

	gw, ok := s.gateways.ForMethod(req.PaymentMethod)
	if !ok {
		return nil, apperrors.NewAppError(apperrors.ErrInvalidArgument,
			fmt.Sprintf("unsupported payment method: %s", req.PaymentMethod),
			domainErrors.ErrUnsupportedPaymentMethod)
	}

	pkg, err := s.packageRepo.GetActiveByID(ctx, req.PackageID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to look up package")
	}
	if pkg == nil {
		return nil, apperrors.NewAppError(apperrors.ErrNotFound, "package not found or inactive", domainErrors.ErrPackageNotFound)
	}

	amount, currency, ok := pkg.PriceFor(req.BillingPeriod)
	if !ok {
		return nil, apperrors.NewAppError(apperrors.ErrPricing,
			fmt.Sprintf("no pricing tier for billing period %q on package %d", req.BillingPeriod, pkg.ID),
			domainErrors.ErrNoPricingTier)
	}

	orderID := s.generateOrderID(req.PaymentMethod, req.UserID)

	tx := &model.Transaction{
		ID:            uuid.New(),
		UserID:        req.UserID,
		PackageID:     pkg.ID,
		Gateway:       gw.Name(),
		OrderID:       orderID,
		Amount:        amount,
		Currency:      currency,
		PaymentMethod: req.PaymentMethod,
		Status:        model.TransactionStatusPending,
		Metadata: model.JSONB{
			"billing_period": req.BillingPeriod,
			"order_id":       orderID,
			"package_name":   pkg.Name,
			"customer_name":  req.Customer.Name,
			"customer_email": req.Customer.Email,
		},
	}

	entry := &model.TransactionHistory{
		OldStatus:  model.TransactionStatusPending,
		NewStatus:  model.TransactionStatusPending,
		ActionType: model.ActionPaymentCreated,
		ActorType:  model.ActorTypeUser,
		Notes:      fmt.Sprintf("payment created for package %s (%s)", pkg.Name, req.BillingPeriod),
	}

	if err := s.txRepo.Create(ctx, tx, entry); err != nil {
		if errors.Is(err, domainErrors.ErrDuplicateOrderID) {
			return nil, apperrors.NewAppError(apperrors.ErrConflict, "order id collision, retry the payment", err)
		}
		return nil, apperrors.Wrap(err, "failed to persist transaction")
	}

	s.logger.Info("Transaction created",
		zap.String("transaction_id", tx.ID.String()),
		zap.String("order_id", orderID),
		zap.String("gateway", gw.Name()),
		zap.String("amount", amount.StringFixed(2)))

	resp, err := gw.CreateCharge(ctx, &gateway.ChargeRequest{
		OrderID:       orderID,
		Amount:        amount,
		Currency:      currency,
		PaymentMethod: req.PaymentMethod,
		Customer:      req.Customer,
		Items: []gateway.ChargeItem{
			{Name: fmt.Sprintf("%s (%s)", pkg.Name, req.BillingPeriod), Price: amount, Quantity: 1},
		},
		Metadata: map[string]interface{}{
			"billing_period": req.BillingPeriod,
			"package_id":     pkg.ID,
		},
	})

	if err != nil {
		return s.handleChargeFailure(ctx, tx, err)
	}

	return s.recordChargeResult(ctx, tx, resp)
}

// handleChargeFailure resolves a gateway error into either a failed
// transaction (definite rejection) or an untouched pending row (timeout,
// outcome unknown — a later reconciliation or the expiry sweep resolves it).
func (s *PaymentService) handleChargeFailure(ctx context.Context, tx *model.Transaction, chargeErr error) (*ProcessPaymentResult, error) {
	if gateway.IsTimeout(chargeErr) {
		s.logger.Warn("Gateway call timed out, leaving transaction pending",
			zap.String("transaction_id", tx.ID.String()),
			zap.String("order_id", tx.OrderID),
			zap.Error(chargeErr))
		return nil, apperrors.NewAppError(apperrors.ErrGatewayTimeout,
			"gateway timed out, payment outcome unknown", chargeErr)
	}

	entry := &model.TransactionHistory{
		ActionType: model.ActionGatewayUpdate,
		ActorType:  model.ActorTypeGateway,
		Notes:      fmt.Sprintf("gateway charge failed: %s", chargeErr.Error()),
	}

	ok, err := s.txRepo.TryTransition(ctx, tx.ID,
		model.TransactionStatusPending, model.TransactionStatusFailed,
		map[string]interface{}{"payment_status": "failure"}, entry)
	if err != nil {
		s.logger.Error("Failed to mark transaction failed after gateway error",
			zap.String("transaction_id", tx.ID.String()),
			zap.Error(err))
	} else if !ok {
		s.logger.Warn("Transaction already transitioned by another writer",
			zap.String("transaction_id", tx.ID.String()))
	}

	s.logger.Error("Gateway charge failed",
		zap.String("transaction_id", tx.ID.String()),
		zap.String("order_id", tx.OrderID),
		zap.Error(chargeErr))

	return &ProcessPaymentResult{
		TransactionID: tx.ID,
		OrderID:       tx.OrderID,
		Status:        model.TransactionStatusFailed,
		Amount:        tx.Amount,
		Currency:      tx.Currency,
		Success:       false,
		Message:       fmt.Sprintf("payment failed: %s", chargeErr.Error()),
	}, nil
}

// recordChargeResult maps the gateway's raw status to the internal status
// and records the gateway identifiers on the transaction.
func (s *PaymentService) recordChargeResult(ctx context.Context, tx *model.Transaction, resp *gateway.ChargeResponse) (*ProcessPaymentResult, error) {
	internal := gateway.MapRawStatus(resp.RawStatus)

	updates := map[string]interface{}{
		"payment_status":          resp.RawStatus,
		"external_transaction_id": resp.TransactionID,
		"gateway_response":        model.JSONB(resp.Raw),
	}

	if internal == model.TransactionStatusPending {
		// No lifecycle transition yet; the gateway will settle or reject
		// later via its notification webhook.
		if err := s.txRepo.UpdateGatewayState(ctx, tx.ID, updates); err != nil {
			return nil, apperrors.Wrap(err, "failed to record gateway response")
		}
	} else {
		updates["processed_at"] = time.Now()
		entry := &model.TransactionHistory{
			ActionType: model.ActionGatewayUpdate,
			ActorType:  model.ActorTypeGateway,
			Notes:      fmt.Sprintf("gateway status %q", resp.RawStatus),
		}

		ok, err := s.txRepo.TryTransition(ctx, tx.ID,
			model.TransactionStatusPending, internal, updates, entry)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to record gateway result")
		}
		if !ok {
			s.logger.Warn("Transition conflict recording gateway result",
				zap.String("transaction_id", tx.ID.String()),
				zap.String("raw_status", resp.RawStatus))
		}
	}

	result := &ProcessPaymentResult{
		TransactionID: tx.ID,
		OrderID:       tx.OrderID,
		Status:        internal,
		Amount:        tx.Amount,
		Currency:      tx.Currency,
		RedirectURL:   resp.RedirectURL,
		Success:       internal != model.TransactionStatusFailed,
	}

	switch internal {
	case model.TransactionStatusCompleted:
		result.Message = fmt.Sprintf("payment of $%s completed", tx.Amount.StringFixed(2))
	case model.TransactionStatusFailed:
		result.Message = fmt.Sprintf("payment rejected by gateway (%s)", resp.RawStatus)
	default:
		result.Message = "payment pending, awaiting gateway confirmation"
	}

	return result, nil
}

// ReconcileGatewayNotification applies a gateway payment notification to
// the matching transaction. Idempotent: a notification for an already
// terminal transaction is logged as a conflict, never re-applied.
func (s *PaymentService) ReconcileGatewayNotification(ctx context.Context, orderID, externalID, rawStatus string, raw map[string]interface{}) error {
	tx, err := s.txRepo.GetByOrderID(ctx, orderID)
	if err != nil {
		return apperrors.Wrap(err, "failed to look up transaction")
	}
	if tx == nil {
		return apperrors.NewAppError(apperrors.ErrNotFound, "unknown order id", domainErrors.ErrTransactionNotFound)
	}

	internal := gateway.MapRawStatus(rawStatus)

	if tx.Status.Terminal() {
		s.logger.Warn("Notification for already terminal transaction ignored",
			zap.String("transaction_id", tx.ID.String()),
			zap.String("status", string(tx.Status)),
			zap.String("raw_status", rawStatus))
		return nil
	}

	updates := map[string]interface{}{
		"payment_status":          rawStatus,
		"external_transaction_id": externalID,
		"gateway_response":        model.JSONB(raw),
	}

	if internal == model.TransactionStatusPending {
		return s.txRepo.UpdateGatewayState(ctx, tx.ID, updates)
	}

	updates["processed_at"] = time.Now()
	entry := &model.TransactionHistory{
		ActionType: model.ActionGatewayUpdate,
		ActorType:  model.ActorTypeGateway,
		Notes:      fmt.Sprintf("webhook notification, gateway status %q", rawStatus),
	}

	ok, err := s.txRepo.TryTransition(ctx, tx.ID,
		model.TransactionStatusPending, internal, updates, entry)
	if err != nil {
		return apperrors.Wrap(err, "failed to apply notification")
	}
	if !ok {
		s.logger.Warn("Notification lost transition race",
			zap.String("transaction_id", tx.ID.String()),
			zap.String("raw_status", rawStatus))
	}

	return nil
}

// GetTransaction returns a transaction owned by the given user.
func (s *PaymentService) GetTransaction(ctx context.Context, id, userID uuid.UUID) (*model.Transaction, error) {
	tx, err := s.txRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to get transaction")
	}
	if tx == nil || tx.UserID != userID {
		return nil, apperrors.NewAppError(apperrors.ErrNotFound, "transaction not found", domainErrors.ErrTransactionNotFound)
	}
	return tx, nil
}

// GetUserTransactions returns all transactions for a user, newest first.
func (s *PaymentService) GetUserTransactions(ctx context.Context, userID uuid.UUID) ([]*model.Transaction, error) {
	return s.txRepo.GetByUserID(ctx, userID)
}

// GetUserRecentTransactions returns the most recent transactions, with the
// limit clamped to a sane range.
func (s *PaymentService) GetUserRecentTransactions(ctx context.Context, userID uuid.UUID, limit int) ([]*model.Transaction, error) {
	if limit < 1 {
		limit = 10
	} else if limit > 100 {
		limit = 100
	}
	return s.txRepo.GetRecentByUserID(ctx, userID, limit)
}

// generateOrderID builds a human-readable order identifier from the payment
// method, a prefix of the user id and the current timestamp. The store's
// unique index is the collision backstop.
func (s *PaymentService) generateOrderID(method string, userID uuid.UUID) string {
	methodTag := strings.ToUpper(method)
	if len(methodTag) > 4 {
		methodTag = methodTag[:4]
	}
	userTag := strings.ReplaceAll(userID.String(), "-", "")[:8]
	return fmt.Sprintf("%s-%s-%d-%s", methodTag, userTag, time.Now().Unix(), uuid.New().String()[:6])
}
