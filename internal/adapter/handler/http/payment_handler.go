package http

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/ranktrackhq/billing-service/internal/domain/gateway"
	"github.com/ranktrackhq/billing-service/internal/middleware/auth"
	"github.com/ranktrackhq/billing-service/internal/usecase"
	apperrors "github.com/ranktrackhq/billing-service/pkg/errors"
	"go.uber.org/zap"
)

type PaymentHandler struct {
	payments *usecase.PaymentService
	logger   *zap.Logger
}

func NewPaymentHandler(payments *usecase.PaymentService, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		payments: payments,
		logger:   logger,
	}
}

// CreatePaymentRequest is the JSON body of POST /api/v1/payments. The user id
// always comes from the JWT, never from the body.
type CreatePaymentRequest struct {
	PackageID     int64                   `json:"package_id"`
	BillingPeriod string                  `json:"billing_period"`
	PaymentMethod string                  `json:"payment_method"`
	Customer      gateway.CustomerDetails `json:"customer"`
}

func (h *PaymentHandler) CreatePayment(c echo.Context) error {
	user, err := auth.RequireAuth(c)
	if err != nil {
		return err // RequireAuth already returns the JSON error response
	}

	var req CreatePaymentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request body",
			"code":  apperrors.ErrInvalidArgument,
		})
	}

	result, err := h.payments.ProcessPayment(c.Request().Context(), &usecase.ProcessPaymentRequest{
		UserID:        user.UserID,
		PackageID:     req.PackageID,
		BillingPeriod: req.BillingPeriod,
		PaymentMethod: req.PaymentMethod,
		Customer:      req.Customer,
	})
	if err != nil {
		code := apperrors.CodeOf(err)
		h.logger.Error("Payment processing failed",
			zap.String("user_id", user.UserID.String()),
			zap.Int64("package_id", req.PackageID),
			zap.String("code", code),
			zap.Error(err))
		return c.JSON(apperrors.ToHTTPStatus(code), echo.Map{
			"error": err.Error(),
			"code":  code,
		})
	}

	return c.JSON(http.StatusCreated, result)
}

func (h *PaymentHandler) GetPayment(c echo.Context) error {
	user, err := auth.RequireAuth(c)
	if err != nil {
		return err
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid transaction id",
			"code":  apperrors.ErrInvalidArgument,
		})
	}

	tx, err := h.payments.GetTransaction(c.Request().Context(), id, user.UserID)
	if err != nil {
		code := apperrors.CodeOf(err)
		return c.JSON(apperrors.ToHTTPStatus(code), echo.Map{
			"error": err.Error(),
			"code":  code,
		})
	}

	return c.JSON(http.StatusOK, tx)
}

func (h *PaymentHandler) GetUserPayments(c echo.Context) error {
	user, err := auth.RequireAuth(c)
	if err != nil {
		return err
	}

	txs, err := h.payments.GetUserTransactions(c.Request().Context(), user.UserID)
	if err != nil {
		h.logger.Error("Failed to get user payments",
			zap.String("user_id", user.UserID.String()),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to get payments",
			"code":  apperrors.ErrInternal,
		})
	}

	return c.JSON(http.StatusOK, txs)
}

func (h *PaymentHandler) GetUserRecentPayments(c echo.Context) error {
	user, err := auth.RequireAuth(c)
	if err != nil {
		return err
	}

	limit := 10 // Default value
	if limitStr := c.QueryParam("limit"); limitStr != "" {
		parsedLimit, err := strconv.Atoi(limitStr)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error": "Invalid limit parameter",
				"code":  apperrors.ErrInvalidArgument,
			})
		}
		limit = parsedLimit
	}

	txs, err := h.payments.GetUserRecentTransactions(c.Request().Context(), user.UserID, limit)
	if err != nil {
		h.logger.Error("Failed to get recent user payments",
			zap.String("user_id", user.UserID.String()),
			zap.Int("limit", limit),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to get recent payments",
			"code":  apperrors.ErrInternal,
		})
	}

	return c.JSON(http.StatusOK, txs)
}
