package http

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/ranktrackhq/billing-service/internal/middleware/auth"
	"github.com/ranktrackhq/billing-service/internal/usecase"
	apperrors "github.com/ranktrackhq/billing-service/pkg/errors"
	"go.uber.org/zap"
)

type SubscriptionHandler struct {
	cancellations *usecase.CancellationService
	logger        *zap.Logger
}

func NewSubscriptionHandler(cancellations *usecase.CancellationService, logger *zap.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{
		cancellations: cancellations,
		logger:        logger,
	}
}

// CancelSubscriptionRequest is the optional JSON body of the cancel endpoint.
type CancelSubscriptionRequest struct {
	Reason string `json:"reason"`
}

func (h *SubscriptionHandler) CancelSubscription(c echo.Context) error {
	user, err := auth.RequireAuth(c)
	if err != nil {
		return err
	}

	subscriptionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid subscription id",
			"code":  apperrors.ErrInvalidArgument,
		})
	}

	// Body is optional; a missing or malformed body just means no reason.
	var req CancelSubscriptionRequest
	_ = c.Bind(&req)

	result, err := h.cancellations.CancelWithRefundPolicy(c.Request().Context(), subscriptionID, user.UserID, req.Reason)
	if err != nil {
		code := apperrors.CodeOf(err)
		h.logger.Error("Subscription cancellation failed",
			zap.String("subscription_id", subscriptionID.String()),
			zap.String("user_id", user.UserID.String()),
			zap.String("code", code),
			zap.Error(err))
		return c.JSON(apperrors.ToHTTPStatus(code), echo.Map{
			"error": err.Error(),
			"code":  code,
		})
	}

	return c.JSON(http.StatusOK, result)
}

func (h *SubscriptionHandler) GetRefundWindow(c echo.Context) error {
	user, err := auth.RequireAuth(c)
	if err != nil {
		return err
	}

	subscriptionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid subscription id",
			"code":  apperrors.ErrInvalidArgument,
		})
	}

	info, err := h.cancellations.GetRefundWindowInfo(c.Request().Context(), subscriptionID, user.UserID)
	if err != nil {
		code := apperrors.CodeOf(err)
		return c.JSON(apperrors.ToHTTPStatus(code), echo.Map{
			"error": err.Error(),
			"code":  code,
		})
	}

	return c.JSON(http.StatusOK, info)
}
