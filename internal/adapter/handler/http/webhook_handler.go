package http

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/ranktrackhq/billing-service/internal/usecase"
	apperrors "github.com/ranktrackhq/billing-service/pkg/errors"
	"go.uber.org/zap"
)

// WebhookHandler receives asynchronous payment notifications from Midtrans
// and feeds them into reconciliation.
type WebhookHandler struct {
	payments  *usecase.PaymentService
	serverKey string
	logger    *zap.Logger
}

func NewWebhookHandler(payments *usecase.PaymentService, serverKey string, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		payments:  payments,
		serverKey: serverKey,
		logger:    logger,
	}
}

// HandleMidtransNotification processes POST /webhook/midtrans. Midtrans
// retries on any non-2xx response, so only signature and parse failures are
// rejected; reconciliation errors come back 500 to trigger a retry.
func (h *WebhookHandler) HandleMidtransNotification(c echo.Context) error {
	var payload map[string]interface{}
	if err := c.Bind(&payload); err != nil {
		h.logger.Warn("Malformed webhook payload", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid notification payload",
			"code":  apperrors.ErrInvalidArgument,
		})
	}

	orderID, _ := payload["order_id"].(string)
	statusCode, _ := payload["status_code"].(string)
	grossAmount, _ := payload["gross_amount"].(string)
	signatureKey, _ := payload["signature_key"].(string)
	transactionStatus, _ := payload["transaction_status"].(string)
	transactionID, _ := payload["transaction_id"].(string)

	if orderID == "" || transactionStatus == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Notification missing required fields",
			"code":  apperrors.ErrInvalidArgument,
		})
	}

	if !h.verifySignature(orderID, statusCode, grossAmount, signatureKey) {
		h.logger.Warn("Webhook signature verification failed",
			zap.String("order_id", orderID))
		return c.JSON(http.StatusUnauthorized, echo.Map{
			"error": "Invalid signature",
			"code":  apperrors.ErrUnauthenticated,
		})
	}

	err := h.payments.ReconcileGatewayNotification(c.Request().Context(), orderID, transactionID, transactionStatus, payload)
	if err != nil {
		code := apperrors.CodeOf(err)
		h.logger.Error("Webhook reconciliation failed",
			zap.String("order_id", orderID),
			zap.String("transaction_status", transactionStatus),
			zap.Error(err))
		return c.JSON(apperrors.ToHTTPStatus(code), echo.Map{
			"error": err.Error(),
			"code":  code,
		})
	}

	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

// verifySignature checks the Midtrans notification signature:
// sha512(order_id + status_code + gross_amount + server_key).
func (h *WebhookHandler) verifySignature(orderID, statusCode, grossAmount, signatureKey string) bool {
	if signatureKey == "" {
		return false
	}

	sum := sha512.Sum512([]byte(orderID + statusCode + grossAmount + h.serverKey))
	expected := hex.EncodeToString(sum[:])

	return subtle.ConstantTimeCompare([]byte(expected), []byte(signatureKey)) == 1
}
