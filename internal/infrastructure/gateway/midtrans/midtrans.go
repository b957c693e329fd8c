package midtrans

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/ranktrackhq/billing-service/internal/domain/gateway"
	"go.uber.org/zap"
)

const (
	defaultBaseURL = "https://api.midtrans.com"
	requestTimeout = 30 * time.Second
)

// MidtransGateway talks to the Midtrans core API over HTTP. It serves the
// hosted-checkout payment methods (bank transfer, e-wallet, QRIS).
type MidtransGateway struct {
	serverKey string
	baseURL   string
	client    *http.Client
	logger    *zap.Logger
}

// NewMidtransGateway creates a new Midtrans gateway
func NewMidtransGateway(serverKey, baseURL string, logger *zap.Logger) *MidtransGateway {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &MidtransGateway{
		serverKey: serverKey,
		baseURL:   baseURL,
		client:    &http.Client{Timeout: requestTimeout},
		logger:    logger,
	}
}

// Name returns the gateway identifier
func (g *MidtransGateway) Name() string {
	return "midtrans"
}

// CreateCharge creates a charge via POST /v2/charge.
func (g *MidtransGateway) CreateCharge(ctx context.Context, req *gateway.ChargeRequest) (*gateway.ChargeResponse, error) {
	items := make([]map[string]interface{}, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, map[string]interface{}{
			"name":     item.Name,
			"price":    item.Price.InexactFloat64(),
			"quantity": item.Quantity,
		})
	}

	body := map[string]interface{}{
		"payment_type": req.PaymentMethod,
		"transaction_details": map[string]interface{}{
			"order_id":     req.OrderID,
			"gross_amount": req.Amount.InexactFloat64(),
		},
		"customer_details": map[string]interface{}{
			"first_name": req.Customer.Name,
			"email":      req.Customer.Email,
			"phone":      req.Customer.Phone,
		},
		"item_details": items,
		"metadata":     req.Metadata,
	}

	raw, err := g.post(ctx, "/v2/charge", body)
	if err != nil {
		return nil, err
	}

	transactionID, _ := raw["transaction_id"].(string)
	rawStatus, _ := raw["transaction_status"].(string)
	redirectURL, _ := raw["redirect_url"].(string)

	g.logger.Info("Midtrans charge created",
		zap.String("order_id", req.OrderID),
		zap.String("transaction_id", transactionID),
		zap.String("transaction_status", rawStatus))

	return &gateway.ChargeResponse{
		TransactionID: transactionID,
		RawStatus:     rawStatus,
		RedirectURL:   redirectURL,
		Raw:           raw,
	}, nil
}

// CancelSubscription disables or cancels a Midtrans subscription.
func (g *MidtransGateway) CancelSubscription(ctx context.Context, externalSubscriptionID string, effective gateway.EffectiveFrom) error {
	action := "disable"
	if effective == gateway.EffectiveImmediately {
		action = "cancel"
	}

	_, err := g.post(ctx, fmt.Sprintf("/v1/subscriptions/%s/%s", externalSubscriptionID, action), map[string]interface{}{})
	if err != nil {
		return err
	}

	g.logger.Info("Midtrans subscription canceled",
		zap.String("subscription_id", externalSubscriptionID),
		zap.String("effective", string(effective)))

	return nil
}

// CreateRefund issues a full refund via POST /v2/{id}/refund.
func (g *MidtransGateway) CreateRefund(ctx context.Context, req *gateway.RefundRequest) (*gateway.RefundResponse, error) {
	raw, err := g.post(ctx, fmt.Sprintf("/v2/%s/refund", req.ExternalTransactionID), map[string]interface{}{
		"reason": req.Reason,
	})
	if err != nil {
		return nil, err
	}

	refundID, _ := raw["refund_key"].(string)
	rawStatus, _ := raw["transaction_status"].(string)

	g.logger.Info("Midtrans refund issued",
		zap.String("transaction_id", req.ExternalTransactionID),
		zap.String("refund_key", refundID))

	return &gateway.RefundResponse{
		RefundID:  refundID,
		RawStatus: rawStatus,
	}, nil
}

// FetchTransaction retrieves transaction state via GET /v2/{id}/status.
func (g *MidtransGateway) FetchTransaction(ctx context.Context, externalTransactionID string) (*gateway.TransactionState, error) {
	raw, err := g.do(ctx, http.MethodGet, fmt.Sprintf("/v2/%s/status", externalTransactionID), nil)
	if err != nil {
		return nil, err
	}

	orderID, _ := raw["order_id"].(string)
	rawStatus, _ := raw["transaction_status"].(string)

	return &gateway.TransactionState{
		TransactionID: externalTransactionID,
		OrderID:       orderID,
		RawStatus:     rawStatus,
		Raw:           raw,
	}, nil
}

func (g *MidtransGateway) post(ctx context.Context, path string, body map[string]interface{}) (map[string]interface{}, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, &gateway.GatewayError{
			Code:    "MARSHAL_ERROR",
			Message: "Failed to prepare request",
			Details: err.Error(),
		}
	}
	return g.do(ctx, http.MethodPost, path, bytes.NewBuffer(jsonBody))
}

func (g *MidtransGateway) do(ctx context.Context, method, path string, body io.Reader) (map[string]interface{}, error) {
	httpReq, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, body)
	if err != nil {
		return nil, &gateway.GatewayError{
			Code:    "REQUEST_ERROR",
			Message: "Failed to create request",
			Details: err.Error(),
		}
	}

	auth := base64.StdEncoding.EncodeToString([]byte(g.serverKey + ":"))
	httpReq.Header.Set("Authorization", "Basic "+auth)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		if isTimeout(err) {
			return nil, &gateway.GatewayError{
				Code:    "TIMEOUT",
				Message: "Midtrans API request timed out",
				Details: err.Error(),
				Timeout: true,
			}
		}
		g.logger.Error("Midtrans API request failed",
			zap.String("path", path),
			zap.Error(err))
		return nil, &gateway.GatewayError{
			Code:    "API_ERROR",
			Message: "Midtrans API request failed",
			Details: err.Error(),
		}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &gateway.GatewayError{
			Code:    "RESPONSE_ERROR",
			Message: "Failed to read response",
			Details: err.Error(),
		}
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(respBody, &raw); err != nil {
		return nil, &gateway.GatewayError{
			Code:    "RESPONSE_ERROR",
			Message: "Failed to decode response",
			Details: err.Error(),
		}
	}

	// Midtrans carries its own status_code field alongside HTTP 200.
	if resp.StatusCode >= 400 || isErrorStatusCode(raw) {
		code, _ := raw["status_code"].(string)
		message, _ := raw["status_message"].(string)
		if message == "" {
			message = "Midtrans API returned an error"
		}

		g.logger.Error("Midtrans API returned error",
			zap.String("path", path),
			zap.Int("http_status", resp.StatusCode),
			zap.String("status_code", code),
			zap.String("status_message", message))

		return nil, &gateway.GatewayError{
			Code:    code,
			Message: message,
			Details: string(respBody),
		}
	}

	return raw, nil
}

func isErrorStatusCode(raw map[string]interface{}) bool {
	code, ok := raw["status_code"].(string)
	if !ok {
		return false
	}
	return code >= "400"
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
