package gateway

import (
	"fmt"

	"github.com/ranktrackhq/billing-service/internal/config"
	"github.com/ranktrackhq/billing-service/internal/domain/gateway"
	"github.com/ranktrackhq/billing-service/internal/infrastructure/gateway/midtrans"
	"github.com/ranktrackhq/billing-service/internal/infrastructure/gateway/stripecard"
	"go.uber.org/zap"
)

// Registry resolves payment methods and gateway names to gateway
// implementations. The mapping is built once at startup from config;
// request handling never parses method strings.
type Registry struct {
	byMethod map[string]gateway.Gateway
	byName   map[string]gateway.Gateway
}

// NewRegistry builds the gateway registry from config. A payment method
// claimed by two gateways is a configuration error.
func NewRegistry(cfg *config.GatewaysConfig, logger *zap.Logger) (*Registry, error) {
	r := &Registry{
		byMethod: make(map[string]gateway.Gateway),
		byName:   make(map[string]gateway.Gateway),
	}

	if cfg.Midtrans.ServerKey != "" {
		gw := midtrans.NewMidtransGateway(cfg.Midtrans.ServerKey, cfg.Midtrans.BaseURL, logger)
		if err := r.register(gw, cfg.Midtrans.Methods); err != nil {
			return nil, err
		}
	}

	if cfg.Stripe.SecretKey != "" {
		gw := stripecard.NewStripeGateway(cfg.Stripe.SecretKey, logger)
		if err := r.register(gw, cfg.Stripe.Methods); err != nil {
			return nil, err
		}
	}

	if len(r.byName) == 0 {
		return nil, fmt.Errorf("no payment gateway configured")
	}

	for method, gw := range r.byMethod {
		logger.Info("Payment method registered",
			zap.String("method", method),
			zap.String("gateway", gw.Name()))
	}

	return r, nil
}

func (r *Registry) register(gw gateway.Gateway, methods []string) error {
	r.byName[gw.Name()] = gw
	for _, method := range methods {
		if existing, ok := r.byMethod[method]; ok {
			return fmt.Errorf("payment method %q claimed by both %s and %s", method, existing.Name(), gw.Name())
		}
		r.byMethod[method] = gw
	}
	return nil
}

// ForMethod returns the gateway serving a payment method.
func (r *Registry) ForMethod(method string) (gateway.Gateway, bool) {
	gw, ok := r.byMethod[method]
	return gw, ok
}

// ByName returns a gateway by its identifier.
func (r *Registry) ByName(name string) (gateway.Gateway, bool) {
	gw, ok := r.byName[name]
	return gw, ok
}
