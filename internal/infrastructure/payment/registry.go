package payment

import (
	"github.com/armonia/backend/internal/domain/payment"
)

// Registry holds the gateway adapters that were configured at startup
type Registry struct {
	gateways map[payment.GatewayType]payment.Gateway
	order    []payment.GatewayType
}

// NewRegistry creates a registry from the configured adapters. Later
// registrations of the same type replace earlier ones.
func NewRegistry(gateways ...payment.Gateway) *Registry {
	r := &Registry{
		gateways: make(map[payment.GatewayType]payment.Gateway, len(gateways)),
	}
	for _, gw := range gateways {
		if gw == nil {
			continue
		}
		t := gw.GatewayType()
		if _, exists := r.gateways[t]; !exists {
			r.order = append(r.order, t)
		}
		r.gateways[t] = gw
	}
	return r
}

// GetGateway returns the adapter for the given type
func (r *Registry) GetGateway(gatewayType payment.GatewayType) (payment.Gateway, error) {
	gw, ok := r.gateways[gatewayType]
	if !ok {
		return nil, payment.ErrGatewayNotEnabled
	}
	return gw, nil
}

// ListGateways returns all registered adapters in registration order
func (r *Registry) ListGateways() []payment.Gateway {
	result := make([]payment.Gateway, 0, len(r.order))
	for _, t := range r.order {
		result = append(result, r.gateways[t])
	}
	return result
}

// IsEnabled returns true if the gateway type has a registered adapter
func (r *Registry) IsEnabled(gatewayType payment.GatewayType) bool {
	_, ok := r.gateways[gatewayType]
	return ok
}

// Ensure Registry implements the GatewayRegistry interface
var _ payment.GatewayRegistry = (*Registry)(nil)
