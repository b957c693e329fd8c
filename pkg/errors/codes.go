package errors

// Common error codes shared across the service.
const (
	ErrInternal        = "INTERNAL"
	ErrNotFound        = "NOT_FOUND"
	ErrInvalidArgument = "INVALID_ARGUMENT"
	ErrUnauthenticated = "UNAUTHENTICATED"
	ErrUnauthorized    = "UNAUTHORIZED"
	ErrConflict        = "CONFLICT"
	ErrTimeout         = "TIMEOUT"

	// Billing-specific codes.
	ErrPricing        = "PRICING"
	ErrGateway        = "GATEWAY"
	ErrGatewayTimeout = "GATEWAY_TIMEOUT"
	ErrRateLimited    = "RATE_LIMITED"
)
