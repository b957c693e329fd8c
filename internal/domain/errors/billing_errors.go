package errors

import "errors"

var (
	// ErrPackageNotFound indicates the requested package is unknown or inactive
	ErrPackageNotFound = errors.New("package not found or inactive")

	// ErrNoPricingTier indicates the package has no pricing tier for the requested billing period
	ErrNoPricingTier = errors.New("no pricing tier for requested billing period")

	// ErrDuplicateOrderID indicates an order identifier collision at insert time
	ErrDuplicateOrderID = errors.New("order id already exists")

	// ErrTransactionNotFound indicates the specified transaction was not found
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrSubscriptionNotFound indicates the subscription is unknown or not owned by the caller
	ErrSubscriptionNotFound = errors.New("subscription not found")

	// ErrSubscriptionAlreadyCanceled indicates a repeated cancellation attempt
	ErrSubscriptionAlreadyCanceled = errors.New("subscription already canceled")

	// ErrTransitionConflict indicates the optimistic status guard lost a race to another writer
	ErrTransitionConflict = errors.New("transaction already transitioned by another writer")

	// ErrSweepAlreadyRunning indicates an overlapping expiry sweep trigger was skipped
	ErrSweepAlreadyRunning = errors.New("expiry sweep already running")

	// ErrUnsupportedPaymentMethod indicates no gateway is registered for the payment method
	ErrUnsupportedPaymentMethod = errors.New("unsupported payment method")
)
