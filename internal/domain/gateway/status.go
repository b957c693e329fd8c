package gateway

import "github.com/ranktrackhq/billing-service/internal/domain/model"

// MapRawStatus translates a raw gateway status string into the internal
// transaction status. Unrecognized statuses map to pending: a charge is
// never marked completed on an unknown signal.
func MapRawStatus(raw string) model.TransactionStatus {
	switch raw {
	case "settlement", "capture", "succeeded", "paid":
		return model.TransactionStatusCompleted
	case "pending", "authorize":
		return model.TransactionStatusPending
	case "deny", "cancel", "expire", "failure":
		return model.TransactionStatusFailed
	default:
		return model.TransactionStatusPending
	}
}
