package model

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionStatus represents the internal lifecycle status of a payment
// transaction. Pending is the sole initial state; the other three are terminal.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
	TransactionStatusCancelled TransactionStatus = "cancelled"
)

// Terminal reports whether no further status transition is allowed.
func (s TransactionStatus) Terminal() bool {
	switch s {
	case TransactionStatusCompleted, TransactionStatusFailed, TransactionStatusCancelled:
		return true
	}
	return false
}

// Scan implements sql.Scanner interface
func (s *TransactionStatus) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		*s = TransactionStatus(v)
	case []byte:
		*s = TransactionStatus(v)
	default:
		*s = TransactionStatusPending
	}
	return nil
}

// Value implements driver.Valuer interface
func (s TransactionStatus) Value() (driver.Value, error) {
	return string(s), nil
}

// Transaction represents one payment attempt. Rows are never deleted;
// cancellation is a terminal status, not a row removal.
type Transaction struct {
	ID                    uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	UserID                uuid.UUID         `gorm:"type:uuid;not null;index" json:"user_id"`
	PackageID             int64             `gorm:"not null;index" json:"package_id"`
	SubscriptionID        *uuid.UUID        `gorm:"type:uuid;index" json:"subscription_id,omitempty"`
	Gateway               string            `gorm:"size:50;not null" json:"gateway"`
	OrderID               string            `gorm:"column:order_id;uniqueIndex;size:100;not null" json:"order_id"`
	Amount                decimal.Decimal   `gorm:"type:decimal(12,2);not null" json:"amount"`
	Currency              string            `gorm:"size:3;not null" json:"currency"`
	PaymentMethod         string            `gorm:"size:50;not null" json:"payment_method"`
	Status                TransactionStatus `gorm:"size:20;not null;default:'pending';index" json:"status"`
	PaymentStatus         string            `gorm:"size:50" json:"payment_status"`
	ExternalTransactionID *string           `gorm:"size:100" json:"external_transaction_id,omitempty"`
	GatewayResponse       JSONB             `gorm:"type:jsonb" json:"gateway_response,omitempty"`
	Metadata              JSONB             `gorm:"type:jsonb" json:"metadata,omitempty"`
	Notes                 string            `json:"notes,omitempty"`
	ProcessedAt           *time.Time        `json:"processed_at,omitempty"`
	CreatedAt             time.Time         `gorm:"default:now();index" json:"created_at"`
	UpdatedAt             time.Time         `gorm:"default:now()" json:"updated_at"`

	// Relations
	History []TransactionHistory `gorm:"foreignKey:TransactionID" json:"history,omitempty"`
}

// JSONB represents a JSONB database type
type JSONB map[string]interface{}

// Value implements driver.Valuer interface
func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan implements sql.Scanner interface
func (j *JSONB) Scan(src interface{}) error {
	if src == nil {
		*j = nil
		return nil
	}

	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, j)
	case string:
		return json.Unmarshal([]byte(v), j)
	default:
		*j = make(JSONB)
		return nil
	}
}

// TableName specifies the table name for GORM
func (Transaction) TableName() string {
	return "transactions"
}
