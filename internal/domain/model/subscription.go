package model

import (
	"database/sql/driver"
	"time"

	"github.com/google/uuid"
)

// SubscriptionStatus represents the status of a subscription
type SubscriptionStatus string

const (
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusCanceled SubscriptionStatus = "canceled"
	SubscriptionStatusPaused   SubscriptionStatus = "paused"
)

// Scan implements sql.Scanner interface
func (s *SubscriptionStatus) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		*s = SubscriptionStatus(v)
	case []byte:
		*s = SubscriptionStatus(v)
	default:
		*s = SubscriptionStatusCanceled
	}
	return nil
}

// Value implements driver.Valuer interface
func (s SubscriptionStatus) Value() (driver.Value, error) {
	return string(s), nil
}

// Subscription represents one recurring-billing relationship between a user
// and a package. A user has at most one active subscription at a time.
// With cancel_at_period_end set the row stays active until the period-end
// event, delivered by the gateway webhook, flips it to canceled.
type Subscription struct {
	ID                     uuid.UUID          `gorm:"type:uuid;primaryKey" json:"id"`
	UserID                 uuid.UUID          `gorm:"type:uuid;not null;index" json:"user_id"`
	PackageID              int64              `gorm:"not null;index" json:"package_id"`
	Gateway                string             `gorm:"size:50;not null" json:"gateway"`
	Status                 SubscriptionStatus `gorm:"size:20;not null;default:'active';index" json:"status"`
	StartDate              time.Time          `gorm:"not null" json:"start_date"`
	EndDate                *time.Time         `json:"end_date,omitempty"`
	CurrentPeriodEnd       time.Time          `gorm:"not null" json:"current_period_end"`
	CancelAtPeriodEnd      bool               `gorm:"not null;default:false" json:"cancel_at_period_end"`
	CanceledAt             *time.Time         `json:"canceled_at,omitempty"`
	CancelReason           string             `json:"cancel_reason,omitempty"`
	ExternalSubscriptionID *string            `gorm:"unique;size:100" json:"external_subscription_id,omitempty"`
	CreatedAt              time.Time          `gorm:"default:now()" json:"created_at"`
	UpdatedAt              time.Time          `gorm:"default:now()" json:"updated_at"`

	// Relations
	Package *Package `gorm:"foreignKey:PackageID" json:"package,omitempty"`
}

// TableName specifies the table name for GORM
func (Subscription) TableName() string {
	return "subscriptions"
}

// UserPackage ties a user to their currently provisioned package. The
// cancellation engine clears it on an immediate (refund-path) cancel.
type UserPackage struct {
	UserID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	PackageID  int64     `gorm:"not null" json:"package_id"`
	AssignedAt time.Time `gorm:"default:now()" json:"assigned_at"`
}

// TableName specifies the table name for GORM
func (UserPackage) TableName() string {
	return "user_packages"
}
