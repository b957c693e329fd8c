package model

import (
	"time"

	"github.com/google/uuid"
)

// Actor types recorded on a transition.
const (
	ActorTypeSystem  = "system"
	ActorTypeUser    = "user"
	ActorTypeGateway = "gateway"
)

// Action types recorded on a transition.
const (
	ActionPaymentCreated = "payment_created"
	ActionGatewayUpdate  = "gateway_update"
	ActionUserCancel     = "user_cancel"
	ActionAutoExpire     = "auto_expire"
	ActionNoteAppended   = "note_appended"
)

// TransactionHistory is the append-only audit record of one status
// transition. Entries are never mutated after insertion.
type TransactionHistory struct {
	ID            int64             `gorm:"primaryKey;autoIncrement" json:"id"`
	TransactionID uuid.UUID         `gorm:"type:uuid;not null;index" json:"transaction_id"`
	OldStatus     TransactionStatus `gorm:"size:20;not null" json:"old_status"`
	NewStatus     TransactionStatus `gorm:"size:20;not null" json:"new_status"`
	ActionType    string            `gorm:"size:50;not null" json:"action_type"`
	ActorType     string            `gorm:"size:20;not null" json:"actor_type"`
	Notes         string            `json:"notes,omitempty"`
	Metadata      JSONB             `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt     time.Time         `gorm:"default:now()" json:"created_at"`
}

// TableName specifies the table name for GORM
func (TransactionHistory) TableName() string {
	return "transaction_histories"
}
