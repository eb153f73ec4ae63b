package models

import (
	"time"

	"github.com/google/uuid"
)

// Audit actions
const (
	AuditWalletCreated  = "wallet.created"
	AuditWalletImported = "wallet.imported"
	AuditWalletSwitched = "wallet.switched"
	AuditSwapSubmitted  = "swap.submitted"
)

type AuditLog struct {
	ID         uuid.UUID `json:"id"`
	UserID     *int64    `json:"user_id,omitempty"`
	ActorType  string    `json:"actor_type"` // user/system/monitor
	Action     string    `json:"action"`
	EntityType string    `json:"entity_type"`
	EntityID   string    `json:"entity_id,omitempty"` // wallet id or tx hash
	Meta       any       `json:"meta,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
