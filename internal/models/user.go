package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID             int64      `json:"id"` // Telegram user id
	Username       *string    `json:"username,omitempty"`
	ActiveWalletID *uuid.UUID `json:"active_wallet_id,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	LastActiveAt   time.Time  `json:"last_active_at"`
}
