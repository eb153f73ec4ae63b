package models

import (
	"time"

	"github.com/google/uuid"
)

// Wallet label length limits, enforced on create and import.
const (
	WalletLabelMinLen = 1
	WalletLabelMaxLen = 50
)

type Wallet struct {
	ID            uuid.UUID `json:"id"`
	UserID        int64     `json:"user_id"`
	Label         string    `json:"label"`
	Address       string    `json:"address"` // 0x-prefixed, EIP-55 checksummed
	KeyCiphertext []byte    `json:"-"`
	KeyNonce      []byte    `json:"-"` // empty for rows migrated from the legacy plaintext layout
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
}
