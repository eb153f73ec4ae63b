package models

import (
	"time"

	"github.com/google/uuid"
)

// Transaction types
const (
	TxTypeSwap = "swap"
)

// Transaction statuses. The API only ever writes pending; the monitor owns
// the transitions to confirmed/failed.
const (
	TxStatusPending   = "pending"
	TxStatusConfirmed = "confirmed"
	TxStatusFailed    = "failed"
)

type Transaction struct {
	ID           uuid.UUID `json:"id"`
	WalletID     uuid.UUID `json:"wallet_id"`
	TxHash       string    `json:"tx_hash"`
	TxType       string    `json:"tx_type"`
	Amount       string    `json:"amount"` // smallest units, decimal string
	TokenAddress string    `json:"token_address"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

// PendingTransaction is a Transaction joined with wallet ownership, used by
// the confirmation monitor to address notifications.
type PendingTransaction struct {
	Transaction
	UserID        int64  `json:"user_id"`
	WalletAddress string `json:"wallet_address"`
}
