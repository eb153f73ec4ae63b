package models

import "time"

// Session states: the pending action the backend expects the user's next
// front-end input to resolve.
const (
	SessionStateIdle                 = "idle"
	SessionStateAwaitingWalletLabel  = "awaiting_wallet_label"
	SessionStateAwaitingPrivateKey   = "awaiting_private_key"
	SessionStateAwaitingTokenAddress = "awaiting_token_address"
	SessionStateAwaitingSwapAmount   = "awaiting_swap_amount"
	SessionStateConfirmingSwap       = "confirming_swap"
)

// Wallet setup modes
const (
	SessionModeCreate = "create"
	SessionModeImport = "import"
)

// Valid state transitions: from -> []to. Every state may also reset to idle
// (cancel), encoded explicitly below.
var ValidSessionTransitions = map[string][]string{
	SessionStateIdle:                 {SessionStateAwaitingWalletLabel, SessionStateAwaitingTokenAddress},
	SessionStateAwaitingWalletLabel:  {SessionStateAwaitingPrivateKey, SessionStateIdle},
	SessionStateAwaitingPrivateKey:   {SessionStateIdle},
	SessionStateAwaitingTokenAddress: {SessionStateAwaitingSwapAmount, SessionStateIdle},
	SessionStateAwaitingSwapAmount:   {SessionStateConfirmingSwap, SessionStateIdle},
	SessionStateConfirmingSwap:       {SessionStateIdle},
}

func IsValidSessionTransition(from, to string) bool {
	allowed, ok := ValidSessionTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// Session is the short-lived conversational position of one user, keyed by
// user id and expired by the store's TTL.
type Session struct {
	UserID       int64     `json:"user_id"`
	State        string    `json:"state"`
	Mode         string    `json:"mode,omitempty"` // create/import during wallet setup
	WalletLabel  string    `json:"wallet_label,omitempty"`
	TokenAddress string    `json:"token_address,omitempty"`
	PoolAddress  string    `json:"pool_address,omitempty"`
	Amount       string    `json:"amount,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func NewSession(userID int64) *Session {
	return &Session{
		UserID:    userID,
		State:     SessionStateIdle,
		UpdatedAt: time.Now().UTC(),
	}
}
