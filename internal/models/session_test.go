package models

import "testing"

func TestIsValidSessionTransition(t *testing.T) {
	tests := []struct {
		from     string
		to       string
		expected bool
	}{
		// Wallet setup flow
		{SessionStateIdle, SessionStateAwaitingWalletLabel, true},
		{SessionStateAwaitingWalletLabel, SessionStateAwaitingPrivateKey, true},
		{SessionStateAwaitingPrivateKey, SessionStateIdle, true},

		// Swap flow
		{SessionStateIdle, SessionStateAwaitingTokenAddress, true},
		{SessionStateAwaitingTokenAddress, SessionStateAwaitingSwapAmount, true},
		{SessionStateAwaitingSwapAmount, SessionStateConfirmingSwap, true},
		{SessionStateConfirmingSwap, SessionStateIdle, true},

		// Cancellation paths
		{SessionStateAwaitingWalletLabel, SessionStateIdle, true},
		{SessionStateAwaitingTokenAddress, SessionStateIdle, true},
		{SessionStateAwaitingSwapAmount, SessionStateIdle, true},

		// Invalid jumps
		{SessionStateIdle, SessionStateConfirmingSwap, false},
		{SessionStateIdle, SessionStateAwaitingSwapAmount, false},
		{SessionStateIdle, SessionStateAwaitingPrivateKey, false},
		{SessionStateAwaitingTokenAddress, SessionStateConfirmingSwap, false},
		{SessionStateAwaitingPrivateKey, SessionStateAwaitingSwapAmount, false},
		{SessionStateConfirmingSwap, SessionStateAwaitingTokenAddress, false},

		// Unknown states
		{"unknown", SessionStateIdle, false},
		{SessionStateIdle, "unknown", false},
	}

	for _, tt := range tests {
		t.Run(tt.from+"->"+tt.to, func(t *testing.T) {
			if got := IsValidSessionTransition(tt.from, tt.to); got != tt.expected {
				t.Errorf("IsValidSessionTransition(%q, %q) = %v, want %v", tt.from, tt.to, got, tt.expected)
			}
		})
	}
}
