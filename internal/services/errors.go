package services

import "errors"

// Validation failures for user-supplied input. Handlers map these to 400.
var (
	ErrInvalidAddress    = errors.New("invalid token address")
	ErrInvalidAmount     = errors.New("amount must be a positive decimal number")
	ErrInvalidPrivateKey = errors.New("invalid private key")
	ErrInvalidLabel      = errors.New("wallet label must be 1-50 characters")
)

// ErrInsufficientBalance is returned when a swap asks for more than the
// active wallet holds. No chain write happens after this check fails.
var ErrInsufficientBalance = errors.New("insufficient balance")
