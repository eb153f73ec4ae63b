package repositories

import "errors"

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrNoActiveWallet is returned when a user has no active wallet set.
	ErrNoActiveWallet = errors.New("no active wallet")
	// ErrNotOwned is returned when a wallet exists but belongs to another user.
	ErrNotOwned = errors.New("wallet does not belong to user")
)
