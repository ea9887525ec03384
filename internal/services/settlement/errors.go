package settlement

import "errors"

// Service errors
var (
	ErrPayoutNotFound    = errors.New("payout not found")
	ErrPayoutAlreadyPaid = errors.New("payout already paid")
	ErrInvalidAmount     = errors.New("invalid amount")
)
