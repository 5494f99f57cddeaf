package models

import "errors"

// Sentinel errors surfaced at the request boundary. All are recoverable:
// handlers map them to problem responses, they never crash the process.
var (
	ErrInsufficientFunds     = errors.New("insufficient funds")
	ErrRecipientNotFound     = errors.New("recipient not found")
	ErrAlreadyProcessed      = errors.New("already processed")
	ErrInvalidAmount         = errors.New("invalid amount")
	ErrNotFound              = errors.New("not found")
	ErrRejectionNoteRequired = errors.New("rejection note required")
)
