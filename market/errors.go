package market

import "errors"

// Sentinel errors shared by the ledger, execution and metrics packages.
// Callers match them with errors.Is; every returned error wraps exactly one.
var (
	ErrConfig            = errors.New("invalid configuration")
	ErrValidation        = errors.New("validation failed")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrOversell          = errors.New("oversell")
	ErrDegenerateInput   = errors.New("degenerate input")
)
