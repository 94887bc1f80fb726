package daemon

import "errors"

var (
	ErrInvalidToken      = errors.New("invalid payout token")
	ErrRailNotEnabled    = errors.New("rail not enabled for device")
	ErrAmountMismatch    = errors.New("invoice amount does not match payout amount")
	ErrBackendRejected   = errors.New("payout backend rejected the request")
	ErrNetworkError      = errors.New("network error reaching payout backend")
	ErrCompletionTimeout = errors.New("payout completion timed out")
	ErrSessionNotFound   = errors.New("payout session not found")
)
