package models

import (
	"database/sql/driver"
	"fmt"
)

// SessionState is the state of a payout session.
type SessionState string

const (
	StatePending            SessionState = "pending"
	StateResolving          SessionState = "resolving"
	StateSubmitting         SessionState = "submitting"
	StateAwaitingCompletion SessionState = "awaiting_completion"
	StateCompleted          SessionState = "completed"
	StateFailed             SessionState = "failed"
)

func (s SessionState) IsValid() bool {
	switch s {
	case StatePending, StateResolving, StateSubmitting, StateAwaitingCompletion, StateCompleted, StateFailed:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether the state admits no further transitions.
func (s SessionState) IsTerminal() bool {
	return s == StateCompleted || s == StateFailed
}

func (s SessionState) String() string {
	return string(s)
}

func (s *SessionState) Scan(value interface{}) error {
	str, ok := value.(string)
	if !ok {
		return fmt.Errorf("failed to scan SessionState: expected string, got %T", value)
	}
	*s = SessionState(str)

	return nil
}

func (s SessionState) Value() (driver.Value, error) {
	return string(s), nil
}
