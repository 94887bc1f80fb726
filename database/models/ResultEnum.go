package models

import (
	"database/sql/driver"
	"fmt"
)

// PayoutResult is the terminal outcome recorded in the ATM ledger.
type PayoutResult string

const (
	ResultCompleted PayoutResult = "completed"
	ResultFailed    PayoutResult = "failed"
)

func (p PayoutResult) IsValid() bool {
	return p == ResultCompleted || p == ResultFailed
}

func (p PayoutResult) String() string {
	return string(p)
}

func (p *PayoutResult) Scan(value interface{}) error {
	str, ok := value.(string)
	if !ok {
		return fmt.Errorf("failed to scan PayoutResult: expected string, got %T", value)
	}
	*p = PayoutResult(str)

	return nil
}

func (p PayoutResult) Value() (driver.Value, error) {
	return string(p), nil
}

func PayoutResultEnumSQL() string {
	return `CREATE TYPE payout_result_enum AS ENUM ('completed', 'failed');`
}
