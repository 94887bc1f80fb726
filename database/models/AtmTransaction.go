package models

import (
	"time"
)

// AtmTransaction is an append-only ledger record of a terminal payout
// session. The unique index on SessionKey makes recording idempotent: a
// duplicate terminal signal can never produce a second row.
type AtmTransaction struct {
	ID            uint         `gorm:"primaryKey;autoIncrement"`
	SessionKey    string       `gorm:"not null;uniqueIndex"`
	DeviceID      string       `gorm:"not null;index"`
	AmountSATS    uint64       `gorm:"not null"`
	Rail          Rail         `gorm:"type:rail_enum;not null"`
	Destination   string       `gorm:"not null"`
	Result        PayoutResult `gorm:"type:payout_result_enum;not null"`
	FailureReason string
	SwapID        *string
	CreatedAt     time.Time `gorm:"autoCreateTime"`
}

func (AtmTransaction) TableName() string {
	return "atm_transactions"
}
