package models

import (
	"time"

	"github.com/lib/pq"
)

// Device is a configured payout terminal. A device holds at most one pending
// withdraw token at a time; the token is consumed by the first successful
// payout submission.
type Device struct {
	ID                  string         `gorm:"primaryKey"`
	WalletID            string         `gorm:"not null"`
	Title               string         `gorm:"not null"`
	Currency            string         `gorm:"not null;default:'sat'"`
	ProfitMarginPercent float64        `gorm:"not null;default:0"`
	EnabledRails        pq.StringArray `gorm:"type:text[]"`
	TokenSecret         string         `gorm:"not null"`
	PendingToken        string
	TokenIssuedAt       *time.Time
	TokenUsed           bool      `gorm:"not null;default:false"`
	CreatedAt           time.Time `gorm:"autoCreateTime"`
	UpdatedAt           time.Time `gorm:"autoUpdateTime"`
}

func (Device) TableName() string {
	return "atm_devices"
}

func (d *Device) RailEnabled(rail Rail) bool {
	for _, r := range d.EnabledRails {
		if Rail(r) == rail {
			return true
		}
	}

	return false
}
