package money

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Money is a type that represents a monetary amount in satoshis for Bitcoin.
type Money uint64

// ErrNegativeAmount is returned when trying to create a Money with a negative amount.
var ErrNegativeAmount = errors.New("amount cannot be negative")

func NewFromBtc(amount decimal.Decimal) (Money, error) {
	if amount.IsNegative() {
		return 0, ErrNegativeAmount
	}

	return Money(amount.Mul(decimal.NewFromInt(1e8)).IntPart()), nil // nolint:gosec
}

// NewFromSats creates a Money from a decimal satoshi amount, rounding up to
// the next whole satoshi.
func NewFromSats(amount decimal.Decimal) (Money, error) {
	if amount.IsNegative() {
		return 0, ErrNegativeAmount
	}

	return Money(amount.Ceil().IntPart()), nil // nolint:gosec
}

func (m Money) ToBtc() decimal.Decimal {
	return decimal.NewFromUint64(uint64(m)).Div(decimal.NewFromInt(1e8))
}

// ToMilliSats returns the amount in millisatoshis, the unit used by LNURL
// withdraw and pay requests.
func (m Money) ToMilliSats() uint64 {
	return uint64(m) * 1000
}

// DeductMarginPercent scales the amount by (1 - percent/100), rounding
// down. The operator's profit margin comes out of the payout.
func (m Money) DeductMarginPercent(percent float64) (Money, error) {
	if percent < 0 || percent > 100 {
		return 0, fmt.Errorf("margin percent out of range: %f", percent)
	}
	factor := decimal.NewFromInt(1).Sub(decimal.NewFromFloat(percent).Div(decimal.NewFromInt(100)))

	return Money(decimal.NewFromUint64(uint64(m)).Mul(factor).IntPart()), nil // nolint:gosec
}
