// Package rates converts fiat amounts into satoshis for payout pricing.
package rates

import (
	"context"
	"fmt"

	"github.com/40acres/fossad/money"
	"github.com/shopspring/decimal"
)

var ErrUnknownCurrency = fmt.Errorf("unknown currency")

// Sats is the pseudo currency for devices that already price in satoshis.
const Sats = "sat"

//go:generate go tool mockgen -destination=mock.go -package=rates . Source
type Source interface {
	// FiatToSats converts an amount in the given fiat currency into
	// satoshis at the current exchange rate.
	FiatToSats(ctx context.Context, amount decimal.Decimal, currency string) (money.Money, error)
}
