package lightning

import (
	"context"
	"fmt"
)

var ErrInvoiceCanceled = fmt.Errorf("invoice canceled")

type Preimage = string
type NetworkFeeSats = int64

// MaxRoutingFeeRatio is the default routing fee cap for payout payments.
// 0.5% is a good max value for the Lightning Network.
const MaxRoutingFeeRatio = 0.005

//go:generate go tool mockgen -destination=mock.go -package=lightning . Client
type Client interface {
	PayInvoice(ctx context.Context, paymentRequest string, feeLimitRatio float64) error
	MonitorPaymentRequest(ctx context.Context, paymentHash string) (Preimage, NetworkFeeSats, error)
}
