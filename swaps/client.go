package swaps

import (
	"context"
	"fmt"
	"time"

	"github.com/40acres/fossad/database/models"
	"github.com/40acres/fossad/money"
	"github.com/shopspring/decimal"
)

var (
	ErrSwapNotFound = fmt.Errorf("swap not found")
	ErrSwapRejected = fmt.Errorf("swap rejected by service")
)

type SwapStatus string

const (
	StatusPending  SwapStatus = "pending"
	StatusSettled  SwapStatus = "settled"
	StatusFailed   SwapStatus = "failed"
	StatusRefunded SwapStatus = "refunded"
)

// IsTerminal reports whether the swap service will emit no further
// status changes for this swap.
func (s SwapStatus) IsTerminal() bool {
	switch s {
	case StatusSettled, StatusFailed, StatusRefunded:
		return true
	default:
		return false
	}
}

//go:generate go tool mockgen -destination=mock.go -package=swaps . ClientInterface
type ClientInterface interface {
	CreateReverseSwap(ctx context.Context, swapReq CreateReverseSwapRequest) (*ReverseSwapResponse, error)
	GetSwap(ctx context.Context, swapID string) (*ReverseSwapResponse, error)
}

type CreateReverseSwapRequest struct {
	WalletID          string
	Asset             string
	AmountSats        money.Money
	Address           string
	InstantSettlement bool
}

type ReverseSwapResponse struct {
	SwapID       string          `json:"id"`
	Status       SwapStatus      `json:"status"`
	Invoice      string          `json:"invoice"`
	OnchainTxID  string          `json:"onchainTxId"`
	InputAmount  decimal.Decimal `json:"inputAmount"`
	OutputAmount decimal.Decimal `json:"outputAmount"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// AssetTag maps a payout rail to the asset pair the swap service expects.
// Both pairs settle from a Lightning payment on the BTC side.
func AssetTag(rail models.Rail) (string, error) {
	switch rail {
	case models.RailOnchain:
		return "BTC/BTC", nil
	case models.RailLiquid:
		return "L-BTC/BTC", nil
	default:
		return "", fmt.Errorf("no swap asset for rail: %s", rail)
	}
}

// RailForAssetTag is the inverse of AssetTag.
func RailForAssetTag(asset string) (models.Rail, error) {
	switch asset {
	case "BTC/BTC":
		return models.RailOnchain, nil
	case "L-BTC/BTC":
		return models.RailLiquid, nil
	default:
		return "", fmt.Errorf("unknown swap asset: %s", asset)
	}
}
