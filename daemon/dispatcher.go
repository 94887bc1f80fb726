package daemon

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/40acres/fossad/completion"
	"github.com/40acres/fossad/crypto"
	"github.com/40acres/fossad/database"
	"github.com/40acres/fossad/database/models"
	"github.com/40acres/fossad/destination"
	"github.com/40acres/fossad/lightning"
	"github.com/40acres/fossad/lnurl"
	"github.com/40acres/fossad/money"
	"github.com/40acres/fossad/rates"
	"github.com/40acres/fossad/swaps"
)

// DefaultTokenTTL bounds how long an issued payout token stays redeemable.
const DefaultTokenTTL = 10 * time.Minute

// LnurlClient is the slice of the LNURL-pay protocol the dispatcher needs.
type LnurlClient interface {
	FetchPayParams(ctx context.Context, serviceURL string) (*lnurl.PayParams, error)
	RequestInvoice(ctx context.Context, params *lnurl.PayParams, amountMsat uint64) (string, error)
}

// DispatchRequest carries one redeemed ATM token to a destination.
type DispatchRequest struct {
	// SessionKey identifies the payout session. Generated when empty.
	SessionKey string
	DeviceID   string
	// Token is the encrypted payload the ATM printed or displayed.
	Token string
	// Input is the raw destination the user presented.
	Input string
	// RailHint is the rail the ATM endpoint was called for. The resolved
	// destination's rail wins when they disagree.
	RailHint models.Rail
	// ViaWithdraw marks requests arriving through the LNURL withdraw
	// callback, where the wallet supplies an invoice but the payout
	// belongs to the lnurl rail.
	ViaWithdraw bool
}

type Dispatcher struct {
	devices  database.DeviceRepository
	ledger   database.TransactionRepository
	sessions *SessionStore
	hub      *completion.Hub
	resolver *destination.Resolver
	ln       lightning.Client
	lnurl    LnurlClient
	swaps    swaps.ClientInterface
	rates    rates.Source
	walletID string
	tokenTTL time.Duration
}

func NewDispatcher(
	devices database.DeviceRepository,
	ledger database.TransactionRepository,
	sessions *SessionStore,
	hub *completion.Hub,
	resolver *destination.Resolver,
	ln lightning.Client,
	lnurlClient LnurlClient,
	swapClient swaps.ClientInterface,
	rateSource rates.Source,
	walletID string,
	tokenTTL time.Duration,
) *Dispatcher {
	if tokenTTL <= 0 {
		tokenTTL = DefaultTokenTTL
	}

	return &Dispatcher{
		devices:  devices,
		ledger:   ledger,
		sessions: sessions,
		hub:      hub,
		resolver: resolver,
		ln:       ln,
		lnurl:    lnurlClient,
		swaps:    swapClient,
		rates:    rateSource,
		walletID: walletID,
		tokenTTL: tokenTTL,
	}
}

// Dispatch validates the token, resolves the destination and submits the
// payout on the destination's rail. Lightning and LNURL payouts settle
// synchronously, chain payouts return an awaiting_completion session that
// the monitor drives to a terminal state. The token is consumed exactly
// once, immediately before submission, so a malformed destination leaves
// it redeemable.
func (d *Dispatcher) Dispatch(ctx context.Context, req DispatchRequest) (*PayoutSession, error) {
	device, err := d.devices.GetDevice(ctx, req.DeviceID)
	if err != nil {
		return nil, fmt.Errorf("loading device: %w", err)
	}

	amount, err := d.payoutAmount(ctx, device, req.Token)
	if err != nil {
		return nil, err
	}

	// First sight of a token opens it for redemption. The payload is
	// authenticated by the device secret, so registration is safe here.
	// A token seen before is bound by its original issue time.
	if device.PendingToken != req.Token {
		now := time.Now()
		if err := d.devices.IssueToken(ctx, device.ID, req.Token, now); err != nil {
			return nil, fmt.Errorf("registering token: %w", err)
		}
		device.PendingToken = req.Token
		device.TokenIssuedAt = &now
		device.TokenUsed = false
	} else if device.TokenIssuedAt == nil || time.Since(*device.TokenIssuedAt) > d.tokenTTL {
		return nil, fmt.Errorf("token issued at %v: %w", device.TokenIssuedAt, database.ErrTokenExpired)
	}

	dest, err := d.resolver.Resolve(req.Input, req.RailHint)
	if err != nil {
		return nil, err
	}

	if dest.Kind == destination.KindBolt11 && dest.AmountSats != amount {
		return nil, fmt.Errorf("invoice asks %d sats, token pays %d: %w", dest.AmountSats, amount, ErrAmountMismatch)
	}

	rail := dest.Rail
	if req.ViaWithdraw && dest.Kind == destination.KindBolt11 {
		rail = models.RailLnurl
	}

	sessionKey := req.SessionKey
	if sessionKey == "" {
		sessionKey = uuid.NewString()
	}

	session := &PayoutSession{
		Key:         sessionKey,
		DeviceID:    device.ID,
		Rail:        rail,
		State:       models.StatePending,
		AmountSats:  amount,
		Destination: dest.Raw,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	d.sessions.Put(session)

	if !device.RailEnabled(rail) {
		d.fail(ctx, session, fmt.Sprintf("rail %s not enabled", rail))

		return nil, fmt.Errorf("device %s, rail %s: %w", device.ID, rail, ErrRailNotEnabled)
	}

	if _, err := d.sessions.Transition(sessionKey, models.StateResolving, ""); err != nil {
		return nil, err
	}

	// Single critical section: a compare-and-set on the device row makes
	// concurrent redemptions of the same token lose here.
	if err := d.devices.ConsumeToken(ctx, device.ID, req.Token); err != nil {
		return nil, fmt.Errorf("consuming token: %w", err)
	}

	if _, err := d.sessions.Transition(sessionKey, models.StateSubmitting, ""); err != nil {
		return nil, err
	}

	logger := log.WithFields(log.Fields{
		"session": sessionKey,
		"device":  device.ID,
		"rail":    rail,
		"amount":  uint64(amount),
	})
	logger.Info("submitting payout")

	switch dest.Kind {
	case destination.KindBolt11:
		return d.submitLightning(ctx, session, dest.Raw)
	case destination.KindLnurlPay, destination.KindLightningAddress:
		return d.submitLnurl(ctx, session, dest.PayURL)
	case destination.KindBitcoinAddress, destination.KindLiquidAddress:
		return d.submitChain(ctx, session, dest)
	default:
		d.fail(ctx, session, fmt.Sprintf("destination kind %s has no adapter", dest.Kind))

		return nil, fmt.Errorf("destination kind %s has no adapter: %w", dest.Kind, ErrRailNotEnabled)
	}
}

// Quote returns the payout amount a token is worth without touching the
// token's redemption state. The LNURL withdraw surface uses it to fill the
// withdrawable bounds before the wallet commits.
func (d *Dispatcher) Quote(ctx context.Context, deviceID, token string) (money.Money, error) {
	device, err := d.devices.GetDevice(ctx, deviceID)
	if err != nil {
		return 0, fmt.Errorf("loading device: %w", err)
	}

	return d.payoutAmount(ctx, device, token)
}

// payoutAmount decrypts and validates the token payload, converts its fiat
// amount into satoshis and deducts the operator margin.
func (d *Dispatcher) payoutAmount(ctx context.Context, device *models.Device, token string) (money.Money, error) {
	plaintext, err := crypto.DecryptDevicePayload(device.TokenSecret, token)
	if err != nil {
		return 0, fmt.Errorf("decrypting token: %w: %w", err, ErrInvalidToken)
	}

	pinPart, amountPart, found := strings.Cut(plaintext, ":")
	if !found {
		return 0, fmt.Errorf("token payload has no separator: %w", ErrInvalidToken)
	}

	pin, err := strconv.Atoi(pinPart)
	if err != nil || pin < 1000 || pin > 9999 {
		return 0, fmt.Errorf("token pin out of range: %w", ErrInvalidToken)
	}

	fiatAmount, err := decimal.NewFromString(amountPart)
	if err != nil || !fiatAmount.IsPositive() {
		return 0, fmt.Errorf("token amount %q invalid: %w", amountPart, ErrInvalidToken)
	}

	var amount money.Money
	if device.Currency == rates.Sats {
		amount, err = money.NewFromSats(fiatAmount)
	} else {
		amount, err = d.rates.FiatToSats(ctx, fiatAmount, device.Currency)
	}
	if err != nil {
		return 0, fmt.Errorf("converting amount: %w", err)
	}

	return amount.DeductMarginPercent(device.ProfitMarginPercent)
}

func (d *Dispatcher) submitLightning(ctx context.Context, session *PayoutSession, invoice string) (*PayoutSession, error) {
	err := d.ln.PayInvoice(ctx, invoice, lightning.MaxRoutingFeeRatio)
	if err != nil {
		d.fail(ctx, session, err.Error())

		return nil, fmt.Errorf("paying invoice: %w: %w", err, ErrBackendRejected)
	}

	d.complete(ctx, session)

	return d.snapshot(session.Key)
}

func (d *Dispatcher) submitLnurl(ctx context.Context, session *PayoutSession, payURL string) (*PayoutSession, error) {
	params, err := d.lnurl.FetchPayParams(ctx, payURL)
	if err != nil {
		d.fail(ctx, session, err.Error())

		return nil, fmt.Errorf("fetching pay params: %w: %w", err, ErrNetworkError)
	}

	invoice, err := d.lnurl.RequestInvoice(ctx, params, session.AmountSats.ToMilliSats())
	if err != nil {
		d.fail(ctx, session, err.Error())

		return nil, fmt.Errorf("requesting invoice: %w: %w", err, ErrBackendRejected)
	}

	return d.submitLightning(ctx, session, invoice)
}

func (d *Dispatcher) submitChain(ctx context.Context, session *PayoutSession, dest *destination.Destination) (*PayoutSession, error) {
	asset, err := swaps.AssetTag(dest.Rail)
	if err != nil {
		d.fail(ctx, session, err.Error())

		return nil, err
	}

	swap, err := d.swaps.CreateReverseSwap(ctx, swaps.CreateReverseSwapRequest{
		WalletID:          d.walletID,
		Asset:             asset,
		AmountSats:        session.AmountSats,
		Address:           dest.Address,
		InstantSettlement: true,
	})
	if err != nil {
		d.fail(ctx, session, err.Error())

		return nil, fmt.Errorf("creating reverse swap: %w: %w", err, ErrBackendRejected)
	}

	if err := d.sessions.SetSwapID(session.Key, swap.SwapID); err != nil {
		return nil, err
	}
	if _, err := d.sessions.Transition(session.Key, models.StateAwaitingCompletion, ""); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"session": session.Key,
		"swap":    swap.SwapID,
	}).Info("reverse swap created, awaiting settlement")

	return d.snapshot(session.Key)
}

func (d *Dispatcher) complete(ctx context.Context, session *PayoutSession) {
	changed, err := d.sessions.Transition(session.Key, models.StateCompleted, "")
	if err != nil || !changed {
		return
	}

	d.record(ctx, session, models.ResultCompleted, "")
	d.hub.Publish(completion.Event{
		Kind:       completion.EventCompleted,
		SessionKey: session.Key,
		At:         time.Now(),
	})
}

func (d *Dispatcher) fail(ctx context.Context, session *PayoutSession, reason string) {
	changed, err := d.sessions.Transition(session.Key, models.StateFailed, reason)
	if err != nil || !changed {
		return
	}

	d.record(ctx, session, models.ResultFailed, reason)
	d.hub.Publish(completion.Event{
		Kind:       completion.EventFailed,
		SessionKey: session.Key,
		Reason:     reason,
		At:         time.Now(),
	})
}

func (d *Dispatcher) record(ctx context.Context, session *PayoutSession, result models.PayoutResult, reason string) {
	tx := &models.AtmTransaction{
		SessionKey:    session.Key,
		DeviceID:      session.DeviceID,
		AmountSATS:    uint64(session.AmountSats),
		Rail:          session.Rail,
		Destination:   session.Destination,
		Result:        result,
		FailureReason: reason,
	}
	if session.SwapID != "" {
		swapID := session.SwapID
		tx.SwapID = &swapID
	}

	if err := d.ledger.RecordTransaction(ctx, tx); err != nil {
		log.WithError(err).WithField("session", session.Key).Error("failed to record payout transaction")
	}
}

func (d *Dispatcher) snapshot(key string) (*PayoutSession, error) {
	session, err := d.sessions.Get(key)
	if err != nil {
		return nil, err
	}

	return &session, nil
}
