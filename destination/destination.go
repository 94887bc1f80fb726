// Package destination classifies the raw string an ATM user presents,
// scanned QR code or pasted text, into a concrete payout destination.
package destination

import (
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/lightningnetwork/lnd/zpay32"

	"github.com/40acres/fossad/database/models"
	"github.com/40acres/fossad/lnurl"
	"github.com/40acres/fossad/money"
)

var ErrMalformedDestination = fmt.Errorf("malformed destination")

type Kind string

const (
	KindBolt11           Kind = "bolt11"
	KindLnurlPay         Kind = "lnurl_pay"
	KindLightningAddress Kind = "lightning_address"
	KindBitcoinAddress   Kind = "bitcoin_address"
	KindLiquidAddress    Kind = "liquid_address"
)

// Destination is a classified payout target.
type Destination struct {
	Kind Kind
	Rail models.Rail
	// Raw is the input after URI scheme stripping.
	Raw string
	// AmountSats is the invoice amount for bolt11 destinations, zero
	// for amountless invoices and non-invoice kinds.
	AmountSats money.Money
	// PayURL is the LNURL-pay endpoint for lnurl and lightning address
	// destinations.
	PayURL string
	// Address is the chain address for bitcoin and liquid destinations.
	Address string
}

// Resolver classifies destinations against a single Bitcoin network.
type Resolver struct {
	net *chaincfg.Params
}

func NewResolver(net *chaincfg.Params) *Resolver {
	return &Resolver{net: net}
}

var liquidPrefixes = []string{"lq1", "ex1", "tlq1", "tex1", "ert1", "el1"}

// Resolve classifies raw into a destination. The hint carries the rail the
// ATM requested, but what the user actually presented wins: a Bitcoin
// address submitted on the liquid rail resolves as a Bitcoin destination.
// The hint only breaks ties for base58 strings no other rule claims.
func (r *Resolver) Resolve(raw string, hint models.Rail) (*Destination, error) {
	input := stripScheme(strings.TrimSpace(raw))
	if input == "" {
		return nil, fmt.Errorf("empty input: %w", ErrMalformedDestination)
	}
	lower := strings.ToLower(input)

	switch {
	case strings.HasPrefix(lower, "lnurl1"):
		payURL, err := lnurl.Decode(input)
		if err != nil {
			return nil, fmt.Errorf("decoding lnurl: %w: %w", err, ErrMalformedDestination)
		}

		return &Destination{
			Kind:   KindLnurlPay,
			Rail:   models.RailLnurl,
			Raw:    input,
			PayURL: payURL,
		}, nil

	case isBolt11Prefix(lower):
		invoice, err := zpay32.Decode(lower, r.net)
		if err != nil {
			return nil, fmt.Errorf("decoding invoice: %w: %w", err, ErrMalformedDestination)
		}

		var amount money.Money
		if invoice.MilliSat != nil {
			amount = money.Money(invoice.MilliSat.ToSatoshis())
		}

		return &Destination{
			Kind:       KindBolt11,
			Rail:       models.RailLightning,
			Raw:        lower,
			AmountSats: amount,
		}, nil

	case lnurl.IsLightningAddress(input):
		payURL, err := lnurl.AddressToURL(input)
		if err != nil {
			return nil, fmt.Errorf("parsing lightning address: %w: %w", err, ErrMalformedDestination)
		}

		return &Destination{
			Kind:   KindLightningAddress,
			Rail:   models.RailLnurl,
			Raw:    input,
			PayURL: payURL,
		}, nil

	case hasLiquidPrefix(lower):
		return &Destination{
			Kind:    KindLiquidAddress,
			Rail:    models.RailLiquid,
			Raw:     input,
			Address: input,
		}, nil
	}

	if addr, err := btcutil.DecodeAddress(input, r.net); err == nil && addr.IsForNet(r.net) {
		return &Destination{
			Kind:    KindBitcoinAddress,
			Rail:    models.RailOnchain,
			Raw:     input,
			Address: addr.EncodeAddress(),
		}, nil
	}

	// Liquid base58 addresses share no prefix with Bitcoin ones on this
	// network, so an otherwise unclaimed base58 string on the liquid rail
	// is treated as a Liquid address.
	if hint == models.RailLiquid && isBase58(input) {
		return &Destination{
			Kind:    KindLiquidAddress,
			Rail:    models.RailLiquid,
			Raw:     input,
			Address: input,
		}, nil
	}

	return nil, fmt.Errorf("unrecognized destination %q: %w", raw, ErrMalformedDestination)
}

var bolt11Prefixes = []string{"lnbcrt", "lntbs", "lntb", "lnbc", "lnsb"}

func isBolt11Prefix(lower string) bool {
	for _, p := range bolt11Prefixes {
		if strings.HasPrefix(lower, p) && len(lower) > len(p) {
			// A lightning address can also start with "lnbc", require a
			// digit after the network prefix as every bolt11 has one
			next := lower[len(p)]
			if next >= '0' && next <= '9' {
				return true
			}
		}
	}

	return false
}

func hasLiquidPrefix(lower string) bool {
	for _, p := range liquidPrefixes {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}

	return false
}

const base58Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

func isBase58(s string) bool {
	if len(s) < 26 {
		return false
	}
	for _, c := range s {
		if !strings.ContainsRune(base58Alphabet, c) {
			return false
		}
	}

	return true
}

func stripScheme(raw string) string {
	for _, scheme := range []string{"lightning:", "bitcoin:", "liquidnetwork:", "liquid:"} {
		if strings.HasPrefix(strings.ToLower(raw), scheme) {
			raw = raw[len(scheme):]

			break
		}
	}
	// Drop BIP21 query parameters
	if i := strings.IndexByte(raw, '?'); i >= 0 {
		raw = raw[:i]
	}

	return raw
}
