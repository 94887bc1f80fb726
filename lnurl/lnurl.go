// Package lnurl implements the subset of the LNURL protocol the ATM flow
// needs: bech32 encoding of withdraw links, and resolving LNURL-pay strings
// and lightning addresses into BOLT11 invoices.
package lnurl

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/btcsuite/btcd/btcutil/bech32"
)

const hrp = "lnurl"

var ErrNotLnurl = errors.New("not an lnurl string")

// Decode turns a bech32 "lnurl1..." string into the URL it carries.
func Decode(lnurl string) (string, error) {
	decodedHrp, data, err := bech32.DecodeNoLimit(strings.ToLower(strings.TrimSpace(lnurl)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotLnurl, err)
	}
	if decodedHrp != hrp {
		return "", fmt.Errorf("%w: unexpected hrp %q", ErrNotLnurl, decodedHrp)
	}

	converted, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotLnurl, err)
	}

	return string(converted), nil
}

// Encode encodes a URL as a bech32 lnurl string, uppercased for QR
// efficiency.
func Encode(url string) (string, error) {
	converted, err := bech32.ConvertBits([]byte(url), 8, 5, true)
	if err != nil {
		return "", fmt.Errorf("failed to convert bits: %w", err)
	}

	encoded, err := bech32.Encode(hrp, converted)
	if err != nil {
		return "", fmt.Errorf("failed to encode lnurl: %w", err)
	}

	return strings.ToUpper(encoded), nil
}

// IsLightningAddress reports whether s looks like a lightning address
// (user@domain, LUD-16).
func IsLightningAddress(s string) bool {
	if strings.Contains(s, " ") || !strings.Contains(s, "@") {
		return false
	}
	addr, err := mail.ParseAddress(s)

	return err == nil && addr.Address == s
}

// AddressToURL maps a lightning address onto its LNURL-pay endpoint.
func AddressToURL(address string) (string, error) {
	name, domain, found := strings.Cut(address, "@")
	if !found || name == "" || domain == "" {
		return "", fmt.Errorf("%w: invalid lightning address %q", ErrNotLnurl, address)
	}

	return fmt.Sprintf("https://%s/.well-known/lnurlp/%s", domain, name), nil
}
