package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/40acres/fossad/money"
	"github.com/shopspring/decimal"
)

const BaseURL = "https://mempool.space/api"

var ErrUnexpectedStatus = fmt.Errorf("unexpected status code")

type Option func(*Options)

func WithURL(url string) func(*Options) {
	return func(o *Options) {
		o.baseURL = url
	}
}

func WithHTTPClient(client *http.Client) func(*Options) {
	return func(o *Options) {
		o.httpClient = client
	}
}

type Options struct {
	baseURL    string
	httpClient *http.Client
}

// Client fetches BTC exchange rates over HTTP.
type Client struct {
	client  *http.Client
	baseURL string
}

func New(options ...Option) *Client {
	opts := Options{
		baseURL:    BaseURL,
		httpClient: &http.Client{},
	}
	for _, option := range options {
		option(&opts)
	}

	return &Client{
		client:  opts.httpClient,
		baseURL: opts.baseURL,
	}
}

// FiatToSats fetches the current BTC price for the currency and converts
// the fiat amount into satoshis, rounding up to the next whole satoshi.
func (c *Client) FiatToSats(ctx context.Context, amount decimal.Decimal, currency string) (money.Money, error) {
	price, err := c.getPrice(ctx, currency)
	if err != nil {
		return 0, err
	}

	if price.IsZero() {
		return 0, fmt.Errorf("zero rate for currency %s: %w", currency, ErrUnknownCurrency)
	}

	sats := amount.Div(price).Mul(decimal.NewFromInt(1e8))

	return money.NewFromSats(sats)
}

func (c *Client) getPrice(ctx context.Context, currency string) (decimal.Decimal, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/v1/prices", nil)
	if err != nil {
		return decimal.Zero, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return decimal.Zero, err
	}

	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decimal.Zero, fmt.Errorf("unexpected status code: %d: %w", resp.StatusCode, ErrUnexpectedStatus)
	}

	prices := make(map[string]json.Number)
	if err := json.NewDecoder(resp.Body).Decode(&prices); err != nil {
		return decimal.Zero, err
	}

	raw, ok := prices[strings.ToUpper(currency)]
	if !ok {
		return decimal.Zero, fmt.Errorf("no rate for currency %s: %w", currency, ErrUnknownCurrency)
	}

	price, err := decimal.NewFromString(raw.String())
	if err != nil {
		return decimal.Zero, err
	}

	return price, nil
}
