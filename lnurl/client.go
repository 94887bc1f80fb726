package lnurl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

var (
	ErrServiceError = errors.New("lnurl service returned an error")
	ErrBadResponse  = errors.New("unexpected lnurl response")
)

type Option func(*Options)

func WithHTTPClient(client *http.Client) Option {
	return func(o *Options) {
		o.client = client
	}
}

type Options struct {
	client *http.Client
}

// Client talks to remote LNURL-pay services.
type Client struct {
	client *http.Client
}

// NewClient creates a new LNURL client.
func NewClient(options ...Option) *Client {
	opts := Options{
		client: &http.Client{Timeout: 30 * time.Second},
	}
	for _, option := range options {
		option(&opts)
	}

	return &Client{client: opts.client}
}

// FetchPayParams performs the first LNURL-pay request against serviceURL.
func (c *Client) FetchPayParams(ctx context.Context, serviceURL string) (*PayParams, error) {
	var params struct {
		PayParams
		Response
	}
	if err := c.getJSON(ctx, serviceURL, &params); err != nil {
		return nil, err
	}
	if params.Status == "ERROR" {
		return nil, fmt.Errorf("%w: %s", ErrServiceError, params.Reason)
	}
	if params.Tag != TagPayRequest {
		return nil, fmt.Errorf("%w: tag %q is not a pay request", ErrBadResponse, params.Tag)
	}
	if params.Callback == "" {
		return nil, fmt.Errorf("%w: missing callback", ErrBadResponse)
	}

	return &params.PayParams, nil
}

// RequestInvoice asks the pay service for an invoice of amountMsat. The
// service must honor its own sendable bounds; we check them before calling.
func (c *Client) RequestInvoice(ctx context.Context, params *PayParams, amountMsat uint64) (string, error) {
	if amountMsat < params.MinSendable || amountMsat > params.MaxSendable {
		return "", fmt.Errorf("%w: amount %d msat outside sendable range [%d, %d]",
			ErrServiceError, amountMsat, params.MinSendable, params.MaxSendable)
	}

	callback, err := url.Parse(params.Callback)
	if err != nil {
		return "", fmt.Errorf("%w: bad callback url: %v", ErrBadResponse, err)
	}
	query := callback.Query()
	query.Set("amount", strconv.FormatUint(amountMsat, 10))
	callback.RawQuery = query.Encode()

	var invoice struct {
		InvoiceResponse
		Response
	}
	if err := c.getJSON(ctx, callback.String(), &invoice); err != nil {
		return "", err
	}
	if invoice.Status == "ERROR" {
		return "", fmt.Errorf("%w: %s", ErrServiceError, invoice.Reason)
	}
	if invoice.PR == "" {
		return "", fmt.Errorf("%w: missing invoice", ErrBadResponse)
	}

	return invoice.PR, nil
}

func (c *Client) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("%w: status %d", ErrServiceError, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrBadResponse, err)
	}

	return nil
}
