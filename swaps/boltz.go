package swaps

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const BaseURL = "https://api.boltz.exchange"

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

type Client struct {
	client  *http.Client
	baseURL string
}

// New creates a new reverse swap service client
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

type createSwapBody struct {
	WalletID          string `json:"walletId"`
	Asset             string `json:"asset"`
	AmountSats        uint64 `json:"amount"`
	OnchainAddress    string `json:"onchainAddress"`
	InstantSettlement bool   `json:"instantSettlement"`
}

type serviceError struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
}

// CreateReverseSwap asks the swap service for a reverse swap paying out to
// the request's on-chain address. The returned invoice settles the swap on
// the Lightning side.
func (c *Client) CreateReverseSwap(ctx context.Context, swapReq CreateReverseSwapRequest) (*ReverseSwapResponse, error) {
	body := createSwapBody{
		WalletID:          swapReq.WalletID,
		Asset:             swapReq.Asset,
		AmountSats:        uint64(swapReq.AmountSats),
		OnchainAddress:    swapReq.Address,
		InstantSettlement: swapReq.InstantSettlement,
	}

	req, err := c.makeRequest(ctx, "/api/v1/swap/reverse", "POST", &body)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}

	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var bodyResponse serviceError
		err = json.NewDecoder(resp.Body).Decode(&bodyResponse)
		if err != nil {
			return nil, err
		}

		return nil, fmt.Errorf("failed to create swap: %d - %s: %s: %w", bodyResponse.StatusCode, resp.Status, bodyResponse.Message, ErrSwapRejected)
	}

	var swapResponse ReverseSwapResponse
	err = json.NewDecoder(resp.Body).Decode(&swapResponse)
	if err != nil {
		return nil, err
	}

	return &swapResponse, nil
}

// GetSwap retrieves the current status of a swap
func (c *Client) GetSwap(ctx context.Context, swapID string) (*ReverseSwapResponse, error) {
	req, err := c.makeRequest(ctx, "/api/v1/swap/"+swapID, "GET", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}

	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("failed to get swap %s: %w", swapID, ErrSwapNotFound)
	}

	if resp.StatusCode >= 400 {
		bodyBytes, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}

		return nil, fmt.Errorf("failed to get swap: %d: %w, err: %s", resp.StatusCode, ErrUnexpectedStatus, bodyBytes)
	}

	var swapResponse ReverseSwapResponse
	err = json.NewDecoder(resp.Body).Decode(&swapResponse)
	if err != nil {
		return nil, err
	}

	return &swapResponse, nil
}

func (c *Client) makeRequest(ctx context.Context, path string, method string, body *createSwapBody) (*http.Request, error) {
	var req *http.Request
	var err error
	if body == nil {
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	} else {
		bodyBytes, marshalErr := json.Marshal(body)
		if marshalErr != nil {
			return nil, marshalErr
		}
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewBuffer(bodyBytes))
		if req != nil {
			req.Header.Set("Content-Type", "application/json")
		}
	}
	if err != nil {
		return nil, err
	}

	return req, nil
}
