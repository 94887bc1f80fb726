package lnd

import (
	"context"
	"crypto/x509"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/40acres/fossad/lightning"
	"github.com/lightningnetwork/lnd/lnrpc"
	"github.com/lightningnetwork/lnd/lnrpc/routerrpc"
	"github.com/lightningnetwork/lnd/macaroons"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"gopkg.in/macaroon.v2"
)

type Client struct {
	routerClient    routerrpc.RouterClient
	lndClient       lnrpc.LightningClient
	closeConnection func()
}

type Option func(*Options)

func WithLndEndpoint(endpoint string) Option {
	return func(o *Options) {
		o.lndEndpoint = endpoint
	}
}

func WithMacaroonFilePath(path string) Option {
	return func(o *Options) {
		o.macaroonFilePath = path
	}
}

func WithTLSCertFilePath(path string) Option {
	return func(o *Options) {
		o.tlsCertFilePath = path
	}
}

func WithNetwork(network lightning.Network) Option {
	return func(o *Options) {
		o.network = network
	}
}

func WithFS(fs afero.Fs) Option {
	return func(o *Options) {
		o.fs = fs
	}
}

type Options struct {
	lndEndpoint      string
	macaroonFilePath string
	tlsCertFilePath  string
	network          lightning.Network
	fs               afero.Fs
}

// NewClient creates a lnd client from macaroon and cert file locations.
// This Client establishes a grpc connection with a lnd node using grpc.
func NewClient(ctx context.Context, opts ...Option) (*Client, error) {
	// Default options
	options := Options{
		network: lightning.Mainnet,
		fs:      afero.NewOsFs(),
	}

	// Apply options
	for _, opt := range opts {
		opt(&options)
	}

	if options.lndEndpoint == "" {
		options.lndEndpoint = "localhost:10009"
	}
	if options.macaroonFilePath == "" {
		options.macaroonFilePath = "/root/.lnd/data/chain/bitcoin/{Network}/admin.macaroon"
	}
	if options.tlsCertFilePath == "" {
		options.tlsCertFilePath = "/root/.lnd/tls.cert"
	}

	options.macaroonFilePath = strings.Replace(options.macaroonFilePath, "{Network}", string(options.network), -1)

	// Read macaroon file from path
	macaroonFileBytes, err := afero.ReadFile(options.fs, options.macaroonFilePath)
	if err != nil {
		return nil, fmt.Errorf("failed reading macaroon file: %w", err)
	}

	// Read TLS cert file from path
	certBytes, err := afero.ReadFile(options.fs, options.tlsCertFilePath)
	if err != nil {
		return nil, fmt.Errorf("failed reading TLS cert file: %w", err)
	}
	creds := credentials.NewClientTLSFromCert(loadCertPool(certBytes), "")

	mac := &macaroon.Macaroon{}
	err = mac.UnmarshalBinary(macaroonFileBytes)
	if err != nil {
		return nil, fmt.Errorf("failed unmarshalling macaroon: %w", err)
	}

	macCred, err := macaroons.NewMacaroonCredential(mac)
	if err != nil {
		return nil, fmt.Errorf("failed creating macaroon credentials: %w", err)
	}

	conn, err := grpc.NewClient(options.lndEndpoint, grpc.WithTransportCredentials(creds), grpc.WithPerRPCCredentials(macCred))
	if err != nil {
		return nil, fmt.Errorf("failed connecting to LND node: %w", err)
	}

	client := &Client{
		routerClient: routerrpc.NewRouterClient(conn),
		lndClient:    lnrpc.NewLightningClient(conn),
		closeConnection: func() {
			err := conn.Close()
			if err != nil {
				log.WithError(err).Error("error closing connection")
			}
		},
	}

	return client, nil
}

// PayInvoice uses the lnd node to pay the invoice provided by the paymentRequest
func (c *Client) PayInvoice(ctx context.Context, paymentRequest string, feeLimitRatio float64) error {
	// Decode payment request
	payReq, err := c.lndClient.DecodePayReq(ctx, &lnrpc.PayReqString{PayReq: paymentRequest})
	if err != nil {
		err = fmt.Errorf("error decoding payment request: %w", err)

		return err
	}

	feeLimitSat := int64(float64(payReq.NumSatoshis) * feeLimitRatio)

	sendRequest := &routerrpc.SendPaymentRequest{
		PaymentRequest: paymentRequest,
		FeeLimitSat:    feeLimitSat,
		TimeoutSeconds: int32((time.Minute * 5).Seconds()),
	}

	stream, err := c.routerClient.SendPaymentV2(ctx, sendRequest)
	if err != nil {
		return err
	}

	// We ignore the stream, we will monitor in the next step
	// if we remove this line, the payment will fail with "payment not initiated"
	// Please read issue: https://github.com/lightningnetwork/lnd/issues/5035#issuecomment-780711315
	_, err = stream.Recv()
	if err != nil {
		return err
	}

	// We ignore the stream, we will monitor in the next step
	err = stream.CloseSend()
	if err != nil {
		log.WithError(err).Error("error closing stream for SendPaymentV2")
	}

	return nil
}

// MonitorPaymentRequest monitors a payment to know its status
func (c *Client) MonitorPaymentRequest(ctx context.Context, paymentHash string) (lightning.Preimage, lightning.NetworkFeeSats, error) {
	hash, err := hex.DecodeString(paymentHash)
	if err != nil {
		return "", 0, err
	}

	monitorRequest := &routerrpc.TrackPaymentRequest{
		PaymentHash: hash,
	}

	stream, err := c.routerClient.TrackPaymentV2(ctx, monitorRequest)
	if err != nil {
		return "", 0, err
	}

	defer func() {
		err := stream.CloseSend()
		if err != nil {
			log.WithError(err).Error("error closing stream for TrackPaymentV2")
		}
	}()

	for {
		if ctx.Err() != nil {
			return "", 0, ctx.Err()
		}

		payment, err := stream.Recv()
		if err != nil {
			return "", 0, err
		}

		log.WithField("payment", payment).Debug("New TrackPaymentV2 event")
		switch payment.Status {
		case lnrpc.Payment_SUCCEEDED:
			return payment.PaymentPreimage, payment.FeeSat, nil
		case lnrpc.Payment_FAILED:
			err := fmt.Errorf("payment failed: %w", errors.New(payment.FailureReason.String()))

			return "", 0, err
		}
	}
}

// CloseConnection closes the connection with the lnd node
func (c *Client) CloseConnection() {
	c.closeConnection()
}

// Helper function to load a certificate pool from cert bytes
func loadCertPool(certBytes []byte) *x509.CertPool {
	cp := x509.NewCertPool()
	cp.AppendCertsFromPEM(certBytes)

	return cp
}
