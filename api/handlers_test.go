package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/40acres/fossad/completion"
	"github.com/40acres/fossad/crypto"
	"github.com/40acres/fossad/daemon"
	"github.com/40acres/fossad/database"
	"github.com/40acres/fossad/database/models"
	"github.com/40acres/fossad/destination"
	"github.com/40acres/fossad/lightning"
	"github.com/40acres/fossad/lnurl"
	"github.com/40acres/fossad/swaps"
)

const (
	testDeviceID = "device-1"
	testWalletID = "wallet-1"
)

type serverFixture struct {
	devices  *database.MockDeviceRepository
	ledger   *database.MockTransactionRepository
	sessions *daemon.SessionStore
	hub      *completion.Hub
	ln       *lightning.MockClient
	swaps    *swaps.MockClientInterface
	server   *httptest.Server
	token    string
	device   *models.Device
}

func newServerFixture(t *testing.T, ctrl *gomock.Controller, enabledRails []string) *serverFixture {
	t.Helper()

	secret, err := crypto.GenerateTokenSecret()
	require.NoError(t, err)
	token, err := crypto.EncryptDevicePayload(secret, "1234:21000")
	require.NoError(t, err)

	issuedAt := time.Now()
	device := &models.Device{
		ID:            testDeviceID,
		WalletID:      testWalletID,
		Title:         "lobby",
		Currency:      "sat",
		EnabledRails:  enabledRails,
		TokenSecret:   secret,
		PendingToken:  token,
		TokenIssuedAt: &issuedAt,
	}

	f := &serverFixture{
		devices:  database.NewMockDeviceRepository(ctrl),
		ledger:   database.NewMockTransactionRepository(ctrl),
		sessions: daemon.NewSessionStore(),
		hub:      completion.NewHub(),
		ln:       lightning.NewMockClient(ctrl),
		swaps:    swaps.NewMockClientInterface(ctrl),
		token:    token,
		device:   device,
	}

	dispatcher := daemon.NewDispatcher(
		f.devices,
		f.ledger,
		f.sessions,
		f.hub,
		destination.NewResolver(&chaincfg.RegressionNetParams),
		f.ln,
		lnurl.NewClient(),
		f.swaps,
		nil,
		testWalletID,
		daemon.DefaultTokenTTL,
	)

	srv := NewServer(0, "", f.devices, f.ledger, dispatcher, f.sessions, f.hub)
	f.server = httptest.NewServer(srv.Handler())
	t.Cleanup(f.server.Close)

	// LNURL withdraw callbacks need an absolute public URL
	srv.publicURL = f.server.URL

	return f
}

func (f *serverFixture) get(t *testing.T, path string) (*http.Response, []byte) {
	t.Helper()

	resp, err := http.Get(f.server.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)

	return resp, buf.Bytes()
}

func TestPayoutLn(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	f := newServerFixture(t, ctrl, []string{"lightning"})
	invoice := lightning.CreateMockInvoice(t, 21000)

	f.devices.EXPECT().GetDevice(gomock.Any(), testDeviceID).Return(f.device, nil)
	f.devices.EXPECT().ConsumeToken(gomock.Any(), testDeviceID, f.token).Return(nil)
	f.ln.EXPECT().PayInvoice(gomock.Any(), gomock.Any(), lightning.MaxRoutingFeeRatio).Return(nil)
	f.ledger.EXPECT().RecordTransaction(gomock.Any(), gomock.Any()).Return(nil)

	resp, body := f.get(t, fmt.Sprintf("/api/v1/payout/ln/%s/%s/%s",
		testDeviceID, url.PathEscape(f.token), invoice))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var session sessionResponse
	require.NoError(t, json.Unmarshal(body, &session))
	require.Equal(t, "completed", session.State)
	require.Equal(t, uint64(21000), session.AmountSats)
	require.NotEmpty(t, session.Key)
}

func TestPayoutLn_UsedToken(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	f := newServerFixture(t, ctrl, []string{"lightning"})
	invoice := lightning.CreateMockInvoice(t, 21000)

	f.devices.EXPECT().GetDevice(gomock.Any(), testDeviceID).Return(f.device, nil)
	f.devices.EXPECT().ConsumeToken(gomock.Any(), testDeviceID, f.token).Return(database.ErrTokenAlreadyUsed)

	resp, _ := f.get(t, fmt.Sprintf("/api/v1/payout/ln/%s/%s/%s",
		testDeviceID, url.PathEscape(f.token), invoice))
	require.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestPayoutChain(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	f := newServerFixture(t, ctrl, []string{"onchain"})

	f.devices.EXPECT().GetDevice(gomock.Any(), testDeviceID).Return(f.device, nil)
	f.devices.EXPECT().ConsumeToken(gomock.Any(), testDeviceID, f.token).Return(nil)
	f.swaps.EXPECT().CreateReverseSwap(gomock.Any(), gomock.Any()).Return(&swaps.ReverseSwapResponse{
		SwapID: "swap-1",
		Status: swaps.StatusPending,
	}, nil)

	resp, body := f.get(t, fmt.Sprintf("/api/v1/payout/chain/%s/%s/onchain/%s",
		testDeviceID, url.PathEscape(f.token), "bcrt1qw508d6qejxtdg4y5r3zarvary0c5xw7kygt080"))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var session sessionResponse
	require.NoError(t, json.Unmarshal(body, &session))
	require.Equal(t, "awaiting_completion", session.State)
	require.Equal(t, "swap-1", session.SwapID)

	// The returned key polls the same session
	resp, body = f.get(t, "/api/v1/atm/session/"+session.Key)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var polled sessionResponse
	require.NoError(t, json.Unmarshal(body, &polled))
	require.Equal(t, session.Key, polled.Key)
}

func TestPayoutChain_BadRail(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	f := newServerFixture(t, ctrl, []string{"onchain"})

	resp, _ := f.get(t, fmt.Sprintf("/api/v1/payout/chain/%s/%s/lightning/addr",
		testDeviceID, url.PathEscape(f.token)))
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetSession_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	f := newServerFixture(t, ctrl, []string{"lightning"})

	resp, _ := f.get(t, "/api/v1/atm/session/unknown")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateDevice(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	f := newServerFixture(t, ctrl, nil)

	f.devices.EXPECT().SaveDevice(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, d *models.Device) error {
			require.NotEmpty(t, d.ID)
			require.NotEmpty(t, d.TokenSecret)
			require.Equal(t, "EUR", d.Currency)

			return nil
		})

	body := `{"title":"lobby","walletId":"wallet-1","currency":"EUR","profitMarginPercent":2,"enabledRails":["lightning","onchain"]}`
	resp, err := http.Post(f.server.URL+"/api/v1/fossa", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created deviceResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	require.NotEmpty(t, created.TokenSecret)
}

func TestCreateDevice_Invalid(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	f := newServerFixture(t, ctrl, nil)

	tests := []struct {
		name string
		body string
	}{
		{
			name: "missing title",
			body: `{"walletId":"w","currency":"EUR","enabledRails":["lightning"]}`,
		},
		{
			name: "unknown rail",
			body: `{"title":"t","walletId":"w","currency":"EUR","enabledRails":["teleport"]}`,
		},
		{
			name: "margin over limit",
			body: `{"title":"t","walletId":"w","currency":"EUR","profitMarginPercent":150,"enabledRails":["lightning"]}`,
		},
		{
			name: "not json",
			body: `title=t`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(f.server.URL+"/api/v1/fossa", "application/json", strings.NewReader(tt.body))
			require.NoError(t, err)
			defer resp.Body.Close()
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestListTransactionsSweepsStaleSessions(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	f := newServerFixture(t, ctrl, nil)

	f.sessions.Put(&daemon.PayoutSession{
		Key:       "old",
		State:     models.StateCompleted,
		UpdatedAt: time.Now().Add(-2 * time.Hour),
	})

	swapID := "swap-1"
	f.devices.EXPECT().ListDevices(gomock.Any()).Return([]*models.Device{f.device}, nil)
	f.ledger.EXPECT().ListTransactions(gomock.Any(), []string{testDeviceID}).Return([]*models.AtmTransaction{
		{
			ID:         1,
			SessionKey: "s1",
			DeviceID:   testDeviceID,
			AmountSATS: 21000,
			Rail:       models.RailOnchain,
			Result:     models.ResultCompleted,
			SwapID:     &swapID,
		},
	}, nil)

	resp, body := f.get(t, "/api/v1/atm")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var txs []transactionResponse
	require.NoError(t, json.Unmarshal(body, &txs))
	require.Len(t, txs, 1)
	require.Equal(t, "swap-1", txs[0].SwapID)

	// The stale terminal session is gone
	_, err := f.sessions.Get("old")
	require.Error(t, err)
}

func TestDeleteTransaction(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	f := newServerFixture(t, ctrl, nil)

	f.ledger.EXPECT().DeleteTransaction(gomock.Any(), uint(7)).Return(nil)

	req, err := http.NewRequest(http.MethodDelete, f.server.URL+"/api/v1/atm/7", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestLnurlWithdraw(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	f := newServerFixture(t, ctrl, []string{"lnurl"})

	f.devices.EXPECT().GetDevice(gomock.Any(), testDeviceID).Return(f.device, nil).Times(2)

	resp, body := f.get(t, fmt.Sprintf("/api/v1/lnurl/%s?payload=%s",
		testDeviceID, url.QueryEscape(f.token)))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var withdraw lnurl.WithdrawResponse
	require.NoError(t, json.Unmarshal(body, &withdraw))
	require.Equal(t, lnurl.TagWithdrawRequest, withdraw.Tag)
	require.Equal(t, f.token, withdraw.K1)
	require.Equal(t, uint64(21000)*1000, withdraw.MaxWithdrawable)
	require.Equal(t, withdraw.MinWithdrawable, withdraw.MaxWithdrawable)
	require.Contains(t, withdraw.Callback, "/api/v1/lnurl/cb/"+testDeviceID)
}

func TestLnurlWithdrawCallback(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	f := newServerFixture(t, ctrl, []string{"lnurl"})
	invoice := lightning.CreateMockInvoice(t, 21000)

	f.devices.EXPECT().GetDevice(gomock.Any(), testDeviceID).Return(f.device, nil)
	f.devices.EXPECT().ConsumeToken(gomock.Any(), testDeviceID, f.token).Return(nil)
	f.ln.EXPECT().PayInvoice(gomock.Any(), gomock.Any(), lightning.MaxRoutingFeeRatio).Return(nil)
	f.ledger.EXPECT().RecordTransaction(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, tx *models.AtmTransaction) error {
			require.Equal(t, models.RailLnurl, tx.Rail)
			require.Equal(t, models.ResultCompleted, tx.Result)

			return nil
		})

	resp, body := f.get(t, fmt.Sprintf("/api/v1/lnurl/cb/%s?k1=%s&pr=%s",
		testDeviceID, url.QueryEscape(f.token), invoice))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var status lnurl.Response
	require.NoError(t, json.Unmarshal(body, &status))
	require.Equal(t, "OK", status.Status)
}

func TestLnurlWithdrawCallback_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	f := newServerFixture(t, ctrl, []string{"lnurl"})

	resp, body := f.get(t, "/api/v1/lnurl/cb/"+testDeviceID)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var status lnurl.Response
	require.NoError(t, json.Unmarshal(body, &status))
	require.Equal(t, "ERROR", status.Status)
}

func TestSessionSocket(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	f := newServerFixture(t, ctrl, nil)

	f.sessions.Put(&daemon.PayoutSession{
		Key:      "s1",
		DeviceID: testDeviceID,
		State:    models.StateAwaitingCompletion,
	})

	wsURL := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/api/v1/ws/s1"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// First frame carries the current state as a ping
	var first completion.Event
	require.NoError(t, conn.ReadJSON(&first))
	require.Equal(t, completion.EventPing, first.Kind)
	require.Equal(t, "s1", first.SessionKey)

	// Wait for the subscription to register before publishing
	require.Eventually(t, func() bool {
		return f.hub.SubscriberCount("s1") == 1
	}, time.Second, 10*time.Millisecond)

	f.hub.Publish(completion.Event{
		Kind:       completion.EventCompleted,
		SessionKey: "s1",
		At:         time.Now(),
	})

	var second completion.Event
	require.NoError(t, conn.ReadJSON(&second))
	require.Equal(t, completion.EventCompleted, second.Kind)
}

func TestSessionSocket_UnknownSession(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	f := newServerFixture(t, ctrl, nil)

	resp, _ := f.get(t, "/api/v1/ws/unknown")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}
