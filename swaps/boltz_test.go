package swaps

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/40acres/fossad/database/models"
	"github.com/40acres/fossad/money"
	"github.com/stretchr/testify/require"
)

func TestAssetTag(t *testing.T) {
	tests := []struct {
		name    string
		rail    models.Rail
		want    string
		wantErr bool
	}{
		{
			name: "onchain maps to BTC pair",
			rail: models.RailOnchain,
			want: "BTC/BTC",
		},
		{
			name: "liquid maps to L-BTC pair",
			rail: models.RailLiquid,
			want: "L-BTC/BTC",
		},
		{
			name:    "lightning has no swap asset",
			rail:    models.RailLightning,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AssetTag(tt.rail)
			if tt.wantErr {
				require.Error(t, err)

				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)

			// The mapping must invert cleanly
			back, err := RailForAssetTag(got)
			require.NoError(t, err)
			require.Equal(t, tt.rail, back)
		})
	}
}

func TestCreateReverseSwap(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "POST", r.Method)
		require.Equal(t, "/api/v1/swap/reverse", r.URL.Path)

		var body createSwapBody
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "L-BTC/BTC", body.Asset)
		require.Equal(t, uint64(25000), body.AmountSats)
		require.Equal(t, "lq1qqtest", body.OnchainAddress)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "swap-123",
			"status": "pending",
		})
	}))
	defer server.Close()

	client := New(WithURL(server.URL))

	resp, err := client.CreateReverseSwap(context.Background(), CreateReverseSwapRequest{
		WalletID:   "wallet-1",
		Asset:      "L-BTC/BTC",
		AmountSats: money.Money(25000),
		Address:    "lq1qqtest",
	})
	require.NoError(t, err)
	require.Equal(t, "swap-123", resp.SwapID)
	require.Equal(t, StatusPending, resp.Status)
}

func TestCreateReverseSwap_Rejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(serviceError{
			StatusCode: http.StatusBadRequest,
			Message:    "amount below minimum",
		})
	}))
	defer server.Close()

	client := New(WithURL(server.URL))

	_, err := client.CreateReverseSwap(context.Background(), CreateReverseSwapRequest{
		Asset:      "BTC/BTC",
		AmountSats: money.Money(100),
		Address:    "bc1qtest",
	})
	require.Error(t, err)
	require.ErrorIs(t, err, ErrSwapRejected)
	require.ErrorContains(t, err, "amount below minimum")
}

func TestGetSwap(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "GET", r.Method)

		switch r.URL.Path {
		case "/api/v1/swap/swap-123":
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{
				"id":          "swap-123",
				"status":      "settled",
				"onchainTxId": "deadbeef",
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := New(WithURL(server.URL))

	resp, err := client.GetSwap(context.Background(), "swap-123")
	require.NoError(t, err)
	require.Equal(t, StatusSettled, resp.Status)
	require.True(t, resp.Status.IsTerminal())
	require.Equal(t, "deadbeef", resp.OnchainTxID)

	_, err = client.GetSwap(context.Background(), "missing")
	require.Error(t, err)
	require.ErrorIs(t, err, ErrSwapNotFound)
}
