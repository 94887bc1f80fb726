package rates

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestFiatToSats(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/prices", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"time": 1700000000, "USD": 50000, "EUR": 40000}`))
	}))
	defer server.Close()

	client := New(WithURL(server.URL))

	tests := []struct {
		name     string
		amount   decimal.Decimal
		currency string
		want     uint64
		wantErr  error
	}{
		{
			name:     "whole dollars",
			amount:   decimal.NewFromInt(100),
			currency: "USD",
			// 100 USD at 50k USD/BTC is 0.002 BTC
			want: 200_000,
		},
		{
			name:     "lowercase currency",
			amount:   decimal.NewFromInt(20),
			currency: "eur",
			want:     50_000,
		},
		{
			name:     "fractional result rounds up",
			amount:   decimal.NewFromFloat(0.0101),
			currency: "USD",
			// 20.2 sats rounds up to 21
			want: 21,
		},
		{
			name:     "unknown currency",
			amount:   decimal.NewFromInt(10),
			currency: "GBP",
			wantErr:  ErrUnknownCurrency,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := client.FiatToSats(context.Background(), tt.amount, tt.currency)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)

				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, uint64(got))
		})
	}
}

func TestFiatToSats_RoundsUp(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"USD": 60000}`))
	}))
	defer server.Close()

	client := New(WithURL(server.URL))

	// 1 USD at 60k is 1666.66... sats and must round up to 1667
	got, err := client.FiatToSats(context.Background(), decimal.NewFromInt(1), "USD")
	require.NoError(t, err)
	require.Equal(t, uint64(1667), uint64(got))
}

func TestFiatToSats_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := New(WithURL(server.URL))

	_, err := client.FiatToSats(context.Background(), decimal.NewFromInt(1), "USD")
	require.Error(t, err)
	require.ErrorIs(t, err, ErrUnexpectedStatus)
}
