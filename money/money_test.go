package money

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestNewFromBtc(t *testing.T) {
	type args struct {
		amount decimal.Decimal
	}
	tests := []struct {
		name    string
		args    args
		want    Money
		wantErr bool
	}{
		{
			name: "NewFromBtc - Pass",
			args: args{
				amount: decimal.NewFromInt(1),
			},
			want:    100000000,
			wantErr: false,
		},
		{
			name: "NewFromBtc - Fail Negative Amount",
			args: args{
				amount: decimal.NewFromInt(-1),
			},
			want:    0,
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewFromBtc(tt.args.amount)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewFromBtc() error = %v, wantErr %v", err, tt.wantErr)

				return
			}
			if got != tt.want {
				t.Errorf("NewFromBtc() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMoney_ToBtc(t *testing.T) {
	tests := []struct {
		name string
		m    Money
		want decimal.Decimal
	}{
		{
			name: "To BTC - Pass",
			m:    100000000,
			want: decimal.NewFromInt(1),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.m.ToBtc(); got.Cmp(tt.want) != 0 {
				t.Errorf("Money.ToBtc() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMoney_DeductMarginPercent(t *testing.T) {
	tests := []struct {
		name    string
		m       Money
		percent float64
		want    Money
		wantErr bool
	}{
		{
			name:    "zero margin keeps amount",
			m:       1000,
			percent: 0,
			want:    1000,
		},
		{
			name:    "two percent margin rounds down",
			m:       1001,
			percent: 2,
			want:    980,
		},
		{
			name:    "negative margin rejected",
			m:       1000,
			percent: -1,
			want:    0,
			wantErr: true,
		},
		{
			name:    "margin over one hundred rejected",
			m:       1000,
			percent: 101,
			want:    0,
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.m.DeductMarginPercent(tt.percent)
			if (err != nil) != tt.wantErr {
				t.Errorf("Money.DeductMarginPercent() error = %v, wantErr %v", err, tt.wantErr)

				return
			}
			if got != tt.want {
				t.Errorf("Money.DeductMarginPercent() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMoney_ToMilliSats(t *testing.T) {
	if got := Money(21).ToMilliSats(); got != 21000 {
		t.Errorf("Money.ToMilliSats() = %v, want 21000", got)
	}
}
