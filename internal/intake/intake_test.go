package intake

import (
	"testing"

	"nsePaperTracker/internal/domain"
	"nsePaperTracker/internal/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		payload map[string]interface{}
		want    domain.TradeProposal
		wantErr error
	}{
		{
			name: "dashboard-style payload with risk params",
			payload: map[string]interface{}{
				"Ticker":      "RELIANCE.NS",
				"Entry Price": 100.2,
				"ATR":         2.0,
				"TriggerHigh": 100.0,
				"VWAP":        99.8,
				"Signal":      "ORB Breakout",
			},
			want: domain.TradeProposal{
				Ticker:     "RELIANCE.NS",
				Side:       domain.Long,
				EntryPrice: 100.2,
				ATR:        fptr(2.0),
				Trigger:    fptr(100.0),
				VWAP:       fptr(99.8),
				Label:      "ORB Breakout",
			},
		},
		{
			name: "snake_case payload with string numbers",
			payload: map[string]interface{}{
				"ticker":      "TCS.NS",
				"entry_price": "3500.50",
				"stop_loss":   "3450",
				"target":      "3600",
				"side":        "sell",
			},
			want: domain.TradeProposal{
				Ticker:     "TCS.NS",
				Side:       domain.Short,
				EntryPrice: 3500.50,
				StopLoss:   fptr(3450.0),
				Target:     fptr(3600.0),
				Label:      "Manual",
			},
		},
		{
			name: "falls back through entry price aliases",
			payload: map[string]interface{}{
				"Ticker":        "INFY.NS",
				"Current Price": 1500,
			},
			want: domain.TradeProposal{
				Ticker:     "INFY.NS",
				Side:       domain.Long,
				EntryPrice: 1500.0,
				Label:      "Manual",
			},
		},
		{
			name: "missing ticker rejected",
			payload: map[string]interface{}{
				"Entry Price": 100.0,
			},
			wantErr: ports.ErrInvalidSignal,
		},
		{
			name: "missing entry price rejected",
			payload: map[string]interface{}{
				"Ticker": "SBIN.NS",
			},
			wantErr: ports.ErrInvalidSignal,
		},
		{
			name: "non-positive entry rejected",
			payload: map[string]interface{}{
				"Ticker":      "SBIN.NS",
				"Entry Price": 0.0,
			},
			wantErr: ports.ErrInvalidSignal,
		},
		{
			name: "garbage side rejected",
			payload: map[string]interface{}{
				"Ticker":      "SBIN.NS",
				"Entry Price": 100.0,
				"Side":        "sideways",
			},
			wantErr: ports.ErrInvalidSignal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.payload)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalize_SideDefaultsToLong(t *testing.T) {
	got, err := Normalize(map[string]interface{}{
		"Ticker":      "HDFCBANK.NS",
		"Entry Price": 1650.0,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.Long, got.Side)
}

func fptr(v float64) *float64 { return &v }
