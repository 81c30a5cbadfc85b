package signal

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amirphl/swing-scanner/internal/indicator"
)

func TestRound(t *testing.T) {
	assert.Equal(t, 1.01, Round(1.005, 2))
	assert.Equal(t, 2.68, Round(2.675, 2))
	assert.Equal(t, -1.5, Round(-1.45, 1))
	assert.Equal(t, 100.0, Round(99.996, 2))
}

func TestActionableRecord_FieldOrder(t *testing.T) {
	a := ActionableSignal{
		Signal: Signal{
			Symbol:     "NVDA",
			EntryPrice: 100.004,
			Score:      81.25,
			Stop:       97.996,
			Target:     107.00000000000001,
			RiskReward: 3.4990,
			Indicators: indicator.Set{RSI: 58.33, RSISlope: indicator.SlopeRising, VolumeRatio: 1.666, MACDHistTrendBars: 3},
		},
		PositionSize:  49,
		RiskDollars:   100,
		RewardDollars: 343.0,
	}

	data, err := json.Marshal(a.Record())
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"symbol":"NVDA","price":100,"score":81.3,"rsi":58.3,"rsi_slope":"rising",
		"volume_ratio":1.67,"macd_trend":"rising 3 bars","stop":98,"target":107,
		"risk_reward":3.5,"position_size":49,"risk_dollars":100,"reward_dollars":343,"notes":[]
	}`, string(data))

	var keys []string
	dec := json.NewDecoder(bytes.NewReader(data))
	_, _ = dec.Token()
	for dec.More() {
		tok, err := dec.Token()
		require.NoError(t, err)
		keys = append(keys, tok.(string))
		var skip json.RawMessage
		require.NoError(t, dec.Decode(&skip))
	}
	assert.Equal(t, ActionableHeader, keys)
}

func TestMACDTrend(t *testing.T) {
	tests := []struct {
		name string
		set  indicator.Set
		want string
	}{
		{"several bars", indicator.Set{MACDHistTrendBars: 2}, "rising 2 bars"},
		{"one bar", indicator.Set{MACDHistTrendBars: 1}, "rising 1 bar"},
		{"bullish only", indicator.Set{MACDHist: 0.1, PrevMACDHist: 0.2}, "bullish"},
		{"neither", indicator.Set{MACDHist: -0.1}, "flat"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Signal{Indicators: tt.set}.MACDTrend())
		})
	}
}
