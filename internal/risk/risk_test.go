package risk

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var defaults = Params{StopMultiplier: 1.0, TargetPct: 0.07, MinRR: 1.5}

func TestCalculate(t *testing.T) {
	tests := []struct {
		name        string
		entry       float64
		atr         float64
		params      Params
		want        Levels
		expectedErr error
	}{
		{
			name:   "default levels",
			entry:  100,
			atr:    2,
			params: defaults,
			want: Levels{
				Entry: 100, Stop: 98, Target: 107, RiskReward: 3.5,
				StopBasis: "1.0×ATR", TargetBasis: "+7%",
			},
		},
		{
			name:   "wider stop",
			entry:  200,
			atr:    4,
			params: Params{StopMultiplier: 1.5, TargetPct: 0.07, MinRR: 1.5},
			want: Levels{
				Entry: 200, Stop: 194, Target: 214, RiskReward: 14.0 / 6.0,
				StopBasis: "1.5×ATR", TargetBasis: "+7%",
			},
		},
		{name: "missing ATR", entry: 100, atr: math.NaN(), params: defaults, expectedErr: ErrATRUnavailable},
		{name: "zero ATR", entry: 100, atr: 0, params: defaults, expectedErr: ErrATRUnavailable},
		{name: "stop below zero", entry: 5, atr: 6, params: defaults, expectedErr: ErrStopNotPositive},
		{name: "poor reward", entry: 100, atr: 5, params: defaults, expectedErr: ErrRiskReward},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Calculate(tt.entry, tt.atr, tt.params)
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want.Stop, got.Stop, 1e-9)
			assert.InDelta(t, tt.want.Target, got.Target, 1e-9)
			assert.InDelta(t, tt.want.RiskReward, got.RiskReward, 1e-9)
			assert.Equal(t, tt.want.StopBasis, got.StopBasis)
			assert.Equal(t, tt.want.TargetBasis, got.TargetBasis)
			assert.Less(t, got.Stop, got.Entry)
			assert.Less(t, got.Entry, got.Target)
		})
	}
}

func TestBasisLabels(t *testing.T) {
	assert.Equal(t, "2.0×ATR", StopBasis(2))
	assert.Equal(t, "+10%", TargetBasis(0.10))
	assert.Equal(t, "+7.5%", TargetBasis(0.075))
}
