package position

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSize(t *testing.T) {
	tests := []struct {
		name        string
		entry       float64
		stop        float64
		target      float64
		params      RiskParams
		wantSize    int
		wantRisk    float64
		wantReward  float64
		expectedErr error
	}{
		{
			name:       "one percent of ten thousand",
			entry:      100,
			stop:       98,
			target:     107,
			params:     RiskParams{AccountSize: 10000, RiskPercent: 1},
			wantSize:   50,
			wantRisk:   100,
			wantReward: 350,
		},
		{
			name:       "floors fractional shares",
			entry:      50,
			stop:       47,
			target:     53.5,
			params:     RiskParams{AccountSize: 10000, RiskPercent: 1},
			wantSize:   33,
			wantRisk:   100,
			wantReward: 115.5,
		},
		{
			name:        "budget smaller than one share of risk",
			entry:       500,
			stop:        380,
			target:      535,
			params:      RiskParams{AccountSize: 10000, RiskPercent: 1},
			wantRisk:    100,
			expectedErr: ErrBelowOneShare,
		},
		{
			name:        "stop at entry",
			entry:       100,
			stop:        100,
			target:      107,
			params:      RiskParams{AccountSize: 10000, RiskPercent: 1},
			wantRisk:    100,
			expectedErr: ErrNonPositiveRisk,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Size(tt.entry, tt.stop, tt.target, tt.params)
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				assert.Zero(t, s.Size)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantSize, s.Size)
			assert.InDelta(t, tt.wantRisk, s.RiskDollars, 1e-9)
			assert.InDelta(t, tt.wantReward, s.RewardDollars, 1e-9)
		})
	}
}

func TestSize_RiskPerShare(t *testing.T) {
	s, err := Size(100, 98, 107, RiskParams{AccountSize: 10000, RiskPercent: 1})
	require.NoError(t, err)
	assert.InDelta(t, 2, s.RiskPerShare, 1e-9)
	assert.InDelta(t, 100, s.ActualRisk, 1e-9)
}
