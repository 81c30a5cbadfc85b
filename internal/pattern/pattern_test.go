package pattern

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amirphl/swing-scanner/internal/candle"
)

var day0 = time.Date(2024, 3, 4, 21, 0, 0, 0, time.UTC)

func bar(i int, o, h, l, c float64) candle.Candle {
	return candle.Candle{
		Timestamp: day0.AddDate(0, 0, i),
		Open:      o,
		High:      h,
		Low:       l,
		Close:     c,
		Volume:    1_000_000,
		Symbol:    "TEST",
		Timeframe: "1d",
	}
}

// flat is a bodiless bar centred on c.
func flat(i int, c float64) candle.Candle {
	return bar(i, c, c+0.5, c-0.5, c)
}

func named(ms []Match, name string) []Match {
	var out []Match
	for _, m := range ms {
		if m.Name == name {
			out = append(out, m)
		}
	}
	return out
}

func TestDoji(t *testing.T) {
	tests := []struct {
		name      string
		candle    candle.Candle
		want      string
		direction Direction
	}{
		{"dragonfly", bar(0, 10, 10, 8, 10), "dragonfly_doji", Bullish},
		{"gravestone", bar(0, 8, 10, 8, 8), "gravestone_doji", Bearish},
		{"long legged", bar(0, 9, 10, 8, 9), "long_legged_doji", Neutral},
		{"plain", bar(0, 9.5, 10, 8, 9.5), "doji", Neutral},
		{"wide body", bar(0, 8.5, 10, 8, 9.5), "", ""},
		{"no range", bar(0, 9, 9, 9, 9), "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Doji{}.Detect([]candle.Candle{tt.candle})
			if tt.want == "" {
				assert.Empty(t, got)
				return
			}
			require.Len(t, got, 1)
			assert.Equal(t, tt.want, got[0].Name)
			assert.Equal(t, tt.direction, got[0].Direction)
			assert.Equal(t, 0, got[0].Index)
			assert.Equal(t, tt.candle.Timestamp, got[0].Time)
		})
	}
}

func TestDoji_Strength(t *testing.T) {
	got := Doji{}.Detect([]candle.Candle{bar(0, 10, 10, 8, 10)})
	require.Len(t, got, 1)
	assert.InDelta(t, 1.0, got[0].Strength, 1e-9, "strong dragonfly with no body is capped at 1")
}

func TestHammer(t *testing.T) {
	hammer := func(i int) candle.Candle { return bar(i, 9.7, 10, 8, 10) }

	t.Run("without prior trend", func(t *testing.T) {
		got := Hammer{}.Detect([]candle.Candle{hammer(0)})
		require.Len(t, got, 1)
		assert.Equal(t, "hammer", got[0].Name)
		assert.Equal(t, Bullish, got[0].Direction)
		assert.InDelta(t, StrengthStrong, got[0].Strength, 1e-9)
	})

	t.Run("after a decline", func(t *testing.T) {
		cs := []candle.Candle{flat(0, 14), flat(1, 13), flat(2, 12), flat(3, 11), hammer(4)}
		got := Hammer{}.Detect(cs)
		require.Len(t, got, 1)
		assert.Equal(t, "hammer", got[0].Name)
		assert.Equal(t, 4, got[0].Index)
	})

	t.Run("after a rise", func(t *testing.T) {
		cs := []candle.Candle{flat(0, 6), flat(1, 7), flat(2, 8), flat(3, 9), hammer(4)}
		got := Hammer{}.Detect(cs)
		require.Len(t, got, 1)
		assert.Equal(t, "hanging_man", got[0].Name)
		assert.Equal(t, Bearish, got[0].Direction)
	})

	t.Run("long upper shadow", func(t *testing.T) {
		assert.Empty(t, Hammer{}.Detect([]candle.Candle{bar(0, 9.7, 11, 8, 10)}))
	})

	t.Run("short lower shadow", func(t *testing.T) {
		assert.Empty(t, Hammer{}.Detect([]candle.Candle{bar(0, 9.5, 10, 9.2, 10)}))
	})
}

func TestEngulfing(t *testing.T) {
	tests := []struct {
		name     string
		prev     candle.Candle
		cur      candle.Candle
		want     string
		strength float64
	}{
		{
			name:     "bullish",
			prev:     bar(0, 10, 10.2, 8.8, 9),
			cur:      bar(1, 8.9, 10.6, 8.8, 10.5),
			want:     "bullish_engulfing",
			strength: 0.8,
		},
		{
			name:     "bearish",
			prev:     bar(0, 9, 10.2, 8.8, 10),
			cur:      bar(1, 10.5, 10.6, 8.8, 8.9),
			want:     "bearish_engulfing",
			strength: 0.8,
		},
		{
			name: "inside body",
			prev: bar(0, 10, 10.2, 8.8, 9),
			cur:  bar(1, 9.2, 10, 9, 9.8),
		},
		{
			name: "same colour",
			prev: bar(0, 9, 10.2, 8.8, 10),
			cur:  bar(1, 8.9, 10.6, 8.8, 10.5),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Engulfing{}.Detect([]candle.Candle{tt.prev, tt.cur})
			if tt.want == "" {
				assert.Empty(t, got)
				return
			}
			require.Len(t, got, 1)
			assert.Equal(t, tt.want, got[0].Name)
			assert.Equal(t, 1, got[0].Index)
			assert.InDelta(t, tt.strength, got[0].Strength, 1e-9)
		})
	}
}

func TestEngulfing_VolumeBoost(t *testing.T) {
	prev := bar(0, 10, 10.2, 8.8, 9)
	cur := bar(1, 8.9, 10.6, 8.8, 10.5)
	cur.Volume = prev.Volume * 2

	got := Engulfing{}.Detect([]candle.Candle{prev, cur})
	require.Len(t, got, 1)
	assert.InDelta(t, 0.96, got[0].Strength, 1e-9)
}

func TestStar(t *testing.T) {
	t.Run("morning", func(t *testing.T) {
		cs := []candle.Candle{
			bar(0, 12, 12.1, 9.9, 10),
			bar(1, 9.5, 9.7, 9.3, 9.45),
			bar(2, 9.6, 11.6, 9.5, 11.5),
		}
		got := Star{}.Detect(cs)
		require.Len(t, got, 1)
		assert.Equal(t, "morning_star", got[0].Name)
		assert.Equal(t, Bullish, got[0].Direction)
		assert.Equal(t, 2, got[0].Index)
		assert.InDelta(t, 0.36, got[0].Strength, 1e-9)
	})

	t.Run("evening", func(t *testing.T) {
		cs := []candle.Candle{
			bar(0, 10, 12.1, 9.9, 12),
			bar(1, 12.5, 12.7, 12.3, 12.55),
			bar(2, 12.4, 12.5, 10.4, 10.5),
		}
		got := Star{}.Detect(cs)
		require.Len(t, got, 1)
		assert.Equal(t, "evening_star", got[0].Name)
		assert.Equal(t, Bearish, got[0].Direction)
	})

	t.Run("no gap", func(t *testing.T) {
		cs := []candle.Candle{
			bar(0, 12, 12.1, 9.9, 10),
			bar(1, 10.5, 10.7, 10.3, 10.45),
			bar(2, 9.6, 11.6, 9.5, 11.5),
		}
		assert.Empty(t, Star{}.Detect(cs))
	})

	t.Run("too short", func(t *testing.T) {
		assert.Empty(t, Star{}.Detect([]candle.Candle{flat(0, 10), flat(1, 10)}))
	})
}

func TestRecent(t *testing.T) {
	cs := []candle.Candle{
		flat(0, 14), flat(1, 13), flat(2, 12), flat(3, 11),
		bar(4, 9.7, 10, 8, 10),
		flat(5, 10), flat(6, 10),
	}

	assert.Equal(t, []string{"hammer"}, Recent(cs, 3, Bullish))
	assert.Empty(t, Recent(cs, 2, Bullish), "hammer is outside the window")
	assert.Empty(t, Recent(cs, 3, Bearish))
	assert.Equal(t, []string{"long_legged_doji"}, Recent(cs, 2, Neutral), "names are deduplicated")
	assert.Equal(t, []string{"hammer"}, Recent(cs, 100, Bullish, Hammer{}))
}

func TestRecent_Empty(t *testing.T) {
	assert.Empty(t, Recent(nil, 3, Bullish))
	assert.Len(t, named(Doji{}.Detect([]candle.Candle{flat(0, 10)}), "long_legged_doji"), 1)
}
