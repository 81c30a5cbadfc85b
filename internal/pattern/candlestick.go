package pattern

import (
	"math"

	"github.com/amirphl/swing-scanner/internal/candle"
)

const dojiBody = 0.1

// Doji tags small-bodied candles by where their shadows sit. A dragonfly is
// bullish, a gravestone bearish, the rest neutral.
type Doji struct{}

func (Doji) Name() string { return "doji" }

func (Doji) Detect(candles []candle.Candle) []Match {
	var out []Match
	for i, c := range candles {
		s := shapeOf(c)
		if !valid(c) || s.rng == 0 || s.ratio(s.body) >= dojiBody {
			continue
		}
		up, low := s.ratio(s.upper), s.ratio(s.lower)

		m := Match{Index: i, Time: c.Timestamp, Strength: StrengthWeak}
		switch {
		case up <= 0.05 && low > 0.3:
			m.Name, m.Direction = "dragonfly_doji", Bullish
			if low > 0.7 {
				m.Strength = StrengthStrong
			} else if low > 0.5 {
				m.Strength = StrengthMedium
			}
		case low < 0.05 && up >= 0.3:
			m.Name, m.Direction = "gravestone_doji", Bearish
			if up > 0.7 {
				m.Strength = StrengthStrong
			} else if up > 0.5 {
				m.Strength = StrengthMedium
			}
		case up > 0.4 && low > 0.4:
			m.Name, m.Direction, m.Strength = "long_legged_doji", Neutral, StrengthMedium
		default:
			m.Name, m.Direction = "doji", Neutral
		}
		if s.ratio(s.body) < 0.02 {
			m.Strength = boost(m.Strength, 1.2)
		}
		out = append(out, m)
	}
	return out
}

// hammerTrend is how many bars back the preceding move is measured.
const hammerTrend = 3

// Hammer is a small body at the top of the range over a lower shadow at least
// twice its size. After a rise the same shape is a hanging man.
type Hammer struct{}

func (Hammer) Name() string { return "hammer" }

func (Hammer) Detect(candles []candle.Candle) []Match {
	var out []Match
	for i, c := range candles {
		s := shapeOf(c)
		if !valid(c) || s.rng == 0 || s.body == 0 {
			continue
		}
		if s.ratio(s.body) > 0.3 || s.lower/s.body < 2 || s.ratio(s.upper) > 0.1 {
			continue
		}

		m := Match{Index: i, Time: c.Timestamp, Strength: StrengthWeak}
		if i > hammerTrend && candles[i-1].Close > candles[i-1-hammerTrend].Close {
			m.Name, m.Direction = "hanging_man", Bearish
		} else {
			m.Name, m.Direction = "hammer", Bullish
		}
		if low := s.ratio(s.lower); low > 0.6 {
			m.Strength = StrengthStrong
		} else if low > 0.4 {
			m.Strength = StrengthMedium
		}
		if s.ratio(s.body) < 0.1 {
			m.Strength = boost(m.Strength, 1.2)
		}
		out = append(out, m)
	}
	return out
}

// Engulfing is a candle whose body covers the opposite-coloured body before it.
type Engulfing struct{}

func (Engulfing) Name() string { return "engulfing" }

func (Engulfing) Detect(candles []candle.Candle) []Match {
	var out []Match
	for i := 1; i < len(candles); i++ {
		prev, cur := candles[i-1], candles[i]
		ps, cs := shapeOf(prev), shapeOf(cur)
		if !valid(prev, cur) {
			continue
		}
		covers := math.Max(cur.Open, cur.Close) >= math.Max(prev.Open, prev.Close) &&
			math.Min(cur.Open, cur.Close) <= math.Min(prev.Open, prev.Close)
		if !covers {
			continue
		}

		m := Match{Index: i, Time: cur.Timestamp}
		switch {
		case cs.bullish && ps.bearish:
			m.Name, m.Direction = "bullish_engulfing", Bullish
		case cs.bearish && ps.bullish:
			m.Name, m.Direction = "bearish_engulfing", Bearish
		default:
			continue
		}
		m.Strength = engulfStrength(cur, prev, cs.body, ps.body)
		out = append(out, m)
	}
	return out
}

func engulfStrength(cur, prev candle.Candle, curBody, prevBody float64) float64 {
	if prevBody == 0 {
		return StrengthWeak
	}
	r := curBody / prevBody
	s := math.Min(r/2, 1)
	if cur.Volume > prev.Volume*1.5 {
		s = boost(s, 1.2)
	}
	if r > 3 {
		s = boost(s, 1.3)
	}
	return math.Max(s, StrengthWeak)
}

// Star is the three-bar reversal: a long body, a small body gapping away from
// it, then a candle of the opposite colour closing past the first body's
// midpoint. The gap is measured between bodies since daily equity bars rarely
// gap shadow to shadow.
type Star struct{}

func (Star) Name() string { return "star" }

func (Star) Detect(candles []candle.Candle) []Match {
	var out []Match
	for i := 2; i < len(candles); i++ {
		a, b, c := candles[i-2], candles[i-1], candles[i]
		if !valid(a, b, c) {
			continue
		}
		as, bs, cs := shapeOf(a), shapeOf(b), shapeOf(c)
		if bs.ratio(bs.body) > 0.3 {
			continue
		}
		mid := (a.Open + a.Close) / 2
		bTop, bBottom := math.Max(b.Open, b.Close), math.Min(b.Open, b.Close)

		m := Match{Index: i, Time: c.Timestamp, Strength: StrengthWeak}
		switch {
		case as.bearish && bTop < math.Min(a.Open, a.Close) && cs.bullish && c.Close > mid:
			m.Name, m.Direction = "morning_star", Bullish
		case as.bullish && bBottom > math.Max(a.Open, a.Close) && cs.bearish && c.Close < mid:
			m.Name, m.Direction = "evening_star", Bearish
		default:
			continue
		}
		if as.ratio(as.body) > 0.7 {
			m.Strength = boost(m.Strength, 1.2)
		}
		if bs.rng > 0 && bs.ratio(bs.body) < dojiBody {
			m.Strength = boost(m.Strength, 1.3)
		}
		if c.Volume > b.Volume {
			m.Strength = boost(m.Strength, 1.1)
		}
		out = append(out, m)
	}
	return out
}
