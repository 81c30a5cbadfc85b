package signal

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/amirphl/swing-scanner/internal/indicator"
)

// Breakdown holds the normalised [0,100] score components before weighting.
type Breakdown struct {
	EMA      float64 `json:"ema"`
	RSI      float64 `json:"rsi"`
	MACD     float64 `json:"macd"`
	Volume   float64 `json:"volume"`
	Breakout float64 `json:"breakout"`
}

// Signal is a Stage-1 long candidate. Stop < EntryPrice < Target.
type Signal struct {
	Symbol      string        `json:"symbol"`
	Time        time.Time     `json:"time"`
	EntryPrice  float64       `json:"entry_price"`
	Score       float64       `json:"score"`
	Breakdown   Breakdown     `json:"breakdown"`
	Indicators  indicator.Set `json:"indicators"`
	Stop        float64       `json:"stop"`
	Target      float64       `json:"target"`
	RiskReward  float64       `json:"risk_reward"`
	StopBasis   string        `json:"stop_basis"`
	TargetBasis string        `json:"target_basis"`
	Patterns    []string      `json:"patterns,omitempty"`
}

// MACDTrend renders the histogram trend for display.
func (s Signal) MACDTrend() string {
	bars := s.Indicators.MACDHistTrendBars
	switch {
	case bars == 1:
		return "rising 1 bar"
	case bars > 1:
		return fmt.Sprintf("rising %d bars", bars)
	case s.Indicators.MACDBullish():
		return "bullish"
	default:
		return "flat"
	}
}

// ActionableSignal is a Signal that passed every Stage-2 rule.
type ActionableSignal struct {
	Signal
	PositionSize  int      `json:"position_size"`
	RiskDollars   float64  `json:"risk_dollars"`
	RewardDollars float64  `json:"reward_dollars"`
	Notes         []string `json:"notes"`
}

// RejectedSignal carries every Stage-2 rule the Signal violated, in rule order.
type RejectedSignal struct {
	Signal
	Reasons []string `json:"reasons"`
}

// ActionableRecord is the flat, rounded form handed to exporters and
// notifiers. Field order is the output column order.
type ActionableRecord struct {
	Symbol        string   `json:"symbol"`
	Price         float64  `json:"price"`
	Score         float64  `json:"score"`
	RSI           float64  `json:"rsi"`
	RSISlope      string   `json:"rsi_slope"`
	VolumeRatio   float64  `json:"volume_ratio"`
	MACDTrend     string   `json:"macd_trend"`
	Stop          float64  `json:"stop"`
	Target        float64  `json:"target"`
	RiskReward    float64  `json:"risk_reward"`
	PositionSize  int      `json:"position_size"`
	RiskDollars   float64  `json:"risk_dollars"`
	RewardDollars float64  `json:"reward_dollars"`
	Notes         []string `json:"notes"`
}

// ActionableHeader lists the ActionableRecord columns.
var ActionableHeader = []string{
	"symbol", "price", "score", "rsi", "rsi_slope", "volume_ratio", "macd_trend",
	"stop", "target", "risk_reward", "position_size", "risk_dollars", "reward_dollars", "notes",
}

type RejectedRecord struct {
	Symbol  string   `json:"symbol"`
	Reasons []string `json:"reasons"`
}

var RejectedHeader = []string{"symbol", "reasons"}

func (a ActionableSignal) Record() ActionableRecord {
	notes := a.Notes
	if notes == nil {
		notes = []string{}
	}
	return ActionableRecord{
		Symbol:        a.Symbol,
		Price:         Round(a.EntryPrice, 2),
		Score:         Round(a.Score, 1),
		RSI:           Round(a.Indicators.RSI, 1),
		RSISlope:      string(a.Indicators.RSISlope),
		VolumeRatio:   Round(a.Indicators.VolumeRatio, 2),
		MACDTrend:     a.MACDTrend(),
		Stop:          Round(a.Stop, 2),
		Target:        Round(a.Target, 2),
		RiskReward:    Round(a.RiskReward, 2),
		PositionSize:  a.PositionSize,
		RiskDollars:   Round(a.RiskDollars, 2),
		RewardDollars: Round(a.RewardDollars, 2),
		Notes:         notes,
	}
}

func (r RejectedSignal) Record() RejectedRecord {
	return RejectedRecord{Symbol: r.Symbol, Reasons: r.Reasons}
}

// Round rounds half away from zero in decimal space, so 1.005 becomes 1.01.
func Round(v float64, places int32) float64 {
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return f
}
