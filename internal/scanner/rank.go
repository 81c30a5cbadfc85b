package scanner

import (
	"sort"

	"github.com/amirphl/swing-scanner/internal/strategy/signal"
)

// Rank orders signals by score descending, ties by symbol ascending, and
// keeps the first topN. The input slice is not modified.
func Rank(signals []signal.Signal, topN int) []signal.Signal {
	ranked := make([]signal.Signal, len(signals))
	copy(ranked, signals)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Symbol < ranked[j].Symbol
	})
	if topN > 0 && len(ranked) > topN {
		ranked = ranked[:topN]
	}
	return ranked
}

// Summary describes a list of signals. All fields are zero for an empty list.
type Summary struct {
	Count    int     `json:"count"`
	AvgScore float64 `json:"avg_score"`
	MaxScore float64 `json:"max_score"`
	MinScore float64 `json:"min_score"`
	AvgRR    float64 `json:"avg_rr"`
}

func Summarize(signals []signal.Signal) Summary {
	if len(signals) == 0 {
		return Summary{}
	}
	s := Summary{
		Count:    len(signals),
		MaxScore: signals[0].Score,
		MinScore: signals[0].Score,
	}
	var scoreSum, rrSum float64
	for _, sig := range signals {
		scoreSum += sig.Score
		rrSum += sig.RiskReward
		s.MaxScore = max(s.MaxScore, sig.Score)
		s.MinScore = min(s.MinScore, sig.Score)
	}
	s.AvgScore = scoreSum / float64(len(signals))
	s.AvgRR = rrSum / float64(len(signals))
	return s
}
