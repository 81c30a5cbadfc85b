package notifier

import (
	"fmt"
	"strings"

	"github.com/amirphl/swing-scanner/internal/readiness"
	"github.com/amirphl/swing-scanner/internal/scanner"
	"github.com/amirphl/swing-scanner/internal/strategy/signal"
)

var markdownV2 = strings.NewReplacer(
	`\`, `\\`, "_", `\_`, "*", `\*`, "[", `\[`, "]", `\]`, "(", `\(`, ")", `\)`,
	"~", `\~`, "`", "\\`", ">", `\>`, "#", `\#`, "+", `\+`, "-", `\-`,
	"=", `\=`, "|", `\|`, "{", `\{`, "}", `\}`, ".", `\.`, "!", `\!`,
)

// Escape makes text safe for Telegram MarkdownV2.
func Escape(text string) string {
	return markdownV2.Replace(text)
}

// FormatScan renders a scan as a MarkdownV2 report. Actionable lines follow
// the record field order; without Stage 2 the ranked signals are listed.
func FormatScan(res *scanner.Result) string {
	var b strings.Builder

	b.WriteString("*Momentum Scanner Results*\n")
	fmt.Fprintf(&b, "%s\n", Escape(res.Timestamp.UTC().Format("2006-01-02 15:04 MST")))
	fmt.Fprintf(&b, "Scanned: %d \\| Signals: %d \\| Unavailable: %d\n",
		res.ScannedCount, len(res.Signals), len(res.Unavailable))
	if r := res.Readiness; r != nil && r.Status != readiness.StatusReady {
		fmt.Fprintf(&b, "_%s_\n", Escape(r.Message))
	}
	if r := res.Readiness; r != nil && r.Guidance != "" {
		fmt.Fprintf(&b, "%s\n", Escape(r.Guidance))
	}
	b.WriteString("\n")

	if !res.Stage2Applied {
		if len(res.Signals) == 0 {
			b.WriteString("No signals found\\.\n")
			return b.String()
		}
		for i, s := range res.Signals {
			fmt.Fprintf(&b, "%d\\. %s\n", i+1, formatSignal(s))
		}
		return b.String()
	}

	fmt.Fprintf(&b, "*Actionable: %d* \\| Rejected: %d\n\n", len(res.Actionable), len(res.Rejected))
	if len(res.Actionable) == 0 {
		b.WriteString("No actionable signals\\.\n")
	}
	for i, a := range res.Actionable {
		fmt.Fprintf(&b, "%d\\. %s\n", i+1, formatActionable(a.Record()))
	}
	if len(res.Rejected) > 0 {
		b.WriteString("\n*Rejected*\n")
		for _, r := range res.Rejected {
			fmt.Fprintf(&b, "%s: %s\n", Escape(r.Symbol), Escape(strings.Join(r.Reasons, "; ")))
		}
	}
	return b.String()
}

func formatSignal(s signal.Signal) string {
	line := fmt.Sprintf("*%s* @ %s \\| Score %s \\| RSI %s \\| R/R %s",
		Escape(s.Symbol),
		Escape(fmt.Sprintf("%.2f", s.EntryPrice)),
		Escape(fmt.Sprintf("%.1f", s.Score)),
		Escape(fmt.Sprintf("%.1f", s.Indicators.RSI)),
		Escape(fmt.Sprintf("%.2f", s.RiskReward)),
	)
	if len(s.Patterns) > 0 {
		line += " \\| " + Escape(strings.Join(s.Patterns, ", "))
	}
	return line
}

func formatActionable(r signal.ActionableRecord) string {
	line := fmt.Sprintf("%s @ %.2f | score %.1f | RSI %.1f %s | vol %.2fx | MACD %s\n"+
		"   stop %.2f | target %.2f | R/R %.2f\n"+
		"   size %d | risk $%.2f | reward $%.2f",
		r.Symbol, r.Price, r.Score, r.RSI, r.RSISlope, r.VolumeRatio, r.MACDTrend,
		r.Stop, r.Target, r.RiskReward,
		r.PositionSize, r.RiskDollars, r.RewardDollars)
	if len(r.Notes) > 0 {
		line += "\n   " + strings.Join(r.Notes, ", ")
	}
	return Escape(line)
}
