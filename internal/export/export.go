// Package export writes scan results to disk as CSV and JSON.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/amirphl/swing-scanner/internal/config"
	"github.com/amirphl/swing-scanner/internal/scanner"
	"github.com/amirphl/swing-scanner/internal/strategy"
	"github.com/amirphl/swing-scanner/internal/strategy/signal"
	"github.com/amirphl/swing-scanner/internal/utils"
)

// Multi-valued cells are joined with this separator.
const listSeparator = "; "

type Exporter struct {
	dir  string
	csv  bool
	json bool
	log  zerolog.Logger
}

func New(cfg config.ExportConfig) *Exporter {
	return &Exporter{
		dir:  cfg.Dir,
		csv:  cfg.CSV,
		json: cfg.JSON,
		log:  utils.Component("Export"),
	}
}

// Write stores res under the export directory and returns the written paths.
// File names carry the scan timestamp so consecutive runs do not collide.
func (e *Exporter) Write(res *scanner.Result) ([]string, error) {
	if !e.csv && !e.json {
		return nil, nil
	}
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create export dir: %w", err)
	}

	stamp := res.Timestamp.UTC().Format("20060102_150405")
	var paths []string
	write := func(name string, fn func(io.Writer) error) error {
		path := filepath.Join(e.dir, name)
		if err := writeFile(path, fn); err != nil {
			return err
		}
		paths = append(paths, path)
		return nil
	}

	if e.csv {
		if err := write("signals_"+stamp+".csv", func(w io.Writer) error { return WriteSignalsCSV(w, res.Signals) }); err != nil {
			return paths, err
		}
		if res.Stage2Applied {
			if err := write("actionable_"+stamp+".csv", func(w io.Writer) error { return WriteActionableCSV(w, res.Actionable) }); err != nil {
				return paths, err
			}
			if err := write("rejected_"+stamp+".csv", func(w io.Writer) error { return WriteRejectedCSV(w, res.Rejected) }); err != nil {
				return paths, err
			}
		}
	}
	if e.json {
		if err := write("scan_"+stamp+".json", func(w io.Writer) error { return WriteJSON(w, res) }); err != nil {
			return paths, err
		}
		if res.Stage2Applied {
			if err := write("actionable_"+stamp+".json", func(w io.Writer) error { return WriteJSON(w, ActionableRecords(res.Actionable)) }); err != nil {
				return paths, err
			}
			if err := write("rejected_"+stamp+".json", func(w io.Writer) error { return WriteJSON(w, RejectedRecords(res.Rejected)) }); err != nil {
				return paths, err
			}
		}
	}

	e.log.Info().Strs("files", paths).Msg("Exported scan results")
	return paths, nil
}

func writeFile(path string, fn func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := fn(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}

func ActionableRecords(list []signal.ActionableSignal) []signal.ActionableRecord {
	out := make([]signal.ActionableRecord, len(list))
	for i, a := range list {
		out[i] = a.Record()
	}
	return out
}

func RejectedRecords(list []signal.RejectedSignal) []signal.RejectedRecord {
	out := make([]signal.RejectedRecord, len(list))
	for i, r := range list {
		out[i] = r.Record()
	}
	return out
}

// SignalsHeader is the column order of WriteSignalsCSV.
var SignalsHeader = []string{
	"symbol", "time", "price", "score", "rsi", "rsi_slope", "volume_ratio", "macd_trend",
	"atr", "adx", "stop", "target", "risk_reward", "distance_to_pivot_pct", "patterns",
}

// WriteSignalsCSV writes the ranked Stage-1 signals.
func WriteSignalsCSV(w io.Writer, list []signal.Signal) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(SignalsHeader); err != nil {
		return err
	}
	for _, s := range list {
		ind := s.Indicators
		row := []string{
			s.Symbol,
			s.Time.UTC().Format("2006-01-02"),
			num(s.EntryPrice, 2),
			num(s.Score, 1),
			num(ind.RSI, 1),
			string(ind.RSISlope),
			num(ind.VolumeRatio, 2),
			s.MACDTrend(),
			num(ind.ATR, 2),
			num(ind.ADX, 1),
			num(s.Stop, 2),
			num(s.Target, 2),
			num(s.RiskReward, 2),
			num(strategy.DistanceToPivotPct(ind), 2),
			strings.Join(s.Patterns, listSeparator),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func WriteActionableCSV(w io.Writer, list []signal.ActionableSignal) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(signal.ActionableHeader); err != nil {
		return err
	}
	for _, r := range ActionableRecords(list) {
		row := []string{
			r.Symbol,
			num(r.Price, 2),
			num(r.Score, 1),
			num(r.RSI, 1),
			r.RSISlope,
			num(r.VolumeRatio, 2),
			r.MACDTrend,
			num(r.Stop, 2),
			num(r.Target, 2),
			num(r.RiskReward, 2),
			strconv.Itoa(r.PositionSize),
			num(r.RiskDollars, 2),
			num(r.RewardDollars, 2),
			strings.Join(r.Notes, listSeparator),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func WriteRejectedCSV(w io.Writer, list []signal.RejectedSignal) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(signal.RejectedHeader); err != nil {
		return err
	}
	for _, r := range RejectedRecords(list) {
		if err := cw.Write([]string{r.Symbol, strings.Join(r.Reasons, listSeparator)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func num(v float64, places int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return strconv.FormatFloat(signal.Round(v, int32(places)), 'f', places, 64)
}
