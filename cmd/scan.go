package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/amirphl/swing-scanner/internal/app"
	"github.com/amirphl/swing-scanner/internal/config"
	"github.com/amirphl/swing-scanner/internal/scanner"
)

type scanOptions struct {
	symbols    []string
	lists      []string
	provider   string
	topN       int
	noStage2   bool
	noExport   bool
	notify     bool
	jsonOutput bool
}

func newScanCmd(root *rootOptions) *cobra.Command {
	opts := &scanOptions{}
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run one scan and print the results",
		Example: `  scanner scan
  scanner scan --symbols AAPL,MSFT,NVDA --top-n 5
  scanner scan --lists US_BLUE_CHIP --provider yahoo --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(root, opts.apply)
			if err != nil {
				return err
			}
			a, err := app.New(cmd.Context(), cfg, app.Deps{})
			if err != nil {
				return err
			}
			defer a.Close(context.Background())
			a.ServeMetrics()

			symbols, err := cfg.Symbols()
			if err != nil {
				return err
			}
			rep, err := a.RunScan(cmd.Context(), symbols)
			if err != nil {
				return err
			}
			if opts.jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(rep.Result)
			}
			printResult(cmd.OutOrStdout(), rep.Result)
			for _, f := range rep.Files {
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", f)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringSliceVar(&opts.symbols, "symbols", nil, "scan these symbols instead of the configured universe")
	f.StringSliceVar(&opts.lists, "lists", nil, "predefined universe lists to scan")
	f.StringVar(&opts.provider, "provider", "", "override data.provider (alpaca, yahoo, store)")
	f.IntVar(&opts.topN, "top-n", 0, "override strategy.top_n")
	f.BoolVar(&opts.noStage2, "no-stage2", false, "skip the actionable filter")
	f.BoolVar(&opts.noExport, "no-export", false, "do not write CSV/JSON files")
	f.BoolVar(&opts.notify, "notify", false, "send the Telegram report even if notifications are disabled in config")
	f.BoolVar(&opts.jsonOutput, "json", false, "print the full result as JSON")
	return cmd
}

func (o *scanOptions) apply(cfg *config.Config) {
	if len(o.symbols) > 0 || len(o.lists) > 0 {
		cfg.Universe.Lists = o.lists
		cfg.Universe.CustomSymbols = o.symbols
	}
	if o.provider != "" {
		cfg.Data.Provider = o.provider
		if cfg.Data.FallbackProvider == o.provider {
			cfg.Data.FallbackProvider = ""
		}
	}
	if o.topN > 0 {
		cfg.Strategy.TopN = o.topN
	}
	if o.noStage2 {
		cfg.Actionable.Enabled = false
	}
	if o.noExport {
		cfg.Export.CSV, cfg.Export.JSON = false, false
	}
	if o.notify {
		cfg.Notifications.Telegram.Enabled = true
	}
}

func printResult(w io.Writer, res *scanner.Result) {
	fmt.Fprintf(w, "Scan %s  %s  provider=%s\n", res.ScanID, res.Timestamp.Format("2006-01-02 15:04 MST"), res.Provider)
	fmt.Fprintf(w, "Scanned %d, passed %d, unavailable %d\n", res.ScannedCount, res.PassedCount, len(res.Unavailable))
	if r := res.Readiness; r != nil {
		fmt.Fprintf(w, "Readiness: %s  %s\n", r.Status, r.Message)
		if r.Guidance != "" {
			fmt.Fprintln(w, r.Guidance)
		}
	}
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tSYMBOL\tPRICE\tSCORE\tRSI\tSLOPE\tVOL\tMACD\tSTOP\tTARGET\tR/R")
	for i, s := range res.Signals {
		fmt.Fprintf(tw, "%d\t%s\t%.2f\t%.1f\t%.1f\t%s\t%.2fx\t%s\t%.2f\t%.2f\t%.2f\n",
			i+1, s.Symbol, s.EntryPrice, s.Score, s.Indicators.RSI, s.Indicators.RSISlope,
			s.Indicators.VolumeRatio, s.MACDTrend(), s.Stop, s.Target, s.RiskReward)
	}
	tw.Flush()

	if !res.Stage2Applied {
		return
	}
	fmt.Fprintf(w, "\nActionable (%d)\n", len(res.Actionable))
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SYMBOL\tSIZE\tRISK $\tREWARD $\tNOTES")
	for _, a := range res.Actionable {
		r := a.Record()
		fmt.Fprintf(tw, "%s\t%d\t%.2f\t%.2f\t%s\n", r.Symbol, r.PositionSize, r.RiskDollars, r.RewardDollars, strings.Join(r.Notes, ", "))
	}
	tw.Flush()

	if len(res.Rejected) > 0 {
		fmt.Fprintf(w, "\nRejected (%d)\n", len(res.Rejected))
		for _, r := range res.Rejected {
			fmt.Fprintf(w, "  %s: %s\n", r.Symbol, strings.Join(r.Reasons, "; "))
		}
	}
}
