package main

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/amirphl/swing-scanner/internal/app"
	"github.com/amirphl/swing-scanner/internal/config"
	"github.com/amirphl/swing-scanner/internal/db"
	"github.com/amirphl/swing-scanner/internal/ingest"
)

func newCacheCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Maintain the Postgres bar cache",
	}

	withService := func(cmd *cobra.Command, fn func(*ingest.Service, []string) error) error {
		cfg, err := loadConfig(root, func(cfg *config.Config) { cfg.Data.Cache = false })
		if err != nil {
			return err
		}
		if cfg.DB.ConnStr == "" {
			return db.ErrNoConnString
		}
		a, err := app.New(cmd.Context(), cfg, app.Deps{})
		if err != nil {
			return err
		}
		defer a.Close(context.Background())

		svc, err := ingest.NewService(cfg, a.Provider(), a.Storage())
		if err != nil {
			return err
		}
		symbols, err := cfg.Symbols()
		if err != nil {
			return err
		}
		return fn(svc, symbols)
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "sync",
		Short: "Fetch the latest bars of the universe into the cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, func(svc *ingest.Service, symbols []string) error {
				stats, err := svc.Sync(cmd.Context(), symbols)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "saved %d bars for %d symbols\n", stats.Saved, stats.Symbols)
				names := make([]string, 0, len(stats.Latest))
				for sym := range stats.Latest {
					names = append(names, sym)
				}
				sort.Strings(names)
				for _, sym := range names {
					fmt.Fprintf(out, "  %-8s latest %s\n", sym, stats.Latest[sym].Format("2006-01-02"))
				}
				if len(stats.Failed) > 0 {
					fmt.Fprintf(os.Stderr, "no bars for %d symbols: %v\n", len(stats.Failed), stats.Failed)
				}
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "prune",
		Short: "Delete cached bars older than data.retention_days",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, func(svc *ingest.Service, symbols []string) error {
				return svc.Prune(cmd.Context(), symbols)
			})
		},
	})
	return cmd
}
