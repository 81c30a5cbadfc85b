package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/amirphl/swing-scanner/internal/app"
	"github.com/amirphl/swing-scanner/internal/config"
)

func newScheduleCmd(root *rootOptions) *cobra.Command {
	var cronExpr string
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run scans on the configured cron schedule until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(root, func(cfg *config.Config) {
				if cronExpr != "" {
					cfg.Scheduler.Cron = cronExpr
				}
			})
			if err != nil {
				return err
			}
			a, err := app.New(cmd.Context(), cfg, app.Deps{})
			if err != nil {
				return err
			}
			defer a.Close(context.Background())
			a.ServeMetrics()
			return a.Schedule(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&cronExpr, "cron", "", "override scheduler.cron (5-field cron, local to timezone)")
	return cmd
}
