package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/amirphl/swing-scanner/internal/config"
)

func newConfigCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration and report every problem",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(root.configPath)
			if err != nil {
				return err
			}
			symbols, err := cfg.Symbols()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "config OK: %d symbols, provider %s\n", len(symbols), cfg.Data.Provider)
			return nil
		},
	})

	var showSecrets bool
	show := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(root.configPath)
			if err != nil {
				return err
			}
			if !showSecrets {
				redact(cfg)
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(cfg)
		},
	}
	show.Flags().BoolVar(&showSecrets, "show-secrets", false, "print credentials unmasked")
	cmd.AddCommand(show)
	return cmd
}

func redact(cfg *config.Config) {
	mask := func(s *string) {
		if *s != "" {
			*s = "****"
		}
	}
	mask(&cfg.Data.Alpaca.APIKey)
	mask(&cfg.Data.Alpaca.APISecret)
	mask(&cfg.Notifications.Telegram.BotToken)
	mask(&cfg.DB.ConnStr)
}
