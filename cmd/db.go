package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/amirphl/swing-scanner/internal/db"
)

func newDBCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Database administration",
	}

	var schemaPath string
	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Create the database if needed and apply the schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(root, nil)
			if err != nil {
				return err
			}
			if cfg.DB.ConnStr == "" {
				return db.ErrNoConnString
			}
			schema, err := os.ReadFile(schemaPath)
			if err != nil {
				return fmt.Errorf("failed to read schema: %w", err)
			}
			return db.Migrate(cmd.Context(), cfg.DB.ConnStr, string(schema))
		},
	}
	migrate.Flags().StringVar(&schemaPath, "schema", "scripts/schema.sql", "path to the schema file")
	cmd.AddCommand(migrate)
	return cmd
}
