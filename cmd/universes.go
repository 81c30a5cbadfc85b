package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/amirphl/swing-scanner/internal/config"
)

func newUniversesCmd() *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "universes",
		Short: "List the predefined symbol universes",
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range config.ListNames() {
				symbols := config.Lists[name]
				fmt.Fprintf(cmd.OutOrStdout(), "%-20s %3d symbols\n", name, len(symbols))
				if verbose {
					fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", strings.Join(symbols, " "))
				}
			}
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print the symbols of each list")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "scanner", version)
		},
	}
}
