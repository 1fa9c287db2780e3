package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/willibrandon/dsqlcheck/internal/config"
	"github.com/willibrandon/dsqlcheck/internal/report"
)

// newConfigCmd creates the config command group.
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage dsqlcheck settings",
		Long: `Manage the optional dsqlcheck settings file
(~/.config/dsqlcheck/config.yaml).

The settings file covers ambient preferences only: log file location,
color, and check history. The four required connection variables
(HOSTNAME, PGHOSTADDR, PGPASSWORD, PGSSLMODE) always come from the
environment and can never be set from the file.`,
	}

	cmd.AddCommand(newConfigInitCmd())
	return cmd
}

// newConfigInitCmd creates the config init subcommand.
func newConfigInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a starter settings file",
		Long:  `Write a settings file with default values. Refuses to overwrite an existing file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.WriteDefaultSettings()
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(report.ExitFailure)
			}

			fmt.Printf("Wrote default settings to %s\n", path)
			fmt.Println("\nEdit the file to adjust logging, color, and history preferences.")
			return nil
		},
	}
}
