package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/willibrandon/dsqlcheck/internal/config"
	"github.com/willibrandon/dsqlcheck/internal/report"
	"github.com/willibrandon/dsqlcheck/internal/storage/sqlite"
)

var (
	okFormat   = color.New(color.FgGreen).SprintFunc()
	failFormat = color.New(color.FgHiRed).SprintFunc()
)

// newHistoryCmd creates the history subcommand.
func newHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent check outcomes",
		Long: `List recent connectivity check outcomes, newest first.

Each completed check is recorded in ~/.config/dsqlcheck/history.db
unless disabled in the settings file (history.enabled: false).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings := loadSettings()
			if noColor || settings.NoColor {
				color.NoColor = true
			}

			if !settings.History.Enabled || settings.History.Path == "" {
				fmt.Fprintln(os.Stderr, "Error: check history is disabled")
				fmt.Fprintln(os.Stderr, "Enable it with 'history.enabled: true' in the settings file")
				os.Exit(report.ExitFailure)
			}

			store, err := sqlite.Open(settings.History.Path)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: failed to open history database: %v\n", err)
				os.Exit(report.ExitFailure)
			}
			defer store.Close()

			entries, err := sqlite.NewHistoryStore(store).Recent(limit)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: failed to read history: %v\n", err)
				os.Exit(report.ExitFailure)
			}

			if len(entries) == 0 {
				fmt.Println("No checks recorded yet.")
				return nil
			}

			for _, e := range entries {
				printHistoryEntry(e)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of entries to show")
	return cmd
}

// printHistoryEntry prints a single history row.
func printHistoryEntry(e sqlite.CheckEntry) {
	outcome := failFormat(e.Outcome)
	if e.Outcome == sqlite.OutcomeOK {
		outcome = okFormat(e.Outcome)
	}

	target := e.Hostname
	if target == "" {
		// Config failures abort before a target is known.
		target = "(unresolved)"
	} else if e.TunnelAddr != "" {
		target = fmt.Sprintf("%s via %s:%d", e.Hostname, e.TunnelAddr, config.DefaultPort)
	}

	fmt.Printf("%-20s %-45s %s (%dms)\n", humanize.Time(e.CheckedAt), target, outcome, e.DurationMs)
}
