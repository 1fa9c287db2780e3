package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/willibrandon/dsqlcheck/internal/config"
	"github.com/willibrandon/dsqlcheck/internal/db"
	"github.com/willibrandon/dsqlcheck/internal/logger"
	"github.com/willibrandon/dsqlcheck/internal/report"
	"github.com/willibrandon/dsqlcheck/internal/storage/sqlite"
)

var (
	// Version info (set by ldflags)
	version = "dev"

	// Flags
	debug      bool
	jsonOutput bool
	logFile    string
	noColor    bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "dsqlcheck",
		Short: "Validate connectivity to an Aurora DSQL cluster through a tunnel",
		Long: `dsqlcheck validates connectivity to an Aurora DSQL cluster through a
pre-established SSH or SSM tunnel. It opens one connection, runs one
introspection query, prints the result, and exits.

Required environment variables:
  HOSTNAME     DSQL cluster private DNS endpoint (TLS identity)
  PGHOSTADDR   Tunnel localhost address (typically 127.0.0.1)
  PGPASSWORD   Generated auth token
  PGSSLMODE    SSL mode: require, prefer, allow, or disable

Fixed parameters: port 5432, database "postgres", user "admin",
connect timeout 30 seconds. The tunnel itself must already be active;
dsqlcheck never establishes or manages it.`,
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := runCheck(); err != nil {
				os.Exit(report.ExitFailure)
			}
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "log file path (default ~/.config/dsqlcheck/dsqlcheck.log)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.Flags().BoolVar(&jsonOutput, "json", false, "print the success block as JSON")

	// Add subcommands
	rootCmd.AddCommand(
		newCheckCmd(),
		newHistoryCmd(),
		newConfigCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		// Error already printed by cobra
		os.Exit(report.ExitFailure)
	}
}

// newCheckCmd creates the check subcommand, an explicit alias for the
// bare root command.
func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run the connectivity check",
		Long:  `Run the connectivity check. Identical to running dsqlcheck with no subcommand.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := runCheck(); err != nil {
				os.Exit(report.ExitFailure)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "print the success block as JSON")
	return cmd
}

// runCheck performs one full check: load config, connect, query, report.
// On failure it prints the categorized message and returns the error;
// the caller maps any error to exit code 1. The connection close is
// deferred so it runs on every exit path, including query errors.
func runCheck() error {
	settings := loadSettings()
	if noColor || settings.NoColor {
		color.NoColor = true
	}

	logLevel := logger.LevelInfo
	if debug || settings.Debug {
		logLevel = logger.LevelDebug
	}
	logPath := logFile
	if logPath == "" {
		logPath = settings.LogFile
	}
	logger.InitLogger(logLevel, logPath)
	defer logger.Close()
	logger.Debug("dsqlcheck starting", "version", version)

	printer := report.NewPrinter(os.Stdout, os.Stderr, jsonOutput)
	printer.Progress("AWS DSQL Connectivity Check")
	printer.Progress("==================================================")

	start := time.Now()

	printer.Progress("Reading environment variables...")
	cfg, err := config.LoadConnection()
	if err != nil {
		return reportFailure(printer, settings, "", "", start, err)
	}

	printer.Progress("Connecting to DSQL cluster: %s", cfg.Hostname)
	printer.Progress("Via tunnel: %s:%d", cfg.TunnelAddr, cfg.Port)
	printer.Progress("")
	printer.Progress("Establishing connection...")

	ctx := context.Background()
	conn, err := db.Connect(ctx, cfg)
	if err != nil {
		return reportFailure(printer, settings, cfg.Hostname, cfg.TunnelAddr, start, err)
	}
	defer conn.Close(ctx)

	printer.Progress("Connection established successfully!")
	printer.Progress("Executing connection info query...")

	info, err := db.GetConnInfo(ctx, conn)
	if err != nil {
		return reportFailure(printer, settings, cfg.Hostname, cfg.TunnelAddr, start, err)
	}

	if err := printer.Success(info, cfg); err != nil {
		return reportFailure(printer, settings, cfg.Hostname, cfg.TunnelAddr, start, err)
	}

	logger.Info("Check succeeded",
		"hostname", cfg.Hostname,
		"hostaddr", cfg.TunnelAddr,
		"server_version", info.ServerVersion,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	recordOutcome(settings, cfg.Hostname, cfg.TunnelAddr, sqlite.OutcomeOK, info.ServerVersion, start)
	return nil
}

// loadSettings loads the ambient settings, falling back to defaults if
// the settings file is unreadable so a broken file never masks the
// check itself.
func loadSettings() *config.Settings {
	settings, err := config.LoadSettings()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
		return config.DefaultSettings()
	}
	return settings
}

// reportFailure prints the categorized error, logs it, and records the
// outcome. It returns the original error for the exit-code mapping.
func reportFailure(printer *report.Printer, settings *config.Settings, hostname, tunnelAddr string, start time.Time, err error) error {
	category := printer.Failure(err)
	logger.Error("Check failed",
		"category", string(category),
		"error", err,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	recordOutcome(settings, hostname, tunnelAddr, string(category), "", start)
	return err
}

// recordOutcome appends the outcome to the history database. Recording
// is best-effort: storage errors are logged and never alter the check's
// result or exit code.
func recordOutcome(settings *config.Settings, hostname, tunnelAddr, outcome, serverVersion string, start time.Time) {
	if settings == nil || !settings.History.Enabled || settings.History.Path == "" {
		return
	}

	store, err := sqlite.Open(settings.History.Path)
	if err != nil {
		logger.Warn("Failed to open history database", "path", settings.History.Path, "error", err)
		return
	}
	defer store.Close()

	entry := sqlite.CheckEntry{
		Hostname:      hostname,
		TunnelAddr:    tunnelAddr,
		Outcome:       outcome,
		ServerVersion: serverVersion,
		DurationMs:    time.Since(start).Milliseconds(),
	}
	if err := sqlite.NewHistoryStore(store).Add(entry); err != nil {
		logger.Warn("Failed to record check outcome", "error", err)
	}
}
