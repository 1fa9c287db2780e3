// Package report classifies check failures and formats the check
// output. Success goes to stdout, failures to stderr; every failure
// category maps to exit code 1.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/willibrandon/dsqlcheck/internal/config"
	"github.com/willibrandon/dsqlcheck/internal/db"
)

// Exit codes.
const (
	ExitSuccess = 0
	ExitFailure = 1
)

// Category identifies a failure class for reporting. Every category is
// terminal: the check is never retried.
type Category string

const (
	CategoryMissingConfig   Category = "MissingConfiguration"
	CategoryInvalidHostname Category = "InvalidHostname"
	CategoryInvalidSSLMode  Category = "InvalidSslMode"
	CategoryConnection      Category = "ConnectionFailure"
	CategoryQuery           Category = "QueryFailure"
	CategoryUnexpected      Category = "UnexpectedFailure"
)

// Label returns the human-readable heading for the category.
func (c Category) Label() string {
	switch c {
	case CategoryMissingConfig:
		return "Configuration Error"
	case CategoryInvalidHostname:
		return "Invalid Hostname"
	case CategoryInvalidSSLMode:
		return "Invalid SSL Mode"
	case CategoryConnection:
		return "Connection Error"
	case CategoryQuery:
		return "Database Error"
	default:
		return "Unexpected Error"
	}
}

// Color formatters. Disabled globally via color.NoColor for --no-color
// and non-TTY output.
var (
	labelFormat    = color.New(color.FgCyan).SprintFunc()
	goodFormat     = color.New(color.FgGreen).SprintFunc()
	criticalFormat = color.New(color.FgHiRed).SprintFunc()
)

// Classify maps an error from any step of the check to its report
// category. Dial, timeout, auth, and TLS failures during connect all
// collapse into CategoryConnection; the distinguishing detail survives
// only in the error message.
func Classify(err error) Category {
	var missingErr *config.MissingConfigError
	if errors.As(err, &missingErr) {
		return CategoryMissingConfig
	}
	var hostErr *config.InvalidHostnameError
	if errors.As(err, &hostErr) {
		return CategoryInvalidHostname
	}
	var sslErr *config.InvalidSSLModeError
	if errors.As(err, &sslErr) {
		return CategoryInvalidSSLMode
	}

	// Connect-phase errors are checked before PgError: an auth
	// rejection arrives as a PgError wrapped in a ConnectError.
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return CategoryConnection
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return CategoryQuery
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return CategoryQuery
	}

	return CategoryUnexpected
}

// successJSON is the machine-readable form of the info block.
type successJSON struct {
	Database      string `json:"database"`
	User          string `json:"user"`
	Host          string `json:"host"`
	TunnelTo      string `json:"tunnel_to"`
	Port          int    `json:"port"`
	SSLStatus     string `json:"ssl_status"`
	ServerVersion string `json:"server_version"`
}

const sslStatusLine = "SSL connection (required by DSQL)"

// Printer formats the check output.
type Printer struct {
	out    io.Writer
	errOut io.Writer
	json   bool
}

// NewPrinter creates a printer writing the report to out and failures
// to errOut. When jsonOut is set, the success block is emitted as JSON
// and progress lines are suppressed; failures stay plain text.
func NewPrinter(out, errOut io.Writer, jsonOut bool) *Printer {
	return &Printer{out: out, errOut: errOut, json: jsonOut}
}

// Progress prints a human-readable progress line during the attempt.
func (p *Printer) Progress(format string, args ...any) {
	if p.json {
		return
	}
	fmt.Fprintf(p.out, format+"\n", args...)
}

// Success prints the connection info block.
func (p *Printer) Success(info db.ConnInfo, cfg *config.ConnectionConfig) error {
	if p.json {
		enc := json.NewEncoder(p.out)
		enc.SetIndent("", "  ")
		return enc.Encode(successJSON{
			Database:      info.Database,
			User:          info.User,
			Host:          cfg.TunnelAddr,
			TunnelTo:      cfg.Hostname,
			Port:          cfg.Port,
			SSLStatus:     sslStatusLine,
			ServerVersion: info.ServerVersion,
		})
	}

	fmt.Fprintln(p.out)
	fmt.Fprintln(p.out, labelFormat("Connection Information:"))
	fmt.Fprintln(p.out, "------------------------------")
	fmt.Fprintf(p.out, "Database: %s\n", info.Database)
	fmt.Fprintf(p.out, "User: %s\n", info.User)
	fmt.Fprintf(p.out, "Host: %s (via tunnel to %s)\n", cfg.TunnelAddr, cfg.Hostname)
	fmt.Fprintf(p.out, "Port: %d\n", cfg.Port)
	fmt.Fprintf(p.out, "SSL Status: %s\n", sslStatusLine)
	fmt.Fprintf(p.out, "Server Version: %s\n", info.ServerVersion)
	fmt.Fprintln(p.out)
	fmt.Fprintln(p.out, goodFormat("Connectivity check completed successfully."))
	return nil
}

// Failure prints the categorized error line and its remediation hints,
// and returns the category so the caller can record it.
func (p *Printer) Failure(err error) Category {
	category := Classify(err)
	fmt.Fprintf(p.errOut, "%s: %v\n", criticalFormat(category.Label()), err)

	switch category {
	case CategoryMissingConfig:
		fmt.Fprintln(p.errOut)
		fmt.Fprintln(p.errOut, "Required environment variables:")
		fmt.Fprintln(p.errOut, "- HOSTNAME: DSQL cluster private DNS endpoint")
		fmt.Fprintln(p.errOut, "- PGHOSTADDR: Tunnel localhost address (127.0.0.1)")
		fmt.Fprintln(p.errOut, "- PGPASSWORD: Generated auth token")
		fmt.Fprintln(p.errOut, "- PGSSLMODE: SSL mode (require)")
	case CategoryConnection:
		fmt.Fprintln(p.errOut)
		fmt.Fprintln(p.errOut, "Troubleshooting tips:")
		fmt.Fprintln(p.errOut, "- Ensure SSH or SSM tunnel is active")
		fmt.Fprintf(p.errOut, "- Verify tunnel is forwarding to 127.0.0.1:%d\n", config.DefaultPort)
		fmt.Fprintln(p.errOut, "- Check that auth token is valid and not expired")
	}

	return category
}
