// Package config loads and validates the connection parameters for a
// connectivity check from the process environment, plus ambient tool
// settings from an optional config file.
package config

import (
	"regexp"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Fixed connection parameters. DSQL clusters always listen on 5432 and
// expose a single "postgres" database with an "admin" role; the values
// are not configurable.
const (
	DefaultPort           = 5432
	DefaultDatabase       = "postgres"
	DefaultUser           = "admin"
	DefaultConnectTimeout = 30 * time.Second
)

// MaxHostnameLength is the RFC 1035 limit on a domain name.
const MaxHostnameLength = 253

// RequiredVars lists the environment variables a check cannot run without.
var RequiredVars = []string{"HOSTNAME", "PGHOSTADDR", "PGPASSWORD", "PGSSLMODE"}

// ValidSSLModes is the accepted PGSSLMODE set.
var ValidSSLModes = []string{"require", "prefer", "allow", "disable"}

// hostnameRe restricts HOSTNAME to DNS-safe characters so the value is
// safe to embed in connection strings and log lines.
var hostnameRe = regexp.MustCompile(`^[a-zA-Z0-9.-]+$`)

// ConnectionConfig holds the validated parameters for a single
// connectivity check. Hostname is the TLS identity (SNI / certificate
// name); TunnelAddr is the address actually dialed. The two are
// deliberately separate so certificate validation matches the real
// cluster while the socket connects to the local tunnel endpoint.
type ConnectionConfig struct {
	Hostname       string
	TunnelAddr     string
	Port           int
	Database       string
	User           string
	Password       string
	SSLMode        string
	ConnectTimeout time.Duration
}

// LoadConnection reads the four required environment variables and
// returns a validated ConnectionConfig with the fixed port, database,
// user, and timeout applied. It performs no network activity.
func LoadConnection() (*ConnectionConfig, error) {
	v := viper.New()
	for _, name := range RequiredVars {
		// Exact names, no prefix: these are the PostgreSQL-standard
		// variables (plus HOSTNAME) that the tunnel setup exports.
		_ = v.BindEnv(strings.ToLower(name), name)
	}

	var missing []string
	for _, name := range RequiredVars {
		if v.GetString(strings.ToLower(name)) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingConfigError{Vars: missing}
	}

	hostname := v.GetString("hostname")
	if err := ValidateHostname(hostname); err != nil {
		return nil, err
	}

	sslMode := v.GetString("pgsslmode")
	if err := ValidateSSLMode(sslMode); err != nil {
		return nil, err
	}

	return &ConnectionConfig{
		Hostname:       hostname,
		TunnelAddr:     v.GetString("pghostaddr"),
		Port:           DefaultPort,
		Database:       DefaultDatabase,
		User:           DefaultUser,
		Password:       v.GetString("pgpassword"),
		SSLMode:        sslMode,
		ConnectTimeout: DefaultConnectTimeout,
	}, nil
}

// ValidateHostname checks the hostname against the DNS character class
// and length limit.
func ValidateHostname(hostname string) error {
	if !hostnameRe.MatchString(hostname) {
		return &InvalidHostnameError{Value: hostname, Reason: "only letters, digits, '.' and '-' are allowed"}
	}
	if len(hostname) > MaxHostnameLength {
		return &InvalidHostnameError{Value: hostname, Reason: "exceeds 253 characters"}
	}
	return nil
}

// ValidateSSLMode checks the SSL mode against the accepted set.
func ValidateSSLMode(mode string) error {
	for _, m := range ValidSSLModes {
		if mode == m {
			return nil
		}
	}
	return &InvalidSSLModeError{Value: mode}
}
