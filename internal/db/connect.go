// Package db opens the single diagnostic connection and runs the
// session introspection query.
package db

import (
	"context"
	"fmt"
	"net/url"

	"github.com/jackc/pgx/v5"
	"github.com/willibrandon/dsqlcheck/internal/config"
	"github.com/willibrandon/dsqlcheck/internal/logger"
)

// Connect opens exactly one connection to the tunnel endpoint,
// authenticating with the supplied token and negotiating TLS against
// the cluster's real hostname. The caller owns the connection and must
// close it.
func Connect(ctx context.Context, cfg *config.ConnectionConfig) (*pgx.Conn, error) {
	logger.Debug("Opening database connection",
		"hostname", cfg.Hostname,
		"hostaddr", cfg.TunnelAddr,
		"port", cfg.Port,
		"database", cfg.Database,
		"user", cfg.User,
		"sslmode", cfg.SSLMode,
	)

	connConfig, err := BuildConnConfig(cfg)
	if err != nil {
		logger.Error("Failed to parse connection string", "error", err)
		return nil, err
	}

	conn, err := pgx.ConnectConfig(ctx, connConfig)
	if err != nil {
		logger.Error("Connection failed",
			"hostaddr", cfg.TunnelAddr,
			"port", cfg.Port,
			"error", err,
		)
		return nil, fmt.Errorf("failed to connect to %s:%d: %w", cfg.TunnelAddr, cfg.Port, err)
	}

	logger.Info("Database connection established",
		"hostname", cfg.Hostname,
		"hostaddr", cfg.TunnelAddr,
		"port", cfg.Port,
	)
	return conn, nil
}

// BuildConnConfig turns a validated ConnectionConfig into the pgx
// connection config used to dial.
func BuildConnConfig(cfg *config.ConnectionConfig) (*pgx.ConnConfig, error) {
	// Build connection string against the tunnel address; the token can
	// contain URL metacharacters so it is escaped.
	connString := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User,
		url.QueryEscape(cfg.Password),
		cfg.TunnelAddr,
		cfg.Port,
		cfg.Database,
		cfg.SSLMode,
	)

	connConfig, err := pgx.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	connConfig.ConnectTimeout = cfg.ConnectTimeout
	connConfig.RuntimeParams["application_name"] = "dsqlcheck"

	// The socket dials the tunnel endpoint, but the certificate must
	// match the cluster's own name. Force SNI on the primary config and
	// on every TLS fallback (sslmode=prefer/allow produce fallbacks).
	if connConfig.TLSConfig != nil {
		connConfig.TLSConfig.ServerName = cfg.Hostname
	}
	for _, fb := range connConfig.Fallbacks {
		if fb.TLSConfig != nil {
			fb.TLSConfig.ServerName = cfg.Hostname
		}
	}

	return connConfig, nil
}
