package db_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/willibrandon/dsqlcheck/internal/config"
	"github.com/willibrandon/dsqlcheck/internal/db"
	"github.com/willibrandon/dsqlcheck/internal/report"
)

func testConnConfig(port int, sslMode string) *config.ConnectionConfig {
	return &config.ConnectionConfig{
		Hostname:       "db.internal.example",
		TunnelAddr:     "127.0.0.1",
		Port:           port,
		Database:       config.DefaultDatabase,
		User:           config.DefaultUser,
		Password:       "token123",
		SSLMode:        sslMode,
		ConnectTimeout: 5 * time.Second,
	}
}

// closedPort returns a loopback port with no listener.
func closedPort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())
	return port
}

func TestBuildConnConfig(t *testing.T) {
	cfg := testConnConfig(5432, "require")

	connConfig, err := db.BuildConnConfig(cfg)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", connConfig.Host)
	assert.Equal(t, uint16(5432), connConfig.Port)
	assert.Equal(t, "postgres", connConfig.Database)
	assert.Equal(t, "admin", connConfig.User)
	assert.Equal(t, "token123", connConfig.Password)
	assert.Equal(t, 5*time.Second, connConfig.ConnectTimeout)
	assert.Equal(t, "dsqlcheck", connConfig.RuntimeParams["application_name"])

	// TLS must validate against the cluster's real name, not the
	// tunnel address being dialed.
	require.NotNil(t, connConfig.TLSConfig)
	assert.Equal(t, "db.internal.example", connConfig.TLSConfig.ServerName)
	for _, fb := range connConfig.Fallbacks {
		if fb.TLSConfig != nil {
			assert.Equal(t, "db.internal.example", fb.TLSConfig.ServerName)
		}
	}
}

func TestBuildConnConfig_EscapesPassword(t *testing.T) {
	cfg := testConnConfig(5432, "require")
	cfg.Password = "t@ken/with:odd?chars"

	connConfig, err := db.BuildConnConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, "t@ken/with:odd?chars", connConfig.Password)
}

func TestConnect_NoListener(t *testing.T) {
	cfg := testConnConfig(closedPort(t), "disable")

	conn, err := db.Connect(context.Background(), cfg)
	require.Error(t, err)
	require.Nil(t, conn)

	assert.Equal(t, report.CategoryConnection, report.Classify(err))
}
