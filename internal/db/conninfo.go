package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/willibrandon/dsqlcheck/internal/logger"
)

// connInfoQuery is the fixed introspection query, equivalent to psql's
// \conninfo. It is the only statement this tool ever executes.
const connInfoQuery = `
	SELECT
		current_database() AS database,
		current_user AS user,
		version() AS server_version
`

// ConnInfo describes the session as reported by the server.
type ConnInfo struct {
	Database      string `db:"database"`
	User          string `db:"user"`
	ServerVersion string `db:"server_version"`
}

// Querier is the statement-execution surface needed by GetConnInfo.
// *pgx.Conn satisfies it.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// GetConnInfo executes the introspection query and maps the single
// expected row into a ConnInfo by column name. A zero-row response
// surfaces as pgx.ErrNoRows.
func GetConnInfo(ctx context.Context, q Querier) (ConnInfo, error) {
	logger.Debug("Executing connection info query")

	rows, err := q.Query(ctx, connInfoQuery)
	if err != nil {
		return ConnInfo{}, fmt.Errorf("failed to execute connection info query: %w", err)
	}

	info, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[ConnInfo])
	if err != nil {
		return ConnInfo{}, fmt.Errorf("failed to read connection info: %w", err)
	}

	logger.Debug("Connection info retrieved",
		"database", info.Database,
		"user", info.User,
		"server_version", info.ServerVersion,
	)
	return info, nil
}
