package sqlite

// initSchema creates the database schema if it doesn't exist.
func (db *DB) initSchema() error {
	schema := `
	-- One row per completed connectivity check
	CREATE TABLE IF NOT EXISTS check_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		checked_at DATETIME NOT NULL,
		hostname TEXT NOT NULL,
		tunnel_addr TEXT NOT NULL,
		outcome TEXT NOT NULL,
		server_version TEXT NOT NULL DEFAULT '',
		duration_ms INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_check_history_checked_at ON check_history(checked_at DESC);
	`

	_, err := db.conn.Exec(schema)
	return err
}
