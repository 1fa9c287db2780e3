package sqlite

import (
	"time"
)

// OutcomeOK marks a check that printed the full info block.
const OutcomeOK = "ok"

// maxHistoryEntries caps the table size; older rows are pruned on Add.
const maxHistoryEntries = 500

// CheckEntry represents one recorded connectivity check.
type CheckEntry struct {
	ID            int64
	CheckedAt     time.Time
	Hostname      string
	TunnelAddr    string
	Outcome       string // OutcomeOK or a failure category name
	ServerVersion string
	DurationMs    int64
}

// HistoryStore provides access to recorded check outcomes.
type HistoryStore struct {
	db *DB
}

// NewHistoryStore creates a new history store.
func NewHistoryStore(db *DB) *HistoryStore {
	return &HistoryStore{db: db}
}

// Add records a completed check and prunes entries beyond the cap.
func (s *HistoryStore) Add(entry CheckEntry) error {
	if entry.CheckedAt.IsZero() {
		entry.CheckedAt = time.Now()
	}

	_, err := s.db.conn.Exec(`
		INSERT INTO check_history (checked_at, hostname, tunnel_addr, outcome, server_version, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?)
	`, entry.CheckedAt, entry.Hostname, entry.TunnelAddr, entry.Outcome, entry.ServerVersion, entry.DurationMs)
	if err != nil {
		return err
	}

	_, _ = s.db.conn.Exec(`
		DELETE FROM check_history
		WHERE id NOT IN (
			SELECT id FROM check_history
			ORDER BY checked_at DESC
			LIMIT ?
		)
	`, maxHistoryEntries)

	return nil
}

// Recent returns the most recent entries, newest first.
func (s *HistoryStore) Recent(limit int) ([]CheckEntry, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.conn.Query(`
		SELECT id, checked_at, hostname, tunnel_addr, outcome, server_version, duration_ms
		FROM check_history
		ORDER BY checked_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []CheckEntry
	for rows.Next() {
		var entry CheckEntry
		if err := rows.Scan(&entry.ID, &entry.CheckedAt, &entry.Hostname, &entry.TunnelAddr,
			&entry.Outcome, &entry.ServerVersion, &entry.DurationMs); err != nil {
			continue
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// Count returns the total number of recorded checks.
func (s *HistoryStore) Count() (int, error) {
	var count int
	err := s.db.conn.QueryRow("SELECT COUNT(*) FROM check_history").Scan(&count)
	return count, err
}
