package db_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/willibrandon/dsqlcheck/internal/db"
	"github.com/willibrandon/dsqlcheck/internal/report"
)

// fakeRows implements pgx.Rows over an in-memory result set so the
// row-mapping paths can be exercised without a server.
type fakeRows struct {
	fields  []pgconn.FieldDescription
	rows    [][]string
	idx     int
	scanErr error
	closed  bool
}

func (r *fakeRows) Close()                                       { r.closed = true }
func (r *fakeRows) Err() error                                   { return nil }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return r.fields }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func (r *fakeRows) Next() bool {
	r.idx++
	return r.idx <= len(r.rows)
}

func (r *fakeRows) Scan(dest ...any) error {
	if r.scanErr != nil {
		return r.scanErr
	}
	row := r.rows[r.idx-1]
	if len(dest) != len(row) {
		return fmt.Errorf("scan target count %d != column count %d", len(dest), len(row))
	}
	for i, d := range dest {
		p, ok := d.(*string)
		if !ok {
			return fmt.Errorf("unexpected scan target type %T", d)
		}
		*p = row[i]
	}
	return nil
}

func (r *fakeRows) Values() ([]any, error) {
	row := r.rows[r.idx-1]
	values := make([]any, len(row))
	for i, v := range row {
		values[i] = v
	}
	return values, nil
}

// fakeQuerier implements db.Querier.
type fakeQuerier struct {
	rows *fakeRows
	err  error
}

func (q *fakeQuerier) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if q.err != nil {
		return nil, q.err
	}
	return q.rows, nil
}

func connInfoFields(names ...string) []pgconn.FieldDescription {
	fields := make([]pgconn.FieldDescription, len(names))
	for i, name := range names {
		fields[i] = pgconn.FieldDescription{Name: name}
	}
	return fields
}

func TestGetConnInfo_MapsRowByName(t *testing.T) {
	// Columns deliberately out of struct-field order: mapping must go
	// by name, not position.
	rows := &fakeRows{
		fields: connInfoFields("server_version", "user", "database"),
		rows:   [][]string{{"PostgreSQL 15.0", "admin", "postgres"}},
	}

	info, err := db.GetConnInfo(context.Background(), &fakeQuerier{rows: rows})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if info.Database != "postgres" {
		t.Errorf("Database = %q, want %q", info.Database, "postgres")
	}
	if info.User != "admin" {
		t.Errorf("User = %q, want %q", info.User, "admin")
	}
	if info.ServerVersion != "PostgreSQL 15.0" {
		t.Errorf("ServerVersion = %q, want %q", info.ServerVersion, "PostgreSQL 15.0")
	}
	if !rows.closed {
		t.Error("rows not closed after successful mapping")
	}
}

func TestGetConnInfo_ZeroRows(t *testing.T) {
	rows := &fakeRows{
		fields: connInfoFields("database", "user", "server_version"),
	}

	_, err := db.GetConnInfo(context.Background(), &fakeQuerier{rows: rows})
	if !errors.Is(err, pgx.ErrNoRows) {
		t.Fatalf("expected pgx.ErrNoRows, got %v", err)
	}
	if got := report.Classify(err); got != report.CategoryQuery {
		t.Errorf("Classify() = %v, want %v", got, report.CategoryQuery)
	}
	if !rows.closed {
		t.Error("rows not closed on zero-row response")
	}
}

func TestGetConnInfo_QueryError(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "42601", Message: "syntax error"}
	_, err := db.GetConnInfo(context.Background(), &fakeQuerier{err: pgErr})
	if err == nil {
		t.Fatal("expected error")
	}

	var got *pgconn.PgError
	if !errors.As(err, &got) {
		t.Fatalf("expected wrapped PgError, got %v", err)
	}
	if category := report.Classify(err); category != report.CategoryQuery {
		t.Errorf("Classify() = %v, want %v", category, report.CategoryQuery)
	}
}

func TestGetConnInfo_ScanErrorStillClosesRows(t *testing.T) {
	rows := &fakeRows{
		fields:  connInfoFields("database", "user", "server_version"),
		rows:    [][]string{{"postgres", "admin", "PostgreSQL 15.0"}},
		scanErr: errors.New("scan failed"),
	}

	_, err := db.GetConnInfo(context.Background(), &fakeQuerier{rows: rows})
	if err == nil {
		t.Fatal("expected error")
	}
	if !rows.closed {
		t.Error("rows not closed when the row-fetch step fails mid-scope")
	}
}
