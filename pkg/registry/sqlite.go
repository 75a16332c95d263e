package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

var _ Store = (*SQLite)(nil)

// SQLite is a Store backed by a single SQLite database file. Each record is
// one row of the agents table; the full record is kept as a msgpack blob
// next to the columns used for lookup and ordering.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (creating if needed) the database at path. Parent
// directories are created.
func NewSQLite(path string) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("registry: create database directory: %w", err)
	}
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("registry: open database: %w", err)
	}
	// SQLite serializes writers; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("registry: ping database: %w", err)
	}
	s := &SQLite{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLite) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS agents (
		name TEXT PRIMARY KEY,
		id TEXT NOT NULL,
		kind TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		record BLOB NOT NULL
	);`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("registry: create schema: %w", err)
	}
	return nil
}

func (s *SQLite) Put(ctx context.Context, r *Record) error {
	data, err := encode(r)
	if err != nil {
		return err
	}
	query := `
	INSERT INTO agents (name, id, kind, created_at, record)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(name) DO UPDATE SET
		id = excluded.id,
		kind = excluded.kind,
		created_at = excluded.created_at,
		record = excluded.record`
	_, err = s.db.ExecContext(ctx, query, r.Name, r.ID, string(r.Kind), r.CreatedAt.Unix(), data)
	if err != nil {
		return fmt.Errorf("registry: put %s: %w", r.Name, err)
	}
	return nil
}

func (s *SQLite) Get(ctx context.Context, name string) (*Record, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT record FROM agents WHERE name = ?`, name).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(name)
	}
	if err != nil {
		return nil, fmt.Errorf("registry: get %s: %w", name, err)
	}
	return decode(data)
}

func (s *SQLite) List(ctx context.Context) ([]*Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT record FROM agents ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("registry: list: %w", err)
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("registry: scan: %w", err)
		}
		r, err := decode(data)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLite) Delete(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM agents WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("registry: delete %s: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("registry: delete %s: %w", name, err)
	}
	if n == 0 {
		return notFound(name)
	}
	return nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
