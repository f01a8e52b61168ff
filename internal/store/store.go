// Package store persists study sessions in SQLite and exposes the
// queries the report and import layers are built on. It keeps one
// serialized write connection and a small read-only pool so imports
// never block report reads.
package store

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Store manages a write connection and a read-only pool.
type Store struct {
	writer *sql.DB
	reader *sql.DB
	mu     sync.Mutex // serializes writes
}

// makeDSN builds a SQLite connection string with shared pragmas.
func makeDSN(path string, readOnly bool) string {
	params := url.Values{}
	params.Set("_journal_mode", "WAL")
	params.Set("_busy_timeout", "5000")
	params.Set("_foreign_keys", "ON")
	params.Set("_cache_size", "-64000")
	if readOnly {
		params.Set("mode", "ro")
	} else {
		params.Set("_synchronous", "NORMAL")
	}
	return path + "?" + params.Encode()
}

// Open creates or opens a SQLite database at the given path. It
// configures WAL mode and returns a Store with separate writer
// and reader connections.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating db directory: %w", err)
	}

	writer, err := sql.Open("sqlite3", makeDSN(path, false))
	if err != nil {
		return nil, fmt.Errorf("opening writer: %w", err)
	}
	writer.SetMaxOpenConns(1)

	reader, err := sql.Open("sqlite3", makeDSN(path, true))
	if err != nil {
		writer.Close()
		return nil, fmt.Errorf("opening reader: %w", err)
	}
	reader.SetMaxOpenConns(4)

	st := &Store{writer: writer, reader: reader}
	if err := st.init(); err != nil {
		st.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return st, nil
}

// ensureColumn adds a column if it doesn't already exist.
func (st *Store) ensureColumn(table, column, definition string) error {
	var count int
	err := st.writer.QueryRow(
		fmt.Sprintf(
			"SELECT count(*) FROM pragma_table_info('%s')"+
				" WHERE name='%s'",
			table, column,
		),
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("checking column %s.%s: %w", table, column, err)
	}
	if count > 0 {
		return nil
	}
	_, err = st.writer.Exec(fmt.Sprintf(
		"ALTER TABLE %s ADD COLUMN %s %s",
		table, column, definition,
	))
	if err == nil {
		return nil
	}
	// ALTER TABLE may have raced a concurrent process; re-check
	// before reporting failure.
	var check int
	if checkErr := st.writer.QueryRow(
		fmt.Sprintf(
			"SELECT count(*) FROM pragma_table_info('%s')"+
				" WHERE name='%s'",
			table, column,
		),
	).Scan(&check); checkErr == nil && check > 0 {
		return nil
	}
	return err
}

func (st *Store) init() error {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, err := st.writer.Exec(schemaSQL); err != nil {
		return err
	}

	// Migration: satisfaction ratings arrived after the first
	// schema shipped.
	if err := st.ensureColumn(
		"study_sessions", "satisfaction", "INTEGER",
	); err != nil {
		return fmt.Errorf("adding satisfaction column: %w", err)
	}
	return nil
}

// Close closes both writer and reader connections.
func (st *Store) Close() error {
	return errors.Join(st.writer.Close(), st.reader.Close())
}

// Update executes fn within a write lock and transaction. The
// transaction is committed if fn returns nil, rolled back
// otherwise.
func (st *Store) Update(fn func(tx *sql.Tx) error) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	tx, err := st.writer.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// Reader returns the read-only connection pool.
func (st *Store) Reader() *sql.DB {
	return st.reader
}
