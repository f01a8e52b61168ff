package store

import "fmt"

// LoadImportedFiles returns all persisted skip cache entries as a
// map from file_path to file_mtime.
func (st *Store) LoadImportedFiles() (map[string]int64, error) {
	rows, err := st.reader.Query(
		"SELECT file_path, file_mtime FROM import_files",
	)
	if err != nil {
		return nil, fmt.Errorf("loading imported files: %w", err)
	}
	defer rows.Close()

	result := make(map[string]int64)
	for rows.Next() {
		var path string
		var mtime int64
		if err := rows.Scan(&path, &mtime); err != nil {
			return nil, fmt.Errorf("scanning imported file: %w", err)
		}
		result[path] = mtime
	}
	return result, rows.Err()
}

// ReplaceImportedFiles replaces all skip cache entries in a
// single transaction. Called after each import cycle to persist
// the in-memory skip cache.
func (st *Store) ReplaceImportedFiles(entries map[string]int64) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	tx, err := st.writer.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec("DELETE FROM import_files"); err != nil {
		return fmt.Errorf("clearing imported files: %w", err)
	}

	stmt, err := tx.Prepare(
		"INSERT INTO import_files (file_path, file_mtime) VALUES (?, ?)",
	)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for path, mtime := range entries {
		if _, err := stmt.Exec(path, mtime); err != nil {
			return fmt.Errorf("inserting imported file %s: %w", path, err)
		}
	}

	return tx.Commit()
}

// DeleteImportedFile removes a single skip cache entry.
func (st *Store) DeleteImportedFile(path string) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	_, err := st.writer.Exec(
		"DELETE FROM import_files WHERE file_path = ?",
		path,
	)
	return err
}
