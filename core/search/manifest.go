package search

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Manifest tracks per-file checksums in sqlite so incremental runs can skip
// unchanged files.
type Manifest struct {
	db *sql.DB
}

// OpenManifest opens or creates the manifest database at path, creating the
// parent directory if needed.
func OpenManifest(path string) (*Manifest, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("manifest dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open manifest %s: %w", path, err)
	}

	const schema = `
		CREATE TABLE IF NOT EXISTS files (
			path       TEXT PRIMARY KEY,
			checksum   TEXT NOT NULL,
			indexed_at INTEGER NOT NULL
		)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("manifest schema: %w", err)
	}

	return &Manifest{db: db}, nil
}

// Checksum returns the recorded checksum for path, or false when the path
// has never been indexed.
func (m *Manifest) Checksum(path string) (string, bool, error) {
	var checksum string
	err := m.db.QueryRow(`SELECT checksum FROM files WHERE path = ?`, path).Scan(&checksum)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("manifest lookup %s: %w", path, err)
	}
	return checksum, true, nil
}

// Record stores the checksum for path.
func (m *Manifest) Record(path, checksum string) error {
	_, err := m.db.Exec(
		`INSERT INTO files (path, checksum, indexed_at) VALUES (?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET checksum = excluded.checksum, indexed_at = excluded.indexed_at`,
		path, checksum, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("manifest record %s: %w", path, err)
	}
	return nil
}

// Delete removes the record for path.
func (m *Manifest) Delete(path string) error {
	if _, err := m.db.Exec(`DELETE FROM files WHERE path = ?`, path); err != nil {
		return fmt.Errorf("manifest delete %s: %w", path, err)
	}
	return nil
}

// Size returns the number of tracked files.
func (m *Manifest) Size() (int, error) {
	var count int
	if err := m.db.QueryRow(`SELECT COUNT(*) FROM files`).Scan(&count); err != nil {
		return 0, fmt.Errorf("manifest size: %w", err)
	}
	return count, nil
}

// Paths returns every tracked path.
func (m *Manifest) Paths() ([]string, error) {
	rows, err := m.db.Query(`SELECT path FROM files ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("manifest paths: %w", err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, fmt.Errorf("manifest paths: %w", err)
		}
		paths = append(paths, path)
	}
	return paths, rows.Err()
}

// Close closes the manifest database.
func (m *Manifest) Close() error {
	return m.db.Close()
}
