// Package duckdb persists decoded BED features.
// Features and their exons are stored in DuckDB (queryable, append-only).
// Decoded files can also be snapshotted as gob files (fast, pure Go).
package duckdb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"
)

// Store manages a DuckDB connection holding decoded features.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates a DuckDB database at the given path.
// Use an empty string for an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for direct access.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Path returns the database path, empty for an in-memory store.
func (s *Store) Path() string {
	return s.path
}

// ensureSchema creates tables if they don't exist.
func (s *Store) ensureSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS features (
			id BIGINT PRIMARY KEY,
			source VARCHAR,
			contig VARCHAR,
			start_pos BIGINT,
			end_pos BIGINT,
			name VARCHAR,
			score DOUBLE,
			strand VARCHAR,
			thick_start BIGINT,
			thick_end BIGINT,
			color VARCHAR,
			kind VARCHAR,
			num_columns INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS exons (
			feature_id BIGINT,
			exon_number INTEGER,
			start_pos BIGINT,
			end_pos BIGINT,
			cd_start BIGINT,
			cd_end BIGINT,
			coding_length BIGINT,
			frame INTEGER,
			PRIMARY KEY (feature_id, exon_number)
		)`,
		`CREATE TABLE IF NOT EXISTS sources (
			path VARCHAR PRIMARY KEY,
			size BIGINT,
			mod_time BIGINT,
			feature_count BIGINT,
			skipped BIGINT DEFAULT 0,
			loaded_at TIMESTAMP
		)`,
		`ALTER TABLE sources ADD COLUMN IF NOT EXISTS skipped BIGINT DEFAULT 0`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
