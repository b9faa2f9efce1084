package duckdb

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"
)

// FileFingerprint holds stat-based identity for a file.
type FileFingerprint struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// StatFile creates a FileFingerprint from an on-disk file.
func StatFile(path string) (FileFingerprint, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileFingerprint{}, err
	}
	return FileFingerprint{
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}

// RecordSource records that fp was loaded with count features and skipped
// malformed lines, replacing any earlier record for the same path.
func (s *Store) RecordSource(fp FileFingerprint, count, skipped int64) error {
	if _, err := s.db.Exec("DELETE FROM sources WHERE path=?", fp.Path); err != nil {
		return fmt.Errorf("delete source: %w", err)
	}
	if _, err := s.db.Exec(
		"INSERT INTO sources (path, size, mod_time, feature_count, skipped, loaded_at) VALUES (?, ?, ?, ?, ?, ?)",
		fp.Path, fp.Size, fp.ModTime.UnixNano(), count, skipped, time.Now().UTC(),
	); err != nil {
		return fmt.Errorf("record source: %w", err)
	}
	return nil
}

// SourceLoaded reports whether fp was already loaded and is unchanged since.
// A load that skipped malformed lines only satisfies a lenient caller; a
// strict caller must decode the file again and fail on the first bad line.
func (s *Store) SourceLoaded(fp FileFingerprint, lenient bool) (bool, error) {
	var size, modTime, skipped int64
	err := s.db.QueryRow("SELECT size, mod_time, COALESCE(skipped, 0) FROM sources WHERE path=?", fp.Path).
		Scan(&size, &modTime, &skipped)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query source: %w", err)
	}
	if size != fp.Size || modTime != fp.ModTime.UnixNano() {
		return false, nil
	}
	return lenient || skipped == 0, nil
}

// RemoveSource deletes the features loaded from path and its source record.
func (s *Store) RemoveSource(path string) error {
	stmts := []string{
		"DELETE FROM exons WHERE feature_id IN (SELECT id FROM features WHERE source=?)",
		"DELETE FROM features WHERE source=?",
		"DELETE FROM sources WHERE path=?",
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt, path); err != nil {
			return fmt.Errorf("remove source: %w", err)
		}
	}
	return nil
}
