package duckdb

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/inodb/vibe-bed/internal/bed"
)

// FeatureCache manages gob-serialized feature snapshots on disk, one per
// decoded BED file:
//
//	{dir}/{base}.gob       (serialized features)
//	{dir}/{base}.gob.meta  (source file fingerprint)
type FeatureCache struct {
	dir string
}

// NewFeatureCache creates a feature cache in the given directory.
func NewFeatureCache(dir string) *FeatureCache {
	return &FeatureCache{dir: dir}
}

func (fc *FeatureCache) gobPath(src FileFingerprint) string {
	return filepath.Join(fc.dir, filepath.Base(src.Path)+".gob")
}

func (fc *FeatureCache) metaPath(src FileFingerprint) string {
	return fc.gobPath(src) + ".meta"
}

// Valid checks whether the snapshot for src matches the current file.
func (fc *FeatureCache) Valid(src FileFingerprint) bool {
	meta, err := fc.readMeta(src)
	if err != nil {
		return false
	}

	checks := []struct{ key, val string }{
		{"source_path", src.Path},
		{"source_size", strconv.FormatInt(src.Size, 10)},
		{"source_modtime", src.ModTime.UTC().Format(time.RFC3339Nano)},
	}
	for _, c := range checks {
		if meta[c.key] != c.val {
			return false
		}
	}

	if _, err := os.Stat(fc.gobPath(src)); err != nil {
		return false
	}
	return true
}

// Load reads the snapshot for src.
func (fc *FeatureCache) Load(src FileFingerprint) ([]*bed.Feature, error) {
	f, err := os.Open(fc.gobPath(src))
	if err != nil {
		return nil, fmt.Errorf("open feature cache: %w", err)
	}
	defer f.Close()

	var features []*bed.Feature
	if err := gob.NewDecoder(f).Decode(&features); err != nil {
		return nil, fmt.Errorf("decode feature cache: %w", err)
	}
	return features, nil
}

// Write serializes features decoded from src to disk.
func (fc *FeatureCache) Write(src FileFingerprint, features []*bed.Feature) error {
	if err := os.MkdirAll(fc.dir, 0755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}

	path := fc.gobPath(src)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create feature cache: %w", err)
	}

	if err := gob.NewEncoder(f).Encode(features); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("encode feature cache: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close feature cache: %w", err)
	}

	return fc.writeMeta(src)
}

// Clear removes the snapshot for src.
func (fc *FeatureCache) Clear(src FileFingerprint) {
	os.Remove(fc.gobPath(src))
	os.Remove(fc.metaPath(src))
}

func (fc *FeatureCache) writeMeta(src FileFingerprint) error {
	lines := []string{
		"source_path=" + src.Path,
		"source_size=" + strconv.FormatInt(src.Size, 10),
		"source_modtime=" + src.ModTime.UTC().Format(time.RFC3339Nano),
		"created_at=" + time.Now().UTC().Format(time.RFC3339),
		"",
	}
	return os.WriteFile(fc.metaPath(src), []byte(strings.Join(lines, "\n")), 0644)
}

func (fc *FeatureCache) readMeta(src FileFingerprint) (map[string]string, error) {
	data, err := os.ReadFile(fc.metaPath(src))
	if err != nil {
		return nil, err
	}

	meta := make(map[string]string)
	for _, line := range strings.Split(string(data), "\n") {
		if k, v, ok := strings.Cut(line, "="); ok {
			meta[k] = v
		}
	}
	return meta, nil
}
