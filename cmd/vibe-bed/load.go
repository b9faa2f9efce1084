package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/vibe-bed/internal/bed"
	"github.com/inodb/vibe-bed/internal/duckdb"
	"github.com/inodb/vibe-bed/internal/reader"
)

// loadBatchSize is the number of features appended to DuckDB at a time.
var loadBatchSize = 10000

// sourceStore is the part of *duckdb.Store used to load one file.
type sourceStore interface {
	SourceLoaded(fp duckdb.FileFingerprint, lenient bool) (bool, error)
	RemoveSource(path string) error
	WriteFeatures(source string, features []*bed.Feature) error
	RecordSource(fp duckdb.FileFingerprint, count, skipped int64) error
}

func newLoadCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "load <input-file>...",
		Short: "Decode BED files into a DuckDB database",
		Long: `Decode BED files and store their features and exons in DuckDB. Files that
were already loaded and have not changed since (same size and modification
time) are skipped unless --force is set.`,
		Example: `  vibe-bed load --db features.duckdb genes.bed
  vibe-bed config set db ~/.vibe-bed/features.duckdb && vibe-bed load a.bed b.bed.gz`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return &usageError{fmt.Errorf("requires at least 1 input file")}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			dbPath := viper.GetString("db")
			if dbPath == "" {
				return &usageError{fmt.Errorf("--db is required (or set it with: vibe-bed config set db <path>)")}
			}

			logger, err := newLogger()
			if err != nil {
				return fmt.Errorf("create logger: %w", err)
			}
			defer logger.Sync()

			store, err := duckdb.Open(dbPath)
			if err != nil {
				return err
			}
			defer store.Close()

			for _, path := range args {
				if err := runLoad(store, path, force, cmd.OutOrStdout(), logger); err != nil {
					return fmt.Errorf("load %s: %w", path, err)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Reload files even if they are unchanged")
	return cmd
}

func runLoad(store sourceStore, path string, force bool, out io.Writer, logger *zap.Logger) error {
	fp, err := duckdb.StatFile(path)
	if err != nil {
		return err
	}
	lenient := viper.GetBool("lenient")

	if !force {
		loaded, err := store.SourceLoaded(fp, lenient)
		if err != nil {
			return err
		}
		if loaded {
			logger.Info("source unchanged, skipping", zap.String("path", path))
			fmt.Fprintf(out, "%s\tunchanged\n", path)
			return nil
		}
	}
	if err := store.RemoveSource(path); err != nil {
		return err
	}

	count, skipped, err := loadSource(store, fp, lenient, logger)
	if err != nil {
		// Batches already appended are committed; leave no partial load behind.
		if rerr := store.RemoveSource(path); rerr != nil {
			logger.Warn("failed to remove partial load", zap.String("path", path), zap.Error(rerr))
		}
		return err
	}

	logger.Info("loaded bed file",
		zap.String("path", path),
		zap.Int("features", count),
		zap.Int("skipped", skipped))
	fmt.Fprintf(out, "%s\t%d\n", path, count)
	return nil
}

// loadSource decodes fp.Path into store in batches and records the source.
func loadSource(store sourceStore, fp duckdb.FileFingerprint, lenient bool, logger *zap.Logger) (count, skipped int, err error) {
	r, err := reader.Open(fp.Path, reader.Options{
		Lenient: lenient,
		Logger:  logger,
	})
	if err != nil {
		return 0, 0, err
	}
	defer r.Close()

	batch := make([]*bed.Feature, 0, loadBatchSize)
	flush := func() error {
		if err := store.WriteFeatures(fp.Path, batch); err != nil {
			return err
		}
		batch = batch[:0]
		return nil
	}

	count, err = forEachFeature(r, viper.GetInt("workers"), func(f *bed.Feature) error {
		batch = append(batch, f)
		if len(batch) == loadBatchSize {
			return flush()
		}
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	if err := flush(); err != nil {
		return 0, 0, err
	}
	if err := store.RecordSource(fp, int64(count), int64(r.Skipped())); err != nil {
		return 0, 0, err
	}
	return count, r.Skipped(), nil
}
