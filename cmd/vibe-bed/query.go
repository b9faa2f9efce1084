package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/vibe-bed/internal/bed"
	"github.com/inodb/vibe-bed/internal/duckdb"
	"github.com/inodb/vibe-bed/internal/index"
	"github.com/inodb/vibe-bed/internal/output"
	"github.com/inodb/vibe-bed/internal/reader"
)

func newQueryCmd() *cobra.Command {
	var (
		noCache  bool
		cacheDir string
	)

	cmd := &cobra.Command{
		Use:   "query [input-file] <region>",
		Short: "List features overlapping a region",
		Long: `List the features overlapping a region given as contig, contig:pos or
contig:start-end (1-based, inclusive). Features come from a BED file, which is
decoded and indexed in memory, or from the DuckDB database given by --db.
Decoded files are snapshotted under ~/.vibe-bed/cache and reused while the
file is unchanged.`,
		Example: `  vibe-bed query genes.bed chr22:1000-2000
  vibe-bed query genes.bed.gz chr22
  vibe-bed query --db features.duckdb chr22:1,000-2,000`,
		Args: rangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			region, err := index.ParseRegion(args[len(args)-1])
			if err != nil {
				return &usageError{err}
			}

			logger, err := newLogger()
			if err != nil {
				return fmt.Errorf("create logger: %w", err)
			}
			defer logger.Sync()

			var features []*bed.Feature
			switch {
			case len(args) == 2:
				dir := cacheDir
				if noCache {
					dir = ""
				}
				features, err = queryFile(args[0], region, dir, logger)
			case viper.GetString("db") != "":
				features, err = queryDB(viper.GetString("db"), region)
			default:
				return &usageError{fmt.Errorf("an input file or --db is required")}
			}
			if err != nil {
				return err
			}

			return writeFeatures(cmd.OutOrStdout(), features)
		},
	}

	cmd.Flags().BoolVar(&noCache, "no-cache", false, "Always decode the input file")
	cmd.Flags().StringVar(&cacheDir, "cache-dir", defaultCacheDir(), "Directory for decoded feature snapshots")
	return cmd
}

func queryDB(dbPath string, region index.Region) ([]*bed.Feature, error) {
	store, err := duckdb.Open(dbPath)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	return store.QueryRegion(region.Contig, region.Start, region.End)
}

// queryFile decodes path, or loads its snapshot from cacheDir, and returns
// the features overlapping region. An empty cacheDir disables snapshots.
func queryFile(path string, region index.Region, cacheDir string, logger *zap.Logger) ([]*bed.Feature, error) {
	features, err := loadFeatures(path, cacheDir, logger)
	if err != nil {
		return nil, err
	}

	idx, err := index.Build(features)
	if err != nil {
		return nil, err
	}
	logger.Debug("built feature index",
		zap.Int("features", idx.Len()),
		zap.Strings("contigs", idx.Contigs()))
	return idx.Query(region), nil
}

func loadFeatures(path, cacheDir string, logger *zap.Logger) ([]*bed.Feature, error) {
	var fc *duckdb.FeatureCache
	var fp duckdb.FileFingerprint
	if cacheDir != "" && path != "-" {
		var err error
		if fp, err = duckdb.StatFile(path); err != nil {
			return nil, err
		}
		fc = duckdb.NewFeatureCache(cacheDir)
		if fc.Valid(fp) {
			features, err := fc.Load(fp)
			if err == nil {
				logger.Debug("loaded feature snapshot", zap.String("path", path))
				return features, nil
			}
			logger.Warn("ignoring unreadable feature snapshot", zap.String("path", path), zap.Error(err))
		}
	}

	r, err := reader.Open(path, reader.Options{
		Lenient: viper.GetBool("lenient"),
		Logger:  logger,
	})
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var features []*bed.Feature
	if _, err := forEachFeature(r, viper.GetInt("workers"), func(f *bed.Feature) error {
		features = append(features, f)
		return nil
	}); err != nil {
		return nil, err
	}

	// A lenient decode that skipped lines must not answer a later strict run.
	if fc != nil && r.Skipped() == 0 {
		if err := fc.Write(fp, features); err != nil {
			logger.Warn("failed to write feature snapshot", zap.String("path", path), zap.Error(err))
		}
	}
	return features, nil
}

func writeFeatures(out io.Writer, features []*bed.Feature) error {
	w := output.NewTabWriter(out)
	if err := w.WriteHeader(); err != nil {
		return err
	}
	for _, f := range features {
		if err := w.Write(f); err != nil {
			return err
		}
	}
	return w.Flush()
}
