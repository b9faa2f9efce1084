package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/vibe-bed/internal/bed"
	"github.com/inodb/vibe-bed/internal/output"
	"github.com/inodb/vibe-bed/internal/reader"
)

// featureWriter is the common shape of the tab and exon report writers.
type featureWriter interface {
	WriteHeader() error
	Write(f *bed.Feature) error
	Flush() error
}

func newDecodeCmd() *cobra.Command {
	var (
		outputFile string
		exons      bool
		noHeader   bool
	)

	cmd := &cobra.Command{
		Use:   "decode <input-file>",
		Short: "Decode a BED file into a feature table",
		Long: `Decode a BED file (plain, gzip or BGZF; use '-' for stdin) and write one row
per feature, or one row per exon with --exons. Decoding stops at the first
malformed line unless --lenient is set.`,
		Example: `  vibe-bed decode genes.bed
  vibe-bed decode --exons genes.bed.gz
  vibe-bed decode --lenient --workers 4 -o features.tsv calls.bed
  zcat genes.bed.gz | vibe-bed decode -`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger()
			if err != nil {
				return fmt.Errorf("create logger: %w", err)
			}
			defer logger.Sync()

			out := cmd.OutOrStdout()
			if outputFile != "" {
				f, err := os.Create(outputFile)
				if err != nil {
					return fmt.Errorf("create output file: %w", err)
				}
				defer f.Close()
				out = f
			}

			return runDecode(args[0], out, exons, !noHeader, logger)
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().BoolVar(&exons, "exons", false, "Write one row per exon instead of per feature")
	cmd.Flags().BoolVar(&noHeader, "no-header", false, "Omit the column header line")

	return cmd
}

func runDecode(inputPath string, out io.Writer, exons, header bool, logger *zap.Logger) error {
	r, err := reader.Open(inputPath, reader.Options{
		Lenient: viper.GetBool("lenient"),
		Logger:  logger,
	})
	if err != nil {
		return err
	}
	defer r.Close()

	logger.Debug("opened bed file",
		zap.String("path", inputPath),
		zap.Stringer("compression", r.Compression()),
		zap.Int64("header_file_offset", r.HeaderOffset().File),
		zap.Uint16("header_block_offset", r.HeaderOffset().Block))

	var w featureWriter
	if exons {
		w = output.NewExonWriter(out)
	} else {
		w = output.NewTabWriter(out)
	}
	if header {
		if err := w.WriteHeader(); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}

	count, err := forEachFeature(r, viper.GetInt("workers"), w.Write)
	if ferr := w.Flush(); ferr != nil && err == nil {
		err = fmt.Errorf("flush output: %w", ferr)
	}
	if err != nil {
		return err
	}

	logger.Info("decoded bed file",
		zap.String("path", inputPath),
		zap.Int("features", count),
		zap.Int("skipped", r.Skipped()),
		zap.Int("lines", r.LineNumber()))
	return nil
}

// forEachFeature calls fn for each feature of r in file order, decoding with
// a worker pool when workers is not 1. It returns the number of features seen.
func forEachFeature(r *reader.Reader, workers int, fn func(*bed.Feature) error) (int, error) {
	count := 0
	if workers != 1 {
		err := r.ForEach(workers, func(f *bed.Feature) error {
			count++
			return fn(f)
		})
		return count, err
	}

	for {
		f, err := r.Next()
		if err != nil {
			return count, err
		}
		if f == nil {
			return count, nil
		}
		count++
		if err := fn(f); err != nil {
			return count, err
		}
	}
}
