package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/inodb/vibe-bed/internal/bed"
	"github.com/inodb/vibe-bed/internal/reader"
)

func newHeaderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "header <input-file>",
		Short: "Show where the first feature of a BED file starts",
		Long: `Report the virtual offset of the first feature: the compressed file offset of
its BGZF block and the offset inside the uncompressed block. For plain text
and plain gzip input the block offset is 0 and the file offset is the
uncompressed byte offset.`,
		Example: `  vibe-bed header genes.bed.gz`,
		Args:    exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHeader(args[0], cmd.OutOrStdout())
		},
	}
}

func runHeader(inputPath string, out io.Writer) error {
	r, err := reader.Open(inputPath, reader.Options{})
	if err != nil {
		return err
	}
	defer r.Close()

	codec := bed.NewCodec()
	tbx := codec.TabixFormat()
	off := r.HeaderOffset()

	fmt.Fprintf(out, "path\t%s\n", inputPath)
	fmt.Fprintf(out, "compression\t%s\n", r.Compression())
	fmt.Fprintf(out, "bed_extension\t%t\n", codec.CanDecode(inputPath))
	fmt.Fprintf(out, "file_offset\t%d\n", off.File)
	fmt.Fprintf(out, "block_offset\t%d\n", off.Block)
	fmt.Fprintf(out, "tabix_preset\t%s seq=%d start=%d end=%d meta=%c\n",
		tbx.Name, tbx.SequenceColumn, tbx.StartColumn, tbx.EndColumn, tbx.MetaChar)
	return nil
}
