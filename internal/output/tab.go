// Package output provides feature report formatters.
package output

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/inodb/vibe-bed/internal/bed"
)

// TabWriter writes features in tab-delimited format, one row per feature.
// Coordinates are 1-based inclusive; absent columns are written as "-".
type TabWriter struct {
	w       *bufio.Writer
	columns []string
}

// NewTabWriter creates a new tab-delimited feature writer.
func NewTabWriter(w io.Writer) *TabWriter {
	return &TabWriter{
		w: bufio.NewWriter(w),
		columns: []string{
			"#Contig",
			"Start",
			"End",
			"Name",
			"Score",
			"Strand",
			"Thick_start",
			"Thick_end",
			"Color",
			"Kind",
			"Exons",
			"Coding_length",
		},
	}
}

// WriteHeader writes the header line.
func (tw *TabWriter) WriteHeader() error {
	_, err := tw.w.WriteString(strings.Join(tw.columns, "\t") + "\n")
	return err
}

// Write writes a single feature.
func (tw *TabWriter) Write(f *bed.Feature) error {
	name := "-"
	if f.HasName() && f.Name != "" {
		name = f.Name
	}

	score := "-"
	if f.HasScore() {
		score = strconv.FormatFloat(f.Score, 'g', -1, 64)
	}

	strand := "-"
	if f.HasStrand() {
		strand = f.Strand.String()
	}

	thickStart, thickEnd := "-", "-"
	exons, coding := "-", "-"
	if f.Kind() == bed.KindFull {
		thickStart = strconv.FormatInt(f.ThickStart, 10)
		thickEnd = strconv.FormatInt(f.ThickEnd, 10)
		exons = strconv.Itoa(len(f.Exons))
		coding = strconv.FormatInt(f.CodingLength(), 10)
	}

	values := []string{
		f.Contig,
		strconv.FormatInt(f.Start, 10),
		strconv.FormatInt(f.End, 10),
		name,
		score,
		strand,
		thickStart,
		thickEnd,
		formatColor(f.Color),
		f.Kind().String(),
		exons,
		coding,
	}

	_, err := tw.w.WriteString(strings.Join(values, "\t") + "\n")
	return err
}

// Flush flushes any buffered data to the underlying writer.
func (tw *TabWriter) Flush() error {
	return tw.w.Flush()
}

// ExonWriter writes one row per exon of full features. Features without
// exons produce no rows.
type ExonWriter struct {
	w       *bufio.Writer
	columns []string
}

// NewExonWriter creates a new tab-delimited exon writer.
func NewExonWriter(w io.Writer) *ExonWriter {
	return &ExonWriter{
		w: bufio.NewWriter(w),
		columns: []string{
			"#Feature",
			"Contig",
			"Strand",
			"Exon",
			"Start",
			"End",
			"CDS_start",
			"CDS_end",
			"Coding_length",
			"Frame",
		},
	}
}

// WriteHeader writes the header line.
func (ew *ExonWriter) WriteHeader() error {
	_, err := ew.w.WriteString(strings.Join(ew.columns, "\t") + "\n")
	return err
}

// Write writes the exons of f in genomic order.
func (ew *ExonWriter) Write(f *bed.Feature) error {
	id := f.Name
	if id == "" {
		id = fmt.Sprintf("%s:%d-%d", f.Contig, f.Start, f.End)
	}

	for _, e := range f.Exons {
		cdStart, cdEnd, frame := "-", "-", "-"
		if e.IsCoding() {
			cdStart = strconv.FormatInt(e.CDStart, 10)
			cdEnd = strconv.FormatInt(e.CDEnd, 10)
			frame = strconv.Itoa(e.Frame)
		}

		values := []string{
			id,
			f.Contig,
			f.Strand.String(),
			fmt.Sprintf("%d/%d", e.Number, len(f.Exons)),
			strconv.FormatInt(e.Start, 10),
			strconv.FormatInt(e.End, 10),
			cdStart,
			cdEnd,
			strconv.FormatInt(e.CodingLength, 10),
			frame,
		}
		if _, err := ew.w.WriteString(strings.Join(values, "\t") + "\n"); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes any buffered data to the underlying writer.
func (ew *ExonWriter) Flush() error {
	return ew.w.Flush()
}

func formatColor(c bed.Color) string {
	if !c.Set {
		return "-"
	}
	return fmt.Sprintf("%d,%d,%d", c.R, c.G, c.B)
}
