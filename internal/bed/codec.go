package bed

import (
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strings"

	"github.com/biogo/hts/bgzf"
)

// Extension is the canonical BED file extension.
const Extension = ".bed"

// BlockCompressedExtensions are the compression suffixes accepted after
// Extension by CanDecode.
var BlockCompressedExtensions = []string{".gz", ".gzip", ".bgz", ".bgzf"}

// TabixFlagUCSC marks a tabix preset whose coordinates are 0-based half-open.
const TabixFlagUCSC = 0x10000

// TabixFormat is the column layout a tabix index builder needs for a format.
type TabixFormat struct {
	Name           string
	Flags          int32
	SequenceColumn int32
	StartColumn    int32
	EndColumn      int32
	MetaChar       byte
	SkipLines      int32
}

// TabixBED is the tabix preset for BED files.
var TabixBED = TabixFormat{
	Name:           "bed",
	Flags:          TabixFlagUCSC,
	SequenceColumn: 1,
	StartColumn:    2,
	EndColumn:      3,
	MetaChar:       '#',
}

// PositionalLineSource is a line stream that reports the virtual offset of
// its next unread line. Peek does not advance the stream.
type PositionalLineSource interface {
	Peek() (string, error)
	Next() (string, error)
	Position() bgzf.Offset
}

// Codec decodes BED lines. It holds no state and may be shared between
// goroutines and streams.
type Codec struct{}

// NewCodec creates a new BED codec.
func NewCodec() *Codec {
	return &Codec{}
}

// Decode decodes one line into a feature. Columns after the last one present
// are absent; any column that is present but malformed fails the whole line.
func (c *Codec) Decode(line string) (*Feature, error) {
	if !isRecordLine(line) {
		return nil, &FormatError{Line: line, Kind: KindNotRecord, Reason: "not a record line"}
	}

	tokens := tokenize(line)
	if len(tokens) < minColumns {
		return nil, &FormatError{
			Line:   line,
			Kind:   KindTokenCount,
			Reason: fmt.Sprintf("expected at least %d columns, found %d", minColumns, len(tokens)),
		}
	}
	if len(tokens) > maxColumns {
		tokens = tokens[:maxColumns]
	}

	d := decoder{line: line, f: &Feature{Score: math.NaN()}}
	for i := 0; i < len(tokens) && i < len(stages); i++ {
		if err := stages[i](&d, i+1, tokens[i]); err != nil {
			return nil, err
		}
	}
	d.f.Columns = len(tokens)

	// A thick range without the block group is dropped.
	if len(tokens) >= blockColumn {
		if len(tokens) < maxColumns {
			return nil, blockError(line, len(tokens)+1,
				"block columns incomplete: found %d of 3", len(tokens)-blockColumn+1)
		}
		exons, err := buildExons(line, d.f, d.thickStart, d.thickEnd, blockGroup{
			count:  tokens[blockColumn-1],
			sizes:  tokens[blockColumn],
			starts: tokens[blockColumn+1],
		})
		if err != nil {
			return nil, err
		}
		d.f.ThickStart = d.thickStart
		d.f.ThickEnd = d.thickEnd
		d.f.Exons = exons
	}

	return d.f, nil
}

// CanDecode returns true if the base name of path ends in Extension,
// optionally followed by one block-compression suffix.
func (c *Codec) CanDecode(path string) bool {
	name := filepath.Base(path)
	for _, ext := range BlockCompressedExtensions {
		if strings.HasSuffix(name, ext) {
			name = strings.TrimSuffix(name, ext)
			break
		}
	}
	return strings.HasSuffix(name, Extension)
}

// TabixFormat returns the tabix preset for BED.
func (c *Codec) TabixFormat() TabixFormat {
	return TabixBED
}

// DetectHeaderOffset returns the virtual offset of the first feature in src.
//
// Leading blank lines are skipped and the first non-empty line is peeked. If
// it does not decode it is treated as a header: it is consumed and the offset
// after it is returned. Header content is discarded and never returned, even
// when the line was a malformed data row. If it decodes, the offset before it
// is returned and the line is left for the next read.
func (c *Codec) DetectHeaderOffset(src PositionalLineSource) (bgzf.Offset, error) {
	var line string
	for {
		var err error
		line, err = src.Peek()
		if err == io.EOF {
			return src.Position(), nil
		}
		if err != nil {
			return bgzf.Offset{}, fmt.Errorf("peek first line: %w", err)
		}
		if strings.TrimSpace(line) != "" {
			break
		}
		if _, err := src.Next(); err != nil {
			return bgzf.Offset{}, fmt.Errorf("skip blank line: %w", err)
		}
	}

	if _, err := c.Decode(line); err == nil {
		return src.Position(), nil
	}
	if _, err := src.Next(); err != nil && err != io.EOF {
		return bgzf.Offset{}, fmt.Errorf("skip header line: %w", err)
	}
	return src.Position(), nil
}
