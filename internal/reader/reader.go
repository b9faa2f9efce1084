// Package reader iterates decoded BED features from a line stream.
package reader

import (
	"fmt"
	"io"

	"github.com/biogo/hts/bgzf"
	"go.uber.org/zap"

	"github.com/inodb/vibe-bed/internal/bed"
	"github.com/inodb/vibe-bed/internal/linesource"
)

// FeatureParser is the interface for readers that yield features.
type FeatureParser interface {
	// Next reads the next feature.
	// Returns nil, nil when there are no more features.
	Next() (*bed.Feature, error)

	// Close closes the parser and releases resources.
	Close() error

	// LineNumber returns the number of lines consumed so far.
	LineNumber() int
}

// Options configures a Reader.
type Options struct {
	// Lenient skips malformed lines instead of stopping at the first one.
	Lenient bool
	// Logger receives skipped-line warnings. Defaults to a no-op logger.
	Logger *zap.Logger
}

// Reader reads features from a BED source. By default it stops at the first
// malformed line: features before it are returned, then the error, and no
// feature after it is ever returned.
type Reader struct {
	src          linesource.Source
	codec        *bed.Codec
	headerOffset bgzf.Offset
	compression  linesource.Compression
	lenient      bool
	logger       *zap.Logger
	skipped      int
	err          error
}

// Open opens a BED file (plain, gzip or BGZF). Use "-" for stdin.
func Open(path string, opts Options) (*Reader, error) {
	src, c, err := linesource.Open(path)
	if err != nil {
		return nil, err
	}
	r, err := New(src, opts)
	if err != nil {
		src.Close()
		return nil, err
	}
	r.compression = c
	return r, nil
}

// New creates a Reader over src and locates the first feature, discarding a
// single leading header line if there is one.
func New(src linesource.Source, opts Options) (*Reader, error) {
	r := &Reader{
		src:     src,
		codec:   bed.NewCodec(),
		lenient: opts.Lenient,
		logger:  opts.Logger,
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}

	off, err := r.codec.DetectHeaderOffset(src)
	if err != nil {
		return nil, fmt.Errorf("detect header: %w", err)
	}
	r.headerOffset = off
	return r, nil
}

// SetLogger sets the logger for skipped-line warnings.
func (r *Reader) SetLogger(l *zap.Logger) {
	r.logger = l
}

// HeaderOffset returns the virtual offset of the first feature.
func (r *Reader) HeaderOffset() bgzf.Offset {
	return r.headerOffset
}

// Compression reports how the opened file was encoded.
func (r *Reader) Compression() linesource.Compression {
	return r.compression
}

// Skipped returns the number of malformed lines skipped in lenient mode.
func (r *Reader) Skipped() int {
	return r.skipped
}

// Next reads the next feature.
// Returns nil, nil when there are no more features.
func (r *Reader) Next() (*bed.Feature, error) {
	if r.err != nil {
		return nil, r.err
	}
	for {
		line, err := r.src.Next()
		if err == io.EOF {
			return nil, nil
		}
		if err != nil {
			r.err = fmt.Errorf("read bed line: %w", err)
			return nil, r.err
		}

		f, err := r.codec.Decode(line)
		if err == nil {
			return f, nil
		}
		if err := r.reject(r.src.LineNumber(), err); err != nil {
			return nil, err
		}
	}
}

// reject handles a line that failed to decode. It returns the error that
// stops iteration, or nil if the line was skipped.
func (r *Reader) reject(lineNumber int, err error) error {
	lineErr := &LineError{Line: lineNumber, Err: err}
	if !r.lenient {
		r.err = lineErr
		return lineErr
	}
	r.skipped++
	r.logger.Warn("skipping malformed bed line",
		zap.Int("line", lineNumber),
		zap.Error(err))
	return nil
}

// LineNumber returns the number of lines consumed so far, header included.
func (r *Reader) LineNumber() int {
	return r.src.LineNumber()
}

// Close closes the underlying source.
func (r *Reader) Close() error {
	return r.src.Close()
}

// ReadAll reads features until the end of the stream or the first error.
// On error the features read before it are returned along with it.
func ReadAll(p FeatureParser) ([]*bed.Feature, error) {
	var features []*bed.Feature
	for {
		f, err := p.Next()
		if err != nil {
			return features, err
		}
		if f == nil {
			return features, nil
		}
		features = append(features, f)
	}
}

// LineError wraps a decode failure with its line number.
type LineError struct {
	Line int
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("bed parse error at line %d: %v", e.Line, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}
