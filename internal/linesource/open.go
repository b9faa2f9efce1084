package linesource

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/biogo/hts/bgzf"
	"github.com/klauspost/compress/gzip"
)

// Compression identifies how a stream is encoded.
type Compression int

const (
	Plain Compression = iota
	Gzip
	BGZF
)

func (c Compression) String() string {
	switch c {
	case Gzip:
		return "gzip"
	case BGZF:
		return "bgzf"
	default:
		return "plain"
	}
}

// bgzfReader adapts a bgzf.Reader to byteReader. It reads one byte ahead so
// that the offset after a block's last byte is reported as the start of the
// next block, {next, 0}, rather than {current, len}.
type bgzfReader struct {
	r       *bgzf.Reader
	off     bgzf.Offset
	next    byte
	nextErr error
	primed  bool
}

func (b *bgzfReader) ReadByte() (byte, error) {
	if !b.primed {
		b.advance()
	}
	c, err := b.next, b.nextErr
	if err != nil {
		return 0, err
	}
	end := b.r.LastChunk().End
	b.advance()
	if b.nextErr == nil {
		b.off = b.r.LastChunk().Begin
	} else {
		b.off = end
	}
	return c, nil
}

func (b *bgzfReader) advance() {
	b.next, b.nextErr = b.r.ReadByte()
	b.primed = true
}

func (b *bgzfReader) Offset() bgzf.Offset {
	return b.off
}

// textReader counts uncompressed bytes. Offsets carry the byte count in File
// with a zero Block.
type textReader struct {
	r *bufio.Reader
	n int64
}

func (t *textReader) ReadByte() (byte, error) {
	b, err := t.r.ReadByte()
	if err == nil {
		t.n++
	}
	return b, err
}

func (t *textReader) Offset() bgzf.Offset {
	return bgzf.Offset{File: t.n}
}

// NewBGZF creates a Source over a BGZF stream. Positions are virtual offsets.
func NewBGZF(r io.Reader) (*Stream, error) {
	br, err := bgzf.NewReader(r, 1)
	if err != nil {
		return nil, fmt.Errorf("create bgzf reader: %w", err)
	}
	return newStream(&bgzfReader{r: br}, br), nil
}

// NewText creates a Source over uncompressed text.
func NewText(r io.Reader) *Stream {
	return newStream(&textReader{r: bufio.NewReader(r)})
}

// NewReader creates a Source from r, detecting BGZF, gzip or plain text by
// magic bytes.
func NewReader(r io.Reader) (*Stream, Compression, error) {
	br := bufio.NewReader(r)
	switch c := Detect(br); c {
	case BGZF:
		s, err := NewBGZF(br)
		return s, c, err
	case Gzip:
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, c, fmt.Errorf("create gzip reader: %w", err)
		}
		return newStream(&textReader{r: bufio.NewReader(gz)}, gz), c, nil
	default:
		return newStream(&textReader{r: br}), Plain, nil
	}
}

// Open opens a file as a Source. Use "-" for stdin.
func Open(path string) (*Stream, Compression, error) {
	if path == "-" {
		return NewReader(os.Stdin)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, Plain, fmt.Errorf("open bed file: %w", err)
	}

	s, c, err := NewReader(f)
	if err != nil {
		f.Close()
		return nil, c, err
	}
	s.closers = append(s.closers, f)
	return s, c, nil
}

var (
	gzipMagic  = []byte{0x1f, 0x8b}
	bgzfSubfld = []byte{'B', 'C'}
)

// Detect peeks at the head of br and reports its compression. A gzip member
// with the FEXTRA flag and a "BC" subfield is BGZF.
func Detect(br *bufio.Reader) Compression {
	head, _ := br.Peek(16)
	if len(head) < 2 || !bytes.Equal(head[:2], gzipMagic) {
		return Plain
	}
	if len(head) >= 14 && head[3]&0x04 != 0 && bytes.Equal(head[12:14], bgzfSubfld) {
		return BGZF
	}
	return Gzip
}
