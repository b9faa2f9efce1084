// Package linesource provides line streams that report the virtual offset of
// the next unread line.
package linesource

import (
	"errors"
	"io"

	"github.com/biogo/hts/bgzf"
)

// Source is a peekable line stream. Position reports the offset of the next
// line Next would return; Peek does not move it.
type Source interface {
	Peek() (string, error)
	Next() (string, error)
	Position() bgzf.Offset
	LineNumber() int
	Close() error
}

// byteReader is the byte stream a Stream reads lines from. Offset is the
// position just after the last byte returned by ReadByte.
type byteReader interface {
	ReadByte() (byte, error)
	Offset() bgzf.Offset
}

// Stream splits a byteReader into lines. Line terminators ("\n" or "\r\n")
// are stripped; a final line without a terminator is returned as is.
type Stream struct {
	r       byteReader
	closers []io.Closer
	buf     []byte

	pos        bgzf.Offset // offset of the next unread line
	lineNumber int

	peeked  bool
	peek    string
	peekEnd bgzf.Offset
	peekErr error
}

func newStream(r byteReader, closers ...io.Closer) *Stream {
	return &Stream{r: r, closers: closers}
}

// Peek returns the next line without consuming it.
func (s *Stream) Peek() (string, error) {
	if !s.peeked {
		s.peek, s.peekEnd, s.peekErr = s.readLine()
		s.peeked = true
	}
	return s.peek, s.peekErr
}

// Next returns the next line. It returns io.EOF when the stream is exhausted.
func (s *Stream) Next() (string, error) {
	line, err := s.Peek()
	if err != nil {
		return "", err
	}
	s.peeked = false
	s.pos = s.peekEnd
	s.lineNumber++
	return line, nil
}

// Position returns the virtual offset of the next unread line.
func (s *Stream) Position() bgzf.Offset {
	return s.pos
}

// LineNumber returns the number of lines consumed by Next.
func (s *Stream) LineNumber() int {
	return s.lineNumber
}

// Close releases the underlying readers.
func (s *Stream) Close() error {
	var errs []error
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Stream) readLine() (string, bgzf.Offset, error) {
	s.buf = s.buf[:0]
	end := s.pos
	for {
		b, err := s.r.ReadByte()
		if err != nil {
			if err == io.EOF && len(s.buf) > 0 {
				return trimCR(s.buf), end, nil
			}
			return "", end, err
		}
		end = s.r.Offset()
		if b == '\n' {
			return trimCR(s.buf), end, nil
		}
		s.buf = append(s.buf, b)
	}
}

func trimCR(b []byte) string {
	if n := len(b); n > 0 && b[n-1] == '\r' {
		b = b[:n-1]
	}
	return string(b)
}
