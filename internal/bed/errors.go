package bed

import (
	"errors"
	"fmt"
)

// ErrorKind classifies decode failures.
type ErrorKind int

const (
	// KindTokenCount: too few columns on a record line.
	KindTokenCount ErrorKind = iota
	// KindFieldFormat: a column fails its syntax.
	KindFieldFormat
	// KindBlockGroup: blockCount/blockSizes/blockStarts incomplete or inconsistent.
	KindBlockGroup
	// KindNotRecord: empty, comment, track or browser line.
	KindNotRecord
)

// Sentinels for errors.Is matching against a *FormatError.
var (
	ErrTokenCount  = errors.New("too few columns")
	ErrFieldFormat = errors.New("malformed column")
	ErrBlockGroup  = errors.New("inconsistent block columns")
	ErrNotRecord   = errors.New("not a record line")
)

func (k ErrorKind) sentinel() error {
	switch k {
	case KindTokenCount:
		return ErrTokenCount
	case KindFieldFormat:
		return ErrFieldFormat
	case KindBlockGroup:
		return ErrBlockGroup
	default:
		return ErrNotRecord
	}
}

// FormatError reports a line that could not be decoded.
type FormatError struct {
	Line   string    // Raw line content
	Column int       // 1-based column, 0 when not column specific
	Kind   ErrorKind
	Reason string
}

func (e *FormatError) Error() string {
	if e.Column > 0 {
		return fmt.Sprintf("bed decode error at column %d: %s: %q", e.Column, e.Reason, e.Line)
	}
	return fmt.Sprintf("bed decode error: %s: %q", e.Reason, e.Line)
}

// Unwrap exposes the sentinel for the error kind.
func (e *FormatError) Unwrap() error {
	return e.Kind.sentinel()
}

func fieldError(line string, column int, format string, args ...any) *FormatError {
	return &FormatError{
		Line:   line,
		Column: column,
		Kind:   KindFieldFormat,
		Reason: fmt.Sprintf(format, args...),
	}
}
