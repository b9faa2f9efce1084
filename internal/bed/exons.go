package bed

import (
	"fmt"
	"strconv"
	"strings"
)

// blockGroup holds the raw blockCount, blockSizes and blockStarts columns.
type blockGroup struct {
	count  string
	sizes  string
	starts string
}

// buildExons resolves the block columns of f into absolute exons. Block
// starts are relative to f.Start and are not checked for ordering.
func buildExons(line string, f *Feature, thickStart, thickEnd int64, g blockGroup) ([]Exon, error) {
	count, err := strconv.Atoi(strings.TrimSpace(g.count))
	if err != nil {
		return nil, fieldError(line, blockColumn, "invalid blockCount %q", g.count)
	}
	if count < 1 {
		return nil, blockError(line, blockColumn, "blockCount %d is not positive", count)
	}

	sizes, err := parseBlockList(line, blockColumn+1, "blockSizes", g.sizes, count)
	if err != nil {
		return nil, err
	}
	starts, err := parseBlockList(line, blockColumn+2, "blockStarts", g.starts, count)
	if err != nil {
		return nil, err
	}

	exons := make([]Exon, count)
	for i := range exons {
		if sizes[i] < 1 {
			return nil, fieldError(line, blockColumn+1, "block %d has size %d", i+1, sizes[i])
		}
		e := &exons[i]
		e.Start = f.Start + starts[i]
		e.End = e.Start + sizes[i] - 1
		if f.Strand == StrandNegative {
			e.Number = count - i
		} else {
			e.Number = i + 1
		}
		e.CDStart = max(e.Start, thickStart)
		e.CDEnd = min(e.End, thickEnd)
		e.CodingLength = max(0, e.CDEnd-e.CDStart+1)
		e.Frame = -1
	}

	assignFrames(exons, f.Strand)
	return exons, nil
}

// assignFrames sets the reading frame of each coding exon from the coding
// length preceding it in transcript order.
func assignFrames(exons []Exon, strand Strand) {
	var cdsPosition int64
	visit := func(e *Exon) {
		if !e.IsCoding() {
			return
		}
		e.Frame = int(cdsPosition % 3)
		cdsPosition += e.CodingLength
	}
	if strand == StrandNegative {
		for i := len(exons) - 1; i >= 0; i-- {
			visit(&exons[i])
		}
		return
	}
	for i := range exons {
		visit(&exons[i])
	}
}

func parseBlockList(line string, col int, label, tok string, count int) ([]int64, error) {
	parts := splitList(tok)
	if len(parts) != count {
		return nil, blockError(line, col, "%s has %d entries, blockCount is %d", label, len(parts), count)
	}
	values := make([]int64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return nil, fieldError(line, col, "invalid %s entry %q", label, p)
		}
		values[i] = v
	}
	return values, nil
}

func blockError(line string, column int, format string, args ...any) *FormatError {
	return &FormatError{
		Line:   line,
		Column: column,
		Kind:   KindBlockGroup,
		Reason: fmt.Sprintf(format, args...),
	}
}
