package bed

import (
	"math"
	"strconv"
	"strings"
)

const (
	// minColumns is the fewest columns a record may carry; end defaults to start.
	minColumns = 2
	// maxColumns is BED12. Additional columns are ignored.
	maxColumns = 12
	// blockColumn is the 1-based column of blockCount.
	blockColumn = 10
)

// decoder holds the state of one Decode call.
type decoder struct {
	line       string
	f          *Feature
	thickStart int64
	thickEnd   int64
}

// stage decodes a single column. col is 1-based.
type stage func(d *decoder, col int, tok string) error

// stages lists the per-column decoders for columns 1..9 in file order. The
// block group (columns 10..12) is decoded as a unit by buildExons.
var stages = [...]stage{
	(*decoder).contig,
	(*decoder).start,
	(*decoder).end,
	(*decoder).name,
	(*decoder).score,
	(*decoder).strand,
	(*decoder).thickStartCol,
	(*decoder).thickEndCol,
	(*decoder).color,
}

func (d *decoder) contig(col int, tok string) error {
	if tok == "" {
		return fieldError(d.line, col, "empty contig")
	}
	d.f.Contig = tok
	return nil
}

// start converts the 0-based start into the 1-based closed convention.
// End defaults to the normalized start until column 3 is seen.
func (d *decoder) start(col int, tok string) error {
	start0, err := parseCoordinate(tok)
	if err != nil {
		return fieldError(d.line, col, "invalid start %q", tok)
	}
	d.f.Start = start0 + 1
	d.f.End = d.f.Start
	return nil
}

func (d *decoder) end(col int, tok string) error {
	end, err := parseCoordinate(tok)
	if err != nil {
		return fieldError(d.line, col, "invalid end %q", tok)
	}
	if end < d.f.Start {
		return fieldError(d.line, col, "end %d before start %d", end, d.f.Start)
	}
	d.f.End = end
	return nil
}

func (d *decoder) name(_ int, tok string) error {
	d.f.Name = strings.ReplaceAll(tok, `"`, "")
	return nil
}

func (d *decoder) score(col int, tok string) error {
	score, err := strconv.ParseFloat(tok, 64)
	if err != nil || math.IsNaN(score) || math.IsInf(score, 0) {
		return fieldError(d.line, col, "invalid score %q", tok)
	}
	d.f.Score = score
	return nil
}

func (d *decoder) strand(col int, tok string) error {
	switch tok {
	case "+":
		d.f.Strand = StrandPositive
	case "-":
		d.f.Strand = StrandNegative
	case ".":
		d.f.Strand = StrandNone
	default:
		return fieldError(d.line, col, "invalid strand %q", tok)
	}
	return nil
}

func (d *decoder) thickStartCol(col int, tok string) error {
	thickStart0, err := parseCoordinate(tok)
	if err != nil {
		return fieldError(d.line, col, "invalid thickStart %q", tok)
	}
	d.thickStart = thickStart0 + 1
	return nil
}

func (d *decoder) thickEndCol(col int, tok string) error {
	thickEnd, err := parseCoordinate(tok)
	if err != nil {
		return fieldError(d.line, col, "invalid thickEnd %q", tok)
	}
	d.thickEnd = thickEnd
	return nil
}

func (d *decoder) color(col int, tok string) error {
	c, err := parseColor(tok)
	if err != nil {
		return fieldError(d.line, col, "invalid itemRgb %q", tok)
	}
	d.f.Color = c
	return nil
}

// parseCoordinate parses a non-negative integer coordinate.
func parseCoordinate(tok string) (int64, error) {
	v, err := strconv.ParseInt(tok, 10, 64)
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, strconv.ErrRange
	}
	return v, nil
}

// parseColor parses an itemRgb column. "" and "0" leave the color unset;
// otherwise up to three components are read and missing ones default to 0.
func parseColor(tok string) (Color, error) {
	if tok == "" || tok == "0" {
		return Color{}, nil
	}
	parts := splitList(tok)
	if len(parts) == 0 || len(parts) > 3 {
		return Color{}, strconv.ErrSyntax
	}
	var rgb [3]uint8
	for i, p := range parts {
		v, err := strconv.ParseUint(strings.TrimSpace(p), 10, 8)
		if err != nil {
			return Color{}, err
		}
		rgb[i] = uint8(v)
	}
	return Color{R: rgb[0], G: rgb[1], B: rgb[2], Set: true}, nil
}

// splitList splits a comma separated column, dropping the empty entry left
// by a trailing comma.
func splitList(tok string) []string {
	if tok == "" {
		return nil
	}
	parts := strings.Split(tok, ",")
	if parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	return parts
}
