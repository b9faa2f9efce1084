package index

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ContigEnd is the End of a region that runs to the end of its contig.
const ContigEnd int64 = math.MaxInt64

// Region is a closed 1-based range on a contig.
type Region struct {
	Contig string
	Start  int64
	End    int64
}

func (r Region) String() string {
	if r.Start == 1 && r.End == ContigEnd {
		return r.Contig
	}
	return fmt.Sprintf("%s:%d-%d", r.Contig, r.Start, r.End)
}

// ParseRegion parses a region string of one of the forms
//
//	[contig]:[1-based first pos]-[last pos]
//	[contig]:[1-based pos]
//	[contig]
//
// A bare contig covers the whole contig. Thousands separators are accepted.
func ParseRegion(s string) (Region, error) {
	if s == "" {
		return Region{}, fmt.Errorf("parse region: empty region string")
	}
	colon := strings.LastIndexByte(s, ':')
	if colon == -1 {
		return Region{Contig: s, Start: 1, End: ContigEnd}, nil
	}
	if colon == 0 {
		return Region{}, fmt.Errorf("parse region %q: empty contig", s)
	}

	r := Region{Contig: s[:colon]}
	rangeStr := strings.ReplaceAll(s[colon+1:], ",", "")
	startStr, endStr, hasEnd := strings.Cut(rangeStr, "-")

	start, err := parsePosition(startStr)
	if err != nil {
		return Region{}, fmt.Errorf("parse region %q: %w", s, err)
	}
	r.Start, r.End = start, start
	if !hasEnd {
		return r, nil
	}

	end, err := parsePosition(endStr)
	if err != nil {
		return Region{}, fmt.Errorf("parse region %q: %w", s, err)
	}
	if end < start {
		return Region{}, fmt.Errorf("parse region %q: end %d before start %d", s, end, start)
	}
	r.End = end
	return r, nil
}

func parsePosition(s string) (int64, error) {
	pos, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid position %q", s)
	}
	if pos <= 0 {
		return 0, fmt.Errorf("position %d out of range", pos)
	}
	return pos, nil
}
