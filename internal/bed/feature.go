// Package bed decodes BED interval records into features.
package bed

import "math"

// Strand is the orientation of a feature on its contig.
type Strand int8

const (
	StrandNone     Strand = 0
	StrandPositive Strand = 1
	StrandNegative Strand = -1
)

// String returns the BED symbol for the strand.
func (s Strand) String() string {
	switch s {
	case StrandPositive:
		return "+"
	case StrandNegative:
		return "-"
	default:
		return "."
	}
}

// Color is a display color from the itemRgb column.
// The zero value is unset, which renders as black.
type Color struct {
	R, G, B uint8
	Set     bool
}

// Kind is the capability tier of a decoded feature.
type Kind int

const (
	KindSimple Kind = iota // contig, start, end
	KindBED                // plus name, score, strand, color
	KindFull               // plus thick range and exons
)

func (k Kind) String() string {
	switch k {
	case KindSimple:
		return "simple"
	case KindBED:
		return "bed"
	case KindFull:
		return "full"
	default:
		return "unknown"
	}
}

// Exon represents a single block of a multi-part feature.
type Exon struct {
	Number       int   // Transcript-order exon number (1-based)
	Start        int64 // Genomic start (1-based)
	End          int64 // Genomic end (1-based, inclusive)
	CDStart      int64 // Start clipped to the thick range
	CDEnd        int64 // End clipped to the thick range, < CDStart if no overlap
	CodingLength int64 // max(0, CDEnd-CDStart+1)
	Frame        int   // Reading frame (0, 1, or 2), -1 if non-coding
}

// IsCoding returns true if the exon overlaps the thick range.
func (e *Exon) IsCoding() bool {
	return e.CodingLength > 0
}

// Length returns the number of bases covered by the exon.
func (e *Exon) Length() int64 {
	return e.End - e.Start + 1
}

// Feature is one decoded BED record. Coordinates are 1-based and inclusive.
type Feature struct {
	Contig     string
	Start      int64
	End        int64
	Name       string
	Score      float64 // NaN when the score column is absent
	Strand     Strand
	Color      Color
	ThickStart int64  // 0 unless Kind() == KindFull
	ThickEnd   int64  // 0 unless Kind() == KindFull
	Exons      []Exon // Genomic order
	Columns    int    // Number of columns decoded
}

// Kind reports which tier of fields the feature carries.
func (f *Feature) Kind() Kind {
	switch {
	case f.Exons != nil:
		return KindFull
	case f.Columns > 3:
		return KindBED
	default:
		return KindSimple
	}
}

// HasName returns true if the name column was present.
func (f *Feature) HasName() bool {
	return f.Columns > 3
}

// HasScore returns true if the score column was present.
func (f *Feature) HasScore() bool {
	return !math.IsNaN(f.Score)
}

// HasStrand returns true if the strand column was present.
func (f *Feature) HasStrand() bool {
	return f.Columns > 5
}

// Length returns the number of bases spanned by the feature.
func (f *Feature) Length() int64 {
	return f.End - f.Start + 1
}

// Contains returns true if the given position is within the feature boundaries.
func (f *Feature) Contains(pos int64) bool {
	return pos >= f.Start && pos <= f.End
}

// CodingLength returns the total coding length over all exons.
func (f *Feature) CodingLength() int64 {
	var n int64
	for i := range f.Exons {
		n += f.Exons[i].CodingLength
	}
	return n
}
