package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vibe-bed/internal/bed"
)

func names(features []*bed.Feature) []string {
	var out []string
	for _, f := range features {
		out = append(out, f.Name)
	}
	return out
}

func buildTestIndex(t *testing.T) *Index {
	t.Helper()
	features := []*bed.Feature{
		{Contig: "chr1", Start: 100, End: 300, Name: "A"},
		{Contig: "chr1", Start: 150, End: 250, Name: "B"},
		{Contig: "chr1", Start: 200, End: 400, Name: "C"},
		{Contig: "chr1", Start: 500, End: 500, Name: "point"},
		{Contig: "chr2", Start: 100, End: 200, Name: "D"},
	}
	idx, err := Build(features)
	require.NoError(t, err)
	return idx
}

func TestBuild_Empty(t *testing.T) {
	idx, err := Build(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, idx.Len())
	assert.Empty(t, idx.Contigs())
	assert.Empty(t, idx.At("chr1", 100))
}

func TestIndex_At(t *testing.T) {
	idx := buildTestIndex(t)

	tests := []struct {
		contig string
		pos    int64
		want   []string
	}{
		{"chr1", 175, []string{"A", "B"}},
		{"chr1", 250, []string{"A", "B", "C"}},
		{"chr1", 350, []string{"C"}},
		{"chr1", 100, []string{"A"}},
		{"chr1", 400, []string{"C"}},
		{"chr1", 99, nil},
		{"chr1", 401, nil},
		{"chr1", 500, []string{"point"}},
		{"chr2", 150, []string{"D"}},
		{"chrX", 150, nil},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, names(idx.At(tt.contig, tt.pos)), "%s:%d", tt.contig, tt.pos)
	}
}

func TestIndex_Overlapping(t *testing.T) {
	idx := buildTestIndex(t)

	assert.Equal(t, []string{"A", "B", "C", "point"}, names(idx.Overlapping("chr1", 1, 1000)))
	assert.Equal(t, []string{"C"}, names(idx.Overlapping("chr1", 301, 499)))
	assert.Empty(t, idx.Overlapping("chr1", 401, 499), "gap between C and point")
	assert.Empty(t, idx.Overlapping("chr1", 300, 200), "inverted query")
}

func TestIndex_Metadata(t *testing.T) {
	idx := buildTestIndex(t)
	assert.Equal(t, 5, idx.Len())
	assert.Equal(t, []string{"chr1", "chr2"}, idx.Contigs())
}

func TestIndex_Query(t *testing.T) {
	idx := buildTestIndex(t)

	r, err := ParseRegion("chr1:260-320")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "C"}, names(idx.Query(r)))

	r, err = ParseRegion("chr2")
	require.NoError(t, err)
	assert.Equal(t, []string{"D"}, names(idx.Query(r)))
}

func TestIndex_QueryWholeContigBeyondInt32(t *testing.T) {
	f, err := bed.NewCodec().Decode("chrUn\t3000000000\t3000000100\tfar")
	require.NoError(t, err)
	idx, err := Build([]*bed.Feature{f})
	require.NoError(t, err)

	r, err := ParseRegion("chrUn")
	require.NoError(t, err)
	assert.Equal(t, []string{"far"}, names(idx.Query(r)))
}

func TestParseRegion(t *testing.T) {
	tests := []struct {
		in      string
		want    Region
		wantErr bool
	}{
		{"chr1:100-200", Region{"chr1", 100, 200}, false},
		{"chr1:1,000-2,000", Region{"chr1", 1000, 2000}, false},
		{"chr1:100", Region{"chr1", 100, 100}, false},
		{"chr1", Region{"chr1", 1, ContigEnd}, false},
		{"", Region{}, true},
		{":100-200", Region{}, true},
		{"chr1:0-10", Region{}, true},
		{"chr1:200-100", Region{}, true},
		{"chr1:abc", Region{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRegion(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRegion_String(t *testing.T) {
	assert.Equal(t, "chr1:100-200", Region{"chr1", 100, 200}.String())
	assert.Equal(t, "chr1", Region{"chr1", 1, ContigEnd}.String())
}
