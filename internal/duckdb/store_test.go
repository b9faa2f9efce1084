package duckdb

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vibe-bed/internal/bed"
)

func openInMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open("")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func decodeAll(t *testing.T, lines ...string) []*bed.Feature {
	t.Helper()
	codec := bed.NewCodec()
	var features []*bed.Feature
	for _, line := range lines {
		f, err := codec.Decode(line)
		require.NoError(t, err)
		features = append(features, f)
	}
	return features
}

func testFeatures(t *testing.T) []*bed.Feature {
	return decodeAll(t,
		"chr22\t1000\t5000\tcloneA\t960\t+\t1000\t5000\t0\t2\t567,488,\t0,3512",
		"chr22\t2000\t6000\tcloneB\t900\t-\t2000\t6000\t0\t2\t433,399,\t0,3601",
		"chr22\t7000\t9000\tcloneC\t500\t+\t7200\t8800\t255,0,0\t3\t300,400,500,\t0,900,1500,",
		"chr21\t100\t900\tregion1\t0\t.",
		"chr21\t2000\t3000",
	)
}

// --- Feature store tests (DuckDB) ---

func TestOpenClose(t *testing.T) {
	s := openInMemory(t)
	assert.NotNil(t, s.DB())
	assert.Equal(t, "", s.Path())
}

func TestOpen_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "features.duckdb")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = os.Stat(filepath.Dir(path))
	assert.NoError(t, err)
}

func TestWriteAndQueryFeatures(t *testing.T) {
	s := openInMemory(t)
	want := testFeatures(t)
	require.NoError(t, s.WriteFeatures("genes.bed", want))

	n, err := s.FeatureCount()
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)

	got, err := s.QueryRegion("chr22", 1, 10000)
	require.NoError(t, err)
	require.Len(t, got, 3)

	for i, f := range got {
		assert.Equal(t, want[i].Contig, f.Contig)
		assert.Equal(t, want[i].Start, f.Start)
		assert.Equal(t, want[i].End, f.End)
		assert.Equal(t, want[i].Name, f.Name)
		assert.Equal(t, want[i].Score, f.Score)
		assert.Equal(t, want[i].Strand, f.Strand)
		assert.Equal(t, want[i].Color, f.Color)
		assert.Equal(t, want[i].ThickStart, f.ThickStart)
		assert.Equal(t, want[i].ThickEnd, f.ThickEnd)
		assert.Equal(t, want[i].Exons, f.Exons)
		assert.Equal(t, bed.KindFull, f.Kind())
	}
	assert.Equal(t, bed.Color{R: 255, Set: true}, got[2].Color)
}

func TestQueryRegion_Tiers(t *testing.T) {
	s := openInMemory(t)
	require.NoError(t, s.WriteFeatures("genes.bed", testFeatures(t)))

	got, err := s.QueryRegion("chr21", 1, 5000)
	require.NoError(t, err)
	require.Len(t, got, 2)

	region := got[0]
	assert.Equal(t, "region1", region.Name)
	assert.Equal(t, bed.KindBED, region.Kind())
	assert.Equal(t, bed.StrandNone, region.Strand)
	assert.Equal(t, 0.0, region.Score)
	assert.Nil(t, region.Exons)

	simple := got[1]
	assert.Equal(t, bed.KindSimple, simple.Kind())
	assert.Equal(t, int64(2001), simple.Start)
	assert.True(t, math.IsNaN(simple.Score))
	assert.False(t, simple.HasName())
}

func TestQueryRegion_Overlap(t *testing.T) {
	s := openInMemory(t)
	require.NoError(t, s.WriteFeatures("genes.bed", testFeatures(t)))

	tests := []struct {
		name       string
		start, end int64
		want       []string
	}{
		{"inside A only", 1001, 1999, []string{"cloneA"}},
		{"A and B", 4000, 4500, []string{"cloneA", "cloneB"}},
		{"end boundary inclusive", 5000, 5000, []string{"cloneA", "cloneB"}},
		{"start boundary inclusive", 7001, 7001, []string{"cloneC"}},
		{"gap", 6001, 7000, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.QueryRegion("chr22", tt.start, tt.end)
			require.NoError(t, err)
			var names []string
			for _, f := range got {
				names = append(names, f.Name)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestWriteFeatures_Appends(t *testing.T) {
	s := openInMemory(t)
	require.NoError(t, s.WriteFeatures("a.bed", testFeatures(t)))
	require.NoError(t, s.WriteFeatures("b.bed", testFeatures(t)))
	require.NoError(t, s.WriteFeatures("c.bed", nil))

	n, err := s.FeatureCount()
	require.NoError(t, err)
	assert.Equal(t, int64(10), n)

	got, err := s.QueryRegion("chr22", 7001, 7001)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Len(t, got[0].Exons, 3)
	assert.Len(t, got[1].Exons, 3)
}

func TestClearFeatures(t *testing.T) {
	s := openInMemory(t)
	require.NoError(t, s.WriteFeatures("genes.bed", testFeatures(t)))
	require.NoError(t, s.ClearFeatures())

	n, err := s.FeatureCount()
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestSources(t *testing.T) {
	s := openInMemory(t)
	now := time.Now()
	fp := FileFingerprint{Path: "/data/genes.bed", Size: 1000, ModTime: now}

	loaded, err := s.SourceLoaded(fp, false)
	require.NoError(t, err)
	assert.False(t, loaded)

	require.NoError(t, s.WriteFeatures(fp.Path, testFeatures(t)))
	require.NoError(t, s.RecordSource(fp, 5, 0))

	loaded, err = s.SourceLoaded(fp, false)
	require.NoError(t, err)
	assert.True(t, loaded)

	changed := fp
	changed.ModTime = now.Add(time.Hour)
	loaded, err = s.SourceLoaded(changed, false)
	require.NoError(t, err)
	assert.False(t, loaded)

	// Re-recording replaces the earlier row.
	require.NoError(t, s.RecordSource(changed, 5, 0))
	loaded, err = s.SourceLoaded(changed, false)
	require.NoError(t, err)
	assert.True(t, loaded)

	require.NoError(t, s.RemoveSource(fp.Path))
	n, err := s.FeatureCount()
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
	loaded, err = s.SourceLoaded(changed, false)
	require.NoError(t, err)
	assert.False(t, loaded)
}

func TestSources_SkippedLinesNeedLenient(t *testing.T) {
	s := openInMemory(t)
	fp := FileFingerprint{Path: "/data/malformed.bed", Size: 1000, ModTime: time.Now()}
	require.NoError(t, s.RecordSource(fp, 33, 1))

	loaded, err := s.SourceLoaded(fp, true)
	require.NoError(t, err)
	assert.True(t, loaded)

	loaded, err = s.SourceLoaded(fp, false)
	require.NoError(t, err)
	assert.False(t, loaded)
}

func TestStatFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.bed")
	require.NoError(t, os.WriteFile(path, []byte("chr1\t0\t10\n"), 0644))

	fp, err := StatFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, fp.Path)
	assert.Equal(t, int64(10), fp.Size)

	_, err = StatFile(filepath.Join(t.TempDir(), "missing.bed"))
	assert.Error(t, err)
}

// --- Feature cache tests (gob) ---

func TestFeatureCacheWriteAndLoad(t *testing.T) {
	fc := NewFeatureCache(t.TempDir())
	fp := FileFingerprint{Path: "/data/genes.bed", Size: 1000, ModTime: time.Now()}
	want := testFeatures(t)

	require.NoError(t, fc.Write(fp, want))

	got, err := fc.Load(fp)
	require.NoError(t, err)
	require.Len(t, got, len(want))

	assert.Equal(t, want[0].Exons, got[0].Exons)
	assert.Equal(t, bed.KindFull, got[0].Kind())
	assert.Equal(t, bed.KindBED, got[3].Kind())
	assert.Equal(t, bed.KindSimple, got[4].Kind())
	assert.True(t, math.IsNaN(got[4].Score))
	assert.Equal(t, bed.StrandNegative, got[1].Strand)
}

func TestFeatureCacheValidation(t *testing.T) {
	fc := NewFeatureCache(t.TempDir())
	now := time.Now()
	fp := FileFingerprint{Path: "/data/genes.bed", Size: 1000, ModTime: now}

	// No cache yet → invalid
	assert.False(t, fc.Valid(fp))

	require.NoError(t, fc.Write(fp, testFeatures(t)))
	assert.True(t, fc.Valid(fp))

	sizeChanged := fp
	sizeChanged.Size = 9999
	assert.False(t, fc.Valid(sizeChanged))

	timeChanged := fp
	timeChanged.ModTime = now.Add(time.Hour)
	assert.False(t, fc.Valid(timeChanged))

	fc.Clear(fp)
	assert.False(t, fc.Valid(fp))
}
