package reader

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/biogo/hts/bgzf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/inodb/vibe-bed/internal/bed"
	"github.com/inodb/vibe-bed/internal/linesource"
)

func testdata(name string) string {
	return filepath.Join("..", "..", "testdata", name)
}

func openTestFile(t *testing.T, name string, opts Options) *Reader {
	t.Helper()
	r, err := Open(testdata(name), opts)
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func TestReader_Deletions(t *testing.T) {
	r := openTestFile(t, "deletions.bed", Options{})
	assert.Equal(t, bgzf.Offset{}, r.HeaderOffset())
	assert.Equal(t, linesource.Plain, r.Compression())

	features, err := ReadAll(r)
	require.NoError(t, err)
	require.Len(t, features, 34)

	tests := []struct {
		index  int
		contig string
		start  int64
		end    int64
	}{
		{0, "1", 25592414, 25657872},
		{3, "1", 152555537, 152587611},
		{28, "14", 73996608, 74025282},
	}
	for _, tt := range tests {
		f := features[tt.index]
		assert.Equal(t, tt.contig, f.Contig, "feature %d", tt.index)
		assert.Equal(t, tt.start, f.Start, "feature %d", tt.index)
		assert.Equal(t, tt.end, f.End, "feature %d", tt.index)
		assert.Equal(t, bed.KindSimple, f.Kind())
	}

	// Exhausted reader keeps returning nil, nil.
	f, err := r.Next()
	assert.NoError(t, err)
	assert.Nil(t, f)
}

func TestReader_MalformedStops(t *testing.T) {
	r := openTestFile(t, "deletions_malformed.bed", Options{})

	features, err := ReadAll(r)
	require.Error(t, err)
	assert.Len(t, features, 31)

	var lineErr *LineError
	require.ErrorAs(t, err, &lineErr)
	assert.Equal(t, 32, lineErr.Line)
	assert.ErrorIs(t, err, bed.ErrFieldFormat)

	// The failure is sticky: no later feature is ever returned.
	f, err2 := r.Next()
	assert.Nil(t, f)
	assert.Equal(t, err, err2)
}

func TestReader_Lenient(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	r := openTestFile(t, "deletions_malformed.bed", Options{Lenient: true, Logger: zap.New(core)})

	features, err := ReadAll(r)
	require.NoError(t, err)
	assert.Len(t, features, 33)
	assert.Equal(t, 1, r.Skipped())

	entries := logs.FilterMessage("skipping malformed bed line").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(32), entries[0].ContextMap()["line"])
}

func TestReader_TrackHeader(t *testing.T) {
	r := openTestFile(t, "genes.bed", Options{})
	assert.Equal(t, bgzf.Offset{File: int64(len("track name=genes description=\"UCSC example\" itemRgb=On\n"))}, r.HeaderOffset())

	features, err := ReadAll(r)
	require.NoError(t, err)
	require.Len(t, features, 4)

	assert.Equal(t, "cloneA", features[0].Name)
	assert.Equal(t, bed.KindFull, features[0].Kind())
	assert.Equal(t, bed.KindBED, features[3].Kind())
	assert.Equal(t, 5, r.LineNumber())
}

func bgzfFile(t *testing.T, content string) string {
	t.Helper()
	var buf bytes.Buffer
	w := bgzf.NewWriter(&buf, 1)
	_, err := w.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	path := filepath.Join(t.TempDir(), "x.bed.gz")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
	return path
}

func TestReader_BGZFHeaderOffset(t *testing.T) {
	body := "chr1\t100\t200\tA\nchr1\t300\t400\tB\n"

	tests := []struct {
		name    string
		content string
		want    bgzf.Offset
	}{
		{"no header", body, bgzf.Offset{}},
		{"track header", "track x=1\n" + body, bgzf.Offset{Block: 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Open(bgzfFile(t, tt.content), Options{})
			require.NoError(t, err)
			defer r.Close()

			assert.Equal(t, linesource.BGZF, r.Compression())
			assert.Equal(t, tt.want, r.HeaderOffset())

			features, err := ReadAll(r)
			require.NoError(t, err)
			require.Len(t, features, 2)
			assert.Equal(t, "A", features[0].Name)
			assert.Equal(t, int64(101), features[0].Start)
		})
	}
}

func TestReader_Empty(t *testing.T) {
	r, err := New(linesource.NewText(strings.NewReader("")), Options{})
	require.NoError(t, err)
	assert.Equal(t, bgzf.Offset{}, r.HeaderOffset())

	f, err := r.Next()
	assert.NoError(t, err)
	assert.Nil(t, f)
}

func TestForEach_MatchesSequential(t *testing.T) {
	want, err := ReadAll(openTestFile(t, "deletions.bed", Options{}))
	require.NoError(t, err)

	for _, workers := range []int{1, 2, 8} {
		r := openTestFile(t, "deletions.bed", Options{})
		var got []*bed.Feature
		err := r.ForEach(workers, func(f *bed.Feature) error {
			got = append(got, f)
			return nil
		})
		require.NoError(t, err)
		assertSameFeatures(t, want, got, "workers=%d", workers)
	}
}

// assertSameFeatures compares feature lists field by field. An absent score
// is NaN, which never equals itself, so scores are compared by presence.
func assertSameFeatures(t *testing.T, want, got []*bed.Feature, msgAndArgs ...any) {
	t.Helper()
	require.Len(t, got, len(want), msgAndArgs...)
	for i := range want {
		w, g := *want[i], *got[i]
		assert.Equal(t, w.HasScore(), g.HasScore(), msgAndArgs...)
		if !w.HasScore() && !g.HasScore() {
			w.Score, g.Score = 0, 0
		}
		assert.Equal(t, w, g, msgAndArgs...)
	}
}

func TestForEach_StopsAtMalformed(t *testing.T) {
	r := openTestFile(t, "deletions_malformed.bed", Options{})

	var n int
	err := r.ForEach(4, func(*bed.Feature) error {
		n++
		return nil
	})
	var lineErr *LineError
	require.ErrorAs(t, err, &lineErr)
	assert.Equal(t, 32, lineErr.Line)
	assert.Equal(t, 31, n)
}

func TestForEach_Lenient(t *testing.T) {
	r := openTestFile(t, "deletions_malformed.bed", Options{Lenient: true})

	var n int
	require.NoError(t, r.ForEach(4, func(*bed.Feature) error {
		n++
		return nil
	}))
	assert.Equal(t, 33, n)
	assert.Equal(t, 1, r.Skipped())
}

func TestForEach_CallbackError(t *testing.T) {
	r := openTestFile(t, "deletions.bed", Options{})
	stop := errors.New("stop")

	var n int
	err := r.ForEach(4, func(*bed.Feature) error {
		n++
		if n == 5 {
			return stop
		}
		return nil
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 5, n)
}

func TestOrderedCollect(t *testing.T) {
	results := make(chan WorkResult, 5)
	for _, seq := range []int{2, 0, 4, 1, 3} {
		results <- WorkResult{Seq: seq}
	}
	close(results)

	var order []int
	err := OrderedCollect(results, func(r WorkResult) error {
		order = append(order, r.Seq)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestOrderedCollect_MissingSequence(t *testing.T) {
	results := make(chan WorkResult, 3)
	for _, seq := range []int{0, 2, 3} {
		results <- WorkResult{Seq: seq}
	}
	close(results)

	var order []int
	err := OrderedCollect(results, func(r WorkResult) error {
		order = append(order, r.Seq)
		return nil
	})
	require.ErrorContains(t, err, "line sequence 1 missing")
	assert.Equal(t, []int{0}, order)
}
