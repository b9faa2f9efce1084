// Package index provides in-memory overlap queries over decoded BED features.
package index

import (
	"fmt"
	"sort"

	"github.com/biogo/store/interval"

	"github.com/inodb/vibe-bed/internal/bed"
)

// Index holds one interval tree per contig. Features are loaded once and the
// index is read-only after Build.
type Index struct {
	trees map[string]*interval.IntTree
	count int
}

// entry adapts a feature to interval.IntInterface. Features are 1-based
// closed; tree ranges are half-open, so End is shifted by one.
type entry struct {
	uid     uintptr
	feature *bed.Feature
}

func (e entry) Overlap(b interval.IntRange) bool {
	r := e.Range()
	return r.End > b.Start && r.Start < b.End
}

func (e entry) ID() uintptr { return e.uid }

func (e entry) Range() interval.IntRange {
	return interval.IntRange{Start: int(e.feature.Start), End: int(e.feature.End) + 1}
}

// query is a closed 1-based range used to search a tree.
type query struct {
	start, end int64
}

func (q query) Overlap(b interval.IntRange) bool {
	return int64(b.End) > q.start && int64(b.Start) <= q.end
}

// Build creates an index from features.
func Build(features []*bed.Feature) (*Index, error) {
	idx := &Index{trees: make(map[string]*interval.IntTree)}
	for i, f := range features {
		tree, ok := idx.trees[f.Contig]
		if !ok {
			tree = &interval.IntTree{}
			idx.trees[f.Contig] = tree
		}
		if err := tree.Insert(entry{uid: uintptr(i), feature: f}, true); err != nil {
			return nil, fmt.Errorf("index feature %s:%d-%d: %w", f.Contig, f.Start, f.End, err)
		}
		idx.count++
	}
	for _, tree := range idx.trees {
		tree.AdjustRanges()
	}
	return idx, nil
}

// Overlapping returns the features on contig that share at least one base
// with the closed 1-based range [start, end], ordered by start then end.
func (idx *Index) Overlapping(contig string, start, end int64) []*bed.Feature {
	tree, ok := idx.trees[contig]
	if !ok || end < start {
		return nil
	}

	hits := tree.Get(query{start: start, end: end})
	if len(hits) == 0 {
		return nil
	}
	sort.Slice(hits, func(i, j int) bool {
		a, b := hits[i].(entry), hits[j].(entry)
		if a.feature.Start != b.feature.Start {
			return a.feature.Start < b.feature.Start
		}
		if a.feature.End != b.feature.End {
			return a.feature.End < b.feature.End
		}
		return a.uid < b.uid
	})

	result := make([]*bed.Feature, len(hits))
	for i, h := range hits {
		result[i] = h.(entry).feature
	}
	return result
}

// At returns the features that contain pos.
func (idx *Index) At(contig string, pos int64) []*bed.Feature {
	return idx.Overlapping(contig, pos, pos)
}

// Query returns the features overlapping a parsed region.
func (idx *Index) Query(r Region) []*bed.Feature {
	return idx.Overlapping(r.Contig, r.Start, r.End)
}

// Contigs returns a sorted list of contigs in the index.
func (idx *Index) Contigs() []string {
	contigs := make([]string, 0, len(idx.trees))
	for c := range idx.trees {
		contigs = append(contigs, c)
	}
	sort.Strings(contigs)
	return contigs
}

// Len returns the number of indexed features.
func (idx *Index) Len() int {
	return idx.count
}
