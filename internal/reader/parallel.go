package reader

import (
	"fmt"
	"io"
	"runtime"
	"sync"

	"github.com/inodb/vibe-bed/internal/bed"
)

// WorkItem holds a raw line ready for decoding.
type WorkItem struct {
	Seq        int
	LineNumber int
	Line       string
}

// WorkResult holds the decode output for a single line.
type WorkResult struct {
	Seq        int
	LineNumber int
	Feature    *bed.Feature
	Err        error
}

// ParallelDecode decodes work items using a pool of workers.
// Results are sent to the returned channel in arrival order (not sequence order).
// Use OrderedCollect to consume results in sequence-number order.
// If workers is 0, runtime.NumCPU() is used.
func ParallelDecode(codec *bed.Codec, items <-chan WorkItem, workers int) <-chan WorkResult {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make(chan WorkResult, 2*workers)

	var wg sync.WaitGroup
	wg.Add(workers)

	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for item := range items {
				f, err := codec.Decode(item.Line)
				results <- WorkResult{
					Seq:        item.Seq,
					LineNumber: item.LineNumber,
					Feature:    f,
					Err:        err,
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}

// OrderedCollect calls fn for each result in file order. Results that arrive
// ahead of the next expected sequence number wait in a reorder buffer. When
// fn fails the remaining results are drained so that decode workers can exit.
// It returns an error if the channel closes with a sequence number missing.
func OrderedCollect(results <-chan WorkResult, fn func(WorkResult) error) error {
	waiting := make(map[int]WorkResult)
	next := 0

	release := func() error {
		for {
			r, ok := waiting[next]
			if !ok {
				return nil
			}
			delete(waiting, next)
			next++
			if err := fn(r); err != nil {
				return err
			}
		}
	}

	for r := range results {
		waiting[r.Seq] = r
		if r.Seq != next {
			continue
		}
		if err := release(); err != nil {
			for range results {
			}
			return err
		}
	}

	if len(waiting) > 0 {
		return fmt.Errorf("decode results incomplete: line sequence %d missing, %d results held", next, len(waiting))
	}
	return nil
}

// ForEach decodes the remaining lines with a pool of workers and calls fn
// for each feature in file order. The first malformed line stops iteration
// exactly as Next does, unless the Reader is lenient. Do not mix ForEach and
// Next on the same Reader.
func (r *Reader) ForEach(workers int, fn func(*bed.Feature) error) error {
	if r.err != nil {
		return r.err
	}

	items := make(chan WorkItem, 2*max(workers, runtime.NumCPU()))
	stop := make(chan struct{})
	var once sync.Once
	halt := func() { once.Do(func() { close(stop) }) }
	var readErr error

	go func() {
		defer close(items)
		for seq := 0; ; seq++ {
			line, err := r.src.Next()
			if err == io.EOF {
				return
			}
			if err != nil {
				readErr = fmt.Errorf("read bed line: %w", err)
				return
			}
			select {
			case items <- WorkItem{Seq: seq, LineNumber: r.src.LineNumber(), Line: line}:
			case <-stop:
				return
			}
		}
	}()

	results := ParallelDecode(r.codec, items, workers)

	err := OrderedCollect(results, func(res WorkResult) error {
		if res.Err != nil {
			if err := r.reject(res.LineNumber, res.Err); err != nil {
				halt()
				return err
			}
			return nil
		}
		if err := fn(res.Feature); err != nil {
			halt()
			r.err = err
			return err
		}
		return nil
	})
	halt()
	if err != nil {
		return err
	}

	if readErr != nil {
		r.err = readErr
		return readErr
	}
	return nil
}
