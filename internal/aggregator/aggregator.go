package aggregator

import (
	"container/heap"
	"errors"
	"iter"
	"maps"
	"slices"
	"sync"

	"github.com/Egor213/LogDash/internal/domain"
	"github.com/Egor213/LogDash/internal/repo/repoerrs"
)

// Rows is a cursor over the normalized rows of one source, already ordered by
// (timestamp, insertion order).
type Rows interface {
	Next() bool
	// Row returns the current event, or an error wrapping
	// repoerrs.ErrMalformedRow when the row could not be normalized.
	Row() (domain.LogEvent, error)
	Err() error
}

// Stats counts rows skipped during a merge.
type Stats struct {
	mu      sync.Mutex
	skipped map[domain.Source]int
}

func (s *Stats) skip(src domain.Source) {
	s.Add(src, 1)
}

// Add records n skipped rows of src.
func (s *Stats) Add(src domain.Source, n int) {
	if n == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.skipped == nil {
		s.skipped = make(map[domain.Source]int)
	}
	s.skipped[src] += n
}

func (s *Stats) Skipped() map[domain.Source]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.skipped)
}

func (s *Stats) SkippedTotal() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, v := range s.skipped {
		total += v
	}
	return total
}

type head struct {
	event  domain.LogEvent
	source domain.Source
	seq    int
	rows   Rows
}

type mergeHeap []*head

func (h mergeHeap) Len() int { return len(h) }

func (h mergeHeap) Less(i, j int) bool {
	a, b := h[i], h[j]
	if !a.event.Timestamp().Equal(b.event.Timestamp()) {
		return a.event.Timestamp().Before(b.event.Timestamp())
	}
	if a.source != b.source {
		return a.source < b.source
	}
	return a.seq < b.seq
}

func (h mergeHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *mergeHeap) Push(x any) { *h = append(*h, x.(*head)) }

func (h *mergeHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return x
}

// Merge lazily merges the cursors into one sequence ordered by timestamp,
// then source name, then position inside the source. Malformed rows are
// skipped and counted in stats, which may be nil. A cursor error is yielded
// once and ends the sequence.
func Merge(rowsBySource map[domain.Source]Rows, stats *Stats) iter.Seq2[domain.LogEvent, error] {
	if stats == nil {
		stats = &Stats{}
	}

	return func(yield func(domain.LogEvent, error) bool) {
		h := make(mergeHeap, 0, len(rowsBySource))

		// sorted so cursor advance order does not depend on map iteration
		sources := slices.Sorted(maps.Keys(rowsBySource))
		for _, src := range sources {
			hd := &head{source: src, rows: rowsBySource[src], seq: -1}
			ok, err := advance(hd, stats)
			if err != nil {
				yield(domain.LogEvent{}, err)
				return
			}
			if ok {
				h = append(h, hd)
			}
		}
		heap.Init(&h)

		for h.Len() > 0 {
			hd := h[0]
			if !yield(hd.event, nil) {
				return
			}

			ok, err := advance(hd, stats)
			if err != nil {
				yield(domain.LogEvent{}, err)
				return
			}
			if ok {
				heap.Fix(&h, 0)
			} else {
				heap.Pop(&h)
			}
		}
	}
}

// advance moves hd to its next well-formed row.
func advance(hd *head, stats *Stats) (bool, error) {
	for hd.rows.Next() {
		hd.seq++
		ev, err := hd.rows.Row()
		if err != nil {
			if errors.Is(err, repoerrs.ErrMalformedRow) {
				stats.skip(hd.source)
				continue
			}
			return false, err
		}
		hd.event = ev
		return true, nil
	}
	return false, hd.rows.Err()
}

// Aggregate merges everything into a slice.
func Aggregate(rowsBySource map[domain.Source]Rows) ([]domain.LogEvent, *Stats, error) {
	stats := &Stats{}
	var events []domain.LogEvent
	for ev, err := range Merge(rowsBySource, stats) {
		if err != nil {
			return nil, stats, err
		}
		events = append(events, ev)
	}
	return events, stats, nil
}
