package aggregator

import (
	"slices"

	"github.com/Egor213/LogDash/internal/domain"
)

// Result is one decoded row: an event, or the reason it was rejected.
type Result struct {
	Event domain.LogEvent
	Err   error
}

// SliceRows is an in-memory cursor. Rows are stably sorted by timestamp so
// that equal timestamps keep their insertion order.
type SliceRows struct {
	rows []Result
	pos  int
	err  error
}

func NewSliceRows(rows ...Result) *SliceRows {
	sorted := slices.Clone(rows)
	slices.SortStableFunc(sorted, func(a, b Result) int {
		// rejected rows have no reliable timestamp; keep them in place
		// relative to each other at the front
		switch {
		case a.Err != nil && b.Err != nil:
			return 0
		case a.Err != nil:
			return -1
		case b.Err != nil:
			return 1
		}
		return a.Event.Timestamp().Compare(b.Event.Timestamp())
	})
	return &SliceRows{rows: sorted, pos: -1}
}

// Events wraps well-formed events.
func Events(events ...domain.LogEvent) *SliceRows {
	rows := make([]Result, 0, len(events))
	for _, e := range events {
		rows = append(rows, Result{Event: e})
	}
	return NewSliceRows(rows...)
}

// FailWith makes the cursor report err once its rows are exhausted.
func (r *SliceRows) FailWith(err error) *SliceRows {
	r.err = err
	return r
}

func (r *SliceRows) Next() bool {
	if r.pos+1 >= len(r.rows) {
		r.pos = len(r.rows)
		return false
	}
	r.pos++
	return true
}

func (r *SliceRows) Row() (domain.LogEvent, error) {
	res := r.rows[r.pos]
	return res.Event, res.Err
}

func (r *SliceRows) Err() error {
	return r.err
}
