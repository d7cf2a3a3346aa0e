package pgdb

import (
	"context"

	"github.com/Egor213/LogDash/internal/domain"
)

// BatchFetcher loads up to limit rows after the given position, or from the
// start when after is nil.
type BatchFetcher func(ctx context.Context, after *domain.Position, limit uint64) ([]DecodedRow, error)

// Cursor walks a source batch by batch using keyset pagination. It holds no
// connection between batches.
type Cursor struct {
	ctx   context.Context
	fetch BatchFetcher
	limit uint64

	buf     []DecodedRow
	pos     int
	after   *domain.Position
	started bool
	done    bool
	err     error
}

func NewCursor(ctx context.Context, fetch BatchFetcher, batchSize int) *Cursor {
	limit := DefaultBatchSize
	if batchSize > 0 {
		limit = uint64(batchSize)
	}
	return &Cursor{ctx: ctx, fetch: fetch, limit: limit, pos: -1}
}

// Prefetch loads the first batch so a failing source is reported before
// anything is merged. It is a no-op once the cursor has started.
func (c *Cursor) Prefetch() error {
	if c.started {
		return c.err
	}
	c.fill()
	return c.err
}

func (c *Cursor) Next() bool {
	if c.err != nil {
		return false
	}
	if !c.started {
		c.fill()
		return c.step()
	}
	if c.pos+1 < len(c.buf) {
		c.pos++
		return true
	}
	if c.done {
		return false
	}
	c.fill()
	return c.step()
}

func (c *Cursor) step() bool {
	if c.err != nil || c.pos+1 >= len(c.buf) {
		return false
	}
	c.pos++
	return true
}

func (c *Cursor) Row() (domain.LogEvent, error) {
	if c.pos < 0 || c.pos >= len(c.buf) {
		return domain.LogEvent{}, nil
	}
	d := c.buf[c.pos]
	if d.Err != nil {
		return domain.LogEvent{}, d.Err
	}
	return d.Event, nil
}

func (c *Cursor) Err() error {
	return c.err
}

func (c *Cursor) fill() {
	c.started = true
	c.pos = -1

	batch, err := c.fetch(c.ctx, c.after, c.limit)
	if err != nil {
		c.buf = nil
		c.err = err
		return
	}

	c.buf = batch
	if uint64(len(batch)) < c.limit {
		c.done = true
	}
	for i := len(batch) - 1; i >= 0; i-- {
		if !batch[i].Position.Timestamp.IsZero() {
			p := batch[i].Position
			c.after = &p
			return
		}
	}
	// rows without a timestamp sort last and cannot move the keyset
	c.done = true
}
