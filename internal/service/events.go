package service

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/Egor213/LogDash/internal/aggregator"
	"github.com/Egor213/LogDash/internal/domain"
	"github.com/Egor213/LogDash/internal/logginghelper"
	"github.com/Egor213/LogDash/internal/metrics"
	"github.com/Egor213/LogDash/internal/repo"
	errorsUtils "github.com/Egor213/LogDash/pkg/errors"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultBatchSize = 500
	DefaultPerPage   = 50
	DefaultMaxPage   = 500
)

type EventsOptions struct {
	BatchSize      int
	DefaultPerPage int
	MaxPerPage     int
	// Timeout bounds one call; zero disables it.
	Timeout time.Duration
}

func (o EventsOptions) withDefaults() EventsOptions {
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.DefaultPerPage <= 0 {
		o.DefaultPerPage = DefaultPerPage
	}
	if o.MaxPerPage <= 0 {
		o.MaxPerPage = DefaultMaxPage
	}
	return o
}

type EventPage struct {
	Events     []domain.LogEvent `json:"events"`
	Total      int               `json:"total"`
	Page       int               `json:"page"`
	PerPage    int               `json:"per_page"`
	TotalPages int               `json:"total_pages"`
	// malformed rows met while building the page
	Skipped int `json:"skipped"`
}

type EventsService struct {
	events   repo.Events
	counters *metrics.Counters
	opts     EventsOptions
}

func NewEventsService(er repo.Events, cnt *metrics.Counters, opts EventsOptions) *EventsService {
	return &EventsService{
		events:   er,
		counters: cnt,
		opts:     opts.withDefaults(),
	}
}

func (s *EventsService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opts.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.opts.Timeout)
}

func (s *EventsService) normalizePage(p domain.Page) domain.Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.PerPage <= 0 {
		p.PerPage = s.opts.DefaultPerPage
	}
	if p.PerPage > s.opts.MaxPerPage {
		p.PerPage = s.opts.MaxPerPage
	}
	return p
}

// List returns one page of the merged event sequence together with the
// total number of matching rows.
func (s *EventsService) List(ctx context.Context, c domain.FilterCriteria, page domain.Page) (EventPage, error) {
	requestID := uuid.NewString()
	start := time.Now()

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	page = s.normalizePage(page)
	sources, err := s.sources(c)
	if err != nil {
		return EventPage{}, s.fail(requestID, "list", ErrCannotListEvents, err)
	}
	logginghelper.LogRequest(requestID, "list", c, sources)

	counts := make([]int, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		g.Go(func() error {
			n, err := s.events.Count(gctx, src, c)
			if err != nil {
				return err
			}
			counts[i] = n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return EventPage{}, s.fail(requestID, "list", ErrCannotListEvents, err)
	}

	total := 0
	for _, n := range counts {
		total += n
	}

	offset := page.Offset()
	result := EventPage{
		Events:     []domain.LogEvent{},
		Total:      total,
		Page:       page.Number,
		PerPage:    page.PerPage,
		TotalPages: max(1, (total+page.PerPage-1)/page.PerPage),
	}
	if offset >= total {
		s.counters.Requests.Inc("list", "ok")
		logginghelper.LogDone(requestID, "list", 0, nil, time.Since(start))
		return result, nil
	}
	batch := min(s.opts.BatchSize, offset+page.PerPage)

	stats := &aggregator.Stats{}
	events := make([]domain.LogEvent, 0, page.PerPage)
	seen := 0
	for e, err := range s.stream(ctx, c, sources, batch, stats) {
		if err != nil {
			return EventPage{}, s.fail(requestID, "list", ErrCannotListEvents, err)
		}
		seen++
		if seen <= offset {
			continue
		}
		events = append(events, e)
		if len(events) == page.PerPage {
			break
		}
	}

	s.counters.Requests.Inc("list", "ok")
	logginghelper.LogDone(requestID, "list", len(events), stats.Skipped(), time.Since(start))

	result.Events = events
	result.Skipped = stats.SkippedTotal()
	return result, nil
}

// Stream returns every matching event in merge order. Ranging over the
// result runs the queries; ranging again runs them again. Skipped rows are
// added to stats when it is not nil.
func (s *EventsService) Stream(ctx context.Context, c domain.FilterCriteria, stats *aggregator.Stats) iter.Seq2[domain.LogEvent, error] {
	return func(yield func(domain.LogEvent, error) bool) {
		requestID := uuid.NewString()
		start := time.Now()

		ctx, cancel := s.withTimeout(ctx)
		defer cancel()

		sources, err := s.sources(c)
		if err != nil {
			yield(domain.LogEvent{}, s.fail(requestID, "stream", ErrCannotListEvents, err))
			return
		}
		logginghelper.LogRequest(requestID, "stream", c, sources)

		local := &aggregator.Stats{}
		n := 0
		for e, err := range s.stream(ctx, c, sources, s.opts.BatchSize, local) {
			if err != nil {
				yield(domain.LogEvent{}, s.fail(requestID, "stream", ErrCannotListEvents, err))
				return
			}
			n++
			if !yield(e, nil) {
				break
			}
		}

		if stats != nil {
			for src, skipped := range local.Skipped() {
				stats.Add(src, skipped)
			}
		}
		s.counters.Requests.Inc("stream", "ok")
		logginghelper.LogDone(requestID, "stream", n, local.Skipped(), time.Since(start))
	}
}

// sources resolves the tables behind c. A service that matches no table is
// an error, not an empty result.
func (s *EventsService) sources(c domain.FilterCriteria) ([]domain.Source, error) {
	sources := s.events.Sources(c.Service)
	if c.HasService() && len(sources) == 0 {
		return nil, fmt.Errorf("%w %q", ErrUnknownService, c.Service)
	}
	return sources, nil
}

// stream opens one cursor per source, loads their first batches
// concurrently and merges them.
func (s *EventsService) stream(ctx context.Context, c domain.FilterCriteria, sources []domain.Source, batch int, stats *aggregator.Stats) iter.Seq2[domain.LogEvent, error] {
	return func(yield func(domain.LogEvent, error) bool) {
		rows := make(map[domain.Source]aggregator.Rows, len(sources))
		cursors := make([]repo.Cursor, 0, len(sources))
		for _, src := range sources {
			cur, err := s.events.Cursor(ctx, src, c, batch)
			if err != nil {
				yield(domain.LogEvent{}, err)
				return
			}
			rows[src] = cur
			cursors = append(cursors, cur)
		}

		// cursors keep ctx, so the group must not cancel it on return
		var g errgroup.Group
		for _, cur := range cursors {
			g.Go(cur.Prefetch)
		}
		if err := g.Wait(); err != nil {
			yield(domain.LogEvent{}, err)
			return
		}

		for e, err := range aggregator.Merge(rows, stats) {
			if !yield(e, err) || err != nil {
				break
			}
		}
		for src, n := range stats.Skipped() {
			s.counters.RowsSkipped.Add(float64(n), string(src))
		}
	}
}

func (s *EventsService) fail(requestID, operation string, sentinel, err error) error {
	s.counters.Requests.Inc(operation, "error")
	logginghelper.LogError(requestID, operation, err)
	return errorsUtils.WrapPathErr(fmt.Errorf("%w: %w", sentinel, err))
}
