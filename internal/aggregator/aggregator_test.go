package aggregator_test

import (
	"errors"
	"testing"
	"time"

	"github.com/Egor213/LogDash/internal/aggregator"
	"github.com/Egor213/LogDash/internal/domain"
	"github.com/Egor213/LogDash/internal/repo/repoerrs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func ev(src domain.Source, id int64, offset time.Duration) domain.LogEvent {
	return domain.NewLogEvent(domain.LogEventParams{
		Source:    src,
		Timestamp: base.Add(offset),
		ClientIP:  "10.0.0.1",
		RowID:     id,
	})
}

type key struct {
	src domain.Source
	id  int64
}

func keys(events []domain.LogEvent) []key {
	out := make([]key, 0, len(events))
	for _, e := range events {
		out = append(out, key{e.Source(), e.RowID()})
	}
	return out
}

func TestAggregate_OrdersByTimestampThenSourceThenRow(t *testing.T) {
	rows := map[domain.Source]aggregator.Rows{
		domain.SourceFTP: aggregator.Events(
			ev(domain.SourceFTP, 1, 0),
			ev(domain.SourceFTP, 2, 0),
			ev(domain.SourceFTP, 3, 2*time.Second),
		),
		domain.SourceApacheAccess: aggregator.Events(
			ev(domain.SourceApacheAccess, 10, 0),
			ev(domain.SourceApacheAccess, 11, time.Second),
		),
		domain.SourceApacheError: aggregator.Events(
			ev(domain.SourceApacheError, 20, 2*time.Second),
		),
	}

	events, stats, err := aggregator.Aggregate(rows)
	require.NoError(t, err)

	assert.Equal(t, []key{
		{domain.SourceApacheAccess, 10},
		{domain.SourceFTP, 1},
		{domain.SourceFTP, 2},
		{domain.SourceApacheAccess, 11},
		{domain.SourceApacheError, 20},
		{domain.SourceFTP, 3},
	}, keys(events))
	assert.Zero(t, stats.SkippedTotal())
}

func TestAggregate_KeepsInsertionOrderForEqualTimestamps(t *testing.T) {
	rows := map[domain.Source]aggregator.Rows{
		domain.SourceFTP: aggregator.Events(
			ev(domain.SourceFTP, 5, time.Second),
			ev(domain.SourceFTP, 3, 0),
			ev(domain.SourceFTP, 4, 0),
		),
	}

	events, _, err := aggregator.Aggregate(rows)
	require.NoError(t, err)
	assert.Equal(t, []key{
		{domain.SourceFTP, 3},
		{domain.SourceFTP, 4},
		{domain.SourceFTP, 5},
	}, keys(events))
}

func TestAggregate_UnionWithoutFilters(t *testing.T) {
	total := 0
	rows := map[domain.Source]aggregator.Rows{}
	for i, src := range []domain.Source{domain.SourceApacheAccess, domain.SourceApacheError, domain.SourceFTP} {
		var events []domain.LogEvent
		for j := range 10 + i {
			events = append(events, ev(src, int64(j), time.Duration(j*(i+1))*time.Second))
		}
		total += len(events)
		rows[src] = aggregator.Events(events...)
	}

	events, _, err := aggregator.Aggregate(rows)
	require.NoError(t, err)
	assert.Len(t, events, total)

	for i := 1; i < len(events); i++ {
		assert.False(t, events[i].Timestamp().Before(events[i-1].Timestamp()))
	}
}

func TestAggregate_Deterministic(t *testing.T) {
	build := func() map[domain.Source]aggregator.Rows {
		return map[domain.Source]aggregator.Rows{
			domain.SourceFTP:          aggregator.Events(ev(domain.SourceFTP, 1, 0), ev(domain.SourceFTP, 2, 0)),
			domain.SourceApacheAccess: aggregator.Events(ev(domain.SourceApacheAccess, 1, 0)),
			domain.SourceApacheError:  aggregator.Events(ev(domain.SourceApacheError, 1, 0)),
		}
	}

	first, _, err := aggregator.Aggregate(build())
	require.NoError(t, err)
	for range 20 {
		again, _, err := aggregator.Aggregate(build())
		require.NoError(t, err)
		assert.Equal(t, keys(first), keys(again))
	}
}

func TestAggregate_SkipsMalformedRows(t *testing.T) {
	rows := map[domain.Source]aggregator.Rows{
		domain.SourceFTP: aggregator.NewSliceRows(
			aggregator.Result{Event: ev(domain.SourceFTP, 1, 0)},
			aggregator.Result{Err: repoerrs.MalformedRow(domain.SourceFTP, 2, "missing client ip")},
			aggregator.Result{Event: ev(domain.SourceFTP, 3, time.Second)},
		),
		domain.SourceApacheAccess: aggregator.NewSliceRows(
			aggregator.Result{Err: repoerrs.MalformedRow(domain.SourceApacheAccess, 9, "bad status")},
		),
	}

	events, stats, err := aggregator.Aggregate(rows)
	require.NoError(t, err)

	assert.Equal(t, []key{{domain.SourceFTP, 1}, {domain.SourceFTP, 3}}, keys(events))
	assert.Equal(t, 2, stats.SkippedTotal())
	assert.Equal(t, map[domain.Source]int{
		domain.SourceFTP:          1,
		domain.SourceApacheAccess: 1,
	}, stats.Skipped())
}

func TestMerge_CursorErrorEndsSequence(t *testing.T) {
	lost := errors.New("connection reset")
	rows := map[domain.Source]aggregator.Rows{
		domain.SourceFTP:          aggregator.Events(ev(domain.SourceFTP, 1, 0)).FailWith(lost),
		domain.SourceApacheAccess: aggregator.Events(ev(domain.SourceApacheAccess, 1, time.Hour)),
	}

	var (
		got  []domain.LogEvent
		errs []error
	)
	for e, err := range aggregator.Merge(rows, nil) {
		if err != nil {
			errs = append(errs, err)
			continue
		}
		got = append(got, e)
	}

	assert.Len(t, got, 1)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], lost)

	_, _, err := aggregator.Aggregate(map[domain.Source]aggregator.Rows{
		domain.SourceFTP: aggregator.Events().FailWith(lost),
	})
	assert.ErrorIs(t, err, lost)
}

type countingRows struct {
	aggregator.Rows
	pulled int
}

func (c *countingRows) Next() bool {
	c.pulled++
	return c.Rows.Next()
}

func TestMerge_IsLazy(t *testing.T) {
	var events []domain.LogEvent
	for i := range 1000 {
		events = append(events, ev(domain.SourceFTP, int64(i), time.Duration(i)*time.Second))
	}
	rows := &countingRows{Rows: aggregator.Events(events...)}

	taken := 0
	for _, err := range aggregator.Merge(map[domain.Source]aggregator.Rows{domain.SourceFTP: rows}, nil) {
		require.NoError(t, err)
		taken++
		if taken == 5 {
			break
		}
	}

	assert.Equal(t, 5, taken)
	assert.LessOrEqual(t, rows.pulled, 6)
}

func TestAggregate_Empty(t *testing.T) {
	events, stats, err := aggregator.Aggregate(nil)
	require.NoError(t, err)
	assert.Empty(t, events)
	assert.Zero(t, stats.SkippedTotal())
}
