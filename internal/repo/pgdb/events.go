package pgdb

import (
	"context"
	"errors"
	"fmt"

	"github.com/Egor213/LogDash/internal/domain"
	"github.com/Egor213/LogDash/internal/metrics"
	"github.com/Egor213/LogDash/internal/repo/repoerrs"
	errorsUtils "github.com/Egor213/LogDash/pkg/errors"
	"github.com/Egor213/LogDash/pkg/postgres"
	log "github.com/sirupsen/logrus"
)

type EventRepo struct {
	*postgres.Postgres
	registry *Registry
	counters *metrics.Counters
}

func NewEventRepo(pg *postgres.Postgres, registry *Registry, cnt *metrics.Counters) *EventRepo {
	return &EventRepo{
		Postgres: pg,
		registry: registry,
		counters: cnt,
	}
}

func (r *EventRepo) Sources(service domain.Service) []domain.Source {
	var out []domain.Source
	for _, s := range r.registry.ForService(service) {
		out = append(out, s.Source())
	}
	return out
}

func (r *EventRepo) source(src domain.Source, c domain.FilterCriteria) (LogSource, error) {
	s, ok := r.registry.Get(src)
	if !ok {
		return nil, &repoerrs.SourceError{Source: src, Criteria: c, Err: repoerrs.ErrUnknownSource}
	}
	return s, nil
}

// FetchBatch returns up to limit rows of src after the given position. Each
// call is one short query on its own lease.
func (r *EventRepo) FetchBatch(ctx context.Context, src domain.Source, c domain.FilterCriteria, after *domain.Position, limit uint64) ([]DecodedRow, error) {
	s, err := r.source(src, c)
	if err != nil {
		return nil, err
	}

	q, err := BuildQuery(r.Builder, s, c, after, limit)
	if err != nil {
		return nil, errorsUtils.WrapPathErr(err)
	}

	var batch []DecodedRow
	err = r.Pool.Do(ctx, func(ctx context.Context, conn postgres.Conn) error {
		batch = batch[:0]

		rows, err := conn.Query(ctx, q.SQL, q.Args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			d, err := s.Decode(rows)
			if err != nil {
				return err
			}
			batch = append(batch, d)
		}
		return rows.Err()
	})
	if err != nil {
		r.counters.Queries.Inc(string(src), "error")
		return nil, r.wrapErr(src, c, err)
	}

	r.counters.Queries.Inc(string(src), "ok")
	log.WithFields(log.Fields{
		"source": src,
		"rows":   len(batch),
	}).Debug("Fetched batch")
	return batch, nil
}

func (r *EventRepo) Count(ctx context.Context, src domain.Source, c domain.FilterCriteria) (int, error) {
	s, err := r.source(src, c)
	if err != nil {
		return 0, err
	}

	q, err := BuildCountQuery(r.Builder, s, c)
	if err != nil {
		return 0, errorsUtils.WrapPathErr(err)
	}

	var total int
	err = r.Pool.Do(ctx, func(ctx context.Context, conn postgres.Conn) error {
		return conn.QueryRow(ctx, q.SQL, q.Args...).Scan(&total)
	})
	if err != nil {
		r.counters.Queries.Inc(string(src), "error")
		return 0, r.wrapErr(src, c, err)
	}

	r.counters.Queries.Inc(string(src), "ok")
	return total, nil
}

// Cursor streams src in (timestamp, id) order, batchSize rows per query.
func (r *EventRepo) Cursor(ctx context.Context, src domain.Source, c domain.FilterCriteria, batchSize int) (*Cursor, error) {
	if _, err := r.source(src, c); err != nil {
		return nil, err
	}
	return NewCursor(ctx, func(ctx context.Context, after *domain.Position, limit uint64) ([]DecodedRow, error) {
		return r.FetchBatch(ctx, src, c, after, limit)
	}, batchSize), nil
}

func (r *EventRepo) wrapErr(src domain.Source, c domain.FilterCriteria, err error) error {
	err = classify(err)
	log.WithFields(log.Fields{
		"source":   src,
		"criteria": c.String(),
	}).WithError(err).Warn("Source query failed")
	return &repoerrs.SourceError{Source: src, Criteria: c, Err: err}
}

// classify tags driver errors with the repository sentinels.
func classify(err error) error {
	switch {
	case errors.Is(err, repoerrs.ErrConnectionLost), errors.Is(err, repoerrs.ErrPoolExhausted):
		return err
	case postgres.IsConnectionLost(err):
		return fmt.Errorf("%w: %w", repoerrs.ErrConnectionLost, err)
	case errorsUtils.IsPgError(err):
		return fmt.Errorf("%w: %w", repoerrs.ErrQuery, err)
	}
	return err
}
