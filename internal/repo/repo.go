package repo

import (
	"context"

	"github.com/Egor213/LogDash/internal/aggregator"
	"github.com/Egor213/LogDash/internal/domain"
	"github.com/Egor213/LogDash/internal/metrics"
	"github.com/Egor213/LogDash/internal/repo/pgdb"
	"github.com/Egor213/LogDash/pkg/postgres"
)

// Cursor is a source stream that can load its first batch up front.
type Cursor interface {
	aggregator.Rows
	Prefetch() error
}

type Events interface {
	Sources(service domain.Service) []domain.Source
	Count(ctx context.Context, src domain.Source, c domain.FilterCriteria) (int, error)
	Cursor(ctx context.Context, src domain.Source, c domain.FilterCriteria, batchSize int) (Cursor, error)
}

type Stats interface {
	DailyAccess(ctx context.Context, days int) ([]domain.DailyAccess, error)
}

type Repositories struct {
	Events
	Stats
}

func NewRepositories(pg *postgres.Postgres, cnt *metrics.Counters) *Repositories {
	return &Repositories{
		Events: eventsAdapter{pgdb.NewEventRepo(pg, pgdb.DefaultRegistry(), cnt)},
		Stats:  pgdb.NewStatsRepo(pg, cnt),
	}
}

type eventsAdapter struct {
	*pgdb.EventRepo
}

func (a eventsAdapter) Cursor(ctx context.Context, src domain.Source, c domain.FilterCriteria, batchSize int) (Cursor, error) {
	cur, err := a.EventRepo.Cursor(ctx, src, c, batchSize)
	if err != nil {
		return nil, err
	}
	return cur, nil
}
