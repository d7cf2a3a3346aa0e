package service

import (
	"context"
	"iter"

	"github.com/Egor213/LogDash/internal/aggregator"
	"github.com/Egor213/LogDash/internal/broker"
	"github.com/Egor213/LogDash/internal/domain"
	"github.com/Egor213/LogDash/internal/metrics"
	"github.com/Egor213/LogDash/internal/repo"
)

type Events interface {
	List(ctx context.Context, c domain.FilterCriteria, page domain.Page) (EventPage, error)
	Stream(ctx context.Context, c domain.FilterCriteria, stats *aggregator.Stats) iter.Seq2[domain.LogEvent, error]
}

type Reports interface {
	Summarize(ctx context.Context, c domain.FilterCriteria, dim domain.Dimension, top int) (domain.ReportSummary, error)
	DailyAccess(ctx context.Context, days int) ([]domain.DailyAccess, error)
}

type Services struct {
	Events
	Reports
}

type ServicesDependencies struct {
	Repos          *repo.Repositories
	Counters       *metrics.Counters
	BrokerProducer broker.Producer
	Events         EventsOptions
}

func NewServices(deps ServicesDependencies) *Services {
	events := NewEventsService(deps.Repos.Events, deps.Counters, deps.Events)
	return &Services{
		Events:  events,
		Reports: NewReportsService(events, deps.Repos.Stats, deps.Counters, deps.BrokerProducer),
	}
}
