package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Egor213/LogDash/internal/aggregator"
	"github.com/Egor213/LogDash/internal/broker"
	"github.com/Egor213/LogDash/internal/domain"
	"github.com/Egor213/LogDash/internal/logginghelper"
	"github.com/Egor213/LogDash/internal/metrics"
	"github.com/Egor213/LogDash/internal/repo"
	"github.com/Egor213/LogDash/internal/report"
	errorsUtils "github.com/Egor213/LogDash/pkg/errors"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const DefaultReportDays = 30

// ReportMessage is what gets published for every generated summary.
type ReportMessage struct {
	RequestID   string               `json:"request_id"`
	GeneratedAt time.Time            `json:"generated_at"`
	Criteria    string               `json:"criteria"`
	Skipped     int                  `json:"skipped"`
	Summary     domain.ReportSummary `json:"summary"`
}

type ReportsService struct {
	events         *EventsService
	stats          repo.Stats
	counters       *metrics.Counters
	brokerProducer broker.Producer
	now            func() time.Time
}

// NewReportsService builds the service; p may be nil to skip publishing.
func NewReportsService(es *EventsService, sr repo.Stats, cnt *metrics.Counters, p broker.Producer) *ReportsService {
	return &ReportsService{
		events:         es,
		stats:          sr,
		counters:       cnt,
		brokerProducer: p,
		now:            time.Now,
	}
}

// Summarize reduces every event matching c by dim. Total always counts every
// event; top > 0 only trims the buckets.
func (s *ReportsService) Summarize(ctx context.Context, c domain.FilterCriteria, dim domain.Dimension, top int) (domain.ReportSummary, error) {
	requestID := uuid.NewString()
	start := s.now()

	acc, err := report.NewAccumulator(dim)
	if err != nil {
		s.counters.Reports.Inc(string(dim), "invalid")
		return domain.ReportSummary{}, fmt.Errorf("%w: %w", ErrInvalidDimension, err)
	}

	stats := &aggregator.Stats{}
	for e, err := range s.events.Stream(ctx, c, stats) {
		if err != nil {
			s.counters.Reports.Inc(string(dim), "error")
			logginghelper.LogError(requestID, "report", err)
			return domain.ReportSummary{}, errorsUtils.WrapPathErr(fmt.Errorf("%w: %w", ErrCannotBuildReport, err))
		}
		acc.Add(e)
	}

	summary := acc.Summary()
	if top > 0 {
		summary.Buckets = summary.Top(top)
	}

	s.counters.Reports.Inc(string(dim), "ok")
	logginghelper.LogDone(requestID, "report", summary.Total, stats.Skipped(), s.now().Sub(start))

	s.publish(ctx, ReportMessage{
		RequestID:   requestID,
		GeneratedAt: s.now().UTC(),
		Criteria:    c.String(),
		Skipped:     stats.SkippedTotal(),
		Summary:     summary,
	})

	return summary, nil
}

// publish is best effort: the report is already computed.
func (s *ReportsService) publish(ctx context.Context, msg ReportMessage) {
	if s.brokerProducer == nil {
		return
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		log.WithError(err).Warn("Cannot encode report message")
		return
	}
	if err := s.brokerProducer.SendMessage(ctx, payload); err != nil {
		log.WithFields(log.Fields{
			"request_id": msg.RequestID,
			"dimension":  msg.Summary.Dimension,
		}).WithError(err).Warn("Report was not published")
	}
}

func (s *ReportsService) DailyAccess(ctx context.Context, days int) ([]domain.DailyAccess, error) {
	if days <= 0 {
		days = DefaultReportDays
	}

	stats, err := s.stats.DailyAccess(ctx, days)
	if err != nil {
		s.counters.Requests.Inc("daily", "error")
		if errors.Is(err, context.DeadlineExceeded) {
			log.WithField("days", days).Warn("Daily report timed out")
		}
		return nil, errorsUtils.WrapPathErr(fmt.Errorf("%w: %w", ErrCannotLoadStats, err))
	}

	s.counters.Requests.Inc("daily", "ok")
	return stats, nil
}
