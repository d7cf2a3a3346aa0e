package pgdb

import (
	"context"
	"fmt"
	"slices"

	"github.com/Egor213/LogDash/internal/domain"
	"github.com/Egor213/LogDash/internal/metrics"
	"github.com/Egor213/LogDash/internal/repo/repoerrs"
	errorsUtils "github.com/Egor213/LogDash/pkg/errors"
	"github.com/Egor213/LogDash/pkg/postgres"
	sq "github.com/Masterminds/squirrel"
)

const DefaultReportDays = 30

type StatsRepo struct {
	*postgres.Postgres
	counters *metrics.Counters
}

func NewStatsRepo(pg *postgres.Postgres, cnt *metrics.Counters) *StatsRepo {
	return &StatsRepo{pg, cnt}
}

// error statuses counted by the daily report
const (
	minErrorStatus = 400
	maxErrorStatus = 599
)

// BuildDailyAccessQuery groups apache_access by UTC day, newest first.
func BuildDailyAccessQuery(b sq.StatementBuilderType, days int) (Query, error) {
	if days <= 0 {
		days = DefaultReportDays
	}

	sql, args, err := b.
		Select(
			"date_trunc('day', logged_at AT TIME ZONE 'UTC') AS day",
			"COUNT(*) AS requests",
			"COUNT(DISTINCT client_ip) AS unique_ips",
			fmt.Sprintf("COUNT(*) FILTER (WHERE status BETWEEN %d AND %d) AS errors", minErrorStatus, maxErrorStatus),
		).
		From(ApacheAccess{}.Table()).
		GroupBy("day").
		OrderBy("day DESC").
		Limit(uint64(days)).
		ToSql()
	if err != nil {
		return Query{}, err
	}
	return Query{SQL: sql, Args: args}, nil
}

// DailyAccess returns the last days of access traffic in chronological order.
func (r *StatsRepo) DailyAccess(ctx context.Context, days int) ([]domain.DailyAccess, error) {
	q, err := BuildDailyAccessQuery(r.Builder, days)
	if err != nil {
		return nil, errorsUtils.WrapPathErr(err)
	}

	var stats []domain.DailyAccess
	err = r.Pool.Do(ctx, func(ctx context.Context, conn postgres.Conn) error {
		stats = stats[:0]

		rows, err := conn.Query(ctx, q.SQL, q.Args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var d domain.DailyAccess
			if err := rows.Scan(&d.Day, &d.Requests, &d.UniqueIPs, &d.Errors); err != nil {
				return err
			}
			d.Day = d.Day.UTC()
			stats = append(stats, d)
		}
		return rows.Err()
	})
	if err != nil {
		r.counters.Queries.Inc(string(domain.SourceApacheAccess), "error")
		return nil, &repoerrs.SourceError{Source: domain.SourceApacheAccess, Err: classify(err)}
	}

	r.counters.Queries.Inc(string(domain.SourceApacheAccess), "ok")
	slices.Reverse(stats)
	return stats, nil
}
