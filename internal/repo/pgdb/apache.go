package pgdb

import (
	"strconv"
	"time"

	"github.com/Egor213/LogDash/internal/domain"
	"github.com/Egor213/LogDash/internal/repo/repoerrs"
	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
)

// ApacheAccess is the apache_access table.
type ApacheAccess struct{}

type apacheAccessRow struct {
	ID        int64      `db:"id"`
	LoggedAt  *time.Time `db:"logged_at"`
	ClientIP  *string    `db:"client_ip"`
	Method    *string    `db:"method"`
	Path      *string    `db:"path"`
	Protocol  *string    `db:"protocol"`
	Status    *int64     `db:"status"`
	BytesSent *int64     `db:"bytes_sent"`
	Referrer  *string    `db:"referrer"`
	UserAgent *string    `db:"user_agent"`
}

func (ApacheAccess) Source() domain.Source   { return domain.SourceApacheAccess }
func (ApacheAccess) Service() domain.Service { return domain.ServiceApache }
func (ApacheAccess) Table() string           { return "apache_access" }

func (ApacheAccess) Columns() Columns {
	return Columns{
		ID:        "id",
		Timestamp: "logged_at",
		ClientIP:  "client_ip",
		Keyword:   []string{"path", "referrer", "user_agent"},
	}
}

func (s ApacheAccess) Select(b sq.StatementBuilderType) sq.SelectBuilder {
	return b.Select("id", "logged_at", "client_ip", "method", "path", "protocol",
		"status", "bytes_sent", "referrer", "user_agent").
		From(s.Table())
}

func (s ApacheAccess) Decode(row pgx.CollectableRow) (DecodedRow, error) {
	r, err := pgx.RowToStructByName[apacheAccessRow](row)
	if err != nil {
		return DecodedRow{}, err
	}

	d := DecodedRow{Position: domain.Position{RowID: r.ID}}
	if r.LoggedAt != nil {
		d.Position.Timestamp = r.LoggedAt.UTC()
	}

	ip := normalizeIP(derefString(r.ClientIP))
	method := derefString(r.Method)
	switch {
	case r.LoggedAt == nil:
		d.Err = repoerrs.MalformedRow(s.Source(), r.ID, "missing timestamp")
	case ip == "":
		d.Err = repoerrs.MalformedRow(s.Source(), r.ID, "missing client ip")
	case r.Status == nil || *r.Status < 100 || *r.Status > 599:
		d.Err = repoerrs.MalformedRow(s.Source(), r.ID, "invalid status")
	case method == "":
		d.Err = repoerrs.MalformedRow(s.Source(), r.ID, "missing method")
	}
	if d.Err != nil {
		return d, nil
	}

	path := derefString(r.Path)
	fields := map[string]string{
		"method":           method,
		"path":             path,
		domain.FieldDetail: path,
	}
	setIfPresent(fields, "protocol", derefString(r.Protocol))
	setIfPresent(fields, "referrer", derefString(r.Referrer))
	setIfPresent(fields, "user_agent", derefString(r.UserAgent))
	if r.BytesSent != nil {
		fields["bytes_sent"] = strconv.FormatInt(*r.BytesSent, 10)
	}

	d.Event = domain.NewLogEvent(domain.LogEventParams{
		Source:    s.Source(),
		Service:   s.Service(),
		Timestamp: *r.LoggedAt,
		ClientIP:  ip,
		Status:    strconv.FormatInt(*r.Status, 10),
		RowID:     r.ID,
		Fields:    fields,
	})
	return d, nil
}

// ApacheError is the apache_error table.
type ApacheError struct{}

type apacheErrorRow struct {
	ID       int64      `db:"id"`
	LoggedAt *time.Time `db:"logged_at"`
	ClientIP *string    `db:"client_ip"`
	Module   *string    `db:"module"`
	Level    *string    `db:"level"`
	PID      *int64     `db:"pid"`
	Message  *string    `db:"message"`
}

func (ApacheError) Source() domain.Source   { return domain.SourceApacheError }
func (ApacheError) Service() domain.Service { return domain.ServiceApache }
func (ApacheError) Table() string           { return "apache_error" }

func (ApacheError) Columns() Columns {
	return Columns{
		ID:        "id",
		Timestamp: "logged_at",
		ClientIP:  "client_ip",
		Keyword:   []string{"message", "module"},
	}
}

func (s ApacheError) Select(b sq.StatementBuilderType) sq.SelectBuilder {
	return b.Select("id", "logged_at", "client_ip", "module", "level", "pid", "message").
		From(s.Table())
}

func (s ApacheError) Decode(row pgx.CollectableRow) (DecodedRow, error) {
	r, err := pgx.RowToStructByName[apacheErrorRow](row)
	if err != nil {
		return DecodedRow{}, err
	}

	d := DecodedRow{Position: domain.Position{RowID: r.ID}}
	if r.LoggedAt != nil {
		d.Position.Timestamp = r.LoggedAt.UTC()
	}

	ip := normalizeIP(derefString(r.ClientIP))
	switch {
	case r.LoggedAt == nil:
		d.Err = repoerrs.MalformedRow(s.Source(), r.ID, "missing timestamp")
	case ip == "":
		d.Err = repoerrs.MalformedRow(s.Source(), r.ID, "missing client ip")
	}
	if d.Err != nil {
		return d, nil
	}

	level := derefString(r.Level)
	if level == "" {
		level = "unknown"
	}
	message := derefString(r.Message)
	fields := map[string]string{
		"level":            level,
		"message":          message,
		domain.FieldDetail: message,
	}
	setIfPresent(fields, "module", derefString(r.Module))
	if r.PID != nil {
		fields["pid"] = strconv.FormatInt(*r.PID, 10)
	}

	d.Event = domain.NewLogEvent(domain.LogEventParams{
		Source:    s.Source(),
		Service:   s.Service(),
		Timestamp: *r.LoggedAt,
		ClientIP:  ip,
		Status:    level,
		RowID:     r.ID,
		Fields:    fields,
	})
	return d, nil
}

func setIfPresent(fields map[string]string, key, value string) {
	if value != "" {
		fields[key] = value
	}
}
