package pgdb

import (
	"strconv"
	"time"

	"github.com/Egor213/LogDash/internal/domain"
	"github.com/Egor213/LogDash/internal/repo/repoerrs"
	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
)

// FTP is the ftp_log table.
type FTP struct{}

type ftpRow struct {
	ID       int64      `db:"id"`
	LoggedAt *time.Time `db:"logged_at"`
	ClientIP *string    `db:"client_ip"`
	Username *string    `db:"username"`
	Command  *string    `db:"command"`
	Path     *string    `db:"path"`
	Result   *string    `db:"result"`
	Bytes    *int64     `db:"bytes"`
	Details  *string    `db:"details"`
}

func (FTP) Source() domain.Source   { return domain.SourceFTP }
func (FTP) Service() domain.Service { return domain.ServiceFTP }
func (FTP) Table() string           { return "ftp_log" }

func (FTP) Columns() Columns {
	return Columns{
		ID:        "id",
		Timestamp: "logged_at",
		ClientIP:  "client_ip",
		Keyword:   []string{"command", "details", "username"},
	}
}

func (s FTP) Select(b sq.StatementBuilderType) sq.SelectBuilder {
	return b.Select("id", "logged_at", "client_ip", "username", "command", "path",
		"result", "bytes", "details").
		From(s.Table())
}

func (s FTP) Decode(row pgx.CollectableRow) (DecodedRow, error) {
	r, err := pgx.RowToStructByName[ftpRow](row)
	if err != nil {
		return DecodedRow{}, err
	}

	d := DecodedRow{Position: domain.Position{RowID: r.ID}}
	if r.LoggedAt != nil {
		d.Position.Timestamp = r.LoggedAt.UTC()
	}

	ip := normalizeIP(derefString(r.ClientIP))
	command := derefString(r.Command)
	switch {
	case r.LoggedAt == nil:
		d.Err = repoerrs.MalformedRow(s.Source(), r.ID, "missing timestamp")
	case ip == "":
		d.Err = repoerrs.MalformedRow(s.Source(), r.ID, "missing client ip")
	case command == "":
		d.Err = repoerrs.MalformedRow(s.Source(), r.ID, "missing command")
	}
	if d.Err != nil {
		return d, nil
	}

	details := derefString(r.Details)
	fields := map[string]string{
		"command":          command,
		"details":          details,
		domain.FieldDetail: details,
	}
	setIfPresent(fields, "username", derefString(r.Username))
	setIfPresent(fields, "path", derefString(r.Path))
	if r.Bytes != nil {
		fields["bytes"] = strconv.FormatInt(*r.Bytes, 10)
	}

	result := derefString(r.Result)
	if result == "" {
		result = "unknown"
	}

	d.Event = domain.NewLogEvent(domain.LogEventParams{
		Source:    s.Source(),
		Service:   s.Service(),
		Timestamp: *r.LoggedAt,
		ClientIP:  ip,
		Status:    result,
		RowID:     r.ID,
		Fields:    fields,
	})
	return d, nil
}
