package pgdb

import (
	"fmt"
	"strings"

	"github.com/Egor213/LogDash/internal/domain"
	sq "github.com/Masterminds/squirrel"
)

const DefaultBatchSize = uint64(500)

// Query is a built statement with its bound arguments.
type Query struct {
	SQL  string
	Args []any
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// BuildEventFilters turns the present parts of c into conditions over cols.
// Values are always bound as arguments.
func BuildEventFilters(cols Columns, c domain.FilterCriteria) []sq.Sqlizer {
	conds := []sq.Sqlizer{}

	if c.HasIP() {
		ip := strings.TrimSpace(c.IP)
		if c.IPExact {
			conds = append(conds, sq.Eq{cols.ClientIP: ip})
		} else {
			conds = append(conds, sq.Like{cols.ClientIP: "%" + escapeLike(ip) + "%"})
		}
	}
	if c.HasFrom() {
		conds = append(conds, sq.GtOrEq{cols.Timestamp: c.From.UTC()})
	}
	if c.HasTo() {
		conds = append(conds, sq.LtOrEq{cols.Timestamp: c.To.UTC()})
	}
	if c.HasKeyword() && len(cols.Keyword) > 0 {
		pattern := "%" + escapeLike(strings.TrimSpace(c.Keyword)) + "%"
		or := sq.Or{}
		for _, col := range cols.Keyword {
			or = append(or, sq.ILike{col: pattern})
		}
		conds = append(conds, or)
	}

	return conds
}

// BuildQuery selects up to limit rows of src matching c, in (timestamp, id)
// order, starting strictly after the given position when one is set.
func BuildQuery(b sq.StatementBuilderType, src LogSource, c domain.FilterCriteria, after *domain.Position, limit uint64) (Query, error) {
	cols := src.Columns()
	conds := BuildEventFilters(cols, c)
	if after != nil {
		conds = append(conds, sq.Expr(
			fmt.Sprintf("(%s, %s) > (?, ?)", cols.Timestamp, cols.ID),
			after.Timestamp.UTC(), after.RowID,
		))
	}

	query := src.Select(b).
		OrderBy(cols.Timestamp+" ASC", cols.ID+" ASC")
	if len(conds) > 0 {
		query = query.Where(sq.And(conds))
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return Query{}, err
	}
	return Query{SQL: sql, Args: args}, nil
}

func BuildCountQuery(b sq.StatementBuilderType, src LogSource, c domain.FilterCriteria) (Query, error) {
	query := b.Select("COUNT(*)").From(src.Table())
	if conds := BuildEventFilters(src.Columns(), c); len(conds) > 0 {
		query = query.Where(sq.And(conds))
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return Query{}, err
	}
	return Query{SQL: sql, Args: args}, nil
}
