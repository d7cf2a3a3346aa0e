package pgdb

import (
	"net/netip"
	"slices"
	"strings"

	"github.com/Egor213/LogDash/internal/domain"
	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
)

// Columns names the columns the shared filters work on.
type Columns struct {
	ID        string
	Timestamp string
	ClientIP  string
	// free-text columns searched by keyword
	Keyword []string
}

// DecodedRow is one fetched row. Err is set, and Event is zero, when the row
// failed normalization.
type DecodedRow struct {
	Event    domain.LogEvent
	Position domain.Position
	Err      error
}

// LogSource is one log table: how to select it and how to turn its rows into
// events. Adding a source means implementing this and registering it.
type LogSource interface {
	Source() domain.Source
	Service() domain.Service
	Table() string
	Columns() Columns
	Select(b sq.StatementBuilderType) sq.SelectBuilder
	// Decode scans the current row. The returned error is fatal for the
	// query; normalization failures go into DecodedRow.Err.
	Decode(row pgx.CollectableRow) (DecodedRow, error)
}

type Registry struct {
	sources []LogSource
}

func NewRegistry(sources ...LogSource) *Registry {
	r := &Registry{sources: slices.Clone(sources)}
	slices.SortFunc(r.sources, func(a, b LogSource) int {
		return strings.Compare(string(a.Source()), string(b.Source()))
	})
	return r
}

func DefaultRegistry() *Registry {
	return NewRegistry(ApacheAccess{}, ApacheError{}, FTP{})
}

// ForService returns the sources of svc, or every source when svc is empty.
func (r *Registry) ForService(svc domain.Service) []LogSource {
	if svc == "" {
		return slices.Clone(r.sources)
	}
	var out []LogSource
	for _, s := range r.sources {
		if s.Service() == svc {
			out = append(out, s)
		}
	}
	return out
}

func (r *Registry) Get(src domain.Source) (LogSource, bool) {
	for _, s := range r.sources {
		if s.Source() == src {
			return s, true
		}
	}
	return nil, false
}

func (r *Registry) Services() []domain.Service {
	var out []domain.Service
	for _, s := range r.sources {
		if !slices.Contains(out, s.Service()) {
			out = append(out, s.Service())
		}
	}
	slices.Sort(out)
	return out
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

// normalizeIP turns "client 10.0.0.1:5123" style values into a bare address.
// Values that are not addresses are returned trimmed.
func normalizeIP(raw string) string {
	s := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), "client"))
	if ap, err := netip.ParseAddrPort(s); err == nil {
		return ap.Addr().String()
	}
	if a, err := netip.ParseAddr(s); err == nil {
		return a.String()
	}
	return s
}
