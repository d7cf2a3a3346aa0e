package domain

import (
	"encoding/json"
	"maps"
	"slices"
	"time"
)

// Source identifies one log table.
type Source string

// Service groups sources the way operators filter them.
type Service string

const (
	ServiceApache Service = "apache"
	ServiceFTP    Service = "ftp"
)

const (
	SourceApacheAccess Source = "apache_access"
	SourceApacheError  Source = "apache_error"
	SourceFTP          Source = "ftp"
)

// Well-known field keys.
const (
	FieldDetail = "detail"
)

// Position is a keyset position inside one source: rows are ordered by
// timestamp, then by row id.
type Position struct {
	Timestamp time.Time
	RowID     int64
}

func (p Position) Less(o Position) bool {
	if !p.Timestamp.Equal(o.Timestamp) {
		return p.Timestamp.Before(o.Timestamp)
	}
	return p.RowID < o.RowID
}

// LogEvent is a normalized record of any source. It is immutable: build it
// with NewLogEvent and read it through accessors.
type LogEvent struct {
	source    Source
	service   Service
	timestamp time.Time
	clientIP  string
	status    string
	rowID     int64
	fields    map[string]string
}

type LogEventParams struct {
	Source    Source
	Service   Service
	Timestamp time.Time
	ClientIP  string
	Status    string
	RowID     int64
	Fields    map[string]string
}

func NewLogEvent(p LogEventParams) LogEvent {
	return LogEvent{
		source:    p.Source,
		service:   p.Service,
		timestamp: p.Timestamp.UTC(),
		clientIP:  p.ClientIP,
		status:    p.Status,
		rowID:     p.RowID,
		fields:    maps.Clone(p.Fields),
	}
}

func (e LogEvent) Source() Source       { return e.source }
func (e LogEvent) Service() Service     { return e.service }
func (e LogEvent) Timestamp() time.Time { return e.timestamp }
func (e LogEvent) ClientIP() string     { return e.clientIP }
func (e LogEvent) RowID() int64         { return e.rowID }

// Status is the source's outcome column: HTTP status for access logs, level
// for error logs, result for FTP.
func (e LogEvent) Status() string { return e.status }

func (e LogEvent) Position() Position {
	return Position{Timestamp: e.timestamp, RowID: e.rowID}
}

func (e LogEvent) Field(key string) (string, bool) {
	v, ok := e.fields[key]
	return v, ok
}

// Detail is the free text shown in listings.
func (e LogEvent) Detail() string {
	return e.fields[FieldDetail]
}

// Fields returns a copy of the source specific fields.
func (e LogEvent) Fields() map[string]string {
	return maps.Clone(e.fields)
}

func (e LogEvent) FieldKeys() []string {
	return slices.Sorted(maps.Keys(e.fields))
}

type logEventJSON struct {
	Source    Source            `json:"source"`
	Service   Service           `json:"service"`
	Timestamp time.Time         `json:"timestamp"`
	ClientIP  string            `json:"client_ip"`
	Status    string            `json:"status,omitempty"`
	RowID     int64             `json:"row_id"`
	Fields    map[string]string `json:"fields,omitempty"`
}

func (e LogEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(logEventJSON{
		Source:    e.source,
		Service:   e.service,
		Timestamp: e.timestamp,
		ClientIP:  e.clientIP,
		Status:    e.status,
		RowID:     e.rowID,
		Fields:    e.fields,
	})
}
