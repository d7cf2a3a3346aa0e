package export

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"

	"github.com/Egor213/LogDash/internal/domain"
	"github.com/google/renameio/v2"
)

type Format string

const (
	FormatCSV   Format = "csv"
	FormatJSON  Format = "json"
	FormatTable Format = "table"
)

var ErrUnknownFormat = errors.New("unknown export format")

const timeLayout = "2006-01-02T15:04:05Z07:00"

var header = []string{"source", "service", "timestamp", "client_ip", "status", "detail"}

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatJSON, FormatTable:
		return f, nil
	}
	return "", fmt.Errorf("%w %q", ErrUnknownFormat, s)
}

// Writer encodes events one at a time. Close must be called to finish the
// document.
type Writer interface {
	Write(e domain.LogEvent) error
	Close() error
}

func NewWriter(w io.Writer, f Format) (Writer, error) {
	switch f {
	case FormatCSV:
		return newCSVWriter(w)
	case FormatJSON:
		return newJSONWriter(w), nil
	case FormatTable:
		return newTableWriter(w), nil
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownFormat, f)
}

// Export drains events into w and returns how many were written. The first
// error from the sequence stops the export; rows already written to w stay
// there, so callers that must not expose partial results use ExportFile.
func Export(w io.Writer, f Format, events iter.Seq2[domain.LogEvent, error]) (int, error) {
	ew, err := NewWriter(w, f)
	if err != nil {
		return 0, err
	}

	n := 0
	for e, err := range events {
		if err != nil {
			return n, err
		}
		if err := ew.Write(e); err != nil {
			return n, err
		}
		n++
	}
	return n, ew.Close()
}

// ExportFile writes the export to a temporary file next to path and moves it
// into place only when every event was written. On failure path is left as
// it was.
func ExportFile(path string, f Format, events iter.Seq2[domain.LogEvent, error]) (int, error) {
	pending, err := renameio.NewPendingFile(path, renameio.WithPermissions(0o644))
	if err != nil {
		return 0, err
	}
	defer pending.Cleanup()

	n, err := Export(pending, f, events)
	if err != nil {
		return 0, err
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return 0, err
	}
	return n, nil
}

func record(e domain.LogEvent) []string {
	return []string{
		string(e.Source()),
		string(e.Service()),
		e.Timestamp().Format(timeLayout),
		e.ClientIP(),
		e.Status(),
		e.Detail(),
	}
}
