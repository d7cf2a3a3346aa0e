package export_test

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"iter"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Egor213/LogDash/internal/domain"
	"github.com/Egor213/LogDash/internal/export"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() []domain.LogEvent {
	ts := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	return []domain.LogEvent{
		domain.NewLogEvent(domain.LogEventParams{
			Source: domain.SourceApacheAccess, Service: domain.ServiceApache, Timestamp: ts,
			ClientIP: "10.0.0.1", Status: "200", RowID: 1,
			Fields: map[string]string{domain.FieldDetail: "/index.html", "method": "GET"},
		}),
		domain.NewLogEvent(domain.LogEventParams{
			Source: domain.SourceFTP, Service: domain.ServiceFTP, Timestamp: ts.Add(time.Minute),
			ClientIP: "10.0.0.2", Status: "550", RowID: 2,
			Fields: map[string]string{domain.FieldDetail: "permission denied, \"quoted\""},
		}),
	}
}

func seq(events []domain.LogEvent, tail error) iter.Seq2[domain.LogEvent, error] {
	return func(yield func(domain.LogEvent, error) bool) {
		for _, e := range events {
			if !yield(e, nil) {
				return
			}
		}
		if tail != nil {
			yield(domain.LogEvent{}, tail)
		}
	}
}

func TestParseFormat(t *testing.T) {
	f, err := export.ParseFormat(" CSV ")
	require.NoError(t, err)
	assert.Equal(t, export.FormatCSV, f)

	_, err = export.ParseFormat("xml")
	assert.ErrorIs(t, err, export.ErrUnknownFormat)
}

func TestExport_CSV(t *testing.T) {
	var buf bytes.Buffer
	n, err := export.Export(&buf, export.FormatCSV, seq(sample(), nil))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"source", "service", "timestamp", "client_ip", "status", "detail"}, records[0])
	assert.Equal(t, []string{"apache_access", "apache", "2024-01-01T12:00:00Z", "10.0.0.1", "200", "/index.html"}, records[1])
	assert.Equal(t, `permission denied, "quoted"`, records[2][5])
}

func TestExport_JSON(t *testing.T) {
	var buf bytes.Buffer
	_, err := export.Export(&buf, export.FormatJSON, seq(sample(), nil))
	require.NoError(t, err)

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "ftp", decoded[1]["source"])
	assert.Equal(t, "10.0.0.2", decoded[1]["client_ip"])

	buf.Reset()
	_, err = export.Export(&buf, export.FormatJSON, seq(nil, nil))
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, buf.String())
}

func TestExport_Table(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	_, err := export.Export(&buf, export.FormatTable, seq(sample(), nil))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "SOURCE"))
	assert.Equal(t, strings.Index(lines[0], "CLIENT_IP"), strings.Index(lines[1], "10.0.0.1"))
	assert.Equal(t, "2 events", lines[3])
}

func TestExport_StopsOnError(t *testing.T) {
	boom := errors.New("connection lost")

	var buf bytes.Buffer
	n, err := export.Export(&buf, export.FormatCSV, seq(sample(), boom))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, n)
}

func TestExportFile(t *testing.T) {
	testCases := []struct {
		name     string
		tail     error
		wantN    int
		wantErr  bool
		wantBody string
	}{
		{
			name:  "complete export replaces the file",
			wantN: 2,
		},
		{
			name:     "failed export keeps the previous file",
			tail:     errors.New("context deadline exceeded"),
			wantErr:  true,
			wantBody: "previous export\n",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "events.csv")
			require.NoError(t, os.WriteFile(path, []byte("previous export\n"), 0o644))

			n, err := export.ExportFile(path, export.FormatCSV, seq(sample(), tc.tail))

			body, readErr := os.ReadFile(path)
			require.NoError(t, readErr)

			entries, dirErr := os.ReadDir(dir)
			require.NoError(t, dirErr)
			assert.Len(t, entries, 1, "temporary file left behind")

			if tc.wantErr {
				assert.ErrorIs(t, err, tc.tail)
				assert.Zero(t, n)
				assert.Equal(t, tc.wantBody, string(body))
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.wantN, n)
			records, err := csv.NewReader(bytes.NewReader(body)).ReadAll()
			require.NoError(t, err)
			assert.Len(t, records, 3)
		})
	}
}
