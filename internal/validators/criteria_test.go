package validators_test

import (
	"testing"
	"time"

	"github.com/Egor213/LogDash/internal/domain"
	"github.com/Egor213/LogDash/internal/validators"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseService(t *testing.T) {
	testCases := []struct {
		in      string
		want    domain.Service
		wantErr bool
	}{
		{"", "", false},
		{"Todos", "", false},
		{"all", "", false},
		{" Apache ", domain.ServiceApache, false},
		{"FTP", domain.ServiceFTP, false},
		{"ssh", "", true},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := validators.ParseService(tc.in)
			if tc.wantErr {
				assert.ErrorIs(t, err, validators.ErrInvalidService)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseTime(t *testing.T) {
	testCases := []struct {
		name    string
		in      string
		end     bool
		want    time.Time
		wantErr bool
	}{
		{name: "empty", in: ""},
		{name: "date start", in: "2024-01-01", want: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{name: "date end covers the day", in: "2024-01-02", end: true, want: time.Date(2024, 1, 2, 23, 59, 59, 999999999, time.UTC)},
		{name: "minute end covers the minute", in: "2024-01-02T10:30", end: true, want: time.Date(2024, 1, 2, 10, 30, 59, 999999999, time.UTC)},
		{name: "rfc3339 is converted to utc", in: "2024-01-02T10:30:00+02:00", want: time.Date(2024, 1, 2, 8, 30, 0, 0, time.UTC)},
		{name: "garbage", in: "yesterday", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := validators.ParseTime(tc.in, tc.end)
			if tc.wantErr {
				assert.ErrorIs(t, err, validators.ErrInvalidDate)
				return
			}
			require.NoError(t, err)
			assert.True(t, tc.want.Equal(got), "want %s, got %s", tc.want, got)
		})
	}
}

func TestCriteria(t *testing.T) {
	c, err := validators.Criteria(validators.RawCriteria{
		Service: "ftp",
		IP:      " 10.0.0.1 ",
		From:    "2024-01-01",
		To:      "2024-01-02",
		Keyword: "   ",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.ServiceFTP, c.Service)
	assert.Equal(t, "10.0.0.1", c.IP)
	assert.False(t, c.HasKeyword())
	assert.True(t, c.To.After(c.From))

	_, err = validators.Criteria(validators.RawCriteria{From: "2024-02-01", To: "2024-01-01"})
	assert.ErrorIs(t, err, validators.ErrInvertedRange)

	empty, err := validators.Criteria(validators.RawCriteria{})
	require.NoError(t, err)
	assert.True(t, empty.IsEmpty())
}

func TestPage(t *testing.T) {
	assert.Equal(t, domain.Page{Number: 1, PerPage: 20}, validators.Page(0, 0, 20, 100))
	assert.Equal(t, domain.Page{Number: 3, PerPage: 100}, validators.Page(3, 1000, 20, 100))
}
