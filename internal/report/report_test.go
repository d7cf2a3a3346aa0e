package report_test

import (
	"strconv"
	"testing"
	"time"

	"github.com/Egor213/LogDash/internal/domain"
	"github.com/Egor213/LogDash/internal/report"
	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func event(src domain.Source, ip, status string, ts time.Time) domain.LogEvent {
	return domain.NewLogEvent(domain.LogEventParams{
		Source:    src,
		Timestamp: ts,
		ClientIP:  ip,
		Status:    status,
	})
}

func fakeEvents(n int) []domain.LogEvent {
	faker := gofakeit.New(42)
	sources := []domain.Source{domain.SourceApacheAccess, domain.SourceApacheError, domain.SourceFTP}

	events := make([]domain.LogEvent, 0, n)
	for i := range n {
		ip := faker.IPv4Address()
		if i%17 == 0 {
			ip = ""
		}
		events = append(events, event(
			sources[faker.Number(0, len(sources)-1)],
			ip,
			strconv.Itoa(faker.HTTPStatusCode()),
			faker.DateRange(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)),
		))
	}
	return events
}

func TestSummarize_CountConservation(t *testing.T) {
	events := fakeEvents(500)

	for _, dim := range domain.Dimensions {
		t.Run(string(dim), func(t *testing.T) {
			summary, err := report.SummarizeSlice(events, dim)
			require.NoError(t, err)

			sum := 0
			for _, b := range summary.Buckets {
				sum += b.Count
			}
			assert.Equal(t, len(events), summary.Total)
			assert.Equal(t, len(events), sum)
		})
	}
}

func TestSummarize_Empty(t *testing.T) {
	summary, err := report.SummarizeSlice(nil, domain.DimensionIP)
	require.NoError(t, err)

	assert.Equal(t, domain.DimensionIP, summary.Dimension)
	assert.Zero(t, summary.Total)
	assert.Empty(t, summary.Buckets)
	assert.Empty(t, summary.Top(5))
}

func TestSummarize_UnknownDimension(t *testing.T) {
	_, err := report.SummarizeSlice(nil, domain.Dimension("referrer"))
	assert.ErrorIs(t, err, domain.ErrUnknownDimension)
}

func TestSummarize_TiesUseNaturalOrder(t *testing.T) {
	ts := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	events := []domain.LogEvent{
		event(domain.SourceFTP, "10.0.0.10", "200", ts),
		event(domain.SourceFTP, "10.0.0.9", "200", ts),
		event(domain.SourceFTP, "10.0.0.9", "404", ts),
		event(domain.SourceFTP, "10.0.0.10", "404", ts),
		event(domain.SourceFTP, "192.168.1.1", "500", ts),
		event(domain.SourceFTP, "", "", ts),
	}

	summary, err := report.SummarizeSlice(events, domain.DimensionIP)
	require.NoError(t, err)

	assert.Equal(t, []domain.Bucket{
		{Key: "10.0.0.9", Count: 2},
		{Key: "10.0.0.10", Count: 2},
		{Key: "192.168.1.1", Count: 1},
		{Key: report.MissingKey, Count: 1},
	}, summary.Buckets)
	assert.Equal(t, []domain.Bucket{{Key: "10.0.0.9", Count: 2}}, summary.Top(1))

	byStatus, err := report.SummarizeSlice(events, domain.DimensionStatus)
	require.NoError(t, err)
	assert.Equal(t, []domain.Bucket{
		{Key: "200", Count: 2},
		{Key: "404", Count: 2},
		{Key: "500", Count: 1},
		{Key: report.MissingKey, Count: 1},
	}, byStatus.Buckets)
}

func TestByKey_Chronological(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	events := []domain.LogEvent{
		event(domain.SourceApacheAccess, "1.1.1.1", "200", base.Add(3*time.Hour)),
		event(domain.SourceApacheAccess, "1.1.1.1", "200", base.Add(3*time.Hour+10*time.Minute)),
		event(domain.SourceApacheAccess, "1.1.1.1", "200", base.Add(time.Hour)),
		event(domain.SourceApacheAccess, "1.1.1.1", "200", base.Add(26*time.Hour)),
	}

	summary, err := report.SummarizeSlice(events, domain.DimensionHour)
	require.NoError(t, err)

	assert.Equal(t, "2024-01-01T03:00Z", summary.Buckets[0].Key)
	assert.Equal(t, []domain.Bucket{
		{Key: "2024-01-01T01:00Z", Count: 1},
		{Key: "2024-01-01T03:00Z", Count: 2},
		{Key: "2024-01-02T02:00Z", Count: 1},
	}, report.ByKey(summary))
}

func TestCompare_StatusNumericFirst(t *testing.T) {
	compare := report.Compare(domain.DimensionStatus)

	assert.Negative(t, compare("99", "100"))
	assert.Negative(t, compare("500", "error"))
	assert.Positive(t, compare(report.MissingKey, "warn"))
	assert.Zero(t, compare("404", "404"))
}
