package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Egor213/LogDash/internal/domain"
	"github.com/Egor213/LogDash/internal/metrics"
	broker_mock "github.com/Egor213/LogDash/internal/mocks/broker"
	repository_mock "github.com/Egor213/LogDash/internal/mocks/repository"
	"github.com/Egor213/LogDash/internal/service"
	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func fakeEvents(n int) []domain.LogEvent {
	faker := gofakeit.New(7)
	ips := []string{faker.IPv4Address(), faker.IPv4Address(), faker.IPv4Address()}

	events := make([]domain.LogEvent, 0, n)
	for i := range n {
		events = append(events, domain.NewLogEvent(domain.LogEventParams{
			Source:    domain.SourceApacheAccess,
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			ClientIP:  ips[faker.Number(0, len(ips)-1)],
			Status:    "200",
			RowID:     int64(i + 1),
		}))
	}
	return events
}

func TestReportsService_Summarize(t *testing.T) {
	events := fakeEvents(40)

	type mockBehavior func(r *repository_mock.MockEvents, p *broker_mock.MockProducer)

	testCases := []struct {
		name         string
		dim          domain.Dimension
		top          int
		withProducer bool
		mockBehavior mockBehavior
		wantErr      error
	}{
		{
			name: "summary by ip without broker",
			dim:  domain.DimensionIP,
			mockBehavior: func(r *repository_mock.MockEvents, _ *broker_mock.MockProducer) {
				r.EXPECT().Sources(domain.Service("")).Return([]domain.Source{domain.SourceApacheAccess})
				r.EXPECT().Cursor(gomock.Any(), domain.SourceApacheAccess, gomock.Any(), gomock.Any()).Return(cursorOf(events...), nil)
			},
		},
		{
			name:         "top buckets are published",
			dim:          domain.DimensionIP,
			top:          1,
			withProducer: true,
			mockBehavior: func(r *repository_mock.MockEvents, p *broker_mock.MockProducer) {
				r.EXPECT().Sources(domain.Service("")).Return([]domain.Source{domain.SourceApacheAccess})
				r.EXPECT().Cursor(gomock.Any(), domain.SourceApacheAccess, gomock.Any(), gomock.Any()).Return(cursorOf(events...), nil)
				p.EXPECT().SendMessage(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, value []byte) error {
					var msg service.ReportMessage
					require.NoError(t, json.Unmarshal(value, &msg))
					assert.Equal(t, domain.DimensionIP, msg.Summary.Dimension)
					assert.Equal(t, len(events), msg.Summary.Total)
					assert.Len(t, msg.Summary.Buckets, 1)
					assert.NotEmpty(t, msg.RequestID)
					return nil
				})
			},
		},
		{
			name:         "broker failure does not fail the report",
			dim:          domain.DimensionStatus,
			withProducer: true,
			mockBehavior: func(r *repository_mock.MockEvents, p *broker_mock.MockProducer) {
				r.EXPECT().Sources(domain.Service("")).Return([]domain.Source{domain.SourceApacheAccess})
				r.EXPECT().Cursor(gomock.Any(), domain.SourceApacheAccess, gomock.Any(), gomock.Any()).Return(cursorOf(events...), nil)
				p.EXPECT().SendMessage(gomock.Any(), gomock.Any()).Return(errors.New("broker down"))
			},
		},
		{
			name:         "unknown dimension",
			dim:          domain.Dimension("country"),
			mockBehavior: func(*repository_mock.MockEvents, *broker_mock.MockProducer) {},
			wantErr:      service.ErrInvalidDimension,
		},
		{
			name: "source failure",
			dim:  domain.DimensionHour,
			mockBehavior: func(r *repository_mock.MockEvents, _ *broker_mock.MockProducer) {
				r.EXPECT().Sources(domain.Service("")).Return([]domain.Source{domain.SourceApacheAccess})
				r.EXPECT().Cursor(gomock.Any(), domain.SourceApacheAccess, gomock.Any(), gomock.Any()).Return(nil, errors.New("boom"))
			},
			wantErr: service.ErrCannotBuildReport,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockRepo := repository_mock.NewMockEvents(ctrl)
			mockStats := repository_mock.NewMockStats(ctrl)
			mockProducer := broker_mock.NewMockProducer(ctrl)
			tc.mockBehavior(mockRepo, mockProducer)

			cnt := metrics.NewTestCounters()
			es := service.NewEventsService(mockRepo, cnt, service.EventsOptions{})
			var s *service.ReportsService
			if tc.withProducer {
				s = service.NewReportsService(es, mockStats, cnt, mockProducer)
			} else {
				s = service.NewReportsService(es, mockStats, cnt, nil)
			}

			got, err := s.Summarize(context.Background(), domain.FilterCriteria{}, tc.dim, tc.top)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.dim, got.Dimension)
			assert.Equal(t, len(events), got.Total)

			sum := 0
			for _, b := range got.Buckets {
				sum += b.Count
			}
			if tc.top == 0 {
				assert.Equal(t, got.Total, sum)
			} else {
				assert.LessOrEqual(t, len(got.Buckets), tc.top)
			}
		})
	}
}

func TestReportsService_DailyAccess(t *testing.T) {
	type mockBehavior func(r *repository_mock.MockStats)

	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	testCases := []struct {
		name         string
		days         int
		mockBehavior mockBehavior
		want         []domain.DailyAccess
		wantErr      bool
	}{
		{
			name: "defaults to thirty days",
			days: 0,
			mockBehavior: func(r *repository_mock.MockStats) {
				r.EXPECT().DailyAccess(gomock.Any(), service.DefaultReportDays).
					Return([]domain.DailyAccess{{Day: day, Requests: 10, UniqueIPs: 3, Errors: 1}}, nil)
			},
			want: []domain.DailyAccess{{Day: day, Requests: 10, UniqueIPs: 3, Errors: 1}},
		},
		{
			name: "repository error",
			days: 7,
			mockBehavior: func(r *repository_mock.MockStats) {
				r.EXPECT().DailyAccess(gomock.Any(), 7).Return(nil, errors.New("db error"))
			},
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockStats := repository_mock.NewMockStats(ctrl)
			tc.mockBehavior(mockStats)

			cnt := metrics.NewTestCounters()
			s := service.NewReportsService(nil, mockStats, cnt, nil)

			got, err := s.DailyAccess(context.Background(), tc.days)
			if tc.wantErr {
				assert.ErrorIs(t, err, service.ErrCannotLoadStats)
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestReportsService_SummarizeFailures(t *testing.T) {
	type mockBehavior func(r *repository_mock.MockEvents)

	testCases := []struct {
		name         string
		criteria     domain.FilterCriteria
		timeout      time.Duration
		mockBehavior mockBehavior
		wantErr      error
	}{
		{
			name:     "service without tables",
			criteria: domain.FilterCriteria{Service: domain.Service("syslog")},
			mockBehavior: func(r *repository_mock.MockEvents) {
				r.EXPECT().Sources(domain.Service("syslog")).Return(nil)
			},
			wantErr: service.ErrUnknownService,
		},
		{
			name:    "timeout discards the partial report",
			timeout: 30 * time.Millisecond,
			mockBehavior: func(r *repository_mock.MockEvents) {
				r.EXPECT().Sources(domain.Service("")).Return([]domain.Source{domain.SourceApacheAccess})
				r.EXPECT().Cursor(gomock.Any(), domain.SourceApacheAccess, gomock.Any(), gomock.Any()).
					DoAndReturn(blockingCursorOf(event(domain.SourceApacheAccess, 1, 0)))
			},
			wantErr: context.DeadlineExceeded,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockRepo := repository_mock.NewMockEvents(ctrl)
			mockStats := repository_mock.NewMockStats(ctrl)
			mockProducer := broker_mock.NewMockProducer(ctrl)
			tc.mockBehavior(mockRepo)

			cnt := metrics.NewTestCounters()
			es := service.NewEventsService(mockRepo, cnt, service.EventsOptions{Timeout: tc.timeout})
			s := service.NewReportsService(es, mockStats, cnt, mockProducer)

			got, err := s.Summarize(context.Background(), tc.criteria, domain.DimensionIP, 0)
			assert.ErrorIs(t, err, service.ErrCannotBuildReport)
			assert.ErrorIs(t, err, tc.wantErr)
			assert.Zero(t, got.Total)
			assert.Empty(t, got.Buckets)
		})
	}
}
