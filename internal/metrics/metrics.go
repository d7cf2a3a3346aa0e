package metrics

import (
	"github.com/Egor213/LogDash/pkg/postgres"
	"github.com/prometheus/client_golang/prometheus"
)

type Counter interface {
	Inc(labels ...string)
	Add(value float64, labels ...string)
}

type Counters struct {
	Queries     Counter
	RowsSkipped Counter
	Reports     Counter

	Requests Counter
}

type PrometheusCounter struct {
	counter *prometheus.CounterVec
}

func newCounterVec(name, help string, labels []string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "logdash",
		Name:      name,
		Help:      help,
	}, labels)
}

func NewPrometheusCounter(name, help string, labels []string) *PrometheusCounter {
	c := &PrometheusCounter{counter: newCounterVec(name, help, labels)}
	prometheus.MustRegister(c.counter)
	return c
}

func (p *PrometheusCounter) Inc(labels ...string) {
	p.counter.WithLabelValues(labels...).Inc()
}

func (p *PrometheusCounter) Add(value float64, labels ...string) {
	p.counter.WithLabelValues(labels...).Add(value)
}

type counterDef struct {
	name   string
	help   string
	labels []string
}

var (
	queriesDef     = counterDef{"source_queries_total", "Number of queries run against log sources", []string{"source", "status"}}
	rowsSkippedDef = counterDef{"rows_skipped_total", "Number of malformed rows skipped while merging", []string{"source"}}
	reportsDef     = counterDef{"reports_total", "Number of generated reports", []string{"dimension", "status"}}
	requestsDef    = counterDef{"requests_total", "Number of dashboard operations", []string{"operation", "status"}}
)

func New() *Counters {
	return &Counters{
		Queries:     NewPrometheusCounter(queriesDef.name, queriesDef.help, queriesDef.labels),
		RowsSkipped: NewPrometheusCounter(rowsSkippedDef.name, rowsSkippedDef.help, rowsSkippedDef.labels),
		Reports:     NewPrometheusCounter(reportsDef.name, reportsDef.help, reportsDef.labels),
		Requests:    NewPrometheusCounter(requestsDef.name, requestsDef.help, requestsDef.labels),
	}
}

// NewTestCounters registers on a private registry so tests can build as many
// as they like.
func NewTestCounters() *Counters {
	reg := prometheus.NewRegistry()

	build := func(d counterDef) *PrometheusCounter {
		c := &PrometheusCounter{counter: newCounterVec(d.name, d.help, d.labels)}
		reg.MustRegister(c.counter)
		return c
	}

	return &Counters{
		Queries:     build(queriesDef),
		RowsSkipped: build(rowsSkippedDef),
		Reports:     build(reportsDef),
		Requests:    build(requestsDef),
	}
}

// RegisterPoolStats exports the pool occupancy as gauges.
func RegisterPoolStats(reg prometheus.Registerer, stats func() postgres.Stats) {
	gauge := func(name, help string, value func(postgres.Stats) int) prometheus.Collector {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "logdash",
			Subsystem: "pool",
			Name:      name,
			Help:      help,
		}, func() float64 {
			return float64(value(stats()))
		})
	}

	reg.MustRegister(
		gauge("capacity", "Configured number of connections", func(s postgres.Stats) int { return s.Capacity }),
		gauge("leased", "Connections currently leased", func(s postgres.Stats) int { return s.Leased }),
		gauge("idle", "Connections currently idle", func(s postgres.Stats) int { return s.Idle }),
	)
}
