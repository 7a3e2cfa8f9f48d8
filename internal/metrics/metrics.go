package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for analysis runs.
type Metrics struct {
	AnalysesTotal    *prometheus.CounterVec // labels: status=ok|no_data|invalid|upstream|error
	AnalysisDuration prometheus.Histogram
	SignalsTotal     *prometheus.CounterVec // labels: type, strength
	BarsAnalysed     prometheus.Histogram
	AlertsSent       *prometheus.CounterVec // labels: channel=telegram|kafka
	RecordErrors     prometheus.Counter

	gatherer prometheus.Gatherer
}

// NewMetrics creates every collector and registers it with reg. Pass
// prometheus.NewRegistry() in tests to avoid duplicate registration.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		AnalysesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stockanalyzer_analyses_total",
			Help: "Analysis runs by outcome",
		}, []string{"status"}),
		AnalysisDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "stockanalyzer_analysis_duration_seconds",
			Help:    "Wall time of one analysis run including the fetch",
			Buckets: prometheus.DefBuckets,
		}),
		SignalsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stockanalyzer_signals_total",
			Help: "Signals emitted by type and strength",
		}, []string{"type", "strength"}),
		BarsAnalysed: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "stockanalyzer_bars_per_analysis",
			Help:    "Number of bars in each analysed series",
			Buckets: []float64{21, 63, 126, 252, 504, 1260, 2520},
		}),
		AlertsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stockanalyzer_alerts_sent_total",
			Help: "Signal alerts delivered per channel",
		}, []string{"channel"}),
		RecordErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stockanalyzer_record_errors_total",
			Help: "Failed attempts to persist an analysis run",
		}),
		gatherer: reg,
	}

	reg.MustRegister(
		m.AnalysesTotal,
		m.AnalysisDuration,
		m.SignalsTotal,
		m.BarsAnalysed,
		m.AlertsSent,
		m.RecordErrors,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
