package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds all Prometheus metrics.
type Registry struct {
	*prometheus.Registry

	// HTTP metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	// Business metrics
	backtestsTotal   *prometheus.CounterVec
	backtestDuration prometheus.Histogram
	signalsGenerated *prometheus.CounterVec
	tradesExecuted   *prometheus.CounterVec
	sweepPeriods     prometheus.Histogram
	jobsActive       prometheus.Gauge
	reportsSaved     prometheus.Counter
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	// Register Go runtime metrics
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),

		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		httpRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently in flight",
			},
		),
	}

	reg.MustRegister(r.httpRequestsTotal)
	reg.MustRegister(r.httpRequestDuration)
	reg.MustRegister(r.httpRequestsInFlight)

	// Business metrics
	r.backtestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emabt_backtests_total",
			Help: "Total number of backtests run",
		},
		[]string{"status"},
	)
	r.backtestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "emabt_backtest_duration_seconds",
			Help:    "Backtest duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
		},
	)
	r.signalsGenerated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emabt_signals_generated_total",
			Help: "Total number of signals generated",
		},
		[]string{"strategy", "action"},
	)
	r.tradesExecuted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emabt_trades_executed_total",
			Help: "Total number of simulated trades executed",
		},
		[]string{"side"},
	)
	r.sweepPeriods = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "emabt_sweep_periods",
			Help:    "Number of periods per sweep",
			Buckets: []float64{1, 2, 5, 10, 20, 50, 100},
		},
	)
	r.jobsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "emabt_jobs_active",
			Help: "Number of active backtest jobs",
		},
	)
	r.reportsSaved = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "emabt_reports_saved_total",
			Help: "Total number of reports persisted to the archive",
		},
	)

	reg.MustRegister(r.backtestsTotal)
	reg.MustRegister(r.backtestDuration)
	reg.MustRegister(r.signalsGenerated)
	reg.MustRegister(r.tradesExecuted)
	reg.MustRegister(r.sweepPeriods)
	reg.MustRegister(r.jobsActive)
	reg.MustRegister(r.reportsSaved)

	return r
}

// RecordRequest records metrics for an HTTP request.
func (r *Registry) RecordRequest(method, path string, status int, duration float64) {
	statusStr := statusToString(status)
	r.httpRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
	r.httpRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// RecordBacktest records a backtest completion.
func (r *Registry) RecordBacktest(status string, duration float64) {
	r.backtestsTotal.WithLabelValues(status).Inc()
	r.backtestDuration.Observe(duration)
}

// RecordSignals adds n generated signals for one strategy and action.
func (r *Registry) RecordSignals(strategy, action string, n int) {
	if n <= 0 {
		return
	}
	r.signalsGenerated.WithLabelValues(strategy, action).Add(float64(n))
}

// RecordTrades adds n simulated trade executions for one side.
func (r *Registry) RecordTrades(side string, n int) {
	if n <= 0 {
		return
	}
	r.tradesExecuted.WithLabelValues(side).Add(float64(n))
}

// RecordSweep records the size of a parameter sweep.
func (r *Registry) RecordSweep(periods int) {
	r.sweepPeriods.Observe(float64(periods))
}

// SetJobsActive sets the number of active jobs.
func (r *Registry) SetJobsActive(count int) {
	r.jobsActive.Set(float64(count))
}

// RecordReportSaved records a persisted report.
func (r *Registry) RecordReportSaved() {
	r.reportsSaved.Inc()
}

func statusToString(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}
