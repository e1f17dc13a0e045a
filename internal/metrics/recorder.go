package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "guildwar"

const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// Recorder owns a private registry so tests and multiple servers never clash
// on the global one. A nil *Recorder ignores every call.
type Recorder struct {
	registry *prometheus.Registry

	operations     *prometheus.CounterVec
	reports        *prometheus.CounterVec
	reportDuration *prometheus.HistogramVec
	snapshots      *prometheus.CounterVec
	rosterSize     *prometheus.GaugeVec
	breakerState   *prometheus.GaugeVec
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_operations_total",
			Help:      "War session operations by name and outcome.",
		}, []string{"operation", "outcome"}),
		reports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_built_total",
			Help:      "Report builds by window kind and outcome.",
		}, []string{"kind", "outcome"}),
		reportDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "report_build_duration_seconds",
			Help:      "Time spent loading snapshots and ranking a report window.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
		snapshots: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshots_saved_total",
			Help:      "Daily snapshot saves by outcome.",
		}, []string{"outcome"}),
		rosterSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "roster_participants",
			Help:      "Participants in the active roster by role.",
		}, []string{"role"}),
		breakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "store_breaker_open",
			Help:      "1 when the snapshot store circuit breaker is open or half-open.",
		}, []string{"store"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route pattern and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route pattern.",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"method", "route"}),
	}

	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.operations,
		r.reports,
		r.reportDuration,
		r.snapshots,
		r.rosterSize,
		r.breakerState,
		r.httpRequests,
		r.httpDuration,
	)

	return r
}

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

func (r *Recorder) RecordOperation(operation, outcome string) {
	if r == nil {
		return
	}
	r.operations.WithLabelValues(operation, outcome).Inc()
}

func (r *Recorder) RecordReport(kind, outcome string, duration time.Duration) {
	if r == nil {
		return
	}
	r.reports.WithLabelValues(kind, outcome).Inc()
	r.reportDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

func (r *Recorder) RecordSnapshotSave(outcome string) {
	if r == nil {
		return
	}
	r.snapshots.WithLabelValues(outcome).Inc()
}

func (r *Recorder) SetRosterSize(primary, reserve int) {
	if r == nil {
		return
	}
	r.rosterSize.WithLabelValues("primary").Set(float64(primary))
	r.rosterSize.WithLabelValues("reserve").Set(float64(reserve))
}

func (r *Recorder) SetBreakerOpen(store string, open bool) {
	if r == nil {
		return
	}
	value := 0.0
	if open {
		value = 1
	}
	r.breakerState.WithLabelValues(store).Set(value)
}

func (r *Recorder) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	if r == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	r.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	r.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
