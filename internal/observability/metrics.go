// Package observability provides Prometheus metrics for the position
// pipeline.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const defaultNamespace = "lpbot"

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	registry prometheus.Gatherer

	// Pipeline metrics
	PipelineRunsTotal *prometheus.CounterVec
	StageDuration     *prometheus.HistogramVec
	StageFailures     *prometheus.CounterVec

	// Chain metrics
	TransactionsSubmitted prometheus.Counter
	TransactionsConfirmed prometheus.Counter
	DepositBaseUnits      *prometheus.CounterVec

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
}

// NewMetrics registers every metric on reg.
func NewMetrics(reg *prometheus.Registry, namespace string) *Metrics {
	if namespace == "" {
		namespace = defaultNamespace
	}
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		PipelineRunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Total number of pipeline runs by flow and outcome",
		}, []string{"flow", "outcome"}),
		StageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Duration of each pipeline stage",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 20, 30},
		}, []string{"stage"}),
		StageFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "stage_failures_total",
			Help:      "Total number of stage failures by stage and error kind",
		}, []string{"stage", "kind"}),

		TransactionsSubmitted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chain",
			Name:      "transactions_submitted_total",
			Help:      "Total number of transactions accepted by the RPC node",
		}),
		TransactionsConfirmed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chain",
			Name:      "transactions_confirmed_total",
			Help:      "Total number of transactions seen at confirmed commitment",
		}),
		DepositBaseUnits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chain",
			Name:      "deposit_base_units_total",
			Help:      "Base units deposited into positions by pool and side",
		}, []string{"pool", "side"}),

		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by route and status code",
		}, []string{"route", "code"}),
	}
}

// Handler serves the registry the metrics were created on.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveStage records one stage run. kind is empty on success.
func (m *Metrics) ObserveStage(stage string, d time.Duration, kind string) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
	if kind != "" {
		m.StageFailures.WithLabelValues(stage, kind).Inc()
	}
}

// RecordRun records a finished pipeline run.
func (m *Metrics) RecordRun(flow, outcome string) {
	if m == nil {
		return
	}
	m.PipelineRunsTotal.WithLabelValues(flow, outcome).Inc()
}

func (m *Metrics) RecordSubmitted() {
	if m == nil {
		return
	}
	m.TransactionsSubmitted.Inc()
}

func (m *Metrics) RecordConfirmed() {
	if m == nil {
		return
	}
	m.TransactionsConfirmed.Inc()
}

func (m *Metrics) RecordDeposit(pool string, amountX, amountY uint64) {
	if m == nil {
		return
	}
	m.DepositBaseUnits.WithLabelValues(pool, "x").Add(float64(amountX))
	m.DepositBaseUnits.WithLabelValues(pool, "y").Add(float64(amountY))
}

func (m *Metrics) RecordHTTP(route string, code int) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}
