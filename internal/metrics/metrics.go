package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "study_planner"

// Failure reasons used as label values.
const (
	ReasonInvalidConstraints = "invalid_constraints"
	ReasonMalformedPlan      = "malformed_plan"
	ReasonGeneration         = "generation"
	ReasonStorage            = "storage"
)

// Metrics holds the collectors exported on /metrics.
type Metrics struct {
	registry         *prometheus.Registry
	plansCreated     *prometheus.CounterVec
	planFailures     *prometheus.CounterVec
	instancesPerPlan prometheus.Histogram
	generateSeconds  prometheus.Histogram
	agendasSent      prometheus.Counter
}

// New registers the planner collectors on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		plansCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plans_created_total",
			Help:      "Plans generated and scheduled, by input shape.",
		}, []string{"mode"}),
		planFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plan_failures_total",
			Help:      "Plan requests that failed, by reason.",
		}, []string{"reason"}),
		instancesPerPlan: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "plan_instances",
			Help:      "Dated task instances per scheduled plan.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),
		generateSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generate_duration_seconds",
			Help:      "Latency of the plan generation call.",
			Buckets:   prometheus.DefBuckets,
		}),
		agendasSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "agendas_sent_total",
			Help:      "Daily agenda messages delivered.",
		}),
	}
	m.registry.MustRegister(
		m.plansCreated,
		m.planFailures,
		m.instancesPerPlan,
		m.generateSeconds,
		m.agendasSent,
		collectors.NewGoCollector(),
	)
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) PlanCreated(mode string, instances int) {
	m.plansCreated.WithLabelValues(mode).Inc()
	m.instancesPerPlan.Observe(float64(instances))
}

func (m *Metrics) PlanFailed(reason string) {
	m.planFailures.WithLabelValues(reason).Inc()
}

func (m *Metrics) ObserveGenerate(d time.Duration) {
	m.generateSeconds.Observe(d.Seconds())
}

func (m *Metrics) AgendaSent() {
	m.agendasSent.Inc()
}
