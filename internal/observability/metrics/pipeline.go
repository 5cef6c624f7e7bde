package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PipelineMetrics records query pipeline telemetry. It satisfies
// ports.QueryObserver.
type PipelineMetrics struct {
	service string

	stageDuration *prometheus.HistogramVec
	candidates    *prometheus.HistogramVec
	degraded      *prometheus.CounterVec
	noContext     *prometheus.CounterVec
}

func NewPipelineMetrics(service string, registerer prometheus.Registerer) *PipelineMetrics {
	stageDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Query pipeline stage duration in seconds by status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "stage", "status"},
	)
	candidates := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "candidates",
			Help:      "Candidates produced by each pipeline stage.",
			Buckets:   []float64{0, 1, 2, 5, 10, 15, 20},
		},
		[]string{"service", "stage"},
	)
	degraded := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "degraded_total",
			Help:      "Stages that failed and were replaced by a fallback.",
		},
		[]string{"service", "stage"},
	)
	noContext := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "no_context_total",
			Help:      "Queries that produced no candidates after fusion.",
		},
		[]string{"service"},
	)

	if registerer != nil {
		registerer.MustRegister(stageDuration, candidates, degraded, noContext)
	}

	return &PipelineMetrics{
		service:       service,
		stageDuration: stageDuration,
		candidates:    candidates,
		degraded:      degraded,
		noContext:     noContext,
	}
}

func (m *PipelineMetrics) ObserveStage(stage string, duration time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.stageDuration.WithLabelValues(m.service, stage, status).Observe(duration.Seconds())
}

func (m *PipelineMetrics) ObserveCandidates(stage string, count int) {
	m.candidates.WithLabelValues(m.service, stage).Observe(float64(count))
}

func (m *PipelineMetrics) ObserveDegraded(stage string) {
	m.degraded.WithLabelValues(m.service, stage).Inc()
}

func (m *PipelineMetrics) ObserveNoContext() {
	m.noContext.WithLabelValues(m.service).Inc()
}
