package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	recommendations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "labrec_recommendations_total",
		Help: "Recommendations returned, by source (database or web).",
	}, []string{"source"})
	gateVerdicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "labrec_gate_verdicts_total",
		Help: "Relevance gate verdicts (relevant, irrelevant, error).",
	}, []string{"verdict"})
	escalations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "labrec_escalations_total",
		Help: "Queries escalated to the web fallback.",
	})
	fallbackErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "labrec_fallback_errors_total",
		Help: "Web fallback runs that returned placeholder entries.",
	})
	pipelineDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "labrec_pipeline_duration_ms",
		Help:    "Histogram of recommendation latency in ms, by stage.",
		Buckets: prometheus.ExponentialBuckets(5, 2, 12),
	}, []string{"stage"})
)

// RecordRecommendations counts n recommendations from source.
func RecordRecommendations(source string, n int) {
	recommendations.WithLabelValues(source).Add(float64(n))
}

// RecordGateVerdict counts one relevance judgment.
func RecordGateVerdict(verdict string) {
	gateVerdicts.WithLabelValues(verdict).Inc()
}

func IncEscalation() {
	escalations.Inc()
}

func IncFallbackError() {
	fallbackErrors.Inc()
}

// ObserveStage records how long a pipeline stage took.
func ObserveStage(stage string, d time.Duration) {
	pipelineDuration.WithLabelValues(stage).Observe(float64(d.Milliseconds()))
}
