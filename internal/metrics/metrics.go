// Package metrics provides Prometheus-based metrics recording for query
// processing against the upstream Lex Machina API.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Query outcome labels.
const (
	StatusOK             = "ok"
	StatusNoSuggestions  = "no_suggestions"
	StatusTransportError = "transport_error"
	StatusUpstreamError  = "upstream_error"
	StatusMissingURL     = "missing_url"
)

// Recorder records query and enrichment metrics. A nil *Recorder is valid and
// records nothing, so the core stays testable without a registry.
type Recorder struct {
	queriesTotal      *prometheus.CounterVec
	descriptionsTotal *prometheus.CounterVec
	queryDuration     prometheus.Histogram
}

// NewRecorder creates a Recorder registered against reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		queriesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agent_queries_total",
				Help: "Total number of processed queries by outcome",
			},
			[]string{"status"},
		),
		descriptionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agent_description_fetches_total",
				Help: "Total number of suggestion description fetches by outcome",
			},
			[]string{"status"},
		),
		queryDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "agent_query_duration_seconds",
				Help:    "End-to-end duration of query processing in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
	}
}

// ObserveQuery records one completed query with its outcome and duration.
func (r *Recorder) ObserveQuery(status string, duration time.Duration) {
	if r == nil {
		return
	}
	r.queriesTotal.WithLabelValues(status).Inc()
	r.queryDuration.Observe(duration.Seconds())
}

// ObserveDescriptionFetch records one description fetch outcome.
func (r *Recorder) ObserveDescriptionFetch(status string) {
	if r == nil {
		return
	}
	r.descriptionsTotal.WithLabelValues(status).Inc()
}
