package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// flood-risk service.
type Metrics struct {
	Assessments        *prometheus.CounterVec // labels: category={low,moderate,high}
	AssessmentErrors   *prometheus.CounterVec // labels: kind={insufficient_data,invalid_params,shape_mismatch,invalid_probability,fetch}
	AssessmentDuration prometheus.Histogram
	ModelLoaded        prometheus.Gauge

	// Upstream API metrics.
	UpstreamRequests    *prometheus.CounterVec   // labels: service={usgs,nws,nominatim,news,assistant}, outcome={success,error}
	UpstreamAPIDuration *prometheus.HistogramVec // labels: service

	// Site-list cache metrics.
	SiteCache *prometheus.CounterVec // labels: result={hit,miss}

	// Chat assistant metrics.
	ChatRequests prometheus.Counter
	ToolCalls    *prometheus.CounterVec // labels: tool, outcome={success,error,unknown}

	// Assessment export metrics.
	AssessmentsExported prometheus.Counter
	ExportErrors        prometheus.Counter
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.Assessments,
		m.AssessmentErrors,
		m.AssessmentDuration,
		m.ModelLoaded,
		m.UpstreamRequests,
		m.UpstreamAPIDuration,
		m.SiteCache,
		m.ChatRequests,
		m.ToolCalls,
		m.AssessmentsExported,
		m.ExportErrors,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		Assessments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flood_risk",
			Name:      "assessments_total",
			Help:      "Completed assessments by risk category.",
		}, []string{"category"}),
		AssessmentErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flood_risk",
			Name:      "assessment_errors_total",
			Help:      "Failed assessments by error kind.",
		}, []string{"kind"}),
		AssessmentDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "flood_risk",
			Name:      "assessment_duration_seconds",
			Help:      "Duration of a complete fetch-extract-predict cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		ModelLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "flood_risk",
			Name:      "model_loaded",
			Help:      "1 when classifier and scaler artifacts are loaded, 0 otherwise.",
		}),
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flood_risk",
			Name:      "upstream_requests_total",
			Help:      "Upstream API requests by service and outcome.",
		}, []string{"service", "outcome"}),
		UpstreamAPIDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "flood_risk",
			Name:      "upstream_api_duration_seconds",
			Help:      "Upstream API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"service"}),
		SiteCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flood_risk",
			Name:      "site_cache_total",
			Help:      "Site-list cache lookups by result.",
		}, []string{"result"}),
		ChatRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "flood_risk",
			Name:      "chat_requests_total",
			Help:      "Chat assistant turns served.",
		}),
		ToolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flood_risk",
			Name:      "tool_calls_total",
			Help:      "Assistant tool invocations by tool and outcome.",
		}, []string{"tool", "outcome"}),
		AssessmentsExported: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "flood_risk",
			Name:      "assessments_exported_total",
			Help:      "Assessments published to the export topic.",
		}),
		ExportErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "flood_risk",
			Name:      "export_errors_total",
			Help:      "Failed publishes to the export topic.",
		}),
	}
}
