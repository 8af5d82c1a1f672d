// Package metrics defines the Prometheus series this module exposes. Rather
// than using prometheus.DefaultRegisterer, every Registry here is constructed
// explicitly and passed to whatever needs it — there is no global state.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry wraps an isolated *prometheus.Registry plus the series both the
// builder and the policy engine share or specialize.
type Registry struct {
	reg *prometheus.Registry

	BuildInfo *prometheus.GaugeVec

	// Builder series.
	GraphFinalReleases         prometheus.Gauge
	GraphLastSuccessfulRefresh prometheus.Gauge
	GraphUpstreamInitialScrape prometheus.Gauge
	UpstreamScrapes            *prometheus.CounterVec
	UpstreamErrors             *prometheus.CounterVec
	UpstreamScrapesDuration    prometheus.Histogram

	// Policy-engine series.
	V1GraphIncomingRequests *prometheus.CounterVec
	V1GraphServeDuration    prometheus.Histogram

	// Plugin series, registered lazily per plugin name.
	PluginDuration *prometheus.HistogramVec
}

// New builds an empty Registry, with every series registered under it. The
// returned Registry is self-contained: callers must use its Gatherer
// method, not prometheus.DefaultGatherer, to serve /metrics.
func New(buildVersion string) *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		reg: reg,
		BuildInfo: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "cincinnati",
			Name:      "build_info",
			Help:      "Static information about the running build, value is always 1.",
		}, []string{"version"}),

		GraphFinalReleases: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "cincinnati",
			Subsystem: "graph_builder",
			Name:      "final_releases",
			Help:      "Number of releases present in the graph after the last successful scrape.",
		}),
		GraphLastSuccessfulRefresh: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "cincinnati",
			Subsystem: "graph_builder",
			Name:      "last_successful_refresh_timestamp_seconds",
			Help:      "Unix timestamp of the last successful scrape.",
		}),
		GraphUpstreamInitialScrape: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "cincinnati",
			Subsystem: "graph_builder",
			Name:      "initial_upstream_scrape_duration_seconds",
			Help:      "Duration of the first successful upstream scrape.",
		}),
		UpstreamScrapes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cincinnati",
			Subsystem: "graph_builder",
			Name:      "upstream_scrapes_total",
			Help:      "Number of upstream scrape attempts, successful or not.",
		}, []string{"success"}),
		UpstreamErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cincinnati",
			Subsystem: "graph_builder",
			Name:      "upstream_errors_total",
			Help:      "Number of upstream scrape errors, labeled by plugin.",
		}, []string{"plugin"}),
		UpstreamScrapesDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "cincinnati",
			Subsystem: "graph_builder",
			Name:      "upstream_scrapes_duration_seconds",
			Help:      "Duration of upstream scrapes after the first.",
			Buckets:   prometheus.DefBuckets,
		}),

		V1GraphIncomingRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cincinnati",
			Subsystem: "policy_engine",
			Name:      "v1_graph_incoming_requests_total",
			Help:      "Number of requests to the v1 graph endpoint, labeled by status.",
		}, []string{"status"}),
		V1GraphServeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "cincinnati",
			Subsystem: "policy_engine",
			Name:      "v1_graph_serve_duration_seconds",
			Help:      "Duration of serving the v1 graph endpoint, pipeline included.",
			Buckets:   prometheus.DefBuckets,
		}),

		PluginDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "cincinnati",
			Subsystem: "graph_builder",
			Name:      "plugin_duration_seconds",
			Help:      "Duration of a single plugin execution, labeled by plugin name.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"plugin"}),
	}

	reg.MustRegister(
		r.BuildInfo,
		r.GraphFinalReleases,
		r.GraphLastSuccessfulRefresh,
		r.GraphUpstreamInitialScrape,
		r.UpstreamScrapes,
		r.UpstreamErrors,
		r.UpstreamScrapesDuration,
		r.V1GraphIncomingRequests,
		r.V1GraphServeDuration,
		r.PluginDuration,
	)

	r.BuildInfo.WithLabelValues(buildVersion).Set(1)

	return r
}

// Gatherer exposes the underlying registry for promhttp.HandlerFor.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// Registerer exposes the underlying registry for callers that need to
// register additional collectors (e.g. a process collector) at startup.
func (r *Registry) Registerer() prometheus.Registerer {
	return r.reg
}
