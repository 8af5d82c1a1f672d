// Package builder implements the graph-builder's periodic scrape loop: seed
// an empty graph, run it through the configured pipeline, and on success
// install the serialized result into a cache shared with HTTP handlers.
package builder

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cincinnati-graph/cincinnati/internal/graph"
	"github.com/cincinnati-graph/cincinnati/internal/logging"
	"github.com/cincinnati-graph/cincinnati/internal/metrics"
	"github.com/cincinnati-graph/cincinnati/internal/plugins"
	"github.com/cincinnati-graph/cincinnati/internal/tracing"
)

// App owns the pipeline, cache, and health flags for one graph-builder
// process. It is the process-lifetime object the redesigned plugin slice
// lives on, replacing the source's leaked static slice.
type App struct {
	Stages       []plugins.Plugin
	PauseSeconds int

	Tracer  *tracing.Tracer
	Metrics *metrics.Registry
	Log     *logrus.Entry

	cache  Cache
	health Health
}

// New builds an App ready to Run.
func New(stages []plugins.Plugin, pauseSeconds int, tracer *tracing.Tracer, reg *metrics.Registry, log *logging.Logger) *App {
	return &App{
		Stages:       stages,
		PauseSeconds: pauseSeconds,
		Tracer:       tracer,
		Metrics:      reg,
		Log:          log.WithComponent("graph-builder"),
	}
}

// Cache returns the builder's shared JSON cache for HTTP handlers.
func (a *App) Cache() *Cache { return &a.cache }

// Health returns the builder's liveness/readiness flags for HTTP handlers.
func (a *App) Health() *Health { return &a.health }

// Run executes the scrape loop until ctx is cancelled. It flips live=true
// immediately on entry; the first iteration never sleeps beforehand. A
// panic inside an iteration sets live=false and is then re-raised so the
// surrounding process supervisor can terminate the instance, per the
// installed panic hook contract.
func (a *App) Run(ctx context.Context) error {
	defer func() {
		if r := recover(); r != nil {
			a.health.SetLive(false)
			panic(r)
		}
	}()

	a.health.SetLive(true)

	firstIteration := true
	firstSuccess := true

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if !firstIteration {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(a.PauseSeconds) * time.Second):
			}
		}
		firstIteration = false

		start := time.Now()
		env, err := plugins.Process(ctx, a.Tracer, a.Metrics, a.Stages, plugins.Envelope{
			Graph:      graph.New(),
			Parameters: map[string]string{},
		})
		duration := time.Since(start)

		if err != nil {
			a.Metrics.UpstreamScrapes.WithLabelValues("false").Inc()
			a.Log.WithError(err).Warn("scrape iteration failed, cache left unchanged")
			continue
		}

		data, err := env.Graph.Serialize()
		if err != nil {
			a.Metrics.UpstreamScrapes.WithLabelValues("false").Inc()
			a.Log.WithError(err).Warn("failed to serialize graph, cache left unchanged")
			continue
		}

		a.cache.Set(data)
		a.Metrics.UpstreamScrapes.WithLabelValues("true").Inc()
		a.Metrics.GraphFinalReleases.Set(float64(env.Graph.ReleasesCount()))
		a.Metrics.GraphLastSuccessfulRefresh.Set(float64(time.Now().Unix()))

		if firstSuccess {
			a.Metrics.GraphUpstreamInitialScrape.Set(duration.Seconds())
			a.health.SetReady(true)
			firstSuccess = false
		} else {
			a.Metrics.UpstreamScrapesDuration.Observe(duration.Seconds())
		}
	}
}
