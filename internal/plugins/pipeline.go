package plugins

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/cincinnati-graph/cincinnati/internal/cerrors"
	"github.com/cincinnati-graph/cincinnati/internal/metrics"
	"github.com/cincinnati-graph/cincinnati/internal/tracing"
)

// Process runs env through every plugin in stages, in order, under its own
// child span. The first plugin error stops the run; nothing downstream of
// that plugin runs. An error that already carries a GraphError is returned
// with its own kind, and any other error is wrapped into a
// FailedPluginExecution GraphError naming the plugin that failed.
func Process(ctx context.Context, tracer *tracing.Tracer, reg *metrics.Registry, stages []Plugin, env Envelope) (Envelope, error) {
	for _, p := range stages {
		var (
			out Envelope
			err error
		)

		spanErr := tracer.WithSpan(ctx, "plugin."+p.Name(), func(ctx context.Context, span tracing.Span) error {
			span.SetAttribute("plugin.name", p.Name())
			span.SetAttribute("plugin.kind", string(p.Kind()))

			if reg != nil {
				timer := prometheus.NewTimer(reg.PluginDuration.WithLabelValues(p.Name()))
				defer timer.ObserveDuration()
			}

			out, err = p.Run(ctx, span, env)
			if err != nil {
				span.Log(fmt.Sprintf("plugin %s failed", p.Name()))
			}
			return err
		})

		if spanErr != nil {
			if reg != nil {
				reg.UpstreamErrors.WithLabelValues(p.Name()).Inc()
			}
			// A plugin that already produced a tagged GraphError (D6/D7's
			// InvalidParams, D8's FailedUpstreamFetch/Parse, D1/D2's
			// UpstreamUnavailable/Malformed) keeps its own kind; anything
			// else — including the graph model's DuplicateVersion,
			// UnknownRelease, and CycleDetected — is wrapped generically.
			if _, ok := cerrors.As(spanErr); ok {
				return Envelope{}, spanErr
			}
			return Envelope{}, cerrors.Wrap(cerrors.KindFailedPluginExecution, p.Name(), spanErr)
		}

		env = out
	}

	return env, nil
}
