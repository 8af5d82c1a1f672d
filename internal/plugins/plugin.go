// Package plugins defines the pipeline contract: a closed, compile-time
// tagged set of stages that a graph-builder or policy-engine invocation
// threads an Envelope through in order, any one of which can short-circuit
// the whole run with an error.
package plugins

import (
	"context"

	"github.com/cincinnati-graph/cincinnati/internal/graph"
	"github.com/cincinnati-graph/cincinnati/internal/tracing"
)

// Kind distinguishes plugins that reach out to an upstream service
// (external, per spec §4.D terminology this module inherits) from plugins
// that only transform the graph already in memory.
type Kind string

const (
	// KindExternal plugins perform I/O against something outside this
	// process (a registry, an upstream graph server).
	KindExternal Kind = "external"
	// KindInternal plugins only transform the Envelope already in hand.
	KindInternal Kind = "internal"
)

// Envelope is the value threaded through every plugin in a pipeline run.
// Parameters are the caller-supplied (e.g. query-string) values plugins may
// read but never add to — a plugin that needs to pass data to a later
// plugin does so through the Graph's metadata, not through Parameters.
type Envelope struct {
	Graph      *graph.Graph
	Parameters map[string]string
}

// Plugin is the single interface every pipeline stage implements. Run
// receives the active span for the stage (already started by the pipeline
// driver) so it can tag it, but it must never call Finish — the driver owns
// the span's lifecycle.
type Plugin interface {
	Name() string
	Kind() Kind
	Run(ctx context.Context, span tracing.Span, env Envelope) (Envelope, error)
}
