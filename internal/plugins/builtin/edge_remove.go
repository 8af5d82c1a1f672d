package builtin

import (
	"context"
	"fmt"

	"github.com/cincinnati-graph/cincinnati/internal/plugins"
	"github.com/cincinnati-graph/cincinnati/internal/tracing"
)

func init() {
	plugins.Register("edge-remove", func(options map[string]any) (plugins.Plugin, error) {
		var cfg EdgeRemoveConfig
		if err := plugins.DecodeOptions(options, &cfg); err != nil {
			return nil, err
		}
		return NewEdgeRemove(cfg), nil
	})
}

// EdgeRemoveConfig is D5's typed configuration record.
type EdgeRemoveConfig struct {
	Prefix string `mapstructure:"prefix" validate:"required"`
}

// EdgeRemove is D5: for each node carrying {prefix}.previous.remove, parses
// the comma-separated source list and removes the corresponding edges.
// Missing edges are ignored, matching RemoveEdge's idempotence.
type EdgeRemove struct {
	cfg EdgeRemoveConfig
}

// NewEdgeRemove builds an EdgeRemove plugin.
func NewEdgeRemove(cfg EdgeRemoveConfig) *EdgeRemove {
	return &EdgeRemove{cfg: cfg}
}

func (p *EdgeRemove) Name() string       { return "edge-remove" }
func (p *EdgeRemove) Kind() plugins.Kind { return plugins.KindInternal }

func (p *EdgeRemove) Run(ctx context.Context, span tracing.Span, env plugins.Envelope) (plugins.Envelope, error) {
	key := fmt.Sprintf("%s.previous.remove", p.cfg.Prefix)

	targets := env.Graph.FindByMetadataKey(key)
	removed := 0
	for _, target := range targets {
		for _, source := range splitCSV(target.Value) {
			if err := env.Graph.RemoveEdge(source, target.Version); err != nil {
				return plugins.Envelope{}, err
			}
			removed++
		}
	}

	span.SetAttribute("edges_removed", fmt.Sprintf("%d", removed))
	return env, nil
}
