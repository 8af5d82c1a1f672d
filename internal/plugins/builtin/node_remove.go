package builtin

import (
	"context"
	"fmt"

	"github.com/cincinnati-graph/cincinnati/internal/graph"
	"github.com/cincinnati-graph/cincinnati/internal/plugins"
	"github.com/cincinnati-graph/cincinnati/internal/tracing"
)

func init() {
	plugins.Register("node-remove", func(options map[string]any) (plugins.Plugin, error) {
		var cfg NodeRemoveConfig
		if err := plugins.DecodeOptions(options, &cfg); err != nil {
			return nil, err
		}
		return NewNodeRemove(cfg), nil
	})
}

// NodeRemoveConfig is D3's typed configuration record.
type NodeRemoveConfig struct {
	Prefix string `mapstructure:"prefix" validate:"required"`
}

// NodeRemove is D3: removes every node whose metadata carries
// {prefix}.release.remove = "true".
type NodeRemove struct {
	cfg NodeRemoveConfig
}

// NewNodeRemove builds a NodeRemove plugin.
func NewNodeRemove(cfg NodeRemoveConfig) *NodeRemove {
	return &NodeRemove{cfg: cfg}
}

func (p *NodeRemove) Name() string       { return "node-remove" }
func (p *NodeRemove) Kind() plugins.Kind { return plugins.KindInternal }

func (p *NodeRemove) Run(ctx context.Context, span tracing.Span, env plugins.Envelope) (plugins.Envelope, error) {
	key := fmt.Sprintf("%s.release.remove", p.cfg.Prefix)

	matches := env.Graph.FindByMetadataPair(key, "true")
	ids := make([]graph.ReleaseID, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, m.ID)
	}

	removedCount := env.Graph.RemoveReleases(ids)
	span.SetAttribute("removed", fmt.Sprintf("%d", removedCount))

	return env, nil
}
