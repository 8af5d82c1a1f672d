package builtin

import (
	"context"
	"fmt"

	"github.com/cincinnati-graph/cincinnati/internal/graph"
	"github.com/cincinnati-graph/cincinnati/internal/plugins"
	"github.com/cincinnati-graph/cincinnati/internal/tracing"
)

func init() {
	plugins.Register("arch-filter", func(options map[string]any) (plugins.Plugin, error) {
		var cfg ArchFilterConfig
		if err := plugins.DecodeOptions(options, &cfg); err != nil {
			return nil, err
		}
		return NewArchFilter(cfg), nil
	})
}

// ArchFilterConfig is D7's typed configuration record.
type ArchFilterConfig struct {
	Prefix      string `mapstructure:"prefix" validate:"required"`
	DefaultArch string `mapstructure:"default_arch" validate:"required"`
}

// ArchFilter is D7: analogous to ChannelFilter, keyed on the request's arch
// parameter, which defaults to the configured value when omitted.
type ArchFilter struct {
	cfg ArchFilterConfig
}

// NewArchFilter builds an ArchFilter plugin.
func NewArchFilter(cfg ArchFilterConfig) *ArchFilter {
	return &ArchFilter{cfg: cfg}
}

func (p *ArchFilter) Name() string       { return "arch-filter" }
func (p *ArchFilter) Kind() plugins.Kind { return plugins.KindInternal }

func (p *ArchFilter) Run(ctx context.Context, span tracing.Span, env plugins.Envelope) (plugins.Envelope, error) {
	arch, ok := env.Parameters["arch"]
	if !ok || arch == "" {
		arch = p.cfg.DefaultArch
	}
	span.SetAttribute("arch", arch)

	key := fmt.Sprintf("%s.release.arch", p.cfg.Prefix)
	keep := make(map[graph.ReleaseID]struct{})
	for _, m := range env.Graph.FindByMetadataKey(key) {
		if csvContains(m.Value, arch) {
			keep[m.ID] = struct{}{}
		}
	}

	removeUnkept(env.Graph, keep)
	return env, nil
}
