package builtin

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cincinnati-graph/cincinnati/internal/graph"
	"github.com/cincinnati-graph/cincinnati/internal/logging"
	"github.com/cincinnati-graph/cincinnati/internal/plugins"
	"github.com/cincinnati-graph/cincinnati/internal/tracing"
)

func init() {
	plugins.Register("edge-add", func(options map[string]any) (plugins.Plugin, error) {
		var cfg EdgeAddConfig
		if err := plugins.DecodeOptions(options, &cfg); err != nil {
			return nil, err
		}
		return NewEdgeAdd(cfg, logging.NewDefault()), nil
	})
}

// EdgeAddConfig is D4's typed configuration record.
type EdgeAddConfig struct {
	Prefix string `mapstructure:"prefix" validate:"required"`
}

// EdgeAdd is D4: for each node carrying {prefix}.previous.add, parses a
// comma-separated list of source versions and adds an edge from each source
// to that node. Unknown sources are skipped with a warning; an edge that
// would close a cycle fails the whole plugin.
type EdgeAdd struct {
	cfg EdgeAddConfig
	log *logging.Logger
}

// NewEdgeAdd builds an EdgeAdd plugin.
func NewEdgeAdd(cfg EdgeAddConfig, log *logging.Logger) *EdgeAdd {
	return &EdgeAdd{cfg: cfg, log: log}
}

func (p *EdgeAdd) Name() string       { return "edge-add" }
func (p *EdgeAdd) Kind() plugins.Kind { return plugins.KindInternal }

func (p *EdgeAdd) Run(ctx context.Context, span tracing.Span, env plugins.Envelope) (plugins.Envelope, error) {
	key := fmt.Sprintf("%s.previous.add", p.cfg.Prefix)

	targets := env.Graph.FindByMetadataKey(key)
	added := 0
	for _, target := range targets {
		for _, source := range splitCSV(target.Value) {
			err := env.Graph.AddEdge(source, target.Version)
			if err == nil {
				added++
				continue
			}

			var unknown *graph.UnknownReleaseError
			if errors.As(err, &unknown) {
				p.log.WithField("version", source).Warnf(
					"edge-add: unknown source release %q referenced by %q, skipping", source, target.Version)
				continue
			}
			return plugins.Envelope{}, err
		}
	}

	span.SetAttribute("edges_added", fmt.Sprintf("%d", added))
	return env, nil
}

func splitCSV(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
