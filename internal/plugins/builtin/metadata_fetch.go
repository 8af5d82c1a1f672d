package builtin

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/cincinnati-graph/cincinnati/internal/cerrors"
	"github.com/cincinnati-graph/cincinnati/internal/logging"
	"github.com/cincinnati-graph/cincinnati/internal/plugins"
	"github.com/cincinnati-graph/cincinnati/internal/registryclient"
	"github.com/cincinnati-graph/cincinnati/internal/tracing"
)

func init() {
	plugins.Register("metadata-fetch", func(options map[string]any) (plugins.Plugin, error) {
		var cfg MetadataFetchConfig
		if err := plugins.DecodeOptions(options, &cfg); err != nil {
			return nil, err
		}
		client := registryclient.NewHTTPClient(registryclient.Config{BaseURL: cfg.BaseURL})
		return NewMetadataFetch(cfg, client, logging.NewDefault()), nil
	})
}

// MetadataFetchConfig is D2's typed configuration record.
type MetadataFetchConfig struct {
	BaseURL           string `mapstructure:"base_url" validate:"required"`
	Repository        string `mapstructure:"repository" validate:"required"`
	ManifestRefKey    string `mapstructure:"manifestref_key" validate:"required"`
	LabelFilterPrefix string `mapstructure:"label_filter_prefix" validate:"required"`
	Concurrency       int    `mapstructure:"concurrency" validate:"gte=1"`
}

// MetadataFetch is D2: for every node whose metadata carries the configured
// manifestref key, fetches labels under the configured prefix and merges
// them in. A single label-fetch failure aborts the whole plugin — this is
// deliberately all-or-nothing, never best-effort.
type MetadataFetch struct {
	cfg    MetadataFetchConfig
	client registryclient.Client
	log    *logging.Logger
}

// NewMetadataFetch builds a MetadataFetch over an explicit client and
// logger, letting tests substitute a registryclient.FakeClient.
func NewMetadataFetch(cfg MetadataFetchConfig, client registryclient.Client, log *logging.Logger) *MetadataFetch {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	return &MetadataFetch{cfg: cfg, client: client, log: log}
}

func (p *MetadataFetch) Name() string      { return "metadata-fetch" }
func (p *MetadataFetch) Kind() plugins.Kind { return plugins.KindExternal }

func (p *MetadataFetch) Run(ctx context.Context, span tracing.Span, env plugins.Envelope) (plugins.Envelope, error) {
	g := env.Graph
	targets := g.FindByMetadataKey(p.cfg.ManifestRefKey)
	span.SetAttribute("targets", fmt.Sprintf("%d", len(targets)))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(p.cfg.Concurrency)

	for _, target := range targets {
		target := target
		group.Go(func() error {
			labels, err := p.client.FetchLabels(groupCtx, p.cfg.Repository, target.Value, p.cfg.LabelFilterPrefix)
			if err != nil {
				return cerrors.Wrap(cerrors.KindUpstreamUnavailable, target.Version, err)
			}

			meta, err := g.GetMetadata(target.ID)
			if err != nil {
				return err
			}
			for key, value := range labels {
				if previous, exists := meta[key]; exists {
					p.log.WithFields(map[string]interface{}{
						"version": target.Version,
						"key":     key,
					}).Warnf("[%s] key '%s' already exists. overwriting with value '%s'. previous value: '%s'",
						target.Version, key, value, previous)
				}
				meta[key] = value
			}
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return plugins.Envelope{}, err
	}

	return env, nil
}
