package builtin

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/cincinnati-graph/cincinnati/internal/cerrors"
	"github.com/cincinnati-graph/cincinnati/internal/graph"
	"github.com/cincinnati-graph/cincinnati/internal/plugins"
	"github.com/cincinnati-graph/cincinnati/internal/registryclient"
	"github.com/cincinnati-graph/cincinnati/internal/tracing"
)

func init() {
	plugins.Register("release-scraper", func(options map[string]any) (plugins.Plugin, error) {
		var cfg ReleaseScraperConfig
		if err := plugins.DecodeOptions(options, &cfg); err != nil {
			return nil, err
		}

		var creds []byte
		if cfg.CredentialsFile != "" {
			data, err := os.ReadFile(cfg.CredentialsFile)
			if err != nil {
				return nil, cerrors.Wrap(cerrors.KindInvalidPluginConfig, cfg.CredentialsFile, err)
			}
			creds = data
		}

		client := registryclient.NewHTTPClient(registryclient.Config{
			BaseURL:        cfg.BaseURL,
			CredentialsPEM: creds,
			Timeout:        cfg.timeout(),
		})
		return NewReleaseScraper(cfg, client), nil
	})
}

// ReleaseScraperConfig is D1's typed configuration record.
type ReleaseScraperConfig struct {
	BaseURL         string `mapstructure:"base_url" validate:"required"`
	Repository      string `mapstructure:"repository" validate:"required"`
	CredentialsFile string `mapstructure:"credentials_file"`
	TimeoutSeconds  int    `mapstructure:"timeout_seconds" validate:"gte=0"`
	Concurrency     int    `mapstructure:"concurrency" validate:"gte=1"`
}

func (c ReleaseScraperConfig) timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// ReleaseScraper is D1: fetches the release inventory from a remote
// registry and seeds a graph with nodes only — no edges are added here,
// that is D4's job once metadata has been enriched.
type ReleaseScraper struct {
	cfg    ReleaseScraperConfig
	client registryclient.Client
}

// NewReleaseScraper builds a ReleaseScraper over an explicit client,
// letting tests substitute a registryclient.FakeClient.
func NewReleaseScraper(cfg ReleaseScraperConfig, client registryclient.Client) *ReleaseScraper {
	return &ReleaseScraper{cfg: cfg, client: client}
}

func (p *ReleaseScraper) Name() string      { return "release-scraper" }
func (p *ReleaseScraper) Kind() plugins.Kind { return plugins.KindExternal }

func (p *ReleaseScraper) Run(ctx context.Context, span tracing.Span, env plugins.Envelope) (plugins.Envelope, error) {
	span.SetAttribute("repository", p.cfg.Repository)

	raw, err := p.client.FetchReleases(ctx, p.cfg.Repository)
	if err != nil {
		return plugins.Envelope{}, cerrors.Wrap(cerrors.KindUpstreamUnavailable, p.cfg.Repository, err)
	}

	g := graph.New()
	for _, rel := range raw {
		if rel.Version == "" || rel.Payload == "" {
			return plugins.Envelope{}, cerrors.New(cerrors.KindUpstreamMalformed,
				fmt.Sprintf("release with empty version or payload from %s", p.cfg.Repository))
		}
		if _, err := g.AddRelease(rel.Version, rel.Payload, rel.Metadata); err != nil {
			return plugins.Envelope{}, cerrors.Wrap(cerrors.KindUpstreamMalformed, p.cfg.Repository, err)
		}
	}

	span.SetAttribute("releases_fetched", fmt.Sprintf("%d", len(raw)))
	return plugins.Envelope{Graph: g, Parameters: env.Parameters}, nil
}
