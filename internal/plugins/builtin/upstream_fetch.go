package builtin

import (
	"context"
	"io"
	"net/http"

	"github.com/cincinnati-graph/cincinnati/internal/cerrors"
	"github.com/cincinnati-graph/cincinnati/internal/graph"
	"github.com/cincinnati-graph/cincinnati/internal/plugins"
	"github.com/cincinnati-graph/cincinnati/internal/tracing"
)

func init() {
	plugins.Register("upstream-fetch", func(options map[string]any) (plugins.Plugin, error) {
		var cfg UpstreamFetchConfig
		if err := plugins.DecodeOptions(options, &cfg); err != nil {
			return nil, err
		}
		return NewUpstreamFetch(cfg, http.DefaultClient), nil
	})
}

// UpstreamFetchConfig is D8's typed configuration record.
type UpstreamFetchConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

// UpstreamFetch is D8: HTTP-GETs the builder's cached JSON graph and
// deserializes it into the envelope, replacing whatever graph was in hand.
type UpstreamFetch struct {
	cfg    UpstreamFetchConfig
	client *http.Client
}

// NewUpstreamFetch builds an UpstreamFetch plugin over an explicit HTTP
// client, letting tests substitute one pointed at an httptest.Server.
func NewUpstreamFetch(cfg UpstreamFetchConfig, client *http.Client) *UpstreamFetch {
	if client == nil {
		client = http.DefaultClient
	}
	return &UpstreamFetch{cfg: cfg, client: client}
}

func (p *UpstreamFetch) Name() string       { return "upstream-fetch" }
func (p *UpstreamFetch) Kind() plugins.Kind { return plugins.KindExternal }

func (p *UpstreamFetch) Run(ctx context.Context, span tracing.Span, env plugins.Envelope) (plugins.Envelope, error) {
	span.SetAttribute("url", p.cfg.URL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.URL, nil)
	if err != nil {
		return plugins.Envelope{}, cerrors.Wrap(cerrors.KindFailedUpstreamFetch, p.cfg.URL, err)
	}
	req.Header.Set("Accept", "application/json")
	tracing.InjectIntoHeader(ctx, req.Header)

	resp, err := p.client.Do(req)
	if err != nil {
		return plugins.Envelope{}, cerrors.Wrap(cerrors.KindFailedUpstreamFetch, p.cfg.URL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return plugins.Envelope{}, cerrors.Wrap(cerrors.KindFailedUpstreamFetch, p.cfg.URL, err)
	}
	if resp.StatusCode != http.StatusOK {
		return plugins.Envelope{}, cerrors.New(cerrors.KindFailedUpstreamFetch,
			"unexpected upstream status for "+p.cfg.URL)
	}

	g, err := graph.Deserialize(body)
	if err != nil {
		return plugins.Envelope{}, cerrors.Wrap(cerrors.KindFailedUpstreamParse, p.cfg.URL, err)
	}

	return plugins.Envelope{Graph: g, Parameters: env.Parameters}, nil
}
