package builtin

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cincinnati-graph/cincinnati/internal/cerrors"
	"github.com/cincinnati-graph/cincinnati/internal/plugins"
	"github.com/cincinnati-graph/cincinnati/internal/registryclient"
)

func TestReleaseScraperSeedsNodesOnly(t *testing.T) {
	client := registryclient.NewFakeClient()
	client.SeedRelease("1.0.0", map[string]string{"k": "v"})
	client.SeedRelease("2.0.0", nil)

	p := NewReleaseScraper(ReleaseScraperConfig{Repository: "example/repo", Concurrency: 1}, client)
	out, err := p.Run(context.Background(), noopSpan{}, plugins.Envelope{})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Graph.ReleasesCount())
}

func TestReleaseScraperTransportErrorIsUpstreamUnavailable(t *testing.T) {
	client := registryclient.NewFakeClient()
	client.FailReleases = assert.AnError

	p := NewReleaseScraper(ReleaseScraperConfig{Repository: "example/repo", Concurrency: 1}, client)
	_, err := p.Run(context.Background(), noopSpan{}, plugins.Envelope{})
	require.Error(t, err)
	ge, ok := cerrors.As(err)
	require.True(t, ok)
	assert.Equal(t, cerrors.KindUpstreamUnavailable, ge.Kind)
}
