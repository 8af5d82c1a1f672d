package builtin

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cincinnati-graph/cincinnati/internal/cerrors"
	"github.com/cincinnati-graph/cincinnati/internal/graph"
	"github.com/cincinnati-graph/cincinnati/internal/plugins"
)

// TestChannelFilterScenarioS4 reproduces spec's S4 scenario: an invalid
// channel value is rejected with InvalidParams.
func TestChannelFilterScenarioS4(t *testing.T) {
	g := graph.New()
	p := NewChannelFilter(ChannelFilterConfig{Prefix: "p"})

	_, err := p.Run(context.Background(), noopSpan{}, plugins.Envelope{
		Graph:      g,
		Parameters: map[string]string{"channel": "invalid:channel"},
	})
	require.Error(t, err)
	ge, ok := cerrors.As(err)
	require.True(t, ok)
	assert.Equal(t, cerrors.KindInvalidParams, ge.Kind)
	assert.Equal(t, "channel 'invalid:channel'", ge.Value)
}

func TestChannelFilterMissingChannel(t *testing.T) {
	g := graph.New()
	p := NewChannelFilter(ChannelFilterConfig{Prefix: "p"})

	_, err := p.Run(context.Background(), noopSpan{}, plugins.Envelope{Graph: g, Parameters: map[string]string{}})
	require.Error(t, err)
	ge, ok := cerrors.As(err)
	require.True(t, ok)
	assert.Equal(t, cerrors.KindInvalidParams, ge.Kind)
}

func TestChannelFilterRetainsOnlyMatchingChannel(t *testing.T) {
	g := graph.New()
	_, err := g.AddRelease("0.0.0", "p0", map[string]string{"p.release.channels": "stable,fast"})
	require.NoError(t, err)
	_, err = g.AddRelease("0.0.1", "p1", map[string]string{"p.release.channels": "candidate"})
	require.NoError(t, err)

	p := NewChannelFilter(ChannelFilterConfig{Prefix: "p"})
	out, err := p.Run(context.Background(), noopSpan{}, plugins.Envelope{
		Graph:      g,
		Parameters: map[string]string{"channel": "stable"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Graph.ReleasesCount())
}
