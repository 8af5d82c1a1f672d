package builtin

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cincinnati-graph/cincinnati/internal/graph"
	"github.com/cincinnati-graph/cincinnati/internal/plugins"
)

func TestArchFilterDefaultsWhenOmitted(t *testing.T) {
	g := graph.New()
	_, err := g.AddRelease("0.0.0", "p0", map[string]string{"p.release.arch": "amd64"})
	require.NoError(t, err)
	_, err = g.AddRelease("0.0.1", "p1", map[string]string{"p.release.arch": "arm64"})
	require.NoError(t, err)

	p := NewArchFilter(ArchFilterConfig{Prefix: "p", DefaultArch: "amd64"})
	out, err := p.Run(context.Background(), noopSpan{}, plugins.Envelope{Graph: g, Parameters: map[string]string{}})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Graph.ReleasesCount())
}

func TestArchFilterUsesRequestedArch(t *testing.T) {
	g := graph.New()
	_, err := g.AddRelease("0.0.0", "p0", map[string]string{"p.release.arch": "amd64"})
	require.NoError(t, err)
	_, err = g.AddRelease("0.0.1", "p1", map[string]string{"p.release.arch": "arm64"})
	require.NoError(t, err)

	p := NewArchFilter(ArchFilterConfig{Prefix: "p", DefaultArch: "amd64"})
	out, err := p.Run(context.Background(), noopSpan{}, plugins.Envelope{Graph: g, Parameters: map[string]string{"arch": "arm64"}})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Graph.ReleasesCount())
	remaining, _ := out.Graph.Version(out.Graph.AllReleaseIDs()[0])
	assert.Equal(t, "0.0.1", remaining)
}
