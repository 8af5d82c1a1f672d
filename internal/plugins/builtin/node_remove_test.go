package builtin

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cincinnati-graph/cincinnati/internal/graph"
	"github.com/cincinnati-graph/cincinnati/internal/plugins"
)

type noopSpan struct{}

func (noopSpan) SetAttribute(string, string) {}
func (noopSpan) Log(string)                   {}
func (noopSpan) RecordError(error)            {}

// TestNodeRemoveScenarioS1 reproduces spec's S1 scenario: node 0 and node 2
// are marked for removal, node 1 is untouched, and only node 1 survives
// with no dangling edges.
func TestNodeRemoveScenarioS1(t *testing.T) {
	g := graph.New()
	_, err := g.AddRelease("0.0.0", "p0", map[string]string{"p.release.remove": "true"})
	require.NoError(t, err)
	_, err = g.AddRelease("0.0.1", "p1", nil)
	require.NoError(t, err)
	_, err = g.AddRelease("0.0.2", "p2", map[string]string{"p.release.remove": "true"})
	require.NoError(t, err)

	require.NoError(t, g.AddEdge("0.0.0", "0.0.1"))
	require.NoError(t, g.AddEdge("0.0.1", "0.0.2"))

	p := NewNodeRemove(NodeRemoveConfig{Prefix: "p"})
	out, err := p.Run(context.Background(), noopSpan{}, plugins.Envelope{Graph: g, Parameters: nil})
	require.NoError(t, err)

	assert.Equal(t, 1, out.Graph.ReleasesCount())
	_, ok := out.Graph.Version(out.Graph.AllReleaseIDs()[0])
	assert.True(t, ok)
	remaining, _ := out.Graph.Version(out.Graph.AllReleaseIDs()[0])
	assert.Equal(t, "0.0.1", remaining)
}
