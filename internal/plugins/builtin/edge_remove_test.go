package builtin

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cincinnati-graph/cincinnati/internal/graph"
	"github.com/cincinnati-graph/cincinnati/internal/plugins"
)

func TestEdgeRemove(t *testing.T) {
	g := graph.New()
	_, err := g.AddRelease("0.0.0", "p0", nil)
	require.NoError(t, err)
	_, err = g.AddRelease("0.0.1", "p1", map[string]string{"p.previous.remove": "0.0.0"})
	require.NoError(t, err)
	require.NoError(t, g.AddEdge("0.0.0", "0.0.1"))

	p := NewEdgeRemove(EdgeRemoveConfig{Prefix: "p"})
	out, err := p.Run(context.Background(), noopSpan{}, plugins.Envelope{Graph: g})
	require.NoError(t, err)
	assert.False(t, out.Graph.HasEdge("0.0.0", "0.0.1"))
}

func TestEdgeRemoveMissingEdgeIsIgnored(t *testing.T) {
	g := graph.New()
	_, err := g.AddRelease("0.0.0", "p0", map[string]string{"p.previous.remove": "absent"})
	require.NoError(t, err)

	p := NewEdgeRemove(EdgeRemoveConfig{Prefix: "p"})
	_, err = p.Run(context.Background(), noopSpan{}, plugins.Envelope{Graph: g})
	require.NoError(t, err)
}
