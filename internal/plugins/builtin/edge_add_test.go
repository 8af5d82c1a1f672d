package builtin

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cincinnati-graph/cincinnati/internal/graph"
	"github.com/cincinnati-graph/cincinnati/internal/logging"
	"github.com/cincinnati-graph/cincinnati/internal/plugins"
)

// TestEdgeAddScenarioS2 reproduces spec's S2 scenario: node 0.0.3 requests
// edges from 0.0.1 and 0.0.0, and only those two edges are added.
func TestEdgeAddScenarioS2(t *testing.T) {
	g := graph.New()
	for _, v := range []string{"0.0.0", "0.0.1", "0.0.2", "0.0.3"} {
		var meta map[string]string
		if v == "0.0.3" {
			meta = map[string]string{"p.previous.add": "0.0.1,0.0.0"}
		}
		_, err := g.AddRelease(v, "payload-"+v, meta)
		require.NoError(t, err)
	}

	p := NewEdgeAdd(EdgeAddConfig{Prefix: "p"}, logging.NewDefault())
	out, err := p.Run(context.Background(), noopSpan{}, plugins.Envelope{Graph: g})
	require.NoError(t, err)

	assert.True(t, out.Graph.HasEdge("0.0.1", "0.0.3"))
	assert.True(t, out.Graph.HasEdge("0.0.0", "0.0.3"))
	assert.False(t, out.Graph.HasEdge("0.0.2", "0.0.3"))
}

// TestEdgeAddUnknownSourceSkipsWithoutFailing covers the "unknown sources:
// skip and warn" branch of D4.
func TestEdgeAddUnknownSourceSkipsWithoutFailing(t *testing.T) {
	g := graph.New()
	_, err := g.AddRelease("0.0.0", "p0", map[string]string{"p.previous.add": "9.9.9"})
	require.NoError(t, err)

	p := NewEdgeAdd(EdgeAddConfig{Prefix: "p"}, logging.NewDefault())
	out, err := p.Run(context.Background(), noopSpan{}, plugins.Envelope{Graph: g})
	require.NoError(t, err)
	assert.False(t, out.Graph.HasEdge("9.9.9", "0.0.0"))
}

// TestEdgeAddCycleFailsThePlugin covers the "cycle-introducing edges fail"
// branch of D4.
func TestEdgeAddCycleFailsThePlugin(t *testing.T) {
	g := graph.New()
	_, err := g.AddRelease("0.0.0", "p0", map[string]string{"p.previous.add": "0.0.1"})
	require.NoError(t, err)
	_, err = g.AddRelease("0.0.1", "p1", nil)
	require.NoError(t, err)
	require.NoError(t, g.AddEdge("0.0.0", "0.0.1"))

	p := NewEdgeAdd(EdgeAddConfig{Prefix: "p"}, logging.NewDefault())
	_, err = p.Run(context.Background(), noopSpan{}, plugins.Envelope{Graph: g})
	require.Error(t, err)
	var cyc *graph.CycleDetectedError
	require.ErrorAs(t, err, &cyc)
}
