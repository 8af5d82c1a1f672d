package builtin

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cincinnati-graph/cincinnati/internal/cerrors"
	"github.com/cincinnati-graph/cincinnati/internal/graph"
	"github.com/cincinnati-graph/cincinnati/internal/plugins"
)

func TestUpstreamFetchDeserializesResponse(t *testing.T) {
	seed := graph.New()
	_, err := seed.AddRelease("1.0.0", "payload", nil)
	require.NoError(t, err)
	body, err := seed.Serialize()
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	p := NewUpstreamFetch(UpstreamFetchConfig{URL: srv.URL}, srv.Client())
	out, err := p.Run(context.Background(), noopSpan{}, plugins.Envelope{})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Graph.ReleasesCount())
}

func TestUpstreamFetchMalformedBodyIsFailedUpstreamParse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	p := NewUpstreamFetch(UpstreamFetchConfig{URL: srv.URL}, srv.Client())
	_, err := p.Run(context.Background(), noopSpan{}, plugins.Envelope{})
	require.Error(t, err)
	ge, ok := cerrors.As(err)
	require.True(t, ok)
	assert.Equal(t, cerrors.KindFailedUpstreamParse, ge.Kind)
}

func TestUpstreamFetchTransportErrorIsFailedUpstreamFetch(t *testing.T) {
	p := NewUpstreamFetch(UpstreamFetchConfig{URL: "http://127.0.0.1:0/no-such-port"}, http.DefaultClient)
	_, err := p.Run(context.Background(), noopSpan{}, plugins.Envelope{})
	require.Error(t, err)
	ge, ok := cerrors.As(err)
	require.True(t, ok)
	assert.Equal(t, cerrors.KindFailedUpstreamFetch, ge.Kind)
}
