// Package policyengine implements the per-request pipeline evaluation: an
// HTTP handler that validates a request, runs the request-scoped plugin
// pipeline, and serializes the resulting graph back to the client.
package policyengine

import (
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cincinnati-graph/cincinnati/internal/cerrors"
	"github.com/cincinnati-graph/cincinnati/internal/graph"
	"github.com/cincinnati-graph/cincinnati/internal/logging"
	"github.com/cincinnati-graph/cincinnati/internal/metrics"
	"github.com/cincinnati-graph/cincinnati/internal/plugins"
	"github.com/cincinnati-graph/cincinnati/internal/tracing"
)

// Server holds everything the graph endpoint needs to serve a request.
type Server struct {
	Stages          []plugins.Plugin
	MandatoryParams []string
	ContentType     string

	Tracer  *tracing.Tracer
	Metrics *metrics.Registry
	Log     *logrus.Entry
}

// New builds a Server.
func New(stages []plugins.Plugin, mandatoryParams []string, contentType string, tracer *tracing.Tracer, reg *metrics.Registry, log *logging.Logger) *Server {
	if contentType == "" {
		contentType = "application/json"
	}
	return &Server{
		Stages:          stages,
		MandatoryParams: mandatoryParams,
		ContentType:     contentType,
		Tracer:          tracer,
		Metrics:         reg,
		Log:             log.WithComponent("policy-engine"),
	}
}

// ServeGraph implements the six steps of spec §4.F for GET {prefix}/v1/graph.
func (s *Server) ServeGraph(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := tracing.ExtractFromHeader(r.Context(), r.Header)

	status := "200"
	defer func() {
		s.Metrics.V1GraphIncomingRequests.WithLabelValues(status).Inc()
		s.Metrics.V1GraphServeDuration.Observe(time.Since(start).Seconds())
	}()

	if err := s.ensureContentType(r); err != nil {
		status = fmt.Sprintf("%d", cerrors.HTTPStatus(err))
		cerrors.WriteJSON(w, err)
		return
	}

	if err := s.ensureMandatoryParams(r.URL.Query()); err != nil {
		status = fmt.Sprintf("%d", cerrors.HTTPStatus(err))
		cerrors.WriteJSON(w, err)
		return
	}

	params := parseLastValueWins(r.URL.Query())

	env, err := plugins.Process(ctx, s.Tracer, s.Metrics, s.Stages, plugins.Envelope{
		Graph:      graph.New(),
		Parameters: params,
	})
	if err != nil {
		status = fmt.Sprintf("%d", cerrors.HTTPStatus(err))
		cerrors.WriteJSON(w, err)
		return
	}

	data, err := env.Graph.Serialize()
	if err != nil {
		status = "500"
		cerrors.WriteJSON(w, cerrors.Wrap(cerrors.KindFailedPluginExecution, "serialize", err))
		return
	}

	w.Header().Set("Content-Type", s.ContentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) ensureContentType(r *http.Request) error {
	accept := r.Header.Get("Accept")
	if accept == "" {
		return cerrors.New(cerrors.KindInvalidContentType, "missing Accept header")
	}
	for _, candidate := range strings.Split(accept, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == s.ContentType || candidate == "*/*" {
			return nil
		}
	}
	return cerrors.New(cerrors.KindInvalidContentType, fmt.Sprintf("Accept %q does not include %q", accept, s.ContentType))
}

// ensureMandatoryParams requires every configured mandatory parameter key to
// be present at least once in query, with duplicate keys collapsed before
// comparison. The missing-keys list in the error is sorted lexicographically.
func (s *Server) ensureMandatoryParams(query url.Values) error {
	if len(s.MandatoryParams) == 0 {
		return nil
	}

	var missing []string
	for _, key := range s.MandatoryParams {
		if _, present := query[key]; !present {
			missing = append(missing, key)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	sort.Strings(missing)
	return cerrors.New(cerrors.KindMissingParams, strings.Join(missing, ","))
}

// parseLastValueWins collapses repeated query keys to their last value, for
// plugin consumption (mandatory-parameter checking, by contrast, treats any
// occurrence as satisfying the requirement — see ensureMandatoryParams).
func parseLastValueWins(query url.Values) map[string]string {
	params := make(map[string]string, len(query))
	for key, values := range query {
		if len(values) == 0 {
			continue
		}
		params[key] = values[len(values)-1]
	}
	return params
}
