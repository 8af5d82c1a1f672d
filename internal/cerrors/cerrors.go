// Package cerrors defines the structured error type returned across plugin,
// pipeline, and HTTP-handler boundaries, modeled on the teacher's
// infrastructure/errors.ServiceError: a closed kind taxonomy, a human
// message, an HTTP status, and an optional wrapped cause.
package cerrors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Kind is the closed set of error categories a GraphError can carry.
type Kind string

const (
	KindInvalidContentType    Kind = "InvalidContentType"
	KindMissingParams         Kind = "MissingParams"
	KindInvalidParams         Kind = "InvalidParams"
	KindFailedUpstreamFetch   Kind = "FailedUpstreamFetch"
	KindFailedUpstreamParse   Kind = "FailedUpstreamParse"
	KindFailedPluginExecution Kind = "FailedPluginExecution"
	KindUpstreamUnavailable   Kind = "UpstreamUnavailable"
	KindUpstreamMalformed     Kind = "UpstreamMalformed"
	KindInvalidPluginConfig   Kind = "InvalidPluginConfig"
	KindCancelled             Kind = "Cancelled"
	KindInternalFailure       Kind = "InternalFailure"
)

var statusByKind = map[Kind]int{
	KindInvalidContentType:    http.StatusNotAcceptable,
	KindMissingParams:         http.StatusBadRequest,
	KindInvalidParams:         http.StatusBadRequest,
	KindFailedUpstreamFetch:   http.StatusBadGateway,
	KindFailedUpstreamParse:   http.StatusBadGateway,
	KindFailedPluginExecution: http.StatusInternalServerError,
	KindUpstreamUnavailable:   http.StatusBadGateway,
	KindUpstreamMalformed:     http.StatusBadGateway,
	KindInvalidPluginConfig:   http.StatusInternalServerError,
	KindCancelled:             http.StatusInternalServerError,
	KindInternalFailure:       http.StatusInternalServerError,
}

// GraphError is the error type every handler-visible failure in this module
// is ultimately converted to.
type GraphError struct {
	Kind   Kind
	Value  string
	Status int
	Err    error
}

func (e *GraphError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Value, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Value)
}

func (e *GraphError) Unwrap() error {
	return e.Err
}

// New builds a GraphError of kind with the given human-readable value, with
// its HTTP status resolved from the kind taxonomy.
func New(kind Kind, value string) *GraphError {
	return &GraphError{Kind: kind, Value: value, Status: statusFor(kind)}
}

// Wrap builds a GraphError of kind around an existing cause.
func Wrap(kind Kind, value string, err error) *GraphError {
	return &GraphError{Kind: kind, Value: value, Status: statusFor(kind), Err: err}
}

func statusFor(kind Kind) int {
	if s, ok := statusByKind[kind]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// As extracts a *GraphError from err, following the wrap chain, the same
// way the teacher's GetServiceError does.
func As(err error) (*GraphError, bool) {
	var ge *GraphError
	if errors.As(err, &ge) {
		return ge, true
	}
	return nil, false
}

// HTTPStatus returns the HTTP status that should be reported for err: the
// status carried by a wrapped GraphError, or 500 for anything else.
func HTTPStatus(err error) int {
	if ge, ok := As(err); ok {
		return ge.Status
	}
	return http.StatusInternalServerError
}

// errorBody is the wire shape written by WriteJSON.
type errorBody struct {
	Kind  Kind   `json:"kind"`
	Value string `json:"value"`
}

// WriteJSON writes err as the JSON error body spec §7 describes, with the
// status code taken from the error's Kind (or 500 if err is not a
// GraphError).
func WriteJSON(w http.ResponseWriter, err error) {
	ge, ok := As(err)
	if !ok {
		ge = New(KindInternalFailure, err.Error())
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(ge.Status)
	_ = json.NewEncoder(w).Encode(errorBody{Kind: ge.Kind, Value: ge.Value})
}
