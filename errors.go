package rexster

import (
	"errors"
	"fmt"
)

// Sentinel errors identifying the kind of a failure. Errors returned by this
// package wrap one of them; callers branch with errors.Is.
var (
	// ErrConnection is returned when the server root resource cannot be
	// fetched. It is fatal to Connect.
	ErrConnection = errors.New("could not connect to a rexster server")

	// ErrNotFound is returned when an element or index resource returned no
	// usable payload. Graph.Vertex, Graph.Edge and IndexableGraph.Index turn it
	// into a nil result instead.
	ErrNotFound = errors.New("resource not found")

	// ErrProperty is returned when a property read, write or removal failed
	// server-side.
	ErrProperty = errors.New("property operation failed")

	// ErrGraph is returned when a vertex or edge create, delete or listing
	// failed server-side.
	ErrGraph = errors.New("graph operation failed")

	// ErrIndex is returned when an index operation failed, or when the caller
	// passed an invalid index class or element kind.
	ErrIndex = errors.New("index operation failed")

	// ErrDecode is returned when a response body is not the JSON document the
	// protocol promises.
	ErrDecode = errors.New("could not decode response")
)

// ResponseError describes a non-success reply from the server. Message is the
// server supplied `message` field, when there was one.
type ResponseError struct {
	StatusCode int
	Message    string
}

func (e *ResponseError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server replied with status %d", e.StatusCode)
	}
	return fmt.Sprintf("server replied with status %d: %s", e.StatusCode, e.Message)
}

// kindError wraps err under the sentinel kind with a short operation context,
// e.g. "graph operation failed: could not create vertex: server replied ...".
func kindError(kind error, op string, err error) error {
	if err == nil {
		return fmt.Errorf("%w: %s", kind, op)
	}
	return fmt.Errorf("%w: %s: %w", kind, op, err)
}
