package rexster

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
)

// Server is a connection to a Rexster server. Its metadata is fetched once by
// Connect and never refreshed, so a long-lived Server can report a stale
// uptime or graph list.
type Server struct {
	host      string
	transport Transport
	logger    *slog.Logger

	name    string
	version string
	upTime  string
	graphs  []string
}

// Option configures a Server.
type Option func(*Server)

// WithTransport sets the transport every request of this server and the
// handles derived from it goes through. The default is NewHTTPTransport().
func WithTransport(t Transport) Option {
	return func(s *Server) {
		s.transport = t
	}
}

// WithLogger sets the logger used by the object model. The default discards.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// Connect fetches the server root resource at host and returns a handle on it.
//
// Parameters:
//   - ctx: Bounds the single root request.
//   - host: The server base URL (e.g., "http://localhost:8182"). A trailing slash is dropped.
//   - opts: WithTransport and WithLogger.
//
// Returns:
//   - A *Server holding the name, version, uptime and graph list read once.
//   - An error wrapping ErrConnection on failure.
//
// Both an unreachable server and a non-success reply fail with ErrConnection.
// In the second case the error also wraps a *ResponseError, which is how the
// two are told apart:
//
//	var respErr *rexster.ResponseError
//	if errors.As(err, &respErr) { /* the server answered */ }
func Connect(ctx context.Context, host string, opts ...Option) (*Server, error) {
	s := &Server{
		host:   strings.TrimRight(host, "/"),
		logger: discardLogger,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.transport == nil {
		s.transport = NewHTTPTransport(WithTransportLogger(s.logger))
	}

	resp, err := s.transport.Get(ctx, s.host, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnection, err)
	}
	if !resp.OK() {
		return nil, fmt.Errorf("%w: %w", ErrConnection, responseError(resp))
	}

	doc, err := decodeDocument(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnection, err)
	}

	s.name = doc.str("name")
	s.version = doc.str("version")
	s.upTime = doc.str("upTime")
	if graphs, ok := doc["graphs"].([]any); ok {
		for _, g := range graphs {
			s.graphs = append(s.graphs, stringify(g))
		}
	}

	s.logger.Debug("connected to rexster", "host", s.host, "version", s.version, "graphs", len(s.graphs))
	return s, nil
}

// Host returns the base URL the server was connected with.
func (s *Server) Host() string { return s.host }

// Name returns the server name.
func (s *Server) Name() string { return s.name }

// Version returns the server version.
func (s *Server) Version() string { return s.version }

// Uptime returns the server uptime as reported at connection time.
func (s *Server) Uptime() string { return s.upTime }

// Graphs returns the names of the graphs hosted by the server, in server order.
func (s *Server) Graphs() []string { return slices.Clone(s.graphs) }

// Graph returns a handle on the named graph. It performs no I/O.
func (s *Server) Graph(name string) *Graph {
	return newGraph(s, name)
}

// IndexableGraph returns a handle on the named graph with index management.
// It performs no I/O.
func (s *Server) IndexableGraph(name string) *IndexableGraph {
	return &IndexableGraph{Graph: newGraph(s, name)}
}
