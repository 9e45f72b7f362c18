package rexster

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
)

// Graph is a handle on one graph hosted by a Server. It holds no state beyond
// its name and URL: every operation issues a fresh request.
type Graph struct {
	server *Server
	name   string
	url    string
}

func newGraph(s *Server, name string) *Graph {
	return &Graph{
		server: s,
		name:   name,
		url:    s.host + "/" + url.PathEscape(name),
	}
}

// Name returns the graph name.
func (g *Graph) Name() string { return g.name }

// URL returns the graph resource URL.
func (g *Graph) URL() string { return g.url }

// Server returns the server hosting the graph.
func (g *Graph) Server() *Server { return g.server }

func (g *Graph) transport() Transport { return g.server.transport }

func (g *Graph) logger() *slog.Logger { return g.server.logger }

func (g *Graph) elementURL(kind ElementKind, id string) string {
	return g.url + "/" + kind.collection() + "/" + url.PathEscape(id)
}

// Metadata fetches the graph root resource and returns the body as decoded,
// whatever the status: an unknown graph yields the server's
// {"message": ...} document. Only a failed round trip or a body that is not
// a JSON object is an error.
func (g *Graph) Metadata(ctx context.Context) (map[string]any, error) {
	resp, err := g.transport().Get(ctx, g.url, nil)
	if err != nil {
		return nil, kindError(ErrGraph, "fetch metadata", err)
	}
	doc, err := decodeDocument(resp.Body)
	if err != nil {
		if !resp.OK() {
			return nil, kindError(ErrGraph, "fetch metadata", &ResponseError{StatusCode: resp.StatusCode})
		}
		return nil, kindError(ErrGraph, "fetch metadata", err)
	}
	if !resp.OK() {
		g.logger().Debug("graph metadata returned an error document", "graph", g.name, "status", resp.StatusCode)
	}
	return doc, nil
}

// AddVertex creates a vertex. With an empty id the server assigns one;
// otherwise the vertex is created under id, and whether an existing id is
// accepted is up to the server.
func (g *Graph) AddVertex(ctx context.Context, id string) (*Vertex, error) {
	target := g.url + "/vertices"
	if id != "" {
		target = g.elementURL(VertexKind, id)
	}

	created, err := g.create(ctx, target, nil, nil, "could not create vertex")
	if err != nil {
		return nil, err
	}
	return NewVertex(ctx, g, created)
}

// Vertex looks up a vertex by id. A vertex that does not exist is reported as
// (nil, nil); any other failure is returned as an error.
func (g *Graph) Vertex(ctx context.Context, id string) (*Vertex, error) {
	v, err := NewVertex(ctx, g, id)
	if errors.Is(err, ErrNotFound) {
		g.logger().Debug("vertex not found", "graph", g.name, "id", id)
		return nil, nil
	}
	return v, err
}

// Vertices fetches the vertex collection once and returns an iterator that
// fetches each vertex as it is reached.
func (g *Graph) Vertices(ctx context.Context) (*Iterator[*Vertex], error) {
	records, err := g.list(ctx, g.url+"/vertices", nil, ErrGraph, "list vertices")
	if err != nil {
		return nil, err
	}
	return newIterator(records, func(ctx context.Context, record map[string]any) (*Vertex, error) {
		return NewVertex(ctx, g, stringify(record["_id"]))
	}), nil
}

// RemoveVertex deletes v on the server. v itself is left untouched; further
// live reads through it fail with ErrNotFound.
func (g *Graph) RemoveVertex(ctx context.Context, v *Vertex) error {
	if v == nil {
		return fmt.Errorf("%w: nil vertex", ErrGraph)
	}
	return g.remove(ctx, g.elementURL(VertexKind, v.ID()), "could not delete vertex")
}

// AddEdge creates an edge labeled label from out to in.
//
// Parameters:
//   - out, in: The endpoints. Both must be non-nil; only their ids are sent.
//   - label: The edge label.
//
// Returns:
//   - The created edge, read back from the server.
//   - An error wrapping ErrGraph when the server refuses the edge.
//
// The three fields are sent both as query parameters and as the form body.
// Rexster servers disagree on which one they read, so both are kept.
func (g *Graph) AddEdge(ctx context.Context, out, in *Vertex, label string) (*Edge, error) {
	if out == nil || in == nil {
		return nil, fmt.Errorf("%w: could not create the edge: nil endpoint", ErrGraph)
	}

	params := url.Values{
		"_outV":  {out.ID()},
		"_inV":   {in.ID()},
		"_label": {label},
	}
	created, err := g.create(ctx, g.url+"/edges", params, params, "could not create the edge")
	if err != nil {
		return nil, err
	}
	return NewEdge(ctx, g, created)
}

// Edge looks up an edge by id. An edge that does not exist is reported as
// (nil, nil); any other failure is returned as an error.
func (g *Graph) Edge(ctx context.Context, id string) (*Edge, error) {
	e, err := NewEdge(ctx, g, id)
	if errors.Is(err, ErrNotFound) {
		g.logger().Debug("edge not found", "graph", g.name, "id", id)
		return nil, nil
	}
	return e, err
}

// Edges fetches the edge collection once and returns an iterator that fetches
// each edge as it is reached.
func (g *Graph) Edges(ctx context.Context) (*Iterator[*Edge], error) {
	records, err := g.list(ctx, g.url+"/edges", nil, ErrGraph, "list edges")
	if err != nil {
		return nil, err
	}
	return newIterator(records, func(ctx context.Context, record map[string]any) (*Edge, error) {
		return NewEdge(ctx, g, stringify(record["_id"]))
	}), nil
}

// RemoveEdge deletes e on the server. e itself is left untouched.
func (g *Graph) RemoveEdge(ctx context.Context, e *Edge) error {
	if e == nil {
		return fmt.Errorf("%w: nil edge", ErrGraph)
	}
	return g.remove(ctx, g.elementURL(EdgeKind, e.ID()), "could not delete edge")
}

// create POSTs a creation request and returns the id of the new element.
func (g *Graph) create(ctx context.Context, target string, query, form url.Values, op string) (string, error) {
	resp, err := g.transport().Post(ctx, target, query, form)
	if err != nil {
		return "", kindError(ErrGraph, op, err)
	}
	if !resp.OK() {
		return "", kindError(ErrGraph, op, responseError(resp))
	}

	doc, err := decodeDocument(resp.Body)
	if err != nil {
		return "", kindError(ErrGraph, op, err)
	}
	id := stringify(doc.results()["_id"])
	if id == "" {
		return "", kindError(ErrGraph, op, fmt.Errorf("%w: reply carries no _id", ErrDecode))
	}
	return id, nil
}

func (g *Graph) remove(ctx context.Context, target, op string) error {
	resp, err := g.transport().Delete(ctx, target, nil)
	if err != nil {
		return kindError(ErrGraph, op, err)
	}
	if !resp.OK() {
		return kindError(ErrGraph, op, responseError(resp))
	}
	return nil
}

// list fetches a collection resource and returns its result records. Failures
// are reported under kind.
func (g *Graph) list(ctx context.Context, target string, query url.Values, kind error, op string) ([]map[string]any, error) {
	resp, err := g.transport().Get(ctx, target, query)
	if err != nil {
		return nil, kindError(kind, op, err)
	}
	if !resp.OK() {
		return nil, kindError(kind, op, responseError(resp))
	}

	doc, err := decodeDocument(resp.Body)
	if err != nil {
		return nil, kindError(kind, op, err)
	}
	records, err := doc.resultList()
	if err != nil {
		return nil, kindError(kind, op, err)
	}
	return records, nil
}
