package rexster

import (
	"context"
	"net/url"
)

// Vertex is a graph node.
type Vertex struct {
	Element
}

// NewVertex fetches the vertex id of g. It fails with ErrNotFound when the
// vertex does not exist; Graph.Vertex is the lookup that treats that as a
// normal outcome.
func NewVertex(ctx context.Context, g *Graph, id string) (*Vertex, error) {
	v := &Vertex{}
	if err := v.init(ctx, g, VertexKind, id); err != nil {
		return nil, err
	}
	return v, nil
}

// OutEdges returns the edges leaving the vertex. A non-empty label keeps only
// edges with that label.
func (v *Vertex) OutEdges(ctx context.Context, label string) (*Iterator[*Edge], error) {
	return v.incident(ctx, "outE", label)
}

// InEdges returns the edges arriving at the vertex. A non-empty label keeps
// only edges with that label.
func (v *Vertex) InEdges(ctx context.Context, label string) (*Iterator[*Edge], error) {
	return v.incident(ctx, "inE", label)
}

// BothEdges returns every edge incident to the vertex. A non-empty label
// keeps only edges with that label.
func (v *Vertex) BothEdges(ctx context.Context, label string) (*Iterator[*Edge], error) {
	return v.incident(ctx, "bothE", label)
}

// incident lists the direction sub-resource and yields one freshly fetched
// Edge per incidence record.
func (v *Vertex) incident(ctx context.Context, direction, label string) (*Iterator[*Edge], error) {
	var query url.Values
	if label != "" {
		query = url.Values{"_label": {label}}
	}

	records, err := v.graph.list(ctx, v.url+"/"+direction, query, ErrGraph, "list "+direction)
	if err != nil {
		return nil, err
	}

	g := v.graph
	return newIterator(records, func(ctx context.Context, record map[string]any) (*Edge, error) {
		return NewEdge(ctx, g, stringify(record["_id"]))
	}), nil
}
