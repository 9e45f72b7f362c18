package rexster

import "context"

// Edge is a directed, labeled relationship between two vertices. Its
// endpoints and label live in the property snapshot under _outV, _inV and
// _label.
type Edge struct {
	Element
}

// NewEdge fetches the edge id of g. It fails with ErrNotFound when the edge
// does not exist.
func NewEdge(ctx context.Context, g *Graph, id string) (*Edge, error) {
	e := &Edge{}
	if err := e.init(ctx, g, EdgeKind, id); err != nil {
		return nil, err
	}
	return e, nil
}

// Label returns the edge label.
func (e *Edge) Label() string {
	v, _ := e.CachedProperty("_label")
	return stringify(v)
}

// OutVertexID returns the id of the vertex the edge leaves.
func (e *Edge) OutVertexID() string {
	v, _ := e.CachedProperty("_outV")
	return stringify(v)
}

// InVertexID returns the id of the vertex the edge arrives at.
func (e *Edge) InVertexID() string {
	v, _ := e.CachedProperty("_inV")
	return stringify(v)
}

// OutVertex fetches the vertex the edge leaves. Every call fetches anew.
func (e *Edge) OutVertex(ctx context.Context) (*Vertex, error) {
	return NewVertex(ctx, e.graph, e.OutVertexID())
}

// InVertex fetches the vertex the edge arrives at. Every call fetches anew.
func (e *Edge) InVertex(ctx context.Context) (*Vertex, error) {
	return NewVertex(ctx, e.graph, e.InVertexID())
}
