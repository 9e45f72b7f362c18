package rexster

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"
)

// SnapshotNode is a vertex in a Snapshot.
type SnapshotNode struct {
	// ID is the vertex id.
	ID string `json:"id" yaml:"id"`

	// Properties holds the user properties; keys starting with an underscore
	// are structural and left out.
	Properties map[string]any `json:"properties" yaml:"properties"`
}

// SnapshotEdge is an edge in a Snapshot.
type SnapshotEdge struct {
	ID     string `json:"id" yaml:"id"`
	Source string `json:"source" yaml:"source"`
	Target string `json:"target" yaml:"target"`
	Label  string `json:"label" yaml:"label"`

	Properties map[string]any `json:"properties" yaml:"properties"`
}

// Snapshot is a serialisable copy of a whole graph: a list of nodes and a
// list of edges, the shape most graph visualisation and import tools take.
type Snapshot struct {
	Graph string          `json:"graph" yaml:"graph"`
	Nodes []*SnapshotNode `json:"nodes" yaml:"nodes"`
	Edges []*SnapshotEdge `json:"edges" yaml:"edges"`
}

// Snapshot walks every vertex and every edge of the graph and copies them
// into a Snapshot. Vertices and edges are walked concurrently; each walk
// issues one request per element, so large graphs are best read through a
// RateLimitedTransport.
//
// The graph is not frozen while it is read: elements created or removed
// during the walk may or may not appear. An element listed in the collection
// but gone by the time it is fetched fails the walk with ErrNotFound.
func (g *Graph) Snapshot(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{
		Graph: g.name,
		Nodes: make([]*SnapshotNode, 0),
		Edges: make([]*SnapshotEdge, 0),
	}

	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		it, err := g.Vertices(ctx)
		if err != nil {
			return err
		}
		seen := make(map[string]bool, it.Len())
		for it.Next(ctx) {
			v := it.Value()
			if seen[v.ID()] {
				continue
			}
			seen[v.ID()] = true
			snap.Nodes = append(snap.Nodes, &SnapshotNode{
				ID:         v.ID(),
				Properties: UserProperties(v.Properties()),
			})
		}
		return it.Err()
	})

	eg.Go(func() error {
		it, err := g.Edges(ctx)
		if err != nil {
			return err
		}
		seen := make(map[string]bool, it.Len())
		for it.Next(ctx) {
			e := it.Value()
			if seen[e.ID()] {
				continue
			}
			seen[e.ID()] = true
			snap.Edges = append(snap.Edges, &SnapshotEdge{
				ID:         e.ID(),
				Source:     e.OutVertexID(),
				Target:     e.InVertexID(),
				Label:      e.Label(),
				Properties: UserProperties(e.Properties()),
			})
		}
		return it.Err()
	})

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return snap, nil
}

// UserProperties returns a copy of props without the underscore-prefixed
// structural keys (_id, _type, _outV, _inV, _label).
func UserProperties(props map[string]any) map[string]any {
	out := make(map[string]any, len(props))
	for k, v := range props {
		if strings.HasPrefix(k, "_") {
			continue
		}
		out[k] = v
	}
	return out
}
