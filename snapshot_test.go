package rexster

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGraph_Snapshot(t *testing.T) {
	f := newFakeRexster(t)
	f.SeedTinkergraph()
	g := connect(t, f).Graph("tinkergraph")

	snap, err := g.Snapshot(context.Background())
	require.NoError(t, err)

	want := &Snapshot{
		Graph: "tinkergraph",
		Nodes: []*SnapshotNode{
			{ID: "1", Properties: map[string]any{"name": "marko", "age": int64(29)}},
			{ID: "2", Properties: map[string]any{"name": "vadas", "age": int64(27)}},
			{ID: "3", Properties: map[string]any{"name": "lop", "lang": "java"}},
			{ID: "4", Properties: map[string]any{"name": "josh", "age": int64(32)}},
		},
		Edges: []*SnapshotEdge{
			{ID: "7", Source: "1", Target: "2", Label: "knows", Properties: map[string]any{"weight": 0.5}},
			{ID: "9", Source: "1", Target: "3", Label: "created", Properties: map[string]any{"weight": 0.4}},
			{ID: "11", Source: "4", Target: "3", Label: "created", Properties: map[string]any{"weight": 0.4}},
		},
	}

	sortEdges := cmpopts.SortSlices(func(a, b *SnapshotEdge) bool { return a.ID < b.ID })
	if diff := cmp.Diff(want, snap, sortEdges); diff != "" {
		t.Errorf("unexpected snapshot (-want +got):\n%s", diff)
	}
}

func TestGraph_SnapshotEmpty(t *testing.T) {
	f := newFakeRexster(t)
	g := connect(t, f).Graph("tinkergraph")

	snap, err := g.Snapshot(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, snap.Nodes)
	assert.NotNil(t, snap.Edges)
	assert.Empty(t, snap.Nodes)
	assert.Empty(t, snap.Edges)
}

func TestGraph_SnapshotFailure(t *testing.T) {
	f := newFakeRexster(t)
	f.SeedTinkergraph()
	f.Fail(http.MethodGet, "/tinkergraph/edges", http.StatusInternalServerError)
	g := connect(t, f).Graph("tinkergraph")

	snap, err := g.Snapshot(context.Background())
	require.Error(t, err)
	assert.Nil(t, snap)
	assert.ErrorIs(t, err, ErrGraph)
}

func TestUserProperties(t *testing.T) {
	props := map[string]any{"_id": "7", "_type": "edge", "_outV": "1", "_inV": "2", "_label": "knows", "weight": 0.5}
	assert.Equal(t, map[string]any{"weight": 0.5}, UserProperties(props))
	assert.Len(t, props, 6, "input left untouched")
	assert.Empty(t, UserProperties(nil))
}
