package rexster

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGraph_Metadata(t *testing.T) {
	f := newFakeRexster(t)
	f.SeedTinkergraph()
	g := connect(t, f).Graph("tinkergraph")

	meta, err := g.Metadata(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tinkergraph", meta["name"])
	assert.Equal(t, "tinkergraph[vertices:4 edges:3]", meta["graph"])
}

func TestGraph_MetadataUnknownGraph(t *testing.T) {
	f := newFakeRexster(t)
	g := connect(t, f).Graph("nosuchgraph")

	meta, err := g.Metadata(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"message": "Graph [nosuchgraph] could not be found"}, meta)
}

func TestGraph_MetadataUndecodableBody(t *testing.T) {
	f := newFakeRexster(t)
	s := connect(t, f)
	s.transport = &stubTransport{
		inner: s.transport,
		get: map[string]*Response{
			f.URL + "/broken":  {StatusCode: http.StatusBadGateway, Body: []byte("<html>bad gateway</html>")},
			f.URL + "/garbled": {StatusCode: http.StatusOK, Body: []byte("not json")},
		},
	}

	_, err := s.Graph("broken").Metadata(context.Background())
	assert.ErrorIs(t, err, ErrGraph)
	var respErr *ResponseError
	require.ErrorAs(t, err, &respErr)
	assert.Equal(t, http.StatusBadGateway, respErr.StatusCode)

	_, err = s.Graph("garbled").Metadata(context.Background())
	assert.ErrorIs(t, err, ErrGraph)
	assert.ErrorIs(t, err, ErrDecode)
}

func TestGraph_Vertex(t *testing.T) {
	f := newFakeRexster(t)
	f.SeedTinkergraph()
	g := connect(t, f).Graph("tinkergraph")
	ctx := context.Background()

	v, err := g.Vertex(ctx, "1")
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, "1", v.ID())
	assert.Equal(t, VertexKind, v.Kind())
	assert.Equal(t, f.URL+"/tinkergraph/vertices/1", v.URL())

	name, ok := v.CachedProperty("name")
	require.True(t, ok)
	assert.Equal(t, "marko", name)
	age, _ := v.CachedProperty("age")
	assert.Equal(t, int64(29), age)
}

func TestGraph_VertexMissing(t *testing.T) {
	f := newFakeRexster(t)
	g := connect(t, f).Graph("tinkergraph")

	v, err := g.Vertex(context.Background(), "42")
	assert.NoError(t, err)
	assert.Nil(t, v)
}

func TestGraph_VertexFailure(t *testing.T) {
	f := newFakeRexster(t)
	f.SeedTinkergraph()
	f.Fail(http.MethodGet, "/tinkergraph/vertices/1", http.StatusInternalServerError)
	g := connect(t, f).Graph("tinkergraph")

	v, err := g.Vertex(context.Background(), "1")
	require.Error(t, err)
	assert.Nil(t, v)
	assert.ErrorIs(t, err, ErrGraph)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestNewVertex_Missing(t *testing.T) {
	f := newFakeRexster(t)
	g := connect(t, f).Graph("tinkergraph")

	_, err := NewVertex(context.Background(), g, "42")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGraph_AddVertex(t *testing.T) {
	f := newFakeRexster(t)
	g := connect(t, f).Graph("tinkergraph")
	ctx := context.Background()

	t.Run("server assigned id", func(t *testing.T) {
		v, err := g.AddVertex(ctx, "")
		require.NoError(t, err)
		assert.NotEmpty(t, v.ID())

		posts := f.RequestsTo(http.MethodPost, "/tinkergraph/vertices")
		assert.Len(t, posts, 1)

		found, err := g.Vertex(ctx, v.ID())
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, v.ID(), found.ID())
	})

	t.Run("caller id", func(t *testing.T) {
		v, err := g.AddVertex(ctx, "marko")
		require.NoError(t, err)
		assert.Equal(t, "marko", v.ID())
		assert.Len(t, f.RequestsTo(http.MethodPost, "/tinkergraph/vertices/marko"), 1)
	})
}

func TestGraph_AddVertexFailure(t *testing.T) {
	f := newFakeRexster(t)
	f.Fail(http.MethodPost, "/tinkergraph/vertices", http.StatusInternalServerError)
	g := connect(t, f).Graph("tinkergraph")

	v, err := g.AddVertex(context.Background(), "")
	require.Error(t, err)
	assert.Nil(t, v)
	assert.ErrorIs(t, err, ErrGraph)
	assert.Contains(t, err.Error(), "could not create vertex")
}

func TestGraph_RemoveVertex(t *testing.T) {
	f := newFakeRexster(t)
	f.SeedTinkergraph()
	g := connect(t, f).Graph("tinkergraph")
	ctx := context.Background()

	v, err := g.Vertex(ctx, "2")
	require.NoError(t, err)
	require.NoError(t, g.RemoveVertex(ctx, v))

	gone, err := g.Vertex(ctx, "2")
	assert.NoError(t, err)
	assert.Nil(t, gone)

	// The handle survives but live reads fail.
	assert.Equal(t, "2", v.ID())
	assert.ErrorIs(t, v.Refresh(ctx), ErrNotFound)

	err = g.RemoveVertex(ctx, v)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrGraph)
	assert.Contains(t, err.Error(), "could not delete vertex")
}

func TestGraph_RemoveNil(t *testing.T) {
	f := newFakeRexster(t)
	g := connect(t, f).Graph("tinkergraph")
	before := f.RequestCount()

	assert.ErrorIs(t, g.RemoveVertex(context.Background(), nil), ErrGraph)
	assert.ErrorIs(t, g.RemoveEdge(context.Background(), nil), ErrGraph)
	assert.Equal(t, before, f.RequestCount())
}

func TestGraph_AddEdge(t *testing.T) {
	f := newFakeRexster(t)
	f.SeedTinkergraph()
	g := connect(t, f).Graph("tinkergraph")
	ctx := context.Background()

	out, err := g.Vertex(ctx, "2")
	require.NoError(t, err)
	in, err := g.Vertex(ctx, "4")
	require.NoError(t, err)

	e, err := g.AddEdge(ctx, out, in, "knows")
	require.NoError(t, err)
	assert.Equal(t, EdgeKind, e.Kind())
	assert.Equal(t, "knows", e.Label())
	assert.Equal(t, "2", e.OutVertexID())
	assert.Equal(t, "4", e.InVertexID())

	posts := f.RequestsTo(http.MethodPost, "/tinkergraph/edges")
	require.Len(t, posts, 1)
	for _, values := range []map[string][]string{posts[0].Query, posts[0].Form} {
		assert.Equal(t, []string{"2"}, values["_outV"])
		assert.Equal(t, []string{"4"}, values["_inV"])
		assert.Equal(t, []string{"knows"}, values["_label"])
	}
}

func TestGraph_AddEdgeFailures(t *testing.T) {
	f := newFakeRexster(t)
	f.SeedTinkergraph()
	g := connect(t, f).Graph("tinkergraph")
	ctx := context.Background()

	v, err := g.Vertex(ctx, "1")
	require.NoError(t, err)

	_, err = g.AddEdge(ctx, v, nil, "knows")
	assert.ErrorIs(t, err, ErrGraph)

	ghost, err := g.Vertex(ctx, "3")
	require.NoError(t, err)
	require.NoError(t, g.RemoveVertex(ctx, ghost))

	_, err = g.AddEdge(ctx, v, ghost, "created")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrGraph)
	assert.Contains(t, err.Error(), "could not create the edge")
}

func TestGraph_EdgeLookup(t *testing.T) {
	f := newFakeRexster(t)
	f.SeedTinkergraph()
	g := connect(t, f).Graph("tinkergraph")
	ctx := context.Background()

	e, err := g.Edge(ctx, "7")
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, "knows", e.Label())
	weight, _ := e.CachedProperty("weight")
	assert.Equal(t, 0.5, weight)

	missing, err := g.Edge(ctx, "700")
	assert.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, g.RemoveEdge(ctx, e))
	gone, err := g.Edge(ctx, "7")
	assert.NoError(t, err)
	assert.Nil(t, gone)
}

func TestGraph_VerticesAndEdges(t *testing.T) {
	f := newFakeRexster(t)
	f.SeedTinkergraph()
	g := connect(t, f).Graph("tinkergraph")
	ctx := context.Background()

	vertices, err := g.Vertices(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, vertices.Len())

	var names []any
	for vertices.Next(ctx) {
		name, _ := vertices.Value().CachedProperty("name")
		names = append(names, name)
	}
	require.NoError(t, vertices.Err())
	assert.Equal(t, []any{"marko", "vadas", "lop", "josh"}, names)

	edges, err := g.Edges(ctx)
	require.NoError(t, err)
	all, err := edges.Collect(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)

	var labels []string
	for _, e := range all {
		labels = append(labels, e.Label())
	}
	assert.ElementsMatch(t, []string{"knows", "created", "created"}, labels)
}

func TestGraph_VerticesEmpty(t *testing.T) {
	f := newFakeRexster(t)
	g := connect(t, f).Graph("tinkergraph")
	ctx := context.Background()

	it, err := g.Vertices(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, it.Len())
	assert.False(t, it.Next(ctx))
	assert.NoError(t, it.Err())
}

func TestGraph_VerticesVanishingElement(t *testing.T) {
	f := newFakeRexster(t)
	f.SeedTinkergraph()
	g := connect(t, f).Graph("tinkergraph")
	ctx := context.Background()

	it, err := g.Vertices(ctx)
	require.NoError(t, err)

	// Removed after the collection was fetched but before it is reached.
	f.Fail(http.MethodGet, "/tinkergraph/vertices/2", http.StatusNotFound)

	all, err := it.Collect(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Len(t, all, 1)
}

// TestGraph_TinkergraphSession walks the sequence a user typically runs
// against the stock tinkergraph.
func TestGraph_TinkergraphSession(t *testing.T) {
	f := newFakeRexster(t)
	f.SeedTinkergraph()
	ctx := context.Background()

	s := connect(t, f)
	require.Contains(t, s.Graphs(), "tinkergraph")
	g := s.Graph("tinkergraph")

	marko, err := g.Vertex(ctx, "1")
	require.NoError(t, err)
	name, err := marko.Property(ctx, "name")
	require.NoError(t, err)
	assert.Equal(t, "marko", name)

	peter, err := g.AddVertex(ctx, "")
	require.NoError(t, err)
	require.NoError(t, peter.SetProperty(ctx, "name", "peter"))
	require.NoError(t, peter.SetProperty(ctx, "age", 35))

	knows, err := g.AddEdge(ctx, marko, peter, "knows")
	require.NoError(t, err)

	out, err := marko.OutEdges(ctx, "knows")
	require.NoError(t, err)
	friends, err := out.Collect(ctx)
	require.NoError(t, err)

	var ids []string
	for _, e := range friends {
		ids = append(ids, e.InVertexID())
	}
	assert.ElementsMatch(t, []string{"2", peter.ID()}, ids)

	in, err := knows.InVertex(ctx)
	require.NoError(t, err)
	age, err := in.Property(ctx, "age")
	require.NoError(t, err)
	assert.Equal(t, int64(35), age)
}
