package rexster

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// IndexableGraph is a Graph that also manages indices.
type IndexableGraph struct {
	*Graph
}

// CreateManualIndex creates an index the caller populates with Put.
func (g *IndexableGraph) CreateManualIndex(ctx context.Context, name, class string) (*Index, error) {
	return g.createIndex(ctx, name, class, ManualType, nil)
}

// CreateAutomaticIndex creates an index the server keeps up to date for the
// given property keys.
//
// Parameters:
//   - name: The index name, unique within the graph.
//   - class: "vertex" or "edge", case-insensitively. Anything else fails with
//     ErrIndex before any request is sent.
//   - keys: The property keys the server indexes. Empty means every key.
//
// Returns:
//   - The created index, already typed as automatic.
//   - An error wrapping ErrIndex when the server refuses the index.
func (g *IndexableGraph) CreateAutomaticIndex(ctx context.Context, name, class string, keys []string) (*AutomaticIndex, error) {
	idx, err := g.createIndex(ctx, name, class, AutomaticType, keys)
	if err != nil {
		return nil, err
	}
	// The server echoes the type back; trust the request if it did not.
	idx.typ = AutomaticType
	return &AutomaticIndex{Index: idx}, nil
}

func (g *IndexableGraph) createIndex(ctx context.Context, name, class string, typ IndexType, keys []string) (*Index, error) {
	c, err := ParseIndexClass(class)
	if err != nil {
		return nil, err
	}

	form := url.Values{
		"class": {string(c)},
		"type":  {string(typ)},
	}
	if typ == AutomaticType && len(keys) > 0 {
		form.Set("keys", encodeList(keys))
	}

	resp, err := g.transport().Post(ctx, g.indexURL(name), nil, form)
	if err != nil {
		return nil, kindError(ErrIndex, "create index "+name, err)
	}
	if !resp.OK() {
		return nil, kindError(ErrIndex, "create index "+name, responseError(resp))
	}

	doc, err := decodeDocument(resp.Body)
	if err != nil {
		return nil, kindError(ErrIndex, "create index "+name, err)
	}
	record := doc.results()
	if record == nil {
		return newIndex(g.Graph, name, c, typ), nil
	}
	idx, err := indexFromRecord(g.Graph, record)
	if err != nil {
		return nil, kindError(ErrIndex, "create index "+name, err)
	}
	return idx, nil
}

// Index looks up the index name. An index that does not exist is reported as
// (nil, nil). The returned index carries the class the server recorded, which
// wins over class when the two differ. Call Automatic on the result to reach
// the automatic-index operations.
func (g *IndexableGraph) Index(ctx context.Context, name, class string) (*Index, error) {
	c, err := ParseIndexClass(class)
	if err != nil {
		return nil, err
	}

	resp, err := g.transport().Get(ctx, g.indexURL(name), nil)
	if err != nil {
		return nil, kindError(ErrIndex, "fetch index "+name, err)
	}
	if resp.StatusCode == http.StatusNotFound {
		g.logger().Debug("index not found", "graph", g.name, "index", name)
		return nil, nil
	}
	if !resp.OK() {
		return nil, kindError(ErrIndex, "fetch index "+name, responseError(resp))
	}

	doc, err := decodeDocument(resp.Body)
	if err != nil {
		return nil, kindError(ErrIndex, "fetch index "+name, err)
	}
	// Servers answer either {results: {name, class, type}} or the flat form.
	record := doc.results()
	if record == nil {
		record = doc
	}
	idx, err := indexFromRecord(g.Graph, record)
	if err != nil {
		return nil, kindError(ErrIndex, "fetch index "+name, err)
	}
	if idx.class != c {
		g.logger().Warn("index class differs from the requested class", "graph", g.name, "index", name, "requested", c, "class", idx.class)
	}
	return idx, nil
}

// Indices fetches the index collection once. The records already carry name,
// class and type, so iterating costs no further requests.
func (g *IndexableGraph) Indices(ctx context.Context) (*Iterator[*Index], error) {
	records, err := g.list(ctx, g.url+"/indices", nil, ErrIndex, "list indices")
	if err != nil {
		return nil, err
	}
	graph := g.Graph
	return newIterator(records, func(_ context.Context, record map[string]any) (*Index, error) {
		idx, err := indexFromRecord(graph, record)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrIndex, err)
		}
		return idx, nil
	}), nil
}

// DropIndex deletes the index name.
func (g *IndexableGraph) DropIndex(ctx context.Context, name string) error {
	resp, err := g.transport().Delete(ctx, g.indexURL(name), nil)
	if err != nil {
		return kindError(ErrIndex, "drop index "+name, err)
	}
	if !resp.OK() {
		return kindError(ErrIndex, "drop index "+name, responseError(resp))
	}
	return nil
}

func (g *IndexableGraph) indexURL(name string) string {
	return g.url + "/indices/" + url.PathEscape(name)
}
