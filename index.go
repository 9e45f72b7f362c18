package rexster

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// IndexClass tells which kind of element an index holds.
type IndexClass string

const (
	VertexClass IndexClass = "vertex"
	EdgeClass   IndexClass = "edge"
)

// ParseIndexClass validates an index class case-insensitively: only "vertex"
// and "edge" are accepted.
func ParseIndexClass(s string) (IndexClass, error) {
	switch c := IndexClass(strings.ToLower(strings.TrimSpace(s))); c {
	case VertexClass, EdgeClass:
		return c, nil
	default:
		return "", fmt.Errorf("%w: %q is not a valid index class", ErrIndex, s)
	}
}

// parseRecordClass reads the class of an index record. Servers report it as
// a Java class name ("com.tinkerpop.blueprints.pgm.Vertex") or as the bare
// class.
func parseRecordClass(s string) (IndexClass, error) {
	if i := strings.LastIndexByte(s, '.'); i > 0 {
		s = s[i+1:]
	}
	return ParseIndexClass(s)
}

// kind returns the element kind the class holds.
func (c IndexClass) kind() ElementKind {
	if c == EdgeClass {
		return EdgeKind
	}
	return VertexKind
}

// IndexType tells whether the server or the caller maintains an index.
type IndexType string

const (
	ManualType    IndexType = "manual"
	AutomaticType IndexType = "automatic"
)

// Index is a named key/value lookup over the vertices or the edges of a
// graph. Its class is fixed at creation and decides how lookup results are
// wrapped.
type Index struct {
	graph *Graph
	name  string
	class IndexClass
	typ   IndexType
	url   string
}

func newIndex(g *Graph, name string, class IndexClass, typ IndexType) *Index {
	return &Index{
		graph: g,
		name:  name,
		class: class,
		typ:   typ,
		url:   g.url + "/indices/" + url.PathEscape(name),
	}
}

// indexFromRecord builds an Index from a {name, class, type} record.
func indexFromRecord(g *Graph, record map[string]any) (*Index, error) {
	name := stringify(record["name"])
	if name == "" {
		return nil, fmt.Errorf("%w: index record without a name", ErrDecode)
	}
	class, err := parseRecordClass(stringify(record["class"]))
	if err != nil {
		return nil, err
	}
	typ := IndexType(strings.ToLower(stringify(record["type"])))
	if typ != AutomaticType {
		typ = ManualType
	}
	return newIndex(g, name, class, typ), nil
}

// Name returns the index name.
func (idx *Index) Name() string { return idx.name }

// Class returns the index class.
func (idx *Index) Class() IndexClass { return idx.class }

// Type returns the index type.
func (idx *Index) Type() IndexType { return idx.typ }

// URL returns the index resource URL.
func (idx *Index) URL() string { return idx.url }

// Automatic returns the automatic-index view of idx. The second result is
// false for manual indices, which have no auto-indexed keys to list.
func (idx *Index) Automatic() (*AutomaticIndex, bool) {
	if idx.typ != AutomaticType {
		return nil, false
	}
	return &AutomaticIndex{Index: idx}, true
}

// Put stores ref under key/value. ref must be of the kind the index holds.
func (idx *Index) Put(ctx context.Context, key string, value any, ref ElementRef) error {
	class, err := idx.classify(ref)
	if err != nil {
		return err
	}

	form := url.Values{
		"key":   {key},
		"value": {encodeValue(value)},
		"class": {string(class)},
		"id":    {ref.ID},
	}
	resp, err := idx.graph.transport().Post(ctx, idx.url, nil, form)
	if err != nil {
		return kindError(ErrIndex, "put", err)
	}
	if !resp.OK() {
		return kindError(ErrIndex, "put", responseError(resp))
	}
	return nil
}

// Get returns the elements stored under key/value. Each result is fetched
// as a vertex or an edge according to the index class.
func (idx *Index) Get(ctx context.Context, key string, value any) (*Iterator[GraphElement], error) {
	query := url.Values{"key": {key}, "value": {encodeValue(value)}}
	records, err := idx.graph.list(ctx, idx.url, query, ErrIndex, "get")
	if err != nil {
		return nil, err
	}

	g := idx.graph
	kind := idx.class.kind()
	return newIterator(records, func(ctx context.Context, record map[string]any) (GraphElement, error) {
		id := stringify(record["_id"])
		if kind == EdgeKind {
			e, err := NewEdge(ctx, g, id)
			if err != nil {
				return nil, err
			}
			return e, nil
		}
		v, err := NewVertex(ctx, g, id)
		if err != nil {
			return nil, err
		}
		return v, nil
	}), nil
}

// Remove deletes ref from under key/value.
func (idx *Index) Remove(ctx context.Context, key string, value any, ref ElementRef) error {
	class, err := idx.classify(ref)
	if err != nil {
		return err
	}

	query := url.Values{
		"class": {string(class)},
		"key":   {key},
		"value": {encodeValue(value)},
		"id":    {ref.ID},
	}
	resp, err := idx.graph.transport().Delete(ctx, idx.url, query)
	if err != nil {
		return kindError(ErrIndex, "remove", err)
	}
	if !resp.OK() {
		return kindError(ErrIndex, "remove", responseError(resp))
	}
	return nil
}

// Count returns the number of elements stored under key/value.
func (idx *Index) Count(ctx context.Context, key string, value any) (int64, error) {
	query := url.Values{"key": {key}, "value": {encodeValue(value)}}
	resp, err := idx.graph.transport().Get(ctx, idx.url+"/count", query)
	if err != nil {
		return 0, kindError(ErrIndex, "count", err)
	}
	if !resp.OK() {
		return 0, kindError(ErrIndex, "count", responseError(resp))
	}

	doc, err := decodeDocument(resp.Body)
	if err != nil {
		return 0, kindError(ErrIndex, "count", err)
	}
	switch n := doc["totalSize"].(type) {
	case int64:
		return n, nil
	case float64:
		return int64(n), nil
	default:
		return 0, kindError(ErrIndex, "count", fmt.Errorf("%w: totalSize is %T", ErrDecode, n))
	}
}

// classify maps ref onto the class string sent to the server, rejecting refs
// the index cannot hold.
func (idx *Index) classify(ref ElementRef) (IndexClass, error) {
	if !ref.Valid() {
		return "", fmt.Errorf("%w: unknown element type", ErrIndex)
	}
	if ref.ID == "" {
		return "", fmt.Errorf("%w: element without an id", ErrIndex)
	}
	if ref.Kind != idx.class.kind() {
		return "", fmt.Errorf("%w: cannot index a %s in %s index %s", ErrIndex, ref.Kind, idx.class, idx.name)
	}
	return idx.class, nil
}

func (idx *Index) String() string {
	return fmt.Sprintf("Index %s (%s, %s)", idx.name, idx.class, idx.typ)
}

// AutomaticIndex is an index whose content the server maintains for a set of
// property keys.
type AutomaticIndex struct {
	*Index
}

// AutoIndexKeys returns the property keys the server indexes automatically.
func (idx *AutomaticIndex) AutoIndexKeys(ctx context.Context) ([]string, error) {
	resp, err := idx.graph.transport().Get(ctx, idx.url+"/keys", nil)
	if err != nil {
		return nil, kindError(ErrIndex, "list keys", err)
	}
	if !resp.OK() {
		return nil, kindError(ErrIndex, "list keys", responseError(resp))
	}

	doc, err := decodeDocument(resp.Body)
	if err != nil {
		return nil, kindError(ErrIndex, "list keys", err)
	}
	raw, _ := doc["results"].([]any)
	keys := make([]string, 0, len(raw))
	for _, k := range raw {
		keys = append(keys, stringify(k))
	}
	return keys, nil
}
