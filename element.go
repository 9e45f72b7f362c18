package rexster

import (
	"context"
	"fmt"
	"maps"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"sync"
)

// ElementKind tags an element as a vertex or an edge. The zero value is not a
// valid kind.
type ElementKind int

const (
	_ ElementKind = iota
	VertexKind
	EdgeKind
)

func (k ElementKind) String() string {
	switch k {
	case VertexKind:
		return "vertex"
	case EdgeKind:
		return "edge"
	default:
		return "unknown"
	}
}

// collection is the URL segment holding elements of this kind.
func (k ElementKind) collection() string {
	if k == EdgeKind {
		return "edges"
	}
	return "vertices"
}

// ElementRef identifies an element by kind and id without holding its
// properties. Indices classify what they store by the Kind tag.
type ElementRef struct {
	Kind ElementKind
	ID   string
}

// Valid reports whether the ref names a vertex or an edge.
func (r ElementRef) Valid() bool {
	return r.Kind == VertexKind || r.Kind == EdgeKind
}

// GraphElement is satisfied by *Vertex and *Edge.
type GraphElement interface {
	ID() string
	Kind() ElementKind
	Ref() ElementRef
	Properties() map[string]any
	Refresh(ctx context.Context) error
}

// reserved property keys carry element identity and structure; they are
// maintained by the server and cannot be written or removed.
var reserved = map[string]bool{
	"_id":    true,
	"_type":  true,
	"_outV":  true,
	"_inV":   true,
	"_label": true,
}

// Element is the state shared by vertices and edges: the resource URL, the
// owning graph, and a snapshot of the element properties.
//
// The snapshot is always the last server response plus this value's own
// successful writes. Live reads (Property, PropertyKeys, Refresh) replace it
// with fresh server state; Properties and CachedProperty read it without any
// I/O. Other clients' writes are only observed on the next live read.
type Element struct {
	graph *Graph
	url   string
	kind  ElementKind
	id    string

	mu    sync.RWMutex
	props map[string]any
}

// init fetches the element resource and fills in the snapshot. A 404, or a
// reply without a non-empty results object, fails with ErrNotFound.
func (e *Element) init(ctx context.Context, g *Graph, kind ElementKind, id string) error {
	e.graph = g
	e.kind = kind
	e.url = g.elementURL(kind, id)

	props, err := e.fetch(ctx)
	if err != nil {
		return err
	}
	e.props = props
	e.id = stringify(props["_id"])
	if e.id == "" {
		e.id = id
	}
	return nil
}

func (e *Element) fetch(ctx context.Context) (map[string]any, error) {
	resp, err := e.graph.transport().Get(ctx, e.url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", e.kind, err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %w", ErrNotFound, responseError(resp))
	}
	if !resp.OK() {
		return nil, kindError(ErrGraph, "fetch "+e.kind.String(), responseError(resp))
	}

	doc, err := decodeDocument(resp.Body)
	if err != nil {
		return nil, err
	}
	props := doc.results()
	if props == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, doc.message())
	}
	return props, nil
}

// ID returns the element identifier. It never changes.
func (e *Element) ID() string { return e.id }

// Kind reports whether the element is a vertex or an edge.
func (e *Element) Kind() ElementKind { return e.kind }

// Ref returns the tagged reference used by indices.
func (e *Element) Ref() ElementRef { return ElementRef{Kind: e.kind, ID: e.id} }

// URL returns the element resource URL.
func (e *Element) URL() string { return e.url }

// Graph returns the graph the element belongs to.
func (e *Element) Graph() *Graph { return e.graph }

// Refresh replaces the property snapshot with the server state.
func (e *Element) Refresh(ctx context.Context) error {
	props, err := e.fetch(ctx)
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.props = props
	e.mu.Unlock()
	return nil
}

// Properties returns a copy of the property snapshot.
func (e *Element) Properties() map[string]any {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return maps.Clone(e.props)
}

// CachedProperty reads key from the snapshot without contacting the server.
func (e *Element) CachedProperty(key string) (any, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	v, ok := e.props[key]
	return v, ok
}

// Property refreshes the snapshot and returns the value of key, or nil when
// the element has no such property.
func (e *Element) Property(ctx context.Context, key string) (any, error) {
	if err := e.Refresh(ctx); err != nil {
		return nil, kindError(ErrProperty, "read property "+key, err)
	}
	v, _ := e.CachedProperty(key)
	return v, nil
}

// PropertyKeys refreshes the snapshot and returns its keys, sorted.
func (e *Element) PropertyKeys(ctx context.Context) ([]string, error) {
	if err := e.Refresh(ctx); err != nil {
		return nil, kindError(ErrProperty, "read property keys", err)
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return slices.Sorted(maps.Keys(e.props)), nil
}

// SetProperty writes key on the server and, once the server accepted it,
// in the snapshot.
func (e *Element) SetProperty(ctx context.Context, key string, value any) error {
	if err := checkKey(key); err != nil {
		return err
	}

	form := url.Values{key: {encodeValue(value)}}
	resp, err := e.graph.transport().Post(ctx, e.url, nil, form)
	if err != nil {
		return kindError(ErrProperty, "set property "+key, err)
	}
	if !resp.OK() {
		return kindError(ErrProperty, "set property "+key, responseError(resp))
	}

	e.mu.Lock()
	if e.props == nil {
		e.props = make(map[string]any)
	}
	e.props[key] = echoValue(value)
	e.mu.Unlock()
	return nil
}

// RemoveProperty deletes key on the server and then from the snapshot.
func (e *Element) RemoveProperty(ctx context.Context, key string) error {
	if err := checkKey(key); err != nil {
		return err
	}

	resp, err := e.graph.transport().Delete(ctx, e.url, url.Values{key: {""}})
	if err != nil {
		return kindError(ErrProperty, "remove property "+key, err)
	}
	if !resp.OK() {
		return kindError(ErrProperty, "remove property "+key, responseError(resp))
	}

	e.mu.Lock()
	delete(e.props, key)
	e.mu.Unlock()
	return nil
}

// checkKey rejects keys that would turn a property request into something
// else: an empty key makes the DELETE address the element itself.
func checkKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("%w: empty property key", ErrProperty)
	}
	if reserved[key] {
		return fmt.Errorf("%w: %s is a reserved key", ErrProperty, key)
	}
	return nil
}

func (e *Element) String() string {
	return fmt.Sprintf("%s %s: %v", e.kind, e.id, e.Properties())
}
