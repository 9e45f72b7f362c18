// Package rexstertest runs an in-memory server speaking enough of the
// Rexster REST protocol for clients to be tested against it.
package rexstertest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"slices"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
)

const (
	javaVertexClass = "com.tinkerpop.blueprints.pgm.Vertex"
	javaEdgeClass   = "com.tinkerpop.blueprints.pgm.Edge"
)

// Request is what the server saw of one request.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Form   url.Values
	Header http.Header
}

type fakeIndex struct {
	name    string
	class   string
	typ     string
	keys    []string
	entries map[string][]string
}

func (idx *fakeIndex) record() map[string]any {
	return map[string]any{"name": idx.name, "class": idx.class, "type": idx.typ}
}

type fakeGraph struct {
	vertices map[string]map[string]any
	edges    map[string]map[string]any
	indices  map[string]*fakeIndex
}

func (g *fakeGraph) putVertex(id string, props map[string]any) map[string]any {
	v := map[string]any{"_id": id, "_type": "vertex"}
	for k, val := range props {
		v[k] = val
	}
	g.vertices[id] = v
	return v
}

func (g *fakeGraph) putEdge(id, out, in, label string, props map[string]any) map[string]any {
	e := map[string]any{"_id": id, "_type": "edge", "_outV": out, "_inV": in, "_label": label}
	for k, val := range props {
		e[k] = val
	}
	g.edges[id] = e
	return e
}

// Server is the in-memory Rexster. It hosts an empty graph named
// tinkergraph from the start; new vertex and edge ids count up from 101.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	graphs   map[string]*fakeGraph
	nextID   int
	requests []Request
	failures map[string]int
}

// NewServer starts a Server that is closed when tb finishes.
func NewServer(tb testing.TB) *Server {
	tb.Helper()
	f := &Server{
		graphs:   make(map[string]*fakeGraph),
		nextID:   100,
		failures: make(map[string]int),
	}
	f.AddGraph("tinkergraph")
	f.Server = httptest.NewServer(http.HandlerFunc(f.serveHTTP))
	tb.Cleanup(f.Close)
	return f
}

// AddGraph hosts an empty graph under name.
func (f *Server) AddGraph(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g := &fakeGraph{
		vertices: make(map[string]map[string]any),
		edges:    make(map[string]map[string]any),
		indices:  make(map[string]*fakeIndex),
	}
	f.graphs[name] = g
}

// SeedTinkergraph loads part of the classic TinkerPop sample graph into
// tinkergraph: vertices 1 to 4 and edges 7, 9 and 11.
func (f *Server) SeedTinkergraph() {
	f.mu.Lock()
	defer f.mu.Unlock()
	g := f.graphs["tinkergraph"]
	g.putVertex("1", map[string]any{"name": "marko", "age": int64(29)})
	g.putVertex("2", map[string]any{"name": "vadas", "age": int64(27)})
	g.putVertex("3", map[string]any{"name": "lop", "lang": "java"})
	g.putVertex("4", map[string]any{"name": "josh", "age": int64(32)})
	g.putEdge("7", "1", "2", "knows", map[string]any{"weight": 0.5})
	g.putEdge("9", "1", "3", "created", map[string]any{"weight": 0.4})
	g.putEdge("11", "4", "3", "created", map[string]any{"weight": 0.4})
}

// SetVertexProperty changes a vertex behind the client's back.
func (f *Server) SetVertexProperty(graph, id, key string, value any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.graphs[graph].vertices[id][key] = value
}

// Fail makes every request with method on path answer status.
func (f *Server) Fail(method, path string, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[method+" "+path] = status
}

// RequestCount returns how many requests the server answered.
func (f *Server) RequestCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

// LastRequest returns the most recent request.
func (f *Server) LastRequest() Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

// RequestsTo returns the recorded requests with method on path.
func (f *Server) RequestsTo(method, path string) []Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Request
	for _, r := range f.requests {
		if r.Method == method && r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

func (f *Server) serveHTTP(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, message(err.Error()))
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, Request{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.Query(),
		Form:   r.PostForm,
		Header: r.Header.Clone(),
	})

	if status, ok := f.failures[r.Method+" "+r.URL.Path]; ok {
		writeJSON(w, status, message("injected failure"))
		return
	}

	parts := splitPath(r.URL.Path)
	if len(parts) == 0 {
		f.serveRoot(w)
		return
	}
	g, ok := f.graphs[parts[0]]
	if !ok {
		writeJSON(w, http.StatusNotFound, message("Graph ["+parts[0]+"] could not be found"))
		return
	}

	switch {
	case len(parts) == 1:
		writeJSON(w, http.StatusOK, map[string]any{
			"name":    parts[0],
			"graph":   fmt.Sprintf("tinkergraph[vertices:%d edges:%d]", len(g.vertices), len(g.edges)),
			"version": "0.3",
		})
	case parts[1] == "vertices":
		f.serveVertices(w, r, g, parts[2:])
	case parts[1] == "edges":
		f.serveEdges(w, r, g, parts[2:])
	case parts[1] == "indices":
		f.serveIndices(w, r, g, parts[2:])
	default:
		writeJSON(w, http.StatusNotFound, message("no such resource"))
	}
}

func (f *Server) serveRoot(w http.ResponseWriter) {
	names := make([]string, 0, len(f.graphs))
	for name := range f.graphs {
		names = append(names, name)
	}
	sort.Strings(names)
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "Rexster: A Graph Server",
		"version": "0.3",
		"upTime":  "0[d]:00[h]:05[m]:12[s]",
		"graphs":  names,
	})
}

func (f *Server) newID() string {
	f.nextID++
	return strconv.Itoa(f.nextID)
}

func (f *Server) serveVertices(w http.ResponseWriter, r *http.Request, g *fakeGraph, rest []string) {
	switch len(rest) {
	case 0:
		switch r.Method {
		case http.MethodGet:
			writeList(w, g.vertices)
		case http.MethodPost:
			v := g.putVertex(f.newID(), nil)
			applyForm(v, r.PostForm)
			writeJSON(w, http.StatusOK, map[string]any{"results": v})
		default:
			writeJSON(w, http.StatusMethodNotAllowed, message("method not allowed"))
		}

	case 1:
		id := rest[0]
		v, exists := g.vertices[id]
		switch r.Method {
		case http.MethodGet:
			if !exists {
				writeJSON(w, http.StatusNotFound, message("Vertex with ["+id+"] cannot be found."))
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"results": v})
		case http.MethodPost:
			if !exists {
				v = g.putVertex(id, nil)
			}
			applyForm(v, r.PostForm)
			writeJSON(w, http.StatusOK, map[string]any{"results": v})
		case http.MethodDelete:
			if !exists {
				writeJSON(w, http.StatusNotFound, message("Vertex with ["+id+"] cannot be found."))
				return
			}
			if query := r.URL.Query(); len(query) > 0 {
				for key := range query {
					delete(v, key)
				}
			} else {
				delete(g.vertices, id)
				for eid, e := range g.edges {
					if e["_outV"] == id || e["_inV"] == id {
						delete(g.edges, eid)
					}
				}
			}
			writeJSON(w, http.StatusOK, map[string]any{"version": "0.3"})
		default:
			writeJSON(w, http.StatusMethodNotAllowed, message("method not allowed"))
		}

	case 2:
		id, direction := rest[0], rest[1]
		if _, exists := g.vertices[id]; !exists {
			writeJSON(w, http.StatusNotFound, message("Vertex with ["+id+"] cannot be found."))
			return
		}
		label := r.URL.Query().Get("_label")
		matched := make(map[string]map[string]any)
		for eid, e := range g.edges {
			out, in := e["_outV"] == id, e["_inV"] == id
			var hit bool
			switch direction {
			case "outE":
				hit = out
			case "inE":
				hit = in
			case "bothE":
				hit = out || in
			default:
				writeJSON(w, http.StatusNotFound, message("no such resource"))
				return
			}
			if hit && (label == "" || e["_label"] == label) {
				matched[eid] = e
			}
		}
		writeList(w, matched)

	default:
		writeJSON(w, http.StatusNotFound, message("no such resource"))
	}
}

func (f *Server) serveEdges(w http.ResponseWriter, r *http.Request, g *fakeGraph, rest []string) {
	switch len(rest) {
	case 0:
		switch r.Method {
		case http.MethodGet:
			writeList(w, g.edges)
		case http.MethodPost:
			out, in, label := r.FormValue("_outV"), r.FormValue("_inV"), r.FormValue("_label")
			if _, ok := g.vertices[out]; !ok {
				writeJSON(w, http.StatusBadRequest, message("out vertex ["+out+"] cannot be found"))
				return
			}
			if _, ok := g.vertices[in]; !ok {
				writeJSON(w, http.StatusBadRequest, message("in vertex ["+in+"] cannot be found"))
				return
			}
			e := g.putEdge(f.newID(), out, in, label, nil)
			applyForm(e, r.PostForm)
			writeJSON(w, http.StatusOK, map[string]any{"results": e})
		default:
			writeJSON(w, http.StatusMethodNotAllowed, message("method not allowed"))
		}

	case 1:
		id := rest[0]
		e, exists := g.edges[id]
		if !exists {
			writeJSON(w, http.StatusNotFound, message("Edge with ["+id+"] cannot be found."))
			return
		}
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, map[string]any{"results": e})
		case http.MethodPost:
			applyForm(e, r.PostForm)
			writeJSON(w, http.StatusOK, map[string]any{"results": e})
		case http.MethodDelete:
			if query := r.URL.Query(); len(query) > 0 {
				for key := range query {
					delete(e, key)
				}
			} else {
				delete(g.edges, id)
			}
			writeJSON(w, http.StatusOK, map[string]any{"version": "0.3"})
		default:
			writeJSON(w, http.StatusMethodNotAllowed, message("method not allowed"))
		}

	default:
		writeJSON(w, http.StatusNotFound, message("no such resource"))
	}
}

func (f *Server) serveIndices(w http.ResponseWriter, r *http.Request, g *fakeGraph, rest []string) {
	if len(rest) == 0 {
		names := make([]string, 0, len(g.indices))
		for name := range g.indices {
			names = append(names, name)
		}
		sort.Strings(names)
		records := make([]any, 0, len(names))
		for _, name := range names {
			records = append(records, g.indices[name].record())
		}
		writeJSON(w, http.StatusOK, map[string]any{"results": records, "totalSize": len(records)})
		return
	}

	name := rest[0]
	idx, exists := g.indices[name]

	if len(rest) == 1 && r.Method == http.MethodPost && !exists {
		var class string
		switch r.PostForm.Get("class") {
		case "vertex":
			class = javaVertexClass
		case "edge":
			class = javaEdgeClass
		default:
			writeJSON(w, http.StatusBadRequest, message("class must be vertex or edge"))
			return
		}
		idx = &fakeIndex{
			name:    name,
			class:   class,
			typ:     r.PostForm.Get("type"),
			entries: make(map[string][]string),
		}
		if keys := strings.Trim(r.PostForm.Get("keys"), "[]"); keys != "" {
			idx.keys = strings.Split(keys, ",")
		}
		g.indices[name] = idx
		writeJSON(w, http.StatusOK, map[string]any{"results": idx.record()})
		return
	}
	if !exists {
		writeJSON(w, http.StatusNotFound, message("Index ["+name+"] cannot be found."))
		return
	}

	if len(rest) == 2 {
		switch rest[1] {
		case "count":
			q := r.URL.Query()
			writeJSON(w, http.StatusOK, map[string]any{"totalSize": len(idx.entries[q.Get("key")+"\x00"+q.Get("value")])})
		case "keys":
			if idx.typ != "automatic" {
				writeJSON(w, http.StatusBadRequest, message("not an automatic index"))
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"results": idx.keys})
		default:
			writeJSON(w, http.StatusNotFound, message("no such resource"))
		}
		return
	}

	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		if !q.Has("key") {
			writeJSON(w, http.StatusOK, map[string]any{"results": idx.record()})
			return
		}
		source := g.vertices
		if idx.class == javaEdgeClass {
			source = g.edges
		}
		matched := make(map[string]map[string]any)
		for _, id := range idx.entries[q.Get("key")+"\x00"+q.Get("value")] {
			if el, ok := source[id]; ok {
				matched[id] = el
			}
		}
		writeList(w, matched)
	case http.MethodPost:
		form := r.PostForm
		if form.Get("key") == "" {
			writeJSON(w, http.StatusBadRequest, message("index ["+name+"] already exists"))
			return
		}
		if !strings.EqualFold(classSuffix(idx.class), form.Get("class")) {
			writeJSON(w, http.StatusBadRequest, message("class does not match the index class"))
			return
		}
		slot := form.Get("key") + "\x00" + form.Get("value")
		if !slices.Contains(idx.entries[slot], form.Get("id")) {
			idx.entries[slot] = append(idx.entries[slot], form.Get("id"))
		}
		writeJSON(w, http.StatusOK, map[string]any{"version": "0.3"})
	case http.MethodDelete:
		q := r.URL.Query()
		if !q.Has("key") {
			delete(g.indices, name)
			writeJSON(w, http.StatusOK, map[string]any{"version": "0.3"})
			return
		}
		slot := q.Get("key") + "\x00" + q.Get("value")
		idx.entries[slot] = slices.DeleteFunc(idx.entries[slot], func(id string) bool { return id == q.Get("id") })
		writeJSON(w, http.StatusOK, map[string]any{"version": "0.3"})
	default:
		writeJSON(w, http.StatusMethodNotAllowed, message("method not allowed"))
	}
}

func classSuffix(javaClass string) string {
	return javaClass[strings.LastIndexByte(javaClass, '.')+1:]
}

// applyForm writes the non-reserved form fields onto an element, decoding
// the (type,value) notation.
func applyForm(el map[string]any, form url.Values) {
	for key, values := range form {
		if strings.HasPrefix(key, "_") || len(values) == 0 {
			continue
		}
		el[key] = decodeTyped(values[0])
	}
}

func decodeTyped(s string) any {
	if !strings.HasPrefix(s, "(") || !strings.HasSuffix(s, ")") {
		return s
	}
	typ, raw, ok := strings.Cut(s[1:len(s)-1], ",")
	if !ok {
		return s
	}
	switch typ {
	case "integer", "long":
		if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return i
		}
	case "float", "double":
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return f
		}
	case "boolean":
		if b, err := strconv.ParseBool(raw); err == nil {
			return b
		}
	case "string":
		return raw
	}
	return s
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

func message(msg string) map[string]any {
	return map[string]any{"message": msg}
}

// writeList answers a collection, ordered by id.
func writeList(w http.ResponseWriter, elements map[string]map[string]any) {
	ids := make([]string, 0, len(elements))
	for id := range elements {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	results := make([]any, 0, len(ids))
	for _, id := range ids {
		results = append(results, elements[id])
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results, "totalSize": len(results)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
