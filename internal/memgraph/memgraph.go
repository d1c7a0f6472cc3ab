// Package memgraph provides an in-memory indexable property graph. It backs
// tests and short-lived stores; nothing persists past Close.
package memgraph

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/aleksaelezovic/propsail/pkg/graph"
)

// Graph is a map-backed property graph with automatic indexes. It is safe for
// concurrent use; iterators detect mutations made after their creation and
// fail with graph.ErrConcurrentModification (best effort — the graph is not
// transactional).
type Graph struct {
	mu       sync.RWMutex
	vertices map[string]*vertexData
	edges    map[string]*edgeData
	indexes  map[string]*index
	version  uint64
}

type vertexData struct {
	id    string
	props map[string]string
	out   map[string]struct{}
	in    map[string]struct{}
}

type edgeData struct {
	id    string
	label string
	out   string
	in    string
	props map[string]string
}

type index struct {
	name string
	kind graph.ElementKind
	keys map[string]struct{} // nil means every key is indexed
	// key → value → element ids
	entries map[string]map[string]map[string]struct{}
}

func (ix *index) covers(key string) bool {
	if ix.keys == nil {
		return true
	}
	_, ok := ix.keys[key]
	return ok
}

func (ix *index) put(key, value, id string) {
	byValue, ok := ix.entries[key]
	if !ok {
		byValue = make(map[string]map[string]struct{})
		ix.entries[key] = byValue
	}
	ids, ok := byValue[value]
	if !ok {
		ids = make(map[string]struct{})
		byValue[value] = ids
	}
	ids[id] = struct{}{}
}

func (ix *index) remove(key, value, id string) {
	if byValue, ok := ix.entries[key]; ok {
		if ids, ok := byValue[value]; ok {
			delete(ids, id)
			if len(ids) == 0 {
				delete(byValue, value)
			}
		}
	}
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		vertices: make(map[string]*vertexData),
		edges:    make(map[string]*edgeData),
		indexes:  make(map[string]*index),
	}
}

func (g *Graph) AddVertex() (graph.Vertex, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := uuid.NewString()
	g.vertices[id] = &vertexData{
		id:    id,
		props: make(map[string]string),
		out:   make(map[string]struct{}),
		in:    make(map[string]struct{}),
	}
	g.version++
	return &Vertex{g: g, id: id}, nil
}

func (g *Graph) AddEdge(out graph.Vertex, label string, in graph.Vertex) (graph.Edge, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	ov, ok := g.vertices[out.ID()]
	if !ok {
		return nil, fmt.Errorf("memgraph: out vertex: %w", graph.ErrNotFound)
	}
	iv, ok := g.vertices[in.ID()]
	if !ok {
		return nil, fmt.Errorf("memgraph: in vertex: %w", graph.ErrNotFound)
	}
	id := uuid.NewString()
	g.edges[id] = &edgeData{
		id:    id,
		label: label,
		out:   ov.id,
		in:    iv.id,
		props: make(map[string]string),
	}
	ov.out[id] = struct{}{}
	iv.in[id] = struct{}{}
	g.version++
	return &Edge{g: g, id: id}, nil
}

func (g *Graph) RemoveVertex(v graph.Vertex) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	vd, ok := g.vertices[v.ID()]
	if !ok {
		return fmt.Errorf("memgraph: remove vertex: %w", graph.ErrNotFound)
	}
	for eid := range vd.out {
		g.removeEdgeLocked(eid)
	}
	for eid := range vd.in {
		g.removeEdgeLocked(eid)
	}
	g.purgeIndexEntries(graph.KindVertex, vd.id, vd.props)
	delete(g.vertices, vd.id)
	g.version++
	return nil
}

func (g *Graph) RemoveEdge(e graph.Edge) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.edges[e.ID()]; !ok {
		return fmt.Errorf("memgraph: remove edge: %w", graph.ErrNotFound)
	}
	g.removeEdgeLocked(e.ID())
	g.version++
	return nil
}

func (g *Graph) removeEdgeLocked(id string) {
	ed, ok := g.edges[id]
	if !ok {
		return
	}
	if ov, ok := g.vertices[ed.out]; ok {
		delete(ov.out, id)
	}
	if iv, ok := g.vertices[ed.in]; ok {
		delete(iv.in, id)
	}
	g.purgeIndexEntries(graph.KindEdge, ed.id, ed.props)
	delete(g.edges, id)
}

func (g *Graph) purgeIndexEntries(kind graph.ElementKind, id string, props map[string]string) {
	for _, ix := range g.indexes {
		if ix.kind != kind {
			continue
		}
		for k, v := range props {
			if ix.covers(k) {
				ix.remove(k, v, id)
			}
		}
	}
}

func (g *Graph) Vertices() (graph.VertexIterator, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	ids := make([]string, 0, len(g.vertices))
	for id := range g.vertices {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return &vertexIterator{g: g, ids: ids, version: g.version}, nil
}

func (g *Graph) Edges() (graph.EdgeIterator, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	ids := make([]string, 0, len(g.edges))
	for id := range g.edges {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return &edgeIterator{g: g, ids: ids, version: g.version}, nil
}

func (g *Graph) GetIndex(name string, kind graph.ElementKind) (graph.Index, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	ix, ok := g.indexes[name]
	if !ok || ix.kind != kind {
		return nil, graph.ErrNotFound
	}
	return &Index{g: g, ix: ix}, nil
}

func (g *Graph) CreateAutomaticIndex(name string, kind graph.ElementKind, keys []string) (graph.Index, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.indexes[name]; ok {
		return nil, graph.ErrIndexExists
	}
	ix := &index{
		name:    name,
		kind:    kind,
		entries: make(map[string]map[string]map[string]struct{}),
	}
	if len(keys) > 0 {
		ix.keys = make(map[string]struct{}, len(keys))
		for _, k := range keys {
			ix.keys[k] = struct{}{}
		}
	}
	// Index pre-existing elements so late index creation sees them.
	if kind == graph.KindVertex {
		for id, vd := range g.vertices {
			for k, v := range vd.props {
				if ix.covers(k) {
					ix.put(k, v, id)
				}
			}
		}
	} else {
		for id, ed := range g.edges {
			for k, v := range ed.props {
				if ix.covers(k) {
					ix.put(k, v, id)
				}
			}
		}
	}
	g.indexes[name] = ix
	g.version++
	return &Index{g: g, ix: ix}, nil
}

func (g *Graph) Indices() ([]graph.Index, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]graph.Index, 0, len(g.indexes))
	for _, ix := range g.indexes {
		out = append(out, &Index{g: g, ix: ix})
	}
	return out, nil
}

func (g *Graph) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.vertices = make(map[string]*vertexData)
	g.edges = make(map[string]*edgeData)
	g.indexes = make(map[string]*index)
	g.version++
	return nil
}

// setProperty updates a property and reindexes.
func (g *Graph) setProperty(kind graph.ElementKind, id, key, value string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	props, err := g.propsLocked(kind, id)
	if err != nil {
		return err
	}
	old, had := props[key]
	props[key] = value
	for _, ix := range g.indexes {
		if ix.kind != kind || !ix.covers(key) {
			continue
		}
		if had {
			ix.remove(key, old, id)
		}
		ix.put(key, value, id)
	}
	g.version++
	return nil
}

func (g *Graph) removeProperty(kind graph.ElementKind, id, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	props, err := g.propsLocked(kind, id)
	if err != nil {
		return err
	}
	old, had := props[key]
	if !had {
		return nil
	}
	delete(props, key)
	for _, ix := range g.indexes {
		if ix.kind == kind && ix.covers(key) {
			ix.remove(key, old, id)
		}
	}
	g.version++
	return nil
}

func (g *Graph) propsLocked(kind graph.ElementKind, id string) (map[string]string, error) {
	if kind == graph.KindVertex {
		vd, ok := g.vertices[id]
		if !ok {
			return nil, graph.ErrNotFound
		}
		return vd.props, nil
	}
	ed, ok := g.edges[id]
	if !ok {
		return nil, graph.ErrNotFound
	}
	return ed.props, nil
}

func (g *Graph) property(kind graph.ElementKind, id, key string) (string, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	props, err := g.propsLocked(kind, id)
	if err != nil {
		return "", false
	}
	v, ok := props[key]
	return v, ok
}

func (g *Graph) propertyKeys(kind graph.ElementKind, id string) ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	props, err := g.propsLocked(kind, id)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}
