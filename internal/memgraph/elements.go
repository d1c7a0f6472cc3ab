package memgraph

import (
	"github.com/aleksaelezovic/propsail/pkg/graph"
)

// Vertex is a handle onto a stored vertex.
type Vertex struct {
	g  *Graph
	id string
}

func (v *Vertex) ID() string { return v.id }

func (v *Vertex) Property(key string) (string, bool) {
	return v.g.property(graph.KindVertex, v.id, key)
}

func (v *Vertex) SetProperty(key, value string) error {
	return v.g.setProperty(graph.KindVertex, v.id, key, value)
}

func (v *Vertex) RemoveProperty(key string) error {
	return v.g.removeProperty(graph.KindVertex, v.id, key)
}

func (v *Vertex) PropertyKeys() ([]string, error) {
	return v.g.propertyKeys(graph.KindVertex, v.id)
}

func (v *Vertex) OutEdges() (graph.EdgeIterator, error) {
	return v.adjacency(true)
}

func (v *Vertex) InEdges() (graph.EdgeIterator, error) {
	return v.adjacency(false)
}

func (v *Vertex) adjacency(out bool) (graph.EdgeIterator, error) {
	v.g.mu.RLock()
	defer v.g.mu.RUnlock()
	vd, ok := v.g.vertices[v.id]
	if !ok {
		return nil, graph.ErrNotFound
	}
	set := vd.out
	if !out {
		set = vd.in
	}
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	return &edgeIterator{g: v.g, ids: ids, version: v.g.version}, nil
}

// Edge is a handle onto a stored edge.
type Edge struct {
	g  *Graph
	id string
}

func (e *Edge) ID() string { return e.id }

func (e *Edge) Property(key string) (string, bool) {
	return e.g.property(graph.KindEdge, e.id, key)
}

func (e *Edge) SetProperty(key, value string) error {
	return e.g.setProperty(graph.KindEdge, e.id, key, value)
}

func (e *Edge) RemoveProperty(key string) error {
	return e.g.removeProperty(graph.KindEdge, e.id, key)
}

func (e *Edge) PropertyKeys() ([]string, error) {
	return e.g.propertyKeys(graph.KindEdge, e.id)
}

func (e *Edge) Label() string {
	e.g.mu.RLock()
	defer e.g.mu.RUnlock()
	if ed, ok := e.g.edges[e.id]; ok {
		return ed.label
	}
	return ""
}

func (e *Edge) OutVertex() (graph.Vertex, error) {
	e.g.mu.RLock()
	defer e.g.mu.RUnlock()
	ed, ok := e.g.edges[e.id]
	if !ok {
		return nil, graph.ErrNotFound
	}
	return &Vertex{g: e.g, id: ed.out}, nil
}

func (e *Edge) InVertex() (graph.Vertex, error) {
	e.g.mu.RLock()
	defer e.g.mu.RUnlock()
	ed, ok := e.g.edges[e.id]
	if !ok {
		return nil, graph.ErrNotFound
	}
	return &Vertex{g: e.g, id: ed.in}, nil
}

// Index is a handle onto a named index.
type Index struct {
	g  *Graph
	ix *index
}

func (i *Index) Name() string            { return i.ix.name }
func (i *Index) Kind() graph.ElementKind { return i.ix.kind }

func (i *Index) Get(key, value string) (graph.ElementIterator, error) {
	i.g.mu.RLock()
	defer i.g.mu.RUnlock()
	var ids []string
	if byValue, ok := i.ix.entries[key]; ok {
		for id := range byValue[value] {
			ids = append(ids, id)
		}
	}
	return &elementIterator{g: i.g, kind: i.ix.kind, ids: ids, version: i.g.version}, nil
}
