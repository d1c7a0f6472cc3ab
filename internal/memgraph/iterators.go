package memgraph

import (
	"github.com/aleksaelezovic/propsail/pkg/graph"
)

// Iterators walk an id snapshot taken at creation. A version check on each
// read gives best-effort detection of mutations made while iterating; the
// graph is not transactional, so a detected change fails the read rather
// than yielding stale elements.

type edgeIterator struct {
	g       *Graph
	ids     []string
	version uint64
	pos     int
	closed  bool
}

func (it *edgeIterator) Next() bool {
	if it.closed || it.pos >= len(it.ids) {
		return false
	}
	it.pos++
	return true
}

func (it *edgeIterator) Edge() (graph.Edge, error) {
	it.g.mu.RLock()
	defer it.g.mu.RUnlock()
	if it.g.version != it.version {
		return nil, graph.ErrConcurrentModification
	}
	if it.pos == 0 || it.pos > len(it.ids) {
		return nil, graph.ErrNotFound
	}
	id := it.ids[it.pos-1]
	if _, ok := it.g.edges[id]; !ok {
		return nil, graph.ErrNotFound
	}
	return &Edge{g: it.g, id: id}, nil
}

func (it *edgeIterator) Close() error {
	it.closed = true
	return nil
}

type vertexIterator struct {
	g       *Graph
	ids     []string
	version uint64
	pos     int
	closed  bool
}

func (it *vertexIterator) Next() bool {
	if it.closed || it.pos >= len(it.ids) {
		return false
	}
	it.pos++
	return true
}

func (it *vertexIterator) Vertex() (graph.Vertex, error) {
	it.g.mu.RLock()
	defer it.g.mu.RUnlock()
	if it.g.version != it.version {
		return nil, graph.ErrConcurrentModification
	}
	if it.pos == 0 || it.pos > len(it.ids) {
		return nil, graph.ErrNotFound
	}
	id := it.ids[it.pos-1]
	if _, ok := it.g.vertices[id]; !ok {
		return nil, graph.ErrNotFound
	}
	return &Vertex{g: it.g, id: id}, nil
}

func (it *vertexIterator) Close() error {
	it.closed = true
	return nil
}

type elementIterator struct {
	g       *Graph
	kind    graph.ElementKind
	ids     []string
	version uint64
	pos     int
	closed  bool
}

func (it *elementIterator) Next() bool {
	if it.closed || it.pos >= len(it.ids) {
		return false
	}
	it.pos++
	return true
}

func (it *elementIterator) Element() (graph.Element, error) {
	it.g.mu.RLock()
	defer it.g.mu.RUnlock()
	if it.g.version != it.version {
		return nil, graph.ErrConcurrentModification
	}
	if it.pos == 0 || it.pos > len(it.ids) {
		return nil, graph.ErrNotFound
	}
	id := it.ids[it.pos-1]
	if it.kind == graph.KindVertex {
		if _, ok := it.g.vertices[id]; !ok {
			return nil, graph.ErrNotFound
		}
		return &Vertex{g: it.g, id: id}, nil
	}
	if _, ok := it.g.edges[id]; !ok {
		return nil, graph.ErrNotFound
	}
	return &Edge{g: it.g, id: id}, nil
}

func (it *elementIterator) Close() error {
	it.closed = true
	return nil
}
