package badgergraph

import (
	"github.com/aleksaelezovic/propsail/pkg/graph"
)

// Iterators walk an id snapshot collected at creation time and read records
// on demand, so a cursor stays valid across its own store's mutations. Handles
// are handed out without an existence check: for an edge deleted
// mid-iteration, reading its endpoints surfaces graph.ErrNotFound, while
// property reads on any deleted element report the property as absent.

type edgeIterator struct {
	g      *Graph
	ids    []string
	pos    int
	closed bool
}

func (it *edgeIterator) Next() bool {
	if it.closed || it.pos >= len(it.ids) {
		return false
	}
	it.pos++
	return true
}

func (it *edgeIterator) Edge() (graph.Edge, error) {
	if it.pos == 0 || it.pos > len(it.ids) {
		return nil, graph.ErrNotFound
	}
	return &Edge{g: it.g, id: it.ids[it.pos-1]}, nil
}

func (it *edgeIterator) Close() error {
	it.closed = true
	return nil
}

type vertexIterator struct {
	g      *Graph
	ids    []string
	pos    int
	closed bool
}

func (it *vertexIterator) Next() bool {
	if it.closed || it.pos >= len(it.ids) {
		return false
	}
	it.pos++
	return true
}

func (it *vertexIterator) Vertex() (graph.Vertex, error) {
	if it.pos == 0 || it.pos > len(it.ids) {
		return nil, graph.ErrNotFound
	}
	return &Vertex{g: it.g, id: it.ids[it.pos-1]}, nil
}

func (it *vertexIterator) Close() error {
	it.closed = true
	return nil
}

type elementIterator struct {
	g      *Graph
	kind   graph.ElementKind
	ids    []string
	pos    int
	closed bool
}

func (it *elementIterator) Next() bool {
	if it.closed || it.pos >= len(it.ids) {
		return false
	}
	it.pos++
	return true
}

func (it *elementIterator) Element() (graph.Element, error) {
	if it.pos == 0 || it.pos > len(it.ids) {
		return nil, graph.ErrNotFound
	}
	id := it.ids[it.pos-1]
	if it.kind == graph.KindVertex {
		return &Vertex{g: it.g, id: id}, nil
	}
	return &Edge{g: it.g, id: id}, nil
}

func (it *elementIterator) Close() error {
	it.closed = true
	return nil
}
