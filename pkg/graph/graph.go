// Package graph defines the indexable property graph contract consumed by the
// sail. Any backing store that can represent vertices and edges with string
// properties and maintain automatic key indexes can sit underneath.
package graph

import (
	"errors"
)

var (
	ErrNotFound               = errors.New("element not found")
	ErrIndexExists            = errors.New("index already exists")
	ErrConcurrentModification = errors.New("graph modified during iteration")
)

// ElementKind distinguishes vertex indexes from edge indexes.
type ElementKind byte

const (
	KindVertex ElementKind = iota
	KindEdge
)

func (k ElementKind) String() string {
	switch k {
	case KindVertex:
		return "vertex"
	case KindEdge:
		return "edge"
	default:
		return "unknown"
	}
}

// Element is the shared surface of vertices and edges: an identifier plus a
// mutable string property map.
type Element interface {
	// ID returns the element's graph-unique identifier.
	ID() string

	// Property returns the value stored under key, and whether it is set.
	Property(key string) (string, bool)

	// SetProperty stores a property. Automatic indexes covering key must be
	// updated before SetProperty returns.
	SetProperty(key, value string) error

	// RemoveProperty deletes a property. Removing an absent key is not an error.
	RemoveProperty(key string) error

	// PropertyKeys enumerates the element's property keys.
	PropertyKeys() ([]string, error)
}

// Vertex is a graph node with directed adjacency.
type Vertex interface {
	Element

	// OutEdges returns the edges leaving this vertex.
	OutEdges() (EdgeIterator, error)

	// InEdges returns the edges arriving at this vertex.
	InEdges() (EdgeIterator, error)
}

// Edge is a directed, labeled connection between two vertices.
type Edge interface {
	Element

	Label() string

	// OutVertex returns the edge's source (tail).
	OutVertex() (Vertex, error)

	// InVertex returns the edge's target (head).
	InVertex() (Vertex, error)
}

// Graph is the backing store. All mutations are visible to subsequent reads on
// the same graph handle, subject to the store's transaction model.
type Graph interface {
	// AddVertex creates a new vertex with no properties.
	AddVertex() (Vertex, error)

	// AddEdge creates a directed edge from out to in with the given label.
	AddEdge(out Vertex, label string, in Vertex) (Edge, error)

	// RemoveVertex deletes a vertex, its incident edges, and all index
	// entries referring to them.
	RemoveVertex(v Vertex) error

	// RemoveEdge deletes an edge and its index entries.
	RemoveEdge(e Edge) error

	// Vertices iterates every vertex.
	Vertices() (VertexIterator, error)

	// Edges iterates every edge.
	Edges() (EdgeIterator, error)

	// GetIndex returns the named index, or ErrNotFound.
	GetIndex(name string, kind ElementKind) (Index, error)

	// CreateAutomaticIndex creates an index that reindexes elements whenever
	// one of the given property keys is set or removed. A nil or empty key
	// set means every property key is indexed. Returns ErrIndexExists if the
	// name is taken.
	CreateAutomaticIndex(name string, kind ElementKind, keys []string) (Index, error)

	// Indices lists all named indexes.
	Indices() ([]Index, error)

	// Close releases the backing store.
	Close() error
}

// TransactionalGraph is an optional capability: a graph supporting manual
// transaction boundaries. The sail detects it at open and brackets mutations
// through it; graphs without it auto-commit every operation.
type TransactionalGraph interface {
	Graph

	// BeginTx starts a manual transaction if none is active.
	BeginTx() error

	// CommitTx commits the active transaction. No-op without one.
	CommitTx() error

	// RollbackTx discards the active transaction. No-op without one.
	RollbackTx() error
}

// Index is a named lookup structure over one element kind.
type Index interface {
	Name() string
	Kind() ElementKind

	// Get returns the elements whose property key has exactly the given
	// value. The result is lazy and must be closed.
	Get(key, value string) (ElementIterator, error)
}

// VertexIterator is a closeable cursor over vertices.
type VertexIterator interface {
	Next() bool
	Vertex() (Vertex, error)
	Close() error
}

// EdgeIterator is a closeable cursor over edges.
type EdgeIterator interface {
	Next() bool
	Edge() (Edge, error)
	Close() error
}

// ElementIterator is a closeable cursor over index results.
type ElementIterator interface {
	Next() bool
	Element() (Element, error)
	Close() error
}
