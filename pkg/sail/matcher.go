package sail

import (
	"fmt"
	"strings"

	"github.com/aleksaelezovic/propsail/pkg/graph"
)

// Edge property keys. Beyond these two, each enabled indexed pattern stores
// its composite key under a property named by the pattern string itself.
const (
	propPredicate = "p"
	propContext   = "c"
)

// edgeQuery carries the canonical encodings of the bound positions ("" means
// unbound; a bound null context is the sentinel) plus the resolved endpoint
// vertices for graph pivoting.
type edgeQuery struct {
	s, p, o, c string
	sv, ov     graph.Vertex
}

func (q *edgeQuery) mask() int {
	mask := 0
	if q.s != "" {
		mask |= maskS
	}
	if q.p != "" {
		mask |= maskP
	}
	if q.o != "" {
		mask |= maskO
	}
	if q.c != "" {
		mask |= maskC
	}
	return mask
}

// compositeKey concatenates the encodings of the positions in mask, in
// s→p→o→c order, joined by the separator.
func compositeKey(mask int, q *edgeQuery) string {
	parts := make([]string, 0, 4)
	if mask&maskS != 0 {
		parts = append(parts, q.s)
	}
	if mask&maskP != 0 {
		parts = append(parts, q.p)
	}
	if mask&maskO != 0 {
		parts = append(parts, q.o)
	}
	if mask&maskC != 0 {
		parts = append(parts, q.c)
	}
	return strings.Join(parts, separator)
}

// matcher yields the candidate edges for a bind-pattern. A matcher may
// over-match when serving a slot wider than its own pattern; the connection
// filters every yielded edge against the full query.
type matcher interface {
	match(q *edgeQuery) (graph.EdgeIterator, error)
}

// trivialMatcher serves the fully-unbound pattern by scanning every
// statement edge.
type trivialMatcher struct {
	g graph.Graph
}

func (m *trivialMatcher) match(*edgeQuery) (graph.EdgeIterator, error) {
	it, err := m.g.Edges()
	if err != nil {
		return nil, fmt.Errorf("sail: edge scan: %w", err)
	}
	return it, nil
}

// indexingMatcher serves a fixed pattern through a single point lookup on the
// edges index property keyed by the pattern string.
type indexingMatcher struct {
	mask    int
	pattern string
	edges   graph.Index
}

func (m *indexingMatcher) match(q *edgeQuery) (graph.EdgeIterator, error) {
	it, err := m.edges.Get(m.pattern, compositeKey(m.mask, q))
	if err != nil {
		return nil, fmt.Errorf("sail: edges index lookup %q: %w", m.pattern, err)
	}
	return &indexEdgeIterator{it: it}, nil
}

// graphMatcher pivots on a bound endpoint vertex and filters its adjacency.
// Never dispatched without s or o bound.
type graphMatcher struct {
	mask int
}

func (m *graphMatcher) match(q *edgeQuery) (graph.EdgeIterator, error) {
	var (
		it       graph.EdgeIterator
		err      error
		pivotOnS = m.mask&maskS != 0 && q.sv != nil
		checkS   = false
		checkO   = false
	)
	switch {
	case pivotOnS:
		it, err = q.sv.OutEdges()
		checkO = m.mask&maskO != 0
	case m.mask&maskO != 0 && q.ov != nil:
		it, err = q.ov.InEdges()
		checkS = m.mask&maskS != 0
	default:
		return emptyEdgeIterator{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sail: adjacency scan: %w", err)
	}

	return &filteredEdgeIterator{
		it: it,
		keep: func(e graph.Edge) (bool, error) {
			if m.mask&maskP != 0 {
				if p, ok := e.Property(propPredicate); !ok || p != q.p {
					return false, nil
				}
			}
			if m.mask&maskC != 0 {
				if c, ok := e.Property(propContext); !ok || c != q.c {
					return false, nil
				}
			}
			if checkO {
				in, err := e.InVertex()
				if err != nil {
					return false, err
				}
				if q.ov == nil || in.ID() != q.ov.ID() {
					return false, nil
				}
			}
			if checkS {
				out, err := e.OutVertex()
				if err != nil {
					return false, err
				}
				if q.sv == nil || out.ID() != q.sv.ID() {
					return false, nil
				}
			}
			return true, nil
		},
	}, nil
}

// indexEdgeIterator adapts an index result cursor to an edge cursor.
type indexEdgeIterator struct {
	it graph.ElementIterator
}

func (i *indexEdgeIterator) Next() bool {
	return i.it.Next()
}

func (i *indexEdgeIterator) Edge() (graph.Edge, error) {
	el, err := i.it.Element()
	if err != nil {
		return nil, err
	}
	e, ok := el.(graph.Edge)
	if !ok {
		return nil, fmt.Errorf("sail: non-edge in edges index")
	}
	return e, nil
}

func (i *indexEdgeIterator) Close() error {
	return i.it.Close()
}

// filteredEdgeIterator skips edges its predicate rejects.
type filteredEdgeIterator struct {
	it   graph.EdgeIterator
	keep func(graph.Edge) (bool, error)

	cur graph.Edge
	err error
}

func (i *filteredEdgeIterator) Next() bool {
	if i.err != nil {
		return false
	}
	for i.it.Next() {
		e, err := i.it.Edge()
		if err != nil {
			i.err = err
			return true // surface the error from Edge()
		}
		ok, err := i.keep(e)
		if err != nil {
			i.err = err
			return true
		}
		if ok {
			i.cur = e
			return true
		}
	}
	return false
}

func (i *filteredEdgeIterator) Edge() (graph.Edge, error) {
	if i.err != nil {
		return nil, i.err
	}
	return i.cur, nil
}

func (i *filteredEdgeIterator) Close() error {
	return i.it.Close()
}

type emptyEdgeIterator struct{}

func (emptyEdgeIterator) Next() bool { return false }

func (emptyEdgeIterator) Edge() (graph.Edge, error) { return nil, graph.ErrNotFound }

func (emptyEdgeIterator) Close() error { return nil }
