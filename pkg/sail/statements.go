package sail

import (
	"fmt"

	"github.com/aleksaelezovic/propsail/pkg/graph"
	"github.com/aleksaelezovic/propsail/pkg/rdf"
)

// encodedQuad is the canonical encoding of all four positions of a statement
// being written. Context holds the null sentinel for default-graph statements.
type encodedQuad struct {
	s, p, o, c string
}

func encodeQuad(subj, pred, obj, ctx rdf.Term) (encodedQuad, error) {
	var q encodedQuad
	var err error
	if q.s, err = encodeTerm(subj); err != nil {
		return q, err
	}
	if q.p, err = encodeTerm(pred); err != nil {
		return q, err
	}
	if q.o, err = encodeTerm(obj); err != nil {
		return q, err
	}
	if q.c, err = encodeContext(ctx); err != nil {
		return q, err
	}
	return q, nil
}

// writeStatementEdge creates the edge for a statement and populates every
// property the enabled indexes rely on.
func (s *Store) writeStatementEdge(sv, ov graph.Vertex, q encodedQuad) (graph.Edge, error) {
	e, err := s.g.AddEdge(sv, q.p, ov)
	if err != nil {
		return nil, fmt.Errorf("sail: add edge: %w", err)
	}
	if err := e.SetProperty(propPredicate, q.p); err != nil {
		return nil, fmt.Errorf("sail: set edge property: %w", err)
	}
	if err := e.SetProperty(propContext, q.c); err != nil {
		return nil, fmt.Errorf("sail: set edge property: %w", err)
	}

	eq := &edgeQuery{s: q.s, p: q.p, o: q.o, c: q.c}
	for mask, pattern := range s.patterns {
		if pattern == propPredicate || pattern == propContext {
			continue
		}
		if err := e.SetProperty(pattern, compositeKey(mask, eq)); err != nil {
			return nil, fmt.Errorf("sail: set edge property %q: %w", pattern, err)
		}
	}
	return e, nil
}

// decodeEdgeInto reconstructs the statement an edge represents.
func decodeEdgeInto(e graph.Edge, st *rdf.Statement) error {
	p, ok := e.Property(propPredicate)
	if !ok {
		return fmt.Errorf("%w: edge %s has no predicate", ErrMalformedEncoding, e.ID())
	}
	c, ok := e.Property(propContext)
	if !ok {
		return fmt.Errorf("%w: edge %s has no context", ErrMalformedEncoding, e.ID())
	}

	pred, err := decodeTerm(p)
	if err != nil {
		return err
	}
	ctx, err := decodeContext(c)
	if err != nil {
		return err
	}

	out, err := e.OutVertex()
	if err != nil {
		return fmt.Errorf("sail: edge subject: %w", err)
	}
	subj, err := decodeVertex(out)
	if err != nil {
		return err
	}
	in, err := e.InVertex()
	if err != nil {
		return fmt.Errorf("sail: edge object: %w", err)
	}
	obj, err := decodeVertex(in)
	if err != nil {
		return err
	}

	st.Subject = subj
	st.Predicate = pred
	st.Object = obj
	st.Context = ctx
	return nil
}

func decodeEdge(e graph.Edge) (*rdf.Statement, error) {
	var st rdf.Statement
	if err := decodeEdgeInto(e, &st); err != nil {
		return nil, err
	}
	return &st, nil
}
