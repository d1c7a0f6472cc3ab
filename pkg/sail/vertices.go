package sail

import (
	"fmt"

	"github.com/aleksaelezovic/propsail/pkg/graph"
	"github.com/aleksaelezovic/propsail/pkg/rdf"
)

// Vertex property keys.
const (
	propKind  = "kind"
	propValue = "value"
	propType  = "type"
	propLang  = "lang"
)

// Vertex kind values.
const (
	kindURI     = "uri"
	kindBNode   = "bnode"
	kindLiteral = "literal"
)

// primaryValue is the lexical form stored under the "value" property and
// looked up through the values index.
func primaryValue(t rdf.Term) (string, error) {
	switch v := t.(type) {
	case *rdf.IRI:
		return v.Value, nil
	case *rdf.BlankNode:
		return v.ID, nil
	case *rdf.Literal:
		return v.Label, nil
	default:
		return "", fmt.Errorf("%w: %T", ErrIllegalValue, t)
	}
}

// findVertex returns the vertex representing t, or nil if none exists.
func (s *Store) findVertex(t rdf.Term) (graph.Vertex, error) {
	pv, err := primaryValue(t)
	if err != nil {
		return nil, err
	}
	it, err := s.values.Get(propValue, pv)
	if err != nil {
		return nil, fmt.Errorf("sail: values index lookup: %w", err)
	}
	defer s.closeQuietly(it)

	for it.Next() {
		el, err := it.Element()
		if err != nil {
			return nil, fmt.Errorf("sail: values index read: %w", err)
		}
		v, ok := el.(graph.Vertex)
		if !ok {
			return nil, fmt.Errorf("%w: non-vertex in values index", ErrAmbiguousValue)
		}
		match, err := vertexMatches(v, t)
		if err != nil {
			return nil, err
		}
		if match {
			return v, nil
		}
	}
	return nil, nil
}

// addVertex unconditionally creates a vertex for t and populates its
// attributes.
func (s *Store) addVertex(t rdf.Term) (graph.Vertex, error) {
	pv, err := primaryValue(t)
	if err != nil {
		return nil, err
	}
	v, err := s.g.AddVertex()
	if err != nil {
		return nil, fmt.Errorf("sail: add vertex: %w", err)
	}

	kind := kindURI
	switch val := t.(type) {
	case *rdf.BlankNode:
		kind = kindBNode
	case *rdf.Literal:
		kind = kindLiteral
		if val.Datatype != nil {
			if err := v.SetProperty(propType, val.Datatype.Value); err != nil {
				return nil, fmt.Errorf("sail: set vertex property: %w", err)
			}
		}
		if val.Language != "" {
			if err := v.SetProperty(propLang, val.Language); err != nil {
				return nil, fmt.Errorf("sail: set vertex property: %w", err)
			}
		}
	}
	if err := v.SetProperty(propKind, kind); err != nil {
		return nil, fmt.Errorf("sail: set vertex property: %w", err)
	}
	// Set last: the automatic values index keys on this property.
	if err := v.SetProperty(propValue, pv); err != nil {
		return nil, fmt.Errorf("sail: set vertex property: %w", err)
	}
	return v, nil
}

// findOrAddVertex returns the vertex for t, creating it on first reference.
func (s *Store) findOrAddVertex(t rdf.Term) (graph.Vertex, error) {
	v, err := s.findVertex(t)
	if err != nil || v != nil {
		return v, err
	}
	return s.addVertex(t)
}

// vertexMatches reports whether a stored vertex represents the given term.
//
// For literals the rule is a disjunction: labels must agree, and then either
// both sides carry no datatype and no language, or the datatypes agree, or
// the language tags agree. Equality on the label alone is not enough. The
// rule departs from exact equality only for a literal carrying both a
// datatype and a language tag: agreement on either one then suffices. A plain
// and a typed literal sharing a label never match. That asymmetry is kept as
// observed upstream.
func vertexMatches(v graph.Vertex, t rdf.Term) (bool, error) {
	kind, ok := v.Property(propKind)
	if !ok {
		return false, nil
	}
	stored, ok := v.Property(propValue)
	if !ok {
		return false, nil
	}

	switch val := t.(type) {
	case *rdf.IRI:
		return kind == kindURI && stored == val.Value, nil
	case *rdf.BlankNode:
		return kind == kindBNode && stored == val.ID, nil
	case *rdf.Literal:
		if kind != kindLiteral || stored != val.Label {
			return false, nil
		}
		storedType, hasType := v.Property(propType)
		storedLang, hasLang := v.Property(propLang)
		wantType := val.Datatype != nil
		wantLang := val.Language != ""
		switch {
		case !hasType && !wantType && !hasLang && !wantLang:
			return true, nil
		case hasType && wantType && storedType == val.Datatype.Value:
			return true, nil
		case hasLang && wantLang && storedLang == val.Language:
			return true, nil
		}
		return false, nil
	default:
		return false, fmt.Errorf("%w: %T", ErrIllegalValue, t)
	}
}

// decodeVertex reconstructs the term a vertex represents.
func decodeVertex(v graph.Vertex) (rdf.Term, error) {
	kind, ok := v.Property(propKind)
	if !ok {
		return nil, fmt.Errorf("%w: vertex %s has no kind", ErrMalformedEncoding, v.ID())
	}
	value, ok := v.Property(propValue)
	if !ok {
		return nil, fmt.Errorf("%w: vertex %s has no value", ErrMalformedEncoding, v.ID())
	}

	switch kind {
	case kindURI:
		return rdf.NewIRI(value), nil
	case kindBNode:
		return rdf.NewBlankNode(value), nil
	case kindLiteral:
		if lang, ok := v.Property(propLang); ok {
			return rdf.NewLangLiteral(value, lang), nil
		}
		if dt, ok := v.Property(propType); ok {
			return rdf.NewTypedLiteral(value, rdf.NewIRI(dt)), nil
		}
		return rdf.NewLiteral(value), nil
	default:
		return nil, fmt.Errorf("%w: unknown vertex kind %q", ErrMalformedEncoding, kind)
	}
}
