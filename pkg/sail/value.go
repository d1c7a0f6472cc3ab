package sail

import (
	"fmt"
	"strings"

	"github.com/aleksaelezovic/propsail/pkg/rdf"
)

// Canonical string encoding of RDF values: a one-character variant prefix,
// the separator, then the payload. The encoding is injective because language
// tags and datatype IRIs contain no spaces.
//
//	U <iri>             IRI
//	B <id>              blank node
//	P <label>           plain literal
//	L <lang> <label>    language-tagged literal
//	T <dt> <label>      typed literal
//	N                   null context sentinel
const (
	prefixIRI   = 'U'
	prefixBNode = 'B'
	prefixPlain = 'P'
	prefixLang  = 'L'
	prefixTyped = 'T'

	separator = " "

	// nullContext is the stored context value for default-graph statements.
	nullContext = "N"
)

// encodeTerm returns the canonical encoding of a term.
func encodeTerm(t rdf.Term) (string, error) {
	switch v := t.(type) {
	case *rdf.IRI:
		return string(prefixIRI) + separator + v.Value, nil
	case *rdf.BlankNode:
		return string(prefixBNode) + separator + v.ID, nil
	case *rdf.Literal:
		if v.Language != "" {
			return string(prefixLang) + separator + v.Language + separator + v.Label, nil
		}
		if v.Datatype != nil {
			return string(prefixTyped) + separator + v.Datatype.Value + separator + v.Label, nil
		}
		return string(prefixPlain) + separator + v.Label, nil
	default:
		return "", fmt.Errorf("%w: %T", ErrIllegalValue, t)
	}
}

// encodeContext returns the canonical encoding of a context term, mapping the
// null context (nil or the DefaultGraph marker) to its sentinel.
func encodeContext(t rdf.Term) (string, error) {
	if t == nil {
		return nullContext, nil
	}
	if _, ok := t.(*rdf.DefaultGraph); ok {
		return nullContext, nil
	}
	return encodeTerm(t)
}

// decodeTerm parses a canonical encoding back into a term.
func decodeTerm(s string) (rdf.Term, error) {
	if len(s) < 2 || s[1] != ' ' {
		return nil, fmt.Errorf("%w: %q", ErrMalformedEncoding, s)
	}
	payload := s[2:]
	switch s[0] {
	case prefixIRI:
		return rdf.NewIRI(payload), nil
	case prefixBNode:
		return rdf.NewBlankNode(payload), nil
	case prefixPlain:
		return rdf.NewLiteral(payload), nil
	case prefixLang:
		lang, label, ok := strings.Cut(payload, separator)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrMalformedEncoding, s)
		}
		return rdf.NewLangLiteral(label, lang), nil
	case prefixTyped:
		dt, label, ok := strings.Cut(payload, separator)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrMalformedEncoding, s)
		}
		return rdf.NewTypedLiteral(label, rdf.NewIRI(dt)), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrMalformedEncoding, s)
	}
}

// decodeContext parses a stored context value. The null sentinel decodes to
// nil (default graph).
func decodeContext(s string) (rdf.Term, error) {
	if s == nullContext {
		return nil, nil
	}
	return decodeTerm(s)
}
