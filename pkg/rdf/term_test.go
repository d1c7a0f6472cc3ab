package rdf

import (
	"testing"
)

func TestIRI_String(t *testing.T) {
	iri := NewIRI("http://example.org/resource")
	expected := "<http://example.org/resource>"
	if iri.String() != expected {
		t.Errorf("Expected %s, got %s", expected, iri.String())
	}
}

func TestIRI_Equals(t *testing.T) {
	a := NewIRI("http://example.org/resource")
	b := NewIRI("http://example.org/resource")
	c := NewIRI("http://example.org/different")

	if !a.Equals(b) {
		t.Error("Expected equal IRIs to be equal")
	}
	if a.Equals(c) {
		t.Error("Expected different IRIs to not be equal")
	}
	if a.Equals(NewLiteral("http://example.org/resource")) {
		t.Error("IRI should not equal Literal")
	}
}

func TestBlankNode_String(t *testing.T) {
	node := NewBlankNode("b1")
	if node.String() != "_:b1" {
		t.Errorf("Expected _:b1, got %s", node.String())
	}
}

func TestBlankNode_Equals(t *testing.T) {
	if !NewBlankNode("b1").Equals(NewBlankNode("b1")) {
		t.Error("Expected equal blank nodes to be equal")
	}
	if NewBlankNode("b1").Equals(NewBlankNode("b2")) {
		t.Error("Expected different blank nodes to not be equal")
	}
	if NewBlankNode("b1").Equals(NewIRI("b1")) {
		t.Error("Blank node should not equal IRI")
	}
}

func TestLiteral_String(t *testing.T) {
	cases := []struct {
		lit      *Literal
		expected string
	}{
		{NewLiteral("hello"), `"hello"`},
		{NewLangLiteral("hello", "en"), `"hello"@en`},
		{NewTypedLiteral("5", XSDInteger), `"5"^^<http://www.w3.org/2001/XMLSchema#integer>`},
	}
	for _, c := range cases {
		if got := c.lit.String(); got != c.expected {
			t.Errorf("Expected %s, got %s", c.expected, got)
		}
	}
}

func TestLiteral_Equals(t *testing.T) {
	if !NewLiteral("a").Equals(NewLiteral("a")) {
		t.Error("Expected equal plain literals to be equal")
	}
	if NewLiteral("a").Equals(NewLiteral("b")) {
		t.Error("Expected different labels to not be equal")
	}
	if NewLiteral("a").Equals(NewLangLiteral("a", "en")) {
		t.Error("Plain literal should not equal language-tagged literal")
	}
	if NewLiteral("5").Equals(NewTypedLiteral("5", XSDInteger)) {
		t.Error("Plain literal should not equal typed literal")
	}
	if !NewTypedLiteral("5", XSDInteger).Equals(NewTypedLiteral("5", XSDInteger)) {
		t.Error("Expected equal typed literals to be equal")
	}
	if NewTypedLiteral("5", XSDInteger).Equals(NewTypedLiteral("5", XSDDecimal)) {
		t.Error("Expected different datatypes to not be equal")
	}
	if NewLangLiteral("a", "en").Equals(NewLangLiteral("a", "de")) {
		t.Error("Expected different language tags to not be equal")
	}
}

func TestDefaultGraph_Equals(t *testing.T) {
	if !NewDefaultGraph().Equals(NewDefaultGraph()) {
		t.Error("Expected default graphs to be equal")
	}
	if NewDefaultGraph().Equals(NewIRI("http://example.org/g")) {
		t.Error("Default graph should not equal IRI")
	}
}

func TestStatement_Equals(t *testing.T) {
	s := NewIRI("http://example.org/s")
	p := NewIRI("http://example.org/p")
	o := NewLiteral("o")
	g := NewIRI("http://example.org/g")

	a := NewStatement(s, p, o, nil)
	b := NewStatement(s, p, o, nil)
	c := NewStatement(s, p, o, g)

	if !a.Equals(b) {
		t.Error("Expected equal statements to be equal")
	}
	if a.Equals(c) {
		t.Error("Default-graph statement should not equal named-graph statement")
	}
	if !c.Equals(NewStatement(s, p, o, NewIRI("http://example.org/g"))) {
		t.Error("Expected equal quads to be equal")
	}
	if a.Equals(nil) {
		t.Error("Statement should not equal nil")
	}
}

func TestStatement_String(t *testing.T) {
	s := NewStatement(NewIRI("http://example.org/s"), NewIRI("http://example.org/p"), NewLiteral("o"), nil)
	expected := `<http://example.org/s> <http://example.org/p> "o" .`
	if s.String() != expected {
		t.Errorf("Expected %s, got %s", expected, s.String())
	}
}

func TestStatement_Clone(t *testing.T) {
	orig := NewStatement(NewIRI("http://example.org/s"), NewIRI("http://example.org/p"), NewLiteral("o"), nil)
	clone := orig.Clone()
	if clone == orig {
		t.Error("Clone should return a new statement")
	}
	if !clone.Equals(orig) {
		t.Error("Clone should equal the original")
	}
}
