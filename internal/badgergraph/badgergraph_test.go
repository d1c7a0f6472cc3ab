package badgergraph

import (
	"testing"

	"github.com/aleksaelezovic/propsail/pkg/graph"
)

func newTestGraph(t *testing.T) *Graph {
	t.Helper()
	g, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("failed to open graph: %v", err)
	}
	t.Cleanup(func() { g.Close() }) //nolint:errcheck
	return g
}

func TestVertexEdgeLifecycle(t *testing.T) {
	g := newTestGraph(t)

	a, err := g.AddVertex()
	if err != nil {
		t.Fatalf("add vertex: %v", err)
	}
	b, err := g.AddVertex()
	if err != nil {
		t.Fatalf("add vertex: %v", err)
	}
	e, err := g.AddEdge(a, "knows", b)
	if err != nil {
		t.Fatalf("add edge: %v", err)
	}
	if e.Label() != "knows" {
		t.Errorf("label = %q, want knows", e.Label())
	}

	out, err := e.OutVertex()
	if err != nil {
		t.Fatalf("out vertex: %v", err)
	}
	if out.ID() != a.ID() {
		t.Errorf("out vertex = %s, want %s", out.ID(), a.ID())
	}

	it, err := a.OutEdges()
	if err != nil {
		t.Fatalf("out edges: %v", err)
	}
	defer it.Close() //nolint:errcheck
	if !it.Next() {
		t.Fatal("expected one outgoing edge")
	}
	oe, err := it.Edge()
	if err != nil {
		t.Fatalf("edge: %v", err)
	}
	if oe.ID() != e.ID() {
		t.Errorf("adjacency edge = %s, want %s", oe.ID(), e.ID())
	}
	if it.Next() {
		t.Error("expected exactly one outgoing edge")
	}

	if err := g.RemoveEdge(e); err != nil {
		t.Fatalf("remove edge: %v", err)
	}
	it2, err := b.InEdges()
	if err != nil {
		t.Fatalf("in edges: %v", err)
	}
	defer it2.Close() //nolint:errcheck
	if it2.Next() {
		t.Error("in adjacency should be empty after edge removal")
	}
}

func TestProperties(t *testing.T) {
	g := newTestGraph(t)

	v, err := g.AddVertex()
	if err != nil {
		t.Fatalf("add vertex: %v", err)
	}
	if err := v.SetProperty("kind", "uri"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := v.SetProperty("value", "http://example.org/a"); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, ok := v.Property("kind")
	if !ok || got != "uri" {
		t.Errorf("kind = %q, %v", got, ok)
	}
	keys, err := v.PropertyKeys()
	if err != nil {
		t.Fatalf("keys: %v", err)
	}
	if len(keys) != 2 {
		t.Errorf("keys = %v, want 2 entries", keys)
	}

	if err := v.RemoveProperty("kind"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, ok := v.Property("kind"); ok {
		t.Error("kind survived removal")
	}
}

func TestAutomaticIndex(t *testing.T) {
	g := newTestGraph(t)

	idx, err := g.CreateAutomaticIndex("values", graph.KindVertex, []string{"value"})
	if err != nil {
		t.Fatalf("create index: %v", err)
	}

	v, _ := g.AddVertex()
	if err := v.SetProperty("value", "one"); err != nil {
		t.Fatalf("set: %v", err)
	}

	assertHit := func(key, value string, want bool) {
		t.Helper()
		it, err := idx.Get(key, value)
		if err != nil {
			t.Fatalf("index get: %v", err)
		}
		defer it.Close() //nolint:errcheck
		if got := it.Next(); got != want {
			t.Errorf("index hit for (%s,%s) = %v, want %v", key, value, got, want)
		}
	}

	assertHit("value", "one", true)
	assertHit("value", "two", false)

	// Overwrite moves the entry; the old one must be gone.
	if err := v.SetProperty("value", "two"); err != nil {
		t.Fatalf("set: %v", err)
	}
	assertHit("value", "one", false)
	assertHit("value", "two", true)

	// Vertex removal purges entries.
	if err := g.RemoveVertex(v); err != nil {
		t.Fatalf("remove vertex: %v", err)
	}
	assertHit("value", "two", false)
}

func TestIndexMetadataPersists(t *testing.T) {
	dir := t.TempDir()
	g, err := Open(dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := g.CreateAutomaticIndex("edges", graph.KindEdge, []string{"p", "c"}); err != nil {
		t.Fatalf("create index: %v", err)
	}
	a, _ := g.AddVertex()
	b, _ := g.AddVertex()
	e, _ := g.AddEdge(a, "x", b)
	if err := e.SetProperty("p", "val"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := g.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	g, err = Open(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer g.Close() //nolint:errcheck

	idx, err := g.GetIndex("edges", graph.KindEdge)
	if err != nil {
		t.Fatalf("get index after reopen: %v", err)
	}
	it, err := idx.Get("p", "val")
	if err != nil {
		t.Fatalf("index get: %v", err)
	}
	defer it.Close() //nolint:errcheck
	if !it.Next() {
		t.Error("index entry lost across reopen")
	}
}

func TestManualTransactionRollback(t *testing.T) {
	g := newTestGraph(t)

	if err := g.BeginTx(); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if _, err := g.AddVertex(); err != nil {
		t.Fatalf("add vertex: %v", err)
	}

	// Uncommitted writes are visible to reads on the same graph.
	it, err := g.Vertices()
	if err != nil {
		t.Fatalf("vertices: %v", err)
	}
	visible := it.Next()
	it.Close() //nolint:errcheck
	if !visible {
		t.Fatal("uncommitted vertex should be visible inside the transaction")
	}

	if err := g.RollbackTx(); err != nil {
		t.Fatalf("rollback: %v", err)
	}
	it, err = g.Vertices()
	if err != nil {
		t.Fatalf("vertices: %v", err)
	}
	defer it.Close() //nolint:errcheck
	if it.Next() {
		t.Error("rolled-back vertex is still visible")
	}
}

func TestManualTransactionCommit(t *testing.T) {
	g := newTestGraph(t)

	if err := g.BeginTx(); err != nil {
		t.Fatalf("begin: %v", err)
	}
	v, err := g.AddVertex()
	if err != nil {
		t.Fatalf("add vertex: %v", err)
	}
	if err := v.SetProperty("value", "kept"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := g.CommitTx(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	got, ok := v.Property("value")
	if !ok || got != "kept" {
		t.Errorf("value after commit = %q, %v", got, ok)
	}

	// Begin/commit with no writes is harmless.
	if err := g.BeginTx(); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := g.CommitTx(); err != nil {
		t.Fatalf("empty commit: %v", err)
	}
	if err := g.CommitTx(); err != nil {
		t.Fatalf("commit without transaction: %v", err)
	}
}
