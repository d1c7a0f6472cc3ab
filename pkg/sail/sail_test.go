package sail

import (
	"sort"
	"testing"

	"github.com/aleksaelezovic/propsail/internal/badgergraph"
	"github.com/aleksaelezovic/propsail/internal/memgraph"
	"github.com/aleksaelezovic/propsail/pkg/rdf"
)

var (
	exS  = rdf.NewIRI("http://example.org/s")
	exS2 = rdf.NewIRI("http://example.org/s2")
	exP  = rdf.NewIRI("http://example.org/p")
	exP2 = rdf.NewIRI("http://example.org/p2")
	exO  = rdf.NewIRI("http://example.org/o")
	exG1 = rdf.NewIRI("http://example.org/g1")
	exG2 = rdf.NewIRI("http://example.org/g2")
)

func newMemStore(t *testing.T, cfg Config) (*Store, *Connection) {
	t.Helper()
	store, err := Open(memgraph.New(), cfg)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() }) //nolint:errcheck
	conn, err := store.Connect()
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	return store, conn
}

func collect(t *testing.T, it StatementIterator) []*rdf.Statement {
	t.Helper()
	defer it.Close() //nolint:errcheck
	var out []*rdf.Statement
	for it.Next() {
		st, err := it.Statement()
		if err != nil {
			t.Fatalf("statement: %v", err)
		}
		out = append(out, st)
	}
	return out
}

func queryAll(t *testing.T, conn *Connection, s, p, o, c rdf.Term) []*rdf.Statement {
	t.Helper()
	it, err := conn.GetStatements(s, p, o, c, false)
	if err != nil {
		t.Fatalf("get statements: %v", err)
	}
	return collect(t, it)
}

func TestFindOrAddVertexDedup(t *testing.T) {
	store, _ := newMemStore(t, DefaultConfig())
	terms := []rdf.Term{
		rdf.NewIRI("http://example.org/x"),
		rdf.NewBlankNode("b1"),
		rdf.NewLiteral("plain"),
		rdf.NewLangLiteral("hello", "en"),
		rdf.NewTypedLiteral("5", rdf.XSDInteger),
	}
	for _, term := range terms {
		v1, err := store.findOrAddVertex(term)
		if err != nil {
			t.Fatalf("findOrAdd %s: %v", term, err)
		}
		v2, err := store.findOrAddVertex(term)
		if err != nil {
			t.Fatalf("findOrAdd %s again: %v", term, err)
		}
		if v1.ID() != v2.ID() {
			t.Errorf("findOrAdd %s returned distinct vertices %s, %s", term, v1.ID(), v2.ID())
		}
	}
}

func TestLiteralVerticesStayDistinct(t *testing.T) {
	store, _ := newMemStore(t, DefaultConfig())
	distinct := []rdf.Term{
		rdf.NewLiteral("5"),
		rdf.NewTypedLiteral("5", rdf.XSDInteger),
		rdf.NewTypedLiteral("5", rdf.XSDDecimal),
		rdf.NewLangLiteral("5", "en"),
		rdf.NewLangLiteral("5", "de"),
	}
	seen := make(map[string]rdf.Term)
	for _, term := range distinct {
		v, err := store.findOrAddVertex(term)
		if err != nil {
			t.Fatalf("findOrAdd %s: %v", term, err)
		}
		if prev, ok := seen[v.ID()]; ok {
			t.Errorf("%s and %s share vertex %s", prev, term, v.ID())
		}
		seen[v.ID()] = term
	}
}

func TestRoundTripLangLiteral(t *testing.T) {
	_, conn := newMemStore(t, DefaultConfig())
	obj := rdf.NewLangLiteral("hello", "en")
	if err := conn.AddStatement(exS, exP, obj, nil); err != nil {
		t.Fatalf("add: %v", err)
	}

	got := queryAll(t, conn, nil, nil, obj, nil)
	if len(got) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(got))
	}
	want := rdf.NewStatement(exS, exP, obj, nil)
	if !got[0].Equals(want) {
		t.Errorf("got %s, want %s", got[0], want)
	}
}

func TestTypedVsPlainLiteralDistinct(t *testing.T) {
	_, conn := newMemStore(t, DefaultConfig())
	typed := rdf.NewTypedLiteral("5", rdf.XSDInteger)
	plain := rdf.NewLiteral("5")
	if err := conn.AddStatement(exS, exP, typed, nil); err != nil {
		t.Fatalf("add typed: %v", err)
	}
	if err := conn.AddStatement(exS, exP, plain, nil); err != nil {
		t.Fatalf("add plain: %v", err)
	}

	all := queryAll(t, conn, nil, nil, nil, nil)
	if len(all) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(all))
	}

	if _, err := conn.RemoveStatements(exS, exP, typed, nil); err != nil {
		t.Fatalf("remove: %v", err)
	}
	rest := queryAll(t, conn, nil, nil, nil, nil)
	if len(rest) != 1 {
		t.Fatalf("expected 1 statement after removal, got %d", len(rest))
	}
	if !rest[0].Object.Equals(plain) {
		t.Errorf("surviving object = %s, want %s", rest[0].Object, plain)
	}
}

func TestContextDiscrimination(t *testing.T) {
	_, conn := newMemStore(t, DefaultConfig())
	if err := conn.AddStatement(exS, exP, exO, exG1); err != nil {
		t.Fatalf("add g1: %v", err)
	}
	if err := conn.AddStatement(exS, exP, exO, exG2); err != nil {
		t.Fatalf("add g2: %v", err)
	}

	got := queryAll(t, conn, exS, exP, exO, exG1)
	if len(got) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(got))
	}
	if !got[0].Context.Equals(exG1) {
		t.Errorf("context = %s, want %s", got[0].Context, exG1)
	}

	// All contexts when unbound.
	if got := queryAll(t, conn, exS, exP, exO, nil); len(got) != 2 {
		t.Errorf("unbound context: expected 2 statements, got %d", len(got))
	}
	// Default graph only: neither statement lives there.
	if got := queryAll(t, conn, exS, exP, exO, rdf.NewDefaultGraph()); len(got) != 0 {
		t.Errorf("default graph: expected 0 statements, got %d", len(got))
	}
}

func TestUniqueStatementsPolicy(t *testing.T) {
	cfg := DefaultConfig()
	_, conn := newMemStore(t, cfg)
	for i := 0; i < 2; i++ {
		if err := conn.AddStatement(exS, exP, exO, nil); err != nil {
			t.Fatalf("add: %v", err)
		}
	}
	if got := queryAll(t, conn, nil, nil, nil, nil); len(got) != 1 {
		t.Errorf("unique on: expected 1 statement, got %d", len(got))
	}

	cfg.UniqueStatements = false
	_, conn2 := newMemStore(t, cfg)
	for i := 0; i < 2; i++ {
		if err := conn2.AddStatement(exS, exP, exO, nil); err != nil {
			t.Fatalf("add: %v", err)
		}
	}
	if got := queryAll(t, conn2, nil, nil, nil, nil); len(got) != 2 {
		t.Errorf("unique off: expected 2 statements, got %d", len(got))
	}
}

// fixture statements exercising shared subjects, predicates, objects, and
// contexts so every bind-pattern has hits and misses.
func fixture() []*rdf.Statement {
	return []*rdf.Statement{
		rdf.NewStatement(exS, exP, exO, nil),
		rdf.NewStatement(exS, exP, exO, exG1),
		rdf.NewStatement(exS, exP2, exO, exG1),
		rdf.NewStatement(exS2, exP, exO, exG2),
		rdf.NewStatement(exS2, exP2, rdf.NewLiteral("five"), nil),
		rdf.NewStatement(exS2, exP2, rdf.NewLangLiteral("five", "en"), exG2),
		rdf.NewStatement(exS, exP, exS2, exG1),
	}
}

func matches(st *rdf.Statement, s, p, o, c rdf.Term) bool {
	if s != nil && !st.Subject.Equals(s) {
		return false
	}
	if p != nil && !st.Predicate.Equals(p) {
		return false
	}
	if o != nil && !st.Object.Equals(o) {
		return false
	}
	if c != nil {
		if _, def := c.(*rdf.DefaultGraph); def {
			return st.Context == nil
		}
		return st.Context != nil && st.Context.Equals(c)
	}
	return true
}

func statementSet(sts []*rdf.Statement) []string {
	out := make([]string, len(sts))
	for i, st := range sts {
		out[i] = st.String()
	}
	sort.Strings(out)
	return out
}

func equalSets(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestAllBindPatternsAllConfigs(t *testing.T) {
	configs := []string{"", "pc", "pc,spoc", "s,o,so,spo", "sp,sc,po,oc,spc,soc,poc,spoc"}
	for _, patterns := range configs {
		cfg := DefaultConfig()
		cfg.IndexedPatterns = patterns
		_, conn := newMemStore(t, cfg)
		for _, st := range fixture() {
			if err := conn.AddStatement(st.Subject, st.Predicate, st.Object, st.Context); err != nil {
				t.Fatalf("config %q: add %s: %v", patterns, st, err)
			}
		}

		// One bound candidate per position; nil leaves it unbound.
		subjects := []rdf.Term{nil, exS}
		predicates := []rdf.Term{nil, exP}
		objects := []rdf.Term{nil, exO}
		contexts := []rdf.Term{nil, exG1, rdf.NewDefaultGraph()}

		for _, s := range subjects {
			for _, p := range predicates {
				for _, o := range objects {
					for _, c := range contexts {
						got := statementSet(queryAll(t, conn, s, p, o, c))
						var want []*rdf.Statement
						for _, st := range fixture() {
							if matches(st, s, p, o, c) {
								want = append(want, st)
							}
						}
						if !equalSets(got, statementSet(want)) {
							t.Errorf("config %q: query (%v %v %v %v): got %v, want %v",
								patterns, s, p, o, c, got, statementSet(want))
						}
					}
				}
			}
		}
	}
}

func TestMatcherFallbackEquivalence(t *testing.T) {
	// A spoc query under "p,c" has no direct index and resolves through the
	// fallback chain; results must equal the directly-indexed configuration.
	run := func(patterns string) []string {
		cfg := DefaultConfig()
		cfg.IndexedPatterns = patterns
		_, conn := newMemStore(t, cfg)
		for _, st := range fixture() {
			if err := conn.AddStatement(st.Subject, st.Predicate, st.Object, st.Context); err != nil {
				t.Fatalf("add: %v", err)
			}
		}
		return statementSet(queryAll(t, conn, exS, exP, exO, exG1))
	}

	plain := run("p,c")
	indexed := run("p,c,spoc")
	if !equalSets(plain, indexed) {
		t.Errorf("fallback result %v differs from indexed result %v", plain, indexed)
	}
	if len(plain) != 1 {
		t.Errorf("expected exactly 1 statement, got %d", len(plain))
	}
}

func TestRemoveStatementsWildcard(t *testing.T) {
	_, conn := newMemStore(t, DefaultConfig())
	for _, st := range fixture() {
		if err := conn.AddStatement(st.Subject, st.Predicate, st.Object, st.Context); err != nil {
			t.Fatalf("add: %v", err)
		}
	}

	n, err := conn.RemoveStatements(nil, exP, nil, nil)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if n != 4 {
		t.Errorf("removed %d statements, want 4", n)
	}
	for _, st := range queryAll(t, conn, nil, nil, nil, nil) {
		if st.Predicate.Equals(exP) {
			t.Errorf("statement %s survived predicate removal", st)
		}
	}
}

func TestQueryUnknownBoundResource(t *testing.T) {
	_, conn := newMemStore(t, DefaultConfig())
	if err := conn.AddStatement(exS, exP, exO, nil); err != nil {
		t.Fatalf("add: %v", err)
	}
	if got := queryAll(t, conn, rdf.NewIRI("http://example.org/absent"), nil, nil, nil); len(got) != 0 {
		t.Errorf("expected no statements, got %d", len(got))
	}
	if got := queryAll(t, conn, nil, nil, rdf.NewLiteral("absent"), nil); len(got) != 0 {
		t.Errorf("expected no statements, got %d", len(got))
	}
}

type recordingListener struct {
	added   []*rdf.Statement
	removed []*rdf.Statement
}

func (l *recordingListener) StatementAdded(st *rdf.Statement)   { l.added = append(l.added, st) }
func (l *recordingListener) StatementRemoved(st *rdf.Statement) { l.removed = append(l.removed, st) }

func TestListeners(t *testing.T) {
	_, conn := newMemStore(t, DefaultConfig())
	l := &recordingListener{}
	conn.AddListener(l)

	if err := conn.AddStatement(exS, exP, exO, exG1); err != nil {
		t.Fatalf("add: %v", err)
	}
	if len(l.added) != 1 || !l.added[0].Equals(rdf.NewStatement(exS, exP, exO, exG1)) {
		t.Fatalf("added notifications: %v", l.added)
	}

	// Re-adding under unique statements removes then re-adds internally;
	// only the add is observable.
	if err := conn.AddStatement(exS, exP, exO, exG1); err != nil {
		t.Fatalf("re-add: %v", err)
	}
	if len(l.added) != 2 || len(l.removed) != 0 {
		t.Fatalf("after re-add: added %d removed %d", len(l.added), len(l.removed))
	}

	if _, err := conn.RemoveStatements(exS, nil, nil, nil); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(l.removed) != 1 || !l.removed[0].Equals(rdf.NewStatement(exS, exP, exO, exG1)) {
		t.Fatalf("removed notifications: %v", l.removed)
	}
}

func TestVolatileStatements(t *testing.T) {
	cfg := DefaultConfig()
	cfg.VolatileStatements = true
	_, conn := newMemStore(t, cfg)
	if err := conn.AddStatement(exS, exP, exO, nil); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := conn.AddStatement(exS2, exP2, exO, nil); err != nil {
		t.Fatalf("add: %v", err)
	}

	it, err := conn.GetStatements(nil, nil, nil, nil, false)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer it.Close() //nolint:errcheck

	var ptrs []*rdf.Statement
	var copies []rdf.Statement
	for it.Next() {
		st, err := it.Statement()
		if err != nil {
			t.Fatalf("statement: %v", err)
		}
		ptrs = append(ptrs, st)
		copies = append(copies, *st)
	}
	if len(ptrs) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(ptrs))
	}
	if ptrs[0] != ptrs[1] {
		t.Errorf("volatile iterator should reuse one statement buffer")
	}
	if copies[0].Subject.Equals(copies[1].Subject) {
		t.Errorf("copied statements should differ: %v vs %v", copies[0], copies[1])
	}
}

func TestIteratorEarlyClose(t *testing.T) {
	_, conn := newMemStore(t, DefaultConfig())
	for _, st := range fixture() {
		if err := conn.AddStatement(st.Subject, st.Predicate, st.Object, st.Context); err != nil {
			t.Fatalf("add: %v", err)
		}
	}
	it, err := conn.GetStatements(nil, nil, nil, nil, false)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !it.Next() {
		t.Fatal("expected at least one statement")
	}
	if err := it.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if it.Next() {
		t.Error("Next after Close should report false")
	}
}

func TestClosedConnection(t *testing.T) {
	_, conn := newMemStore(t, DefaultConfig())
	if err := conn.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := conn.AddStatement(exS, exP, exO, nil); err != ErrClosed {
		t.Errorf("AddStatement on closed connection: %v, want ErrClosed", err)
	}
	if _, err := conn.GetStatements(nil, nil, nil, nil, false); err != ErrClosed {
		t.Errorf("GetStatements on closed connection: %v, want ErrClosed", err)
	}
}

func TestRollbackWithBadger(t *testing.T) {
	g, err := badgergraph.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open badger: %v", err)
	}
	store, err := Open(g, DefaultConfig())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close() //nolint:errcheck

	conn, err := store.Connect()
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer conn.Close() //nolint:errcheck

	if err := conn.AddStatement(exS, exP, exO, nil); err != nil {
		t.Fatalf("add: %v", err)
	}
	if got := queryAll(t, conn, nil, nil, nil, nil); len(got) != 1 {
		t.Fatalf("pre-rollback: expected 1 statement, got %d", len(got))
	}
	if err := conn.Rollback(); err != nil {
		t.Fatalf("rollback: %v", err)
	}
	if got := queryAll(t, conn, nil, nil, nil, nil); len(got) != 0 {
		t.Errorf("post-rollback: expected 0 statements, got %d", len(got))
	}

	// Committed statements survive.
	if err := conn.AddStatement(exS2, exP2, exO, exG2); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := conn.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if got := queryAll(t, conn, exS2, nil, nil, nil); len(got) != 1 {
		t.Errorf("post-commit: expected 1 statement, got %d", len(got))
	}
}

func TestBadgerPersistenceAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	g, err := badgergraph.Open(dir)
	if err != nil {
		t.Fatalf("open badger: %v", err)
	}
	store, err := Open(g, DefaultConfig())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	conn, err := store.Connect()
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := conn.AddStatement(exS, exP, exO, exG1); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := conn.SetNamespace("ex", "http://example.org/"); err != nil {
		t.Fatalf("set namespace: %v", err)
	}
	if err := conn.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}

	g, err = badgergraph.Open(dir)
	if err != nil {
		t.Fatalf("reopen badger: %v", err)
	}
	store, err = Open(g, DefaultConfig())
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer store.Close() //nolint:errcheck
	conn, err = store.Connect()
	if err != nil {
		t.Fatalf("reconnect: %v", err)
	}
	got := queryAll(t, conn, exS, exP, exO, exG1)
	if len(got) != 1 {
		t.Fatalf("after reopen: expected 1 statement, got %d", len(got))
	}
	ns, err := conn.GetNamespace("ex")
	if err != nil || ns != "http://example.org/" {
		t.Errorf("namespace after reopen = %q, %v", ns, err)
	}
}
