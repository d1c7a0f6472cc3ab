package sail

import (
	"errors"
	"testing"
)

func TestNamespaces(t *testing.T) {
	_, conn := newMemStore(t, DefaultConfig())

	if err := conn.SetNamespace("foaf", "http://xmlns.com/foaf/0.1/"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := conn.SetNamespace("ex", "http://example.org/"); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, err := conn.GetNamespace("foaf")
	if err != nil || got != "http://xmlns.com/foaf/0.1/" {
		t.Errorf("get foaf = %q, %v", got, err)
	}
	if got, err := conn.GetNamespace("missing"); err != nil || got != "" {
		t.Errorf("get missing = %q, %v", got, err)
	}

	// Replacing a mapping.
	if err := conn.SetNamespace("ex", "http://example.com/"); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if got, _ := conn.GetNamespace("ex"); got != "http://example.com/" {
		t.Errorf("replaced ex = %q", got)
	}

	ns, err := conn.Namespaces()
	if err != nil {
		t.Fatalf("namespaces: %v", err)
	}
	if len(ns) != 2 {
		t.Errorf("expected 2 namespaces, got %d: %v", len(ns), ns)
	}
	if _, ok := ns["value"]; ok {
		t.Error("reserved identifier property leaked into the namespace map")
	}

	if err := conn.RemoveNamespace("foaf"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if got, _ := conn.GetNamespace("foaf"); got != "" {
		t.Errorf("foaf after removal = %q", got)
	}
	// Removing an unset prefix is fine.
	if err := conn.RemoveNamespace("nope"); err != nil {
		t.Fatalf("remove unset: %v", err)
	}
}

func TestNamespaceReservedPrefix(t *testing.T) {
	_, conn := newMemStore(t, DefaultConfig())
	if err := conn.SetNamespace("value", "http://example.org/"); !errors.Is(err, ErrReservedPrefix) {
		t.Errorf("set reserved prefix: %v, want ErrReservedPrefix", err)
	}
	if err := conn.RemoveNamespace("value"); !errors.Is(err, ErrReservedPrefix) {
		t.Errorf("remove reserved prefix: %v, want ErrReservedPrefix", err)
	}
}

func TestNamespacesSharedAcrossConnections(t *testing.T) {
	store, conn := newMemStore(t, DefaultConfig())
	if err := conn.SetNamespace("ex", "http://example.org/"); err != nil {
		t.Fatalf("set: %v", err)
	}

	other, err := store.Connect()
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	got, err := other.GetNamespace("ex")
	if err != nil || got != "http://example.org/" {
		t.Errorf("other connection sees %q, %v", got, err)
	}
}
