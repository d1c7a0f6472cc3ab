package badgergraph

import (
	"fmt"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/aleksaelezovic/propsail/pkg/graph"
)

// Vertex is a handle onto a stored vertex.
type Vertex struct {
	g  *Graph
	id string
}

func (v *Vertex) ID() string { return v.id }

func (v *Vertex) Property(key string) (string, bool) {
	return v.g.getProperty(v.id, key)
}

func (v *Vertex) SetProperty(key, value string) error {
	return v.g.setProperty(graph.KindVertex, v.id, key, value)
}

func (v *Vertex) RemoveProperty(key string) error {
	return v.g.removePropertyKey(graph.KindVertex, v.id, key)
}

func (v *Vertex) PropertyKeys() ([]string, error) {
	return v.g.propertyKeys(v.id)
}

func (v *Vertex) OutEdges() (graph.EdgeIterator, error) {
	return v.g.adjacency(tblOut, v.id)
}

func (v *Vertex) InEdges() (graph.EdgeIterator, error) {
	return v.g.adjacency(tblIn, v.id)
}

// Edge is a handle onto a stored edge. The record (label, endpoints) is
// immutable and cached on first read.
type Edge struct {
	g   *Graph
	id  string
	rec *edgeRecord
}

func (e *Edge) ID() string { return e.id }

func (e *Edge) record() (*edgeRecord, error) {
	if e.rec != nil {
		return e.rec, nil
	}
	var rec *edgeRecord
	err := e.g.view(func(txn *badger.Txn) error {
		var err error
		rec, err = readEdgeRecord(txn, e.id)
		return err
	})
	if err != nil {
		return nil, err
	}
	e.rec = rec
	return rec, nil
}

func (e *Edge) Label() string {
	rec, err := e.record()
	if err != nil {
		return ""
	}
	return rec.Label
}

func (e *Edge) Property(key string) (string, bool) {
	return e.g.getProperty(e.id, key)
}

func (e *Edge) SetProperty(key, value string) error {
	return e.g.setProperty(graph.KindEdge, e.id, key, value)
}

func (e *Edge) RemoveProperty(key string) error {
	return e.g.removePropertyKey(graph.KindEdge, e.id, key)
}

func (e *Edge) PropertyKeys() ([]string, error) {
	return e.g.propertyKeys(e.id)
}

func (e *Edge) OutVertex() (graph.Vertex, error) {
	rec, err := e.record()
	if err != nil {
		return nil, err
	}
	return &Vertex{g: e.g, id: rec.Out}, nil
}

func (e *Edge) InVertex() (graph.Vertex, error) {
	rec, err := e.record()
	if err != nil {
		return nil, err
	}
	return &Vertex{g: e.g, id: rec.In}, nil
}

func (g *Graph) getProperty(id, key string) (string, bool) {
	var value string
	found := false
	err := g.view(func(txn *badger.Txn) error {
		k := joinKey(tblProp, id, key)
		item, err := txn.Get(k)
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			value = string(val)
			found = true
			return nil
		})
	})
	if err != nil {
		return "", false
	}
	return value, found
}

// setProperty writes a property and keeps every covering automatic index in
// step: the old entry is removed before the new one is written.
func (g *Graph) setProperty(kind graph.ElementKind, id, key, value string) error {
	err := g.update(func(txn *badger.Txn) error {
		k := joinKey(tblProp, id, key)
		var old string
		had := false
		item, err := txn.Get(k)
		if err == nil {
			if err := item.Value(func(val []byte) error {
				old = string(val)
				had = true
				return nil
			}); err != nil {
				return err
			}
		} else if err != badger.ErrKeyNotFound {
			return err
		}

		if err := txn.Set(k, []byte(value)); err != nil {
			return err
		}
		for name, meta := range g.indexes {
			if meta.Kind != kind || !meta.covers(key) {
				continue
			}
			if had {
				if err := txn.Delete(indexEntryKey(name, hash16(key, old), id)); err != nil {
					return err
				}
			}
			if err := txn.Set(indexEntryKey(name, hash16(key, value), id), nil); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("badgergraph: set property: %w", err)
	}
	return nil
}

func (g *Graph) removePropertyKey(kind graph.ElementKind, id, key string) error {
	err := g.update(func(txn *badger.Txn) error {
		k := joinKey(tblProp, id, key)
		item, err := txn.Get(k)
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		var old string
		if err := item.Value(func(val []byte) error {
			old = string(val)
			return nil
		}); err != nil {
			return err
		}
		for name, meta := range g.indexes {
			if meta.Kind == kind && meta.covers(key) {
				if err := txn.Delete(indexEntryKey(name, hash16(key, old), id)); err != nil {
					return err
				}
			}
		}
		return txn.Delete(k)
	})
	if err != nil {
		return fmt.Errorf("badgergraph: remove property: %w", err)
	}
	return nil
}

func (g *Graph) propertyKeys(id string) ([]string, error) {
	prefix := joinKey(tblProp, id)
	prefix = append(prefix, sep)
	keys, err := g.scanIDs(prefix)
	if err != nil {
		return nil, err
	}
	return keys, nil
}

func (g *Graph) adjacency(tbl byte, vid string) (graph.EdgeIterator, error) {
	prefix := joinKey(tbl, vid)
	prefix = append(prefix, sep)
	ids, err := g.scanIDs(prefix)
	if err != nil {
		return nil, err
	}
	return &edgeIterator{g: g, ids: ids}, nil
}

// Index is a handle onto a named automatic index.
type Index struct {
	g    *Graph
	name string
	meta *indexMeta
}

func (i *Index) Name() string            { return i.name }
func (i *Index) Kind() graph.ElementKind { return i.meta.Kind }

func (i *Index) Get(key, value string) (graph.ElementIterator, error) {
	prefix := make([]byte, 0, 1+len(i.name)+1+16)
	prefix = append(prefix, tblIndexEntry)
	prefix = append(prefix, i.name...)
	prefix = append(prefix, sep)
	prefix = append(prefix, hash16(key, value)...)
	ids, err := i.g.scanIDs(prefix)
	if err != nil {
		return nil, err
	}
	return &elementIterator{g: i.g, kind: i.meta.Kind, ids: ids}, nil
}
