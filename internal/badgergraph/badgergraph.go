// Package badgergraph implements the indexable property graph contract on
// BadgerDB, including manual transactions. Elements, properties, adjacency
// and index entries are laid out as prefixed keys in one keyspace.
package badgergraph

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sync"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/zeebo/xxh3"

	"github.com/aleksaelezovic/propsail/pkg/graph"
)

// Key layout, one table-prefix byte per record family:
//
//	v <id>                      vertex existence marker
//	e <id>                      edge record (JSON: label, out, in)
//	p <id> 0x00 <key>           element property value
//	o <vid> 0x00 <eid>          outgoing adjacency
//	i <vid> 0x00 <eid>          incoming adjacency
//	m <name>                    index metadata (JSON: kind, keys)
//	x <name> 0x00 <h16> <id>    index entry; h16 = xxh3-128 of key 0x00 value
//
// The letters name the tbl* constants below, in order; the stored prefix
// bytes are their values 0x00 through 0x06. Ids are UUID strings and property keys contain no NUL, so 0x00 is a safe
// separator. Index lookups scan the <name> 0x00 <h16> prefix; a 128-bit hash
// collision would only ever over-return, and every consumer of the index
// post-filters by the actual property value.
const (
	tblVertex byte = iota
	tblEdge
	tblProp
	tblOut
	tblIn
	tblIndexMeta
	tblIndexEntry
)

const sep byte = 0x00

type edgeRecord struct {
	Label string `json:"l"`
	Out   string `json:"o"`
	In    string `json:"i"`
}

type indexMeta struct {
	Kind graph.ElementKind `json:"kind"`
	Keys []string          `json:"keys,omitempty"`
}

func (m *indexMeta) covers(key string) bool {
	if len(m.Keys) == 0 {
		return true
	}
	for _, k := range m.Keys {
		if k == key {
			return true
		}
	}
	return false
}

// Graph is a BadgerDB-backed property graph. It implements
// graph.TransactionalGraph: BeginTx opens a manual transaction that all
// operations join until CommitTx or RollbackTx; outside a manual transaction
// every operation auto-commits.
type Graph struct {
	db *badger.DB

	mu      sync.Mutex
	txn     *badger.Txn
	indexes map[string]*indexMeta
}

// Open opens or creates a graph at path.
func Open(path string) (*Graph, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badgergraph: open: %w", err)
	}
	g := &Graph{db: db, indexes: make(map[string]*indexMeta)}
	if err := g.loadIndexMeta(); err != nil {
		db.Close()
		return nil, err
	}
	return g, nil
}

func (g *Graph) loadIndexMeta() error {
	return g.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: []byte{tblIndexMeta}})
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			name := string(item.Key()[1:])
			var meta indexMeta
			err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &meta)
			})
			if err != nil {
				return fmt.Errorf("badgergraph: index metadata %q: %w", name, err)
			}
			g.indexes[name] = &meta
		}
		return nil
	})
}

// BeginTx starts a manual transaction if none is active.
func (g *Graph) BeginTx() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.txn == nil {
		g.txn = g.db.NewTransaction(true)
	}
	return nil
}

// CommitTx commits the active manual transaction.
func (g *Graph) CommitTx() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.txn == nil {
		return nil
	}
	err := g.txn.Commit()
	g.txn = nil
	if err != nil {
		return fmt.Errorf("badgergraph: commit: %w", err)
	}
	return nil
}

// RollbackTx discards the active manual transaction.
func (g *Graph) RollbackTx() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.txn == nil {
		return nil
	}
	g.txn.Discard()
	g.txn = nil
	return nil
}

// update runs fn in the active manual transaction, or one-shot otherwise.
func (g *Graph) update(fn func(txn *badger.Txn) error) error {
	g.mu.Lock()
	txn := g.txn
	g.mu.Unlock()
	if txn != nil {
		return fn(txn)
	}
	return g.db.Update(fn)
}

// view runs fn read-only, joining the active manual transaction so
// uncommitted writes stay visible to reads on the same graph.
func (g *Graph) view(fn func(txn *badger.Txn) error) error {
	g.mu.Lock()
	txn := g.txn
	g.mu.Unlock()
	if txn != nil {
		return fn(txn)
	}
	return g.db.View(fn)
}

func (g *Graph) Close() error {
	g.mu.Lock()
	if g.txn != nil {
		g.txn.Discard()
		g.txn = nil
	}
	g.mu.Unlock()
	return g.db.Close()
}

func elemKey(tbl byte, id string) []byte {
	k := make([]byte, 0, 1+len(id))
	k = append(k, tbl)
	k = append(k, id...)
	return k
}

func joinKey(tbl byte, parts ...string) []byte {
	n := 1
	for _, p := range parts {
		n += len(p) + 1
	}
	k := make([]byte, 0, n)
	k = append(k, tbl)
	for i, p := range parts {
		if i > 0 {
			k = append(k, sep)
		}
		k = append(k, p...)
	}
	return k
}

// hash16 computes the fixed-size index entry component for (key, value).
func hash16(key, value string) []byte {
	h := xxh3.Hash128([]byte(key + string(sep) + value))
	out := make([]byte, 16)
	binary.BigEndian.PutUint64(out[0:8], h.Hi)
	binary.BigEndian.PutUint64(out[8:16], h.Lo)
	return out
}

func indexEntryKey(name string, h []byte, id string) []byte {
	k := make([]byte, 0, 1+len(name)+1+len(h)+len(id))
	k = append(k, tblIndexEntry)
	k = append(k, name...)
	k = append(k, sep)
	k = append(k, h...)
	k = append(k, id...)
	return k
}

func (g *Graph) AddVertex() (graph.Vertex, error) {
	id := uuid.NewString()
	err := g.update(func(txn *badger.Txn) error {
		return txn.Set(elemKey(tblVertex, id), nil)
	})
	if err != nil {
		return nil, fmt.Errorf("badgergraph: add vertex: %w", err)
	}
	return &Vertex{g: g, id: id}, nil
}

func (g *Graph) AddEdge(out graph.Vertex, label string, in graph.Vertex) (graph.Edge, error) {
	id := uuid.NewString()
	rec := edgeRecord{Label: label, Out: out.ID(), In: in.ID()}
	val, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("badgergraph: add edge: %w", err)
	}
	err = g.update(func(txn *badger.Txn) error {
		if _, err := txn.Get(elemKey(tblVertex, rec.Out)); err != nil {
			return wrapNotFound(err, "out vertex")
		}
		if _, err := txn.Get(elemKey(tblVertex, rec.In)); err != nil {
			return wrapNotFound(err, "in vertex")
		}
		if err := txn.Set(elemKey(tblEdge, id), val); err != nil {
			return err
		}
		if err := txn.Set(joinKey(tblOut, rec.Out, id), nil); err != nil {
			return err
		}
		return txn.Set(joinKey(tblIn, rec.In, id), nil)
	})
	if err != nil {
		return nil, fmt.Errorf("badgergraph: add edge: %w", err)
	}
	return &Edge{g: g, id: id, rec: &rec}, nil
}

func wrapNotFound(err error, what string) error {
	if err == badger.ErrKeyNotFound {
		return fmt.Errorf("%s: %w", what, graph.ErrNotFound)
	}
	return err
}

func (g *Graph) RemoveVertex(v graph.Vertex) error {
	id := v.ID()
	// Incident edges first; their removal rewrites adjacency under this
	// vertex, so collect before deleting.
	incident := make(map[string]struct{})
	err := g.view(func(txn *badger.Txn) error {
		for _, tbl := range []byte{tblOut, tblIn} {
			prefix := joinKey(tbl, id)
			prefix = append(prefix, sep)
			it := txn.NewIterator(badger.IteratorOptions{Prefix: prefix})
			for it.Rewind(); it.Valid(); it.Next() {
				incident[string(it.Item().Key()[len(prefix):])] = struct{}{}
			}
			it.Close()
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("badgergraph: remove vertex: %w", err)
	}
	for eid := range incident {
		if err := g.removeEdgeByID(eid); err != nil {
			return err
		}
	}
	err = g.update(func(txn *badger.Txn) error {
		if err := g.purgePropsTx(txn, graph.KindVertex, id); err != nil {
			return err
		}
		return txn.Delete(elemKey(tblVertex, id))
	})
	if err != nil {
		return fmt.Errorf("badgergraph: remove vertex: %w", err)
	}
	return nil
}

func (g *Graph) RemoveEdge(e graph.Edge) error {
	return g.removeEdgeByID(e.ID())
}

func (g *Graph) removeEdgeByID(id string) error {
	err := g.update(func(txn *badger.Txn) error {
		rec, err := readEdgeRecord(txn, id)
		if err != nil {
			return err
		}
		if err := g.purgePropsTx(txn, graph.KindEdge, id); err != nil {
			return err
		}
		if err := txn.Delete(joinKey(tblOut, rec.Out, id)); err != nil {
			return err
		}
		if err := txn.Delete(joinKey(tblIn, rec.In, id)); err != nil {
			return err
		}
		return txn.Delete(elemKey(tblEdge, id))
	})
	if err != nil {
		return fmt.Errorf("badgergraph: remove edge: %w", err)
	}
	return nil
}

// purgePropsTx deletes an element's properties and their index entries.
func (g *Graph) purgePropsTx(txn *badger.Txn, kind graph.ElementKind, id string) error {
	prefix := joinKey(tblProp, id)
	prefix = append(prefix, sep)
	it := txn.NewIterator(badger.IteratorOptions{Prefix: prefix})
	type kv struct{ key, value string }
	var props []kv
	for it.Rewind(); it.Valid(); it.Next() {
		item := it.Item()
		k := string(item.Key()[len(prefix):])
		var v string
		err := item.Value(func(val []byte) error {
			v = string(val)
			return nil
		})
		if err != nil {
			it.Close()
			return err
		}
		props = append(props, kv{k, v})
	}
	it.Close()
	for _, p := range props {
		for name, meta := range g.indexes {
			if meta.Kind == kind && meta.covers(p.key) {
				if err := txn.Delete(indexEntryKey(name, hash16(p.key, p.value), id)); err != nil {
					return err
				}
			}
		}
		k := append(append([]byte{}, prefix...), p.key...)
		if err := txn.Delete(k); err != nil {
			return err
		}
	}
	return nil
}

func readEdgeRecord(txn *badger.Txn, id string) (*edgeRecord, error) {
	item, err := txn.Get(elemKey(tblEdge, id))
	if err != nil {
		return nil, wrapNotFound(err, "edge")
	}
	var rec edgeRecord
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &rec)
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// scanIDs collects the id suffix of every key under prefix.
func (g *Graph) scanIDs(prefix []byte) ([]string, error) {
	var ids []string
	err := g.view(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: prefix})
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			key := it.Item().Key()
			if !bytes.HasPrefix(key, prefix) {
				break
			}
			ids = append(ids, string(key[len(prefix):]))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("badgergraph: scan: %w", err)
	}
	return ids, nil
}

func (g *Graph) Vertices() (graph.VertexIterator, error) {
	ids, err := g.scanIDs([]byte{tblVertex})
	if err != nil {
		return nil, err
	}
	return &vertexIterator{g: g, ids: ids}, nil
}

func (g *Graph) Edges() (graph.EdgeIterator, error) {
	ids, err := g.scanIDs([]byte{tblEdge})
	if err != nil {
		return nil, err
	}
	return &edgeIterator{g: g, ids: ids}, nil
}

func (g *Graph) GetIndex(name string, kind graph.ElementKind) (graph.Index, error) {
	g.mu.Lock()
	meta, ok := g.indexes[name]
	g.mu.Unlock()
	if !ok || meta.Kind != kind {
		return nil, graph.ErrNotFound
	}
	return &Index{g: g, name: name, meta: meta}, nil
}

func (g *Graph) CreateAutomaticIndex(name string, kind graph.ElementKind, keys []string) (graph.Index, error) {
	g.mu.Lock()
	if _, ok := g.indexes[name]; ok {
		g.mu.Unlock()
		return nil, graph.ErrIndexExists
	}
	meta := &indexMeta{Kind: kind, Keys: keys}
	g.indexes[name] = meta
	g.mu.Unlock()

	val, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("badgergraph: create index: %w", err)
	}
	err = g.update(func(txn *badger.Txn) error {
		return txn.Set(joinKey(tblIndexMeta, name), val)
	})
	if err != nil {
		return nil, fmt.Errorf("badgergraph: create index: %w", err)
	}
	if err := g.backfillIndex(name, meta); err != nil {
		return nil, err
	}
	return &Index{g: g, name: name, meta: meta}, nil
}

// backfillIndex indexes elements that existed before the index was created.
func (g *Graph) backfillIndex(name string, meta *indexMeta) error {
	tbl := tblVertex
	if meta.Kind == graph.KindEdge {
		tbl = tblEdge
	}
	ids, err := g.scanIDs([]byte{tbl})
	if err != nil {
		return err
	}
	return g.update(func(txn *badger.Txn) error {
		for _, id := range ids {
			prefix := joinKey(tblProp, id)
			prefix = append(prefix, sep)
			it := txn.NewIterator(badger.IteratorOptions{Prefix: prefix})
			type kv struct{ key, value string }
			var props []kv
			for it.Rewind(); it.Valid(); it.Next() {
				item := it.Item()
				k := string(item.Key()[len(prefix):])
				var v string
				if err := item.Value(func(val []byte) error {
					v = string(val)
					return nil
				}); err != nil {
					it.Close()
					return err
				}
				props = append(props, kv{k, v})
			}
			it.Close()
			for _, p := range props {
				if meta.covers(p.key) {
					if err := txn.Set(indexEntryKey(name, hash16(p.key, p.value), id), nil); err != nil {
						return err
					}
				}
			}
		}
		return nil
	})
}

func (g *Graph) Indices() ([]graph.Index, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]graph.Index, 0, len(g.indexes))
	for name, meta := range g.indexes {
		out = append(out, &Index{g: g, name: name, meta: meta})
	}
	return out, nil
}
