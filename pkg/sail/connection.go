package sail

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/aleksaelezovic/propsail/pkg/graph"
	"github.com/aleksaelezovic/propsail/pkg/rdf"
)

// StatementListener receives decoded statements as they are added to or
// removed from the store through one connection.
type StatementListener interface {
	StatementAdded(st *rdf.Statement)
	StatementRemoved(st *rdf.Statement)
}

// Connection is a per-session façade over the store. Connections are cheap;
// one per unit of work. A connection must not be shared between goroutines.
type Connection struct {
	store *Store

	mu        sync.Mutex
	listeners []StatementListener
	closed    bool
}

// AddListener registers a statement listener on this connection.
func (c *Connection) AddListener(l StatementListener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, l)
}

func (c *Connection) notifyAdded(st *rdf.Statement) {
	c.mu.Lock()
	ls := c.listeners
	c.mu.Unlock()
	for _, l := range ls {
		l.StatementAdded(st)
	}
}

func (c *Connection) notifyRemoved(st *rdf.Statement) {
	c.mu.Lock()
	ls := c.listeners
	c.mu.Unlock()
	for _, l := range ls {
		l.StatementRemoved(st)
	}
}

func (c *Connection) ensureOpen() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	return nil
}

// normalizeContext maps the DefaultGraph marker to nil so stored statements
// use a single representation of the default graph.
func normalizeContext(ctx rdf.Term) rdf.Term {
	if _, ok := ctx.(*rdf.DefaultGraph); ok {
		return nil
	}
	return ctx
}

// AddStatement stores one statement. A nil context targets the default graph.
// With unique statements enabled, an equal quad is first removed, so a re-add
// never grows the edge set; the dedup removal does not notify listeners.
func (c *Connection) AddStatement(subj, pred, obj, ctx rdf.Term) error {
	if err := c.ensureOpen(); err != nil {
		return err
	}
	ctx = normalizeContext(ctx)
	q, err := encodeQuad(subj, pred, obj, ctx)
	if err != nil {
		return err
	}
	s := c.store
	if err := s.begin(); err != nil {
		return err
	}

	if s.unique {
		if _, err := c.removeMatching(subj, pred, obj, boundContext(ctx), false); err != nil {
			return err
		}
	}

	sv, err := s.findOrAddVertex(subj)
	if err != nil {
		return err
	}
	if _, err := s.findOrAddVertex(pred); err != nil {
		return err
	}
	ov, err := s.findOrAddVertex(obj)
	if err != nil {
		return err
	}
	if ctx != nil {
		if _, err := s.findOrAddVertex(ctx); err != nil {
			return err
		}
	}

	if _, err := s.writeStatementEdge(sv, ov, q); err != nil {
		return err
	}

	c.notifyAdded(rdf.NewStatement(subj, pred, obj, ctx))
	return nil
}

// boundContext converts a stored-form context (nil = default graph) back into
// the query-form bound term for the context position.
func boundContext(ctx rdf.Term) rdf.Term {
	if ctx == nil {
		return rdf.NewDefaultGraph()
	}
	return ctx
}

// RemoveStatements deletes every statement matching the given pattern. Nil
// positions are wildcards; a DefaultGraph context matches only default-graph
// statements. Returns the number of statements removed.
func (c *Connection) RemoveStatements(subj, pred, obj, ctx rdf.Term) (int, error) {
	if err := c.ensureOpen(); err != nil {
		return 0, err
	}
	if err := c.store.begin(); err != nil {
		return 0, err
	}
	return c.removeMatching(subj, pred, obj, ctx, true)
}

func (c *Connection) removeMatching(subj, pred, obj, ctx rdf.Term, notify bool) (int, error) {
	s := c.store
	it, empty, err := c.matchEdges(subj, pred, obj, ctx)
	if err != nil {
		return 0, err
	}
	if empty {
		return 0, nil
	}

	// Materialize before deleting: removing edges while the cursor is live
	// invites concurrent-modification failures on non-transactional graphs.
	type victim struct {
		edge graph.Edge
		st   *rdf.Statement
	}
	var victims []victim
	for it.Next() {
		e, err := it.Edge()
		if err != nil {
			s.closeQuietly(it)
			return 0, fmt.Errorf("sail: remove scan: %w", err)
		}
		v := victim{edge: e}
		if notify {
			if v.st, err = decodeEdge(e); err != nil {
				s.closeQuietly(it)
				return 0, err
			}
		}
		victims = append(victims, v)
	}
	s.closeQuietly(it)

	for _, v := range victims {
		if err := s.g.RemoveEdge(v.edge); err != nil {
			return 0, fmt.Errorf("sail: remove edge: %w", err)
		}
		if notify {
			c.notifyRemoved(v.st)
		}
	}
	return len(victims), nil
}

// GetStatements returns a lazy, closeable sequence of the statements matching
// the pattern. Nil positions are wildcards; a DefaultGraph context binds to
// the default graph only. includeInferred is accepted for interface parity
// and ignored: the store performs no inference.
func (c *Connection) GetStatements(subj, pred, obj, ctx rdf.Term, includeInferred bool) (StatementIterator, error) {
	_ = includeInferred
	if err := c.ensureOpen(); err != nil {
		return nil, err
	}
	it, empty, err := c.matchEdges(subj, pred, obj, ctx)
	if err != nil {
		return nil, err
	}
	if empty {
		return &statementIterator{it: emptyEdgeIterator{}, store: c.store}, nil
	}
	return &statementIterator{it: it, store: c.store, volatile: c.store.volatile}, nil
}

// matchEdges dispatches the bind-pattern to its matcher and wraps the result
// in the full 4-tuple filter. The empty return short-circuits patterns whose
// bound subject or object has no vertex.
func (c *Connection) matchEdges(subj, pred, obj, ctx rdf.Term) (graph.EdgeIterator, bool, error) {
	s := c.store
	q := &edgeQuery{}
	var err error

	if subj != nil {
		if q.s, err = encodeTerm(subj); err != nil {
			return nil, false, err
		}
		if q.sv, err = s.findVertex(subj); err != nil {
			return nil, false, err
		}
		if q.sv == nil {
			return nil, true, nil
		}
	}
	if pred != nil {
		if q.p, err = encodeTerm(pred); err != nil {
			return nil, false, err
		}
	}
	if obj != nil {
		if q.o, err = encodeTerm(obj); err != nil {
			return nil, false, err
		}
		if q.ov, err = s.findVertex(obj); err != nil {
			return nil, false, err
		}
		if q.ov == nil {
			return nil, true, nil
		}
	}
	if ctx != nil {
		if q.c, err = encodeContext(ctx); err != nil {
			return nil, false, err
		}
	}

	m := s.matchers[q.mask()]
	it, err := m.match(q)
	if err != nil {
		return nil, false, err
	}

	// Matchers may over-match (shared fallback slots, graph pivots): apply
	// the full 4-tuple predicate to every yielded edge.
	return &filteredEdgeIterator{it: it, keep: func(e graph.Edge) (bool, error) {
		if q.s != "" {
			out, err := e.OutVertex()
			if err != nil {
				return false, err
			}
			if out.ID() != q.sv.ID() {
				return false, nil
			}
		}
		if q.p != "" {
			if p, ok := e.Property(propPredicate); !ok || p != q.p {
				return false, nil
			}
		}
		if q.o != "" {
			in, err := e.InVertex()
			if err != nil {
				return false, err
			}
			if in.ID() != q.ov.ID() {
				return false, nil
			}
		}
		if q.c != "" {
			if cv, ok := e.Property(propContext); !ok || cv != q.c {
				return false, nil
			}
		}
		return true, nil
	}}, false, nil
}

// Commit commits the current transaction group on a transactional backing
// graph; otherwise a no-op.
func (c *Connection) Commit() error {
	if err := c.ensureOpen(); err != nil {
		return err
	}
	if c.store.tx == nil {
		return nil
	}
	if err := c.store.tx.CommitTx(); err != nil {
		return fmt.Errorf("sail: commit: %w", err)
	}
	return nil
}

// Rollback discards the current transaction group on a transactional backing
// graph; otherwise a no-op.
func (c *Connection) Rollback() error {
	if err := c.ensureOpen(); err != nil {
		return err
	}
	if c.store.tx == nil {
		return nil
	}
	if err := c.store.tx.RollbackTx(); err != nil {
		return fmt.Errorf("sail: rollback: %w", err)
	}
	return nil
}

// Close marks the connection unusable. Open iterators remain valid until
// individually closed.
func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.listeners = nil
	return nil
}

// StatementIterator is a lazy, closeable sequence of statements.
type StatementIterator interface {
	Next() bool
	Statement() (*rdf.Statement, error)
	Close() error
}

type statementIterator struct {
	it       graph.EdgeIterator
	store    *Store
	volatile bool

	buf    rdf.Statement
	closed bool
}

func (si *statementIterator) Next() bool {
	if si.closed {
		return false
	}
	return si.it.Next()
}

// Statement decodes the current edge. In volatile mode the returned pointer
// is a shared buffer reused on the next advance; copy fields before calling
// Next again.
func (si *statementIterator) Statement() (*rdf.Statement, error) {
	e, err := si.it.Edge()
	if err != nil {
		return nil, fmt.Errorf("sail: statement read: %w", err)
	}
	if si.volatile {
		if err := decodeEdgeInto(e, &si.buf); err != nil {
			return nil, err
		}
		return &si.buf, nil
	}
	return decodeEdge(e)
}

// Close releases the underlying cursor. Cleanup failures are logged and
// swallowed.
func (si *statementIterator) Close() error {
	if si.closed {
		return nil
	}
	si.closed = true
	if err := si.it.Close(); err != nil {
		si.store.log.Warn("statement iterator close failed", zap.Error(err))
	}
	return nil
}
