// Package sail implements an RDF statement store on top of any indexable
// property graph. RDF resources become vertices, statements become directed
// labeled edges, and bind-pattern queries dispatch to index- or graph-based
// matchers over the edge set.
package sail

import (
	"fmt"
	"io"
	"sort"

	"go.uber.org/zap"

	"github.com/aleksaelezovic/propsail/pkg/graph"
)

const (
	// Well-known index names on the backing graph.
	valuesIndexName = "values"
	edgesIndexName  = "edges"

	// namespacesID is the reserved "value" property identifying the single
	// namespace vertex.
	namespacesID = "urn:propsail:namespaces"
)

// Config holds construction-time options.
type Config struct {
	// IndexedPatterns is a comma-separated subset of the 15 non-empty
	// patterns matching s?p?o?c?. "p" and "c" are implicitly added.
	IndexedPatterns string

	// UniqueStatements keeps at most one edge per quad: on re-adding an equal
	// quad the previous edge is removed before the new one is written.
	UniqueStatements bool

	// VolatileStatements lets statement iterators reuse a single statement
	// buffer across steps. Single-consumer; callers must copy fields before
	// advancing.
	VolatileStatements bool

	// Logger receives debug output and swallowed cleanup errors.
	// Nil means no logging.
	Logger *zap.Logger
}

// DefaultConfig returns the default options: patterns "p,c,pc", unique
// statements on, volatile statements off.
func DefaultConfig() Config {
	return Config{
		IndexedPatterns:  "p,c,pc",
		UniqueStatements: true,
	}
}

// Store is the shared, effectively immutable context behind all connections:
// the backing graph, the two well-known indexes, the matcher table, and the
// policy flags. Per-connection mutable state lives on Connection.
type Store struct {
	g  graph.Graph
	tx graph.TransactionalGraph // nil when the graph is not transactional

	values graph.Index
	edges  graph.Index

	matchers [numSlots]matcher
	patterns map[int]string

	unique   bool
	volatile bool

	nsVertex graph.Vertex

	log *zap.Logger
}

// Open prepares a store over g: ensures the values and edges indexes exist,
// locates or creates the namespace vertex, and builds the matcher table.
func Open(g graph.Graph, cfg Config) (*Store, error) {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	patterns, err := parseIndexedPatterns(cfg.IndexedPatterns)
	if err != nil {
		return nil, err
	}

	s := &Store{
		g:        g,
		patterns: patterns,
		unique:   cfg.UniqueStatements,
		volatile: cfg.VolatileStatements,
		log:      log,
	}
	if tg, ok := g.(graph.TransactionalGraph); ok {
		s.tx = tg
	}

	s.values, err = ensureIndex(g, valuesIndexName, graph.KindVertex, []string{propValue})
	if err != nil {
		return nil, fmt.Errorf("sail: values index: %w", err)
	}

	keys := make([]string, 0, len(patterns))
	for _, p := range patterns {
		keys = append(keys, p)
	}
	sort.Strings(keys)
	s.edges, err = ensureIndex(g, edgesIndexName, graph.KindEdge, keys)
	if err != nil {
		return nil, fmt.Errorf("sail: edges index: %w", err)
	}

	if err := s.initNamespaceVertex(); err != nil {
		return nil, err
	}

	s.matchers = buildMatchers(g, s.edges, patterns)
	log.Debug("store opened",
		zap.Strings("indexed_patterns", keys),
		zap.Bool("unique_statements", s.unique),
		zap.Bool("transactional", s.tx != nil))
	return s, nil
}

func ensureIndex(g graph.Graph, name string, kind graph.ElementKind, keys []string) (graph.Index, error) {
	idx, err := g.GetIndex(name, kind)
	if err == nil {
		return idx, nil
	}
	if err != graph.ErrNotFound {
		return nil, err
	}
	return g.CreateAutomaticIndex(name, kind, keys)
}

func (s *Store) initNamespaceVertex() error {
	it, err := s.values.Get(propValue, namespacesID)
	if err != nil {
		return fmt.Errorf("sail: namespace vertex lookup: %w", err)
	}
	defer s.closeQuietly(it)

	if it.Next() {
		el, err := it.Element()
		if err != nil {
			return fmt.Errorf("sail: namespace vertex read: %w", err)
		}
		v, ok := el.(graph.Vertex)
		if !ok {
			return fmt.Errorf("%w: non-vertex under namespaces id", ErrAmbiguousValue)
		}
		s.nsVertex = v
		return nil
	}

	v, err := s.g.AddVertex()
	if err != nil {
		return fmt.Errorf("sail: create namespace vertex: %w", err)
	}
	if err := v.SetProperty(propValue, namespacesID); err != nil {
		return fmt.Errorf("sail: create namespace vertex: %w", err)
	}
	s.nsVertex = v
	return nil
}

// Connect opens a session over the store.
func (s *Store) Connect() (*Connection, error) {
	return &Connection{store: s}, nil
}

// Close commits any open manual transaction and shuts down the backing graph.
func (s *Store) Close() error {
	if s.tx != nil {
		if err := s.tx.CommitTx(); err != nil {
			return fmt.Errorf("sail: commit on close: %w", err)
		}
	}
	return s.g.Close()
}

// begin opens a manual transaction before a mutation if the graph supports
// one. Idempotent while a transaction is active.
func (s *Store) begin() error {
	if s.tx == nil {
		return nil
	}
	if err := s.tx.BeginTx(); err != nil {
		return fmt.Errorf("sail: begin transaction: %w", err)
	}
	return nil
}

// closeQuietly releases a cursor, logging and swallowing any cleanup error.
func (s *Store) closeQuietly(c io.Closer) {
	if err := c.Close(); err != nil {
		s.log.Warn("cursor close failed", zap.Error(err))
	}
}
