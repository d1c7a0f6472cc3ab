package main

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/aleksaelezovic/propsail/internal/badgergraph"
	"github.com/aleksaelezovic/propsail/internal/config"
	"github.com/aleksaelezovic/propsail/internal/memgraph"
	"github.com/aleksaelezovic/propsail/pkg/graph"
	"github.com/aleksaelezovic/propsail/pkg/rdf"
	"github.com/aleksaelezovic/propsail/pkg/sail"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: propsail [-config <file>] <command> [args]")
		fmt.Println("Commands:")
		fmt.Println("  demo                 - Populate sample statements and run pattern queries")
		fmt.Println("  add <s> <p> <o> [c]  - Add one statement")
		fmt.Println("  query <s> <p> <o> <c> - Query; use - for an unbound position")
		fmt.Println("  namespaces           - List namespace prefixes")
		os.Exit(1)
	}

	args := os.Args[1:]
	cfgPath := ""
	if args[0] == "-config" {
		if len(args) < 3 {
			fmt.Println("Usage: propsail -config <file> <command> [args]")
			os.Exit(1)
		}
		cfgPath = args[1]
		args = args[2:]
	}

	cfg := config.Default()
	if cfgPath != "" {
		var err error
		cfg, err = config.Load(cfgPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}

	logger := newLogger(cfg.Log.Level)
	defer logger.Sync() //nolint:errcheck

	command := args[0]
	switch command {
	case "demo":
		runDemo(cfg, logger)
	case "add":
		if len(args) < 4 {
			fmt.Println("Usage: propsail add <s> <p> <o> [c]")
			os.Exit(1)
		}
		runAdd(cfg, logger, args[1:])
	case "query":
		if len(args) < 5 {
			fmt.Println("Usage: propsail query <s> <p> <o> <c>  (use - for unbound)")
			os.Exit(1)
		}
		runQuery(cfg, logger, args[1:5])
	case "namespaces":
		runNamespaces(cfg, logger)
	default:
		fmt.Printf("Unknown command: %s\n", command)
		os.Exit(1)
	}
}

func newLogger(level string) *zap.Logger {
	lvl := zapcore.InfoLevel
	if err := lvl.Set(level); err != nil {
		lvl = zapcore.InfoLevel
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	logger, err := zcfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func openStore(cfg *config.Config, logger *zap.Logger) (*sail.Store, error) {
	var g graph.Graph
	switch cfg.Store.Engine {
	case "memory":
		g = memgraph.New()
	default:
		bg, err := badgergraph.Open(cfg.Store.Path)
		if err != nil {
			return nil, err
		}
		g = bg
	}
	return sail.Open(g, sail.Config{
		IndexedPatterns:    cfg.Store.IndexedPatterns,
		UniqueStatements:   cfg.Store.Unique(),
		VolatileStatements: cfg.Store.VolatileStatements,
		Logger:             logger,
	})
}

// parseTerm reads a single N-Triples-style term from the command line:
// <iri>, _:id, "label", "label"@lang, "label"^^<iri>. Anything else is
// treated as a bare IRI.
func parseTerm(s string) (rdf.Term, error) {
	switch {
	case strings.HasPrefix(s, "<") && strings.HasSuffix(s, ">"):
		return rdf.NewIRI(s[1 : len(s)-1]), nil
	case strings.HasPrefix(s, "_:"):
		return rdf.NewBlankNode(s[2:]), nil
	case strings.HasPrefix(s, `"`):
		rest := s[1:]
		end := strings.LastIndex(rest, `"`)
		if end < 0 {
			return nil, fmt.Errorf("unterminated literal: %s", s)
		}
		label, suffix := rest[:end], rest[end+1:]
		switch {
		case suffix == "":
			return rdf.NewLiteral(label), nil
		case strings.HasPrefix(suffix, "@"):
			return rdf.NewLangLiteral(label, suffix[1:]), nil
		case strings.HasPrefix(suffix, "^^<") && strings.HasSuffix(suffix, ">"):
			return rdf.NewTypedLiteral(label, rdf.NewIRI(suffix[3:len(suffix)-1])), nil
		default:
			return nil, fmt.Errorf("malformed literal suffix: %s", s)
		}
	default:
		return rdf.NewIRI(s), nil
	}
}

// parseBound maps "-" to an unbound position.
func parseBound(s string) (rdf.Term, error) {
	if s == "-" {
		return nil, nil
	}
	return parseTerm(s)
}

func runAdd(cfg *config.Config, logger *zap.Logger, args []string) {
	store, err := openStore(cfg, logger)
	if err != nil {
		logger.Fatal("open store", zap.Error(err))
	}
	defer store.Close()

	terms := make([]rdf.Term, 4)
	for i, a := range args {
		if i >= 4 {
			break
		}
		t, err := parseTerm(a)
		if err != nil {
			logger.Fatal("parse term", zap.Error(err))
		}
		terms[i] = t
	}

	conn, err := store.Connect()
	if err != nil {
		logger.Fatal("connect", zap.Error(err))
	}
	defer conn.Close()

	if err := conn.AddStatement(terms[0], terms[1], terms[2], terms[3]); err != nil {
		logger.Fatal("add statement", zap.Error(err))
	}
	if err := conn.Commit(); err != nil {
		logger.Fatal("commit", zap.Error(err))
	}
	fmt.Println("added 1 statement")
}

func runQuery(cfg *config.Config, logger *zap.Logger, args []string) {
	store, err := openStore(cfg, logger)
	if err != nil {
		logger.Fatal("open store", zap.Error(err))
	}
	defer store.Close()

	terms := make([]rdf.Term, 4)
	for i, a := range args {
		t, err := parseBound(a)
		if err != nil {
			logger.Fatal("parse term", zap.Error(err))
		}
		terms[i] = t
	}

	conn, err := store.Connect()
	if err != nil {
		logger.Fatal("connect", zap.Error(err))
	}
	defer conn.Close()

	it, err := conn.GetStatements(terms[0], terms[1], terms[2], terms[3], false)
	if err != nil {
		logger.Fatal("query", zap.Error(err))
	}
	defer it.Close()

	count := 0
	for it.Next() {
		st, err := it.Statement()
		if err != nil {
			logger.Fatal("read statement", zap.Error(err))
		}
		fmt.Println(st)
		count++
	}
	fmt.Printf("%d statement(s)\n", count)
}

func runNamespaces(cfg *config.Config, logger *zap.Logger) {
	store, err := openStore(cfg, logger)
	if err != nil {
		logger.Fatal("open store", zap.Error(err))
	}
	defer store.Close()

	conn, err := store.Connect()
	if err != nil {
		logger.Fatal("connect", zap.Error(err))
	}
	defer conn.Close()

	ns, err := conn.Namespaces()
	if err != nil {
		logger.Fatal("namespaces", zap.Error(err))
	}
	for prefix, name := range ns {
		fmt.Printf("%s: %s\n", prefix, name)
	}
}

func runDemo(cfg *config.Config, logger *zap.Logger) {
	fmt.Println("=== PropSail demo ===")
	fmt.Println()

	store, err := openStore(cfg, logger)
	if err != nil {
		logger.Fatal("open store", zap.Error(err))
	}
	defer store.Close()

	conn, err := store.Connect()
	if err != nil {
		logger.Fatal("connect", zap.Error(err))
	}
	defer conn.Close()

	alice := rdf.NewIRI("http://example.org/alice")
	bob := rdf.NewIRI("http://example.org/bob")
	name := rdf.NewIRI("http://xmlns.com/foaf/0.1/name")
	knows := rdf.NewIRI("http://xmlns.com/foaf/0.1/knows")
	g1 := rdf.NewIRI("http://example.org/graph1")

	statements := []*rdf.Statement{
		rdf.NewStatement(alice, name, rdf.NewLiteral("Alice"), nil),
		rdf.NewStatement(bob, name, rdf.NewLangLiteral("Bob", "en"), nil),
		rdf.NewStatement(alice, knows, bob, g1),
	}
	for _, st := range statements {
		if err := conn.AddStatement(st.Subject, st.Predicate, st.Object, st.Context); err != nil {
			logger.Fatal("add statement", zap.Error(err))
		}
		fmt.Printf("added: %s\n", st)
	}
	if err := conn.SetNamespace("foaf", "http://xmlns.com/foaf/0.1/"); err != nil {
		logger.Fatal("set namespace", zap.Error(err))
	}
	if err := conn.Commit(); err != nil {
		logger.Fatal("commit", zap.Error(err))
	}
	fmt.Println()

	queries := []struct {
		desc       string
		s, p, o, c rdf.Term
	}{
		{"all statements", nil, nil, nil, nil},
		{"by subject", alice, nil, nil, nil},
		{"by predicate", nil, name, nil, nil},
		{"by object", nil, nil, bob, nil},
		{"by context", nil, nil, nil, g1},
		{"default graph only", nil, nil, nil, rdf.NewDefaultGraph()},
	}
	for _, q := range queries {
		it, err := conn.GetStatements(q.s, q.p, q.o, q.c, false)
		if err != nil {
			logger.Fatal("query", zap.Error(err))
		}
		fmt.Printf("%s:\n", q.desc)
		for it.Next() {
			st, err := it.Statement()
			if err != nil {
				logger.Fatal("read statement", zap.Error(err))
			}
			fmt.Printf("  %s\n", st)
		}
		it.Close() //nolint:errcheck
		fmt.Println()
	}
}
