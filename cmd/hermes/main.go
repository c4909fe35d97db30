package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/google/uuid"

	"github.com/hermes-engine/hermes/internal/accounting"
	"github.com/hermes-engine/hermes/internal/embedder"
	"github.com/hermes-engine/hermes/internal/graph"
	"github.com/hermes-engine/hermes/internal/indexer"
	"github.com/hermes-engine/hermes/internal/mcp"
	"github.com/hermes-engine/hermes/internal/searcher"
	"github.com/hermes-engine/hermes/internal/storage"
	"github.com/hermes-engine/hermes/internal/temporal"
	"github.com/hermes-engine/hermes/pkg/types"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

const usage = `hermes - token-efficient code navigation

Usage:
  hermes --stdio              run as a JSON-RPC tool server over stdio
  hermes index                re-index the project
  hermes search <query>       search; returns pointers, not full content
  hermes fetch <node_id>      fetch full content for a pointer
  hermes fact <type> <text>   record a decision/learning/constraint/etc.
  hermes facts [type]         list active facts, optionally filtered
  hermes stats [--since=W]    token savings statistics (W: "Nh", "Nd", or "all")

Environment variables:
  HERMES_PROJECT_ROOT             root directory to index (default: cwd)
  HERMES_DB_PATH                  sqlite db path (default: <project_root>/.hermes.db)
  HERMES_AUTO_INDEX_INTERVAL_SECS re-index interval under --stdio (default 300; 0 disables)
`

func main() {
	log.SetOutput(os.Stderr)

	stdio := flag.Bool("stdio", false, "run as a JSON-RPC tool server over stdio")
	showVersion := flag.Bool("version", false, "print version information")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if *showVersion {
		fmt.Printf("hermes %s (built %s)\n", version, buildTime)
		fmt.Printf("sqlite driver: %s (build mode: %s)\n", storage.DriverName, storage.BuildMode)
		return
	}

	projectRoot := os.Getenv("HERMES_PROJECT_ROOT")
	if projectRoot == "" {
		cwd, err := os.Getwd()
		if err != nil {
			log.Fatalf("hermes: determine working directory: %v", err)
		}
		projectRoot = cwd
	}

	dbPath := os.Getenv("HERMES_DB_PATH")
	if dbPath == "" {
		dbPath = filepath.Join(projectRoot, ".hermes.db")
	}

	if *stdio {
		runStdioServer(projectRoot, dbPath)
		return
	}

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(1)
	}

	if err := runDirectCommand(projectRoot, dbPath, args[0], args[1:]); err != nil {
		log.Fatalf("hermes: %v", err)
	}
}

func runStdioServer(projectRoot, dbPath string) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv, err := mcp.NewServer(ctx, projectRoot, dbPath)
	if err != nil {
		log.Fatalf("hermes: create server: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		log.Println("hermes: ready, listening on stdio...")
		errChan <- srv.Serve(ctx)
	}()

	select {
	case sig := <-sigChan:
		log.Printf("hermes: received signal %v, shutting down", sig)
		cancel()
	case err := <-errChan:
		if err != nil {
			log.Fatalf("hermes: server error: %v", err)
		}
	}
}

// engine bundles the components a direct-mode command needs, scoped to one
// project root and one fresh session.
type engine struct {
	store      *storage.Store
	graph      *graph.Graph
	searcher   *searcher.Engine
	accountant *accounting.Accountant
	projectID  string
}

func openEngine(ctx context.Context, projectRoot, dbPath string) (*engine, error) {
	store, err := storage.Open(ctx, dbPath)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	emb, err := embedder.NewFromEnv()
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("initialize embedder: %w", err)
	}

	projectID := mcp.DeriveProjectID(projectRoot)
	g := graph.New(store.DB(), projectID)

	var opts []searcher.Option
	if emb.Provider() != embedder.ProviderLocal {
		opts = append(opts, searcher.WithVectorEncoder(&embedder.Adapter{Embedder: emb}))
	}
	search := searcher.New(g, opts...)
	acct := accounting.New(store.DB(), projectID, uuid.NewString())

	return &engine{store: store, graph: g, searcher: search, accountant: acct, projectID: projectID}, nil
}

func (e *engine) Close() error {
	return e.store.Close()
}

func runDirectCommand(projectRoot, dbPath, command string, args []string) error {
	ctx := context.Background()

	e, err := openEngine(ctx, projectRoot, dbPath)
	if err != nil {
		return err
	}
	defer func() { _ = e.Close() }()

	switch command {
	case "index":
		return cmdIndex(ctx, e, projectRoot)
	case "search":
		if len(args) < 1 {
			return fmt.Errorf("search requires a query argument")
		}
		return cmdSearch(ctx, e, args[0])
	case "fetch":
		if len(args) < 1 {
			return fmt.Errorf("fetch requires a node_id argument")
		}
		return cmdFetch(ctx, e, args[0])
	case "fact":
		if len(args) < 2 {
			return fmt.Errorf("fact requires <type> and <content> arguments")
		}
		return cmdAddFact(ctx, e, args[0], args[1])
	case "facts":
		filter := ""
		if len(args) > 0 {
			filter = args[0]
		}
		return cmdListFacts(ctx, e, filter)
	case "stats":
		since := ""
		statsFlags := flag.NewFlagSet("stats", flag.ContinueOnError)
		statsFlags.StringVar(&since, "since", "", `time window: "Nh", "Nd", or "all"`)
		if err := statsFlags.Parse(args); err != nil {
			return err
		}
		return cmdStats(ctx, e, since)
	default:
		flag.Usage()
		return fmt.Errorf("unknown command: %s", command)
	}
}

func cmdIndex(ctx context.Context, e *engine, projectRoot string) error {
	pipeline := indexer.New(e.graph, e.store.DB(), e.searcher)
	report, err := pipeline.IngestDirectory(ctx, projectRoot)
	if err != nil {
		return err
	}
	return printJSON(map[string]interface{}{
		"total_files":   report.TotalFiles,
		"indexed":       report.Indexed,
		"skipped":       report.Skipped,
		"errors":        report.Errors,
		"nodes_created": report.NodesCreated,
	})
}

func cmdSearch(ctx context.Context, e *engine, query string) error {
	resp, err := e.searcher.Search(ctx, query, 10)
	if err != nil {
		return err
	}
	if err := e.accountant.RecordQuery(ctx, query, resp.Accounting.PointerTokens, 0, resp.Accounting.TraditionalRAGEst); err != nil {
		return err
	}
	return printJSON(resp)
}

func cmdFetch(ctx context.Context, e *engine, nodeID string) error {
	resp, found, err := e.searcher.Fetch(ctx, nodeID)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("node not found: %s", nodeID)
	}
	if err := e.accountant.RecordQuery(ctx, nodeID, 0, resp.TokenCount, resp.TokenCount*15); err != nil {
		return err
	}
	return printJSON(resp)
}

func cmdAddFact(ctx context.Context, e *engine, factType, content string) error {
	store := temporal.New(e.store.DB(), e.projectID)
	id, err := store.AddFact(ctx, types.ParseFactType(factType), content, "", "")
	if err != nil {
		return err
	}
	return printJSON(map[string]interface{}{"id": id, "status": "recorded"})
}

func cmdListFacts(ctx context.Context, e *engine, filter string) error {
	store := temporal.New(e.store.DB(), e.projectID)
	var factType types.FactType
	if filter != "" {
		factType = types.ParseFactType(filter)
	}
	facts, err := store.GetActiveFacts(ctx, factType)
	if err != nil {
		return err
	}
	return printJSON(facts)
}

func cmdStats(ctx context.Context, e *engine, since string) error {
	session, err := e.accountant.GetSessionStats(ctx)
	if err != nil {
		return err
	}

	var cumulative accounting.CumulativeStats
	switch {
	case since == "" || since == "all":
		cumulative, err = e.accountant.GetCumulativeStats(ctx)
	default:
		d, ok := accounting.ParseSinceDuration(since)
		if !ok {
			return fmt.Errorf("invalid --since value: %q", since)
		}
		cumulative, err = e.accountant.GetStatsSince(ctx, &d)
	}
	if err != nil {
		return err
	}

	sinceLabel := since
	if sinceLabel == "" {
		sinceLabel = "all"
	}

	return printJSON(map[string]interface{}{
		"project_id":   e.projectID,
		"since_filter": sinceLabel,
		"session":      statsPayload(session),
		"cumulative":   statsPayload(cumulative),
	})
}

func statsPayload(s accounting.CumulativeStats) map[string]interface{} {
	return map[string]interface{}{
		"total_queries":            s.TotalQueries,
		"pointer_tokens_used":      s.TotalPointerTokens,
		"fetched_tokens_used":      s.TotalFetchedTokens,
		"actual_tokens_total":      s.TotalPointerTokens + s.TotalFetchedTokens,
		"traditional_rag_estimate": s.TotalTraditionalEstimate,
		"tokens_saved":             s.CumulativeSavingsTokens,
		"savings_pct":              fmt.Sprintf("%.1f%%", s.CumulativeSavingsPct),
	}
}

func printJSON(v interface{}) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}
