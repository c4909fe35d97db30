package mcp

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hermes-engine/hermes/internal/embedder"
	"github.com/hermes-engine/hermes/internal/graph"
	"github.com/hermes-engine/hermes/internal/indexer"
	"github.com/hermes-engine/hermes/internal/searcher"
	"github.com/hermes-engine/hermes/internal/storage"
)

const (
	// ServerName is the MCP server name advertised to clients.
	ServerName = "hermes"
	// ServerVersion is the current server version.
	ServerVersion = "0.1.0"
	// EnvAutoIndexIntervalSecs overrides the background re-index interval.
	// 0 disables the background loop entirely.
	EnvAutoIndexIntervalSecs = "HERMES_AUTO_INDEX_INTERVAL_SECS"
	defaultAutoIndexInterval = 300 * time.Second
)

// Server wraps the JSON-RPC tool server with the graph, search engine, and
// ingestion pipeline it exposes for one project.
type Server struct {
	mcp *server.MCPServer

	store    *storage.Store
	graph    *graph.Graph
	searcher *searcher.Engine
	pipeline *indexer.Pipeline
	embedder embedder.Embedder

	projectRoot string
	projectID   string
	sessionID   string
}

// NewServer opens dbPath (creating it if needed), wires the graph, search
// engine, and ingestion pipeline together, and registers the six tools. When
// emb is a non-local provider, the search engine's vector tier is backed by
// it via an Adapter; otherwise the engine falls back to its built-in hash
// encoder.
func NewServer(ctx context.Context, projectRoot, dbPath string) (*Server, error) {
	store, err := storage.Open(ctx, dbPath)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	emb, err := embedder.NewFromEnv()
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("initialize embedder: %w", err)
	}

	projectID := DeriveProjectID(projectRoot)
	g := graph.New(store.DB(), projectID)

	var opts []searcher.Option
	if emb.Provider() != embedder.ProviderLocal {
		opts = append(opts, searcher.WithVectorEncoder(&embedder.Adapter{Embedder: emb}))
	}
	search := searcher.New(g, opts...)
	pipeline := indexer.New(g, store.DB(), search)

	mcpServer := server.NewMCPServer(ServerName, ServerVersion)

	s := &Server{
		mcp:         mcpServer,
		store:       store,
		graph:       g,
		searcher:    search,
		pipeline:    pipeline,
		embedder:    emb,
		projectRoot: projectRoot,
		projectID:   projectID,
		sessionID:   uuid.NewString(),
	}

	s.registerTools()

	return s, nil
}

// registerTools registers the six hermes_* tools against their handlers.
func (s *Server) registerTools() {
	s.mcp.AddTool(indexTool(), s.handleIndex)
	s.mcp.AddTool(searchTool(), s.handleSearch)
	s.mcp.AddTool(fetchTool(), s.handleFetch)
	s.mcp.AddTool(factTool(), s.handleFact)
	s.mcp.AddTool(factsTool(), s.handleFacts)
	s.mcp.AddTool(statsTool(), s.handleStats)
}

// Serve starts the background auto-reindex loop (if enabled) and blocks
// serving the tool protocol on stdio until the client disconnects.
func (s *Server) Serve(ctx context.Context) error {
	defer func() { _ = s.store.Close() }()

	s.spawnAutoReindex(ctx)

	return server.ServeStdio(s.mcp)
}

// DeriveProjectID scopes graph/accounting state to the project root's
// directory name, so repeated invocations against the same root (index,
// then search, then fetch) see the same rows rather than a fresh partition
// each time.
func DeriveProjectID(projectRoot string) string {
	name := filepath.Base(filepath.Clean(projectRoot))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "unknown"
	}
	return name
}

func (s *Server) spawnAutoReindex(ctx context.Context) {
	interval := defaultAutoIndexInterval
	if v := os.Getenv(EnvAutoIndexIntervalSecs); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil {
			log.Printf("hermes: invalid %s=%q, using default", EnvAutoIndexIntervalSecs, v)
		} else {
			interval = time.Duration(secs) * time.Second
		}
	}
	if interval <= 0 {
		log.Printf("hermes: auto-reindex disabled (%s=0)", EnvAutoIndexIntervalSecs)
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		log.Printf("hermes: auto-reindex loop started (interval=%s)", interval)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				report, err := s.pipeline.IngestDirectory(ctx, s.projectRoot)
				if err != nil {
					log.Printf("hermes: auto-reindex failed: %v", err)
					continue
				}
				log.Printf("hermes: auto-reindex complete: %s", report)
			}
		}
	}()
}
