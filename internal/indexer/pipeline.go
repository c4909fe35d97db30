package indexer

import (
	"context"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"

	"github.com/hermes-engine/hermes/internal/chunker"
	"github.com/hermes-engine/hermes/internal/graph"
	"github.com/hermes-engine/hermes/internal/hashtracker"
	"github.com/hermes-engine/hermes/internal/storage"
	"github.com/hermes-engine/hermes/pkg/types"
	"golang.org/x/sync/errgroup"
)

// gateConcurrency bounds how many files are hash-checked at once during the
// gate phase. Hashing is read-only and safe to parallelize; the ingest phase
// that follows is not.
const gateConcurrency = 8

// CacheInvalidator is notified once an ingestion run completes, so caches
// computed against the old graph state don't outlive it.
type CacheInvalidator interface {
	InvalidateCaches()
}

// Report summarizes one ingestion run.
type Report struct {
	TotalFiles   int
	Indexed      int
	Skipped      int
	Errors       int
	NodesCreated int
}

func (r Report) String() string {
	return fmt.Sprintf(
		"Ingestion: %d files (%d indexed, %d skipped, %d errors), %d nodes",
		r.TotalFiles, r.Indexed, r.Skipped, r.Errors, r.NodesCreated,
	)
}

// Pipeline runs the crawl, gate, ingest, and sweep phases against a single
// project graph.
type Pipeline struct {
	graph      *graph.Graph
	hashes     *hashtracker.Tracker
	invalidate CacheInvalidator
	lock       IndexLock
}

// New returns a Pipeline scoped to g, running hash-tracker queries against
// the same querier g was built with. invalidate may be nil if no cache needs
// to be notified of completed runs.
func New(g *graph.Graph, q storage.Querier, invalidate CacheInvalidator) *Pipeline {
	return &Pipeline{
		graph:      g,
		hashes:     hashtracker.New(q, g.ProjectID()),
		invalidate: invalidate,
	}
}

// IngestDirectory crawls rootPath, ingests every changed file in
// lexicographic order, and removes graph entries for files that no longer
// exist on disk. Only one run may be in flight per Pipeline at a time; a
// concurrent call returns an error immediately rather than blocking.
func (p *Pipeline) IngestDirectory(ctx context.Context, rootPath string) (*Report, error) {
	if !p.lock.TryAcquire() {
		return nil, fmt.Errorf("ingest directory: a run is already in progress")
	}
	defer p.lock.Release()

	files, err := crawlDirectory(rootPath)
	if err != nil {
		return nil, fmt.Errorf("ingest directory: crawl: %w", err)
	}

	report := &Report{TotalFiles: len(files)}

	toIngest, err := p.gate(ctx, files)
	if err != nil {
		return nil, fmt.Errorf("ingest directory: gate: %w", err)
	}
	report.Skipped = len(files) - len(toIngest)

	for _, path := range toIngest {
		created, err := p.ingestFile(ctx, path)
		if err != nil {
			log.Printf("hermes: failed to ingest %s: %v", path, err)
			report.Errors++
			continue
		}
		if err := p.hashes.UpdateHash(ctx, path, path); err != nil {
			log.Printf("hermes: failed to record hash for %s: %v", path, err)
			report.Errors++
			continue
		}
		report.Indexed++
		report.NodesCreated += created
	}

	if err := p.sweep(ctx, files); err != nil {
		return nil, fmt.Errorf("ingest directory: sweep: %w", err)
	}

	if p.invalidate != nil {
		p.invalidate.InvalidateCaches()
	}

	return report, nil
}

// gate consults the hash tracker for every crawled file concurrently,
// returning the subset that needs (re-)ingestion, still in files' original
// lexicographic order.
func (p *Pipeline) gate(ctx context.Context, files []string) ([]string, error) {
	unchanged := make([]bool, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(gateConcurrency)
	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			unchanged[i] = p.hashes.IsUnchanged(gctx, path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	toIngest := make([]string, 0, len(files))
	for i, path := range files {
		if !unchanged[i] {
			toIngest = append(toIngest, path)
		}
	}
	return toIngest, nil
}

// ingestFile reads, chunks, and upserts a single file and its chunks,
// returning the number of nodes created (the file node plus one per
// changed chunk).
func (p *Pipeline) ingestFile(ctx context.Context, path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read: %w", err)
	}
	content := strings.ToValidUTF8(string(raw), "�")

	chunks := chunker.ChunkFile(path, content)
	fileHash := hashtracker.ComputeHash(content)

	fileNode := p.graph.CreateNodeBuilder().
		Name(path).
		NodeType(types.NodeFile).
		FilePath(path).
		Lines(1, strings.Count(content, "\n")+1).
		ContentHash(fileHash).
		Build()

	if err := p.graph.AddNode(ctx, &fileNode); err != nil {
		return 0, fmt.Errorf("add file node: %w", err)
	}
	if err := p.graph.IndexFTS(ctx, &fileNode, content); err != nil {
		return 0, fmt.Errorf("index file fts: %w", err)
	}

	created := 1
	for _, chunk := range chunks {
		chunkKey := path + "::" + chunk.Name
		chunkHash := hashtracker.ComputeHash(chunk.Content)

		if p.hashes.IsChunkUnchanged(ctx, chunkKey, chunkHash) {
			continue
		}

		chunkNode := p.graph.CreateNodeBuilder().
			Name(chunk.Name).
			NodeType(chunk.NodeType).
			FilePath(path).
			Lines(chunk.StartLine, chunk.EndLine).
			Summary(chunk.Summary).
			Build()

		if err := p.graph.AddNode(ctx, &chunkNode); err != nil {
			return created, fmt.Errorf("add chunk node %q: %w", chunk.Name, err)
		}
		if err := p.graph.IndexFTS(ctx, &chunkNode, chunk.Content); err != nil {
			return created, fmt.Errorf("index chunk fts %q: %w", chunk.Name, err)
		}

		edge := p.graph.CreateEdgeBuilder().
			Source(fileNode.ID).
			Target(chunkNode.ID).
			EdgeType(types.EdgeContains).
			Build()
		if err := p.graph.AddEdge(ctx, &edge); err != nil {
			return created, fmt.Errorf("add contains edge %q: %w", chunk.Name, err)
		}

		if err := p.hashes.UpdateChunkHash(ctx, chunkKey, chunkHash); err != nil {
			return created, fmt.Errorf("update chunk hash %q: %w", chunk.Name, err)
		}
		created++
	}

	return created, nil
}

// sweep removes every node whose file path is no longer among the crawled
// files — the file was deleted or moved out from under the index.
func (p *Pipeline) sweep(ctx context.Context, crawled []string) error {
	storedPaths, err := p.graph.GetAllFilePaths(ctx)
	if err != nil {
		return fmt.Errorf("get all file paths: %w", err)
	}

	crawledSet := make(map[string]struct{}, len(crawled))
	for _, path := range crawled {
		crawledSet[path] = struct{}{}
	}

	stale := make([]string, 0)
	for _, path := range storedPaths {
		if _, ok := crawledSet[path]; !ok {
			stale = append(stale, path)
		}
	}
	sort.Strings(stale)

	for _, path := range stale {
		if err := p.graph.DeleteNodesForFile(ctx, path); err != nil {
			return fmt.Errorf("delete nodes for %s: %w", path, err)
		}
		log.Printf("hermes: removed stale nodes for deleted file %s", path)
	}
	return nil
}
