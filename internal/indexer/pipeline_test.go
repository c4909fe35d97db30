package indexer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/hermes-engine/hermes/internal/graph"
	"github.com/hermes-engine/hermes/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeInvalidator struct{ calls int }

func (f *fakeInvalidator) InvalidateCaches() { f.calls++ }

func newTestPipeline(t *testing.T, inv CacheInvalidator) (*Pipeline, *graph.Graph) {
	t.Helper()
	store, err := storage.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	g := graph.New(store.DB(), "proj1")
	return New(g, store.DB(), inv), g
}

func TestIngestDirectory_EmptyDirReturnsZeroReport(t *testing.T) {
	p, _ := newTestPipeline(t, nil)
	dir := t.TempDir()

	report, err := p.IngestDirectory(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 0, report.TotalFiles)
	assert.Equal(t, 0, report.NodesCreated)
}

func TestIngestDirectory_UnchangedFileIsSkippedOnReindex(t *testing.T) {
	p, _ := newTestPipeline(t, nil)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "test.go"), "func main() {}\n")

	first, err := p.IngestDirectory(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Indexed)
	assert.Equal(t, 0, first.Skipped)

	second, err := p.IngestDirectory(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Indexed)
	assert.Equal(t, 1, second.Skipped)
}

func TestIngestDirectory_StaleFileRemovedAfterDeletion(t *testing.T) {
	p, g := newTestPipeline(t, nil)
	dir := t.TempDir()
	path := filepath.Join(dir, "will_be_deleted.go")
	writeFile(t, path, "func foo() {}\n")

	_, err := p.IngestDirectory(context.Background(), dir)
	require.NoError(t, err)
	paths, err := g.GetAllFilePaths(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, paths)

	require.NoError(t, os.Remove(path))
	_, err = p.IngestDirectory(context.Background(), dir)
	require.NoError(t, err)

	paths, err = g.GetAllFilePaths(context.Background())
	require.NoError(t, err)
	assert.Empty(t, paths)
}

func TestIngestDirectory_ChangedFileReindexesAndCreatesChunkNodes(t *testing.T) {
	p, g := newTestPipeline(t, nil)
	dir := t.TempDir()
	path := filepath.Join(dir, "test.go")
	writeFile(t, path, "fn foo() {}\n")

	report, err := p.IngestDirectory(context.Background(), dir)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, report.NodesCreated, 1)

	writeFile(t, path, "fn foo() {}\nfn bar() {}\n")
	report2, err := p.IngestDirectory(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 1, report2.Indexed)

	nodes, err := g.GetAllNodes(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, nodes)
}

func TestIngestDirectory_InvalidUTF8DoesNotFailTheRun(t *testing.T) {
	p, _ := newTestPipeline(t, nil)
	dir := t.TempDir()
	path := filepath.Join(dir, "weird.go")
	require.NoError(t, os.WriteFile(path, []byte("package main\n\xff\xfe garbage\n"), 0o644))

	report, err := p.IngestDirectory(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Indexed)
	assert.Equal(t, 0, report.Errors)
}

func TestIngestDirectory_NotifiesInvalidatorOnCompletion(t *testing.T) {
	inv := &fakeInvalidator{}
	p, _ := newTestPipeline(t, inv)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.go"), "package a")

	_, err := p.IngestDirectory(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 1, inv.calls)
}

func TestIngestDirectory_RejectsConcurrentRun(t *testing.T) {
	p, _ := newTestPipeline(t, nil)
	require.True(t, p.lock.TryAcquire())
	defer p.lock.Release()

	_, err := p.IngestDirectory(context.Background(), t.TempDir())
	assert.Error(t, err)
}
