package hashtracker

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/hermes-engine/hermes/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTracker(t *testing.T) *Tracker {
	t.Helper()
	store, err := storage.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return New(store.DB(), "proj1")
}

func TestComputeHash_IsDeterministic(t *testing.T) {
	assert.Equal(t, ComputeHash("hello world"), ComputeHash("hello world"))
}

func TestComputeHash_DifferentContentDifferentHash(t *testing.T) {
	assert.NotEqual(t, ComputeHash("hello"), ComputeHash("world"))
}

func TestComputeHash_Is64HexChars(t *testing.T) {
	h := ComputeHash("test")
	assert.Len(t, h, 64)
	for _, c := range h {
		assert.Contains(t, "0123456789abcdef", string(c))
	}
}

func TestIsUnchanged_ReturnsFalseWhenNotStored(t *testing.T) {
	tr := newTestTracker(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "a.go")
	require.NoError(t, os.WriteFile(path, []byte("package a"), 0o644))

	assert.False(t, tr.IsUnchanged(context.Background(), path))
}

func TestIsUnchanged_ReturnsTrueAfterUpdate(t *testing.T) {
	tr := newTestTracker(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "a.go")
	require.NoError(t, os.WriteFile(path, []byte("package a"), 0o644))

	require.NoError(t, tr.UpdateHash(context.Background(), path, path))

	assert.True(t, tr.IsUnchanged(context.Background(), path))
}

func TestIsUnchanged_ReturnsFalseAfterContentChanges(t *testing.T) {
	tr := newTestTracker(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "a.go")
	require.NoError(t, os.WriteFile(path, []byte("package a"), 0o644))
	require.NoError(t, tr.UpdateHash(context.Background(), path, path))

	require.NoError(t, os.WriteFile(path, []byte("package a\n\nfunc B() {}"), 0o644))

	assert.False(t, tr.IsUnchanged(context.Background(), path))
}

func TestIsUnchanged_UnreadableFileReturnsFalse(t *testing.T) {
	tr := newTestTracker(t)
	assert.False(t, tr.IsUnchanged(context.Background(), "/nonexistent/path/does/not/exist.go"))
}

func TestIsChunkUnchanged_ReturnsFalseWhenNotStored(t *testing.T) {
	tr := newTestTracker(t)
	assert.False(t, tr.IsChunkUnchanged(context.Background(), "path/to/file.go::fnName", "abc123"))
}

func TestIsChunkUnchanged_ReturnsTrueAfterStore(t *testing.T) {
	tr := newTestTracker(t)
	key := "path/to/file.go::fnMain"
	hash := ComputeHash(`func main() { println("hello") }`)
	require.NoError(t, tr.UpdateChunkHash(context.Background(), key, hash))

	assert.True(t, tr.IsChunkUnchanged(context.Background(), key, hash))
}

func TestIsChunkUnchanged_ReturnsFalseOnDifferentHash(t *testing.T) {
	tr := newTestTracker(t)
	key := "path/to/file.go::fnFoo"
	oldHash := ComputeHash("func foo() {}")
	newHash := ComputeHash("func foo() { doSomething() }")
	require.NoError(t, tr.UpdateChunkHash(context.Background(), key, oldHash))

	assert.False(t, tr.IsChunkUnchanged(context.Background(), key, newHash))
}
