// Package hashtracker gates re-ingestion: it maps a file path or chunk key
// to the content hash observed the last time it was indexed, so unchanged
// files and chunks can be skipped on a re-index.
package hashtracker

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"

	"github.com/hermes-engine/hermes/internal/storage"
)

// Tracker is a project-scoped view over the store's file_hashes table. The
// same table holds both file-path keys and chunk keys (of the form
// "<path>::<chunk-name>"), distinguished only by shape.
type Tracker struct {
	q         storage.Querier
	projectID string
}

// New returns a Tracker scoped to projectID.
func New(q storage.Querier, projectID string) *Tracker {
	return &Tracker{q: q, projectID: projectID}
}

// IsUnchanged reports whether filePath's on-disk content still matches the
// hash stored for it. Any I/O error reading the file — not found, permission
// denied, anything — is treated as "changed" rather than propagated: an
// unreadable file should fall through to re-ingestion, not abort it.
func (t *Tracker) IsUnchanged(ctx context.Context, filePath string) bool {
	var stored string
	err := t.q.QueryRowContext(ctx,
		`SELECT content_hash FROM file_hashes WHERE file_path_or_chunk_key = ? AND project_id = ?`,
		filePath, t.projectID,
	).Scan(&stored)
	if err != nil {
		return false
	}

	content, err := os.ReadFile(filePath)
	if err != nil {
		return false
	}

	return stored == ComputeHash(string(content))
}

// UpdateHash hashes actualPath's current content and records it under
// filePath's key. The two differ when filePath is a logical identifier
// distinct from where the content was actually read from.
func (t *Tracker) UpdateHash(ctx context.Context, filePath, actualPath string) error {
	content, err := os.ReadFile(actualPath)
	if err != nil {
		return err
	}
	return t.store(ctx, filePath, ComputeHash(string(content)))
}

// IsChunkUnchanged reports whether currentHash matches the hash stored under
// chunkKey, without touching the filesystem — the caller has already
// computed the chunk's content hash.
func (t *Tracker) IsChunkUnchanged(ctx context.Context, chunkKey, currentHash string) bool {
	var stored string
	err := t.q.QueryRowContext(ctx,
		`SELECT content_hash FROM file_hashes WHERE file_path_or_chunk_key = ? AND project_id = ?`,
		chunkKey, t.projectID,
	).Scan(&stored)
	if err != nil {
		return false
	}
	return stored == currentHash
}

// UpdateChunkHash persists hash under chunkKey so a later ingestion run can
// skip the chunk when its content hasn't changed.
func (t *Tracker) UpdateChunkHash(ctx context.Context, chunkKey, hash string) error {
	return t.store(ctx, chunkKey, hash)
}

func (t *Tracker) store(ctx context.Context, key, hash string) error {
	_, err := t.q.ExecContext(ctx, `
		INSERT INTO file_hashes (file_path_or_chunk_key, project_id, content_hash, indexed_at)
		VALUES (?, ?, ?, datetime('now'))
		ON CONFLICT(file_path_or_chunk_key) DO UPDATE SET
			content_hash = excluded.content_hash,
			indexed_at = excluded.indexed_at
	`, key, t.projectID, hash)
	return err
}

// ComputeHash returns the lowercase hex SHA-256 digest of content.
func ComputeHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
