package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/semver/v3"
)

const (
	// CurrentSchemaVersion tracks the database schema version.
	CurrentSchemaVersion = "1.0.0"
)

// Migration represents a database schema migration.
type Migration struct {
	Version string
	Up      string
	Down    string
}

// AllMigrations contains all database migrations in order.
var AllMigrations = []Migration{
	{
		Version: "1.0.0",
		Up:      migrationV1Up,
		Down:    migrationV1Down,
	},
}

const migrationV1Up = `
CREATE TABLE IF NOT EXISTS schema_version (
    version TEXT PRIMARY KEY,
    applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS nodes (
    id           TEXT PRIMARY KEY,
    project_id   TEXT NOT NULL,
    name         TEXT NOT NULL,
    node_type    TEXT NOT NULL,
    file_path    TEXT,
    start_line   INTEGER,
    end_line     INTEGER,
    summary      TEXT,
    content_hash TEXT,
    created_at   TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at   TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_nodes_project ON nodes(project_id);
CREATE INDEX IF NOT EXISTS idx_nodes_name ON nodes(name);
CREATE INDEX IF NOT EXISTS idx_nodes_name_lower ON nodes(LOWER(name));
CREATE INDEX IF NOT EXISTS idx_nodes_type ON nodes(project_id, node_type);
CREATE INDEX IF NOT EXISTS idx_nodes_file ON nodes(file_path);

CREATE TABLE IF NOT EXISTS edges (
    id         TEXT PRIMARY KEY,
    project_id TEXT NOT NULL,
    source_id  TEXT NOT NULL REFERENCES nodes(id),
    target_id  TEXT NOT NULL REFERENCES nodes(id),
    edge_type  TEXT NOT NULL,
    weight     REAL NOT NULL DEFAULT 1.0,
    created_at TEXT NOT NULL DEFAULT (datetime('now')),
    UNIQUE(source_id, target_id, edge_type)
);

CREATE INDEX IF NOT EXISTS idx_edges_source ON edges(source_id);
CREATE INDEX IF NOT EXISTS idx_edges_target ON edges(target_id);
CREATE INDEX IF NOT EXISTS idx_edges_project ON edges(project_id);

CREATE VIRTUAL TABLE IF NOT EXISTS fts_content USING fts5(
    node_id,
    project_id,
    name,
    content,
    file_path,
    tokenize='porter unicode61'
);

CREATE TABLE IF NOT EXISTS file_hashes (
    file_path_or_chunk_key TEXT PRIMARY KEY,
    project_id             TEXT NOT NULL,
    content_hash           TEXT NOT NULL,
    indexed_at              TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_file_hashes_project ON file_hashes(project_id);

CREATE TABLE IF NOT EXISTS accounting (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    project_id      TEXT NOT NULL,
    session_id      TEXT NOT NULL DEFAULT '',
    query_text      TEXT NOT NULL,
    pointer_tokens  INTEGER NOT NULL DEFAULT 0,
    fetched_tokens  INTEGER NOT NULL DEFAULT 0,
    traditional_est INTEGER NOT NULL DEFAULT 0,
    created_at      TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_accounting_session ON accounting(project_id, session_id);
CREATE INDEX IF NOT EXISTS idx_accounting_created ON accounting(project_id, created_at);

CREATE TABLE IF NOT EXISTS temporal_facts (
    id               TEXT PRIMARY KEY,
    project_id       TEXT NOT NULL,
    node_id          TEXT REFERENCES nodes(id),
    fact_type        TEXT NOT NULL,
    content          TEXT NOT NULL,
    valid_from       TEXT NOT NULL,
    valid_to         TEXT,
    superseded_by    TEXT,
    source_reference TEXT,
    created_at       TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_facts_project ON temporal_facts(project_id);
CREATE INDEX IF NOT EXISTS idx_facts_node ON temporal_facts(node_id);
CREATE INDEX IF NOT EXISTS idx_facts_active
    ON temporal_facts(project_id, fact_type) WHERE valid_to IS NULL;
`

const migrationV1Down = `
DROP TABLE IF EXISTS temporal_facts;
DROP TABLE IF EXISTS accounting;
DROP TABLE IF EXISTS file_hashes;
DROP TABLE IF EXISTS fts_content;
DROP TABLE IF EXISTS edges;
DROP TABLE IF EXISTS nodes;
DROP TABLE IF EXISTS schema_version;
`

// ApplyMigrations runs all pending migrations. It is idempotent: running it
// twice against the same database is a no-op the second time.
func ApplyMigrations(ctx context.Context, db *sql.DB) error {
	var tableName string
	err := db.QueryRowContext(ctx, "SELECT name FROM sqlite_master WHERE type='table' AND name='schema_version'").Scan(&tableName)

	var currentVersion *semver.Version
	switch {
	case err == sql.ErrNoRows:
		currentVersion = semver.MustParse("0.0.0")
	case err != nil:
		return fmt.Errorf("failed to check schema_version table: %w", err)
	default:
		var currentVersionStr string
		err = db.QueryRowContext(ctx, "SELECT version FROM schema_version ORDER BY applied_at DESC LIMIT 1").Scan(&currentVersionStr)
		switch {
		case err == sql.ErrNoRows || currentVersionStr == "":
			currentVersion = semver.MustParse("0.0.0")
		case err != nil:
			return fmt.Errorf("failed to read schema_version: %w", err)
		default:
			currentVersion, err = semver.NewVersion(currentVersionStr)
			if err != nil {
				return fmt.Errorf("invalid current schema version %s: %w", currentVersionStr, err)
			}
		}
	}

	for _, migration := range AllMigrations {
		migrationVersion, err := semver.NewVersion(migration.Version)
		if err != nil {
			return fmt.Errorf("invalid migration version %s: %w", migration.Version, err)
		}

		if !currentVersion.LessThan(migrationVersion) {
			continue
		}

		if _, err := db.ExecContext(ctx, migration.Up); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", migration.Version, err)
		}

		if _, err := db.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", migration.Version); err != nil {
			return fmt.Errorf("failed to record migration %s: %w", migration.Version, err)
		}

		currentVersion = migrationVersion
	}

	return nil
}

// RollbackMigration rolls back the most recently applied migration.
func RollbackMigration(ctx context.Context, db *sql.DB) error {
	var currentVersion string
	if err := db.QueryRowContext(ctx, "SELECT version FROM schema_version ORDER BY applied_at DESC LIMIT 1").Scan(&currentVersion); err != nil {
		return fmt.Errorf("no migrations to rollback: %w", err)
	}

	var migration *Migration
	for i := range AllMigrations {
		if AllMigrations[i].Version == currentVersion {
			migration = &AllMigrations[i]
			break
		}
	}
	if migration == nil {
		return fmt.Errorf("migration %s not found", currentVersion)
	}

	if _, err := db.ExecContext(ctx, migration.Down); err != nil {
		return fmt.Errorf("failed to rollback migration %s: %w", currentVersion, err)
	}

	if _, err := db.ExecContext(ctx, "DELETE FROM schema_version WHERE version = ?", currentVersion); err != nil {
		return fmt.Errorf("failed to remove migration record %s: %w", currentVersion, err)
	}

	return nil
}
