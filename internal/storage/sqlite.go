package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// Store owns the single embedded database connection shared by every other
// component: graph, hash tracker, accounting, and temporal store all run
// their own queries directly against the handle it exposes.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the SQLite database at dbPath, enables
// WAL journaling and normal synchronous durability, and applies migrations.
// Pass ":memory:" for an in-memory database in tests. Failure to open or
// migrate is fatal to the caller.
func Open(ctx context.Context, dbPath string) (*Store, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA synchronous=NORMAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set synchronous mode: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	// SQLite has a single writer; a pool larger than one connection just
	// serializes behind SQLITE_BUSY retries.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := ApplyMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}

	return &Store{db: db}, nil
}

// DB returns the underlying connection pool for components that run their
// own queries directly against it.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
