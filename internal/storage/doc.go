// Package storage owns the single embedded SQLite database the rest of the
// engine shares: schema migrations, WAL configuration, and the vector
// encoding helpers the semantic search tier uses.
//
// Every other component — graph, hash tracker, accounting, temporal store —
// runs its own queries against the *sql.DB a Store exposes rather than going
// through a storage-level CRUD interface; this package's job ends at
// opening the database and keeping its schema current.
//
// Two SQLite drivers are wired behind a build tag, matching the split
// between a cgo build (github.com/mattn/go-sqlite3, see build_cgo.go) and a
// pure-Go build (modernc.org/sqlite, see build_purego.go). Both speak the
// same schema; only FTS5 and the compiled extension surface differ.
package storage
