// Package indexer runs the ingestion pipeline: crawl the project tree, gate
// out unchanged files via content hashing, chunk and upsert whatever
// remains into the graph, then sweep nodes for files that disappeared.
//
// A run proceeds in four phases:
//
//  1. Crawl — recursively walk the project root, skipping ignored
//     directories, collecting a sorted list of files with a supported
//     extension.
//  2. Gate — check each crawled file's content hash against the one
//     recorded for it last run; unchanged files are skipped.
//  3. Ingest — for each remaining file, in lexicographic order: chunk it,
//     upsert a file node and a node per changed chunk, and record the new
//     hashes.
//  4. Sweep — delete nodes for any file that was indexed previously but no
//     longer appears in this run's crawl.
//
// Only one run may be in flight per Pipeline; IngestDirectory rejects a
// concurrent call rather than blocking it.
package indexer
