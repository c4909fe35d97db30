// Package mcp implements the JSON-RPC tool server that exposes the
// knowledge graph to an AI coding assistant over stdio.
//
// # Protocol Overview
//
// The transport is JSON-RPC 2.0 over stdio, handled by
// github.com/mark3labs/mcp-go:
//
//	Client → Server: {"method": "tools/call", "params": {"name": "hermes_search", "arguments": {...}}}
//	Server → Client: {"result": {"content": [{"type": "text", "text": "..."}]}}
//
// # Tools
//
//   - hermes_index:  re-index the project root into the knowledge graph.
//   - hermes_search: pointer-based search over the graph (top 10, smart tiering).
//   - hermes_fetch:  retrieve full content for a pointer returned by hermes_search.
//   - hermes_fact:   record a durable fact into the temporal store.
//   - hermes_facts:  list active facts, optionally filtered by type.
//   - hermes_stats:  session and cumulative token accounting, optionally windowed.
//
// Each handler returns a single text content block holding pretty-printed
// JSON; errors missing required arguments surface as JSON-RPC protocol
// errors rather than tool results.
//
// # Auto-reindex
//
// Serve optionally starts a background goroutine that re-runs the
// ingestion pipeline on a fixed interval (HERMES_AUTO_INDEX_INTERVAL_SECS,
// default 300s; 0 disables it). The goroutine shares the server's graph and
// invalidates search caches the same way a manual hermes_index call does.
package mcp
