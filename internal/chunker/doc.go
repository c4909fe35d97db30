// Package chunker implements the pure function (path, text) -> []Chunk
// that subdivides source files into nameable semantic units for the
// knowledge graph.
//
// Dispatch is by file extension. Rust, JVM-family (Kotlin/Java), Markdown,
// and TypeScript/JavaScript each get a line-scanning heuristic; every other
// supported extension falls back to a single whole-file chunk. The chunker
// never fails: input in a heuristic language with no recognized declaration
// or heading yields no chunks rather than an error.
package chunker
