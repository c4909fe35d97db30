// Package searcher implements pointer-based retrieval over the knowledge
// graph: three independent scorers fused into a single ranked list of
// pointers, plus the fetch path that turns a chosen pointer back into full
// content.
//
// # Tiers
//
//   - L0 literal — exact, prefix, suffix, or substring match on node name.
//     Cheapest and highest-precision; a sufficiently confident L0 result set
//     lets the engine skip the remaining tiers entirely.
//   - L1 full-text — BM25 over the fts_content virtual table, tried as an
//     exact phrase, then an AND of prefix terms, then an OR of terms, taking
//     the first strategy that clears a minimum hit count.
//   - L2 vector — cosine similarity between a hashed (or provider-supplied)
//     embedding of the query and of each node's name/summary/path text. This
//     is the tier that degrades gracefully offline.
//
// # Fusion
//
//	resp, err := searcher.New(g).Search(ctx, "fetch_alerts", 10)
//
// Each tier's raw score is boosted by a fixed per-tier bonus before ranking,
// so an L0 hit and an L1 hit of similar raw confidence don't tie — literal
// matches are trusted more. Within one node ID, only the highest-boosted
// result survives, but it keeps its own original score and tier rather than
// the boosted value.
//
// # Caching
//
// Search responses are cached by (lowercased query, topK) for a short TTL;
// fetched file content is cached by (path, start line, end line) with FIFO
// eviction. Both caches are process-local and safe for concurrent use.
package searcher
