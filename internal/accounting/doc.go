// Package accounting computes token-cost estimates for pointer-based
// retrieval and journals every query so cumulative and session-scoped
// savings against a traditional full-content RAG baseline can be reported.
package accounting
