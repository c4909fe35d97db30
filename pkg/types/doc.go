// Package types provides shared type definitions for the Hermes knowledge-graph engine.
//
// This package defines the domain types shared across every component: graph
// nodes and edges, chunks produced by the chunker, pointers and accounting
// records returned by search, and temporal facts. None of these types touch
// the store directly; they are the vocabulary the rest of the engine agrees on.
package types
