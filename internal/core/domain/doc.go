// Package domain contains the core business entities for the knowledge
// engine: documents, chunks, queries, ranked results and relation edges.
//
// Domain types have no dependencies on adapters or infrastructure.
package domain
