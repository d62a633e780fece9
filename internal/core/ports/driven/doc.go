// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports): indexes, stores and the embedding backend.
package driven
