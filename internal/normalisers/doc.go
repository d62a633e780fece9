// Package normalisers converts raw text and markdown into chunk
// sequences with deterministic identifiers.
//
// The subpackages implement the driven.Normaliser port per format; this
// package carries the shared identity and token-counting helpers plus
// the extension registry that picks a normaliser for a path.
package normalisers
