// Package driving provides interfaces for use-case entry points
// (primary/inbound ports) called by the CLI and other presentation
// layers.
package driving
