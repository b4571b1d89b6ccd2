// Package daemon coordinates the long-running docmatch process.
//
// It wires configuration, the document-set store, the in-memory queue index,
// and the evaluation workflow into a single lifecycle with flock-based locking
// so only one instance serves a data directory. The daemon also owns the gin
// HTTP server that exposes the review queue and reviewer actions.
//
// Keep orchestration here: matching and lifecycle rules live in their own
// packages while the daemon focuses on startup, shutdown, and transport.
package daemon
