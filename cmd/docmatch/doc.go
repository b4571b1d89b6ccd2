// Package main hosts the docmatch CLI entrypoint and command graph.
//
// The Cobra command tree reads and updates the document-set queue directly
// through the internal packages: listing and filtering the review queue,
// applying reviewer actions, importing bundles, running evaluation batches,
// and scaffolding configuration. The serve command runs the daemon with its
// HTTP API and background evaluation loop.
//
// Keep this package lean: new behaviour belongs in the internal packages and
// is surfaced here through dedicated commands or flags.
package main
