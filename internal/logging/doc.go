// Package logging assembles the structured slog loggers used by docmatch.
//
// It owns the console and JSON handlers, the shared field names, and the
// context helpers that tag log lines with the document set or request being
// processed. NewNop gives tests and optional wiring a logger that cannot fail.
package logging
