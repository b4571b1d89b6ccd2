// Package api defines the wire-format types and services shared by the HTTP
// server and the CLI. It translates queue models into transport-friendly DTOs
// so consumers can render the review queue without coupling to internal types.
//
// # Key Types
//
// DocumentSetView: one set with status, verification, issue counts, priority
// score, and rank within the current query.
//
// QueuePage: one filtered, sorted page of the review queue.
//
// # Services
//
// QueueService runs queue queries over any queue.Repository, normally the
// in-memory index. ActionService applies reviewer actions through the
// lifecycle rules, persists the result, records activity, and republishes the
// set to the index.
//
// # Design Notes
//
// DTOs use camelCase JSON tags. Enums are exposed as lowercase strings and
// timestamps use RFC3339 with milliseconds.
package api
