// Package queue owns the document-set model, its SQLite persistence, and the
// review-queue query engine.
//
// A DocumentSet groups at most one Invoice, one Purchase Order, and one
// Goods-Receipt Note. Which documents are present is always derived from the
// non-nil slots, never stored. Status is a closed enum; Verification is only
// meaningful once a set is verified.
//
// The Store persists sets, their documents, and an activity trail in SQLite.
// The Index keeps an immutable snapshot of every set so queries never observe
// a half-updated set: writers publish a fresh slice, readers keep whatever
// snapshot they loaded.
//
// Run implements the queue pipeline (filter, search, sort, paginate) over a
// snapshot. It is deterministic for a given input and never mutates it.
//
// The database schema lives in schema.sql; bump schemaVersion when it changes.
package queue
