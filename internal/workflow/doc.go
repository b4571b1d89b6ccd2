// Package workflow evaluates document sets in the background.
//
// A Manager fans evaluation out to a fixed pool of workers, one set per task,
// persists every set whose status or issue counts changed together with an
// activity record, and republishes the result to the in-memory queue index.
// A failing set is recorded as processing_failed and never aborts its batch.
// Start launches a poll loop that re-evaluates open sets on an interval.
package workflow
