// Package lifecycle applies the document-set state machine.
//
// Evaluate runs the matcher and moves a set between incomplete,
// ready_for_review, verified (auto approved), and processing_failed.
// Verified, rejected, and failed sets are left alone by automatic
// evaluation. Reviewer actions (approve, reject, assign, retry, reopen) are
// validated against the same machine; an illegal request returns an
// *IllegalTransitionError and the set is not modified.
//
// Every function works on a copy of the set and returns the activity entry
// describing the change, so callers decide when to persist and publish.
package lifecycle
