// Package variance defines the tolerance policy used by the matching engine.
//
// A Policy holds the fuzzy description threshold and one Tolerance per
// numeric field (quantity, unit price, total amount). Policies are plain
// values: validate once at the configuration boundary with Validate, then
// share the result freely across goroutines.
//
// Tolerance.Check is the single place where deltas are computed and
// classified. A breach is reported when the delta is strictly greater than the
// configured tolerance; it is major when the delta exceeds MajorMultiplier
// times the tolerance. The multiplier is a fixed policy constant.
package variance
