// Package textutil provides text normalization and fuzzy similarity helpers
// used when reconciling free-text fields such as line-item descriptions.
//
// The primary use cases are:
//   - Folding text (Unicode NFKC, case folding, whitespace collapse) so
//     comparisons ignore cosmetic differences
//   - Scoring two descriptions on a 0-100 scale using normalized edit distance
//   - Case-insensitive substring search over folded text
package textutil
