package textutil

import (
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Casers may keep state between calls, so each goroutine borrows its own.
var folders = sync.Pool{
	New: func() any {
		caser := cases.Fold()
		return &caser
	},
}

// Fold normalizes text for comparison: NFKC composition, Unicode case folding,
// and collapsing runs of whitespace into a single space.
func Fold(text string) string {
	if text == "" {
		return ""
	}
	folder := folders.Get().(*cases.Caser)
	folded := folder.String(norm.NFKC.String(text))
	folders.Put(folder)
	return strings.Join(strings.Fields(folded), " ")
}

// ContainsFold reports whether needle occurs in haystack ignoring case and
// Unicode width differences. An empty needle always matches.
func ContainsFold(haystack, needle string) bool {
	needle = Fold(needle)
	if needle == "" {
		return true
	}
	return strings.Contains(Fold(haystack), needle)
}
