package textutil

// Similarity scores two strings from 0 (nothing in common) to 100 (identical
// after folding) using Levenshtein distance normalized by the longer input.
// Two empty strings are identical.
func Similarity(a, b string) int {
	ra := []rune(Fold(a))
	rb := []rune(Fold(b))
	longest := max(len(ra), len(rb))
	if longest == 0 {
		return 100
	}
	distance := levenshtein(ra, rb)
	return (longest - distance) * 100 / longest
}

func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
