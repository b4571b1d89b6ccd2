package textutil

import "testing"

func TestSimilarityIdenticalAfterFolding(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
	}{
		{"both empty", "", ""},
		{"exact", "Steel bolts M8", "Steel bolts M8"},
		{"case", "STEEL BOLTS M8", "steel bolts m8"},
		{"whitespace", "  Steel   bolts\tM8 ", "Steel bolts M8"},
		{"fullwidth", "ＡＢＣ widget", "ABC widget"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Similarity(tt.a, tt.b); got != 100 {
				t.Errorf("Similarity(%q, %q) = %d, want 100", tt.a, tt.b, got)
			}
		})
	}
}

func TestSimilarityCompletelyDifferent(t *testing.T) {
	if got := Similarity("abc", "xyz"); got != 0 {
		t.Errorf("Similarity(abc, xyz) = %d, want 0", got)
	}
	if got := Similarity("", "widget"); got != 0 {
		t.Errorf("Similarity(empty, widget) = %d, want 0", got)
	}
}

func TestSimilarityPartial(t *testing.T) {
	// one substitution over ten runes
	got := Similarity("office cha", "office chb")
	if got != 90 {
		t.Errorf("Similarity(one edit in ten) = %d, want 90", got)
	}
}

func TestSimilaritySymmetric(t *testing.T) {
	pairs := [][2]string{
		{"Copy paper A4 80gsm", "Copy paper A4 75gsm"},
		{"Toner cartridge", "Toner cartridges black"},
		{"kitten", "sitting"},
	}
	for _, p := range pairs {
		if Similarity(p[0], p[1]) != Similarity(p[1], p[0]) {
			t.Errorf("Similarity not symmetric for %q / %q", p[0], p[1])
		}
	}
}

func TestLevenshteinClassic(t *testing.T) {
	if got := levenshtein([]rune("kitten"), []rune("sitting")); got != 3 {
		t.Errorf("levenshtein(kitten, sitting) = %d, want 3", got)
	}
}

func TestContainsFold(t *testing.T) {
	tests := []struct {
		haystack string
		needle   string
		want     bool
	}{
		{"Acme Industrial Supply", "acme", true},
		{"Acme Industrial Supply", "INDUSTRIAL sup", true},
		{"PO-2024-0042", "po-2024", true},
		{"Acme", "zeta", false},
		{"anything", "", true},
	}
	for _, tt := range tests {
		if got := ContainsFold(tt.haystack, tt.needle); got != tt.want {
			t.Errorf("ContainsFold(%q, %q) = %v, want %v", tt.haystack, tt.needle, got, tt.want)
		}
	}
}
