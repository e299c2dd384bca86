package conflict

import "testing"

func TestSimilarityIdentical(t *testing.T) {
	for _, s := range []string{"", "a", "hello there", "çağrı"} {
		if got := Similarity(s, s); got != 1 {
			t.Errorf("Similarity(%q, %q) = %v, want 1", s, s, got)
		}
	}
}

func TestSimilarityEmptySides(t *testing.T) {
	if got := Similarity("", ""); got != 1 {
		t.Errorf("two empty strings should be identical, got %v", got)
	}
	if got := Similarity("", "x"); got != 0 {
		t.Errorf("one empty side shares nothing, got %v", got)
	}
	if got := Similarity("x", ""); got != 0 {
		t.Errorf("one empty side shares nothing, got %v", got)
	}
}

func TestSimilaritySymmetric(t *testing.T) {
	pairs := [][2]string{
		{"kitten", "sitting"},
		{"hello", "hallo"},
		{"see you at 5", "see you at 6"},
		{"short", "a much longer message entirely"},
	}
	for _, p := range pairs {
		ab := Similarity(p[0], p[1])
		ba := Similarity(p[1], p[0])
		if ab != ba {
			t.Errorf("Similarity(%q,%q)=%v but reversed=%v", p[0], p[1], ab, ba)
		}
		if ab < 0 || ab > 1 {
			t.Errorf("Similarity(%q,%q)=%v out of range", p[0], p[1], ab)
		}
	}
}

func TestSimilarityKnownDistance(t *testing.T) {
	// levenshtein("kitten","sitting") = 3, max len 7.
	want := float64(7-3) / 7
	if got := Similarity("kitten", "sitting"); got != want {
		t.Errorf("Similarity(kitten, sitting) = %v, want %v", got, want)
	}
}
