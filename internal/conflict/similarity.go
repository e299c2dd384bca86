package conflict

import (
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// Similarity returns the normalized edit-distance similarity of a and b:
// (maxLen - levenshtein(a,b)) / maxLen, measured in runes. Two empty strings
// are identical (1); one empty side shares nothing (0). Callers that need
// case-insensitive comparison normalize case before calling.
func Similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	la := utf8.RuneCountInString(a)
	lb := utf8.RuneCountInString(b)
	if la == 0 || lb == 0 {
		return 0
	}
	maxLen := la
	if lb > maxLen {
		maxLen = lb
	}
	distance := levenshtein.ComputeDistance(a, b)
	return float64(maxLen-distance) / float64(maxLen)
}
