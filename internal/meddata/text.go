package meddata

import (
	"strings"
	"unicode"
)

// foldCase lowercases and trims for exact case-insensitive comparison.
func foldCase(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Normalize prepares text for fuzzy comparison: lowercase, drop combining
// marks and punctuation, collapse runs of whitespace to single spaces.
// Works across the Latin, Hebrew, Cyrillic and Arabic scripts the catalog
// carries.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
		case unicode.Is(unicode.Mn, r):
			// combining marks (niqqud, harakat) are ignored
		case unicode.IsSpace(r):
			space = true
		}
	}
	return b.String()
}

// Levenshtein computes edit distance between a and b, giving up early once
// the distance provably exceeds maxDistance. Returns maxDistance+1 in that
// case so callers can compare against the cutoff directly.
func Levenshtein(a, b string, maxDistance int) int {
	ra := []rune(a)
	rb := []rune(b)
	if len(ra) > len(rb) {
		ra, rb = rb, ra
	}
	if len(rb)-len(ra) > maxDistance {
		return maxDistance + 1
	}

	prev := make([]int, len(ra)+1)
	curr := make([]int, len(ra)+1)
	for i := range prev {
		prev[i] = i
	}

	for j := 1; j <= len(rb); j++ {
		curr[0] = j
		rowMin := curr[0]
		for i := 1; i <= len(ra); i++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[i] = min3(prev[i]+1, curr[i-1]+1, prev[i-1]+cost)
			if curr[i] < rowMin {
				rowMin = curr[i]
			}
		}
		if rowMin > maxDistance {
			return maxDistance + 1
		}
		prev, curr = curr, prev
	}

	if prev[len(ra)] > maxDistance {
		return maxDistance + 1
	}
	return prev[len(ra)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
