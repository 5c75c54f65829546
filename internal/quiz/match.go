package quiz

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/kozaktomas/face-quiz/internal/faceapi"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// removeDiacritics removes diacritical marks from a string (e.g., "Jiří" -> "Jiri").
func removeDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)
	return result
}

// normalizeChoice lowercases, strips diacritics and collapses whitespace.
func normalizeChoice(s string) string {
	s = strings.ToLower(removeDiacritics(s))
	return strings.Join(strings.Fields(s), " ")
}

// MatchChoice resolves typed input to one of q's choices: the exact choice
// text, the 1-based choice number, or the text ignoring case, diacritics and
// spacing, in that order.
func MatchChoice(q faceapi.Question, input string) (string, bool) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", false
	}

	// Exact text wins over numbering, choices may themselves be numbers.
	for _, c := range q.Choices {
		if c == input {
			return c, true
		}
	}
	if n, err := strconv.Atoi(input); err == nil {
		if n >= 1 && n <= len(q.Choices) {
			return q.Choices[n-1], true
		}
	}

	want := normalizeChoice(input)
	for _, c := range q.Choices {
		if normalizeChoice(c) == want {
			return c, true
		}
	}
	return "", false
}
