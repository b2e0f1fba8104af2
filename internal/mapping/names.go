package mapping

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// SplitName splits on whitespace: the first token is the first name and the
// remaining tokens, joined by single spaces, are the last name.
func SplitName(name string) (first, last string) {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return "", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

// TitleCase upper-cases the first letter of each whitespace-delimited word and
// lower-cases the rest. Runs of whitespace collapse to a single space.
func TitleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + strings.ToLower(w[size:])
	}
	return strings.Join(words, " ")
}
