package search

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize folds s into the form used for matching: compatibility
// decomposition, combining marks removed, lower case, every run of
// non-alphanumeric runes collapsed to a single space.
func Normalize(s string) string {
	// transform chains carry state, so one is built per call.
	fold := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(fold, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	b.Grow(len(folded))
	pendingSpace := false
	for _, r := range strings.ToLower(folded) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(r)
			continue
		}
		pendingSpace = true
	}
	return b.String()
}

// IsBlank reports whether a query carries no searchable characters.
func IsBlank(query string) bool {
	return Normalize(query) == ""
}

type text struct {
	norm   string
	tokens []string
}

func newText(s string) text {
	n := Normalize(s)
	return text{norm: n, tokens: strings.Fields(n)}
}
