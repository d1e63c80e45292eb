package nameutil

import (
	"strings"
	"unicode"
)

// Slugify lowercases s and joins its runs of letters and digits with single
// dashes. Everything else is treated as a separator.
func Slugify(s string) string {
	words := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return strings.Join(words, "-")
}
