package search

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/kailas-cloud/paperbot/internal/domain"
)

// ExtractQuery returns the remainder of a command message after the first
// whitespace. A message without whitespace has no query and yields
// domain.ErrMissingQuery. The remainder is returned verbatim, so "/paper "
// gives an empty query that matches every searchable entry.
func ExtractQuery(text string) (string, error) {
	i := strings.IndexFunc(text, unicode.IsSpace)
	if i < 0 {
		return "", domain.ErrMissingQuery
	}
	_, size := utf8.DecodeRuneInString(text[i:])
	return text[i+size:], nil
}
