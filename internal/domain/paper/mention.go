package paper

import (
	"regexp"
	"strings"
)

// mentionRegex matches bracketed references such as [P1234], {N4567} or <P0001R2>.
var mentionRegex = regexp.MustCompile(
	`[\[{<]((?i:LEWG|CWG|EWG|LWG|EDIT|FS|SD|N|P|D))([0-9]+)(?:[rR]([0-9]*))?[\]}>]`,
)

// Mention is a paper reference found in free text.
type Mention struct {
	Kind     string
	Number   string
	Revision string
}

// Pattern returns the key fragment the mention refers to, e.g. "P1234r2".
func (m Mention) Pattern() string {
	var b strings.Builder
	b.WriteString(m.Kind)
	b.WriteString(m.Number)
	if m.Revision != "" {
		b.WriteString("r")
		b.WriteString(m.Revision)
	}
	return b.String()
}

// FindMentions returns every bracketed paper reference in text, in order of appearance.
func FindMentions(text string) []Mention {
	matches := mentionRegex.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	out := make([]Mention, 0, len(matches))
	for _, m := range matches {
		out = append(out, Mention{Kind: m[1], Number: m[2], Revision: m[3]})
	}
	return out
}
