package search

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/kailas-cloud/paperbot/internal/domain/paper"
)

// Field selects which paper fields a query is matched against.
type Field uint8

const (
	// FieldKey matches the catalog key (e.g. "P0001R2").
	FieldKey Field = 1 << iota
	// FieldTitle matches the paper title.
	FieldTitle
	// FieldAuthor matches the author list.
	FieldAuthor

	// AllFields matches key, title and author.
	AllFields = FieldKey | FieldTitle | FieldAuthor
)

// Query is a case-insensitive substring query over selected fields.
// An entry matches when any term is contained in any selected field.
type Query struct {
	Terms  []string
	Fields Field
}

// Text builds a query matching text against key, title and author.
func Text(text string) Query {
	return Query{Terms: []string{text}, Fields: AllFields}
}

// Keys builds a query matching any of the patterns against the catalog key only.
func Keys(patterns ...string) Query {
	return Query{Terms: patterns, Fields: FieldKey}
}

// Result is an ordered list of matches. Capped is set when more matches
// existed beyond the limit.
type Result struct {
	Papers []paper.Paper
	Capped bool
}

// Empty reports whether nothing matched.
func (r Result) Empty() bool { return len(r.Papers) == 0 }

// Search scans the catalog in order and collects up to limit searchable
// entries matching q. It stops at the first match beyond the limit.
func Search(cat *paper.Catalog, q Query, limit int) Result {
	if limit < 0 {
		limit = 0
	}

	f := newFolder()
	terms := make([]string, len(q.Terms))
	for i, t := range q.Terms {
		terms[i] = f.fold(t)
	}

	var res Result
	entries := cat.Entries()
	for i := range entries {
		p := &entries[i]
		if !p.Searchable() || !matches(f, p, terms, q.Fields) {
			continue
		}
		if len(res.Papers) == limit {
			res.Capped = true
			break
		}
		res.Papers = append(res.Papers, *p)
	}
	return res
}

func matches(f *folder, p *paper.Paper, terms []string, fields Field) bool {
	if len(terms) == 0 {
		return false
	}
	var candidates [3]string
	n := 0
	if fields&FieldKey != 0 {
		candidates[n] = f.fold(p.Key())
		n++
	}
	if fields&FieldTitle != 0 {
		candidates[n] = f.fold(p.Title())
		n++
	}
	if fields&FieldAuthor != 0 {
		candidates[n] = f.fold(p.Author())
		n++
	}

	for _, c := range candidates[:n] {
		for _, t := range terms {
			if strings.Contains(c, t) {
				return true
			}
		}
	}
	return false
}

// folder applies NFC normalization and Unicode case folding.
// cases.Caser is stateful, so each search gets its own.
type folder struct {
	caser cases.Caser
}

func newFolder() *folder {
	return &folder{caser: cases.Fold()}
}

func (f *folder) fold(s string) string {
	return f.caser.String(norm.NFC.String(s))
}
