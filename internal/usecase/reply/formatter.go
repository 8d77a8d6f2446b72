// Package reply turns search results into chat messages of bounded length.
package reply

import (
	"strings"
	"unicode/utf8"

	"github.com/kailas-cloud/paperbot/internal/domain/paper"
	"github.com/kailas-cloud/paperbot/internal/usecase/search"
)

// DefaultMaxMessageLength is the message size limit in code points when none is configured.
const DefaultMaxMessageLength = 2500

// Fixed notices appended to result messages.
const (
	NothingFound = "Nothing found. Try another query."
	MoreResults  = "There are more results; refine your query."
)

// maxEchoedQuery bounds how much of the query is repeated in the header.
const maxEchoedQuery = 64

// Formatter splits results into messages no longer than maxLen code points.
// A single paper block longer than the limit is sent whole in its own message.
type Formatter struct {
	maxLen int
}

// NewFormatter creates a Formatter. maxLen <= 0 uses DefaultMaxMessageLength.
func NewFormatter(maxLen int) *Formatter {
	if maxLen <= 0 {
		maxLen = DefaultMaxMessageLength
	}
	return &Formatter{maxLen: maxLen}
}

// MaxLength returns the message size limit.
func (f *Formatter) MaxLength() int { return f.maxLen }

// Header returns the first line of every message for query.
func Header(query string) string {
	if utf8.RuneCountInString(query) > maxEchoedQuery {
		r := []rune(query)
		query = string(r[:maxEchoedQuery]) + "…"
	}
	return "Results for \"" + query + "\":\n\n"
}

// Block renders one paper.
func Block(p *paper.Paper) string {
	return p.Title() + " from " + p.Author() + "\n" + p.Link() + "\n\n"
}

// Format renders res as one or more messages in match order.
func (f *Formatter) Format(query string, res search.Result) []string {
	header := Header(query)

	if res.Empty() && !res.Capped {
		return []string{header + NothingFound}
	}

	b := newBuffer(header, f.maxLen)
	for i := range res.Papers {
		b.add(Block(&res.Papers[i]))
	}
	if res.Capped {
		b.add(MoreResults)
	}
	return b.flush()
}

type buffer struct {
	header    string
	headerLen int
	maxLen    int

	cur    strings.Builder
	curLen int
	out    []string
}

func newBuffer(header string, maxLen int) *buffer {
	b := &buffer{header: header, headerLen: utf8.RuneCountInString(header), maxLen: maxLen}
	b.reset()
	return b
}

func (b *buffer) reset() {
	b.cur.Reset()
	b.cur.WriteString(b.header)
	b.curLen = b.headerLen
}

// add appends s, sealing the current message first when s would not fit.
func (b *buffer) add(s string) {
	n := utf8.RuneCountInString(s)
	if b.curLen+n > b.maxLen && b.curLen > b.headerLen {
		b.seal()
	}
	b.cur.WriteString(s)
	b.curLen += n
}

func (b *buffer) seal() {
	if b.curLen > b.headerLen {
		b.out = append(b.out, b.cur.String())
	}
	b.reset()
}

func (b *buffer) flush() []string {
	b.seal()
	return b.out
}
