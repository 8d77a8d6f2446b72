// Package paper models catalog entries describing standardization proposals.
package paper

// TypePaper is the only entry type that takes part in search.
const TypePaper = "paper"

type field uint8

const (
	hasType field = 1 << iota
	hasTitle
	hasAuthor
	hasLink

	hasAll = hasType | hasTitle | hasAuthor | hasLink
)

// Paper is a single catalog entry (immutable value object).
// Fields missing from the source are tracked separately from empty strings.
type Paper struct {
	key     string
	typ     string
	title   string
	author  string
	link    string
	present field
}

// Builder assembles a Paper from decoded fields.
type Builder struct {
	p Paper
}

// NewBuilder starts a Paper with the given catalog key.
func NewBuilder(key string) *Builder {
	return &Builder{p: Paper{key: key}}
}

// Type sets the entry type.
func (b *Builder) Type(v string) *Builder {
	b.p.typ = v
	b.p.present |= hasType
	return b
}

// Title sets the entry title.
func (b *Builder) Title(v string) *Builder {
	b.p.title = v
	b.p.present |= hasTitle
	return b
}

// Author sets the entry author.
func (b *Builder) Author(v string) *Builder {
	b.p.author = v
	b.p.present |= hasAuthor
	return b
}

// Link sets the entry link.
func (b *Builder) Link(v string) *Builder {
	b.p.link = v
	b.p.present |= hasLink
	return b
}

// Build returns the assembled Paper.
func (b *Builder) Build() Paper { return b.p }

// New creates a complete Paper with all searchable fields present.
func New(key, typ, title, author, link string) Paper {
	return NewBuilder(key).Type(typ).Title(title).Author(author).Link(link).Build()
}

// Key returns the catalog key (e.g. "P0001R2").
func (p *Paper) Key() string { return p.key }

// Type returns the entry type.
func (p *Paper) Type() string { return p.typ }

// Title returns the entry title.
func (p *Paper) Title() string { return p.title }

// Author returns the entry author(s).
func (p *Paper) Author() string { return p.author }

// Link returns the URI of the full document.
func (p *Paper) Link() string { return p.link }

// Searchable reports whether the entry has type, title, author and link,
// a non-empty title and the paper type.
func (p *Paper) Searchable() bool {
	return p.present&hasAll == hasAll && p.typ == TypePaper && p.title != ""
}
