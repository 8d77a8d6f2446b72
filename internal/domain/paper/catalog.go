package paper

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Catalog is an immutable, ordered collection of entries.
// Order is the order of keys in the source document.
type Catalog struct {
	entries []Paper
}

// NewCatalog creates a catalog from entries. The slice is copied.
func NewCatalog(entries []Paper) *Catalog {
	cp := make([]Paper, len(entries))
	copy(cp, entries)
	return &Catalog{entries: cp}
}

// Len returns the number of entries, searchable or not.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.entries)
}

// Entries returns the entries in source order. Callers must not modify the slice.
func (c *Catalog) Entries() []Paper {
	if c == nil {
		return nil
	}
	return c.entries
}

// Searchable returns the number of entries that take part in search.
func (c *Catalog) Searchable() int {
	n := 0
	for i := range c.Entries() {
		if c.entries[i].Searchable() {
			n++
		}
	}
	return n
}

// Decode reads a JSON object of the form {"<key>": {"type": ..., "title": ...}, ...}
// keeping the source key order. Entry values that are not objects are skipped,
// as are non-string field values.
func Decode(r io.Reader) (*Catalog, error) {
	dec := json.NewDecoder(r)

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("read catalog start: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("catalog must be a JSON object, got %v", tok)
	}

	var entries []Paper
	for dec.More() {
		tok, err = dec.Token()
		if err != nil {
			return nil, fmt.Errorf("read catalog key: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected catalog key %v", tok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("read entry %q: %w", key, err)
		}
		p, ok := decodeEntry(key, raw)
		if !ok {
			continue
		}
		entries = append(entries, p)
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("read catalog end: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("trailing data after catalog")
	}

	return &Catalog{entries: entries}, nil
}

func decodeEntry(key string, raw json.RawMessage) (Paper, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return Paper{}, false
	}

	b := NewBuilder(key)
	if v, ok := stringField(fields, "type"); ok {
		b.Type(v)
	}
	if v, ok := stringField(fields, "title"); ok {
		b.Title(v)
	}
	if v, ok := stringField(fields, "author"); ok {
		b.Author(v)
	}
	if v, ok := stringField(fields, "link"); ok {
		b.Link(v)
	}
	return b.Build(), true
}

func stringField(fields map[string]json.RawMessage, name string) (string, bool) {
	raw, ok := fields[name]
	if !ok || string(raw) == "null" {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}
