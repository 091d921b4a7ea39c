package query

import (
	"fmt"

	"github.com/docfold/docfold/document"
)

// Options controls how a cursor walks its document sequence.
type Options struct {
	// Skip is the number of matching documents to pass over.
	Skip int
	// Limit bounds the number of documents returned. Zero or a negative
	// value means unbounded.
	Limit int
}

// Cursor wraps an ordered sequence of documents with lazy selector
// matching, skip/limit and field projection. Documents returned by a
// cursor are copies and never alias collection state.
type Cursor struct {
	docs    []document.Document
	filter  *Filter
	fields  any
	opts    Options
	pos     int
	skipped int
	yielded int
	next    document.Document
	err     error
}

// NewCursor returns a cursor over the given documents filtered by the
// given selector.
func NewCursor(docs []document.Document, selector any, fields any, opts Options) *Cursor {
	return &Cursor{
		docs:   docs,
		filter: NewFilter(selector),
		fields: fields,
		opts:   opts,
	}
}

// HasNext returns true if the cursor has documents left. Match and
// projection failures stop the cursor and are reported by Err.
func (c *Cursor) HasNext() bool {
	if c.next != nil || c.err != nil {
		return c.next != nil
	}
	if c.opts.Limit > 0 && c.yielded >= c.opts.Limit {
		return false
	}
	for c.pos < len(c.docs) {
		doc := c.docs[c.pos]
		c.pos++

		match, err := c.filter.Match(doc)
		if err != nil {
			c.err = err
			return false
		}
		if !match {
			continue
		}
		if c.skipped < c.opts.Skip {
			c.skipped++
			continue
		}
		out, err := project(doc, c.fields)
		if err != nil {
			c.err = err
			return false
		}
		c.next = out
		return true
	}
	return false
}

// Next returns the next matching document, or nil if the cursor is
// exhausted.
func (c *Cursor) Next() document.Document {
	if !c.HasNext() {
		return nil
	}
	doc := c.next
	c.next = nil
	c.yielded++
	return doc
}

// Err returns the first error encountered while iterating.
func (c *Cursor) Err() error {
	return c.err
}

// Fetch returns all remaining matching documents.
func (c *Cursor) Fetch() ([]document.Document, error) {
	out := make([]document.Document, 0)
	for c.HasNext() {
		out = append(out, c.Next())
	}
	return out, c.err
}

// ForEach calls fn for every remaining matching document.
func (c *Cursor) ForEach(fn func(document.Document)) error {
	for c.HasNext() {
		fn(c.Next())
	}
	return c.err
}

// Count returns the number of remaining matching documents without
// consuming the cursor.
func (c *Cursor) Count() (int, error) {
	count := 0
	skipped := c.skipped
	yielded := c.yielded
	for pos := c.pos; pos < len(c.docs); pos++ {
		if c.opts.Limit > 0 && yielded+count >= c.opts.Limit {
			break
		}
		match, err := c.filter.Match(c.docs[pos])
		if err != nil {
			return 0, err
		}
		if !match {
			continue
		}
		if skipped < c.opts.Skip {
			skipped++
			continue
		}
		count++
	}
	return count, nil
}

// project builds the returned document for the given field selection.
// A nil selection copies the whole document. A list of field names or a
// map of truthy values selects fields to include; a map of falsy values
// selects fields to exclude. The id field is always included unless
// excluded explicitly.
func project(doc document.Document, fields any) (document.Document, error) {
	switch t := fields.(type) {
	case nil:
		return document.CopyDocument(doc), nil
	case []string:
		include := make(map[string]any, len(t))
		for _, name := range t {
			include[name] = true
		}
		return project(doc, include)
	case []any:
		include := make(map[string]any, len(t))
		for _, name := range t {
			s, ok := name.(string)
			if !ok {
				return nil, fmt.Errorf("invalid field name %v", name)
			}
			include[s] = true
		}
		return project(doc, include)
	case map[string]any:
		return projectMap(doc, t)
	default:
		return nil, fmt.Errorf("invalid field selection %T", fields)
	}
}

func projectMap(doc document.Document, fields map[string]any) (document.Document, error) {
	includes := 0
	excludes := 0
	for name, v := range fields {
		if truthy(v) {
			includes++
		} else if name != document.IDField {
			excludes++
		}
	}
	if includes > 0 && excludes > 0 {
		return nil, fmt.Errorf("cannot mix included and excluded fields")
	}

	out := document.Document{}
	if includes > 0 {
		for name, v := range fields {
			if !truthy(v) {
				continue
			}
			if val, ok := doc[name]; ok {
				out[name] = document.Copy(val)
			}
		}
	} else {
		for name, val := range doc {
			if v, ok := fields[name]; ok && !truthy(v) {
				continue
			}
			out[name] = document.Copy(val)
		}
		return out, nil
	}
	if v, ok := fields[document.IDField]; ok && !truthy(v) {
		return out, nil
	}
	if id, ok := doc[document.IDField]; ok {
		out[document.IDField] = id
	}
	return out, nil
}

func truthy(v any) bool {
	if b, ok := v.(bool); ok {
		return b
	}
	if n, ok := document.Number(v); ok {
		return n != 0
	}
	return false
}
