package update

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/docfold/docfold/document"
)

// container is the resolved parent a leaf operator mutates. Documents and
// lists both implement it; list fields are decimal indexes.
type container interface {
	// get returns the value stored at the field and whether it is present.
	get(field string) (any, bool)
	// set stores a value at the field, growing a list with nil padding
	// when the index is past the end.
	set(field string, value any)
	// remove deletes a document field. A list element is set to nil so
	// element positions are stable.
	remove(field string)
	// list returns true for list containers.
	list() bool
}

type mapContainer map[string]any

func (c mapContainer) get(field string) (any, bool) {
	v, ok := c[field]
	return v, ok
}

func (c mapContainer) set(field string, value any) {
	c[field] = value
}

func (c mapContainer) remove(field string) {
	delete(c, field)
}

func (c mapContainer) list() bool {
	return false
}

// listContainer wraps a list and the write-back used when the list is
// grown or replaced, since appending may move its backing array.
type listContainer struct {
	elems   []any
	replace func([]any)
}

func (c *listContainer) get(field string) (any, bool) {
	i, _ := strconv.Atoi(field)
	if i >= len(c.elems) {
		return nil, false
	}
	return c.elems[i], true
}

func (c *listContainer) set(field string, value any) {
	i, _ := strconv.Atoi(field)
	for i >= len(c.elems) {
		c.elems = append(c.elems, nil)
	}
	c.elems[i] = value
	c.replace(c.elems)
}

func (c *listContainer) remove(field string) {
	i, _ := strconv.Atoi(field)
	if i < len(c.elems) {
		c.elems[i] = nil
	}
}

func (c *listContainer) list() bool {
	return true
}

// listIndex parses a path segment as a non negative decimal list index.
func listIndex(segment string) (int, bool) {
	if segment == "" {
		return 0, false
	}
	for _, r := range segment {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	i, err := strconv.Atoi(segment)
	if err != nil {
		return 0, false
	}
	return i, true
}

// Apply resolves a dotted key path against the document and applies the
// operator at the final segment. Missing intermediate containers are
// created for operators that allow it: a list when the next segment is a
// decimal index, a document otherwise.
func Apply(doc document.Document, path string, value any, op Operator) error {
	parts := strings.Split(path, ".")
	return walk(mapContainer(doc), parts, value, op, 0)
}

func walk(c container, parts []string, value any, op Operator, depth int) error {
	segment := parts[depth]
	if c.list() {
		if op == OpRename {
			return fmt.Errorf("%w: $rename cannot traverse an array at %q", ErrInvalidPath, joinPath(parts, depth))
		}
		if _, ok := listIndex(segment); !ok {
			return fmt.Errorf("%w: field %q cannot be appended to an array", ErrInvalidPath, segment)
		}
	}
	if depth == len(parts)-1 {
		return appliers[op](c, segment, value)
	}

	child, ok := c.get(segment)
	if !ok || child == nil {
		if !op.creates() {
			return fmt.Errorf("%w: %s", ErrMissingField, joinPath(parts, depth+1))
		}
		if _, numeric := listIndex(parts[depth+1]); numeric {
			child = []any{}
		} else {
			child = map[string]any{}
		}
		c.set(segment, child)
	}

	switch t := child.(type) {
	case map[string]any:
		return walk(mapContainer(t), parts, value, op, depth+1)
	case []any:
		next := &listContainer{elems: t, replace: func(elems []any) {
			c.set(segment, elems)
		}}
		return walk(next, parts, value, op, depth+1)
	default:
		return fmt.Errorf("%w: %q is not a container", ErrInvalidPath, joinPath(parts, depth+1))
	}
}

func joinPath(parts []string, depth int) string {
	return strings.Join(parts[:depth], ".")
}
