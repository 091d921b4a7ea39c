package query

import (
	"fmt"

	"github.com/docfold/docfold/document"
	"github.com/docfold/docfold/oid"
)

const (
	equalFilter          = "$eq"
	notEqualFilter       = "$ne"
	greaterFilter        = "$gt"
	greaterOrEqualFilter = "$gte"
	lessFilter           = "$lt"
	lessOrEqualFilter    = "$lte"
	inFilter             = "$in"
	notInFilter          = "$nin"
	existsFilter         = "$exists"
	notFilter            = "$not"
	andFilter            = "$and"
	orFilter             = "$or"
	norFilter            = "$nor"
)

// Filter is a set of operators used to match documents.
//
// A nil or empty selector matches every document. A bare value selector
// matches against the document id. A map selector maps field paths to
// conditions: either a literal value compared for deep equality or a
// map of comparison operators.
type Filter struct {
	value map[string]any
}

// NewFilter returns a Filter for the given selector value.
func NewFilter(selector any) *Filter {
	switch t := selector.(type) {
	case nil:
		return &Filter{}
	case map[string]any:
		return &Filter{value: t}
	case oid.ObjectID:
		return &Filter{value: map[string]any{document.IDField: t}}
	default:
		return &Filter{value: map[string]any{document.IDField: t}}
	}
}

// Empty returns true if the filter matches every document.
func (f *Filter) Empty() bool {
	return len(f.value) == 0
}

// Match returns true if the given document satisfies the filter.
func (f *Filter) Match(doc document.Document) (bool, error) {
	return f.matchDocument(doc, f.value)
}

// Equal reports deep structural equality of two values.
func (f *Filter) Equal(a, b any) bool {
	return document.Equal(a, b)
}

func (f *Filter) matchDocument(doc document.Document, value map[string]any) (bool, error) {
	for key, val := range value {
		switch key {
		case andFilter:
			match, err := f.matchAll(doc, val)
			if err != nil || !match {
				return false, err
			}
		case orFilter:
			match, err := f.matchAny(doc, val)
			if err != nil || !match {
				return false, err
			}
		case norFilter:
			match, err := f.matchAny(doc, val)
			if err != nil || match {
				return false, err
			}
		default:
			field, exists := document.Get(doc, key)
			if key == document.IDField {
				if cond, ok := val.(map[string]any); !ok || !isOperatorCondition(cond) {
					if !matchKey(field, val) {
						return false, nil
					}
					continue
				}
			}
			match, err := f.matchField(field, exists, val)
			if err != nil || !match {
				return false, err
			}
		}
	}
	return true, nil
}

func (f *Filter) matchAll(doc document.Document, value any) (bool, error) {
	conds, ok := value.([]any)
	if !ok {
		return false, fmt.Errorf("expected a list of conditions, got %T", value)
	}
	for _, c := range conds {
		cond, ok := c.(map[string]any)
		if !ok {
			return false, fmt.Errorf("expected a condition, got %T", c)
		}
		match, err := f.matchDocument(doc, cond)
		if err != nil || !match {
			return false, err
		}
	}
	return true, nil
}

func (f *Filter) matchAny(doc document.Document, value any) (bool, error) {
	conds, ok := value.([]any)
	if !ok {
		return false, fmt.Errorf("expected a list of conditions, got %T", value)
	}
	for _, c := range conds {
		cond, ok := c.(map[string]any)
		if !ok {
			return false, fmt.Errorf("expected a condition, got %T", c)
		}
		match, err := f.matchDocument(doc, cond)
		if err != nil {
			return false, err
		}
		if match {
			return true, nil
		}
	}
	return false, nil
}

func (f *Filter) matchField(field any, exists bool, value any) (bool, error) {
	cond, ok := value.(map[string]any)
	if !ok || !isOperatorCondition(cond) {
		return f.matchEqual(field, value), nil
	}
	for key, val := range cond {
		switch key {
		case equalFilter:
			if !f.matchEqual(field, val) {
				return false, nil
			}
		case notEqualFilter:
			if f.matchEqual(field, val) {
				return false, nil
			}
		case greaterFilter:
			cmp, ok := compareValues(field, val)
			if !ok || cmp <= 0 {
				return false, nil
			}
		case greaterOrEqualFilter:
			cmp, ok := compareValues(field, val)
			if !ok || cmp < 0 {
				return false, nil
			}
		case lessFilter:
			cmp, ok := compareValues(field, val)
			if !ok || cmp >= 0 {
				return false, nil
			}
		case lessOrEqualFilter:
			cmp, ok := compareValues(field, val)
			if !ok || cmp > 0 {
				return false, nil
			}
		case inFilter:
			list, ok := val.([]any)
			if !ok {
				return false, fmt.Errorf("%s requires a list, got %T", inFilter, val)
			}
			if !f.containsEqual(list, field) {
				return false, nil
			}
		case notInFilter:
			list, ok := val.([]any)
			if !ok {
				return false, fmt.Errorf("%s requires a list, got %T", notInFilter, val)
			}
			if f.containsEqual(list, field) {
				return false, nil
			}
		case existsFilter:
			want, ok := val.(bool)
			if !ok {
				return false, fmt.Errorf("%s requires a bool, got %T", existsFilter, val)
			}
			if exists != want {
				return false, nil
			}
		case notFilter:
			match, err := f.matchField(field, exists, val)
			if err != nil || match {
				return false, err
			}
		default:
			return false, fmt.Errorf("invalid filter operator %q", key)
		}
	}
	return true, nil
}

// matchEqual reports equality between a document field and a literal
// condition. A list field also matches if any of its elements is equal
// to the condition.
func (f *Filter) matchEqual(field any, value any) bool {
	if document.Equal(field, value) {
		return true
	}
	list, ok := field.([]any)
	if !ok {
		return false
	}
	return f.containsEqual(list, value)
}

// matchKey compares identity values by canonical key, so a numeric id
// matches the normalized string form it was stored under at insert.
func matchKey(field, value any) bool {
	if document.Equal(field, value) {
		return true
	}
	key := document.Key(value)
	return key != "" && key == document.Key(field)
}

func (f *Filter) containsEqual(list []any, value any) bool {
	for _, v := range list {
		if document.Equal(v, value) {
			return true
		}
	}
	return false
}

// isOperatorCondition returns true if every key of the condition is a
// filter operator. Maps with plain keys are literal equality conditions.
func isOperatorCondition(cond map[string]any) bool {
	if len(cond) == 0 {
		return false
	}
	for key := range cond {
		if len(key) == 0 || key[0] != '$' {
			return false
		}
	}
	return true
}

func compareValues(a, b any) (int, bool) {
	if an, ok := document.Number(a); ok {
		bn, ok := document.Number(b)
		if !ok {
			return 0, false
		}
		switch {
		case an < bn:
			return -1, true
		case an > bn:
			return 1, true
		default:
			return 0, true
		}
	}
	as, ok := a.(string)
	if !ok {
		return 0, false
	}
	bs, ok := b.(string)
	if !ok {
		return 0, false
	}
	switch {
	case as < bs:
		return -1, true
	case as > bs:
		return 1, true
	default:
		return 0, true
	}
}
