package update

import (
	"fmt"
	"strings"

	"github.com/docfold/docfold/document"
	"github.com/docfold/docfold/query"
)

// Operator is a named mutation primitive applied at a resolved path.
type Operator int

const (
	OpSet Operator = iota
	OpUnset
	OpInc
	OpPush
	OpPushAll
	OpAddToSet
	OpPop
	OpPull
	OpPullAll
	OpRename
	OpBit
)

var operatorNames = map[string]Operator{
	"$set":      OpSet,
	"$unset":    OpUnset,
	"$inc":      OpInc,
	"$push":     OpPush,
	"$pushAll":  OpPushAll,
	"$addToSet": OpAddToSet,
	"$pop":      OpPop,
	"$pull":     OpPull,
	"$pullAll":  OpPullAll,
	"$rename":   OpRename,
	"$bit":      OpBit,
}

// Lookup returns the operator for the given name.
func Lookup(name string) (Operator, bool) {
	op, ok := operatorNames[name]
	return op, ok
}

func (op Operator) String() string {
	for name, o := range operatorNames {
		if o == op {
			return name
		}
	}
	return "<unknown operator>"
}

// creates returns true if the operator creates missing containers while
// resolving its path. Operators that only remove or move existing values
// never do.
func (op Operator) creates() bool {
	switch op {
	case OpUnset, OpPop, OpRename, OpPull, OpPullAll, OpBit:
		return false
	default:
		return true
	}
}

type applyFunc func(c container, field string, value any) error

// appliers is the operator dispatch table, indexed by Operator.
var appliers = [...]applyFunc{
	OpSet:      applySet,
	OpUnset:    applyUnset,
	OpInc:      applyInc,
	OpPush:     applyPush,
	OpPushAll:  applyPushAll,
	OpAddToSet: applyAddToSet,
	OpPop:      applyPop,
	OpPull:     applyPull,
	OpPullAll:  applyPullAll,
	OpRename:   applyRename,
	OpBit:      applyBit,
}

func applySet(c container, field string, value any) error {
	c.set(field, document.Copy(value))
	return nil
}

// applyUnset deletes a document field. On a list container the element is
// set to nil instead so the list never shrinks. Absent fields are a no-op.
func applyUnset(c container, field string, value any) error {
	c.remove(field)
	return nil
}

func applyInc(c container, field string, value any) error {
	n, ok := document.Number(value)
	if !ok {
		return fmt.Errorf("%w: $inc requires a numeric argument, got %T", ErrInvalidModifier, value)
	}
	cur, exists := c.get(field)
	if !exists || cur == nil {
		c.set(field, n)
		return nil
	}
	base, ok := document.Number(cur)
	if !ok {
		return fmt.Errorf("%w: $inc target %q is not numeric", ErrInvalidModifier, field)
	}
	c.set(field, base+n)
	return nil
}

func applyPush(c container, field string, value any) error {
	cur, exists := c.get(field)
	if !exists || cur == nil {
		c.set(field, []any{document.Copy(value)})
		return nil
	}
	list, ok := cur.([]any)
	if !ok {
		return fmt.Errorf("%w: $push target %q is not an array", ErrInvalidModifier, field)
	}
	c.set(field, append(list, document.Copy(value)))
	return nil
}

// applyPushAll appends every element of the argument list. Unlike $push
// the elements are not copied.
func applyPushAll(c container, field string, value any) error {
	values, ok := value.([]any)
	if !ok {
		return fmt.Errorf("%w: $pushAll requires an array argument, got %T", ErrInvalidModifier, value)
	}
	cur, exists := c.get(field)
	if !exists || cur == nil {
		c.set(field, append([]any{}, values...))
		return nil
	}
	list, ok := cur.([]any)
	if !ok {
		return fmt.Errorf("%w: $pushAll target %q is not an array", ErrInvalidModifier, field)
	}
	c.set(field, append(list, values...))
	return nil
}

func applyAddToSet(c container, field string, value any) error {
	candidates := []any{value}
	if m, ok := value.(map[string]any); ok {
		if each, found := m["$each"]; found {
			list, ok := each.([]any)
			if !ok {
				return fmt.Errorf("%w: $each requires an array argument, got %T", ErrInvalidModifier, each)
			}
			candidates = list
		}
	}

	var list []any
	cur, exists := c.get(field)
	if exists && cur != nil {
		var ok bool
		list, ok = cur.([]any)
		if !ok {
			return fmt.Errorf("%w: $addToSet target %q is not an array", ErrInvalidModifier, field)
		}
	}
	for _, cand := range candidates {
		if !containsEqual(list, cand) {
			list = append(list, document.Copy(cand))
		}
	}
	c.set(field, list)
	return nil
}

func applyPop(c container, field string, value any) error {
	cur, exists := c.get(field)
	if !exists || cur == nil {
		return nil
	}
	list, ok := cur.([]any)
	if !ok {
		return fmt.Errorf("%w: $pop target %q is not an array", ErrInvalidModifier, field)
	}
	if len(list) == 0 {
		return nil
	}
	if n, ok := document.Number(value); ok && n < 0 {
		c.set(field, list[1:])
	} else {
		c.set(field, list[:len(list)-1])
	}
	return nil
}

// applyPull removes matching elements. A plain document criterion is
// matched as a query fragment; any other criterion is matched by deep
// equality. Survivors keep their relative order.
func applyPull(c container, field string, value any) error {
	cur, exists := c.get(field)
	if !exists {
		return fmt.Errorf("%w: %s", ErrMissingField, field)
	}
	list, ok := cur.([]any)
	if !ok {
		return fmt.Errorf("%w: $pull target %q is not an array", ErrInvalidModifier, field)
	}

	keep := func(elem any) (bool, error) {
		return !document.Equal(elem, value), nil
	}
	if criterion, ok := value.(map[string]any); ok {
		filter := query.NewFilter(document.Document{matchingField: criterion})
		keep = func(elem any) (bool, error) {
			match, err := filter.Match(document.Document{matchingField: elem})
			return !match, err
		}
	}

	out := make([]any, 0, len(list))
	for _, elem := range list {
		ok, err := keep(elem)
		if err != nil {
			return err
		}
		if ok {
			out = append(out, elem)
		}
	}
	c.set(field, out)
	return nil
}

// matchingField wraps a $pull element and criterion so they can be
// compared with selector semantics.
const matchingField = "__matching__"

func applyPullAll(c container, field string, value any) error {
	values, ok := value.([]any)
	if !ok {
		return fmt.Errorf("%w: $pullAll requires an array argument, got %T", ErrInvalidModifier, value)
	}
	cur, exists := c.get(field)
	if !exists {
		return fmt.Errorf("%w: %s", ErrMissingField, field)
	}
	list, ok := cur.([]any)
	if !ok {
		return fmt.Errorf("%w: $pullAll target %q is not an array", ErrInvalidModifier, field)
	}
	out := make([]any, 0, len(list))
	for _, elem := range list {
		if !containsEqual(values, elem) {
			out = append(out, elem)
		}
	}
	c.set(field, out)
	return nil
}

func applyRename(c container, field string, value any) error {
	name, ok := value.(string)
	if !ok {
		return fmt.Errorf("%w: $rename requires a string argument, got %T", ErrInvalidModifier, value)
	}
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: $rename target name is empty", ErrInvalidModifier)
	}
	if name == field {
		return fmt.Errorf("%w: $rename target name %q equals the source", ErrInvalidModifier, name)
	}
	cur, exists := c.get(field)
	if !exists {
		return fmt.Errorf("%w: %s", ErrMissingField, field)
	}
	c.set(name, cur)
	c.remove(field)
	return nil
}

func applyBit(c container, field string, value any) error {
	return fmt.Errorf("%w: $bit", ErrUnsupportedModifier)
}

func containsEqual(list []any, value any) bool {
	for _, elem := range list {
		if document.Equal(elem, value) {
			return true
		}
	}
	return false
}
