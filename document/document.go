package document

import (
	"strconv"
	"strings"

	"github.com/docfold/docfold/oid"
)

// Document is one schemaless record stored in a collection. The "_id" field
// holds the document identity and is never changed after insert.
type Document = map[string]any

// IDField is the name of the identity field on a document.
const IDField = "_id"

// TimestampField is the name of the insert timestamp field on a document.
const TimestampField = "timestamp"

// Key returns the canonical string form of a document identity value.
func Key(id any) string {
	switch t := id.(type) {
	case oid.ObjectID:
		return t.Hex()
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}

// Copy returns a deep copy of the given value.
// Maps and lists are copied recursively; all other values are returned as is.
func Copy(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = Copy(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = Copy(val)
		}
		return out
	case []byte:
		out := make([]byte, len(t))
		copy(out, t)
		return out
	default:
		return v
	}
}

// CopyDocument returns a deep copy of the given document.
func CopyDocument(doc Document) Document {
	return Copy(doc).(Document)
}

// Number returns the float64 value of any numeric type.
func Number(v any) (float64, bool) {
	switch t := v.(type) {
	case int:
		return float64(t), true
	case int8:
		return float64(t), true
	case int16:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint:
		return float64(t), true
	case uint8:
		return float64(t), true
	case uint16:
		return float64(t), true
	case uint32:
		return float64(t), true
	case uint64:
		return float64(t), true
	case float32:
		return float64(t), true
	case float64:
		return t, true
	default:
		return 0, false
	}
}

// Equal returns true if the two values are deeply equal. Numeric values of
// different widths compare by value, and object ids compare equal to their
// hex encoding.
func Equal(a, b any) bool {
	if an, ok := Number(a); ok {
		bn, ok := Number(b)
		return ok && an == bn
	}
	switch at := a.(type) {
	case nil:
		return b == nil
	case map[string]any:
		bt, ok := b.(map[string]any)
		if !ok || len(at) != len(bt) {
			return false
		}
		for k, av := range at {
			bv, ok := bt[k]
			if !ok || !Equal(av, bv) {
				return false
			}
		}
		return true
	case []any:
		bt, ok := b.([]any)
		if !ok || len(at) != len(bt) {
			return false
		}
		for i, av := range at {
			if !Equal(av, bt[i]) {
				return false
			}
		}
		return true
	case []byte:
		bt, ok := b.([]byte)
		if !ok || len(at) != len(bt) {
			return false
		}
		for i := range at {
			if at[i] != bt[i] {
				return false
			}
		}
		return true
	case oid.ObjectID:
		switch bt := b.(type) {
		case oid.ObjectID:
			return at.Equal(bt)
		case string:
			return at.Hex() == bt
		}
		return false
	case string:
		if bt, ok := b.(oid.ObjectID); ok {
			return bt.Hex() == at
		}
		return a == b
	case bool:
		return a == b
	default:
		return a == b
	}
}

// Get resolves a dotted path against a document, traversing nested
// documents and list indexes. The second result reports whether the
// full path exists.
func Get(doc Document, path string) (any, bool) {
	var cur any = doc
	for _, part := range strings.Split(path, ".") {
		switch t := cur.(type) {
		case map[string]any:
			v, ok := t[part]
			if !ok {
				return nil, false
			}
			cur = v
		case []any:
			i, err := strconv.Atoi(part)
			if err != nil || i < 0 || i >= len(t) {
				return nil, false
			}
			cur = t[i]
		default:
			return nil, false
		}
	}
	return cur, true
}
