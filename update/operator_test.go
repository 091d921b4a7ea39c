package update

import (
	"testing"

	"github.com/docfold/docfold/document"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	op, ok := Lookup("$set")
	require.True(t, ok)
	assert.Equal(t, OpSet, op)

	_, ok = Lookup("$bogus")
	assert.False(t, ok)
}

func TestSetOverwrites(t *testing.T) {
	doc := document.Document{"a": int64(1)}
	require.NoError(t, Apply(doc, "a", int64(2), OpSet))
	assert.Equal(t, int64(2), doc["a"])
}

func TestSetCopiesValue(t *testing.T) {
	doc := document.Document{}
	value := map[string]any{"x": int64(1)}
	require.NoError(t, Apply(doc, "a", value, OpSet))
	value["x"] = int64(9)
	assert.Equal(t, map[string]any{"x": int64(1)}, doc["a"])
}

func TestUnsetDeletesField(t *testing.T) {
	doc := document.Document{"a": int64(1), "b": int64(2)}
	require.NoError(t, Apply(doc, "a", nil, OpUnset))
	assert.Equal(t, document.Document{"b": int64(2)}, doc)
}

func TestUnsetArrayElementKeepsLength(t *testing.T) {
	doc := document.Document{"arr": []any{int64(1), int64(2), int64(3)}}
	require.NoError(t, Apply(doc, "arr.1", nil, OpUnset))
	assert.Equal(t, []any{int64(1), nil, int64(3)}, doc["arr"])
}

func TestUnsetAbsentFieldIsNoop(t *testing.T) {
	doc := document.Document{"a": map[string]any{}}
	require.NoError(t, Apply(doc, "a.b", nil, OpUnset))
	assert.Equal(t, document.Document{"a": map[string]any{}}, doc)
}

func TestInc(t *testing.T) {
	doc := document.Document{"n": int64(5)}
	require.NoError(t, Apply(doc, "n", int64(3), OpInc))
	assert.Equal(t, float64(8), doc["n"])

	// absent field starts from the increment
	require.NoError(t, Apply(doc, "m", float64(1.5), OpInc))
	assert.Equal(t, float64(1.5), doc["m"])
}

func TestIncErrors(t *testing.T) {
	doc := document.Document{"s": "text"}
	assert.ErrorIs(t, Apply(doc, "s", int64(1), OpInc), ErrInvalidModifier)
	assert.ErrorIs(t, Apply(doc, "n", "one", OpInc), ErrInvalidModifier)
}

func TestPush(t *testing.T) {
	doc := document.Document{}
	require.NoError(t, Apply(doc, "a", int64(1), OpPush))
	require.NoError(t, Apply(doc, "a", int64(2), OpPush))
	assert.Equal(t, []any{int64(1), int64(2)}, doc["a"])

	assert.ErrorIs(t, Apply(document.Document{"a": "x"}, "a", int64(1), OpPush), ErrInvalidModifier)
}

func TestPushAll(t *testing.T) {
	doc := document.Document{"a": []any{int64(1)}}
	require.NoError(t, Apply(doc, "a", []any{int64(2), int64(3)}, OpPushAll))
	assert.Equal(t, []any{int64(1), int64(2), int64(3)}, doc["a"])

	assert.ErrorIs(t, Apply(doc, "a", int64(4), OpPushAll), ErrInvalidModifier)
}

func TestAddToSet(t *testing.T) {
	doc := document.Document{"a": []any{int64(1), int64(2)}}
	require.NoError(t, Apply(doc, "a", int64(2), OpAddToSet))
	assert.Equal(t, []any{int64(1), int64(2)}, doc["a"], "existing value leaves the list unchanged")

	require.NoError(t, Apply(doc, "a", int64(3), OpAddToSet))
	assert.Equal(t, []any{int64(1), int64(2), int64(3)}, doc["a"])
}

func TestAddToSetEach(t *testing.T) {
	doc := document.Document{"a": []any{int64(1)}}
	each := map[string]any{"$each": []any{int64(1), int64(2), int64(2), int64(3)}}
	require.NoError(t, Apply(doc, "a", each, OpAddToSet))
	assert.Equal(t, []any{int64(1), int64(2), int64(3)}, doc["a"])
}

func TestAddToSetCreates(t *testing.T) {
	doc := document.Document{}
	require.NoError(t, Apply(doc, "a", "x", OpAddToSet))
	assert.Equal(t, []any{"x"}, doc["a"])
}

func TestPop(t *testing.T) {
	doc := document.Document{"a": []any{int64(1), int64(2), int64(3)}}

	require.NoError(t, Apply(doc, "a", int64(1), OpPop))
	assert.Equal(t, []any{int64(1), int64(2)}, doc["a"], "positive pops the last element")

	require.NoError(t, Apply(doc, "a", int64(-1), OpPop))
	assert.Equal(t, []any{int64(2)}, doc["a"], "negative pops the first element")

	require.NoError(t, Apply(doc, "a", "x", OpPop))
	assert.Equal(t, []any{}, doc["a"], "non numeric argument pops the last element")

	require.NoError(t, Apply(doc, "a", int64(1), OpPop), "empty list is a no-op")
}

func TestPopErrors(t *testing.T) {
	doc := document.Document{"s": "text", "m": map[string]any{}}
	assert.ErrorIs(t, Apply(doc, "s", int64(1), OpPop), ErrInvalidModifier)
	require.NoError(t, Apply(doc, "m.absent", int64(1), OpPop), "absent field is a silent no-op")
}

func TestPullScalar(t *testing.T) {
	doc := document.Document{"a": []any{int64(1), int64(2), int64(3), int64(2)}}
	require.NoError(t, Apply(doc, "a", int64(2), OpPull))
	assert.Equal(t, []any{int64(1), int64(3)}, doc["a"])
}

func TestPullCriterion(t *testing.T) {
	doc := document.Document{"a": []any{int64(1), int64(5), int64(10)}}
	require.NoError(t, Apply(doc, "a", map[string]any{"$gt": int64(4)}, OpPull))
	assert.Equal(t, []any{int64(1)}, doc["a"])
}

func TestPullDocumentCriterion(t *testing.T) {
	doc := document.Document{"a": []any{
		map[string]any{"k": "x"},
		map[string]any{"k": "y"},
	}}
	require.NoError(t, Apply(doc, "a", map[string]any{"k": "x"}, OpPull))
	assert.Equal(t, []any{map[string]any{"k": "y"}}, doc["a"])
}

func TestPullMissingField(t *testing.T) {
	doc := document.Document{}
	assert.ErrorIs(t, Apply(doc, "a", int64(1), OpPull), ErrMissingField)
}

func TestPullAll(t *testing.T) {
	doc := document.Document{"a": []any{int64(1), int64(2), int64(3), int64(2)}}
	require.NoError(t, Apply(doc, "a", []any{int64(2), int64(3)}, OpPullAll))
	assert.Equal(t, []any{int64(1)}, doc["a"])

	assert.ErrorIs(t, Apply(doc, "a", int64(1), OpPullAll), ErrInvalidModifier)
}

func TestRename(t *testing.T) {
	doc := document.Document{"old": int64(1)}
	require.NoError(t, Apply(doc, "old", "new", OpRename))
	assert.Equal(t, document.Document{"new": int64(1)}, doc)
}

func TestRenameErrors(t *testing.T) {
	doc := document.Document{"a": int64(1)}
	assert.ErrorIs(t, Apply(doc, "a", "a", OpRename), ErrInvalidModifier)
	assert.ErrorIs(t, Apply(doc, "a", "  ", OpRename), ErrInvalidModifier)
	assert.ErrorIs(t, Apply(doc, "a", int64(2), OpRename), ErrInvalidModifier)
	assert.ErrorIs(t, Apply(doc, "missing", "b", OpRename), ErrMissingField)
}

func TestBitUnsupported(t *testing.T) {
	doc := document.Document{"a": int64(1)}
	assert.ErrorIs(t, Apply(doc, "a", int64(1), OpBit), ErrUnsupportedModifier)
}
