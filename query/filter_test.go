package query

import (
	"testing"

	"github.com/docfold/docfold/document"
	"github.com/docfold/docfold/oid"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func match(t *testing.T, doc document.Document, selector any) bool {
	t.Helper()
	ok, err := NewFilter(selector).Match(doc)
	require.NoError(t, err)
	return ok
}

func TestFilterEmpty(t *testing.T) {
	doc := document.Document{"a": int64(1)}
	assert.True(t, match(t, doc, nil))
	assert.True(t, match(t, doc, map[string]any{}))
	assert.True(t, NewFilter(nil).Empty())
}

func TestFilterEquality(t *testing.T) {
	doc := document.Document{
		"name": "Alice",
		"age":  int64(30),
		"tags": []any{"x", "y"},
		"info": map[string]any{"city": "Oslo"},
	}

	assert.True(t, match(t, doc, map[string]any{"name": "Alice"}))
	assert.False(t, match(t, doc, map[string]any{"name": "Bob"}))
	assert.True(t, match(t, doc, map[string]any{"age": float64(30)}))
	assert.True(t, match(t, doc, map[string]any{"info": map[string]any{"city": "Oslo"}}))
	assert.True(t, match(t, doc, map[string]any{"info.city": "Oslo"}))
	assert.False(t, match(t, doc, map[string]any{"info.city": "Bergen"}))

	// a list field matches when any element is equal
	assert.True(t, match(t, doc, map[string]any{"tags": "x"}))
	assert.False(t, match(t, doc, map[string]any{"tags": "z"}))
}

func TestFilterIDSelector(t *testing.T) {
	id := oid.New()
	doc := document.Document{document.IDField: id}

	assert.True(t, match(t, doc, id))
	assert.True(t, match(t, doc, id.Hex()))
	assert.False(t, match(t, doc, oid.New()))
}

func TestFilterIDNumericForms(t *testing.T) {
	// numeric ids are stored in canonical string form, and every numeric
	// spelling of the id must still select the document
	doc := document.Document{document.IDField: "3"}

	assert.True(t, match(t, doc, int64(3)))
	assert.True(t, match(t, doc, 3))
	assert.True(t, match(t, doc, float64(3)))
	assert.True(t, match(t, doc, "3"))
	assert.True(t, match(t, doc, map[string]any{document.IDField: int64(3)}))
	assert.False(t, match(t, doc, int64(4)))
	assert.False(t, match(t, doc, map[string]any{document.IDField: "4"}))

	// other fields keep strict equality between numbers and strings
	other := document.Document{"code": "3"}
	assert.False(t, match(t, other, map[string]any{"code": int64(3)}))
}

func TestFilterComparisons(t *testing.T) {
	doc := document.Document{"age": int64(30), "name": "Alice"}

	assert.True(t, match(t, doc, map[string]any{"age": map[string]any{"$gt": int64(20)}}))
	assert.False(t, match(t, doc, map[string]any{"age": map[string]any{"$gt": int64(30)}}))
	assert.True(t, match(t, doc, map[string]any{"age": map[string]any{"$gte": int64(30)}}))
	assert.True(t, match(t, doc, map[string]any{"age": map[string]any{"$lt": float64(30.5)}}))
	assert.True(t, match(t, doc, map[string]any{"age": map[string]any{"$lte": int64(30)}}))
	assert.True(t, match(t, doc, map[string]any{"age": map[string]any{"$ne": int64(31)}}))
	assert.True(t, match(t, doc, map[string]any{"age": map[string]any{"$gt": int64(20), "$lt": int64(40)}}))
	assert.True(t, match(t, doc, map[string]any{"name": map[string]any{"$gt": "Alex"}}))

	// incomparable values never match
	assert.False(t, match(t, doc, map[string]any{"name": map[string]any{"$gt": int64(1)}}))
}

func TestFilterInNotIn(t *testing.T) {
	doc := document.Document{"age": int64(30)}

	assert.True(t, match(t, doc, map[string]any{"age": map[string]any{"$in": []any{int64(10), int64(30)}}}))
	assert.False(t, match(t, doc, map[string]any{"age": map[string]any{"$in": []any{int64(10)}}}))
	assert.True(t, match(t, doc, map[string]any{"age": map[string]any{"$nin": []any{int64(10)}}}))
}

func TestFilterExists(t *testing.T) {
	doc := document.Document{"a": nil}

	assert.True(t, match(t, doc, map[string]any{"a": map[string]any{"$exists": true}}))
	assert.False(t, match(t, doc, map[string]any{"b": map[string]any{"$exists": true}}))
	assert.True(t, match(t, doc, map[string]any{"b": map[string]any{"$exists": false}}))
}

func TestFilterNot(t *testing.T) {
	doc := document.Document{"age": int64(30)}

	assert.True(t, match(t, doc, map[string]any{"age": map[string]any{"$not": map[string]any{"$gt": int64(40)}}}))
	assert.False(t, match(t, doc, map[string]any{"age": map[string]any{"$not": map[string]any{"$gt": int64(20)}}}))
}

func TestFilterLogical(t *testing.T) {
	doc := document.Document{"age": int64(30), "name": "Alice"}

	assert.True(t, match(t, doc, map[string]any{"$and": []any{
		map[string]any{"age": int64(30)},
		map[string]any{"name": "Alice"},
	}}))
	assert.False(t, match(t, doc, map[string]any{"$and": []any{
		map[string]any{"age": int64(30)},
		map[string]any{"name": "Bob"},
	}}))
	assert.True(t, match(t, doc, map[string]any{"$or": []any{
		map[string]any{"age": int64(10)},
		map[string]any{"name": "Alice"},
	}}))
	assert.False(t, match(t, doc, map[string]any{"$nor": []any{
		map[string]any{"name": "Alice"},
	}}))
	assert.True(t, match(t, doc, map[string]any{"$nor": []any{
		map[string]any{"name": "Bob"},
	}}))
}

func TestFilterInvalidOperator(t *testing.T) {
	_, err := NewFilter(map[string]any{"a": map[string]any{"$bogus": int64(1)}}).Match(document.Document{"a": int64(1)})
	assert.Error(t, err)
}
