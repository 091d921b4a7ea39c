package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/docfold/docfold"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func post(t *testing.T, handler http.Handler, path string, body any) (int, Response) {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	var resp Response
	if w.Body.Len() > 0 && w.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w.Code, resp
}

func TestInsertAndFind(t *testing.T) {
	handler := Handler(docfold.New(docfold.Options{}))

	code, resp := post(t, handler, "/users/insert", Request{
		Document: map[string]any{"_id": "alice", "name": "Alice"},
	})
	require.Equal(t, http.StatusOK, code)
	require.Empty(t, resp.Error)

	code, resp = post(t, handler, "/users/findOne", Request{
		Selector: "alice",
		Fields:   map[string]any{"timestamp": false},
	})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, map[string]any{"_id": "alice", "name": "Alice"}, resp.Data)
}

func TestUpdateResult(t *testing.T) {
	handler := Handler(docfold.New(docfold.Options{}))

	code, _ := post(t, handler, "/users/insert", Request{
		Document: map[string]any{"_id": "a", "n": 1},
	})
	require.Equal(t, http.StatusOK, code)

	code, resp := post(t, handler, "/users/update", Request{
		Selector: "a",
		Modifier: map[string]any{"$inc": map[string]any{"n": 1}},
	})
	require.Equal(t, http.StatusOK, code)

	result, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	updated, ok := result["updated"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(1), updated["count"])
}

func TestValidationErrors(t *testing.T) {
	handler := Handler(docfold.New(docfold.Options{}))

	code, resp := post(t, handler, "/users/update", Request{
		Modifier: map[string]any{"a": 1, "$set": map[string]any{"b": 2}},
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, resp.Error, "cannot mix")

	code, resp = post(t, handler, "/users/restore", Request{ID: "missing"})
	assert.Equal(t, http.StatusNotFound, code)
	assert.Contains(t, resp.Error, "unknown snapshot")

	code, resp = post(t, handler, "/system.users/insert", Request{
		Document: map[string]any{"_id": "x"},
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, resp.Error, "invalid collection name")
}

func TestUnknownOperation(t *testing.T) {
	handler := Handler(docfold.New(docfold.Options{}))

	code, resp := post(t, handler, "/users/teleport", Request{})
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Contains(t, resp.Error, "unknown operation")
}

func TestMalformedBody(t *testing.T) {
	handler := Handler(docfold.New(docfold.Options{}))

	r := httptest.NewRequest(http.MethodPost, "/users/insert", bytes.NewReader([]byte("{")))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBackupRestoreOverHTTP(t *testing.T) {
	handler := Handler(docfold.New(docfold.Options{}))

	code, _ := post(t, handler, "/users/insert", Request{
		Document: map[string]any{"_id": "a"},
	})
	require.Equal(t, http.StatusOK, code)

	code, resp := post(t, handler, "/users/backup", Request{ID: "snap"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "snap", resp.Data)

	code, _ = post(t, handler, "/users/drop", Request{})
	require.Equal(t, http.StatusOK, code)

	code, _ = post(t, handler, "/users/restore", Request{ID: "snap"})
	require.Equal(t, http.StatusOK, code)

	code, resp = post(t, handler, "/users/count", Request{})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), resp.Data)
}
