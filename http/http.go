// Package http exposes a DB over a small JSON protocol. Every operation
// is a POST to /{collection}/{op} with a JSON request body.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/docfold/docfold"
	"github.com/docfold/docfold/collection"
	"github.com/docfold/docfold/document"
	"github.com/docfold/docfold/update"
)

// Request is the body accepted by every operation. Fields that an
// operation does not use are ignored.
type Request struct {
	Document document.Document `json:"document,omitempty"`
	Selector any               `json:"selector,omitempty"`
	Modifier map[string]any    `json:"modifier,omitempty"`
	Fields   any               `json:"fields,omitempty"`
	ID       string            `json:"id,omitempty"`

	Skip     int  `json:"skip,omitempty"`
	Limit    int  `json:"limit,omitempty"`
	Multi    bool `json:"multi,omitempty"`
	Upsert   bool `json:"upsert,omitempty"`
	Override bool `json:"override,omitempty"`
	JustOne  bool `json:"justOne,omitempty"`
}

// Response wraps every operation result.
type Response struct {
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

// ListenAndServe starts an http server bound to the given address.
func ListenAndServe(db *docfold.DB, addr string) error {
	return http.ListenAndServe(addr, Handler(db))
}

// Handler returns an http.Handler serving the JSON document protocol.
func Handler(db *docfold.DB) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /{collection}/{op}", func(w http.ResponseWriter, r *http.Request) {
		var req Request
		err := json.NewDecoder(r.Body).Decode(&req)
		if err != nil {
			http.Error(w, fmt.Sprintf("failed to parse body: %v", err), http.StatusBadRequest)
			return
		}
		col, err := db.Collection(r.PathValue("collection"))
		if err != nil {
			writeResponse(w, statusFor(err), Response{Error: err.Error()})
			return
		}
		data, err := dispatch(r, col, req)
		if err != nil {
			writeResponse(w, statusFor(err), Response{Error: err.Error()})
			return
		}
		writeResponse(w, http.StatusOK, Response{Data: data})
	})
	return mux
}

func dispatch(r *http.Request, col *collection.Collection, req Request) (any, error) {
	ctx := r.Context()
	switch op := r.PathValue("op"); op {
	case "insert":
		return col.Insert(ctx, req.Document)

	case "find":
		cursor, err := col.Find(ctx, req.Selector, req.Fields, &collection.FindOptions{
			Skip:  req.Skip,
			Limit: req.Limit,
		})
		if err != nil {
			return nil, err
		}
		return cursor.Fetch()

	case "findOne":
		return col.FindOne(ctx, req.Selector, req.Fields)

	case "count":
		return col.Count(ctx, req.Selector)

	case "update":
		return col.Update(ctx, req.Selector, req.Modifier, &collection.UpdateOptions{
			Multi:    req.Multi,
			Upsert:   req.Upsert,
			Override: req.Override,
		})

	case "save":
		return col.Save(ctx, req.Document)

	case "remove":
		return col.Remove(ctx, req.Selector, &collection.RemoveOptions{
			JustOne: req.JustOne,
		})

	case "drop":
		return col.Drop(ctx)

	case "backup":
		return col.Backup(ctx, req.ID)

	case "restore":
		return nil, col.Restore(ctx, req.ID)

	case "removeBackup":
		return nil, col.RemoveBackup(ctx, req.ID)

	case "backups":
		return col.Backups(ctx)

	default:
		return nil, fmt.Errorf("unknown operation %q", op)
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, update.ErrValidation),
		errors.Is(err, update.ErrInvalidPath),
		errors.Is(err, update.ErrMissingField),
		errors.Is(err, update.ErrInvalidModifier),
		errors.Is(err, update.ErrUnsupportedModifier),
		errors.Is(err, update.ErrMixedUpdate),
		errors.Is(err, collection.ErrInvalidName),
		errors.Is(err, collection.ErrAmbiguousRestore):
		return http.StatusBadRequest
	case errors.Is(err, collection.ErrUnknownBackup):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeResponse(w http.ResponseWriter, status int, resp Response) {
	out, err := json.Marshal(resp)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(out)
}
