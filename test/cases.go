// Package test runs yaml described scenarios against a DB end to end.
package test

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"

	"github.com/docfold/docfold"
	"github.com/docfold/docfold/collection"
	"github.com/docfold/docfold/document"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

//go:embed cases
var casesFS embed.FS

type TestCase struct {
	// Description is a simple description for the test case.
	Description string
	// Permissive disables mongo compatible update validation.
	Permissive bool
	// Operations is a list of all operations to run in this test case.
	Operations []Operation
}

type Operation struct {
	// Op names the collection operation to run.
	Op string
	// Collection is the target collection name.
	Collection string

	Document document.Document
	Selector any
	Modifier map[string]any
	Fields   any
	ID       string

	Skip     int
	Limit    int
	Multi    bool
	Upsert   bool
	Override bool
	JustOne  bool

	// Expect is the expected operation result. Find expects a document
	// list, findOne a document, count a number, update an updated and
	// inserted count pair.
	Expect any
	// Error is a substring the operation error must contain.
	Error string
}

// TestCasePaths returns a list of all test case file paths.
func TestCasePaths() (paths []string, _ error) {
	return paths, fs.WalkDir(casesFS, "cases", func(path string, d fs.DirEntry, err error) error {
		if filepath.Ext(path) == ".yaml" {
			paths = append(paths, path)
		}
		return err
	})
}

// LoadTestCase loads and parses a test case file.
func LoadTestCase(path string) (*TestCase, error) {
	data, err := fs.ReadFile(casesFS, path)
	if err != nil {
		return nil, err
	}
	var testCase TestCase
	if err := yaml.Unmarshal(data, &testCase); err != nil {
		return nil, err
	}
	return &testCase, nil
}

func (tc TestCase) Run(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := docfold.New(docfold.Options{Permissive: tc.Permissive})

	for i, op := range tc.Operations {
		actual, err := tc.run(ctx, db, op)
		if op.Error != "" {
			require.Error(t, err, "operation %d (%s)", i, op.Op)
			assert.Contains(t, err.Error(), op.Error, "operation %d (%s)", i, op.Op)
			continue
		}
		require.NoError(t, err, "operation %d (%s)", i, op.Op)
		if op.Expect == nil {
			continue
		}
		assertEqual(t, op.Expect, actual, fmt.Sprintf("operation %d (%s)", i, op.Op))
	}
}

func (tc TestCase) run(ctx context.Context, db *docfold.DB, op Operation) (any, error) {
	col, err := db.Collection(op.Collection)
	if err != nil {
		return nil, err
	}
	switch op.Op {
	case "insert":
		return col.Insert(ctx, op.Document)

	case "find":
		cursor, err := col.Find(ctx, op.Selector, op.Fields, &collection.FindOptions{
			Skip:  op.Skip,
			Limit: op.Limit,
		})
		if err != nil {
			return nil, err
		}
		return cursor.Fetch()

	case "findOne":
		return col.FindOne(ctx, op.Selector, op.Fields)

	case "count":
		return col.Count(ctx, op.Selector)

	case "update":
		result, err := col.Update(ctx, op.Selector, op.Modifier, &collection.UpdateOptions{
			Multi:    op.Multi,
			Upsert:   op.Upsert,
			Override: op.Override,
		})
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"updated":  result.Updated.Count,
			"inserted": result.Inserted.Count,
		}, nil

	case "save":
		return col.Save(ctx, op.Document)

	case "remove":
		removed, err := col.Remove(ctx, op.Selector, &collection.RemoveOptions{
			JustOne: op.JustOne,
		})
		if err != nil {
			return nil, err
		}
		return len(removed), nil

	case "drop":
		dropped, err := col.Drop(ctx)
		if err != nil {
			return nil, err
		}
		return len(dropped), nil

	case "backup":
		return col.Backup(ctx, op.ID)

	case "restore":
		return nil, col.Restore(ctx, op.ID)

	default:
		return nil, fmt.Errorf("unknown operation %q", op.Op)
	}
}

// assertEqual compares yaml described expectations against operation
// results, treating numeric widths as equal.
func assertEqual(t *testing.T, expect, actual any, msg string) {
	t.Helper()
	switch expect := expect.(type) {
	case []any:
		actual, ok := actual.([]document.Document)
		require.True(t, ok, "%s: expected a document list, got %T", msg, actual)
		require.Len(t, actual, len(expect), msg)
		for i := range expect {
			assert.True(t, document.Equal(expect[i], actual[i]),
				"%s: document %d mismatch\nexpect: %v\nactual: %v", msg, i, expect[i], actual[i])
		}
	default:
		assert.True(t, document.Equal(expect, actual),
			"%s: result mismatch\nexpect: %v\nactual: %v", msg, expect, actual)
	}
}

// Name derives a readable test name from a case file path.
func Name(path string) string {
	return strings.TrimSuffix(filepath.Base(path), ".yaml")
}
