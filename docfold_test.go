package docfold

import (
	"context"
	"testing"

	"github.com/docfold/docfold/collection"
	"github.com/docfold/docfold/document"
	"github.com/docfold/docfold/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectionCreatedOnce(t *testing.T) {
	db := New(Options{})

	first, err := db.Collection("users")
	require.NoError(t, err)
	second, err := db.Collection("users")
	require.NoError(t, err)
	assert.Same(t, first, second)

	_, err = db.Collection("system.users")
	assert.ErrorIs(t, err, collection.ErrInvalidName)
}

func TestCollectionsSorted(t *testing.T) {
	db := New(Options{})
	for _, name := range []string{"posts", "users", "comments"} {
		_, err := db.Collection(name)
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"comments", "posts", "users"}, db.Collections())
}

func TestDrop(t *testing.T) {
	db := New(Options{})
	_, err := db.Collection("users")
	require.NoError(t, err)

	assert.True(t, db.Drop("users"))
	assert.False(t, db.Drop("users"))
	assert.Empty(t, db.Collections())
}

func TestSharedBus(t *testing.T) {
	ctx := context.Background()
	db := New(Options{})

	var seen []string
	db.Bus().Subscribe(events.Wildcard, func(ctx context.Context, e events.Event) error {
		seen = append(seen, e.Collection+"/"+e.Name)
		return nil
	})

	users, err := db.Collection("users")
	require.NoError(t, err)
	posts, err := db.Collection("posts")
	require.NoError(t, err)

	_, err = users.Insert(ctx, document.Document{"_id": "a"})
	require.NoError(t, err)
	_, err = posts.Insert(ctx, document.Document{"_id": "b"})
	require.NoError(t, err)

	assert.Equal(t, []string{"users/insert", "posts/insert"}, seen)
}

func TestSnapshotNamespaces(t *testing.T) {
	ctx := context.Background()
	db := New(Options{})

	users, err := db.Collection("users")
	require.NoError(t, err)
	posts, err := db.Collection("posts")
	require.NoError(t, err)

	_, err = users.Insert(ctx, document.Document{"_id": "u"})
	require.NoError(t, err)
	_, err = posts.Insert(ctx, document.Document{"_id": "p"})
	require.NoError(t, err)

	_, err = users.Backup(ctx, "snap")
	require.NoError(t, err)
	_, err = posts.Backup(ctx, "snap")
	require.NoError(t, err)

	_, err = users.Drop(ctx)
	require.NoError(t, err)
	require.NoError(t, users.Restore(ctx, "snap"))

	doc, err := users.FindOne(ctx, "u", nil)
	require.NoError(t, err)
	require.NotNil(t, doc)

	ids, err := posts.Backups(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"snap"}, ids)
}
