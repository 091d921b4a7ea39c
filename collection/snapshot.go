package collection

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/docfold/docfold/codec"
	"github.com/docfold/docfold/storage"

	"github.com/google/uuid"
	"golang.org/x/crypto/sha3"
)

// checksumSize is the length of the sha3-256 digest prefixed to every
// stored snapshot.
const checksumSize = 32

// Backup deep-copies the current documents into a snapshot stored under
// the given id and returns the id. An empty id gets a generated one.
func (c *Collection) Backup(ctx context.Context, id string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if id == "" {
		id = uuid.NewString()
	}
	data, err := codec.EncodeSnapshot(c.docs)
	if err != nil {
		return "", err
	}
	sum := sha3.Sum256(data)
	err = c.snapshots.Put(ctx, id, append(sum[:], data...))
	if err != nil {
		return "", err
	}
	err = c.publish(ctx, EventSnapshot, map[string]any{
		"id":    id,
		"count": len(c.docs),
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// Restore replaces the documents wholesale with the snapshot stored
// under the given id. An empty id is allowed when exactly one snapshot
// exists.
func (c *Collection) Restore(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if id == "" {
		keys, err := c.snapshots.Keys(ctx)
		if err != nil {
			return err
		}
		switch len(keys) {
		case 0:
			return fmt.Errorf("%w: no snapshots exist", ErrUnknownBackup)
		case 1:
			id = keys[0]
		default:
			return fmt.Errorf("%w: specify the snapshot to restore", ErrAmbiguousRestore)
		}
	}

	content, err := c.snapshots.Get(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: %q", ErrUnknownBackup, id)
	}
	if err != nil {
		return err
	}
	if len(content) < checksumSize {
		return fmt.Errorf("snapshot %q is truncated", id)
	}
	sum := sha3.Sum256(content[checksumSize:])
	if !bytes.Equal(sum[:], content[:checksumSize]) {
		return fmt.Errorf("snapshot %q checksum mismatch", id)
	}
	docs, err := codec.DecodeSnapshot(content[checksumSize:])
	if err != nil {
		return err
	}

	c.docs = docs
	c.reindex()

	return c.publish(ctx, EventRestore, map[string]any{
		"id":    id,
		"count": len(c.docs),
	})
}

// RemoveBackup deletes the snapshot stored under the given id.
func (c *Collection) RemoveBackup(ctx context.Context, id string) error {
	err := c.snapshots.Delete(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: %q", ErrUnknownBackup, id)
	}
	return err
}

// Backups returns the ids of the stored snapshots.
func (c *Collection) Backups(ctx context.Context) ([]string, error) {
	return c.snapshots.Keys(ctx)
}
