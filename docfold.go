// Package docfold is an in-memory document database. Documents are
// plain maps addressed by dotted paths, queried with selector
// documents and rewritten with update operator specifications.
package docfold

import (
	"sort"
	"sync"

	"github.com/docfold/docfold/collection"
	"github.com/docfold/docfold/events"
	"github.com/docfold/docfold/storage"
)

// Options configures a DB.
type Options struct {
	// Permissive disables mongo compatible update validation on every
	// collection.
	Permissive bool
	// Warn receives warning class signals from update application.
	Warn func(msg string)
	// Snapshots stores encoded collection snapshots. Defaults to an
	// in-process memory store.
	Snapshots storage.Storage
}

// DB holds a set of named collections sharing one event bus.
type DB struct {
	opts Options
	bus  *events.Bus

	mu          sync.Mutex
	collections map[string]*collection.Collection
}

// New returns an empty DB.
func New(opts Options) *DB {
	if opts.Snapshots == nil {
		opts.Snapshots = storage.NewMemory()
	}
	return &DB{
		opts:        opts,
		bus:         events.NewBus(),
		collections: make(map[string]*collection.Collection),
	}
}

// Bus returns the event bus shared by every collection.
func (db *DB) Bus() *events.Bus {
	return db.bus
}

// Collection returns the collection with the given name, creating it if
// it does not exist yet.
func (db *DB) Collection(name string) (*collection.Collection, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if c, ok := db.collections[name]; ok {
		return c, nil
	}
	c, err := collection.New(name, collection.Config{
		Bus:        db.bus,
		Snapshots:  storage.NewPrefix(db.opts.Snapshots, name+"/"),
		Permissive: db.opts.Permissive,
		Warn:       db.opts.Warn,
	})
	if err != nil {
		return nil, err
	}
	db.collections[name] = c
	return c, nil
}

// Collections returns the names of the existing collections in sorted
// order.
func (db *DB) Collections() []string {
	db.mu.Lock()
	defer db.mu.Unlock()

	names := make([]string, 0, len(db.collections))
	for name := range db.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Drop removes the named collection and returns whether it existed.
func (db *DB) Drop(name string) bool {
	db.mu.Lock()
	defer db.mu.Unlock()

	_, ok := db.collections[name]
	delete(db.collections, name)
	return ok
}
