// Package collection implements the in-memory document store: ordered
// documents, an id index, CRUD with upsert, and snapshots.
package collection

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/docfold/docfold/document"
	"github.com/docfold/docfold/events"
	"github.com/docfold/docfold/oid"
	"github.com/docfold/docfold/query"
	"github.com/docfold/docfold/storage"
	"github.com/docfold/docfold/update"
)

// Event names published on the collection's bus.
const (
	EventInsert   = "insert"
	EventFind     = "find"
	EventFindOne  = "findOne"
	EventUpdate   = "update"
	EventRemove   = "remove"
	EventDrop     = "dropCollection"
	EventSnapshot = "snapshot"
	EventRestore  = "restore"
)

// ValidateName checks a collection name: it must be non empty, must not
// contain "..", "$" or a null byte, must not begin or end with "." and
// must not begin with "system.".
func ValidateName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: name is empty", ErrInvalidName)
	case strings.Contains(name, ".."):
		return fmt.Errorf("%w: %q contains '..'", ErrInvalidName, name)
	case strings.ContainsAny(name, "$\x00"):
		return fmt.Errorf("%w: %q contains an invalid character", ErrInvalidName, name)
	case strings.HasPrefix(name, ".") || strings.HasSuffix(name, "."):
		return fmt.Errorf("%w: %q begins or ends with '.'", ErrInvalidName, name)
	case strings.HasPrefix(name, "system."):
		return fmt.Errorf("%w: %q is reserved", ErrInvalidName, name)
	}
	return nil
}

// Config carries the collaborators a collection publishes to and stores
// snapshots in. Zero values get working in-process defaults.
type Config struct {
	// Bus receives the collection's lifecycle events.
	Bus *events.Bus
	// Snapshots stores encoded collection snapshots.
	Snapshots storage.Storage
	// Permissive disables mongo compatible update validation.
	Permissive bool
	// Warn receives warning class signals from the update engine.
	Warn func(msg string)
}

// Counted is a set of documents together with its size.
type Counted struct {
	Documents []document.Document `json:"documents"`
	Count     int                 `json:"count"`
}

// UpdateResult reports what an update did: documents rewritten in place
// and documents inserted by an upsert.
type UpdateResult struct {
	Updated  Counted `json:"updated"`
	Inserted Counted `json:"inserted"`
}

// FindOptions controls skip and limit for find operations.
type FindOptions struct {
	Skip  int
	Limit int
}

// UpdateOptions controls update operations.
type UpdateOptions struct {
	// Multi applies the update to every matching document.
	Multi bool
	// Upsert inserts the update specification as a new document when
	// nothing matches.
	Upsert bool
	// Override forces replacement semantics in permissive mode.
	Override bool
}

// RemoveOptions controls remove operations.
type RemoveOptions struct {
	// JustOne removes only the first matching document.
	JustOne bool
}

// Collection holds an ordered document sequence and an index from
// document id to position. A single logical owner mutates a collection;
// every operation completes its mutation before yielding control.
type Collection struct {
	name      string
	bus       *events.Bus
	engine    *update.Engine
	snapshots storage.Storage

	mu    sync.Mutex
	docs  []document.Document
	index map[string]int
}

// New returns an empty collection with the given name.
func New(name string, cfg Config) (*Collection, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	bus := cfg.Bus
	if bus == nil {
		bus = events.NewBus()
	}
	snapshots := cfg.Snapshots
	if snapshots == nil {
		snapshots = storage.NewMemory()
	}
	engine := update.NewEngine()
	engine.AsMongo = !cfg.Permissive
	engine.Warn = cfg.Warn
	return &Collection{
		name:      name,
		bus:       bus,
		engine:    engine,
		snapshots: snapshots,
		index:     make(map[string]int),
	}, nil
}

// Name returns the collection name.
func (c *Collection) Name() string {
	return c.name
}

// Bus returns the event bus the collection publishes on.
func (c *Collection) Bus() *events.Bus {
	return c.bus
}

// Len returns the number of stored documents.
func (c *Collection) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.docs)
}

func (c *Collection) publish(ctx context.Context, name string, payload map[string]any) error {
	return c.bus.Publish(ctx, events.Event{
		Collection: c.name,
		Name:       name,
		Payload:    payload,
	})
}

// Insert stores a new document and returns the stored form. A missing or
// unusable id is replaced with a fresh object id; a numeric id is
// normalized to its canonical string form. The insert timestamp is taken
// from a fresh object id's generation time.
func (c *Collection) Insert(ctx context.Context, doc document.Document) (document.Document, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	stored, err := c.insert(doc)
	if err != nil {
		return nil, err
	}
	err = c.publish(ctx, EventInsert, map[string]any{"document": stored})
	if err != nil {
		return nil, err
	}
	return document.CopyDocument(stored), nil
}

func (c *Collection) insert(doc document.Document) (document.Document, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: document required", update.ErrValidation)
	}
	stored := document.CopyDocument(doc)

	stamp := oid.New()
	switch id := stored[document.IDField].(type) {
	case oid.ObjectID:
	case string:
		if id == "" {
			stored[document.IDField] = stamp
		}
	case int, int64, float64:
		stored[document.IDField] = document.Key(id)
	default:
		stored[document.IDField] = stamp
	}
	stored[document.TimestampField] = float64(stamp.GenerationTime().Unix())

	key := document.Key(stored[document.IDField])
	if _, exists := c.index[key]; exists {
		return nil, fmt.Errorf("%w: duplicate _id %q", update.ErrValidation, key)
	}
	c.docs = append(c.docs, stored)
	c.index[key] = len(c.docs) - 1
	return stored, nil
}

// Find returns a cursor over the documents matching the selector, with
// the given field projection.
func (c *Collection) Find(ctx context.Context, selector any, fields any, opts *FindOptions) (*query.Cursor, error) {
	if opts == nil {
		opts = &FindOptions{}
	}
	c.mu.Lock()
	docs := slices.Clone(c.docs)
	c.mu.Unlock()

	err := c.publish(ctx, EventFind, map[string]any{"selector": selector})
	if err != nil {
		return nil, err
	}
	return query.NewCursor(docs, selector, fields, query.Options{
		Skip:  opts.Skip,
		Limit: opts.Limit,
	}), nil
}

// FindOne returns the first document matching the selector, or nil if
// nothing matches.
func (c *Collection) FindOne(ctx context.Context, selector any, fields any) (document.Document, error) {
	c.mu.Lock()
	docs := slices.Clone(c.docs)
	c.mu.Unlock()

	err := c.publish(ctx, EventFindOne, map[string]any{"selector": selector})
	if err != nil {
		return nil, err
	}
	cursor := query.NewCursor(docs, selector, fields, query.Options{Limit: 1})
	doc := cursor.Next()
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return doc, nil
}

// Count returns the number of documents matching the selector.
func (c *Collection) Count(ctx context.Context, selector any) (int, error) {
	c.mu.Lock()
	docs := slices.Clone(c.docs)
	c.mu.Unlock()

	return query.NewCursor(docs, selector, nil, query.Options{}).Count()
}

// Update applies an update specification to the documents matching the
// selector. Without Multi only the first match is updated. With Upsert a
// selector matching nothing inserts the specification as a new document.
//
// A failure while updating several documents leaves the documents
// already rewritten in place; there is no rollback. Use Backup and
// Restore for explicit recovery points.
func (c *Collection) Update(ctx context.Context, selector any, spec map[string]any, opts *UpdateOptions) (*UpdateResult, error) {
	if opts == nil {
		opts = &UpdateOptions{}
	}
	engineOpts := update.Options{Multi: opts.Multi, Override: opts.Override}
	if err := c.engine.Validate(spec, engineOpts); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	positions, err := c.match(selector, opts.Multi)
	if err != nil {
		return nil, err
	}

	result := &UpdateResult{
		Updated:  Counted{Documents: []document.Document{}},
		Inserted: Counted{Documents: []document.Document{}},
	}
	if len(positions) == 0 {
		if !opts.Upsert {
			return result, nil
		}
		stored, err := c.insert(c.engine.Upsert(spec))
		if err != nil {
			return nil, err
		}
		err = c.publish(ctx, EventInsert, map[string]any{"document": stored})
		if err != nil {
			return nil, err
		}
		result.Inserted.Documents = append(result.Inserted.Documents, document.CopyDocument(stored))
		result.Inserted.Count = 1
		return result, nil
	}

	for _, pos := range positions {
		updated, err := c.engine.Apply(c.docs[pos], spec, engineOpts)
		if err != nil {
			return nil, err
		}
		c.docs[pos] = updated
		result.Updated.Documents = append(result.Updated.Documents, document.CopyDocument(updated))
	}
	result.Updated.Count = len(result.Updated.Documents)

	err = c.publish(ctx, EventUpdate, map[string]any{
		"selector":  selector,
		"modifier":  spec,
		"documents": result.Updated.Documents,
		"count":     result.Updated.Count,
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// match returns the positions of documents matching the selector, in
// insertion order. Without multi only the first match is returned.
func (c *Collection) match(selector any, multi bool) ([]int, error) {
	filter := query.NewFilter(selector)
	var positions []int
	for pos, doc := range c.docs {
		ok, err := filter.Match(doc)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		positions = append(positions, pos)
		if !multi {
			break
		}
	}
	return positions, nil
}

// Remove deletes the documents matching the selector and returns them.
// An empty selector without JustOne drops the whole collection.
func (c *Collection) Remove(ctx context.Context, selector any, opts *RemoveOptions) ([]document.Document, error) {
	if opts == nil {
		opts = &RemoveOptions{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if query.NewFilter(selector).Empty() && !opts.JustOne {
		return c.drop(ctx)
	}

	positions, err := c.match(selector, !opts.JustOne)
	if err != nil {
		return nil, err
	}
	if len(positions) == 0 {
		return []document.Document{}, nil
	}

	removed := make([]document.Document, 0, len(positions))
	for _, pos := range positions {
		removed = append(removed, c.docs[pos])
	}
	for i := len(positions) - 1; i >= 0; i-- {
		c.docs = slices.Delete(c.docs, positions[i], positions[i]+1)
	}
	c.reindex()

	err = c.publish(ctx, EventRemove, map[string]any{
		"documents": removed,
		"count":     len(removed),
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

// Drop deletes every document and returns the prior contents.
func (c *Collection) Drop(ctx context.Context) ([]document.Document, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.drop(ctx)
}

func (c *Collection) drop(ctx context.Context) ([]document.Document, error) {
	dropped := c.docs
	c.docs = nil
	c.index = make(map[string]int)

	err := c.publish(ctx, EventDrop, map[string]any{"count": len(dropped)})
	if err != nil {
		return nil, err
	}
	if dropped == nil {
		dropped = []document.Document{}
	}
	return dropped, nil
}

// Save inserts the document when it has no id, and otherwise upserts it
// keyed on its id.
func (c *Collection) Save(ctx context.Context, doc document.Document) (document.Document, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: document required", update.ErrValidation)
	}
	id, ok := doc[document.IDField]
	if !ok {
		return c.Insert(ctx, doc)
	}
	result, err := c.Update(ctx, map[string]any{document.IDField: id}, doc, &UpdateOptions{Upsert: true})
	if err != nil {
		return nil, err
	}
	if result.Inserted.Count > 0 {
		return result.Inserted.Documents[0], nil
	}
	return result.Updated.Documents[0], nil
}

// reindex rebuilds the id index from document positions. Removals splice
// the document sequence, which shifts every later position.
func (c *Collection) reindex() {
	c.index = make(map[string]int, len(c.docs))
	for pos, doc := range c.docs {
		c.index[document.Key(doc[document.IDField])] = pos
	}
}
