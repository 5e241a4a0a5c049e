package types

import "errors"

// Entity is an opaque row keyed by the "id" field. Adapters take ownership
// of written entities and return independent copies on every read.
type Entity = map[string]any

// Reserved entity fields stamped by adapters.
const (
	FieldID        = "id"
	FieldCreatedAt = "created_at"
	FieldUpdatedAt = "updated_at"
)

// FindOptions carries optional read modifiers for Find and FindPage.
type FindOptions struct {
	Sort []Order
}

// Capabilities describes what a concrete adapter supports, so callers can
// detect engine divergence instead of discovering it at runtime.
type Capabilities struct {
	// FullFilterLanguage is true when the adapter evaluates the complete
	// operator set including dot-path access into JSON columns. The
	// in-memory engine only matches shallow keys and reports false.
	FullFilterLanguage bool

	// Transactions is true when Transactional provides rollback atomicity.
	Transactions bool

	// Durable is true when writes persist snapshots to a snapshot store.
	Durable bool
}

// Adapter is the uniform CRUD/query/transaction contract both storage
// engines implement. All misses on the lookup path are represented as
// nil/false/zero rather than errors; only Get and Update report ErrNotFound.
type Adapter interface {
	// Create stores a new entity. When the "id" field is absent an
	// identifier of the form <entitylower>_<suffix> is generated, and a
	// creation timestamp is stamped. Returns the stored shape.
	Create(data Entity) (Entity, error)

	// FindByID returns the entity with the given id, or nil when absent.
	FindByID(id string) (Entity, error)

	// Get returns the entity with the given id, or ErrNotFound (wrapped
	// with the entity name and id) when absent.
	Get(id string) (Entity, error)

	// FindOne returns the first entity whose fields equal every key
	// present in match, or nil when none does.
	FindOne(match Entity) (Entity, error)

	// Find returns all entities matching the partial-equality filter.
	// An empty or nil match returns every entity. Order is insertion
	// order for the in-memory engine and engine-native otherwise, unless
	// opts.Sort is given.
	Find(match Entity, opts *FindOptions) ([]Entity, error)

	// FindPage filters, optionally sorts, then paginates. The result's
	// Total reflects the unpaginated filtered count.
	FindPage(match Entity, opts *FindOptions, page Pagination) (*PageResult, error)

	// Query executes a full QuerySpec (filter tree, ordering, pagination)
	// and returns a page result. The spec's Entity field is ignored; the
	// adapter's own entity is queried.
	Query(spec QuerySpec) (*PageResult, error)

	// Update merges partial into the stored entity, pins the original id,
	// and stamps an update timestamp. Returns ErrNotFound when the id
	// does not exist.
	Update(id string, partial Entity) (Entity, error)

	// Save upserts: routes to Update when the entity carries an id that
	// is already stored, else to Create.
	Save(e Entity) (Entity, error)

	// SaveAll saves each entity in order. No atomicity across elements
	// unless wrapped in Transactional.
	SaveAll(es []Entity) ([]Entity, error)

	// DeleteByID removes the entity and reports whether a row existed.
	DeleteByID(id string) (bool, error)

	// Delete removes the entity identified by e's "id" field.
	Delete(e Entity) (bool, error)

	// Count returns the number of entities matching the partial filter.
	Count(match Entity) (int, error)

	// Transactional runs fn with all writes inside it atomic. On error
	// the writes are rolled back and the original error is returned; on
	// success the transaction commits and durable persistence (when
	// configured) is triggered. fn's result is propagated.
	Transactional(fn func() (any, error)) (any, error)

	// Capabilities reports what this adapter supports.
	Capabilities() Capabilities
}

// Engine is the lifecycle surface shared by both storage engines. Adapter
// returns the singleton adapter for an entity name; instances are reused
// for the life of the engine.
type Engine interface {
	// Adapter returns the adapter for the given entity name, creating it
	// on first use.
	Adapter(entity string) Adapter

	// RegisterEntity pre-creates the table for an entity. Idempotent:
	// registering the same config twice does not alter existing rows.
	RegisterEntity(cfg TableConfig) error

	// Destroy releases engine resources, persisting a final snapshot when
	// durable persistence is configured. Idempotent.
	Destroy() error
}

// Storage errors. All storage-layer failures propagate to the caller
// unchanged; there is no retry logic anywhere in the core.
var (
	ErrNotFound           = errors.New("entity not found")
	ErrNotInitialized     = errors.New("storage engine is not initialized")
	ErrAlreadyInitialized = errors.New("storage engine is already initialized")
	ErrLoadFailure        = errors.New("embedded engine failed to load")
	ErrInvalidFilter      = errors.New("invalid filter value")
	ErrInvalidData        = errors.New("invalid entity data")
	ErrInvalidID          = errors.New("invalid entity ID")
)
