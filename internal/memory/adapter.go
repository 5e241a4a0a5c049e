// Package memory implements the in-process table store. The backing store
// is a map from id to entity snapshot per table, with a monotonic counter
// for id generation. The engine is intended for tests and trivial
// simulation: it evaluates the filter operator set over shallow keys only
// and holds nothing durable.
package memory

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/qwe8652591/ai-builder-core-sub002/pkg/types"
)

// Store is the in-memory engine. It owns one table per entity name and
// hands out singleton adapters over them.
type Store struct {
	mu       sync.Mutex
	tables   map[string]*table
	configs  map[string]types.TableConfig
	adapters map[string]*Adapter

	// Transaction state: the outermost Transactional call snapshots the
	// whole store and restores it on error. Nested calls join the outer
	// transaction.
	txDepth       int
	backup        map[string]*table
	backupConfigs map[string]types.TableConfig
}

type table struct {
	rows   map[string]types.Entity
	order  []string // insertion order, the deterministic tie-break
	nextID int
}

// New creates an empty in-memory engine.
func New() *Store {
	return &Store{
		tables:   make(map[string]*table),
		configs:  make(map[string]types.TableConfig),
		adapters: make(map[string]*Adapter),
	}
}

// Adapter returns the adapter for the given entity name, creating it on
// first use. Instances are reused for the life of the store.
func (s *Store) Adapter(entity string) types.Adapter {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a, ok := s.adapters[entity]; ok {
		return a
	}
	a := &Adapter{store: s, entity: entity}
	s.adapters[entity] = a
	return a
}

// RegisterEntity records a table config and creates the table. The config
// is informational for this engine (no physical schema); registering the
// same config twice does not alter existing rows.
func (s *Store) RegisterEntity(cfg types.TableConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.configs[cfg.Name] = cfg.Clone()
	s.tableLocked(cfg.Name)
	return nil
}

// Destroy drops all tables and adapters. Idempotent.
func (s *Store) Destroy() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tables = make(map[string]*table)
	s.configs = make(map[string]types.TableConfig)
	s.adapters = make(map[string]*Adapter)
	s.backup = nil
	s.backupConfigs = nil
	s.txDepth = 0
	return nil
}

func (s *Store) tableLocked(entity string) *table {
	t, ok := s.tables[entity]
	if !ok {
		t = &table{rows: make(map[string]types.Entity)}
		s.tables[entity] = t
	}
	return t
}

func (s *Store) snapshotLocked() map[string]*table {
	backup := make(map[string]*table, len(s.tables))
	for name, t := range s.tables {
		cp := &table{
			rows:   make(map[string]types.Entity, len(t.rows)),
			order:  append([]string(nil), t.order...),
			nextID: t.nextID,
		}
		for id, row := range t.rows {
			cp.rows[id] = cloneEntity(row)
		}
		backup[name] = cp
	}
	return backup
}

func (s *Store) snapshotConfigsLocked() map[string]types.TableConfig {
	backup := make(map[string]types.TableConfig, len(s.configs))
	for name, cfg := range s.configs {
		backup[name] = cfg.Clone()
	}
	return backup
}

// Adapter implements types.Adapter over one table of a Store.
type Adapter struct {
	store  *Store
	entity string
}

// Capabilities reports the documented limitations of this engine: shallow
// filter matching only, no durable persistence.
func (a *Adapter) Capabilities() types.Capabilities {
	return types.Capabilities{
		FullFilterLanguage: false,
		Transactions:       true,
		Durable:            false,
	}
}

// Create stores a new entity, stamping an id of the form <entity>_<n> and
// a creation timestamp when absent.
func (a *Adapter) Create(data types.Entity) (types.Entity, error) {
	if data == nil {
		return nil, types.ErrInvalidData
	}
	a.store.mu.Lock()
	defer a.store.mu.Unlock()

	t := a.store.tableLocked(a.entity)
	row := cloneEntity(data)

	id, _ := row[types.FieldID].(string)
	if id == "" {
		t.nextID++
		id = fmt.Sprintf("%s_%d", strings.ToLower(a.entity), t.nextID)
		row[types.FieldID] = id
	}
	if _, ok := row[types.FieldCreatedAt]; !ok {
		row[types.FieldCreatedAt] = time.Now()
	}

	if _, exists := t.rows[id]; !exists {
		t.order = append(t.order, id)
	}
	t.rows[id] = row
	return cloneEntity(row), nil
}

// FindByID returns the entity or nil when absent.
func (a *Adapter) FindByID(id string) (types.Entity, error) {
	a.store.mu.Lock()
	defer a.store.mu.Unlock()

	row, ok := a.store.tableLocked(a.entity).rows[id]
	if !ok {
		return nil, nil
	}
	return cloneEntity(row), nil
}

// Get returns the entity or ErrNotFound when absent.
func (a *Adapter) Get(id string) (types.Entity, error) {
	row, err := a.FindByID(id)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, fmt.Errorf("%w: %s %q", types.ErrNotFound, a.entity, id)
	}
	return row, nil
}

// FindOne returns the first entity in insertion order matching the
// partial-equality filter, or nil.
func (a *Adapter) FindOne(match types.Entity) (types.Entity, error) {
	a.store.mu.Lock()
	defer a.store.mu.Unlock()

	t := a.store.tableLocked(a.entity)
	for _, id := range t.order {
		if row, ok := t.rows[id]; ok && matchesPartial(row, match) {
			return cloneEntity(row), nil
		}
	}
	return nil, nil
}

// Find returns all matching entities, sorted when opts.Sort is given.
func (a *Adapter) Find(match types.Entity, opts *types.FindOptions) ([]types.Entity, error) {
	a.store.mu.Lock()
	rows := a.filterLocked(match)
	a.store.mu.Unlock()

	if opts != nil {
		sortEntities(rows, opts.Sort)
	}
	return rows, nil
}

// FindPage filters, optionally sorts, then paginates. Total is computed on
// the filtered set before the window is applied.
func (a *Adapter) FindPage(match types.Entity, opts *types.FindOptions, page types.Pagination) (*types.PageResult, error) {
	a.store.mu.Lock()
	rows := a.filterLocked(match)
	a.store.mu.Unlock()

	if opts != nil {
		sortEntities(rows, opts.Sort)
	}
	window := page.Normalize()
	return types.NewPageResult(applyWindow(rows, window), len(rows), window), nil
}

// Query executes a full filter tree over shallow keys. Dot-path conditions
// match nothing in this engine.
func (a *Adapter) Query(spec types.QuerySpec) (*types.PageResult, error) {
	if err := types.ValidateWhere(spec.Where); err != nil {
		return nil, err
	}

	a.store.mu.Lock()
	t := a.store.tableLocked(a.entity)
	var rows []types.Entity
	for _, id := range t.order {
		if row, ok := t.rows[id]; ok && matchAll(row, spec.Where) {
			rows = append(rows, cloneEntity(row))
		}
	}
	a.store.mu.Unlock()

	sortEntities(rows, spec.OrderBy)
	window := spec.Window()
	return types.NewPageResult(applyWindow(rows, window), len(rows), window), nil
}

// Update merges partial into the stored entity. The id field is pinned to
// the original and an update timestamp is stamped.
func (a *Adapter) Update(id string, partial types.Entity) (types.Entity, error) {
	a.store.mu.Lock()
	defer a.store.mu.Unlock()

	t := a.store.tableLocked(a.entity)
	row, ok := t.rows[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s %q", types.ErrNotFound, a.entity, id)
	}
	for k, v := range partial {
		row[k] = cloneValue(v)
	}
	row[types.FieldID] = id
	row[types.FieldUpdatedAt] = time.Now()
	return cloneEntity(row), nil
}

// Save upserts: update when the entity's id is already stored, else create.
func (a *Adapter) Save(e types.Entity) (types.Entity, error) {
	id, _ := e[types.FieldID].(string)
	if id != "" {
		a.store.mu.Lock()
		_, exists := a.store.tableLocked(a.entity).rows[id]
		a.store.mu.Unlock()
		if exists {
			return a.Update(id, e)
		}
	}
	return a.Create(e)
}

// SaveAll saves each entity sequentially. No atomicity across elements
// unless wrapped in Transactional.
func (a *Adapter) SaveAll(es []types.Entity) ([]types.Entity, error) {
	out := make([]types.Entity, 0, len(es))
	for _, e := range es {
		saved, err := a.Save(e)
		if err != nil {
			return nil, err
		}
		out = append(out, saved)
	}
	return out, nil
}

// DeleteByID removes the entity, reporting whether a row existed.
func (a *Adapter) DeleteByID(id string) (bool, error) {
	a.store.mu.Lock()
	defer a.store.mu.Unlock()

	t := a.store.tableLocked(a.entity)
	if _, ok := t.rows[id]; !ok {
		return false, nil
	}
	delete(t.rows, id)
	for i, oid := range t.order {
		if oid == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return true, nil
}

// Delete removes the entity identified by e's id field.
func (a *Adapter) Delete(e types.Entity) (bool, error) {
	id, _ := e[types.FieldID].(string)
	if id == "" {
		return false, nil
	}
	return a.DeleteByID(id)
}

// Count returns the number of entities matching the partial filter.
func (a *Adapter) Count(match types.Entity) (int, error) {
	a.store.mu.Lock()
	defer a.store.mu.Unlock()

	t := a.store.tableLocked(a.entity)
	n := 0
	for _, row := range t.rows {
		if matchesPartial(row, match) {
			n++
		}
	}
	return n, nil
}

// Transactional snapshots the whole store before running fn and restores
// it when fn returns an error or panics. Nested calls join the outermost
// transaction; rollback happens only at the outermost boundary.
func (a *Adapter) Transactional(fn func() (any, error)) (any, error) {
	s := a.store
	s.mu.Lock()
	if s.txDepth == 0 {
		s.backup = s.snapshotLocked()
		s.backupConfigs = s.snapshotConfigsLocked()
	}
	s.txDepth++
	s.mu.Unlock()

	completed := false
	defer func() {
		if completed {
			return
		}
		// fn panicked; roll back before unwinding so the store is not
		// left mid-transaction.
		s.mu.Lock()
		s.txDepth--
		if s.txDepth == 0 {
			s.restoreLocked()
		}
		s.mu.Unlock()
	}()

	result, err := fn()
	completed = true

	s.mu.Lock()
	defer s.mu.Unlock()
	s.txDepth--
	if err != nil {
		if s.txDepth == 0 {
			s.restoreLocked()
		}
		return nil, err
	}
	if s.txDepth == 0 {
		s.backup = nil
		s.backupConfigs = nil
	}
	return result, nil
}

// restoreLocked reinstates the outermost-transaction snapshot. Caller must
// hold the store mutex.
func (s *Store) restoreLocked() {
	s.tables = s.backup
	s.configs = s.backupConfigs
	s.backup = nil
	s.backupConfigs = nil
}

// filterLocked returns clones of all rows matching the partial filter, in
// insertion order. Caller must hold the store mutex.
func (a *Adapter) filterLocked(match types.Entity) []types.Entity {
	t := a.store.tableLocked(a.entity)
	var rows []types.Entity
	for _, id := range t.order {
		if row, ok := t.rows[id]; ok && matchesPartial(row, match) {
			rows = append(rows, cloneEntity(row))
		}
	}
	return rows
}

// matchesPartial reports whether every key present in match equals the
// corresponding entity field.
func matchesPartial(e, match types.Entity) bool {
	for k, v := range match {
		ev, ok := e[k]
		if !ok || !equalValues(ev, v) {
			return false
		}
	}
	return true
}

// applyWindow slices rows to the canonical pagination window.
func applyWindow(rows []types.Entity, window types.Page) []types.Entity {
	start := window.Start
	if start > len(rows) {
		start = len(rows)
	}
	end := len(rows)
	if window.Bounded() && start+window.Count < end {
		end = start + window.Count
	}
	return rows[start:end]
}
