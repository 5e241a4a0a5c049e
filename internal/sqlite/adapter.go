package sqlite

import (
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/qwe8652591/ai-builder-core-sub002/pkg/types"
)

// Adapter implements types.Adapter over one entity table of an Engine.
type Adapter struct {
	engine *Engine
	entity string
}

// Capabilities reports the full filter language and, when auto-save is
// configured, durable persistence.
func (a *Adapter) Capabilities() types.Capabilities {
	a.engine.mu.Lock()
	defer a.engine.mu.Unlock()
	return types.Capabilities{
		FullFilterLanguage: true,
		Transactions:       true,
		Durable:            a.engine.cfg.AutoSave && a.engine.snaps != nil,
	}
}

// newID generates an identifier of the form <entitylower>_<uuid>.
func newID(entity string) string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return strings.ToLower(entity) + "_" + id.String()
}

// Create stores a new entity, stamping an id and creation timestamp when
// absent, and returns the stored shape.
func (a *Adapter) Create(data types.Entity) (types.Entity, error) {
	if data == nil {
		return nil, types.ErrInvalidData
	}
	e := a.engine
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.readyLocked(); err != nil {
		return nil, err
	}

	row := make(types.Entity, len(data)+2)
	for k, v := range data {
		row[k] = v
	}
	if id, _ := row[types.FieldID].(string); id == "" {
		row[types.FieldID] = newID(a.entity)
	}
	if _, ok := row[types.FieldCreatedAt]; !ok {
		row[types.FieldCreatedAt] = time.Now()
	}

	cfg, err := e.ensureConfigLocked(a.entity, row)
	if err != nil {
		return nil, err
	}

	columns, values, err := encodeEntity(cfg, row)
	if err != nil {
		return nil, err
	}
	quoted := make([]string, len(columns))
	for i, col := range columns {
		quoted[i] = quoteIdent(col)
	}
	sqlStr, args, err := sq.Insert(quoteIdent(cfg.Name)).Columns(quoted...).Values(values...).ToSql()
	if err != nil {
		return nil, fmt.Errorf("building insert: %w", err)
	}
	if _, err := e.dbLocked().Exec(sqlStr, args...); err != nil {
		return nil, fmt.Errorf("inserting %s: %w", a.entity, err)
	}

	e.persistLocked()
	return row, nil
}

// FindByID returns the entity or nil when absent.
func (a *Adapter) FindByID(id string) (types.Entity, error) {
	e := a.engine
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.readyLocked(); err != nil {
		return nil, err
	}
	return a.findByIDLocked(id)
}

func (a *Adapter) findByIDLocked(id string) (types.Entity, error) {
	cfg, ok := a.engine.configLocked(a.entity)
	if !ok {
		return nil, nil
	}
	rows, err := a.runSelectLocked(cfg, sq.Eq{quoteIdent(types.FieldID): id}, nil, types.Page{Count: 1, PageSize: 0, PageNo: 1})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
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

// FindOne returns the first entity matching the partial-equality filter,
// or nil.
func (a *Adapter) FindOne(match types.Entity) (types.Entity, error) {
	e := a.engine
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.readyLocked(); err != nil {
		return nil, err
	}
	cfg, ok := e.configLocked(a.entity)
	if !ok {
		return nil, nil
	}
	filter, err := compileWhere(types.EqualityWhere(match), cfg)
	if err != nil {
		return nil, err
	}
	rows, err := a.runSelectLocked(cfg, filter, nil, types.Page{Count: 1, PageNo: 1})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// Find returns all matching entities in engine-native order unless
// opts.Sort is given.
func (a *Adapter) Find(match types.Entity, opts *types.FindOptions) ([]types.Entity, error) {
	spec := types.QuerySpec{Where: types.EqualityWhere(match)}
	if opts != nil {
		spec.OrderBy = opts.Sort
	}
	res, err := a.Query(spec)
	if err != nil {
		return nil, err
	}
	return res.Data, nil
}

// FindPage filters, optionally sorts, then paginates.
func (a *Adapter) FindPage(match types.Entity, opts *types.FindOptions, page types.Pagination) (*types.PageResult, error) {
	spec := types.QuerySpec{Where: types.EqualityWhere(match), Page: &page}
	if opts != nil {
		spec.OrderBy = opts.Sort
	}
	return a.Query(spec)
}

// Query compiles the spec's filter tree to SQL and executes it together
// with the parallel COUNT(*) supplying the unpaginated total.
func (a *Adapter) Query(spec types.QuerySpec) (*types.PageResult, error) {
	if err := types.ValidateWhere(spec.Where); err != nil {
		return nil, err
	}

	e := a.engine
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.readyLocked(); err != nil {
		return nil, err
	}
	window := spec.Window()
	cfg, ok := e.configLocked(a.entity)
	if !ok {
		return types.NewPageResult(nil, 0, window), nil
	}
	filter, err := compileWhere(spec.Where, cfg)
	if err != nil {
		return nil, err
	}

	total, err := a.countLocked(cfg, filter)
	if err != nil {
		return nil, err
	}
	rows, err := a.runSelectLocked(cfg, filter, spec.OrderBy, window)
	if err != nil {
		return nil, err
	}
	return types.NewPageResult(rows, total, window), nil
}

// Update merges partial into the stored entity, pins the original id, and
// stamps an update timestamp. Returns ErrNotFound when the id is absent.
func (a *Adapter) Update(id string, partial types.Entity) (types.Entity, error) {
	e := a.engine
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.readyLocked(); err != nil {
		return nil, err
	}
	current, err := a.findByIDLocked(id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, fmt.Errorf("%w: %s %q", types.ErrNotFound, a.entity, id)
	}

	for k, v := range partial {
		current[k] = v
	}
	current[types.FieldID] = id
	current[types.FieldUpdatedAt] = time.Now()

	cfg, _ := e.configLocked(a.entity)
	columns, values, err := encodeEntity(cfg, current)
	if err != nil {
		return nil, err
	}
	set := make(map[string]any, len(columns))
	for i, col := range columns {
		if col == types.FieldID {
			continue
		}
		set[quoteIdent(col)] = values[i]
	}
	sqlStr, args, err := sq.Update(quoteIdent(cfg.Name)).
		SetMap(set).
		Where(sq.Eq{quoteIdent(types.FieldID): id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building update: %w", err)
	}
	if _, err := e.dbLocked().Exec(sqlStr, args...); err != nil {
		return nil, fmt.Errorf("updating %s %q: %w", a.entity, id, err)
	}

	e.persistLocked()
	return current, nil
}

// Save upserts: update when the entity's id is already stored, else create.
func (a *Adapter) Save(entity types.Entity) (types.Entity, error) {
	id, _ := entity[types.FieldID].(string)
	if id != "" {
		existing, err := a.FindByID(id)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return a.Update(id, entity)
		}
	}
	return a.Create(entity)
}

// SaveAll saves each entity sequentially. Wrap in Transactional for
// atomicity across elements.
func (a *Adapter) SaveAll(entities []types.Entity) ([]types.Entity, error) {
	out := make([]types.Entity, 0, len(entities))
	for _, e := range entities {
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
	e := a.engine
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.readyLocked(); err != nil {
		return false, err
	}
	cfg, ok := e.configLocked(a.entity)
	if !ok {
		return false, nil
	}
	sqlStr, args, err := sq.Delete(quoteIdent(cfg.Name)).
		Where(sq.Eq{quoteIdent(types.FieldID): id}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("building delete: %w", err)
	}
	res, err := e.dbLocked().Exec(sqlStr, args...)
	if err != nil {
		return false, fmt.Errorf("deleting %s %q: %w", a.entity, id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if affected == 0 {
		return false, nil
	}
	e.persistLocked()
	return true, nil
}

// Delete removes the entity identified by e's id field.
func (a *Adapter) Delete(entity types.Entity) (bool, error) {
	id, _ := entity[types.FieldID].(string)
	if id == "" {
		return false, nil
	}
	return a.DeleteByID(id)
}

// Count returns the number of entities matching the partial filter.
func (a *Adapter) Count(match types.Entity) (int, error) {
	e := a.engine
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.readyLocked(); err != nil {
		return 0, err
	}
	cfg, ok := e.configLocked(a.entity)
	if !ok {
		return 0, nil
	}
	filter, err := compileWhere(types.EqualityWhere(match), cfg)
	if err != nil {
		return 0, err
	}
	return a.countLocked(cfg, filter)
}

// Transactional issues BEGIN, runs fn, and COMMITs on success (then
// persists) or ROLLs BACK on error (then returns the original error, no
// persistence). A panic in fn also rolls back before propagating. A
// nested call joins the open transaction.
func (a *Adapter) Transactional(fn func() (any, error)) (any, error) {
	e := a.engine
	e.mu.Lock()
	if err := e.readyLocked(); err != nil {
		e.mu.Unlock()
		return nil, err
	}
	if e.tx != nil {
		e.mu.Unlock()
		return fn()
	}
	tx, err := e.db.Begin()
	if err != nil {
		e.mu.Unlock()
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	e.tx = tx
	e.mu.Unlock()

	completed := false
	defer func() {
		if completed {
			return
		}
		// fn panicked; release the transaction before unwinding so the
		// engine's single connection is not left inside a dead tx.
		e.mu.Lock()
		e.releaseTxLocked()
		e.mu.Unlock()
		_ = tx.Rollback()
	}()

	result, err := fn()
	completed = true

	e.mu.Lock()
	defer e.mu.Unlock()
	if err != nil {
		e.releaseTxLocked()
		_ = tx.Rollback()
		return nil, err
	}
	e.tx = nil
	e.txConfigs = nil
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}
	e.persistLocked()
	return result, nil
}

// runSelectLocked executes a SELECT for cfg and decodes each row. Caller
// must hold the engine mutex.
func (a *Adapter) runSelectLocked(cfg types.TableConfig, filter sq.Sqlizer, orderBy []types.Order, window types.Page) ([]types.Entity, error) {
	sqlStr, args, err := selectBuilder(cfg, filter, orderBy, window).ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select: %w", err)
	}
	rows, err := a.engine.dbLocked().Query(sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", a.entity, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var out []types.Entity
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scanning %s row: %w", a.entity, err)
		}
		entity, err := decodeRow(cfg, columns, values)
		if err != nil {
			return nil, err
		}
		out = append(out, entity)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// countLocked runs the COUNT(*) query for a compiled filter. Caller must
// hold the engine mutex.
func (a *Adapter) countLocked(cfg types.TableConfig, filter sq.Sqlizer) (int, error) {
	sqlStr, args, err := countBuilder(cfg, filter).ToSql()
	if err != nil {
		return 0, fmt.Errorf("building count: %w", err)
	}
	var total int
	if err := a.engine.dbLocked().QueryRow(sqlStr, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("counting %s: %w", a.entity, err)
	}
	return total, nil
}
