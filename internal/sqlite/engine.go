// Package sqlite implements the embedded-SQL storage engine on top of
// modernc.org/sqlite. Filters compile to parameterized SQL, composite and
// date values are serialized at the row codec, and the whole database can
// be persisted as a snapshot blob to a host-provided store.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/qwe8652591/ai-builder-core-sub002/pkg/snapshot"
	"github.com/qwe8652591/ai-builder-core-sub002/pkg/types"
)

const dbFileName = "store.db"

// Engine is the embedded-SQL storage engine. Lifecycle: New (uninitialized)
// -> Initialize (ready) -> Destroy (terminal). Operations invoked before
// Initialize return ErrNotInitialized.
type Engine struct {
	mu          sync.Mutex
	initialized bool
	cfg         types.Config
	db          *sql.DB
	dbPath      string

	// tx is the open transaction while a Transactional callback runs.
	// There is only one logical connection; statements issued inside the
	// callback route through it.
	tx *sql.Tx

	// txConfigs names entities whose tables were first created inside the
	// open transaction. A rollback undoes the CREATE TABLE, so the cached
	// configs must go with it.
	txConfigs []string

	configs  map[string]types.TableConfig
	adapters map[string]*Adapter

	snaps snapshot.Store
	saves sync.WaitGroup // in-flight asynchronous snapshot uploads
}

// New creates an uninitialized engine.
func New() *Engine {
	return &Engine{
		configs:  make(map[string]types.TableConfig),
		adapters: make(map[string]*Adapter),
	}
}

// Initialize validates the config, restores a previously persisted
// snapshot when a snapshot key is configured and one exists in store, and
// opens the database. A failed engine load is wrapped as ErrLoadFailure.
// The snapshot store may be nil when durable persistence is not wanted.
func (e *Engine) Initialize(cfg types.Config, store snapshot.Store) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.initialized {
		return types.ErrAlreadyInitialized
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.AutoSave && store == nil {
		return types.ErrSnapshotKeyMissing
	}

	dataDir := cfg.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}
	dbPath := filepath.Join(dataDir, dbFileName)

	if store != nil && cfg.SnapshotKey != "" {
		blob, err := store.Load(cfg.SnapshotKey)
		switch {
		case err == nil:
			if err := os.WriteFile(dbPath, blob, 0o644); err != nil {
				return fmt.Errorf("restoring snapshot: %w", err)
			}
		case errors.Is(err, snapshot.ErrNotFound):
			// No snapshot yet; open empty.
		default:
			return fmt.Errorf("loading snapshot %q: %w", cfg.SnapshotKey, err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err == nil {
		err = db.Ping()
	}
	if err != nil {
		if db != nil {
			db.Close()
		}
		return fmt.Errorf("%w: opening %s: %v (link modernc.org/sqlite into the binary)",
			types.ErrLoadFailure, dbPath, err)
	}
	// The engine relies on a single logical connection: an open sql.Tx
	// must see every statement issued inside the callback.
	db.SetMaxOpenConns(1)

	// Plain LIKE stays case-sensitive; the ilike operator folds both
	// operands explicitly.
	if _, err := db.Exec("PRAGMA case_sensitive_like = ON"); err != nil {
		db.Close()
		return fmt.Errorf("configuring engine: %w", err)
	}

	e.cfg = cfg
	e.db = db
	e.dbPath = dbPath
	e.snaps = store
	e.initialized = true
	return nil
}

// Adapter returns the adapter for the given entity name, creating it on
// first use. Instances are reused for the life of the engine.
func (e *Engine) Adapter(entity string) types.Adapter {
	e.mu.Lock()
	defer e.mu.Unlock()

	if a, ok := e.adapters[entity]; ok {
		return a
	}
	a := &Adapter{engine: e, entity: entity}
	e.adapters[entity] = a
	return a
}

// RegisterEntity pre-creates the table for cfg. Idempotent: the CREATE is
// IF NOT EXISTS and an already-registered config is kept, so existing rows
// are never altered.
func (e *Engine) RegisterEntity(cfg types.TableConfig) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.readyLocked(); err != nil {
		return err
	}
	if err := e.createTableLocked(cfg); err != nil {
		return err
	}
	if _, ok := e.configs[cfg.Name]; !ok {
		e.configs[cfg.Name] = cfg.Clone()
		if e.tx != nil {
			e.txConfigs = append(e.txConfigs, cfg.Name)
		}
	}
	return nil
}

// Flush blocks until all in-flight snapshot uploads complete. Callers
// needing strict snapshot ordering serialize writes and Flush between them.
func (e *Engine) Flush() {
	e.saves.Wait()
}

// Destroy persists a final snapshot (when configured) and closes the
// database. Idempotent; the engine is terminal afterwards.
func (e *Engine) Destroy() error {
	e.mu.Lock()
	if !e.initialized {
		e.mu.Unlock()
		return nil
	}
	e.initialized = false
	db := e.db
	e.db = nil
	e.tx = nil
	snaps := e.snaps
	key := e.cfg.SnapshotKey
	dbPath := e.dbPath
	e.mu.Unlock()

	e.saves.Wait()

	var firstErr error
	if snaps != nil && key != "" {
		if blob, err := os.ReadFile(dbPath); err == nil {
			if err := snaps.Save(key, blob); err != nil {
				firstErr = fmt.Errorf("persisting final snapshot: %w", err)
			}
		} else {
			firstErr = fmt.Errorf("exporting final snapshot: %w", err)
		}
	}
	if err := db.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// Export returns the whole current database as a binary blob.
func (e *Engine) Export() ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.readyLocked(); err != nil {
		return nil, err
	}
	return os.ReadFile(e.dbPath)
}

func (e *Engine) readyLocked() error {
	if !e.initialized {
		return types.ErrNotInitialized
	}
	return nil
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// releaseTxLocked clears the open transaction's engine state: the tx
// handle and the configs of tables first created inside it, which a
// rollback removes from the database. Caller must hold e.mu.
func (e *Engine) releaseTxLocked() {
	e.tx = nil
	for _, name := range e.txConfigs {
		delete(e.configs, name)
	}
	e.txConfigs = nil
}

// dbLocked returns the statement target: the open transaction when one is
// active, else the database handle. Caller must hold e.mu.
func (e *Engine) dbLocked() execer {
	if e.tx != nil {
		return e.tx
	}
	return e.db
}

// persistLocked exports the database and hands the blob to the snapshot
// store asynchronously. The export happens under the engine mutex so the
// blob is consistent; the upload is the write's asynchronous tail. When
// two writes race, the later snapshot wins (last-write-wins, no merge).
// Upload errors cannot reach the write that triggered them, so they are
// logged. Caller must hold e.mu.
func (e *Engine) persistLocked() {
	if !e.cfg.AutoSave || e.snaps == nil || e.cfg.SnapshotKey == "" {
		return
	}
	if e.tx != nil {
		// Mid-transaction state is never snapshotted; the commit path
		// persists once.
		return
	}
	blob, err := os.ReadFile(e.dbPath)
	if err != nil {
		slog.Error("storage: snapshot export failed", "path", e.dbPath, "error", err)
		return
	}
	key := e.cfg.SnapshotKey
	store := e.snaps
	e.saves.Add(1)
	go func() {
		defer e.saves.Done()
		if err := store.Save(key, blob); err != nil {
			slog.Error("storage: snapshot save failed", "key", key, "error", err)
		}
	}()
}
