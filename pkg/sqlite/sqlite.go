// Package sqlite provides the public API for the embedded-SQL storage
// engine. The engine runs modernc.org/sqlite in process and optionally
// persists full database snapshots to a snapshot store.
package sqlite

import (
	"github.com/qwe8652591/ai-builder-core-sub002/internal/sqlite"
	"github.com/qwe8652591/ai-builder-core-sub002/pkg/snapshot"
	"github.com/qwe8652591/ai-builder-core-sub002/pkg/types"
)

// Engine is the embedded-SQL engine. Beyond types.Engine it exposes
// Flush, which blocks until in-flight snapshot uploads complete, and
// Export, which returns the whole database as a binary blob.
type Engine = sqlite.Engine

// New creates an engine and initializes it with cfg. The snapshot store
// may be nil when durable persistence is not wanted; with a store and a
// configured snapshot key, a previously persisted snapshot is restored
// before the database opens.
//
// Example:
//
//	store, _ := snapshot.NewFileStore(".store-snapshots")
//	engine, err := sqlite.New(types.Config{
//	    Backend:     types.BackendSQLite,
//	    DataDir:     ".store-db",
//	    SnapshotKey: "main",
//	    AutoSave:    true,
//	}, store)
//	defer engine.Destroy()
func New(cfg types.Config, store snapshot.Store) (*Engine, error) {
	e := sqlite.New()
	if err := e.Initialize(cfg, store); err != nil {
		return nil, err
	}
	return e, nil
}
