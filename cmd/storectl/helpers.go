// Shared helpers for storectl commands.
package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/qwe8652591/ai-builder-core-sub002/pkg/memory"
	"github.com/qwe8652591/ai-builder-core-sub002/pkg/snapshot"
	"github.com/qwe8652591/ai-builder-core-sub002/pkg/sqlite"
	"github.com/qwe8652591/ai-builder-core-sub002/pkg/types"
)

// openEngine resolves the data directory and builds the configured
// storage engine. The caller must defer engine.Destroy().
func openEngine() (types.Engine, error) {
	backend := configBackend
	if backend == "" {
		backend = defaultBackend
	}
	if backend == types.BackendMemory {
		return memory.New(), nil
	}

	dataDir, err := resolveDataDir()
	if err != nil {
		return nil, fmt.Errorf("resolve data dir: %w", err)
	}

	cfg := types.Config{
		Backend:     backend,
		DataDir:     dataDir,
		SnapshotKey: configSnapshotKey,
		AutoSave:    configAutoSave,
	}

	var store snapshot.Store
	if cfg.SnapshotKey != "" {
		fs, err := snapshot.NewFileStore(filepath.Join(dataDir, "snapshots"))
		if err != nil {
			return nil, fmt.Errorf("open snapshot store: %w", err)
		}
		store = fs
	}

	engine, err := sqlite.New(cfg, store)
	if err != nil {
		return nil, fmt.Errorf("open storage engine: %w", err)
	}
	return engine, nil
}

// parseFilterArgs turns key=value arguments into a partial-match entity.
// Values parse as JSON when possible and fall back to raw strings.
func parseFilterArgs(args []string) (types.Entity, error) {
	filter := make(types.Entity)
	for _, arg := range args {
		parts := strings.SplitN(arg, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid filter %q (expected key=value)", arg)
		}
		var parsed any
		if err := json.Unmarshal([]byte(parts[1]), &parsed); err != nil {
			parsed = parts[1]
		}
		filter[parts[0]] = parsed
	}
	return filter, nil
}

// parseSortFlag turns "field" or "field:desc" items into ordering keys.
func parseSortFlag(items []string) []types.Order {
	var keys []types.Order
	for _, item := range items {
		field, dir, _ := strings.Cut(item, ":")
		keys = append(keys, types.Order{
			Field: field,
			Desc:  strings.EqualFold(dir, "desc"),
		})
	}
	return keys
}

// printEntity writes one entity as indented JSON.
func printEntity(e types.Entity) error {
	out, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal entity: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

// printResult writes a page result: the data as JSON, plus a summary line
// unless --json asked for the raw structure.
func printResult(res *types.PageResult) error {
	if flagJSON {
		out, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal result: %w", err)
		}
		fmt.Println(string(out))
		return nil
	}
	out, err := json.MarshalIndent(res.Data, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal entities: %w", err)
	}
	fmt.Println(string(out))
	if res.Pagination != nil {
		fmt.Printf("page %d/%d, %d total\n", res.Pagination.PageNo, res.Pagination.TotalPages, res.Total)
	} else {
		fmt.Printf("%d total\n", res.Total)
	}
	return nil
}
