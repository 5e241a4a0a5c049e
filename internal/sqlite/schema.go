package sqlite

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/qwe8652591/ai-builder-core-sub002/pkg/types"
)

// ensureConfigLocked returns the table config for an entity, inferring and
// creating it from the sample payload when the entity was never registered.
// Once inferred, the config is fixed for the process lifetime: keys seen on
// later writes are not retro-added. Caller must hold e.mu.
func (e *Engine) ensureConfigLocked(entity string, sample types.Entity) (types.TableConfig, error) {
	if cfg, ok := e.configs[entity]; ok {
		return cfg, nil
	}
	cfg := inferConfig(entity, sample)
	if err := e.createTableLocked(cfg); err != nil {
		return types.TableConfig{}, err
	}
	e.configs[entity] = cfg
	if e.tx != nil {
		e.txConfigs = append(e.txConfigs, entity)
	}
	return cfg, nil
}

// configLocked returns the config for an entity when one exists. Reads on
// an entity with no config see an empty table.
func (e *Engine) configLocked(entity string) (types.TableConfig, bool) {
	cfg, ok := e.configs[entity]
	return cfg, ok
}

// inferConfig derives a table config from the first written payload.
// Column types per value: map/slice -> JSON text, time.Time -> date text,
// number -> real, bool -> integer, everything else text.
func inferConfig(entity string, sample types.Entity) types.TableConfig {
	cfg := types.TableConfig{
		Name:        entity,
		Columns:     map[string]string{types.FieldID: types.ColText},
		JSONColumns: make(map[string]bool),
		DateColumns: make(map[string]bool),
		BoolColumns: make(map[string]bool),
	}
	for key, value := range sample {
		if key == types.FieldID {
			continue
		}
		switch value.(type) {
		case map[string]any, []any:
			cfg.Columns[key] = types.ColText
			cfg.JSONColumns[key] = true
		case time.Time:
			cfg.Columns[key] = types.ColText
			cfg.DateColumns[key] = true
		case bool:
			cfg.Columns[key] = types.ColInteger
			cfg.BoolColumns[key] = true
		case int, int8, int16, int32, int64,
			uint, uint8, uint16, uint32, uint64,
			float32, float64:
			cfg.Columns[key] = types.ColReal
		default:
			cfg.Columns[key] = types.ColText
		}
	}
	// Timestamps are stamped on create/update even when the first payload
	// lacks them.
	if _, ok := cfg.Columns[types.FieldCreatedAt]; !ok {
		cfg.Columns[types.FieldCreatedAt] = types.ColText
		cfg.DateColumns[types.FieldCreatedAt] = true
	}
	if _, ok := cfg.Columns[types.FieldUpdatedAt]; !ok {
		cfg.Columns[types.FieldUpdatedAt] = types.ColText
		cfg.DateColumns[types.FieldUpdatedAt] = true
	}
	return cfg
}

// createTableLocked issues an idempotent CREATE TABLE for cfg. Caller must
// hold e.mu.
func (e *Engine) createTableLocked(cfg types.TableConfig) error {
	if _, err := e.dbLocked().Exec(createTableSQL(cfg)); err != nil {
		return fmt.Errorf("creating table %q: %w", cfg.Name, err)
	}
	return nil
}

// createTableSQL renders the DDL for a table config. The id column is
// always the text primary key.
func createTableSQL(cfg types.TableConfig) string {
	var sb strings.Builder
	sb.WriteString("CREATE TABLE IF NOT EXISTS ")
	sb.WriteString(quoteIdent(cfg.Name))
	sb.WriteString(" (")
	sb.WriteString(quoteIdent(types.FieldID))
	sb.WriteString(" text PRIMARY KEY")
	for _, col := range sortedColumns(cfg) {
		if col == types.FieldID {
			continue
		}
		sb.WriteString(", ")
		sb.WriteString(quoteIdent(col))
		sb.WriteByte(' ')
		sb.WriteString(cfg.Columns[col])
	}
	sb.WriteString(")")
	return sb.String()
}

// sortedColumns returns the config's column names in deterministic order.
func sortedColumns(cfg types.TableConfig) []string {
	cols := make([]string, 0, len(cfg.Columns))
	for name := range cfg.Columns {
		cols = append(cols, name)
	}
	sort.Strings(cols)
	return cols
}

// quoteIdent quotes a SQL identifier, doubling embedded quotes.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
