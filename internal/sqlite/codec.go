package sqlite

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/qwe8652591/ai-builder-core-sub002/pkg/types"
)

// Row codec. Writes serialize composite and date values (JSON text,
// RFC3339, booleans to 0/1); reads reverse the mapping using the table
// config. Serialization stays identical for both query compilation targets
// so filters and stored rows always agree.

// encodeValue serializes one field for binding into SQL.
func encodeValue(cfg types.TableConfig, column string, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch val := v.(type) {
	case time.Time:
		return val.Format(time.RFC3339), nil
	case bool:
		if val {
			return int64(1), nil
		}
		return int64(0), nil
	}
	if cfg.JSONColumns[column] || !isPrimitive(v) {
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("%w: marshaling %q: %v", types.ErrInvalidData, column, err)
		}
		return string(data), nil
	}
	return v, nil
}

// encodeEntity maps an entity onto the configured columns in deterministic
// order. Keys outside the config are silently not stored (the config is
// fixed at first write).
func encodeEntity(cfg types.TableConfig, e types.Entity) (columns []string, values []any, err error) {
	for _, col := range sortedColumns(cfg) {
		v, ok := e[col]
		if !ok {
			continue
		}
		encoded, err := encodeValue(cfg, col, v)
		if err != nil {
			return nil, nil, err
		}
		columns = append(columns, col)
		values = append(values, encoded)
	}
	return columns, values, nil
}

// decodeRow reconstructs an entity from scanned column values: JSON
// columns are parsed, date columns re-parsed, integer-backed booleans
// restored, NULLs dropped, everything else passes through.
func decodeRow(cfg types.TableConfig, columns []string, values []any) (types.Entity, error) {
	e := make(types.Entity, len(columns))
	for i, col := range columns {
		v := values[i]
		if v == nil {
			continue
		}
		switch {
		case cfg.JSONColumns[col]:
			var parsed any
			if err := json.Unmarshal([]byte(asString(v)), &parsed); err != nil {
				return nil, fmt.Errorf("parsing JSON column %q: %w", col, err)
			}
			e[col] = parsed
		case cfg.DateColumns[col]:
			ts, err := time.Parse(time.RFC3339, asString(v))
			if err != nil {
				return nil, fmt.Errorf("parsing date column %q: %w", col, err)
			}
			e[col] = ts
		case cfg.BoolColumns[col]:
			n, ok := v.(int64)
			if !ok {
				return nil, fmt.Errorf("boolean column %q holds %T", col, v)
			}
			e[col] = n != 0
		default:
			if b, ok := v.([]byte); ok {
				e[col] = string(b)
			} else {
				e[col] = v
			}
		}
	}
	return e, nil
}

func asString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	default:
		return fmt.Sprintf("%v", s)
	}
}

// isPrimitive reports whether a value binds directly without JSON
// serialization.
func isPrimitive(v any) bool {
	switch v.(type) {
	case nil, string, []byte,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	default:
		return false
	}
}
